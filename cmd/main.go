package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/eduvoice/dubsession/internal/backend"
	"github.com/eduvoice/dubsession/internal/config"
	"github.com/eduvoice/dubsession/internal/history"
	"github.com/eduvoice/dubsession/internal/httpapi"
	"github.com/eduvoice/dubsession/internal/platform"
	"github.com/eduvoice/dubsession/internal/session"
	"github.com/eduvoice/dubsession/pkg/log"
)

var maintenanceGroup singleflight.Group

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("failed to load configuration: %v", err)
	}
	log.InitLogger(log.ParseLevel(cfg.System.LogLevel))

	store, err := history.NewSQLiteStore(cfg.System.DBPath)
	if err != nil {
		log.Fatal("failed to open history store: %v", err)
	}
	defer store.Close()

	api, err := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.APIURL,
		Token:   cfg.Backend.APIToken,
		Timeout: time.Duration(cfg.Backend.Timeout) * time.Second,
	})
	if err != nil {
		log.Fatal("failed to create backend client: %v", err)
	}

	manager := session.NewManager(session.Config{
		API:          api,
		Recorder:     history.NewRecorder(store),
		PollInterval: cfg.Dubbing.PollInterval,
		PollTimeout:  cfg.Dubbing.PollTimeout,
	})

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Maintenance.CronExpr, func() {
		_, _, _ = maintenanceGroup.Do("maintenance", func() (any, error) {
			runMaintenance(store, manager, cfg.Maintenance.RetentionDays)
			return nil, nil
		})
	})
	if err != nil {
		log.Fatal("failed to schedule maintenance job: %v", err)
	}
	scheduler.Start()

	server := httpapi.NewServer(manager, platform.NewClient(api),
		httpapi.WithHistory(store),
		httpapi.WithMaintenanceCron(cfg.Maintenance.CronExpr),
		httpapi.WithUI(cfg.HTTP.UIStaticDir, cfg.HTTP.UIEnabled),
	)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening on %s", cfg.HTTP.Addr)
		errCh <- server.ListenAndServe(cfg.HTTP.Addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped: %v", err)
		}
	}

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("shutdown: %v", err)
	}
	manager.CloseAll()
	log.Info("bye")
}

// runMaintenance prunes old history rows and refreshes the availability
// menus of live sessions.
func runMaintenance(store *history.SQLiteStore, manager *session.Manager, retentionDays int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	pruned, err := store.Prune(ctx, cutoff)
	if err != nil {
		log.Error("history prune failed: %v", err)
	} else if pruned > 0 {
		log.Info("pruned %d history rows older than %s", pruned, cutoff.Format(time.RFC3339))
	}

	manager.ResyncAvailability(ctx)
}
