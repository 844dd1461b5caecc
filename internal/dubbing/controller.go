package dubbing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/eduvoice/dubsession/internal/backend"
	"github.com/eduvoice/dubsession/internal/langutil"
	"github.com/eduvoice/dubsession/internal/playback"
	"github.com/eduvoice/dubsession/pkg/log"
	"github.com/google/uuid"
)

// ControllerConfig wires one Controller.
type ControllerConfig struct {
	SessionID    string
	API          API
	Player       playback.Player
	Notifier     Notifier        // optional, defaults to log-backed
	Recorder     OutcomeRecorder // optional
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Controller is the per-session state machine coordinating cache probe,
// job submission, status polling and playback handoff for one player
// session. All transitions are applied in the order the underlying network
// calls resolve; a resolved call that no longer matches the current request
// is discarded.
type Controller struct {
	sessionID    string
	api          API
	probe        *Probe
	registry     *Registry
	binder       *playback.SourceBinder
	notifier     Notifier
	recorder     OutcomeRecorder
	pollInterval time.Duration
	pollTimeout  time.Duration

	mu          sync.Mutex
	contentID   string
	sourceLang  string
	originalURL string
	generation  uint64
	req         *request
}

func NewController(cfg ControllerConfig) *Controller {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = LogNotifier{}
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Controller{
		sessionID:    cfg.SessionID,
		api:          cfg.API,
		probe:        NewProbe(cfg.API),
		registry:     NewRegistry(cfg.API),
		binder:       playback.NewSourceBinder(cfg.Player),
		notifier:     notifier,
		recorder:     cfg.Recorder,
		pollInterval: interval,
		pollTimeout:  timeout,
	}
}

// Registry exposes the availability registry for the session surface.
func (c *Controller) Registry() *Registry {
	return c.registry
}

// LoadContent points the session at a new lecture: any active request is
// abandoned, its poll loop stopped, the generation advanced and the new
// original source bound before this method returns, so a slow dubbing
// response for the previous lecture can never overwrite the new one. The
// availability registry is then rebuilt.
func (c *Controller) LoadContent(ctx context.Context, meta *backend.ContentMeta) Snapshot {
	c.mu.Lock()
	c.abandonActiveLocked(true)
	c.req = nil
	c.contentID = meta.ID
	c.sourceLang = meta.SourceLanguage
	c.originalURL = meta.OriginalURL
	c.generation = c.binder.Advance(meta.OriginalURL)
	c.registry.Reset(meta.ID)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if err := c.registry.Refresh(ctx, meta.ID); err != nil {
		log.Warn("Availability refresh for %s failed: %v", meta.ID, err)
	}
	return snap
}

// RequestLanguage handles a language-selection intent. Selecting the source
// language falls straight back to the original asset with no network
// activity. Anything else starts a fresh request: probe the cache, submit a
// job on a miss, poll until terminal.
func (c *Controller) RequestLanguage(ctx context.Context, lang string) Snapshot {
	c.mu.Lock()
	if c.contentID == "" {
		// No content loaded; contract violation is a no-op.
		defer c.mu.Unlock()
		return c.snapshotLocked()
	}

	if lang == c.sourceLang {
		c.abandonActiveLocked(true)
		c.req = nil
		c.generation = c.binder.Advance(c.originalURL)
		defer c.mu.Unlock()
		return c.snapshotLocked()
	}

	if r := c.req; r != nil && !r.state.Terminal() && r.lang == lang {
		// Same selection while already in flight.
		defer c.mu.Unlock()
		return c.snapshotLocked()
	}

	c.abandonActiveLocked(true)
	r := &request{
		id:        uuid.NewString(),
		contentID: c.contentID,
		lang:      lang,
		state:     StateCheckingCache,
		startedAt: time.Now(),
	}
	c.req = r
	sourceLang := c.sourceLang
	snap := c.snapshotLocked()
	c.mu.Unlock()

	go c.runRequest(r, sourceLang)
	return snap
}

// Cancel aborts the active request and falls back to the original source.
// Calling it with no active request is a no-op. For a Processing request the
// poll loop handle is released before Cancel returns.
func (c *Controller) Cancel(ctx context.Context) Snapshot {
	c.mu.Lock()
	r := c.req
	if r == nil || r.state.Terminal() {
		defer c.mu.Unlock()
		return c.snapshotLocked()
	}

	c.abandonActiveLocked(false)
	r.state = StateCancelled
	r.errReason = ReasonCancelled
	c.generation = c.binder.Advance(c.originalURL)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notifier.Info(fmt.Sprintf("%s dub cancelled, playing original audio", langutil.DisplayName(r.lang)))
	c.record(r)
	return snap
}

// Snapshot returns the current state for the UI.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close abandons any active work. The controller must not be used after.
func (c *Controller) Close() {
	c.mu.Lock()
	c.abandonActiveLocked(true)
	c.req = nil
	c.mu.Unlock()
}

// runRequest drives one request from cache probe to terminal state. Every
// step revalidates that the request is still current before transitioning:
// results are matched by request token, not call order.
func (c *Controller) runRequest(r *request, sourceLang string) {
	result := c.probe.Probe(context.Background(), r.contentID, r.lang)

	c.mu.Lock()
	if !c.currentLocked(r, StateCheckingCache) {
		c.mu.Unlock()
		return
	}
	if result.Hit {
		c.completeLocked(r, result.URL, true)
		c.mu.Unlock()
		return
	}
	r.state = StateSubmitting
	c.mu.Unlock()

	err := c.api.SubmitDubbingJob(context.Background(), r.contentID, sourceLang, r.lang)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.currentLocked(r, StateSubmitting) {
		if err == nil {
			// The request was abandoned while the submit was in flight and
			// the backend accepted the job anyway. Nothing tracks it now;
			// ask the worker to drop it, best effort.
			go func() {
				if _, cancelErr := c.api.CancelDubbingJob(context.Background(), r.contentID, r.lang); cancelErr != nil {
					log.Warn("Best-effort job cancel for %s/%s failed: %v", r.contentID, r.lang, cancelErr)
				}
			}()
		}
		return
	}
	if err != nil {
		reason := "job submission failed"
		var subErr *backend.SubmissionError
		if errors.As(err, &subErr) {
			reason = subErr.Reason
		} else {
			log.Error("Submitting dubbing job %s/%s: %v", r.contentID, r.lang, err)
		}
		c.failLocked(r, reason)
		return
	}

	loop := NewPollLoop(PollConfig{
		API:       c.api,
		ContentID: r.contentID,
		Language:  r.lang,
		Interval:  c.pollInterval,
		MaxWait:   c.pollTimeout,
		OnProgress: func(percent int) {
			// Advisory only; written without the controller lock so a
			// concurrent Stop can never deadlock on a progress update.
			r.progress.Store(int32(percent))
		},
		OnTerminal: func(outcome PollOutcome) {
			c.handlePollOutcome(r, outcome)
		},
	})
	r.loop = loop
	r.state = StateProcessing
	loop.Start()
}

func (c *Controller) handlePollOutcome(r *request, outcome PollOutcome) {
	c.mu.Lock()
	if !c.currentLocked(r, StateProcessing) {
		c.mu.Unlock()
		return
	}
	r.loop = nil
	switch outcome.Kind {
	case TerminalCompleted:
		c.completeLocked(r, outcome.URL, false)
	case TerminalTimeout:
		c.failLocked(r, ReasonTimeout)
	default:
		c.failLocked(r, outcome.Reason)
	}
	c.mu.Unlock()
}

// currentLocked reports whether r is still the request transitions may be
// applied to: it must be the controller's active request and still in the
// state the resolved call was issued under.
func (c *Controller) currentLocked(r *request, want State) bool {
	return c.req == r && r.state == want
}

// abandonActiveLocked detaches the active request. The poll loop handle, if
// any, is released synchronously; a Processing job is best-effort cancelled
// on the backend. When supersede is set the request is marked cancelled so
// any in-flight continuation for it self-discards.
func (c *Controller) abandonActiveLocked(supersede bool) {
	r := c.req
	if r == nil || r.state.Terminal() {
		return
	}
	wasProcessing := r.state == StateProcessing
	if r.loop != nil {
		r.loop.Stop()
		r.loop = nil
	}
	if supersede {
		r.state = StateCancelled
		r.errReason = ReasonSuperseded
	}
	if wasProcessing {
		contentID, lang := r.contentID, r.lang
		go func() {
			if _, err := c.api.CancelDubbingJob(context.Background(), contentID, lang); err != nil {
				log.Warn("Best-effort job cancel for %s/%s failed: %v", contentID, lang, err)
			}
		}()
	}
}

func (c *Controller) completeLocked(r *request, url string, fromCache bool) {
	r.state = StateReady
	r.resultURL = url
	r.loop = nil
	r.progress.Store(100)
	c.binder.Bind(c.generation, url)

	name := langutil.DisplayName(r.lang)
	c.notifier.Success(fmt.Sprintf("%s dub ready", name))
	c.record(r)

	if !fromCache {
		// A fresh artifact exists now; rebuild availability so the language
		// picker reflects it.
		contentID := r.contentID
		go func() {
			if err := c.registry.Refresh(context.Background(), contentID); err != nil {
				log.Warn("Availability refresh after dub of %s failed: %v", contentID, err)
			}
		}()
	}
}

func (c *Controller) failLocked(r *request, reason string) {
	r.state = StateFailed
	r.errReason = reason
	r.loop = nil
	// Fall back to the original asset: the learner is never left without a
	// playable source.
	c.binder.Bind(c.generation, c.originalURL)

	name := langutil.DisplayName(r.lang)
	if reason == ReasonTimeout {
		c.notifier.Error(fmt.Sprintf("%s dub timed out, playing original audio", name))
	} else {
		c.notifier.Error(fmt.Sprintf("%s dub failed: %s", name, reason))
	}
	c.record(r)
}

func (c *Controller) record(r *request) {
	if c.recorder == nil {
		return
	}
	outcome := Outcome{
		SessionID: c.sessionID,
		ContentID: r.contentID,
		Language:  r.lang,
		State:     r.state,
		Reason:    r.errReason,
		ResultURL: r.resultURL,
		Elapsed:   time.Since(r.startedAt),
	}
	go c.recorder.RecordOutcome(context.Background(), outcome)
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		ContentID:      c.contentID,
		SourceLanguage: c.sourceLang,
		State:          StateIdle,
		Generation:     c.generation,
		ActiveSource:   c.binder.CurrentURL(),
	}
	if r := c.req; r != nil {
		snap.TargetLanguage = r.lang
		snap.State = r.state
		snap.Progress = int(r.progress.Load())
		snap.ResultURL = r.resultURL
		snap.Reason = r.errReason
	}
	return snap
}

// LogNotifier is the default toast sink; it just logs.
type LogNotifier struct{}

func (LogNotifier) Success(message string) { log.Info("%s", message) }
func (LogNotifier) Info(message string)    { log.Info("%s", message) }
func (LogNotifier) Error(message string)   { log.Error("%s", message) }
