package dubbing

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eduvoice/dubsession/internal/backend"
	"github.com/eduvoice/dubsession/pkg/log"
)

// TerminalKind classifies how a poll loop ended.
type TerminalKind string

const (
	TerminalCompleted TerminalKind = "completed"
	TerminalFailed    TerminalKind = "failed"
	TerminalTimeout   TerminalKind = "timeout"
)

// PollOutcome is the terminal result delivered by a poll loop.
type PollOutcome struct {
	Kind   TerminalKind
	URL    string
	Reason string
}

// PollConfig configures one PollLoop.
type PollConfig struct {
	API       API
	ContentID string
	Language  string
	Interval  time.Duration
	MaxWait   time.Duration

	// OnProgress receives advisory progress percentages. It is called from
	// the loop goroutine and must not block.
	OnProgress func(percent int)
	// OnTerminal is called at most once, after the loop goroutine has fully
	// released its timer. An outcome that races an external Stop may still
	// be delivered; receivers discard stale outcomes by request token.
	OnTerminal func(PollOutcome)
}

// PollLoop repeatedly checks a dubbing job's status on a fixed interval
// until a terminal status, an explicit Stop, or the wall-clock bound is hit.
// A new tick is scheduled only after the previous check resolves, so at most
// one status check is in flight regardless of scheduling jitter.
type PollLoop struct {
	cfg PollConfig

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  atomic.Bool
	stopped  atomic.Bool
	stopOnce sync.Once
}

func NewPollLoop(cfg PollConfig) *PollLoop {
	ctx, cancel := context.WithCancel(context.Background())
	return &PollLoop{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start launches the loop goroutine. The first status check happens one
// interval after Start, not immediately.
func (l *PollLoop) Start() {
	if !l.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		outcome := l.run()
		close(l.done)
		if outcome != nil && !l.stopped.Load() && l.cfg.OnTerminal != nil {
			l.cfg.OnTerminal(*outcome)
		}
	}()
}

// Stop halts the loop and returns only once the loop goroutine has exited:
// after Stop returns no further tick can occur and a replacement loop can be
// started without double-ticking. Safe to call more than once, and a no-op
// for a loop that already ended on its own.
func (l *PollLoop) Stop() {
	l.stopOnce.Do(func() {
		l.stopped.Store(true)
		l.cancel()
	})
	if l.started.Load() {
		<-l.done
	}
}

func (l *PollLoop) run() *PollOutcome {
	deadline := time.Now().Add(l.cfg.MaxWait)
	timer := time.NewTimer(l.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-l.ctx.Done():
			return nil
		case <-timer.C:
		}

		if !time.Now().Before(deadline) {
			return &PollOutcome{Kind: TerminalTimeout, Reason: ReasonTimeout}
		}

		status, err := l.cfg.API.DubbingJobStatus(l.ctx, l.cfg.ContentID, l.cfg.Language)
		if err != nil {
			if l.ctx.Err() != nil {
				return nil
			}
			// Transient network failure: keep polling, the timeout bound
			// still applies.
			log.Warn("Status check for %s/%s failed: %v", l.cfg.ContentID, l.cfg.Language, err)
		} else {
			switch status.Status {
			case backend.JobCompleted:
				return &PollOutcome{Kind: TerminalCompleted, URL: status.ResultURL}
			case backend.JobFailed:
				reason := status.Error
				if reason == "" {
					reason = "dubbing job failed"
				}
				return &PollOutcome{Kind: TerminalFailed, Reason: reason}
			default:
				if l.cfg.OnProgress != nil {
					l.cfg.OnProgress(status.ProgressPercent)
				}
			}
		}

		if !time.Now().Before(deadline) {
			return &PollOutcome{Kind: TerminalTimeout, Reason: ReasonTimeout}
		}
		timer.Reset(l.cfg.Interval)
	}
}
