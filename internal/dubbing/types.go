// Package dubbing drives on-demand lecture localization: cache probing,
// job submission, status polling and race-safe handoff of the finished
// artifact to the player.
package dubbing

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/eduvoice/dubsession/internal/backend"
)

// State is the lifecycle of one localization request.
type State string

const (
	StateIdle          State = "idle"
	StateCheckingCache State = "checking_cache"
	StateSubmitting    State = "submitting"
	StateProcessing    State = "processing"
	StateReady         State = "ready"
	StateFailed        State = "failed"
	StateCancelled     State = "cancelled"
)

// Terminal reports whether no further automatic transitions can occur.
func (s State) Terminal() bool {
	switch s {
	case StateReady, StateFailed, StateCancelled:
		return true
	}
	return false
}

// Failure reasons surfaced to the UI. Backend-reported failures carry the
// backend's own message instead.
const (
	ReasonTimeout    = "timeout"
	ReasonCancelled  = "cancelled by user"
	ReasonSuperseded = "superseded"
)

// API is the slice of the platform backend the dubbing core consumes.
// *backend.Client satisfies it.
type API interface {
	CheckDubbedArtifact(ctx context.Context, contentID, lang string) (*backend.ProbeResult, error)
	SubmitDubbingJob(ctx context.Context, contentID, sourceLang, targetLang string) error
	DubbingJobStatus(ctx context.Context, contentID, lang string) (*backend.JobStatus, error)
	CancelDubbingJob(ctx context.Context, contentID, lang string) (bool, error)
	ContentLanguages(ctx context.Context, contentID string) ([]backend.LanguageAvailability, error)
}

// Notifier is the toast sink. Informational only: nothing in the state
// machine depends on a notification being delivered.
type Notifier interface {
	Success(message string)
	Info(message string)
	Error(message string)
}

// Outcome is recorded when a request reaches a terminal state.
type Outcome struct {
	SessionID string
	ContentID string
	Language  string
	State     State
	Reason    string
	ResultURL string
	Elapsed   time.Duration
}

// OutcomeRecorder persists terminal outcomes (the dashboard history feed).
// Implementations must not block for long and must swallow their own errors.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, o Outcome)
}

// Snapshot is the externally visible view of a controller at one instant.
type Snapshot struct {
	ContentID      string `json:"content_id"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language,omitempty"`
	State          State  `json:"state"`
	Progress       int    `json:"progress"`
	ResultURL      string `json:"result_url,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Generation     uint64 `json:"generation"`
	ActiveSource   string `json:"active_source"`
}

// request is one in-flight or completed attempt to localize one content
// item into one language. It is garbage once terminal or superseded.
type request struct {
	id        string
	contentID string
	lang      string
	state     State
	resultURL string
	errReason string
	startedAt time.Time

	// progress is advisory and written from the poll loop without taking
	// the controller lock.
	progress atomic.Int32

	// loop is non-nil exactly while state == StateProcessing.
	loop *PollLoop
}
