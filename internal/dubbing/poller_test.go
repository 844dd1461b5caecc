package dubbing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduvoice/dubsession/internal/backend"
)

// slowStatusAPI blocks each status check until released, to exercise the
// one-outstanding-check guarantee.
type slowStatusAPI struct {
	fakeAPI
	release chan *backend.JobStatus

	mu       sync.Mutex
	inFlight int
	maxSeen  int
}

func newSlowStatusAPI() *slowStatusAPI {
	return &slowStatusAPI{release: make(chan *backend.JobStatus)}
}

func (s *slowStatusAPI) DubbingJobStatus(ctx context.Context, contentID, lang string) (*backend.JobStatus, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case status := <-s.release:
		return status, nil
	}
}

func (s *slowStatusAPI) maxInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxSeen
}

func TestPollLoop_SingleOutstandingCheck(t *testing.T) {
	api := newSlowStatusAPI()
	done := make(chan PollOutcome, 1)
	loop := NewPollLoop(PollConfig{
		API:        api,
		ContentID:  "v1",
		Language:   "hi",
		Interval:   5 * time.Millisecond,
		MaxWait:    time.Second,
		OnTerminal: func(o PollOutcome) { done <- o },
	})
	loop.Start()
	defer loop.Stop()

	// Hold the first check well past several intervals, then release a few
	// processing replies and finally a terminal one.
	time.Sleep(50 * time.Millisecond)
	api.release <- &backend.JobStatus{Status: backend.JobProcessing, ProgressPercent: 10}
	api.release <- &backend.JobStatus{Status: backend.JobProcessing, ProgressPercent: 50}
	api.release <- &backend.JobStatus{Status: backend.JobCompleted, ResultURL: "u"}

	select {
	case outcome := <-done:
		assert.Equal(t, TerminalCompleted, outcome.Kind)
		assert.Equal(t, "u", outcome.URL)
	case <-time.After(time.Second):
		t.Fatal("poll loop did not terminate")
	}

	assert.Equal(t, 1, api.maxInFlight(), "a new tick must wait for the previous check")
}

func TestPollLoop_StopIsSynchronous(t *testing.T) {
	api := newFakeAPI() // always processing
	var terminal int
	loop := NewPollLoop(PollConfig{
		API:        api,
		ContentID:  "v1",
		Language:   "hi",
		Interval:   5 * time.Millisecond,
		MaxWait:    time.Second,
		OnTerminal: func(PollOutcome) { terminal++ },
	})
	loop.Start()

	require.Eventually(t, func() bool {
		_, status, _ := api.counts()
		return status >= 2
	}, time.Second, time.Millisecond)

	loop.Stop()
	_, before, _ := api.counts()
	time.Sleep(50 * time.Millisecond)
	_, after, _ := api.counts()
	assert.Equal(t, before, after, "no tick may occur after Stop returns")
	assert.Zero(t, terminal, "an externally stopped loop reports no outcome")

	// Stop is idempotent.
	loop.Stop()
}

func TestPollLoop_StopUnblocksInFlightCheck(t *testing.T) {
	api := newSlowStatusAPI()
	loop := NewPollLoop(PollConfig{
		API:       api,
		ContentID: "v1",
		Language:  "hi",
		Interval:  time.Millisecond,
		MaxWait:   time.Second,
	})
	loop.Start()

	// Wait until the check is actually blocked, then Stop must return
	// promptly by cancelling it rather than waiting for a reply.
	require.Eventually(t, func() bool {
		return api.maxInFlight() == 1
	}, time.Second, time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		loop.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on an in-flight status check")
	}
}

func TestPollLoop_WallClockTimeout(t *testing.T) {
	api := newFakeAPI() // always processing
	done := make(chan PollOutcome, 1)
	start := time.Now()
	loop := NewPollLoop(PollConfig{
		API:        api,
		ContentID:  "v1",
		Language:   "hi",
		Interval:   5 * time.Millisecond,
		MaxWait:    40 * time.Millisecond,
		OnTerminal: func(o PollOutcome) { done <- o },
	})
	loop.Start()
	defer loop.Stop()

	select {
	case outcome := <-done:
		assert.Equal(t, TerminalTimeout, outcome.Kind)
		assert.Equal(t, ReasonTimeout, outcome.Reason)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("poll loop did not time out")
	}
}

func TestPollLoop_BackendFailureIsTerminal(t *testing.T) {
	api := newFakeAPI()
	api.statusQueue = []statusReply{
		{status: &backend.JobStatus{Status: backend.JobFailed, Error: "voice model unavailable"}},
	}
	done := make(chan PollOutcome, 1)
	loop := NewPollLoop(PollConfig{
		API:        api,
		ContentID:  "v1",
		Language:   "hi",
		Interval:   5 * time.Millisecond,
		MaxWait:    time.Second,
		OnTerminal: func(o PollOutcome) { done <- o },
	})
	loop.Start()
	defer loop.Stop()

	select {
	case outcome := <-done:
		assert.Equal(t, TerminalFailed, outcome.Kind)
		assert.Equal(t, "voice model unavailable", outcome.Reason)
	case <-time.After(time.Second):
		t.Fatal("poll loop did not terminate")
	}
}
