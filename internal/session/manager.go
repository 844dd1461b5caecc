// Package session owns the lifecycle of player sessions: each session pairs
// one virtual player with one dubbing controller and is addressed by a
// server-issued ID.
package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eduvoice/dubsession/internal/backend"
	"github.com/eduvoice/dubsession/internal/dubbing"
	"github.com/eduvoice/dubsession/internal/langutil"
	"github.com/eduvoice/dubsession/internal/playback"
	"github.com/eduvoice/dubsession/pkg/log"
)

// API is the backend surface the manager needs: everything the dubbing core
// consumes plus content metadata. *backend.Client satisfies it.
type API interface {
	dubbing.API
	ContentMeta(ctx context.Context, contentID string) (*backend.ContentMeta, error)
}

// Notice is one user-facing notification captured for the session feed.
type Notice struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// noticeLog keeps the most recent notifications for a session. Bounded so a
// long-lived session cannot grow it without limit.
type noticeLog struct {
	mu      sync.Mutex
	entries []Notice
	max     int
}

func newNoticeLog(max int) *noticeLog {
	return &noticeLog{max: max}
}

func (l *noticeLog) add(level, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Notice{Level: level, Message: message, CreatedAt: time.Now()})
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

func (l *noticeLog) Success(message string) { l.add("success", message) }
func (l *noticeLog) Info(message string)    { l.add("info", message) }
func (l *noticeLog) Error(message string)   { l.add("error", message) }

func (l *noticeLog) recent() []Notice {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Notice, len(l.entries))
	copy(out, l.entries)
	return out
}

// Session is one player session.
type Session struct {
	ID        string
	CreatedAt time.Time

	ctrl    *dubbing.Controller
	player  *playback.VirtualPlayer
	notices *noticeLog
}

// LanguageOption is one selectable entry in the session's language menu.
type LanguageOption struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Source    bool   `json:"source"`
}

// View is the full session state returned to the UI.
type View struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Playback  dubbing.Snapshot `json:"playback"`
	Languages []LanguageOption `json:"languages"`
	Playing   bool             `json:"playing"`
	Notices   []Notice         `json:"notices,omitempty"`
}

// View assembles the current state of the session.
func (s *Session) View() View {
	snap := s.ctrl.Snapshot()
	return View{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Playback:  snap,
		Languages: s.languageOptions(snap.SourceLanguage),
		Playing:   s.player.Playing(),
		Notices:   s.notices.recent(),
	}
}

// languageOptions merges the source language into the registry's entries so
// the menu always offers a way back to the original audio.
func (s *Session) languageOptions(sourceLang string) []LanguageOption {
	entries := s.ctrl.Registry().Languages()
	options := make([]LanguageOption, 0, len(entries)+1)
	seen := false
	for _, e := range entries {
		isSource := e.Code == sourceLang
		seen = seen || isSource
		options = append(options, LanguageOption{
			Code:      e.Code,
			Name:      langutil.DisplayName(e.Code),
			Available: e.Available || isSource,
			Source:    isSource,
		})
	}
	if !seen && sourceLang != "" {
		options = append(options, LanguageOption{
			Code:      sourceLang,
			Name:      langutil.DisplayName(sourceLang),
			Available: true,
			Source:    true,
		})
	}
	sort.Slice(options, func(i, j int) bool { return options[i].Code < options[j].Code })
	return options
}

// SelectLanguage applies a language choice to the session's controller.
// The code is canonicalized first; an unparseable code is rejected without
// touching the controller.
func (s *Session) SelectLanguage(ctx context.Context, lang string) (dubbing.Snapshot, error) {
	code, err := langutil.Normalize(lang)
	if err != nil {
		return s.ctrl.Snapshot(), err
	}
	return s.ctrl.RequestLanguage(ctx, code), nil
}

// Cancel aborts the session's active dubbing request.
func (s *Session) Cancel(ctx context.Context) dubbing.Snapshot {
	return s.ctrl.Cancel(ctx)
}

// Snapshot returns just the playback state, without the menu.
func (s *Session) Snapshot() dubbing.Snapshot {
	return s.ctrl.Snapshot()
}

// Config wires a Manager.
type Config struct {
	API          API
	Recorder     dubbing.OutcomeRecorder
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Manager creates, looks up and tears down sessions.
type Manager struct {
	api          API
	recorder     dubbing.OutcomeRecorder
	pollInterval time.Duration
	pollTimeout  time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(cfg Config) *Manager {
	return &Manager{
		api:          cfg.API,
		recorder:     cfg.Recorder,
		pollInterval: cfg.PollInterval,
		pollTimeout:  cfg.PollTimeout,
		sessions:     make(map[string]*Session),
	}
}

// Create opens a session for the given lecture. The content's metadata is
// fetched up front; a missing source language is backfilled by detecting it
// from the description text.
func (m *Manager) Create(ctx context.Context, contentID string) (*Session, error) {
	meta, err := m.api.ContentMeta(ctx, contentID)
	if err != nil {
		return nil, fmt.Errorf("fetch content %s: %w", contentID, err)
	}
	meta.SourceLanguage = resolveSourceLanguage(meta)

	id := uuid.NewString()
	notices := newNoticeLog(20)
	player := playback.NewVirtualPlayer()
	ctrl := dubbing.NewController(dubbing.ControllerConfig{
		SessionID:    id,
		API:          m.api,
		Player:       player,
		Notifier:     notices,
		Recorder:     m.recorder,
		PollInterval: m.pollInterval,
		PollTimeout:  m.pollTimeout,
	})

	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		ctrl:      ctrl,
		player:    player,
		notices:   notices,
	}
	ctrl.LoadContent(ctx, meta)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	log.Info("session %s opened for content %s (source %s)", id, contentID, meta.SourceLanguage)
	return s, nil
}

// SwitchContent points an existing session at a different lecture.
func (m *Manager) SwitchContent(ctx context.Context, sessionID, contentID string) (*Session, error) {
	s, ok := m.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	meta, err := m.api.ContentMeta(ctx, contentID)
	if err != nil {
		return nil, fmt.Errorf("fetch content %s: %w", contentID, err)
	}
	meta.SourceLanguage = resolveSourceLanguage(meta)
	s.ctrl.LoadContent(ctx, meta)
	log.Info("session %s switched to content %s", sessionID, contentID)
	return s, nil
}

// resolveSourceLanguage canonicalizes the content's declared source
// language; a missing or unparseable code is backfilled by detecting the
// language of the title and description text.
func resolveSourceLanguage(meta *backend.ContentMeta) string {
	if meta.SourceLanguage != "" {
		if code, err := langutil.Normalize(meta.SourceLanguage); err == nil {
			return code
		}
		log.Warn("unparseable source language %q for content %s", meta.SourceLanguage, meta.ID)
	}
	detected := langutil.DetectFromText(meta.Title + " " + meta.Description)
	if detected != "" {
		log.Info("detected source language %q for content %s", detected, meta.ID)
	}
	return detected
}

// Get looks up a live session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close tears down one session, abandoning any in-flight dubbing work.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.ctrl.Close()
	log.Info("session %s closed", id)
	return true
}

// CloseAll tears down every session. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.ctrl.Close()
	}
}

// Count reports how many sessions are live.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ResyncAvailability rebuilds every live session's language registry.
// Invoked by the maintenance job so menus pick up dubs finished by other
// sessions or offline batch work.
func (m *Manager) ResyncAvailability(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		reg := s.ctrl.Registry()
		contentID := reg.ContentID()
		if contentID == "" {
			continue
		}
		if err := reg.Refresh(ctx, contentID); err != nil {
			log.Warn("availability resync failed for session %s: %v", s.ID, err)
		}
	}
}
