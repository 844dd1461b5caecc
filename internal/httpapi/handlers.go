package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eduvoice/dubsession/internal/backend"
	"github.com/eduvoice/dubsession/internal/session"
	"github.com/eduvoice/dubsession/pkg/icron"
)

type createSessionRequest struct {
	ContentID string `json:"content_id"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.ContentID == "" {
		writeError(w, http.StatusBadRequest, "content_id is required")
		return
	}

	sess, err := s.sessions.Create(r.Context(), req.ContentID)
	if err != nil {
		writeError(w, upstreamStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sess.View())
}

// handleSessionByID dispatches /api/sessions/{id} and its subresources:
// stream, language, cancel, content.
func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	sess, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, sess.View())
		case http.MethodDelete:
			s.sessions.Close(id)
			writeJSON(w, http.StatusOK, map[string]any{"closed": true})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case "stream":
		s.handleSessionStream(w, r, sess)
	case "language":
		s.handleSelectLanguage(w, r, sess)
	case "cancel":
		s.handleCancel(w, r, sess)
	case "content":
		s.handleSwitchContent(w, r, sess)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

type selectLanguageRequest struct {
	Language string `json:"language"`
}

func (s *Server) handleSelectLanguage(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req selectLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Language == "" {
		writeError(w, http.StatusBadRequest, "language is required")
		return
	}
	snap, err := sess.SelectLanguage(r.Context(), req.Language)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, sess.Cancel(r.Context()))
}

type switchContentRequest struct {
	ContentID string `json:"content_id"`
}

func (s *Server) handleSwitchContent(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req switchContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.ContentID == "" {
		writeError(w, http.StatusBadRequest, "content_id is required")
		return
	}
	updated, err := s.sessions.SwitchContent(r.Context(), sess.ID, req.ContentID)
	if err != nil {
		writeError(w, upstreamStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated.View())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.history == nil {
		writeError(w, http.StatusNotImplemented, "history store is not configured")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type statusResponse struct {
	Status       string           `json:"status"`
	UptimeSecs   int64            `json:"uptime_seconds"`
	LiveSessions int              `json:"live_sessions"`
	Maintenance  *maintenanceInfo `json:"maintenance,omitempty"`
}

type maintenanceInfo struct {
	Expression    string    `json:"expression"`
	LastTrigger   time.Time `json:"last_trigger"`
	NextTrigger   time.Time `json:"next_trigger"`
	SinceLastSecs int64     `json:"seconds_since_last"`
	UntilNextSecs int64     `json:"seconds_until_next"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := statusResponse{
		Status:       "ok",
		UptimeSecs:   int64(time.Since(s.startedAt).Seconds()),
		LiveSessions: s.sessions.Count(),
	}
	if s.maintenanceCron != "" {
		if info, err := icron.GetTriggerInfo(s.maintenanceCron, time.Now()); err == nil {
			resp.Maintenance = &maintenanceInfo{
				Expression:    info.Expression,
				LastTrigger:   info.Last,
				NextTrigger:   info.Next,
				SinceLastSecs: int64(info.TimeSinceLast.Seconds()),
				UntilNextSecs: int64(info.TimeUntilNext.Seconds()),
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// upstreamStatus maps a backend failure onto the status this gateway should
// answer with. Backend 4xx pass through; everything else is a bad gateway.
func upstreamStatus(err error) int {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode
		}
		return http.StatusBadGateway
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
