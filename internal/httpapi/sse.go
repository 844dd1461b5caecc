package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/eduvoice/dubsession/internal/session"
)

// handleSessionStream pushes the session view over SSE once a second until
// the client disconnects. Dubbing progress and menu updates arrive through
// the same snapshot, so the player needs no other push channel.
func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func() bool {
		payload, err := json.Marshal(sess.View())
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send() {
		return
	}

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			// The session may have been closed between ticks.
			if _, alive := s.sessions.Get(sess.ID); !alive {
				return
			}
			if !send() {
				return
			}
		}
	}
}
