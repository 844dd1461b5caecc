package history

import "time"

// Entry is one finished localization request, as shown on the dashboard's
// "recent dubs" feed. Local-only and rebuildable; nothing in the dubbing
// core reads it back.
type Entry struct {
	ID        int64         `json:"id"`
	SessionID string        `json:"session_id"`
	ContentID string        `json:"content_id"`
	Language  string        `json:"language"`
	State     string        `json:"state"`
	Reason    string        `json:"reason,omitempty"`
	ResultURL string        `json:"result_url,omitempty"`
	Elapsed   time.Duration `json:"elapsed_ms"`
	CreatedAt time.Time     `json:"created_at"`
}
