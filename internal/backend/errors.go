package backend

import "fmt"

// APIError is a non-2xx response from the platform backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// SubmissionError means the backend rejected a dubbing job outright
// (unsupported language pair, content not dubbable). Terminal for the
// request; callers must not retry automatically.
type SubmissionError struct {
	Reason string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("dubbing job rejected: %s", e.Reason)
}
