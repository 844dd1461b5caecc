package backend

// Availability status values reported by the platform for a (content, language) pair.
const (
	AvailabilityOriginal     = "original"
	AvailabilityCompleted    = "completed"
	AvailabilityNotGenerated = "not_generated"
)

// LanguageAvailability is one entry of the content-languages-availability response.
type LanguageAvailability struct {
	Code      string `json:"code"`
	Available bool   `json:"available"`
	Status    string `json:"status"`
}

// ContentMeta is the lecture metadata the player session needs.
type ContentMeta struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	SourceLanguage string `json:"source_language"`
	OriginalURL    string `json:"original_url"`
	Description    string `json:"description"`
}

// Dubbing job status values reported by the worker.
const (
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// JobStatus is one dubbing-job-status response. ProgressPercent is advisory
// only; completion is signalled by Status.
type JobStatus struct {
	Status          string `json:"status"`
	ProgressPercent int    `json:"progress_percent"`
	ResultURL       string `json:"result_url,omitempty"`
	Error           string `json:"error,omitempty"`
}

// ProbeResult is the dubbed-content-check response.
type ProbeResult struct {
	Exists bool   `json:"exists"`
	URL    string `json:"url,omitempty"`
}

type submitRequest struct {
	ContentID      string `json:"content_id"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

type submitResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

type cancelResponse struct {
	Ack bool `json:"ack"`
}
