// Package backend is the typed client for the e-learning platform's REST
// API: content metadata, dubbed-artifact checks and the dubbing job
// lifecycle. It holds no state between calls.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Client is a thread-safe platform backend client sharing one http.Client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Config holds the connection settings for NewClient.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: base,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// ContentMeta fetches the lecture metadata used to start a player session.
func (c *Client) ContentMeta(ctx context.Context, contentID string) (*ContentMeta, error) {
	var meta ContentMeta
	path := fmt.Sprintf("/content/%s", url.PathEscape(contentID))
	if err := c.GetJSON(ctx, path, nil, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// ContentLanguages returns which target languages already have a durable
// dubbed artifact for the content item.
func (c *Client) ContentLanguages(ctx context.Context, contentID string) ([]LanguageAvailability, error) {
	var langs []LanguageAvailability
	path := fmt.Sprintf("/content/%s/languages", url.PathEscape(contentID))
	if err := c.GetJSON(ctx, path, nil, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// CheckDubbedArtifact is the cache probe: a single fast existence check for
// an already-produced artifact.
func (c *Client) CheckDubbedArtifact(ctx context.Context, contentID, lang string) (*ProbeResult, error) {
	var result ProbeResult
	path := fmt.Sprintf("/dubbing/artifacts/%s/%s", url.PathEscape(contentID), url.PathEscape(lang))
	if err := c.GetJSON(ctx, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SubmitDubbingJob submits a translation/dubbing job. A backend rejection
// (4xx, or accepted=false) is returned as *SubmissionError.
func (c *Client) SubmitDubbingJob(ctx context.Context, contentID, sourceLang, targetLang string) error {
	req := submitRequest{
		ContentID:      contentID,
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
	}
	var resp submitResponse
	err := c.PostJSON(ctx, "/dubbing/jobs", req, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return &SubmissionError{Reason: apiErr.Message}
		}
		return err
	}
	if !resp.Accepted {
		reason := resp.Reason
		if reason == "" {
			reason = "job not accepted"
		}
		return &SubmissionError{Reason: reason}
	}
	return nil
}

// DubbingJobStatus checks the progress of a submitted job.
func (c *Client) DubbingJobStatus(ctx context.Context, contentID, lang string) (*JobStatus, error) {
	var status JobStatus
	path := fmt.Sprintf("/dubbing/jobs/%s/%s", url.PathEscape(contentID), url.PathEscape(lang))
	if err := c.GetJSON(ctx, path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CancelDubbingJob asks the worker to stop a job. Best effort: the job may
// keep running after the ack; the caller only stops tracking it.
func (c *Client) CancelDubbingJob(ctx context.Context, contentID, lang string) (bool, error) {
	var resp cancelResponse
	path := fmt.Sprintf("/dubbing/jobs/%s/%s/cancel", url.PathEscape(contentID), url.PathEscape(lang))
	if err := c.PostJSON(ctx, path, nil, &resp); err != nil {
		return false, err
	}
	return resp.Ack, nil
}

// GetJSON performs a GET against the backend and decodes the JSON response
// into out. Shared by the platform glue clients.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return c.doJSON(ctx, http.MethodGet, target, nil, out)
}

// PostJSON performs a POST with a JSON payload and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, path string, payload, out interface{}) error {
	return c.doJSON(ctx, http.MethodPost, c.baseURL+path, payload, out)
}

func (c *Client) doJSON(ctx context.Context, method, target string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if os.IsTimeout(err) {
			return fmt.Errorf("request timed out: %w", err)
		}
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(responseBody),
		}
	}

	if out == nil || len(responseBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(responseBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// errorMessage extracts a machine-readable reason from an error body,
// falling back to the raw payload.
func errorMessage(body []byte) string {
	var wrapper struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil {
		switch {
		case wrapper.Reason != "":
			return wrapper.Reason
		case wrapper.Message != "":
			return wrapper.Message
		case wrapper.Error != "":
			return wrapper.Error
		}
	}
	return strings.TrimSpace(string(body))
}
