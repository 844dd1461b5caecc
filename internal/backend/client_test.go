package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "   "})
	require.Error(t, err)
}

func TestContentLanguages(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/content/v1/languages", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]LanguageAvailability{
			{Code: "en", Available: true, Status: AvailabilityOriginal},
			{Code: "hi", Available: true, Status: AvailabilityCompleted},
			{Code: "ta", Available: false, Status: AvailabilityNotGenerated},
		})
	}))

	langs, err := client.ContentLanguages(context.Background(), "v1")
	require.NoError(t, err)
	require.Len(t, langs, 3)
	assert.Equal(t, "hi", langs[1].Code)
	assert.True(t, langs[1].Available)
}

func TestCheckDubbedArtifact(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dubbing/artifacts/v1/hi", r.URL.Path)
		_ = json.NewEncoder(w).Encode(ProbeResult{Exists: true, URL: "https://cdn/v1.hi.mp4"})
	}))

	result, err := client.CheckDubbedArtifact(context.Background(), "v1", "hi")
	require.NoError(t, err)
	assert.True(t, result.Exists)
	assert.Equal(t, "https://cdn/v1.hi.mp4", result.URL)
}

func TestSubmitDubbingJob_Accepted(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/dubbing/jobs", r.URL.Path)

		var req submitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "v1", req.ContentID)
		assert.Equal(t, "en", req.SourceLanguage)
		assert.Equal(t, "hi", req.TargetLanguage)

		_ = json.NewEncoder(w).Encode(submitResponse{Accepted: true})
	}))

	require.NoError(t, client.SubmitDubbingJob(context.Background(), "v1", "en", "hi"))
}

func TestSubmitDubbingJob_RejectedBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(submitResponse{Accepted: false, Reason: "unsupported language pair"})
	}))

	err := client.SubmitDubbingJob(context.Background(), "v1", "en", "xx")
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, "unsupported language pair", subErr.Reason)
}

func TestSubmitDubbingJob_Rejected4xx(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"reason":"content not dubbable"}`))
	}))

	err := client.SubmitDubbingJob(context.Background(), "v1", "en", "hi")
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, "content not dubbable", subErr.Reason)
}

func TestSubmitDubbingJob_ServerErrorIsNotSubmissionError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	err := client.SubmitDubbingJob(context.Background(), "v1", "en", "hi")
	require.Error(t, err)

	var subErr *SubmissionError
	assert.False(t, errors.As(err, &subErr))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestDubbingJobStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dubbing/jobs/v1/hi", r.URL.Path)
		_ = json.NewEncoder(w).Encode(JobStatus{Status: JobProcessing, ProgressPercent: 40})
	}))

	status, err := client.DubbingJobStatus(context.Background(), "v1", "hi")
	require.NoError(t, err)
	assert.Equal(t, JobProcessing, status.Status)
	assert.Equal(t, 40, status.ProgressPercent)
}

func TestCancelDubbingJob(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dubbing/jobs/v1/hi/cancel", r.URL.Path)
		_ = json.NewEncoder(w).Encode(cancelResponse{Ack: true})
	}))

	ack, err := client.CancelDubbingJob(context.Background(), "v1", "hi")
	require.NoError(t, err)
	assert.True(t, ack)
}

func TestAuthorizationHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(ProbeResult{})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, Token: "sekrit"})
	require.NoError(t, err)

	_, err = client.CheckDubbedArtifact(context.Background(), "v1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Bearer sekrit", gotAuth)
}
