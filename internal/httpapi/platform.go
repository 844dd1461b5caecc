package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/eduvoice/dubsession/internal/platform"
)

// The platform endpoints proxy the e-learning backend one-to-one so the web
// player talks to a single origin. No caching, no transformation.

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := platform.CourseQuery{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		Language: r.URL.Query().Get("language"),
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page <= 0 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		query.Page = page
	}

	courses, err := s.platform.Courses(r.Context(), query)
	if err != nil {
		writeError(w, upstreamStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (s *Server) handleCourseByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	courseID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/courses/"), "/")
	if decoded, err := url.PathUnescape(courseID); err == nil {
		courseID = decoded
	}
	if courseID == "" || strings.Contains(courseID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	course, err := s.platform.Course(r.Context(), courseID)
	if err != nil {
		writeError(w, upstreamStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, course)
}

type enrollRequest struct {
	CourseID string `json:"course_id"`
	UserID   string `json:"user_id"`
}

func (s *Server) handleEnrollments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		enrollments, err := s.platform.Enrollments(r.Context(), userID)
		if err != nil {
			writeError(w, upstreamStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, enrollments)
	case http.MethodPost:
		var req enrollRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if req.CourseID == "" || req.UserID == "" {
			writeError(w, http.StatusBadRequest, "course_id and user_id are required")
			return
		}
		enrollment, err := s.platform.Enroll(r.Context(), req.CourseID, req.UserID)
		if err != nil {
			writeError(w, upstreamStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, enrollment)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var update platform.ProgressUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if update.ContentID == "" || update.UserID == "" {
		writeError(w, http.StatusBadRequest, "content_id and user_id are required")
		return
	}
	if err := s.platform.ReportProgress(r.Context(), update); err != nil {
		writeError(w, upstreamStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

// handleQuizByID dispatches /api/quizzes/{id} and /api/quizzes/{id}/submit.
func (s *Server) handleQuizByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/quizzes/")
	quizID, sub, _ := strings.Cut(rest, "/")
	if decoded, err := url.PathUnescape(quizID); err == nil {
		quizID = decoded
	}
	if quizID == "" {
		writeError(w, http.StatusBadRequest, "missing quiz id")
		return
	}

	switch sub {
	case "":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		quiz, err := s.platform.Quiz(r.Context(), quizID)
		if err != nil {
			writeError(w, upstreamStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, quiz)
	case "submit":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var submission platform.QuizSubmission
		if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if submission.UserID == "" {
			writeError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		result, err := s.platform.SubmitQuiz(r.Context(), quizID, submission)
		if err != nil {
			writeError(w, upstreamStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, result)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		page := 0
		if raw := r.URL.Query().Get("page"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				writeError(w, http.StatusBadRequest, "page must be a positive integer")
				return
			}
			page = parsed
		}
		posts, err := s.platform.Posts(r.Context(), page)
		if err != nil {
			writeError(w, upstreamStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, posts)
	case http.MethodPost:
		var post platform.NewPost
		if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if post.AuthorID == "" || post.Title == "" {
			writeError(w, http.StatusBadRequest, "author_id and title are required")
			return
		}
		created, err := s.platform.CreatePost(r.Context(), post)
		if err != nil {
			writeError(w, upstreamStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	entries, err := s.platform.Leaderboard(r.Context())
	if err != nil {
		writeError(w, upstreamStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
