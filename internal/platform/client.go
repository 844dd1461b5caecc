// Package platform wraps the e-learning backend's CRUD surfaces: catalog,
// enrollment, quizzes and community. Pure request/response mapping, no
// business logic; the dubbing core lives in internal/dubbing.
package platform

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/eduvoice/dubsession/internal/backend"
)

// Client is a thin typed facade over the shared backend transport.
type Client struct {
	api *backend.Client
}

func NewClient(api *backend.Client) *Client {
	return &Client{api: api}
}

// Courses lists catalog entries matching the query.
func (c *Client) Courses(ctx context.Context, query CourseQuery) ([]Course, error) {
	params := url.Values{}
	if query.Search != "" {
		params.Set("search", query.Search)
	}
	if query.Category != "" {
		params.Set("category", query.Category)
	}
	if query.Language != "" {
		params.Set("language", query.Language)
	}
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}

	var courses []Course
	if err := c.api.GetJSON(ctx, "/courses", params, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// Course fetches one catalog entry.
func (c *Client) Course(ctx context.Context, courseID string) (*Course, error) {
	var course Course
	path := fmt.Sprintf("/courses/%s", url.PathEscape(courseID))
	if err := c.api.GetJSON(ctx, path, nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// Enroll enrolls a learner into a course.
func (c *Client) Enroll(ctx context.Context, courseID, userID string) (*Enrollment, error) {
	payload := map[string]string{"course_id": courseID, "user_id": userID}
	var enrollment Enrollment
	if err := c.api.PostJSON(ctx, "/enrollments", payload, &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Enrollments lists a learner's enrollments.
func (c *Client) Enrollments(ctx context.Context, userID string) ([]Enrollment, error) {
	params := url.Values{}
	params.Set("user_id", userID)

	var enrollments []Enrollment
	if err := c.api.GetJSON(ctx, "/enrollments", params, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// ReportProgress persists lecture progress.
func (c *Client) ReportProgress(ctx context.Context, update ProgressUpdate) error {
	return c.api.PostJSON(ctx, "/progress", update, nil)
}

// Quiz fetches a quiz for rendering.
func (c *Client) Quiz(ctx context.Context, quizID string) (*Quiz, error) {
	var quiz Quiz
	path := fmt.Sprintf("/quizzes/%s", url.PathEscape(quizID))
	if err := c.api.GetJSON(ctx, path, nil, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// SubmitQuiz sends answers for backend grading.
func (c *Client) SubmitQuiz(ctx context.Context, quizID string, submission QuizSubmission) (*QuizResult, error) {
	var result QuizResult
	path := fmt.Sprintf("/quizzes/%s/submit", url.PathEscape(quizID))
	if err := c.api.PostJSON(ctx, path, submission, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Posts lists community discussion posts.
func (c *Client) Posts(ctx context.Context, page int) ([]Post, error) {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}

	var posts []Post
	if err := c.api.GetJSON(ctx, "/community/posts", params, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost publishes a community post.
func (c *Client) CreatePost(ctx context.Context, post NewPost) (*Post, error) {
	var created Post
	if err := c.api.PostJSON(ctx, "/community/posts", post, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Leaderboard fetches the current competition standings.
func (c *Client) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	if err := c.api.GetJSON(ctx, "/community/leaderboard", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
