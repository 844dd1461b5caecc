package platform

import "time"

// Course is a catalog entry.
type Course struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Language     string   `json:"language"`
	TeacherID    string   `json:"teacher_id"`
	TeacherName  string   `json:"teacher_name"`
	LectureCount int      `json:"lecture_count"`
	Tags         []string `json:"tags,omitempty"`
}

// CourseQuery narrows a catalog listing.
type CourseQuery struct {
	Search   string
	Category string
	Language string
	Page     int
}

// Enrollment links a learner to a course.
type Enrollment struct {
	ID              string    `json:"id"`
	CourseID        string    `json:"course_id"`
	UserID          string    `json:"user_id"`
	EnrolledAt      time.Time `json:"enrolled_at"`
	ProgressPercent int       `json:"progress_percent"`
}

// ProgressUpdate reports how far a learner got through a lecture.
type ProgressUpdate struct {
	CourseID        string `json:"course_id"`
	ContentID       string `json:"content_id"`
	UserID          string `json:"user_id"`
	PositionSeconds int    `json:"position_seconds"`
	Completed       bool   `json:"completed"`
}

// Quiz is fetched for rendering; grading happens on the backend.
type Quiz struct {
	ID        string     `json:"id"`
	CourseID  string     `json:"course_id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// QuizSubmission carries the learner's answers, keyed by question ID.
type QuizSubmission struct {
	UserID  string            `json:"user_id"`
	Answers map[string]string `json:"answers"`
}

// QuizResult is the backend's grading verdict.
type QuizResult struct {
	QuizID   string `json:"quiz_id"`
	Score    int    `json:"score"`
	MaxScore int    `json:"max_score"`
	Passed   bool   `json:"passed"`
}

// Post is a community discussion entry.
type Post struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewPost is the creation payload for a Post.
type NewPost struct {
	AuthorID string `json:"author_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// LeaderboardEntry is one row of a competition leaderboard.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Points   int    `json:"points"`
}
