package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCancelled SessionStatus = "cancelled"
	SessionCompleted SessionStatus = "completed"
)

var SessionStatuses = []SessionStatus{SessionActive, SessionPaused, SessionCancelled, SessionCompleted}

// Terminal reports whether no other status may follow s.
func (s SessionStatus) Terminal() bool {
	return s == SessionCancelled || s == SessionCompleted
}

type Session struct {
	SessionID            uuid.UUID     `json:"id" db:"session_id"`
	UserID               uuid.UUID     `json:"userId" db:"user_id"`
	JobID                uuid.UUID     `json:"jobId" db:"job_id"`
	QuestionIDs          []uuid.UUID   `json:"questionIds" db:"question_ids"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex" db:"current_question_index"`
	Status               SessionStatus `json:"status" db:"status"`
	TotalQuestions       int           `json:"totalQuestions" db:"total_questions"`
	AnsweredQuestions    int           `json:"answeredQuestions" db:"answered_questions"`
	CreatedAt            time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time     `json:"updatedAt" db:"updated_at"`
}

// Position returns the index of questionID in the session, or -1.
func (s *Session) Position(questionID uuid.UUID) int {
	for i, id := range s.QuestionIDs {
		if id == questionID {
			return i
		}
	}
	return -1
}

// SessionAnswer is one submitted answer. Answer holds ciphertext at rest.
type SessionAnswer struct {
	SessionID  uuid.UUID `json:"sessionId" db:"session_id"`
	QuestionID uuid.UUID `json:"questionId" db:"question_id"`
	Answer     string    `json:"-" db:"answer"`
	Feedback   Feedback  `json:"feedback" db:"feedback"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

type SessionView struct {
	Session         *Session  `json:"session"`
	CurrentQuestion *Question `json:"currentQuestion"`
}

type SessionStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Paused    int `json:"paused"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

type SessionList struct {
	Sessions []Session    `json:"sessions"`
	Stats    SessionStats `json:"stats"`
}

type SessionProgress struct {
	SessionID              uuid.UUID     `json:"sessionId"`
	Status                 SessionStatus `json:"status"`
	CurrentQuestionIndex   int           `json:"currentQuestionIndex"`
	TotalQuestions         int           `json:"totalQuestions"`
	AnsweredQuestions      int           `json:"answeredQuestions"`
	ProgressPercentage     int           `json:"progressPercentage"`
	RemainingQuestions     int           `json:"remainingQuestions"`
	EstimatedTimeRemaining int           `json:"estimatedTimeRemaining"`
}

type AnswerResult struct {
	Session  *Session       `json:"session"`
	Feedback AnswerFeedback `json:"feedback"`
}

type CreateSessionReq struct {
	JobID              string  `json:"jobId" binding:"required,uuid"`
	SpecificQuestionID *string `json:"specificQuestionId" binding:"omitempty,uuid"`
}

type SubmitAnswerReq struct {
	SessionID  string `json:"sessionId" binding:"required,uuid"`
	QuestionID string `json:"questionId" binding:"required,uuid"`
	Answer     string `json:"answer"`
}

type UpdateSessionStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// NavigateReq keeps the raw value so a non-integer index can be reported
// as such instead of as a decoding failure.
type NavigateReq struct {
	QuestionIndex json.RawMessage `json:"questionIndex"`
}
