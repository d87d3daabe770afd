package model

import (
	"time"

	"github.com/google/uuid"
)

type QuestionType string

const (
	QuestionBehavioral QuestionType = "behavioral"
	QuestionTechnical  QuestionType = "technical"
)

type QuestionStatus string

const (
	QuestionPending    QuestionStatus = "pending"
	QuestionInProgress QuestionStatus = "in_progress"
	QuestionCompleted  QuestionStatus = "completed"
	QuestionSkipped    QuestionStatus = "skipped"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Question struct {
	QID         uuid.UUID      `json:"id" db:"q_id"`
	UserID      uuid.UUID      `json:"userId" db:"user_id"`
	JobID       uuid.UUID      `json:"jobId" db:"job_id"`
	Type        QuestionType   `json:"type" db:"type"`
	Title       string         `json:"title" db:"title"`
	Description *string        `json:"description,omitempty" db:"description"`
	Difficulty  *Difficulty    `json:"difficulty,omitempty" db:"difficulty"`
	Tags        []string       `json:"tags" db:"tags"`
	ExternalURL *string        `json:"externalUrl,omitempty" db:"external_url"`
	Status      QuestionStatus `json:"status" db:"status"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time      `json:"updatedAt" db:"updated_at"`
}

// CreateQuestionReq is checked by the question service rather than by
// binding tags so every caller gets the same messages.
type CreateQuestionReq struct {
	JobID       string   `json:"jobId"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Difficulty  *string  `json:"difficulty"`
	Tags        []string `json:"tags"`
	ExternalURL *string  `json:"externalUrl"`
}

// CreateQuestionsReq adds several questions to one job; jobId in the items
// is ignored.
type CreateQuestionsReq struct {
	Questions []CreateQuestionReq `json:"questions" binding:"required,min=1,max=50"`
}

type GenerateQuestionsReq struct {
	JobID string   `json:"jobId" binding:"required,uuid"`
	Types []string `json:"types" binding:"omitempty,dive,oneof=behavioral technical"`
}

type UpdateQuestionStatusReq struct {
	Status QuestionStatus `json:"status" binding:"required,oneof=pending in_progress completed skipped"`
}

type ListQuestionsQuery struct {
	Type string `form:"type" binding:"omitempty,oneof=behavioral technical"`
}

type ProgressCount struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

type QuestionProgress struct {
	Technical  ProgressCount `json:"technical"`
	Behavioral ProgressCount `json:"behavioral"`
	Overall    ProgressCount `json:"overall"`
}
