package model

import (
	"time"

	"github.com/google/uuid"
)

type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
	JobTypeRemote     JobType = "remote"
)

type ExperienceLevel string

const (
	ExperienceEntry     ExperienceLevel = "entry"
	ExperienceMid       ExperienceLevel = "mid"
	ExperienceSenior    ExperienceLevel = "senior"
	ExperienceLead      ExperienceLevel = "lead"
	ExperienceExecutive ExperienceLevel = "executive"
)

type ApplicationStatus string

const (
	ApplicationSaved        ApplicationStatus = "saved"
	ApplicationApplied      ApplicationStatus = "applied"
	ApplicationInterviewing ApplicationStatus = "interviewing"
	ApplicationOffer        ApplicationStatus = "offer"
	ApplicationRejected     ApplicationStatus = "rejected"
	ApplicationWithdrawn    ApplicationStatus = "withdrawn"
)

var ApplicationStatuses = []ApplicationStatus{
	ApplicationSaved, ApplicationApplied, ApplicationInterviewing,
	ApplicationOffer, ApplicationRejected, ApplicationWithdrawn,
}

type JobApplication struct {
	JobID             uuid.UUID         `json:"id" db:"job_id"`
	UserID            uuid.UUID         `json:"userId" db:"user_id"`
	Title             string            `json:"title" db:"title"`
	Company           string            `json:"company" db:"company"`
	Description       string            `json:"description" db:"description"`
	Location          *string           `json:"location,omitempty" db:"location"`
	URL               *string           `json:"url,omitempty" db:"url"`
	Requirements      []string          `json:"requirements" db:"requirements"`
	Skills            []string          `json:"skills" db:"skills"`
	Salary            *string           `json:"salary,omitempty" db:"salary"`
	JobType           *JobType          `json:"jobType,omitempty" db:"job_type"`
	ExperienceLevel   *ExperienceLevel  `json:"experienceLevel,omitempty" db:"experience_level"`
	ApplicationStatus ApplicationStatus `json:"applicationStatus" db:"application_status"`
	DateApplied       *time.Time        `json:"dateApplied,omitempty" db:"date_applied"`
	CreatedAt         time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time         `json:"updatedAt" db:"updated_at"`
}

type CreateJobReq struct {
	Title             string             `json:"title" binding:"required,notblank,max=200"`
	Company           string             `json:"company" binding:"required,notblank,max=200"`
	Description       string             `json:"description" binding:"required,notblank,max=20000"`
	Location          *string            `json:"location" binding:"omitempty,max=200"`
	URL               *string            `json:"url" binding:"omitempty,url"`
	Requirements      []string           `json:"requirements" binding:"omitempty,dive,max=500"`
	Skills            []string           `json:"skills" binding:"omitempty,dive,max=100"`
	Salary            *string            `json:"salary" binding:"omitempty,max=100"`
	JobType           *JobType           `json:"jobType" binding:"omitempty,oneof=full-time part-time contract internship remote"`
	ExperienceLevel   *ExperienceLevel   `json:"experienceLevel" binding:"omitempty,oneof=entry mid senior lead executive"`
	ApplicationStatus *ApplicationStatus `json:"applicationStatus" binding:"omitempty,oneof=saved applied interviewing offer rejected withdrawn"`
	DateApplied       *time.Time         `json:"dateApplied"`
}

// UpdateJobReq carries a partial update; nil fields are left untouched.
type UpdateJobReq struct {
	Title             *string            `json:"title" binding:"omitempty,notblank,max=200"`
	Company           *string            `json:"company" binding:"omitempty,notblank,max=200"`
	Description       *string            `json:"description" binding:"omitempty,notblank,max=20000"`
	Location          *string            `json:"location" binding:"omitempty,max=200"`
	URL               *string            `json:"url" binding:"omitempty,url"`
	Requirements      *[]string          `json:"requirements"`
	Skills            *[]string          `json:"skills"`
	Salary            *string            `json:"salary" binding:"omitempty,max=100"`
	JobType           *JobType           `json:"jobType" binding:"omitempty,oneof=full-time part-time contract internship remote"`
	ExperienceLevel   *ExperienceLevel   `json:"experienceLevel" binding:"omitempty,oneof=entry mid senior lead executive"`
	ApplicationStatus *ApplicationStatus `json:"applicationStatus" binding:"omitempty,oneof=saved applied interviewing offer rejected withdrawn"`
	DateApplied       *time.Time         `json:"dateApplied"`
}

type ListJobsQuery struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"pageSize,default=20" binding:"min=1,max=100"`
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=saved applied interviewing offer rejected withdrawn"`
}

type ImportJobReq struct {
	URL  string `json:"url" binding:"required,url"`
	Save bool   `json:"save"`
}

type JobStats struct {
	Total    int                       `json:"total"`
	ByStatus map[ApplicationStatus]int `json:"byStatus"`
	ThisWeek int                       `json:"thisWeek"`
	LastWeek int                       `json:"lastWeek"`
	Growth   int                       `json:"growth"`
}

type SimilarJob struct {
	Job   JobApplication `json:"job"`
	Score float64        `json:"score"`
}
