package service

import (
	"context"
	"strings"
	"time"

	"github.com/eqzhou81/CPEN-321-sub000/internal/apperr"
	"github.com/eqzhou81/CPEN-321-sub000/internal/fetcher"
	"github.com/eqzhou81/CPEN-321-sub000/internal/jobmatch"
	"github.com/eqzhou81/CPEN-321-sub000/pkg"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	similarMinScore = 0.1
	similarLimit    = 10
)

type JobStore interface {
	Create(ctx context.Context, j *model.JobApplication) (*model.JobApplication, error)
	GetByID(ctx context.Context, userID, jobID uuid.UUID) (*model.JobApplication, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int, search string, status string) ([]model.JobApplication, int, error)
	ListAll(ctx context.Context, userID uuid.UUID) ([]model.JobApplication, error)
	Update(ctx context.Context, userID, jobID uuid.UUID, updates map[string]interface{}) (*model.JobApplication, error)
	Delete(ctx context.Context, userID, jobID uuid.UUID) error
	CountByStatus(ctx context.Context, userID uuid.UUID) (map[model.ApplicationStatus]int, error)
	CountCreatedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error)
}

// PageFetcher reads a job posting off its page.
type PageFetcher interface {
	FetchJobPage(ctx context.Context, pageURL string) (*fetcher.JobPosting, error)
}

type JobService struct {
	store  JobStore
	pages  PageFetcher
	logger *zap.Logger
	now    func() time.Time
}

func NewJobService(store JobStore, pages PageFetcher, logger *zap.Logger) *JobService {
	return &JobService{store: store, pages: pages, logger: logger, now: time.Now}
}

func (s *JobService) Create(ctx context.Context, userID uuid.UUID, req *model.CreateJobReq) (*model.JobApplication, error) {
	job := &model.JobApplication{
		UserID:            userID,
		Title:             strings.TrimSpace(req.Title),
		Company:           strings.TrimSpace(req.Company),
		Description:       strings.TrimSpace(req.Description),
		Location:          req.Location,
		URL:               req.URL,
		Requirements:      pkg.CleanStrings(req.Requirements),
		Skills:            pkg.CleanStrings(req.Skills),
		Salary:            req.Salary,
		JobType:           req.JobType,
		ExperienceLevel:   req.ExperienceLevel,
		ApplicationStatus: model.ApplicationSaved,
		DateApplied:       req.DateApplied,
	}
	if req.ApplicationStatus != nil {
		job.ApplicationStatus = *req.ApplicationStatus
	}
	if len(job.Skills) == 0 {
		job.Skills = jobmatch.ExtractSkills(job.Title + " " + job.Description)
	}

	created, err := s.store.Create(ctx, job)
	if err != nil {
		return nil, apperr.Persistence("Failed to create job", err)
	}
	return created, nil
}

func (s *JobService) Get(ctx context.Context, userID, jobID uuid.UUID) (*model.JobApplication, error) {
	job, err := s.store.GetByID(ctx, userID, jobID)
	if err != nil {
		return nil, storeErr(err, "Job", "load job")
	}
	return job, nil
}

// List returns one page of jobs and the total number matching the query.
func (s *JobService) List(ctx context.Context, userID uuid.UUID, q *model.ListJobsQuery) ([]model.JobApplication, int, error) {
	offset := (q.Page - 1) * q.PageSize
	jobs, total, err := s.store.List(ctx, userID, q.PageSize, offset, strings.TrimSpace(q.Search), q.Status)
	if err != nil {
		return nil, 0, apperr.Persistence("Failed to load jobs", err)
	}
	return jobs, total, nil
}

func (s *JobService) Update(ctx context.Context, userID, jobID uuid.UUID, req *model.UpdateJobReq) (*model.JobApplication, error) {
	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Company != nil {
		updates["company"] = strings.TrimSpace(*req.Company)
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.URL != nil {
		updates["url"] = *req.URL
	}
	if req.Requirements != nil {
		updates["requirements"] = pkg.CleanStrings(*req.Requirements)
	}
	if req.Skills != nil {
		updates["skills"] = pkg.CleanStrings(*req.Skills)
	}
	if req.Salary != nil {
		updates["salary"] = *req.Salary
	}
	if req.JobType != nil {
		updates["job_type"] = *req.JobType
	}
	if req.ExperienceLevel != nil {
		updates["experience_level"] = *req.ExperienceLevel
	}
	if req.ApplicationStatus != nil {
		updates["application_status"] = *req.ApplicationStatus
	}
	if req.DateApplied != nil {
		updates["date_applied"] = *req.DateApplied
	}

	job, err := s.store.Update(ctx, userID, jobID, updates)
	if err != nil {
		return nil, storeErr(err, "Job", "update job")
	}
	return job, nil
}

// Delete removes the job with its questions and sessions.
func (s *JobService) Delete(ctx context.Context, userID, jobID uuid.UUID) error {
	if err := s.store.Delete(ctx, userID, jobID); err != nil {
		return storeErr(err, "Job", "delete job")
	}
	s.logger.Info("delete_job: job deleted", zap.String("job_id", jobID.String()))
	return nil
}

// Stats counts jobs per status and compares this week's additions with the
// previous week's.
func (s *JobService) Stats(ctx context.Context, userID uuid.UUID) (*model.JobStats, error) {
	byStatus, err := s.store.CountByStatus(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("Failed to load job stats", err)
	}

	now := s.now()
	weekAgo := now.AddDate(0, 0, -7)
	thisWeek, err := s.store.CountCreatedBetween(ctx, userID, weekAgo, now)
	if err != nil {
		return nil, apperr.Persistence("Failed to load job stats", err)
	}
	lastWeek, err := s.store.CountCreatedBetween(ctx, userID, weekAgo.AddDate(0, 0, -7), weekAgo)
	if err != nil {
		return nil, apperr.Persistence("Failed to load job stats", err)
	}

	stats := &model.JobStats{
		ByStatus: map[model.ApplicationStatus]int{},
		ThisWeek: thisWeek,
		LastWeek: lastWeek,
		Growth:   pkg.CalculateGrowth(thisWeek, lastWeek),
	}
	for _, st := range model.ApplicationStatuses {
		stats.ByStatus[st] = byStatus[st]
		stats.Total += byStatus[st]
	}
	return stats, nil
}

// Similar ranks the user's other jobs by keyword overlap with jobID.
func (s *JobService) Similar(ctx context.Context, userID, jobID uuid.UUID) ([]model.SimilarJob, error) {
	target, err := s.store.GetByID(ctx, userID, jobID)
	if err != nil {
		return nil, storeErr(err, "Job", "load job")
	}
	all, err := s.store.ListAll(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("Failed to load jobs", err)
	}
	return jobmatch.Rank(target, all, similarMinScore, similarLimit), nil
}

// Import reads a posting page into a draft job. The draft is stored only
// when save is set.
func (s *JobService) Import(ctx context.Context, userID uuid.UUID, pageURL string, save bool) (*model.JobApplication, error) {
	posting, err := s.pages.FetchJobPage(ctx, pageURL)
	if err != nil {
		return nil, apperr.Upstream("Failed to import job posting", err)
	}

	link := posting.URL
	job := &model.JobApplication{
		UserID:            userID,
		Title:             posting.Title,
		Company:           posting.Company,
		Description:       posting.Description,
		URL:               &link,
		Requirements:      []string{},
		Skills:            jobmatch.ExtractSkills(posting.Title + " " + posting.Description),
		ApplicationStatus: model.ApplicationSaved,
	}
	if posting.Location != "" {
		loc := posting.Location
		job.Location = &loc
	}
	if !save {
		return job, nil
	}

	created, err := s.store.Create(ctx, job)
	if err != nil {
		return nil, apperr.Persistence("Failed to save imported job", err)
	}
	s.logger.Info("import_job: job imported",
		zap.String("job_id", created.JobID.String()),
		zap.String("url", pageURL),
	)
	return created, nil
}
