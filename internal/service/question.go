package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/eqzhou81/CPEN-321-sub000/internal/apperr"
	"github.com/eqzhou81/CPEN-321-sub000/internal/fetcher"
	"github.com/eqzhou81/CPEN-321-sub000/internal/jobmatch"
	"github.com/eqzhou81/CPEN-321-sub000/internal/openai"
	"github.com/eqzhou81/CPEN-321-sub000/pkg"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxTitleLen             = 200
	defaultBehavioralCount  = 5
	defaultTechnicalCount   = 5
	problemsPerSkillKeyword = 3
)

type QuestionStore interface {
	Create(ctx context.Context, q *model.Question) (*model.Question, error)
	CreateMany(ctx context.Context, qs []model.Question) ([]model.Question, error)
	FindByJob(ctx context.Context, userID, jobID uuid.UUID, qType *model.QuestionType) ([]model.Question, error)
	FindByID(ctx context.Context, userID, questionID uuid.UUID) (*model.Question, error)
	UpdateStatus(ctx context.Context, userID, questionID uuid.UUID, status model.QuestionStatus) (*model.Question, error)
	DeleteByJob(ctx context.Context, userID, jobID uuid.UUID) (int64, error)
	ReplaceForJob(ctx context.Context, userID, jobID uuid.UUID, qs []model.Question) ([]model.Question, error)
	ProgressByJob(ctx context.Context, userID, jobID uuid.UUID) (*model.QuestionProgress, error)
}

// QuestionWriter produces behavioral questions for a job posting.
type QuestionWriter interface {
	BehavioralQuestions(ctx context.Context, job *model.JobApplication, count int) ([]openai.GeneratedQuestion, error)
}

// ProblemFinder looks up coding problems by keyword.
type ProblemFinder interface {
	SearchProblems(ctx context.Context, keyword string, limit int) ([]fetcher.Problem, error)
}

type QuestionService struct {
	store          QuestionStore
	jobs           JobReader
	writer         QuestionWriter
	problems       ProblemFinder
	logger         *zap.Logger
	technicalCount int
}

func NewQuestionService(store QuestionStore, jobs JobReader, writer QuestionWriter, problems ProblemFinder, technicalCount int, logger *zap.Logger) *QuestionService {
	if technicalCount <= 0 {
		technicalCount = defaultTechnicalCount
	}
	return &QuestionService{
		store:          store,
		jobs:           jobs,
		writer:         writer,
		problems:       problems,
		logger:         logger,
		technicalCount: technicalCount,
	}
}

// validateQuestion turns a create request into a question owned by userID.
func validateQuestion(userID uuid.UUID, req *model.CreateQuestionReq) (*model.Question, error) {
	if strings.TrimSpace(req.JobID) == "" {
		return nil, apperr.Validation("jobId is required")
	}
	jobID, err := parseID(req.JobID, "jobId")
	if err != nil {
		return nil, err
	}

	qType := model.QuestionType(strings.TrimSpace(req.Type))
	if qType != model.QuestionBehavioral && qType != model.QuestionTechnical {
		return nil, apperr.Validation("type must be one of behavioral, technical")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, apperr.Validation("title must be at most %d characters", maxTitleLen)
	}

	q := &model.Question{
		UserID: userID,
		JobID:  jobID,
		Type:   qType,
		Title:  title,
		Tags:   pkg.CleanStrings(req.Tags),
		Status: model.QuestionPending,
	}

	if req.Description != nil {
		if d := strings.TrimSpace(*req.Description); d != "" {
			q.Description = &d
		}
	}
	if qType == model.QuestionBehavioral && q.Description == nil {
		return nil, apperr.Validation("description is required for behavioral questions")
	}

	if req.Difficulty != nil && *req.Difficulty != "" {
		d := model.Difficulty(strings.ToLower(strings.TrimSpace(*req.Difficulty)))
		switch d {
		case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
			q.Difficulty = &d
		default:
			return nil, apperr.Validation("difficulty must be one of easy, medium, hard")
		}
	}

	if req.ExternalURL != nil && strings.TrimSpace(*req.ExternalURL) != "" {
		raw := strings.TrimSpace(*req.ExternalURL)
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return nil, apperr.Validation("externalUrl must be an absolute URL")
		}
		q.ExternalURL = &raw
	}

	return q, nil
}

func (s *QuestionService) Create(ctx context.Context, userID uuid.UUID, req *model.CreateQuestionReq) (*model.Question, error) {
	q, err := validateQuestion(userID, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.jobs.GetByID(ctx, userID, q.JobID); err != nil {
		return nil, storeErr(err, "Job", "load job")
	}

	created, err := s.store.Create(ctx, q)
	if err != nil {
		return nil, apperr.Persistence("Failed to create question", err)
	}
	return created, nil
}

// CreateMany validates every item before writing any of them. Items are
// attached to jobID.
func (s *QuestionService) CreateMany(ctx context.Context, userID, jobID uuid.UUID, items []model.CreateQuestionReq) ([]model.Question, error) {
	if len(items) == 0 {
		return []model.Question{}, nil
	}

	qs := make([]model.Question, 0, len(items))
	for i := range items {
		items[i].JobID = jobID.String()
		q, err := validateQuestion(userID, &items[i])
		if err != nil {
			var e *apperr.Error
			if errors.As(err, &e) {
				return nil, apperr.Validation("question %d: %s", i+1, e.Message)
			}
			return nil, err
		}
		qs = append(qs, *q)
	}
	if _, err := s.jobs.GetByID(ctx, userID, jobID); err != nil {
		return nil, storeErr(err, "Job", "load job")
	}

	created, err := s.store.CreateMany(ctx, qs)
	if err != nil {
		return nil, apperr.Persistence("Failed to create questions", err)
	}
	return created, nil
}

// FindByJobAndType lists the job's questions newest first. A nil qType
// returns both kinds.
func (s *QuestionService) FindByJobAndType(ctx context.Context, userID, jobID uuid.UUID, qType *model.QuestionType) ([]model.Question, error) {
	qs, err := s.store.FindByJob(ctx, userID, jobID, qType)
	if err != nil {
		return nil, apperr.Persistence("Failed to load questions", err)
	}
	return qs, nil
}

func (s *QuestionService) FindByJobID(ctx context.Context, userID, jobID uuid.UUID) ([]model.Question, error) {
	return s.FindByJobAndType(ctx, userID, jobID, nil)
}

func (s *QuestionService) FindByID(ctx context.Context, userID, questionID uuid.UUID) (*model.Question, error) {
	q, err := s.store.FindByID(ctx, userID, questionID)
	if err != nil {
		return nil, storeErr(err, "Question", "load question")
	}
	return q, nil
}

func (s *QuestionService) UpdateStatus(ctx context.Context, userID, questionID uuid.UUID, status model.QuestionStatus) (*model.Question, error) {
	q, err := s.store.UpdateStatus(ctx, userID, questionID, status)
	if err != nil {
		return nil, storeErr(err, "Question", "update question")
	}
	return q, nil
}

func (s *QuestionService) DeleteByJobID(ctx context.Context, userID, jobID uuid.UUID) (int64, error) {
	n, err := s.store.DeleteByJob(ctx, userID, jobID)
	if err != nil {
		return 0, apperr.Persistence("Failed to delete questions", err)
	}
	return n, nil
}

func (s *QuestionService) GetProgressByJob(ctx context.Context, userID, jobID uuid.UUID) (*model.QuestionProgress, error) {
	p, err := s.store.ProgressByJob(ctx, userID, jobID)
	if err != nil {
		return nil, apperr.Persistence("Failed to load question progress", err)
	}
	return p, nil
}

// Generate replaces the job's questions with a fresh set: behavioral ones
// written by the model and technical ones looked up from the job's skills.
// An empty types list generates both kinds.
func (s *QuestionService) Generate(ctx context.Context, userID, jobID uuid.UUID, types []string) ([]model.Question, error) {
	job, err := s.jobs.GetByID(ctx, userID, jobID)
	if err != nil {
		return nil, storeErr(err, "Job", "load job")
	}

	want := map[model.QuestionType]bool{}
	for _, t := range types {
		want[model.QuestionType(t)] = true
	}
	if len(want) == 0 {
		want[model.QuestionBehavioral] = true
		want[model.QuestionTechnical] = true
	}

	var qs []model.Question
	if want[model.QuestionBehavioral] {
		generated, err := s.writer.BehavioralQuestions(ctx, job, defaultBehavioralCount)
		if err != nil {
			return nil, apperr.Upstream("Failed to generate behavioral questions", err)
		}
		for _, g := range generated {
			desc := g.Description
			qs = append(qs, model.Question{
				UserID:      userID,
				JobID:       jobID,
				Type:        model.QuestionBehavioral,
				Title:       g.Title,
				Description: &desc,
				Tags:        pkg.CleanStrings(g.Tags),
			})
		}
	}

	if want[model.QuestionTechnical] {
		technical, err := s.technicalQuestions(ctx, job)
		if err != nil {
			return nil, err
		}
		qs = append(qs, technical...)
	}

	stored, err := s.store.ReplaceForJob(ctx, userID, jobID, qs)
	if err != nil {
		return nil, apperr.Persistence("Failed to store generated questions", err)
	}

	s.logger.Info("generate_questions: questions replaced",
		zap.String("job_id", jobID.String()),
		zap.Int("count", len(stored)),
	)
	return stored, nil
}

// technicalQuestions searches problems for each skill of the job until
// technicalCount distinct problems are found. Keywords that fail to search
// are skipped; it is an error only when every search failed.
func (s *QuestionService) technicalQuestions(ctx context.Context, job *model.JobApplication) ([]model.Question, error) {
	keywords := technicalKeywords(job)

	seen := map[string]bool{}
	var out []model.Question
	var lastErr error
	failed := 0
	for _, kw := range keywords {
		if len(out) >= s.technicalCount {
			break
		}
		problems, err := s.problems.SearchProblems(ctx, kw, problemsPerSkillKeyword)
		if err != nil {
			s.logger.Warn("generate_questions: problem search failed",
				zap.String("keyword", kw),
				zap.Error(err),
			)
			lastErr = err
			failed++
			continue
		}
		for _, p := range problems {
			if seen[p.Slug] || len(out) >= s.technicalCount {
				continue
			}
			seen[p.Slug] = true
			out = append(out, problemQuestion(job, kw, p))
		}
	}

	if failed > 0 && failed == len(keywords) {
		return nil, apperr.Upstream("Failed to look up technical questions", lastErr)
	}
	return out, nil
}

// technicalKeywords are the job's listed skills, then skills detected in
// its title and description.
func technicalKeywords(job *model.JobApplication) []string {
	seen := map[string]bool{}
	var out []string
	add := func(kw string) {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && !seen[kw] {
			seen[kw] = true
			out = append(out, kw)
		}
	}
	for _, sk := range job.Skills {
		add(sk)
	}
	for _, sk := range jobmatch.ExtractSkills(job.Title + " " + job.Description) {
		add(sk)
	}
	if len(out) == 0 {
		add("array")
	}
	return out
}

func problemQuestion(job *model.JobApplication, keyword string, p fetcher.Problem) model.Question {
	desc := fmt.Sprintf("Coding problem related to %s for the %s role.", keyword, job.Title)
	link := p.URL
	q := model.Question{
		UserID:      job.UserID,
		JobID:       job.JobID,
		Type:        model.QuestionTechnical,
		Title:       p.Title,
		Description: &desc,
		Tags:        pkg.CleanStrings(p.Tags),
		ExternalURL: &link,
	}
	switch d := model.Difficulty(p.Difficulty); d {
	case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
		q.Difficulty = &d
	}
	if r := []rune(q.Title); len(r) > maxTitleLen {
		q.Title = string(r[:maxTitleLen])
	}
	return q
}
