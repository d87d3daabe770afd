package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/eqzhou81/CPEN-321-sub000/internal/apperr"
	"github.com/eqzhou81/CPEN-321-sub000/internal/repository"
	"github.com/eqzhou81/CPEN-321-sub000/pkg"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MaxAnswerLen = 5000
	// minutes budgeted per remaining question
	minutesPerQuestion = 3
)

type SessionStore interface {
	Create(ctx context.Context, s *model.Session, fresh []model.Question) (*model.Session, []model.Question, error)
	GetByID(ctx context.Context, userID, sessionID uuid.UUID) (*model.Session, error)
	FindActive(ctx context.Context, userID, jobID uuid.UUID) (*model.Session, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Session, error)
	UpdateStatus(ctx context.Context, userID, sessionID uuid.UUID, status model.SessionStatus) (*model.Session, error)
	SetCurrentIndex(ctx context.Context, userID, sessionID uuid.UUID, index int) (*model.Session, error)
	RecordAnswer(ctx context.Context, userID uuid.UUID, a *model.SessionAnswer, position int) (*model.Session, error)
	Delete(ctx context.Context, userID, sessionID uuid.UUID) error
	Answers(ctx context.Context, sessionID uuid.UUID) ([]model.SessionAnswer, error)
}

// SessionQuestions is the part of the question store sessions read and mark.
type SessionQuestions interface {
	FindByID(ctx context.Context, userID, questionID uuid.UUID) (*model.Question, error)
	FindByJob(ctx context.Context, userID, jobID uuid.UUID, qType *model.QuestionType) ([]model.Question, error)
	UpdateStatus(ctx context.Context, userID, questionID uuid.UUID, status model.QuestionStatus) (*model.Question, error)
}

type Grader interface {
	Grade(ctx context.Context, question, answer string, job *model.JobContext) model.Feedback
}

type Sealer interface {
	Encrypt(plain string) (string, error)
}

type SessionService struct {
	store     SessionStore
	questions SessionQuestions
	jobs      JobReader
	grader    Grader
	sealer    Sealer
	logger    *zap.Logger
}

func NewSessionService(store SessionStore, questions SessionQuestions, jobs JobReader, grader Grader, sealer Sealer, logger *zap.Logger) *SessionService {
	return &SessionService{
		store:     store,
		questions: questions,
		jobs:      jobs,
		grader:    grader,
		sealer:    sealer,
		logger:    logger,
	}
}

var defaultBehavioralQuestions = []struct{ title, description string }{
	{
		"Tell me about yourself and why you are interested in this role.",
		"Summarize your background, the experience most relevant to the position and what draws you to it.",
	},
	{
		"Describe a challenging project you worked on and how you handled it.",
		"Explain the situation, the obstacles you faced, the actions you took and the outcome.",
	},
	{
		"Tell me about a time you disagreed with a teammate. How did you resolve it?",
		"Focus on how you communicated, found common ground and what the team learned.",
	},
	{
		"Describe a situation where you had to learn something new quickly.",
		"Walk through how you approached the learning, the resources you used and how you applied it.",
	},
	{
		"Tell me about a mistake you made and what you learned from it.",
		"Own the mistake, explain how you fixed it and what you changed afterwards.",
	},
}

func defaultQuestions(userID, jobID uuid.UUID) []model.Question {
	qs := make([]model.Question, 0, len(defaultBehavioralQuestions))
	for _, d := range defaultBehavioralQuestions {
		desc := d.description
		qs = append(qs, model.Question{
			UserID:      userID,
			JobID:       jobID,
			Type:        model.QuestionBehavioral,
			Title:       d.title,
			Description: &desc,
			Tags:        []string{"general"},
			Status:      model.QuestionPending,
		})
	}
	return qs
}

// Create starts a mock interview for the job. With specificQuestionID the
// session opens on that question followed by the job's other behavioral
// questions; otherwise it gets a fresh set of default questions.
func (s *SessionService) Create(ctx context.Context, userID, jobID uuid.UUID, specificQuestionID *uuid.UUID) (*model.SessionView, error) {
	if _, err := s.jobs.GetByID(ctx, userID, jobID); err != nil {
		return nil, storeErr(err, "Job", "load job")
	}

	if existing, err := s.store.FindActive(ctx, userID, jobID); err == nil {
		return nil, activeConflict(existing)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Persistence("Failed to check active sessions", err)
	}

	var ordered []model.Question
	if specificQuestionID != nil {
		var err error
		ordered, err = s.orderedQuestions(ctx, userID, jobID, *specificQuestionID)
		if err != nil {
			return nil, err
		}
	}

	session := &model.Session{UserID: userID, JobID: jobID}
	var fresh []model.Question
	if len(ordered) == 0 {
		fresh = defaultQuestions(userID, jobID)
	} else {
		for _, q := range ordered {
			session.QuestionIDs = append(session.QuestionIDs, q.QID)
		}
	}

	created, stored, err := s.store.Create(ctx, session, fresh)
	if errors.Is(err, repository.ErrActiveSessionExists) {
		existing, ferr := s.store.FindActive(ctx, userID, jobID)
		if ferr != nil {
			return nil, apperr.Persistence("Failed to load active session", ferr)
		}
		return nil, activeConflict(existing)
	}
	if err != nil {
		return nil, apperr.Persistence("Failed to create session", err)
	}

	first := ordered
	if len(stored) > 0 {
		first = stored
	}

	s.logger.Info("create_session: session created",
		zap.String("session_id", created.SessionID.String()),
		zap.String("job_id", jobID.String()),
		zap.Int("total_questions", created.TotalQuestions),
	)
	return &model.SessionView{Session: created, CurrentQuestion: &first[0]}, nil
}

func activeConflict(existing *model.Session) error {
	return apperr.Conflict("An active session already exists for this job", existing)
}

// orderedQuestions puts the requested question first, followed by the job's
// other behavioral questions. An unknown id yields just the behavioral
// questions.
func (s *SessionService) orderedQuestions(ctx context.Context, userID, jobID, questionID uuid.UUID) ([]model.Question, error) {
	behavioral := model.QuestionBehavioral
	others, err := s.questions.FindByJob(ctx, userID, jobID, &behavioral)
	if err != nil {
		return nil, apperr.Persistence("Failed to load questions", err)
	}

	specific, err := s.questions.FindByID(ctx, userID, questionID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Persistence("Failed to load question", err)
	}
	if specific == nil || specific.JobID != jobID {
		return others, nil
	}

	out := make([]model.Question, 0, len(others)+1)
	out = append(out, *specific)
	for _, q := range others {
		if q.QID != specific.QID {
			out = append(out, q)
		}
	}
	return out, nil
}

// Get returns the session and the question at its current index.
func (s *SessionService) Get(ctx context.Context, userID, sessionID uuid.UUID) (*model.SessionView, error) {
	session, err := s.store.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, storeErr(err, "Session", "load session")
	}
	current, err := s.currentQuestion(ctx, session)
	if err != nil {
		return nil, err
	}
	return &model.SessionView{Session: session, CurrentQuestion: current}, nil
}

// currentQuestion is nil when the question was deleted after the session
// was created.
func (s *SessionService) currentQuestion(ctx context.Context, session *model.Session) (*model.Question, error) {
	if session.CurrentQuestionIndex < 0 || session.CurrentQuestionIndex >= len(session.QuestionIDs) {
		return nil, nil
	}
	q, err := s.questions.FindByID(ctx, session.UserID, session.QuestionIDs[session.CurrentQuestionIndex])
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("Failed to load current question", err)
	}
	return q, nil
}

func (s *SessionService) List(ctx context.Context, userID uuid.UUID) (*model.SessionList, error) {
	sessions, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("Failed to load sessions", err)
	}

	stats := model.SessionStats{Total: len(sessions)}
	for _, ss := range sessions {
		switch ss.Status {
		case model.SessionActive:
			stats.Active++
		case model.SessionPaused:
			stats.Paused++
		case model.SessionCompleted:
			stats.Completed++
		case model.SessionCancelled:
			stats.Cancelled++
		}
	}
	return &model.SessionList{Sessions: sessions, Stats: stats}, nil
}

// SubmitAnswer records an answer for a question of an active session and
// returns the updated session with the feedback for the answer.
func (s *SessionService) SubmitAnswer(ctx context.Context, userID, sessionID, questionID uuid.UUID, answer string) (*model.AnswerResult, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, apperr.Validation("Answer is required")
	}
	if utf8.RuneCountInString(answer) > MaxAnswerLen {
		return nil, apperr.Validation("Answer too long (max %d characters)", MaxAnswerLen)
	}

	session, err := s.store.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, storeErr(err, "Session", "load session")
	}
	if session.Status != model.SessionActive {
		return nil, apperr.InvalidState("Session is not active")
	}

	question, err := s.questions.FindByID(ctx, userID, questionID)
	if err != nil {
		return nil, storeErr(err, "Question", "load question")
	}
	pos := session.Position(questionID)
	if pos < 0 {
		return nil, apperr.Mismatch("Question does not belong to this session")
	}

	behavioral := question.Type == model.QuestionBehavioral
	var fb model.Feedback
	if behavioral {
		fb = s.grader.Grade(ctx, question.Title, answer, s.jobContext(ctx, session))
	} else {
		fb = model.Feedback{
			Feedback:     "Technical question noted",
			Score:        0,
			Strengths:    []string{},
			Improvements: []string{},
		}
	}

	sealed, err := s.sealer.Encrypt(answer)
	if err != nil {
		return nil, apperr.Persistence("Failed to store answer", err)
	}

	updated, err := s.store.RecordAnswer(ctx, userID, &model.SessionAnswer{
		SessionID:  sessionID,
		QuestionID: questionID,
		Answer:     sealed,
		Feedback:   fb,
	}, pos)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.InvalidState("Session is not active")
	}
	if err != nil {
		return nil, apperr.Persistence("Failed to update session progress", err)
	}

	// only a stored answer completes the question
	if behavioral {
		if _, err := s.questions.UpdateStatus(ctx, userID, questionID, model.QuestionCompleted); err != nil {
			s.logger.Warn("submit_answer: failed to mark question completed",
				zap.String("question_id", questionID.String()),
				zap.Error(err),
			)
		}
	}

	completed := updated.Status == model.SessionCompleted
	return &model.AnswerResult{
		Session: updated,
		Feedback: model.AnswerFeedback{
			Feedback:         fb,
			IsLastQuestion:   completed,
			SessionCompleted: completed,
		},
	}, nil
}

// jobContext is best effort; grading works without it.
func (s *SessionService) jobContext(ctx context.Context, session *model.Session) *model.JobContext {
	job, err := s.jobs.GetByID(ctx, session.UserID, session.JobID)
	if err != nil {
		return nil
	}
	return &model.JobContext{Title: job.Title, Company: job.Company}
}

// ParseSessionStatus accepts any letter case.
func ParseSessionStatus(raw string) (model.SessionStatus, error) {
	st := model.SessionStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range model.SessionStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", apperr.Validation("Invalid status. Must be one of: active, paused, cancelled, completed")
}

func (s *SessionService) UpdateStatus(ctx context.Context, userID, sessionID uuid.UUID, raw string) (*model.Session, error) {
	status, err := ParseSessionStatus(raw)
	if err != nil {
		return nil, err
	}

	session, err := s.store.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, storeErr(err, "Session", "load session")
	}
	if session.Status == status {
		return session, nil
	}
	if session.Status.Terminal() {
		return nil, apperr.InvalidState("Cannot change status of a %s session", session.Status)
	}

	updated, err := s.store.UpdateStatus(ctx, userID, sessionID, status)
	if errors.Is(err, repository.ErrActiveSessionExists) {
		existing, ferr := s.store.FindActive(ctx, userID, session.JobID)
		if ferr != nil {
			return nil, apperr.Conflict("An active session already exists for this job", nil)
		}
		return nil, activeConflict(existing)
	}
	if err != nil {
		return nil, storeErr(err, "Session", "update session")
	}
	return updated, nil
}

// ParseQuestionIndex reads a JSON number without a fractional part.
// Strings, fractions and missing values are rejected.
func ParseQuestionIndex(raw json.RawMessage) (int, error) {
	var v *float64
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil || v == nil || *v != math.Trunc(*v) {
		return 0, apperr.Validation("Question index must be a number")
	}
	f := *v
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, apperr.Range("Invalid question index")
	}
	return int(f), nil
}

// Navigate moves the session to index, which must be in [0, total).
func (s *SessionService) Navigate(ctx context.Context, userID, sessionID uuid.UUID, index int) (*model.SessionView, error) {
	session, err := s.store.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, storeErr(err, "Session", "load session")
	}
	if index < 0 || index >= session.TotalQuestions {
		return nil, apperr.Range("Invalid question index")
	}

	updated, err := s.store.SetCurrentIndex(ctx, userID, sessionID, index)
	if err != nil {
		return nil, storeErr(err, "Session", "update session")
	}
	current, err := s.currentQuestion(ctx, updated)
	if err != nil {
		return nil, err
	}
	return &model.SessionView{Session: updated, CurrentQuestion: current}, nil
}

// Progress derives the progress figures from a session.
func Progress(session *model.Session) *model.SessionProgress {
	remaining := session.TotalQuestions - session.AnsweredQuestions
	if remaining < 0 {
		remaining = 0
	}
	return &model.SessionProgress{
		SessionID:              session.SessionID,
		Status:                 session.Status,
		CurrentQuestionIndex:   session.CurrentQuestionIndex,
		TotalQuestions:         session.TotalQuestions,
		AnsweredQuestions:      session.AnsweredQuestions,
		ProgressPercentage:     pkg.Percent(session.AnsweredQuestions, session.TotalQuestions),
		RemainingQuestions:     remaining,
		EstimatedTimeRemaining: remaining * minutesPerQuestion,
	}
}

func (s *SessionService) GetProgress(ctx context.Context, userID, sessionID uuid.UUID) (*model.SessionProgress, error) {
	session, err := s.store.GetByID(ctx, userID, sessionID)
	if err != nil {
		return nil, storeErr(err, "Session", "load session")
	}
	return Progress(session), nil
}

// Answers returns the graded answers of a session, oldest first. Answer
// text stays sealed and is never returned.
func (s *SessionService) Answers(ctx context.Context, userID, sessionID uuid.UUID) ([]model.SessionAnswer, error) {
	if _, err := s.store.GetByID(ctx, userID, sessionID); err != nil {
		return nil, storeErr(err, "Session", "load session")
	}
	answers, err := s.store.Answers(ctx, sessionID)
	if err != nil {
		return nil, apperr.Persistence("Failed to load answers", err)
	}
	return answers, nil
}

func (s *SessionService) Delete(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := s.store.Delete(ctx, userID, sessionID); err != nil {
		return storeErr(err, "Session", "delete session")
	}
	return nil
}
