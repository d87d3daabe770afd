package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eqzhou81/CPEN-321-sub000/internal/fetcher"
	"github.com/eqzhou81/CPEN-321-sub000/internal/openai"
	"github.com/eqzhou81/CPEN-321-sub000/internal/repository"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/google/uuid"
)

// memDB backs the in-memory stores below with the same rules the SQL
// repositories enforce.
type memDB struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*model.JobApplication
	questions map[uuid.UUID]*model.Question
	sessions  map[uuid.UUID]*model.Session
	answers   map[[2]uuid.UUID]model.SessionAnswer
	clock     time.Time
}

func newMemDB() *memDB {
	return &memDB{
		jobs:      map[uuid.UUID]*model.JobApplication{},
		questions: map[uuid.UUID]*model.Question{},
		sessions:  map[uuid.UUID]*model.Session{},
		answers:   map[[2]uuid.UUID]model.SessionAnswer{},
		clock:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so "newest first" is stable.
func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func (db *memDB) addJob(userID uuid.UUID, title, company string) *model.JobApplication {
	db.mu.Lock()
	defer db.mu.Unlock()
	j := &model.JobApplication{
		JobID:             uuid.New(),
		UserID:            userID,
		Title:             title,
		Company:           company,
		Requirements:      []string{},
		Skills:            []string{},
		ApplicationStatus: model.ApplicationSaved,
		CreatedAt:         db.tick(),
	}
	db.jobs[j.JobID] = j
	return j
}

func (db *memDB) addQuestion(userID, jobID uuid.UUID, qType model.QuestionType, title string) *model.Question {
	db.mu.Lock()
	defer db.mu.Unlock()
	desc := title + " description"
	q := &model.Question{
		QID:         uuid.New(),
		UserID:      userID,
		JobID:       jobID,
		Type:        qType,
		Title:       title,
		Description: &desc,
		Tags:        []string{},
		Status:      model.QuestionPending,
		CreatedAt:   db.tick(),
	}
	db.questions[q.QID] = q
	return q
}

func (db *memDB) insertQuestion(q model.Question) model.Question {
	if q.QID == uuid.Nil {
		q.QID = uuid.New()
	}
	if q.Status == "" {
		q.Status = model.QuestionPending
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
	q.CreatedAt = db.tick()
	q.UpdatedAt = q.CreatedAt
	cp := q
	db.questions[q.QID] = &cp
	return q
}

type memJobs struct{ db *memDB }

func (m memJobs) Create(ctx context.Context, j *model.JobApplication) (*model.JobApplication, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	cp := *j
	if cp.JobID == uuid.Nil {
		cp.JobID = uuid.New()
	}
	cp.CreatedAt = m.db.tick()
	m.db.jobs[cp.JobID] = &cp
	out := cp
	return &out, nil
}

func (m memJobs) GetByID(ctx context.Context, userID, jobID uuid.UUID) (*model.JobApplication, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	j, ok := m.db.jobs[jobID]
	if !ok || j.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m memJobs) List(ctx context.Context, userID uuid.UUID, limit, offset int, search, status string) ([]model.JobApplication, int, error) {
	all, _ := m.ListAll(ctx, userID)
	var matched []model.JobApplication
	for _, j := range all {
		if search != "" && !strings.Contains(strings.ToLower(j.Title), strings.ToLower(search)) {
			continue
		}
		if status != "" && string(j.ApplicationStatus) != status {
			continue
		}
		matched = append(matched, j)
	}
	total := len(matched)
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (m memJobs) ListAll(ctx context.Context, userID uuid.UUID) ([]model.JobApplication, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []model.JobApplication{}
	for _, j := range m.db.jobs {
		if j.UserID == userID {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (m memJobs) Update(ctx context.Context, userID, jobID uuid.UUID, updates map[string]interface{}) (*model.JobApplication, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	j, ok := m.db.jobs[jobID]
	if !ok || j.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if v, ok := updates["title"].(string); ok {
		j.Title = v
	}
	if v, ok := updates["application_status"].(model.ApplicationStatus); ok {
		j.ApplicationStatus = v
	}
	if v, ok := updates["skills"].([]string); ok {
		j.Skills = v
	}
	cp := *j
	return &cp, nil
}

func (m memJobs) Delete(ctx context.Context, userID, jobID uuid.UUID) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	j, ok := m.db.jobs[jobID]
	if !ok || j.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.db.jobs, jobID)
	for id, q := range m.db.questions {
		if q.JobID == jobID {
			delete(m.db.questions, id)
		}
	}
	for id, s := range m.db.sessions {
		if s.JobID == jobID {
			delete(m.db.sessions, id)
		}
	}
	return nil
}

func (m memJobs) CountByStatus(ctx context.Context, userID uuid.UUID) (map[model.ApplicationStatus]int, error) {
	all, _ := m.ListAll(ctx, userID)
	out := map[model.ApplicationStatus]int{}
	for _, j := range all {
		out[j.ApplicationStatus]++
	}
	return out, nil
}

func (m memJobs) CountCreatedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error) {
	all, _ := m.ListAll(ctx, userID)
	n := 0
	for _, j := range all {
		if !j.CreatedAt.Before(from) && j.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

type memQuestions struct{ db *memDB }

func (m memQuestions) Create(ctx context.Context, q *model.Question) (*model.Question, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := m.db.insertQuestion(*q)
	return &out, nil
}

func (m memQuestions) CreateMany(ctx context.Context, qs []model.Question) ([]model.Question, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := make([]model.Question, 0, len(qs))
	for _, q := range qs {
		out = append(out, m.db.insertQuestion(q))
	}
	return out, nil
}

func (m memQuestions) FindByJob(ctx context.Context, userID, jobID uuid.UUID, qType *model.QuestionType) ([]model.Question, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []model.Question{}
	for _, q := range m.db.questions {
		if q.UserID != userID || q.JobID != jobID {
			continue
		}
		if qType != nil && q.Type != *qType {
			continue
		}
		out = append(out, *q)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (m memQuestions) FindByID(ctx context.Context, userID, questionID uuid.UUID) (*model.Question, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	q, ok := m.db.questions[questionID]
	if !ok || q.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (m memQuestions) UpdateStatus(ctx context.Context, userID, questionID uuid.UUID, status model.QuestionStatus) (*model.Question, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	q, ok := m.db.questions[questionID]
	if !ok || q.UserID != userID {
		return nil, repository.ErrNotFound
	}
	q.Status = status
	cp := *q
	return &cp, nil
}

func (m memQuestions) DeleteByJob(ctx context.Context, userID, jobID uuid.UUID) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for id, q := range m.db.questions {
		if q.UserID == userID && q.JobID == jobID {
			delete(m.db.questions, id)
			n++
		}
	}
	return n, nil
}

func (m memQuestions) ReplaceForJob(ctx context.Context, userID, jobID uuid.UUID, qs []model.Question) ([]model.Question, error) {
	if _, err := m.DeleteByJob(ctx, userID, jobID); err != nil {
		return nil, err
	}
	return m.CreateMany(ctx, qs)
}

func (m memQuestions) ProgressByJob(ctx context.Context, userID, jobID uuid.UUID) (*model.QuestionProgress, error) {
	qs, _ := m.FindByJob(ctx, userID, jobID, nil)
	var p model.QuestionProgress
	for _, q := range qs {
		done := 0
		if q.Status == model.QuestionCompleted {
			done = 1
		}
		switch q.Type {
		case model.QuestionTechnical:
			p.Technical.Total++
			p.Technical.Completed += done
		case model.QuestionBehavioral:
			p.Behavioral.Total++
			p.Behavioral.Completed += done
		}
		p.Overall.Total++
		p.Overall.Completed += done
	}
	return &p, nil
}

type memSessions struct {
	db *memDB
	// recordErr, when set, is returned by RecordAnswer
	recordErr error
}

func (m *memSessions) activeFor(userID, jobID uuid.UUID) *model.Session {
	for _, s := range m.db.sessions {
		if s.UserID == userID && s.JobID == jobID && s.Status == model.SessionActive {
			return s
		}
	}
	return nil
}

func (m *memSessions) Create(ctx context.Context, s *model.Session, fresh []model.Question) (*model.Session, []model.Question, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.activeFor(s.UserID, s.JobID) != nil {
		return nil, nil, repository.ErrActiveSessionExists
	}

	var stored []model.Question
	for _, q := range fresh {
		q := m.db.insertQuestion(q)
		stored = append(stored, q)
		s.QuestionIDs = append(s.QuestionIDs, q.QID)
	}

	cp := *s
	cp.SessionID = uuid.New()
	cp.Status = model.SessionActive
	cp.TotalQuestions = len(cp.QuestionIDs)
	cp.CreatedAt = m.db.tick()
	m.db.sessions[cp.SessionID] = &cp
	out := cp
	return &out, stored, nil
}

func (m *memSessions) get(userID, sessionID uuid.UUID) (*model.Session, error) {
	s, ok := m.db.sessions[sessionID]
	if !ok || s.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func (m *memSessions) GetByID(ctx context.Context, userID, sessionID uuid.UUID) (*model.Session, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	s, err := m.get(userID, sessionID)
	if err != nil {
		return nil, err
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) FindActive(ctx context.Context, userID, jobID uuid.UUID) (*model.Session, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	s := m.activeFor(userID, jobID)
	if s == nil {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []model.Session{}
	for _, s := range m.db.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (m *memSessions) UpdateStatus(ctx context.Context, userID, sessionID uuid.UUID, status model.SessionStatus) (*model.Session, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	s, err := m.get(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if status == model.SessionActive {
		if other := m.activeFor(userID, s.JobID); other != nil && other.SessionID != sessionID {
			return nil, repository.ErrActiveSessionExists
		}
	}
	s.Status = status
	cp := *s
	return &cp, nil
}

func (m *memSessions) SetCurrentIndex(ctx context.Context, userID, sessionID uuid.UUID, index int) (*model.Session, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	s, err := m.get(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if index >= s.TotalQuestions {
		return nil, repository.ErrNotFound
	}
	s.CurrentQuestionIndex = index
	cp := *s
	return &cp, nil
}

func (m *memSessions) RecordAnswer(ctx context.Context, userID uuid.UUID, a *model.SessionAnswer, position int) (*model.Session, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if m.recordErr != nil {
		return nil, m.recordErr
	}
	s, err := m.get(userID, a.SessionID)
	if err != nil || s.Status != model.SessionActive {
		return nil, repository.ErrNotFound
	}

	key := [2]uuid.UUID{a.SessionID, a.QuestionID}
	_, existed := m.db.answers[key]
	stored := *a
	stored.CreatedAt = m.db.tick()
	m.db.answers[key] = stored

	inc := 1
	if existed {
		inc = 0
	}
	answered := s.AnsweredQuestions + inc
	if s.CurrentQuestionIndex == position && position+1 < s.TotalQuestions {
		s.CurrentQuestionIndex = position + 1
	}
	if position+1 >= s.TotalQuestions || answered >= s.TotalQuestions {
		s.Status = model.SessionCompleted
	}
	if answered > s.TotalQuestions {
		answered = s.TotalQuestions
	}
	s.AnsweredQuestions = answered
	cp := *s
	return &cp, nil
}

func (m *memSessions) Answers(ctx context.Context, sessionID uuid.UUID) ([]model.SessionAnswer, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := []model.SessionAnswer{}
	for key, a := range m.db.answers {
		if key[0] == sessionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memSessions) Delete(ctx context.Context, userID, sessionID uuid.UUID) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if _, err := m.get(userID, sessionID); err != nil {
		return err
	}
	delete(m.db.sessions, sessionID)
	return nil
}

// prefixSealer marks answers instead of encrypting them.
type prefixSealer struct{}

func (prefixSealer) Encrypt(plain string) (string, error) { return "sealed:" + plain, nil }

type stubGrader struct {
	fb    model.Feedback
	calls int
	job   *model.JobContext
}

func (g *stubGrader) Grade(ctx context.Context, question, answer string, job *model.JobContext) model.Feedback {
	g.calls++
	g.job = job
	return g.fb
}

type stubFeedbackClient struct {
	fb  *model.Feedback
	err error
}

func (c stubFeedbackClient) AnswerFeedback(ctx context.Context, question, answer string, job *model.JobContext) (*model.Feedback, error) {
	return c.fb, c.err
}

type stubWriter struct {
	qs  []openai.GeneratedQuestion
	err error
}

func (w stubWriter) BehavioralQuestions(ctx context.Context, job *model.JobApplication, count int) ([]openai.GeneratedQuestion, error) {
	return w.qs, w.err
}

type stubProblems struct {
	byKeyword map[string][]fetcher.Problem
	err       error
	keywords  []string
}

func (p *stubProblems) SearchProblems(ctx context.Context, keyword string, limit int) ([]fetcher.Problem, error) {
	p.keywords = append(p.keywords, keyword)
	if p.err != nil {
		return nil, p.err
	}
	return p.byKeyword[keyword], nil
}

type stubPages struct {
	posting *fetcher.JobPosting
	err     error
}

func (p stubPages) FetchJobPage(ctx context.Context, pageURL string) (*fetcher.JobPosting, error) {
	return p.posting, p.err
}

type recordedEvent struct {
	event, room string
	data        any
}

type recordingPublisher struct{ events []recordedEvent }

func (p *recordingPublisher) Publish(event, room string, data any) {
	p.events = append(p.events, recordedEvent{event, room, data})
}

var errBoom = errors.New("boom")
