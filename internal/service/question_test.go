package service

import (
	"context"
	"strings"
	"testing"

	"github.com/eqzhou81/CPEN-321-sub000/internal/apperr"
	"github.com/eqzhou81/CPEN-321-sub000/internal/fetcher"
	"github.com/eqzhou81/CPEN-321-sub000/internal/openai"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

func TestValidateQuestion(t *testing.T) {
	userID := uuid.New()
	jobID := uuid.New().String()

	tests := []struct {
		name    string
		req     model.CreateQuestionReq
		wantErr string
	}{
		{
			name:    "missing job",
			req:     model.CreateQuestionReq{Type: "technical", Title: "Two Sum"},
			wantErr: "jobId is required",
		},
		{
			name:    "malformed job id",
			req:     model.CreateQuestionReq{JobID: "job-1", Type: "technical", Title: "Two Sum"},
			wantErr: "jobId must be a valid id",
		},
		{
			name:    "unknown type",
			req:     model.CreateQuestionReq{JobID: jobID, Type: "trivia", Title: "Two Sum"},
			wantErr: "type must be one of behavioral, technical",
		},
		{
			name:    "blank title",
			req:     model.CreateQuestionReq{JobID: jobID, Type: "technical", Title: "   "},
			wantErr: "title is required",
		},
		{
			name:    "long title",
			req:     model.CreateQuestionReq{JobID: jobID, Type: "technical", Title: strings.Repeat("x", 201)},
			wantErr: "title must be at most 200 characters",
		},
		{
			name:    "behavioral without description",
			req:     model.CreateQuestionReq{JobID: jobID, Type: "behavioral", Title: "Conflict", Description: strPtr("  ")},
			wantErr: "description is required for behavioral questions",
		},
		{
			name:    "bad difficulty",
			req:     model.CreateQuestionReq{JobID: jobID, Type: "technical", Title: "Two Sum", Difficulty: strPtr("extreme")},
			wantErr: "difficulty must be one of easy, medium, hard",
		},
		{
			name:    "relative url",
			req:     model.CreateQuestionReq{JobID: jobID, Type: "technical", Title: "Two Sum", ExternalURL: strPtr("/problems/two-sum")},
			wantErr: "externalUrl must be an absolute URL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateQuestion(userID, &tt.req)
			requireKind(t, err, apperr.KindValidation, tt.wantErr)
		})
	}

	t.Run("valid technical question", func(t *testing.T) {
		q, err := validateQuestion(userID, &model.CreateQuestionReq{
			JobID:       jobID,
			Type:        "technical",
			Title:       "  Two Sum ",
			Difficulty:  strPtr("Easy"),
			ExternalURL: strPtr("https://leetcode.com/problems/two-sum/"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Two Sum", q.Title)
		assert.Equal(t, model.QuestionPending, q.Status)
		assert.Equal(t, []string{}, q.Tags)
		require.NotNil(t, q.Difficulty)
		assert.Equal(t, model.DifficultyEasy, *q.Difficulty)
		assert.Nil(t, q.Description)
	})

	t.Run("title of 200 multibyte characters", func(t *testing.T) {
		_, err := validateQuestion(userID, &model.CreateQuestionReq{
			JobID: jobID, Type: "technical", Title: strings.Repeat("题", 200),
		})
		assert.NoError(t, err)
	})
}

func newQuestionFixture(t *testing.T, writer QuestionWriter, problems ProblemFinder) (*memDB, *QuestionService, uuid.UUID, *model.JobApplication) {
	t.Helper()
	db := newMemDB()
	userID := uuid.New()
	job := db.addJob(userID, "Backend Engineer", "Acme")
	svc := NewQuestionService(memQuestions{db: db}, memJobs{db: db}, writer, problems, 3, zap.NewNop())
	return db, svc, userID, job
}

func TestQuestionService_Create(t *testing.T) {
	ctx := context.Background()
	_, svc, userID, job := newQuestionFixture(t, stubWriter{}, &stubProblems{})

	t.Run("stores question", func(t *testing.T) {
		q, err := svc.Create(ctx, userID, &model.CreateQuestionReq{
			JobID:       job.JobID.String(),
			Type:        "behavioral",
			Title:       "Conflict",
			Description: strPtr("Tell me about a conflict."),
			Tags:        []string{" teamwork ", ""},
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, q.QID)
		assert.Equal(t, []string{"teamwork"}, q.Tags)

		got, err := svc.FindByID(ctx, userID, q.QID)
		require.NoError(t, err)
		assert.Equal(t, "Conflict", got.Title)
	})

	t.Run("unknown job", func(t *testing.T) {
		_, err := svc.Create(ctx, userID, &model.CreateQuestionReq{
			JobID: uuid.New().String(), Type: "technical", Title: "Two Sum",
		})
		requireKind(t, err, apperr.KindNotFound, "Job not found")
	})
}

func TestQuestionService_CreateMany(t *testing.T) {
	ctx := context.Background()
	db, svc, userID, job := newQuestionFixture(t, stubWriter{}, &stubProblems{})

	t.Run("one invalid item stores nothing", func(t *testing.T) {
		_, err := svc.CreateMany(ctx, userID, job.JobID, []model.CreateQuestionReq{
			{Type: "technical", Title: "Two Sum"},
			{Type: "behavioral", Title: "Conflict"},
		})
		requireKind(t, err, apperr.KindValidation, "question 2: description is required for behavioral questions")
		assert.Empty(t, db.questions)
	})

	t.Run("stores all items under the job", func(t *testing.T) {
		created, err := svc.CreateMany(ctx, userID, job.JobID, []model.CreateQuestionReq{
			{Type: "technical", Title: "Two Sum"},
			{Type: "behavioral", Title: "Conflict", Description: strPtr("A conflict.")},
		})
		require.NoError(t, err)
		require.Len(t, created, 2)
		for _, q := range created {
			assert.Equal(t, job.JobID, q.JobID)
		}

		technical := model.QuestionTechnical
		qs, err := svc.FindByJobAndType(ctx, userID, job.JobID, &technical)
		require.NoError(t, err)
		require.Len(t, qs, 1)
		assert.Equal(t, "Two Sum", qs[0].Title)

		p, err := svc.GetProgressByJob(ctx, userID, job.JobID)
		require.NoError(t, err)
		assert.Equal(t, 2, p.Overall.Total)
		assert.Equal(t, 0, p.Overall.Completed)
	})

	t.Run("unknown job", func(t *testing.T) {
		_, err := svc.CreateMany(ctx, userID, uuid.New(), []model.CreateQuestionReq{
			{Type: "technical", Title: "LRU Cache"},
		})
		requireKind(t, err, apperr.KindNotFound, "Job not found")
	})

	t.Run("empty input", func(t *testing.T) {
		created, err := svc.CreateMany(ctx, userID, job.JobID, nil)
		require.NoError(t, err)
		assert.Empty(t, created)
	})
}

func TestQuestionService_Generate(t *testing.T) {
	ctx := context.Background()
	behavioral := []openai.GeneratedQuestion{
		{Title: "Leadership", Description: "Describe leading a team.", Tags: []string{"leadership"}},
		{Title: "Failure", Description: "Describe a failure."},
	}

	t.Run("replaces questions with both kinds", func(t *testing.T) {
		problems := &stubProblems{byKeyword: map[string][]fetcher.Problem{
			"golang": {
				{Title: "Two Sum", Slug: "two-sum", Difficulty: "easy", URL: "https://leetcode.com/problems/two-sum/"},
				{Title: "LRU Cache", Slug: "lru-cache", Difficulty: "medium", URL: "https://leetcode.com/problems/lru-cache/"},
			},
			"redis": {
				{Title: "Two Sum", Slug: "two-sum", Difficulty: "easy", URL: "https://leetcode.com/problems/two-sum/"},
				{Title: "Design Cache", Slug: "design-cache", Difficulty: "hard", URL: "https://leetcode.com/problems/design-cache/"},
				{Title: "Extra", Slug: "extra", Difficulty: "easy", URL: "https://leetcode.com/problems/extra/"},
			},
		}}
		db, svc, userID, job := newQuestionFixture(t, stubWriter{qs: behavioral}, problems)
		db.jobs[job.JobID].Skills = []string{"Golang", "redis"}
		old := db.addQuestion(userID, job.JobID, model.QuestionBehavioral, "Old")

		qs, err := svc.Generate(ctx, userID, job.JobID, nil)
		require.NoError(t, err)

		var titles []string
		technical := 0
		for _, q := range qs {
			titles = append(titles, q.Title)
			if q.Type == model.QuestionTechnical {
				technical++
				require.NotNil(t, q.ExternalURL)
				require.NotNil(t, q.Difficulty)
			}
		}
		assert.Equal(t, 3, technical)
		assert.ElementsMatch(t, []string{"Leadership", "Failure", "Two Sum", "LRU Cache", "Design Cache"}, titles)
		assert.Equal(t, []string{"golang", "redis"}, problems.keywords)
		assert.NotContains(t, db.questions, old.QID)
	})

	t.Run("behavioral only", func(t *testing.T) {
		problems := &stubProblems{}
		_, svc, userID, job := newQuestionFixture(t, stubWriter{qs: behavioral}, problems)

		qs, err := svc.Generate(ctx, userID, job.JobID, []string{"behavioral"})
		require.NoError(t, err)
		assert.Len(t, qs, 2)
		assert.Empty(t, problems.keywords)
	})

	t.Run("falls back to a default keyword", func(t *testing.T) {
		problems := &stubProblems{}
		db, svc, userID, job := newQuestionFixture(t, stubWriter{}, problems)
		db.jobs[job.JobID].Title = "Office Manager"

		_, err := svc.Generate(ctx, userID, job.JobID, []string{"technical"})
		require.NoError(t, err)
		assert.Equal(t, []string{"array"}, problems.keywords)
	})

	t.Run("model failure", func(t *testing.T) {
		db, svc, userID, job := newQuestionFixture(t, stubWriter{err: errBoom}, &stubProblems{})
		old := db.addQuestion(userID, job.JobID, model.QuestionBehavioral, "Old")

		_, err := svc.Generate(ctx, userID, job.JobID, nil)
		requireKind(t, err, apperr.KindUpstream, "Failed to generate behavioral questions")
		assert.Contains(t, db.questions, old.QID)
	})

	t.Run("every problem search failed", func(t *testing.T) {
		_, svc, userID, job := newQuestionFixture(t, stubWriter{}, &stubProblems{err: errBoom})

		_, err := svc.Generate(ctx, userID, job.JobID, []string{"technical"})
		requireKind(t, err, apperr.KindUpstream, "")
	})

	t.Run("unknown job", func(t *testing.T) {
		_, svc, userID, _ := newQuestionFixture(t, stubWriter{}, &stubProblems{})
		_, err := svc.Generate(ctx, userID, uuid.New(), nil)
		requireKind(t, err, apperr.KindNotFound, "Job not found")
	})
}

func TestQuestionService_StatusAndDelete(t *testing.T) {
	ctx := context.Background()
	db, svc, userID, job := newQuestionFixture(t, stubWriter{}, &stubProblems{})
	q := db.addQuestion(userID, job.JobID, model.QuestionTechnical, "Two Sum")
	db.addQuestion(userID, job.JobID, model.QuestionBehavioral, "Conflict")

	updated, err := svc.UpdateStatus(ctx, userID, q.QID, model.QuestionCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.QuestionCompleted, updated.Status)

	p, err := svc.GetProgressByJob(ctx, userID, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.ProgressCount{Total: 1, Completed: 1}, p.Technical)
	assert.Equal(t, model.ProgressCount{Total: 1, Completed: 0}, p.Behavioral)

	_, err = svc.UpdateStatus(ctx, uuid.New(), q.QID, model.QuestionSkipped)
	requireKind(t, err, apperr.KindNotFound, "Question not found")

	n, err := svc.DeleteByJobID(ctx, userID, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	qs, err := svc.FindByJobID(ctx, userID, job.JobID)
	require.NoError(t, err)
	assert.Empty(t, qs)
}
