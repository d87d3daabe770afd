package repository

import (
	"context"
	"fmt"

	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type QuestionRepository struct {
	db DB
}

const questionCols = `q_id, user_id, job_id, "type", title, description, difficulty, tags, external_url, status, created_at, updated_at`

const insertQuestion = `
INSERT INTO questions (q_id, user_id, job_id, "type", title, description, difficulty, tags, external_url, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + questionCols

func scanQuestion(row rowScanner) (*model.Question, error) {
	var q model.Question
	err := row.Scan(
		&q.QID, &q.UserID, &q.JobID, &q.Type, &q.Title, &q.Description, &q.Difficulty,
		&q.Tags, &q.ExternalURL, &q.Status, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
	return &q, nil
}

func questionArgs(q *model.Question) []interface{} {
	if q.QID == uuid.Nil {
		q.QID = uuid.New()
	}
	if q.Status == "" {
		q.Status = model.QuestionPending
	}
	return []interface{}{
		q.QID, q.UserID, q.JobID, q.Type, q.Title, q.Description, q.Difficulty,
		nonNil(q.Tags), q.ExternalURL, q.Status,
	}
}

func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) (*model.Question, error) {
	created, err := scanQuestion(r.db.QueryRow(ctx, insertQuestion, questionArgs(q)...))
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	return created, nil
}

// CreateMany inserts all questions in one transaction; either all are
// stored or none.
func (r *QuestionRepository) CreateMany(ctx context.Context, questions []model.Question) ([]model.Question, error) {
	if len(questions) == 0 {
		return []model.Question{}, nil
	}

	var out []model.Question
	err := execTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		out, err = insertQuestions(ctx, tx, questions)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func insertQuestions(ctx context.Context, tx pgx.Tx, questions []model.Question) ([]model.Question, error) {
	batch := &pgx.Batch{}
	for i := range questions {
		batch.Queue(insertQuestion, questionArgs(&questions[i])...)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	out := make([]model.Question, 0, len(questions))
	for i := range questions {
		q, err := scanQuestion(br.QueryRow())
		if err != nil {
			return nil, fmt.Errorf("batch insert question %d: %w", i, err)
		}
		out = append(out, *q)
	}
	return out, nil
}

// FindByJob returns the job's questions newest first, optionally of one type.
func (r *QuestionRepository) FindByJob(ctx context.Context, userID, jobID uuid.UUID, qType *model.QuestionType) ([]model.Question, error) {
	q := `SELECT ` + questionCols + ` FROM questions WHERE job_id = $1 AND user_id = $2`
	args := []interface{}{jobID, userID}
	if qType != nil {
		q += ` AND "type" = $3`
		args = append(args, *qType)
	}
	q += ` ORDER BY created_at DESC, q_id`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	out := []model.Question{}
	for rows.Next() {
		qs, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, *qs)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}

func (r *QuestionRepository) FindByID(ctx context.Context, userID, questionID uuid.UUID) (*model.Question, error) {
	q := `SELECT ` + questionCols + ` FROM questions WHERE q_id = $1 AND user_id = $2`
	qs, err := scanQuestion(r.db.QueryRow(ctx, q, questionID, userID))
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return qs, nil
}

func (r *QuestionRepository) UpdateStatus(ctx context.Context, userID, questionID uuid.UUID, status model.QuestionStatus) (*model.Question, error) {
	q := `UPDATE questions SET status = $3, updated_at = now() WHERE q_id = $1 AND user_id = $2 RETURNING ` + questionCols
	qs, err := scanQuestion(r.db.QueryRow(ctx, q, questionID, userID, status))
	if err != nil {
		return nil, fmt.Errorf("update question status: %w", err)
	}
	return qs, nil
}

func (r *QuestionRepository) DeleteByJob(ctx context.Context, userID, jobID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM questions WHERE job_id = $1 AND user_id = $2`, jobID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete questions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ReplaceForJob deletes the job's questions and stores the new set in one
// transaction.
func (r *QuestionRepository) ReplaceForJob(ctx context.Context, userID, jobID uuid.UUID, questions []model.Question) ([]model.Question, error) {
	var out []model.Question
	err := execTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE job_id = $1 AND user_id = $2`, jobID, userID); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		if len(questions) == 0 {
			out = []model.Question{}
			return nil
		}
		var err error
		out, err = insertQuestions(ctx, tx, questions)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ProgressByJob counts the job's questions per type, and the completed ones.
func (r *QuestionRepository) ProgressByJob(ctx context.Context, userID, jobID uuid.UUID) (*model.QuestionProgress, error) {
	const q = `
SELECT "type", COUNT(1), COUNT(1) FILTER (WHERE status = 'completed')
FROM questions
WHERE job_id = $1 AND user_id = $2
GROUP BY "type"`
	rows, err := r.db.Query(ctx, q, jobID, userID)
	if err != nil {
		return nil, fmt.Errorf("query question progress: %w", err)
	}
	defer rows.Close()

	var p model.QuestionProgress
	for rows.Next() {
		var qType model.QuestionType
		var total, completed int
		if err := rows.Scan(&qType, &total, &completed); err != nil {
			return nil, fmt.Errorf("scan question progress: %w", err)
		}
		switch qType {
		case model.QuestionTechnical:
			p.Technical = model.ProgressCount{Total: total, Completed: completed}
		case model.QuestionBehavioral:
			p.Behavioral = model.ProgressCount{Total: total, Completed: completed}
		}
		p.Overall.Total += total
		p.Overall.Completed += completed
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return &p, nil
}
