package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SessionRepository struct {
	db DB
}

const sessionCols = `session_id, user_id, job_id, question_ids, current_question_index, status,
	total_questions, answered_questions, created_at, updated_at`

const activeSessionIndex = "sessions_one_active_idx"

func scanSession(row rowScanner) (*model.Session, error) {
	var s model.Session
	err := row.Scan(
		&s.SessionID, &s.UserID, &s.JobID, &s.QuestionIDs, &s.CurrentQuestionIndex, &s.Status,
		&s.TotalQuestions, &s.AnsweredQuestions, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// Create stores fresh questions and then the session in one transaction.
// The partial unique index on active sessions decides the race between two
// concurrent creations: the loser gets ErrActiveSessionExists and its
// questions are rolled back.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session, fresh []model.Question) (*model.Session, []model.Question, error) {
	if s.SessionID == uuid.Nil {
		s.SessionID = uuid.New()
	}

	var created *model.Session
	var stored []model.Question
	err := execTx(ctx, r.db, func(tx pgx.Tx) error {
		if len(fresh) > 0 {
			var err error
			stored, err = insertQuestions(ctx, tx, fresh)
			if err != nil {
				return err
			}
			for _, q := range stored {
				s.QuestionIDs = append(s.QuestionIDs, q.QID)
			}
		}
		s.TotalQuestions = len(s.QuestionIDs)

		q := `
INSERT INTO sessions (session_id, user_id, job_id, question_ids, current_question_index, status, total_questions, answered_questions)
VALUES ($1, $2, $3, $4, 0, 'active', $5, 0)
ON CONFLICT (user_id, job_id) WHERE status = 'active' DO NOTHING
RETURNING ` + sessionCols
		var err error
		created, err = scanSession(tx.QueryRow(ctx, q, s.SessionID, s.UserID, s.JobID, s.QuestionIDs, s.TotalQuestions))
		if errors.Is(err, ErrNotFound) {
			return ErrActiveSessionExists
		}
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return created, stored, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, userID, sessionID uuid.UUID) (*model.Session, error) {
	q := `SELECT ` + sessionCols + ` FROM sessions WHERE session_id = $1 AND user_id = $2`
	s, err := scanSession(r.db.QueryRow(ctx, q, sessionID, userID))
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// FindActive returns the active session for (user, job), ErrNotFound if none.
func (r *SessionRepository) FindActive(ctx context.Context, userID, jobID uuid.UUID) (*model.Session, error) {
	q := `SELECT ` + sessionCols + ` FROM sessions WHERE user_id = $1 AND job_id = $2 AND status = 'active'`
	s, err := scanSession(r.db.QueryRow(ctx, q, userID, jobID))
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	q := `SELECT ` + sessionCols + ` FROM sessions WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := []model.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, *s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}

// UpdateStatus sets the status. Reactivating while another session of the
// same job is active is ErrActiveSessionExists.
func (r *SessionRepository) UpdateStatus(ctx context.Context, userID, sessionID uuid.UUID, status model.SessionStatus) (*model.Session, error) {
	q := `UPDATE sessions SET status = $3, updated_at = now() WHERE session_id = $1 AND user_id = $2 RETURNING ` + sessionCols
	s, err := scanSession(r.db.QueryRow(ctx, q, sessionID, userID, status))
	if err != nil {
		if isUniqueViolation(err, activeSessionIndex) {
			return nil, ErrActiveSessionExists
		}
		return nil, fmt.Errorf("update session status: %w", err)
	}
	return s, nil
}

// SetCurrentIndex moves the session to index, which must already be known
// to be in range.
func (r *SessionRepository) SetCurrentIndex(ctx context.Context, userID, sessionID uuid.UUID, index int) (*model.Session, error) {
	q := `UPDATE sessions SET current_question_index = $3, updated_at = now()
WHERE session_id = $1 AND user_id = $2 AND $3 < total_questions
RETURNING ` + sessionCols
	s, err := scanSession(r.db.QueryRow(ctx, q, sessionID, userID, index))
	if err != nil {
		return nil, fmt.Errorf("set session index: %w", err)
	}
	return s, nil
}

// RecordAnswer stores the answer for the question at position and advances
// the session's progress in one transaction. answeredQuestions only grows
// for a question not answered before; answering the last position or the
// last unanswered question completes the session. The update only applies
// to an active session, otherwise ErrNotFound.
func (r *SessionRepository) RecordAnswer(ctx context.Context, userID uuid.UUID, a *model.SessionAnswer, position int) (*model.Session, error) {
	var updated *model.Session
	err := execTx(ctx, r.db, func(tx pgx.Tx) error {
		var inserted bool
		err := tx.QueryRow(ctx, `
INSERT INTO session_answers (session_id, question_id, answer, feedback)
VALUES ($1, $2, $3, $4)
ON CONFLICT (session_id, question_id) DO UPDATE
SET answer = EXCLUDED.answer, feedback = EXCLUDED.feedback, created_at = now()
RETURNING (xmax = 0)`,
			a.SessionID, a.QuestionID, a.Answer, a.Feedback,
		).Scan(&inserted)
		if err != nil {
			return fmt.Errorf("upsert answer: %w", err)
		}

		inc := 0
		if inserted {
			inc = 1
		}
		q := `
UPDATE sessions SET
	answered_questions = LEAST(answered_questions + $3, total_questions),
	current_question_index = CASE
		WHEN current_question_index = $4 AND $4 + 1 < total_questions THEN $4 + 1
		ELSE current_question_index END,
	status = CASE
		WHEN $4 + 1 >= total_questions OR answered_questions + $3 >= total_questions THEN 'completed'
		ELSE status END,
	updated_at = now()
WHERE session_id = $1 AND user_id = $2 AND status = 'active'
RETURNING ` + sessionCols
		updated, err = scanSession(tx.QueryRow(ctx, q, a.SessionID, userID, inc, position))
		if err != nil {
			return fmt.Errorf("update session progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Answers returns the stored answers of a session, oldest first.
func (r *SessionRepository) Answers(ctx context.Context, sessionID uuid.UUID) ([]model.SessionAnswer, error) {
	rows, err := r.db.Query(ctx, `
SELECT session_id, question_id, answer, feedback, created_at
FROM session_answers WHERE session_id = $1 ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	out := []model.SessionAnswer{}
	for rows.Next() {
		var a model.SessionAnswer
		if err := rows.Scan(&a.SessionID, &a.QuestionID, &a.Answer, &a.Feedback, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SessionRepository) Delete(ctx context.Context, userID, sessionID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE session_id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
