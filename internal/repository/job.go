package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type JobRepository struct {
	db DB
}

const jobCols = `job_id, user_id, title, company, description, location, url, requirements, skills,
	salary, job_type, experience_level, application_status, date_applied, created_at, updated_at`

func scanJob(row rowScanner) (*model.JobApplication, error) {
	var j model.JobApplication
	err := row.Scan(
		&j.JobID, &j.UserID, &j.Title, &j.Company, &j.Description, &j.Location, &j.URL,
		&j.Requirements, &j.Skills, &j.Salary, &j.JobType, &j.ExperienceLevel,
		&j.ApplicationStatus, &j.DateApplied, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	if j.Requirements == nil {
		j.Requirements = []string{}
	}
	if j.Skills == nil {
		j.Skills = []string{}
	}
	return &j, nil
}

func (r *JobRepository) Create(ctx context.Context, j *model.JobApplication) (*model.JobApplication, error) {
	if j.JobID == uuid.Nil {
		j.JobID = uuid.New()
	}
	q := `
INSERT INTO jobs (
	job_id, user_id, title, company, description, location, url, requirements, skills,
	salary, job_type, experience_level, application_status, date_applied
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING ` + jobCols
	created, err := scanJob(r.db.QueryRow(ctx, q,
		j.JobID, j.UserID, j.Title, j.Company, j.Description, j.Location, j.URL,
		nonNil(j.Requirements), nonNil(j.Skills), j.Salary, j.JobType, j.ExperienceLevel,
		j.ApplicationStatus, j.DateApplied,
	))
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return created, nil
}

func (r *JobRepository) GetByID(ctx context.Context, userID, jobID uuid.UUID) (*model.JobApplication, error) {
	q := `SELECT ` + jobCols + ` FROM jobs WHERE job_id = $1 AND user_id = $2`
	j, err := scanJob(r.db.QueryRow(ctx, q, jobID, userID))
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

// List returns one page of the user's jobs, newest first, with the total
// matching count. search matches title, company and description.
func (r *JobRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int, search string, status string) ([]model.JobApplication, int, error) {
	where := ` WHERE user_id = $1`
	args := []interface{}{userID}
	if search != "" {
		args = append(args, "%"+search+"%")
		where += fmt.Sprintf(" AND (title ILIKE $%d OR company ILIKE $%d OR description ILIKE $%d)", len(args), len(args), len(args))
	}
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND application_status = $%d", len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(1) FROM jobs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	q := `SELECT ` + jobCols + ` FROM jobs` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	out, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListAll returns every job of the user, newest first.
func (r *JobRepository) ListAll(ctx context.Context, userID uuid.UUID) ([]model.JobApplication, error) {
	q := `SELECT ` + jobCols + ` FROM jobs WHERE user_id = $1 ORDER BY created_at DESC`
	return r.query(ctx, q, userID)
}

func (r *JobRepository) query(ctx context.Context, q string, args ...interface{}) ([]model.JobApplication, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	out := []model.JobApplication{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		out = append(out, *j)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}

// Update applies updates (column -> value) to the job. Unknown columns are
// ignored.
func (r *JobRepository) Update(ctx context.Context, userID, jobID uuid.UUID, updates map[string]interface{}) (*model.JobApplication, error) {
	validCols := map[string]bool{
		"title": true, "company": true, "description": true, "location": true,
		"url": true, "requirements": true, "skills": true, "salary": true,
		"job_type": true, "experience_level": true, "application_status": true,
		"date_applied": true,
	}

	cols := make([]string, 0, len(updates))
	for col := range updates {
		if validCols[col] {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		return r.GetByID(ctx, userID, jobID)
	}
	// stable placeholder order keeps the statement cacheable
	sort.Strings(cols)

	query := "UPDATE jobs SET "
	args := []interface{}{}
	for i, col := range cols {
		query += fmt.Sprintf("%s = $%d, ", col, i+1)
		args = append(args, updates[col])
	}
	query += "updated_at = now()"
	query += fmt.Sprintf(" WHERE job_id = $%d AND user_id = $%d RETURNING %s", len(args)+1, len(args)+2, jobCols)
	args = append(args, jobID, userID)

	j, err := scanJob(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	return j, nil
}

// Delete removes the job together with its sessions and questions.
func (r *JobRepository) Delete(ctx context.Context, userID, jobID uuid.UUID) error {
	return execTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE job_id = $1 AND user_id = $2`, jobID, userID); err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE job_id = $1 AND user_id = $2`, jobID, userID); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM jobs WHERE job_id = $1 AND user_id = $2`, jobID, userID)
		if err != nil {
			return fmt.Errorf("delete job: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CountByStatus returns the number of jobs per application status.
func (r *JobRepository) CountByStatus(ctx context.Context, userID uuid.UUID) (map[model.ApplicationStatus]int, error) {
	rows, err := r.db.Query(ctx, `
SELECT application_status, COUNT(1) FROM jobs WHERE user_id = $1 GROUP BY application_status`, userID)
	if err != nil {
		return nil, fmt.Errorf("count jobs by status: %w", err)
	}
	defer rows.Close()

	out := map[model.ApplicationStatus]int{}
	for rows.Next() {
		var status model.ApplicationStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}

// CountCreatedBetween counts jobs created in [from, to).
func (r *JobRepository) CountCreatedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(1) FROM jobs WHERE user_id = $1 AND created_at >= $2 AND created_at < $3`,
		userID, from, to,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count jobs in range: %w", err)
	}
	return n, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
