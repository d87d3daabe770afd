package repository

import (
	"context"
	"fmt"

	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type DiscussionRepository struct {
	db DB
}

const discussionCols = `discussion_id, user_id, user_name, topic, description, message_count, created_at, updated_at`

const messageCols = `message_id, discussion_id, user_id, user_name, content, created_at`

func scanDiscussion(row rowScanner) (*model.Discussion, error) {
	var d model.Discussion
	err := row.Scan(&d.DiscussionID, &d.UserID, &d.UserName, &d.Topic, &d.Description, &d.MessageCount, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func scanMessage(row rowScanner) (*model.Message, error) {
	var m model.Message
	if err := row.Scan(&m.MessageID, &m.DiscussionID, &m.UserID, &m.UserName, &m.Content, &m.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *DiscussionRepository) Create(ctx context.Context, d *model.Discussion) (*model.Discussion, error) {
	if d.DiscussionID == uuid.Nil {
		d.DiscussionID = uuid.New()
	}
	q := `
INSERT INTO discussions (discussion_id, user_id, user_name, topic, description)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + discussionCols
	created, err := scanDiscussion(r.db.QueryRow(ctx, q, d.DiscussionID, d.UserID, d.UserName, d.Topic, d.Description))
	if err != nil {
		return nil, fmt.Errorf("insert discussion: %w", err)
	}
	return created, nil
}

// List returns one page of all discussions, most recently active first.
func (r *DiscussionRepository) List(ctx context.Context, limit, offset int, search string) ([]model.Discussion, int, error) {
	where := ""
	args := []interface{}{}
	if search != "" {
		args = append(args, "%"+search+"%")
		where = ` WHERE topic ILIKE $1 OR description ILIKE $1`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(1) FROM discussions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count discussions: %w", err)
	}

	q := `SELECT ` + discussionCols + ` FROM discussions` + where +
		fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	out, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *DiscussionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Discussion, error) {
	q := `SELECT ` + discussionCols + ` FROM discussions WHERE user_id = $1 ORDER BY created_at DESC`
	return r.query(ctx, q, userID)
}

func (r *DiscussionRepository) query(ctx context.Context, q string, args ...interface{}) ([]model.Discussion, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query discussions: %w", err)
	}
	defer rows.Close()

	out := []model.Discussion{}
	for rows.Next() {
		d, err := scanDiscussion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan discussion: %w", err)
		}
		out = append(out, *d)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return out, nil
}

// GetByID returns the discussion with its messages, oldest first.
func (r *DiscussionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Discussion, error) {
	d, err := scanDiscussion(r.db.QueryRow(ctx, `SELECT `+discussionCols+` FROM discussions WHERE discussion_id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get discussion: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT `+messageCols+` FROM discussion_messages WHERE discussion_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	d.Messages = []model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		d.Messages = append(d.Messages, *m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}
	return d, nil
}

// AddMessage stores the message and bumps the discussion's counter. A
// missing discussion is ErrNotFound.
func (r *DiscussionRepository) AddMessage(ctx context.Context, m *model.Message) (*model.Message, error) {
	if m.MessageID == uuid.Nil {
		m.MessageID = uuid.New()
	}

	var created *model.Message
	err := execTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE discussions SET message_count = message_count + 1, updated_at = now() WHERE discussion_id = $1`,
			m.DiscussionID)
		if err != nil {
			return fmt.Errorf("bump message count: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		q := `
INSERT INTO discussion_messages (message_id, discussion_id, user_id, user_name, content)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + messageCols
		created, err = scanMessage(tx.QueryRow(ctx, q, m.MessageID, m.DiscussionID, m.UserID, m.UserName, m.Content))
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
