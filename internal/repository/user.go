package repository

import (
	"context"
	"fmt"

	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/google/uuid"
)

// UserRepository is the concrete implementation for users.
type UserRepository struct {
	db DB
}

const userCols = `user_id, google_id, email, name, profile_picture, created_at, updated_at`

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.UserID, &u.GoogleID, &u.Email, &u.Name, &u.ProfilePicture, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Create inserts a new user. A second account for the same Google identity
// or email is ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *model.User) (*model.User, error) {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	q := `
INSERT INTO users (user_id, google_id, email, name, profile_picture)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userCols
	created, err := scanUser(r.db.QueryRow(ctx, q, u.UserID, u.GoogleID, u.Email, u.Name, u.ProfilePicture))
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

// Upsert creates the user or refreshes its profile fields.
func (r *UserRepository) Upsert(ctx context.Context, u *model.User) (*model.User, error) {
	q := `
INSERT INTO users (user_id, google_id, email, name, profile_picture)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE
SET email = EXCLUDED.email, name = EXCLUDED.name, updated_at = now()
RETURNING ` + userCols
	out, err := scanUser(r.db.QueryRow(ctx, q, u.UserID, u.GoogleID, u.Email, u.Name, u.ProfilePicture))
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return out, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	q := `SELECT ` + userCols + ` FROM users WHERE user_id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	q := `SELECT ` + userCols + ` FROM users WHERE google_id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, q, googleID))
	if err != nil {
		return nil, fmt.Errorf("get user by google id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name, picture *string) (*model.User, error) {
	q := `
UPDATE users
SET name = COALESCE($2, name), profile_picture = COALESCE($3, profile_picture), updated_at = now()
WHERE user_id = $1
RETURNING ` + userCols
	u, err := scanUser(r.db.QueryRow(ctx, q, id, name, picture))
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// Delete removes the user; jobs, questions, sessions and discussions go
// with it through foreign keys.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
