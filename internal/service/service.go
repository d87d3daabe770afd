// Package service holds the business rules behind the HTTP handlers. Each
// service declares the small storage and upstream interfaces it needs.
package service

import (
	"context"
	"errors"

	"github.com/eqzhou81/CPEN-321-sub000/internal/apperr"
	"github.com/eqzhou81/CPEN-321-sub000/internal/repository"
	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
	"github.com/google/uuid"
)

// JobReader loads one job of a user.
type JobReader interface {
	GetByID(ctx context.Context, userID, jobID uuid.UUID) (*model.JobApplication, error)
}

// storeErr classifies a repository error: a missing row becomes a
// NotFoundError for what, anything else a PersistenceError.
func storeErr(err error, what, action string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(what)
	}
	return apperr.Persistence("Failed to "+action, err)
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation("%s must be a valid id", field)
	}
	return id, nil
}
