// Package pgerrs maps postgres failures onto the domain error taxonomy.
package pgerrs

import (
	"errors"

	"github.com/bharathakku/delivery-backend/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// Translate turns a unique violation into errs.ConflictError and a missing row
// into errs.ObjectNotFoundError. Other errors pass through.
func Translate(err error, paramName string, id any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NewObjectNotFoundErrorWithCause(paramName, id, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errs.NewConflictError(paramName, id, 0)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.NewConflictError(paramName, id, 0)
	}
	return err
}
