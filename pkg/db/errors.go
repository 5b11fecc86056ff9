package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint failure on
// Postgres or SQLite. A non-empty constraint must match too, except for
// gorm.ErrDuplicatedKey, which no longer carries the constraint name.
func IsUniqueViolation(err error, constraint string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return true
	}
	if pg, ok := pkgerrors.PostgresFields(err); ok {
		return pg.Code == pgUniqueViolation && (constraint == "" || pg.Constraint == constraint)
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") && !strings.Contains(msg, "duplicate key value") {
		return false
	}
	return constraint == "" || strings.Contains(msg, constraint)
}

// IsNotFound reports whether err is GORM's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// MapError translates repository failures into API error codes: missing rows
// become NOT_FOUND, unique violations CONFLICT, anything else
// DEPENDENCY_ERROR. Errors that already carry a code pass through.
func MapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	switch {
	case IsNotFound(err):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, entity+" not found")
	case IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, entity+" already exists")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database error")
	}
}
