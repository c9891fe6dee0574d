package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	invalidTextCode         = "22P02"
)

var (
	// ErrNotFound means no visible row matched.
	ErrNotFound = errors.New("record not found")
	// ErrConflict wraps unique constraint violations.
	ErrConflict = errors.New("record conflicts with existing data")
	// ErrReferenceMissing wraps foreign key violations.
	ErrReferenceMissing = errors.New("referenced record does not exist")
	// ErrInvalidValue wraps check constraint violations and values the
	// column type cannot parse.
	ErrInvalidValue = errors.New("value rejected by constraint")
	// ErrStaleStatus is returned when a compare-and-set on employee status
	// finds the row no longer holds the expected status.
	ErrStaleStatus = errors.New("employee status changed concurrently")
)

// ConstraintError carries the violated constraint alongside a sentinel.
type ConstraintError struct {
	Kind       error
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%v (%s)", e.Kind, e.Constraint)
}

func (e *ConstraintError) Is(target error) bool {
	return target == e.Kind
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// Constraint returns the violated constraint name, if err carries one.
func Constraint(err error) string {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Constraint
	}
	return ""
}

func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case uniqueViolationCode:
		return &ConstraintError{Kind: ErrConflict, Constraint: pgErr.ConstraintName, Err: err}
	case foreignKeyViolationCode:
		return &ConstraintError{Kind: ErrReferenceMissing, Constraint: pgErr.ConstraintName, Err: err}
	case checkViolationCode:
		return &ConstraintError{Kind: ErrInvalidValue, Constraint: pgErr.ConstraintName, Err: err}
	case invalidTextCode:
		return &ConstraintError{Kind: ErrInvalidValue, Constraint: pgErr.ColumnName, Err: err}
	}
	return err
}
