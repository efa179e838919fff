package models

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrCredential = errors.New("credential error")
)

var (
	ErrSelfFollow      = fmt.Errorf("%w: cannot follow yourself", ErrValidation)
	ErrUsernameTaken   = fmt.Errorf("%w: username already taken", ErrValidation)
	ErrEmailTaken      = fmt.Errorf("%w: email already registered", ErrValidation)
	ErrDuplicate       = fmt.Errorf("%w: duplicate record", ErrValidation)
	ErrInvalidPost     = fmt.Errorf("%w: invalid post", ErrValidation)
	ErrInvalidUser     = fmt.Errorf("%w: invalid user", ErrValidation)
	ErrPasswordTooLong = fmt.Errorf("%w: password too long", ErrValidation)
	ErrUserNotFound    = fmt.Errorf("%w: user", ErrNotFound)
)

// ValidationErrors carries per-field messages in the same shape the handlers
// return them.
type ValidationErrors struct {
	Kind   error
	Fields map[string]string
}

func (e *ValidationErrors) Error() string {
	return fmt.Sprintf("%v (%d fields)", e.Kind, len(e.Fields))
}

func (e *ValidationErrors) Unwrap() error {
	return e.Kind
}

func newValidationErrors(kind error, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationErrors{Kind: kind, Fields: fields}
}

// isUniqueViolation recognizes duplicate-key failures from both drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// translateUserLookup maps a missing row to ErrUserNotFound and leaves every
// other store error untouched.
func translateUserLookup(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
