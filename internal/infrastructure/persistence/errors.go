package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/voucherdesk/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// PostgreSQL error codes the repositories react to
const (
	pgLockNotAvailable = "55P03"
	pgUniqueViolation  = "23505"
)

// IsLockNotAvailable reports whether err is PostgreSQL refusing a NOWAIT lock
func IsLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable
}

// IsUniqueViolation reports whether err is a unique constraint failure
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// translate maps driver errors onto domain errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case IsLockNotAvailable(err):
		return shared.ErrBusy
	case IsUniqueViolation(err):
		return shared.ErrAlreadyExists
	}
	return err
}
