package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "duplicate key value violates unique constraint"): // postgres 23505
		return true
	case strings.Contains(msg, "Error 1062"): // mysql
		return true
	case strings.Contains(msg, "UNIQUE constraint failed"): // sqlite 2067
		return true
	default:
		return false
	}
}

// IsUniqueViolationOn reports whether err is a unique violation naming the
// given column or constraint. Drivers differ in what they report: postgres
// names the constraint, sqlite names table.column, mysql names the key.
func IsUniqueViolationOn(err error, name string) bool {
	if !IsDuplicateKeyErr(err) {
		return false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName != "" {
		return strings.Contains(pgErr.ConstraintName, name)
	}
	return strings.Contains(err.Error(), name)
}
