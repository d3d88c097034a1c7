package repository

import (
	"errors"
	"strings"

	"squadup/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes for schema objects that do not exist.
const (
	pgUndefinedTable  = "42P01"
	pgUndefinedObject = "42704"
	pgUndefinedColumn = "42703"
)

// classifyQueryError maps a read failure to INDEX_REQUIRED when the schema is
// missing the table, column or index the query needs, and to INTERNAL otherwise.
func classifyQueryError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUndefinedTable, pgUndefinedObject, pgUndefinedColumn:
			return models.NewIndexRequiredError(err)
		}
		return models.NewInternalError(err)
	}
	msg := err.Error()
	if strings.Contains(msg, "no such table") || strings.Contains(msg, "no such column") || strings.Contains(msg, "no such index") {
		return models.NewIndexRequiredError(err)
	}
	return models.NewInternalError(err)
}

// notFoundOr maps gorm.ErrRecordNotFound to a NOT_FOUND error for resource/id
// and wraps anything else as INTERNAL. AppErrors pass through unchanged.
func notFoundOr(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return models.NewInternalError(err)
}

// passAppError returns AppErrors from a transaction body unchanged and wraps
// driver errors as INTERNAL.
func passAppError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return models.NewInternalError(err)
}
