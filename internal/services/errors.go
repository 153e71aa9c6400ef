package services

import (
	"log"

	"activation/internal/database"
	apperrors "activation/pkg/errors"
)

const (
	msgDatabaseNotInitialized = "Database not initialized. Please run migrations."
	msgDatabaseUnavailable    = "Database connection failed. Please try again later."
	msgInternal               = "An unexpected error occurred. Please try again later."
)

// NewBadRequestError creates a caller-correctable error
func NewBadRequestError(message string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeBadRequest, message)
}

// NewUnauthorizedError creates an authentication error
func NewUnauthorizedError(message string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeUnauthorized, message)
}

// NewForbiddenError creates a permission error
func NewForbiddenError(message string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeForbidden, message)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeNotFound, message)
}

// NewConflictError creates a uniqueness conflict error
func NewConflictError(message string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodeConflict, message)
}

// NewPreconditionFailedError creates an error for missing configuration
func NewPreconditionFailedError(message string) *apperrors.AppError {
	return apperrors.New(apperrors.ErrCodePreconditionFailed, message)
}

// NewInternalError creates a new internal error; message is shown to the
// caller, err is kept for logging only.
func NewInternalError(message string, err error) *apperrors.AppError {
	return apperrors.Wrap(apperrors.ErrCodeInternalError, message, err)
}

// storeError classifies an unexpected persistence error into the internal
// error the caller sees and logs the cause under tag.
func storeError(tag, op string, err error) *apperrors.AppError {
	log.Printf("[%s] %s failed: database error: %v", tag, op, err)
	switch {
	case database.IsMissingTable(err):
		return NewInternalError(msgDatabaseNotInitialized, err)
	case database.IsConnectionError(err):
		return NewInternalError(msgDatabaseUnavailable, err)
	default:
		return NewInternalError(msgInternal, err)
	}
}
