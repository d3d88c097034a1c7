package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes shared by REST responses, callable functions and services.
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeInvalidArgument    = "INVALID_ARGUMENT"
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeFailedPrecondition = "FAILED_PRECONDITION"
	CodeIndexRequired      = "INDEX_REQUIRED"
	CodeInternal           = "INTERNAL"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewUnauthenticatedError is returned when no valid caller identity is present.
func NewUnauthenticatedError(message string) *AppError {
	return &AppError{Code: CodeUnauthenticated, Message: message}
}

// NewValidationError reports malformed input.
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeInvalidArgument, Message: message}
}

// NewNotFoundError reports an absent entity.
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// NewAlreadyExistsError reports a duplicate relationship or request.
func NewAlreadyExistsError(message string) *AppError {
	return &AppError{Code: CodeAlreadyExists, Message: message}
}

// NewForbiddenError reports an authenticated caller lacking rights on the target.
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodePermissionDenied, Message: message}
}

// NewFailedPreconditionError reports a state that forbids the operation, e.g. a full roster.
func NewFailedPreconditionError(message string) *AppError {
	return &AppError{Code: CodeFailedPrecondition, Message: message}
}

// NewIndexRequiredError reports a store query that cannot run without a missing index or table.
func NewIndexRequiredError(err error) *AppError {
	return &AppError{
		Code:    CodeIndexRequired,
		Message: "A required database index is missing; run migrations and retry",
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// ErrorCode returns the taxonomy code of err, or CodeInternal for foreign errors.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given taxonomy code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// HTTPStatus maps an error to the HTTP status used for REST responses.
func HTTPStatus(err error) int {
	switch ErrorCode(err) {
	case CodeUnauthenticated:
		return fiber.StatusUnauthorized
	case CodeInvalidArgument:
		return fiber.StatusBadRequest
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeAlreadyExists, CodeFailedPrecondition:
		return fiber.StatusConflict
	case CodePermissionDenied:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// WireCode maps an error to the lowercase code used by callable function responses.
func WireCode(err error) string {
	switch ErrorCode(err) {
	case CodeUnauthenticated:
		return "unauthenticated"
	case CodeInvalidArgument:
		return "invalid-argument"
	case CodeNotFound:
		return "not-found"
	case CodeAlreadyExists:
		return "already-exists"
	case CodePermissionDenied:
		return "permission-denied"
	case CodeFailedPrecondition:
		return "failed-precondition"
	case CodeIndexRequired:
		return "index-required"
	default:
		return "internal"
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		// Internal causes stay in the logs.
		if appErr.Err != nil && appErr.Code != CodeInternal {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: UserMessage(CodeInternal, ""),
			Code:  CodeInternal,
		}
	}

	return c.Status(status).JSON(response)
}

// RespondWithAppError writes err using the status derived from its code.
func RespondWithAppError(c *fiber.Ctx, err error) error {
	return RespondWithError(c, HTTPStatus(err), err)
}
