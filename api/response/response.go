// Package response writes the JSON envelope every API endpoint answers with.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Response struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Timestamp string     `json:"timestamp"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AppError is an error with the HTTP status and code it should be reported
// with.
type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return NewAppError("BAD_REQUEST", message, http.StatusBadRequest, err)
}

func NotFound(resource string, err error) *AppError {
	return NewAppError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, err)
}

func Internal(message string, err error) *AppError {
	return NewAppError("INTERNAL_ERROR", message, http.StatusInternalServerError, err)
}

func Unavailable(message string, err error) *AppError {
	return NewAppError("SERVICE_UNAVAILABLE", message, http.StatusServiceUnavailable, err)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func Success(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

func Created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, Response{
		Success:   true,
		Data:      data,
		Timestamp: now(),
	})
}

// Error writes err as a failed envelope. Validation errors become 400,
// AppErrors and echo.HTTPErrors keep their status, anything else is a 500.
func Error(c echo.Context, err error) error {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", validationMessage(validationErr))
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return fail(c, appErr.Status, appErr.Code, appErr.Message)
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok && m != "" {
			message = m
		}
		return fail(c, httpErr.Code, codeForStatus(httpErr.Code), message)
	}

	return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
}

func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Response{
		Success:   false,
		Timestamp: now(),
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

func validationMessage(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Invalid input data"
	}

	err := errs[0]
	field := lowerFirst(err.Field())
	switch err.Tag() {
	case "required":
		return field + " is required"
	case "gte", "min":
		return field + " must be at least " + err.Param()
	case "lte", "max":
		return field + " must be at most " + err.Param()
	default:
		return field + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusUnsupportedMediaType:
		return "UNSUPPORTED_MEDIA_TYPE"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		if status >= http.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
