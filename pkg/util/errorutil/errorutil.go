package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes shared by services and transport.
const (
	CodeValidation            = "VALIDATION_FAILED"
	CodeNotFound              = "NOT_FOUND"
	CodeInternal              = "INTERNAL_ERROR"
	CodeTooManyRequests       = "TOO_MANY_REQUESTS"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeInsufficientRole      = "INSUFFICIENT_ROLE"
	CodeDepartmentMismatch    = "DEPARTMENT_MISMATCH"
	CodeNoDepartmentAssigned  = "NO_DEPARTMENT_ASSIGNED"
	CodeTokenInvalid          = "TOKEN_INVALID"
	CodeStaleClaims           = "STALE_CLAIMS"
	CodeUnknownDepartment     = "UNKNOWN_DEPARTMENT"
	CodeComplaintAccessDenied = "COMPLAINT_ACCESS_DENIED"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// IsAuthentication reports whether the error means the caller has no usable credential.
func (e *DomainError) IsAuthentication() bool {
	switch e.Code {
	case CodeTokenInvalid, CodeStaleClaims:
		return true
	}
	return false
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewTooManyRequests(message string) error {
	return NewDomainError(CodeTooManyRequests, message, http.StatusTooManyRequests, nil)
}

func NewInvalidCredentials() error {
	return NewDomainError(CodeInvalidCredentials, "Invalid username or password.", http.StatusUnauthorized, nil)
}

func NewInsufficientRole() error {
	return NewDomainError(CodeInsufficientRole, "You do not have permission to access this area.", http.StatusForbidden, nil)
}

func NewDepartmentMismatch(message string) error {
	return NewDomainError(CodeDepartmentMismatch, message, http.StatusForbidden, nil)
}

func NewNoDepartmentAssigned() error {
	return NewDomainError(CodeNoDepartmentAssigned,
		"Your account is not assigned to any department. Please contact the administrator.",
		http.StatusForbidden, nil)
}

// NewTokenInvalid wraps the verification failure; the message stays generic.
func NewTokenInvalid(err error) error {
	return &DomainError{
		Code:       CodeTokenInvalid,
		Message:    "Authentication required. Please log in.",
		HTTPStatus: http.StatusUnauthorized,
		Err:        err,
	}
}

func NewStaleClaims() error {
	return NewDomainError(CodeStaleClaims, "Authentication required. Please log in.", http.StatusUnauthorized, nil)
}

func NewUnknownDepartment(code string) error {
	return NewDomainError(CodeUnknownDepartment, "Unknown department.", http.StatusNotFound,
		map[string]any{"department": code})
}

func NewComplaintAccessDenied(message string) error {
	return NewDomainError(CodeComplaintAccessDenied, message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

func MapError(err error) error {
	return ToDomainError(err)
}
