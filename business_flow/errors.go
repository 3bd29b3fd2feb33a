// Package businessflow contains the core business logic and use cases for attribution and settlement
package businessflow

import (
	"errors"
	"fmt"
)

// Error taxonomy codes surfaced to API clients
const (
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeValidation    = "VALIDATION_ERROR"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeConflict      = "CONFLICT"
)

// Business flow error constants
var (
	// Actor errors
	ErrUnauthenticated = errors.New("authentication required")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserNotApproved = errors.New("user is not approved")
	ErrAccessDenied    = errors.New("access denied")
	ErrAdminOnly       = errors.New("admin access required")

	// Listing errors
	ErrListingNotFound  = errors.New("listing not found")
	ErrListingNotActive = errors.New("listing is not active")

	// Tracking link errors
	ErrTrackingLinkNotFound = errors.New("tracking link not found")
	ErrInvalidPlatform      = errors.New("invalid share platform")
	ErrRefCodeExhausted     = errors.New("could not allocate a unique reference code")

	// Inquiry errors
	ErrInquiryNotFound = errors.New("inquiry not found")
	ErrInvalidStage    = errors.New("invalid inquiry stage")

	// Commission errors
	ErrCommissionNotFound         = errors.New("commission not found")
	ErrInvalidCommissionStatus    = errors.New("invalid commission status")
	ErrInvalidCommissionRole      = errors.New("invalid commission role")
	ErrStatusTransitionNotAllowed = errors.New("commission status may only advance one step")
	ErrInquiryFilterNotAllowed    = errors.New("promoter and recruiter commissions cannot be filtered by inquiry")

	// Settings errors
	ErrNoSettingsProvided = errors.New("at least one setting must be provided")

	// Concurrency
	ErrConcurrentUpdate = errors.New("the resource is being modified concurrently, retry later")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// ErrorCode returns the taxonomy code carried by err, or "" when err is not a BusinessError
func ErrorCode(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied) || errors.Is(err, ErrAdminOnly) || errors.Is(err, ErrUserNotApproved)
}

func IsListingNotFound(err error) bool {
	return errors.Is(err, ErrListingNotFound)
}

func IsListingNotActive(err error) bool {
	return errors.Is(err, ErrListingNotActive)
}

func IsTrackingLinkNotFound(err error) bool {
	return errors.Is(err, ErrTrackingLinkNotFound)
}

func IsRefCodeExhausted(err error) bool {
	return errors.Is(err, ErrRefCodeExhausted)
}

func IsInquiryNotFound(err error) bool {
	return errors.Is(err, ErrInquiryNotFound)
}

func IsInvalidStage(err error) bool {
	return errors.Is(err, ErrInvalidStage)
}

func IsCommissionNotFound(err error) bool {
	return errors.Is(err, ErrCommissionNotFound)
}

func IsStatusTransitionNotAllowed(err error) bool {
	return errors.Is(err, ErrStatusTransitionNotAllowed)
}

func IsConcurrentUpdate(err error) bool {
	return errors.Is(err, ErrConcurrentUpdate)
}
