package errors

import (
	"errors"
	"fmt"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Sentinel errors for entitlement and ledger operations. Callers match
// them with errors.Is.
var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrAlreadyProcessed = errors.New("payment already processed")
	ErrVipNotActive     = errors.New("vip not active")
)

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        "E100",
		Message:     msg,
		UserMessage: fmt.Sprintf("Invalid input. %s", msg),
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       nil,
	}
}

func NewDatabaseError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        "E200",
		Message:     fmt.Sprintf("Database error: %s", underlyingMsg),
		UserMessage: "Temporary problem, please try again later",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

func NewExternalAPIError(apiName string, cause error) *AppError {
	return &AppError{
		Code:        "E300",
		Message:     fmt.Sprintf("External API error: %s", apiName),
		UserMessage: "The service is temporarily unavailable",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewEntitlementError wraps a sentinel entitlement error so the
// transport layer can render the user-facing message while callers
// still match the sentinel with errors.Is.
func NewEntitlementError(sentinel error, userMessage string) *AppError {
	var msg string
	if sentinel != nil {
		msg = sentinel.Error()
	}

	return &AppError{
		Code:        "E400",
		Message:     msg,
		UserMessage: userMessage,
		Severity:    SeverityLow,
		Retryable:   false,
		cause:       sentinel,
	}
}

func NewDownloadError(cause error) *AppError {
	return &AppError{
		Code:        "E500",
		Message:     "Media download failed",
		UserMessage: "Could not download that link. Check the URL and try again",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}
