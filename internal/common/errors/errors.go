// Package errors provides the error taxonomy shared by the HTTP API and the
// Zeebe job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode is the stable kind reported to callers.
type ErrorCode string

const (
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidPlan       ErrorCode = "INVALID_PLAN"
	ErrCodeInvalidCoupon     ErrorCode = "INVALID_COUPON"
	ErrCodeCouponAlreadyUsed ErrorCode = "COUPON_ALREADY_USED"
	ErrCodeCouponExhausted   ErrorCode = "COUPON_EXHAUSTED"
	ErrCodeAmountMismatch    ErrorCode = "AMOUNT_MISMATCH"
	ErrCodeAuthentication    ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeUpstream          ErrorCode = "UPSTREAM_ERROR"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeTimeout           ErrorCode = "TIMEOUT"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the structured error every handler returns to its caller.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError reports a missing or invalid request field.
func NewValidationError(message, details string) *StandardError {
	return newError(ErrCodeValidation, message, details, false)
}

func NewInvalidPlanError(planID string) *StandardError {
	return newError(ErrCodeInvalidPlan, "Invalid plan selected", fmt.Sprintf("unknown plan id %q", planID), false)
}

func NewInvalidCouponError(code string) *StandardError {
	return newError(ErrCodeInvalidCoupon, "Invalid coupon code or not applicable to selected plan.", code, false)
}

func NewCouponAlreadyUsedError(code string) *StandardError {
	return newError(ErrCodeCouponAlreadyUsed,
		fmt.Sprintf("Coupon %q has already been used by this account.", code), "", false)
}

func NewCouponExhaustedError(code string) *StandardError {
	return newError(ErrCodeCouponExhausted,
		fmt.Sprintf("Coupon %q has reached its usage limit.", code), "", false)
}

// NewAmountMismatchError carries the debug triple the checkout client uses to
// refresh its stale cart.
func NewAmountMismatchError(backend, frontend int64) *StandardError {
	diff := backend - frontend
	if diff < 0 {
		diff = -diff
	}
	return newError(ErrCodeAmountMismatch, "Price mismatch detected. Please try again.", "", false).
		WithMetadata("debug", map[string]interface{}{
			"backendCalculated": backend,
			"frontendSent":      frontend,
			"difference":        diff,
		})
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthentication, "Authentication failed", details, false)
}

func NewForbiddenError(details string) *StandardError {
	return newError(ErrCodeForbidden, "Not allowed", details, false)
}

func NewNotFoundError(message, details string) *StandardError {
	return newError(ErrCodeNotFound, message, details, false)
}

// NewUpstreamError wraps a failed call to the store or a third-party API.
func NewUpstreamError(service string, err error) *StandardError {
	e := newError(ErrCodeUpstream, fmt.Sprintf("%s request failed", service), errString(err), true)
	e.cause = err
	return e
}

func NewTimeoutError(service string, err error) *StandardError {
	e := newError(ErrCodeTimeout, fmt.Sprintf("%s timed out", service), errString(err), true)
	e.cause = err
	return e
}

func NewInternalError(err error) *StandardError {
	e := newError(ErrCodeInternal, "Internal server error", errString(err), false)
	e.cause = err
	return e
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Error Conversion
// ==========================

// As returns err as a StandardError, wrapping unknown errors as internal.
func As(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HTTPStatus maps an error code onto the response status the API returns.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidation, ErrCodeInvalidPlan, ErrCodeInvalidCoupon,
		ErrCodeCouponAlreadyUsed, ErrCodeCouponExhausted, ErrCodeAmountMismatch:
		return http.StatusBadRequest
	case ErrCodeAuthentication:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUpstream:
		return http.StatusBadGateway
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// GetRetryCount returns the Zeebe retry budget for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeUpstream:
		return 3
	case ErrCodeTimeout:
		return 2
	default:
		return 0 // business errors are not retried
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// GetErrorCategory groups codes for dashboards.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "COUPON"), strings.Contains(codeStr, "PLAN"), strings.Contains(codeStr, "AMOUNT"):
		return "CHECKOUT"
	case strings.Contains(codeStr, "AUTH"), codeStr == string(ErrCodeForbidden):
		return "AUTH"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case codeStr == string(ErrCodeUpstream), codeStr == string(ErrCodeTimeout):
		return "UPSTREAM"
	case codeStr == string(ErrCodeNotFound):
		return "NOT_FOUND"
	default:
		return "OTHER"
	}
}
