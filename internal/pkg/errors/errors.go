// Package errors provides the login flow error taxonomy.
package errors

import "net/http"

// FlowError represents a login flow failure with the plain-text message
// shown to the browser. Handlers render Message as-is; StatusCode is the
// HTTP status the response carries.
type FlowError struct {
	Code       string
	Message    string
	StatusCode int
}

// Error implements the error interface.
func (e *FlowError) Error() string {
	return e.Message
}

// Standard error definitions
var (
	// ErrEmailRequired is returned when the email field is absent.
	ErrEmailRequired = &FlowError{
		Code:       "missing_input",
		Message:    "Email is required.",
		StatusCode: http.StatusOK,
	}

	// ErrEmailAndCodeRequired is returned when email or OTP is absent.
	ErrEmailAndCodeRequired = &FlowError{
		Code:       "missing_input",
		Message:    "Email and OTP are required.",
		StatusCode: http.StatusOK,
	}

	// ErrCodeNotFound is returned when no code record exists for the email.
	ErrCodeNotFound = &FlowError{
		Code:       "code_not_found",
		Message:    "No OTP found. Please request a new OTP.",
		StatusCode: http.StatusOK,
	}

	// ErrCodeExpired is returned when the stored code's expiry has passed.
	ErrCodeExpired = &FlowError{
		Code:       "code_expired",
		Message:    "OTP expired. Please request a new OTP.",
		StatusCode: http.StatusOK,
	}

	// ErrCodeMismatch is returned when the submitted code does not match.
	ErrCodeMismatch = &FlowError{
		Code:       "code_mismatch",
		Message:    "Incorrect OTP.",
		StatusCode: http.StatusOK,
	}

	// ErrVerifyFailed is the generic message for store failures during login.
	ErrVerifyFailed = &FlowError{
		Code:       "verify_failed",
		Message:    "Error while verifying OTP.",
		StatusCode: http.StatusOK,
	}

	// ErrDashboard is returned when the login history cannot be loaded.
	ErrDashboard = &FlowError{
		Code:       "dashboard_failed",
		Message:    "Error loading dashboard",
		StatusCode: http.StatusInternalServerError,
	}
)

// IsFlowError checks if an error is a FlowError.
func IsFlowError(err error) bool {
	_, ok := err.(*FlowError)
	return ok
}

// AsFlowError converts an error to a FlowError if possible.
// Returns ErrVerifyFailed if the error is not a FlowError.
func AsFlowError(err error) *FlowError {
	if flowErr, ok := err.(*FlowError); ok {
		return flowErr
	}
	return ErrVerifyFailed
}
