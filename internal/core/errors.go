package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Data errors
	ErrNoData           = &Error{Code: "NO_DATA", Message: "no data available"}
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "bar sequence shorter than lookback window"}
	ErrInvalidInput     = &Error{Code: "INVALID_INPUT", Message: "invalid backtest input"}

	// Predictor errors
	ErrPrediction      = &Error{Code: "PREDICTION_FAILED", Message: "predictor returned an invalid label"}
	ErrPredictorFailed = &Error{Code: "PREDICTOR_FAILED", Message: "predictor could not be constructed"}

	// Advisory, surfaced as a warning rather than returned
	ErrFeatureMismatch = &Error{Code: "FEATURE_MISMATCH", Message: "feature vector does not match predictor schema"}

	// Storage errors
	ErrStorageFailed = &Error{Code: "STORAGE_FAILED", Message: "storage operation failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
