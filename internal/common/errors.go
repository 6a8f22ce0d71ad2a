package common

import (
	"errors"
	"fmt"
	"runtime"
)

// Common error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input parameter")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrNotInitialized indicates a component is not initialized
	ErrNotInitialized = errors.New("component not initialized")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// IsNotFound checks if err is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput checks if err is or wraps ErrInvalidInput
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsTimeout checks if err is or wraps ErrTimeout
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsNotInitialized checks if err is or wraps ErrNotInitialized
func IsNotInitialized(err error) bool {
	return errors.Is(err, ErrNotInitialized)
}

// IsUnavailable checks if err is or wraps ErrUnavailable
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// NotFoundError returns a wrapped not found error with context
func NotFoundError(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// InvalidInputError returns a wrapped invalid input error with context
func InvalidInputError(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// TimeoutError returns a wrapped timeout error with context
func TimeoutError(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrTimeout)
}

// NotInitializedError returns a wrapped not initialized error with context
func NotInitializedError(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotInitialized)
}

// UnavailableError returns a wrapped unavailable error with context
func UnavailableError(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrUnavailable)
}

// TaxonomyError is the shape behind every error the solver coordination
// core raises: it carries the call site it was raised from and the
// payload that triggered it, so an operator never has to guess which
// request or model tripped a failure.
type TaxonomyError struct {
	Code    string
	Func    string
	File    string
	Line    int
	Message string
	Payload interface{}
	Cause   error
}

func (e *TaxonomyError) Error() string {
	msg := fmt.Sprintf("%s at %s (%s:%d): %s", e.Code, e.Func, e.File, e.Line, e.Message)
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	if e.Payload != nil {
		msg += fmt.Sprintf(" [payload: %+v]", e.Payload)
	}
	return msg
}

func (e *TaxonomyError) Unwrap() error { return e.Cause }

func newTaxonomyError(code, message string, payload interface{}, cause error) error {
	pc, file, line, ok := runtime.Caller(2)
	fn := "unknown"
	if ok {
		if f := runtime.FuncForPC(pc); f != nil {
			fn = f.Name()
		}
	}
	return &TaxonomyError{
		Code:    code,
		Func:    fn,
		File:    file,
		Line:    line,
		Message: message,
		Payload: payload,
		Cause:   cause,
	}
}

// Caller errors: the request itself is malformed.

func MalformedProblemError(message string, payload interface{}) error {
	return newTaxonomyError("MalformedProblem", message, payload, nil)
}

func MalformedMetricListError(message string, payload interface{}) error {
	return newTaxonomyError("MalformedMetricList", message, payload, nil)
}

func UnsupportedValueKindError(message string, payload interface{}) error {
	return newTaxonomyError("UnsupportedValueKind", message, payload, nil)
}

func NoObjectiveSelectedError(message string, payload interface{}) error {
	return newTaxonomyError("NoObjectiveSelected", message, payload, nil)
}

func UnknownObjectiveError(message string, payload interface{}) error {
	return newTaxonomyError("UnknownObjective", message, payload, nil)
}

func DuplicateContextIDError(message string, payload interface{}) error {
	return newTaxonomyError("DuplicateContextId", message, payload, nil)
}

// Engine-reported errors: the engine rejected the model, data, or solve.

func ModelInvalidError(message string, payload interface{}, cause error) error {
	return newTaxonomyError("ModelInvalid", message, payload, cause)
}

func DataInvalidError(message string, payload interface{}, cause error) error {
	return newTaxonomyError("DataInvalid", message, payload, cause)
}

func SolveFailedError(message string, payload interface{}, cause error) error {
	return newTaxonomyError("SolveFailed", message, payload, cause)
}

func IOErrorf(message string, payload interface{}, cause error) error {
	return newTaxonomyError("IOError", message, payload, cause)
}

// IsTaxonomyCode reports whether err (or something it wraps) carries the
// given taxonomy code, e.g. IsTaxonomyCode(err, "SolveFailed").
func IsTaxonomyCode(err error, code string) bool {
	var te *TaxonomyError
	if errors.As(err, &te) {
		return te.Code == code
	}
	return false
}

// TaxonomyCodeOf extracts the taxonomy code from err, if it carries one.
func TaxonomyCodeOf(err error) (string, bool) {
	var te *TaxonomyError
	if errors.As(err, &te) {
		return te.Code, true
	}
	return "", false
}
