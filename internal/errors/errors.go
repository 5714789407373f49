package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrNotConnected     = errors.New("not connected to a receiver")
	ErrNoReceiver       = errors.New("no receiver selected")
	ErrReceiverNotFound = errors.New("receiver not found")
	ErrConnectFailed    = errors.New("connection failed")
	ErrInvalidZone      = errors.New("invalid zone")
	ErrInvalidInput     = errors.New("invalid input device")
	ErrInvalidVolume    = errors.New("invalid volume")
	ErrTimeout          = errors.New("request timeout")
	ErrConfigNotFound   = errors.New("config file not found")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// TelepathError wraps an error with a user-friendly suggestion.
type TelepathError struct {
	Err        error
	Suggestion string
}

func (e *TelepathError) Error() string {
	return e.Err.Error()
}

func (e *TelepathError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &TelepathError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var telErr *TelepathError
	if errors.As(err, &telErr) && telErr.Suggestion != "" {
		return telErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrNoReceiver) {
		return "Run 'telepath receivers select' or pass --receiver"
	}

	if errors.Is(err, ErrReceiverNotFound) {
		return "Run 'telepath receivers' to see discovered receivers, or add one with 'telepath receivers add'"
	}

	if errors.Is(err, ErrNotConnected) || errors.Is(err, ErrConnectFailed) ||
		strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no route to host") {
		return "Check that the receiver is powered and reachable, and that network control is enabled"
	}

	if errors.Is(err, ErrTimeout) || strings.Contains(errStr, "timeout") {
		return "The receiver did not answer in time. Try again, or raise receiver.dial_timeout"
	}

	if errors.Is(err, ErrInvalidZone) {
		return "Zones are main, 2 and 3"
	}

	if errors.Is(err, ErrInvalidInput) {
		return "Run 'telepath input <zone>' without a device to pick one interactively"
	}

	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) {
		return "Run 'telepath config init' to create a configuration file"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(p.Errors)))
	for i, err := range p.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}
