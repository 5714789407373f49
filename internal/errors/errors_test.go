package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestGetSuggestion(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"explicit", WithSuggestion(errors.New("boom"), "do the thing"), "do the thing"},
		{"wrapped not connected", fmt.Errorf("power toggle: %w", ErrNotConnected), "Check that the receiver is powered and reachable, and that network control is enabled"},
		{"dial refused", errors.New("dial tcp 10.0.0.5:23: connect: connection refused"), "Check that the receiver is powered and reachable, and that network control is enabled"},
		{"no receiver", ErrNoReceiver, "Run 'telepath receivers select' or pass --receiver"},
		{"zone", fmt.Errorf("zone 4: %w", ErrInvalidZone), "Zones are main, 2 and 3"},
		{"unknown", errors.New("something else"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSuggestion(tt.err); got != tt.want {
				t.Errorf("GetSuggestion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithSuggestionUnwraps(t *testing.T) {
	err := WithSuggestion(ErrReceiverNotFound, "look harder")
	if !errors.Is(err, ErrReceiverNotFound) {
		t.Error("errors.Is should see through TelepathError")
	}
}

func TestFormat(t *testing.T) {
	if got := Format(nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}
	got := Format(ErrNoReceiver)
	if !strings.HasPrefix(got, "Error: no receiver selected") || !strings.Contains(got, "Suggestion:") {
		t.Errorf("Format() = %q", got)
	}
}

func TestPartialResult(t *testing.T) {
	var p PartialResult[[]string]
	if p.HasErrors() {
		t.Fatal("new result should have no errors")
	}
	p.AddError(nil)
	p.AddError(errors.New("first"))
	if p.ErrorSummary() != "first" {
		t.Errorf("ErrorSummary() = %q, want %q", p.ErrorSummary(), "first")
	}
	p.AddError(errors.New("second"))
	if !strings.HasPrefix(p.ErrorSummary(), "2 errors occurred") {
		t.Errorf("ErrorSummary() = %q", p.ErrorSummary())
	}
}
