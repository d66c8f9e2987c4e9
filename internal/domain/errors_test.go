package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("plan: lookup: %w", Errorf(ErrNotFound, "branch %q not found", "999"))

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("errors.Is(%v, ErrNotFound) = false", err)
	}
	if got := PublicMessage(err, "fallback"); got != `branch "999" not found` {
		t.Errorf("PublicMessage = %q", got)
	}
	if got := err.Error(); got != `plan: lookup: not found: branch "999" not found` {
		t.Errorf("Error() = %q", got)
	}
}

func TestPublicMessageFallback(t *testing.T) {
	err := fmt.Errorf("%w: depot id is missing", ErrInvalidArgument)

	if got := PublicMessage(err, "invalid request"); got != "invalid request" {
		t.Errorf("PublicMessage = %q, want fallback", got)
	}
	if got := PublicMessage(nil, "none"); got != "none" {
		t.Errorf("PublicMessage(nil) = %q, want fallback", got)
	}
}
