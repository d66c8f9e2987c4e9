package domain

import (
	"fmt"
	"strings"
)

// Kind discriminates the role a Location plays in a route.
type Kind string

const (
	KindBranch Kind = "branch"
	KindClient Kind = "client"
)

// Location is a named point loaded from the branch/client directory.
// Values are treated as immutable once loaded.
type Location struct {
	ID   string
	Name string
	Kind Kind
	Coordinates
}

// Validate checks the fields every routed location must carry.
func (l Location) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("%w: location id must be non-empty", ErrInvalidArgument)
	}
	if l.Kind != KindBranch && l.Kind != KindClient {
		return fmt.Errorf("%w: location %q has unknown kind %q", ErrInvalidArgument, l.ID, l.Kind)
	}
	if err := l.Coordinates.Validate(); err != nil {
		return fmt.Errorf("location %q: %w", l.ID, err)
	}
	return nil
}

// ValidateDepot checks that l can serve as the fixed start of a route.
func ValidateDepot(l Location) error {
	if err := l.Validate(); err != nil {
		return fmt.Errorf("depot: %w", err)
	}
	if l.Kind != KindBranch {
		return fmt.Errorf("%w: depot %q must be a branch, got %q", ErrInvalidArgument, l.ID, l.Kind)
	}
	return nil
}

// Branch is a directory entry for a field office.
type Branch struct {
	Location
	ZonalHead string
}

// NormalizeBranchID trims the identifier sent by dashboard clients.
// Values such as "087:Deogarh" are split into their code and name parts.
func NormalizeBranchID(raw string) (code string, name string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", Errorf(ErrInvalidArgument, "branch is required")
	}

	if c, n, ok := strings.Cut(raw, ":"); ok {
		c, n = strings.TrimSpace(c), strings.TrimSpace(n)
		if c == "" && n == "" {
			return "", "", Errorf(ErrInvalidArgument, "branch is required")
		}
		return c, n, nil
	}

	return raw, raw, nil
}
