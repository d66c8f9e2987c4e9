package ports

import (
	"context"
	"field-route-service/internal/domain"
)

// Port: a read-only boundary to the branch/client registry.
// Implementations must be safe for concurrent use.
type BranchDirectory interface {
	// Resolve a branch code or name to its depot location.
	// Returns an error wrapping domain.ErrNotFound when nothing matches.
	LookupBranch(ctx context.Context, id string) (domain.Location, error)
	// Return the client pool of a branch in stable registry order.
	LookupClients(ctx context.Context, branchID string) ([]domain.Location, error)
	// Return every known branch.
	ListBranches(ctx context.Context) ([]domain.Branch, error)
}
