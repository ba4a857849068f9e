// Package catalog defines the contracts the dashboard consumes from
// the authoritative category data service and its read-only
// companions.
package catalog

import (
	"context"
	"errors"

	"buckets/internal/core"
)

var (
	// ErrNotFound is returned by backends when an ID does not exist.
	ErrNotFound = errors.New("category not found")

	// ErrProtected is returned when a delete targets a
	// system-managed category.
	ErrProtected = errors.New("category is system-managed")
)

// Ports for outbound adapters.
type (
	// Service is the authoritative category store. It owns record
	// lifetime; the client cache's copy is provisional until it is
	// reconciled against Fetch.
	Service interface {
		// Fetch returns the flat list of all category records.
		Fetch(ctx context.Context) ([]core.Category, error)

		// Create persists a record and returns it with a
		// server-issued identifier.
		Create(ctx context.Context, c core.Category) (core.Category, error)

		// Update merges the patch into the stored record and
		// returns the result.
		Update(ctx context.Context, id string, p core.Patch) (core.Category, error)

		// Delete removes the record. What happens to children is
		// backend policy.
		Delete(ctx context.Context, id string) error

		// Reorder persists the given order values verbatim.
		Reorder(ctx context.Context, batch []core.OrderChange) error
	}

	// RosterReader lists household members.
	RosterReader interface {
		ListMembers(ctx context.Context) ([]core.Member, error)
	}

	// TagReader lists known tag names for auto-suggestion.
	TagReader interface {
		ListTags(ctx context.Context) ([]string, error)
	}
)
