// Package backend selects and assembles the data backend from
// configuration.
package backend

import (
	"context"

	"buckets/internal/catalog"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result bundles the assembled backend: the category service, the
// roster and tag readers, an optional event publisher/consumer, and a
// cleanup hook.
type Result struct {
	Catalog catalog.Service
	Roster  catalog.RosterReader
	Tags    catalog.TagReader
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Type names one of the supported data backends.
type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
	RESTBackend   Type = "rest"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, RESTBackend:
		return true
	default:
		return false
	}
}
