// Package services coordinates optimistic mutations of the category
// tree against the authoritative backend.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"buckets/internal/cache"
	"buckets/internal/catalog"
	"buckets/internal/core"
)

// EventPublisher fans settled mutations out to peer instances. It is
// optional; a nil publisher disables eventing.
type EventPublisher interface {
	PublishCategoryChange(ctx context.Context, id, op string) error
}

// Coordinator applies each mutation in three phases: snapshot the
// cached forest, apply a pure optimistic transform, then issue the
// remote call. A rejected call swaps the snapshot back; every settled
// call, success or failure, is followed by an invalidating refetch so
// the cache converges on authoritative state even when overlapping
// mutations have stepped on each other's snapshots.
type Coordinator struct {
	store  *cache.Store[core.Forest]
	svc    catalog.Service
	events EventPublisher
	fetch  singleflight.Group
	seq    atomic.Uint64
}

func NewCoordinator(store *cache.Store[core.Forest], svc catalog.Service, events EventPublisher) *Coordinator {
	return &Coordinator{store: store, svc: svc, events: events}
}

type mutationState int

const (
	stateApplied mutationState = iota
	stateSettledOK
	stateSettledFailed
)

func (s mutationState) String() string {
	switch s {
	case stateApplied:
		return "applied"
	case stateSettledOK:
		return "settled_ok"
	case stateSettledFailed:
		return "settled_failed"
	default:
		return "unknown"
	}
}

// mutation tracks one in-flight operation and the snapshot its
// rollback restores. Snapshots are independent per mutation; they are
// not serialized against each other.
type mutation struct {
	seq      uint64
	op       string
	id       string
	state    mutationState
	snapshot core.Forest
	loaded   bool
}

func (c *Coordinator) begin(op, id string) *mutation {
	snap, loaded := c.store.Get()
	return &mutation{
		seq:      c.seq.Add(1),
		op:       op,
		id:       id,
		state:    stateApplied,
		snapshot: snap,
		loaded:   loaded,
	}
}

func (c *Coordinator) settle(ctx context.Context, m *mutation, opErr error) {
	if opErr != nil {
		m.state = stateSettledFailed
		if m.loaded {
			c.store.Set(m.snapshot)
		} else {
			c.store.Invalidate()
		}
		slog.WarnContext(ctx, "Mutation rejected, cache rolled back",
			"seq", m.seq, "operation", m.op, "id", m.id,
			"state", m.state.String(), "error", opErr)
	} else {
		m.state = stateSettledOK
		slog.DebugContext(ctx, "Mutation settled",
			"seq", m.seq, "operation", m.op, "id", m.id,
			"state", m.state.String())
		if c.events != nil {
			if err := c.events.PublishCategoryChange(ctx, m.id, m.op); err != nil {
				slog.WarnContext(ctx, "Failed to publish change event",
					"operation", m.op, "id", m.id, "error", err)
			}
		}
	}

	// Settle-phase resync, regardless of outcome.
	if err := c.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Post-settle refresh failed, cache may be stale",
			"operation", m.op, "id", m.id, "error", err)
	}
}

// Refresh discards the cached forest and reloads it from the
// authoritative service. Concurrent callers share one fetch.
func (c *Coordinator) Refresh(ctx context.Context) error {
	_, err, _ := c.fetch.Do("refresh", func() (any, error) {
		records, err := c.svc.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch categories: %w", err)
		}
		c.store.Set(core.Build(records).Sorted())
		return nil, nil
	})
	return err
}

// Forest returns the cached tree, loading it on first use.
func (c *Coordinator) Forest(ctx context.Context) (core.Forest, error) {
	if f, ok := c.store.Get(); ok {
		return f, nil
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	f, _ := c.store.Get()
	return f, nil
}

// Update merges a partial record into the category, optimistically
// first. An ID absent from the cache skips the optimistic transform
// but the request is still issued.
func (c *Coordinator) Update(ctx context.Context, id string, p core.Patch) (core.Category, error) {
	m := c.begin("update", id)
	if m.loaded {
		if next, found := m.snapshot.Update(id, p); found {
			c.store.Set(next)
		}
	}
	rec, err := c.svc.Update(ctx, id, p)
	c.settle(ctx, m, err)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %s: %w", id, err)
	}
	return rec, nil
}

// Create persists a new category. The optimistic copy appears under a
// temporary identifier until the next refetch replaces it with the
// server-issued record. A missing parent skips the optimistic insert;
// the request is still issued.
func (c *Coordinator) Create(ctx context.Context, record core.Category) (core.Category, error) {
	if record.ID == "" {
		record.ID = core.NewTempID()
	}
	m := c.begin("create", record.ID)
	if m.loaded {
		if next, ok := m.snapshot.Insert(record.ParentID, record); ok {
			c.store.Set(next)
		}
	}
	created, err := c.svc.Create(ctx, record)
	c.settle(ctx, m, err)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

// Delete removes the category. System-managed categories are refused
// locally without a request.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	m := c.begin("delete", id)
	if m.loaded {
		if n, ok := m.snapshot.Find(id); ok {
			if n.Protected() {
				return fmt.Errorf("delete category %s: %w", id, catalog.ErrProtected)
			}
			next, _ := m.snapshot.Remove(id)
			c.store.Set(next)
		}
	}
	err := c.svc.Delete(ctx, id)
	c.settle(ctx, m, err)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}

// Reorder overwrites sibling positions from the batch. Batch entries
// for unknown IDs are ignored rather than treated as fatal. An empty
// batch is a no-op and issues no request.
func (c *Coordinator) Reorder(ctx context.Context, batch []core.OrderChange) error {
	if len(batch) == 0 {
		return nil
	}
	m := c.begin("reorder", "")
	if m.loaded {
		c.store.Set(m.snapshot.Reorder(batch))
	}
	err := c.svc.Reorder(ctx, batch)
	c.settle(ctx, m, err)
	if err != nil {
		return fmt.Errorf("reorder categories: %w", err)
	}
	return nil
}

// Drag interprets a drag-end gesture and dispatches the resulting
// plan. A gesture that resolves to nothing issues no request.
func (c *Coordinator) Drag(ctx context.Context, movedID, targetID string) error {
	f, err := c.Forest(ctx)
	if err != nil {
		return err
	}
	plan, ok := PlanDrag(f, movedID, targetID)
	if !ok {
		return nil
	}
	if plan.Reparent != nil {
		_, err := c.Update(ctx, plan.Reparent.ID, plan.Reparent.Patch)
		return err
	}
	return c.Reorder(ctx, plan.Batch)
}

// Move shifts a category one slot up or down among its siblings.
// Boundary moves are no-ops and issue no request.
func (c *Coordinator) Move(ctx context.Context, id string, dir Direction) error {
	f, err := c.Forest(ctx)
	if err != nil {
		return err
	}
	batch, ok := PlanMove(f, id, dir)
	if !ok {
		return nil
	}
	return c.Reorder(ctx, batch)
}
