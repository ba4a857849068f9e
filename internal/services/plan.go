package services

import "buckets/internal/core"

type Direction string

const (
	MoveUp   Direction = "up"
	MoveDown Direction = "down"
)

// DragPlan is the outcome of interpreting a drag gesture: either a
// reorder batch over one sibling list, or a single re-parent patch.
// Exactly one of the two fields is set.
type DragPlan struct {
	Batch    []core.OrderChange
	Reparent *Reparent
}

// Reparent moves one category under a new parent with a single
// update.
type Reparent struct {
	ID    string
	Patch core.Patch
}

// PlanDrag translates a drag-end gesture into a mutation plan. It
// returns false when the gesture is a no-op: identical IDs, or either
// node missing from the forest.
//
// When both nodes share a parent the move is a pure permutation, so
// the whole sibling list is renumbered to contiguous zero-based
// order. When parents differ the moved node is handed to the target's
// parent with the target's index plus one as its order, inheriting
// the new parent's group; the rest of that sibling list is left for
// the backend to renormalize.
func PlanDrag(f core.Forest, movedID, targetID string) (DragPlan, bool) {
	if movedID == targetID {
		return DragPlan{}, false
	}
	moved, ok := f.Locate(movedID)
	if !ok {
		return DragPlan{}, false
	}
	target, ok := f.Locate(targetID)
	if !ok {
		return DragPlan{}, false
	}

	if moved.ParentID == target.ParentID {
		ids := make([]string, 0, len(moved.Siblings))
		for _, n := range moved.Siblings {
			if n.ID != movedID {
				ids = append(ids, n.ID)
			}
		}
		at := target.Index
		if at > len(ids) {
			at = len(ids)
		}
		ids = append(ids[:at], append([]string{movedID}, ids[at:]...)...)

		batch := make([]core.OrderChange, len(ids))
		for i, id := range ids {
			batch[i] = core.OrderChange{ID: id, Order: i}
		}
		return DragPlan{Batch: batch}, true
	}

	newParentID := target.ParentID
	order := target.Index + 1
	patch := core.Patch{
		ParentID:     core.StringPtr(newParentID),
		DisplayOrder: core.IntPtr(order),
	}
	if newParentID != "" {
		if parent, ok := f.Find(newParentID); ok {
			patch.Group = core.GroupPtr(parent.Group)
		}
	}
	return DragPlan{Reparent: &Reparent{ID: movedID, Patch: patch}}, true
}

// PlanMove swaps a category with its neighbor in the given direction
// and renormalizes the whole sibling list to contiguous zero-based
// order. It returns false for out-of-bounds moves and unknown IDs.
func PlanMove(f core.Forest, id string, dir Direction) ([]core.OrderChange, bool) {
	loc, ok := f.Locate(id)
	if !ok {
		return nil, false
	}
	swap := loc.Index - 1
	if dir == MoveDown {
		swap = loc.Index + 1
	}
	if swap < 0 || swap >= len(loc.Siblings) {
		return nil, false
	}

	ids := make([]string, len(loc.Siblings))
	for i, n := range loc.Siblings {
		ids[i] = n.ID
	}
	ids[loc.Index], ids[swap] = ids[swap], ids[loc.Index]

	batch := make([]core.OrderChange, len(ids))
	for i, sid := range ids {
		batch[i] = core.OrderChange{ID: sid, Order: i}
	}
	return batch, true
}
