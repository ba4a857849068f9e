package core

import "sort"

// Node wraps a category with its ordered children. Nodes are treated
// as immutable once they are part of a Forest: every transform below
// returns a new forest that shares untouched subtrees with the input
// and never edits a node in place. Rolling back to an earlier forest
// value is therefore just keeping the old reference.
type Node struct {
	Category
	Children []*Node
}

// Forest is the ordered list of root nodes.
type Forest []*Node

// Location describes where a node sits: the sibling list containing
// it, its index within that list, and its parent's ID (empty for
// roots).
type Location struct {
	Siblings []*Node
	Index    int
	ParentID string
}

// Build assembles a forest from a flat record list. Each record whose
// parent ID is present in the input becomes a child of that parent,
// in input order; everything else, including records with dangling
// parent references, becomes a root in first-seen order. Build is
// total over its input and imposes no sorting.
func Build(records []Category) Forest {
	wrap := make(map[string]*Node, len(records))
	for _, r := range records {
		wrap[r.ID] = &Node{Category: r}
	}
	var roots Forest
	for _, r := range records {
		n := wrap[r.ID]
		if r.ParentID != "" && r.ParentID != r.ID {
			if parent, ok := wrap[r.ParentID]; ok {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}

// Find returns the first node with the given ID, depth-first.
// The returned node is shared with the forest and must not be
// modified.
func (f Forest) Find(id string) (*Node, bool) {
	for _, n := range f {
		if n.ID == id {
			return n, true
		}
		if found, ok := Forest(n.Children).Find(id); ok {
			return found, true
		}
	}
	return nil, false
}

// Locate returns the first node's location, depth-first.
func (f Forest) Locate(id string) (Location, bool) {
	return locateIn(f, id, "")
}

func locateIn(nodes []*Node, id, parentID string) (Location, bool) {
	for i, n := range nodes {
		if n.ID == id {
			return Location{Siblings: nodes, Index: i, ParentID: parentID}, true
		}
	}
	for _, n := range nodes {
		if loc, ok := locateIn(n.Children, id, n.ID); ok {
			return loc, true
		}
	}
	return Location{}, false
}

// Update merges the patch into the node with the given ID and returns
// the new forest. The second result is false when the ID is absent,
// in which case the input forest is returned unchanged.
func (f Forest) Update(id string, p Patch) (Forest, bool) {
	return replaceIn(f, id, func(n *Node) *Node {
		return &Node{Category: p.Apply(n.Category), Children: n.Children}
	})
}

// Insert appends the category to the parent's child list, or to the
// root list when parentID is empty. A missing parent leaves the
// forest unchanged and returns false.
func (f Forest) Insert(parentID string, c Category) (Forest, bool) {
	child := &Node{Category: c.Clone()}
	if parentID == "" {
		out := make(Forest, 0, len(f)+1)
		out = append(out, f...)
		out = append(out, child)
		return out, true
	}
	return replaceIn(f, parentID, func(n *Node) *Node {
		kids := make([]*Node, 0, len(n.Children)+1)
		kids = append(kids, n.Children...)
		kids = append(kids, child)
		return &Node{Category: n.Category, Children: kids}
	})
}

// Remove filters the node with the given ID out of whichever list
// contains it, at any depth, preserving sibling order. Children of
// the removed node go with it; reconciling their fate is the
// backend's business.
func (f Forest) Remove(id string) (Forest, bool) {
	out, ok := removeIn(f, id)
	return out, ok
}

func removeIn(nodes []*Node, id string) ([]*Node, bool) {
	for i, n := range nodes {
		if n.ID == id {
			out := make([]*Node, 0, len(nodes)-1)
			out = append(out, nodes[:i]...)
			out = append(out, nodes[i+1:]...)
			return out, true
		}
	}
	for i, n := range nodes {
		if kids, ok := removeIn(n.Children, id); ok {
			out := append([]*Node(nil), nodes...)
			clone := *n
			clone.Children = kids
			out[i] = &clone
			return out, true
		}
	}
	return nodes, false
}

// Reorder overwrites the display order of every node named in the
// batch and stably re-sorts every level by display order. Batch
// entries for unknown IDs are ignored; nodes outside the batch keep
// their previous order value.
func (f Forest) Reorder(batch []OrderChange) Forest {
	orders := make(map[string]int, len(batch))
	for _, ch := range batch {
		orders[ch.ID] = ch.Order
	}
	return reorderIn(f, orders)
}

func reorderIn(nodes []*Node, orders map[string]int) []*Node {
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		clone := *n
		if o, ok := orders[n.ID]; ok {
			clone.DisplayOrder = o
		}
		clone.Children = reorderIn(n.Children, orders)
		out[i] = &clone
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out
}

// Sorted returns a copy of the forest with every level stably sorted
// by stored display order. Used when presenting freshly fetched data.
func (f Forest) Sorted() Forest {
	return reorderIn(f, nil)
}

// Flatten returns all categories depth-first, parents before
// children.
func (f Forest) Flatten() []Category {
	var out []Category
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			out = append(out, n.Category)
			walk(n.Children)
		}
	}
	walk(f)
	return out
}

// Size returns the total number of nodes in the forest.
func (f Forest) Size() int {
	total := 0
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		total += len(nodes)
		for _, n := range nodes {
			walk(n.Children)
		}
	}
	walk(f)
	return total
}

// replaceIn swaps the node with the given ID for the one produced by
// apply, cloning only the path from the root to it.
func replaceIn(nodes []*Node, id string, apply func(*Node) *Node) ([]*Node, bool) {
	for i, n := range nodes {
		if n.ID == id {
			out := append([]*Node(nil), nodes...)
			out[i] = apply(n)
			return out, true
		}
	}
	for i, n := range nodes {
		if kids, ok := replaceIn(n.Children, id, apply); ok {
			out := append([]*Node(nil), nodes...)
			clone := *n
			clone.Children = kids
			out[i] = &clone
			return out, true
		}
	}
	return nodes, false
}
