package core

import (
	"reflect"
	"testing"
)

func cat(id, parent string, order int) Category {
	return Category{
		ID:           id,
		Name:         "cat-" + id,
		ParentID:     parent,
		DisplayOrder: order,
		Group:        Discretionary,
	}
}

func TestBuildRoundTrip(t *testing.T) {
	records := []Category{
		cat("a", "", 0),
		cat("b", "", 1),
		cat("a1", "a", 0),
		cat("a2", "a", 1),
		cat("a1x", "a1", 0),
	}

	orderings := map[string][]Category{
		"input order":    records,
		"children first": {records[4], records[2], records[3], records[0], records[1]},
		"interleaved":    {records[1], records[4], records[0], records[3], records[2]},
	}

	for name, input := range orderings {
		t.Run(name, func(t *testing.T) {
			f := Build(input)
			flat := f.Flatten()
			if len(flat) != len(records) {
				t.Fatalf("flatten returned %d records, want %d", len(flat), len(records))
			}
			parents := make(map[string]string, len(flat))
			for _, c := range flat {
				if _, dup := parents[c.ID]; dup {
					t.Fatalf("id %q appears twice", c.ID)
				}
				parents[c.ID] = c.ParentID
			}
			for _, want := range records {
				got, ok := parents[want.ID]
				if !ok {
					t.Fatalf("id %q missing from flattened tree", want.ID)
				}
				if got != want.ParentID {
					t.Errorf("id %q parent = %q, want %q", want.ID, got, want.ParentID)
				}
			}
		})
	}
}

func TestBuildOrphanBecomesRoot(t *testing.T) {
	f := Build([]Category{
		cat("a", "", 0),
		cat("x", "nonexistent", 0),
	})
	if len(f) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(f))
	}
	if f[1].ID != "x" {
		t.Errorf("orphan should keep first-seen root position, got %q", f[1].ID)
	}
}

func TestBuildRootsFirstSeenOrder(t *testing.T) {
	f := Build([]Category{cat("c", "", 5), cat("a", "", 0), cat("b", "", 3)})
	got := []string{f[0].ID, f[1].ID, f[2].ID}
	want := []string{"c", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("root order = %v, want %v (no sorting at build time)", got, want)
	}
}

func TestUpdateShallowMerge(t *testing.T) {
	f := Build([]Category{cat("a", "", 0), cat("a1", "a", 0)})

	next, ok := f.Update("a1", Patch{Name: StringPtr("renamed")})
	if !ok {
		t.Fatal("expected update to find a1")
	}
	n, _ := next.Find("a1")
	if n.Name != "renamed" {
		t.Errorf("name = %q, want %q", n.Name, "renamed")
	}
	if n.Group != Discretionary {
		t.Errorf("omitted fields must be preserved, group = %q", n.Group)
	}

	// Original forest untouched.
	old, _ := f.Find("a1")
	if old.Name != "cat-a1" {
		t.Errorf("input forest mutated: name = %q", old.Name)
	}
}

func TestUpdateMissingIDIsNoop(t *testing.T) {
	f := Build([]Category{cat("a", "", 0)})
	next, ok := f.Update("ghost", Patch{Name: StringPtr("x")})
	if ok {
		t.Fatal("expected not-found")
	}
	if !reflect.DeepEqual(next.Flatten(), f.Flatten()) {
		t.Error("forest changed on missing id")
	}
}

func TestInsert(t *testing.T) {
	f := Build([]Category{cat("a", "", 0)})

	t.Run("into root list", func(t *testing.T) {
		next, ok := f.Insert("", cat("b", "", 1))
		if !ok || len(next) != 2 {
			t.Fatalf("ok=%v roots=%d", ok, len(next))
		}
		if len(f) != 1 {
			t.Error("input forest mutated")
		}
	})

	t.Run("into parent", func(t *testing.T) {
		next, ok := f.Insert("a", cat("a1", "a", 0))
		if !ok {
			t.Fatal("expected insert under a")
		}
		parent, _ := next.Find("a")
		if len(parent.Children) != 1 || parent.Children[0].ID != "a1" {
			t.Fatalf("child not appended: %+v", parent.Children)
		}
		orig, _ := f.Find("a")
		if len(orig.Children) != 0 {
			t.Error("input forest mutated")
		}
	})

	t.Run("missing parent leaves forest unchanged", func(t *testing.T) {
		next, ok := f.Insert("ghost", cat("a1", "ghost", 0))
		if ok {
			t.Fatal("expected not-found")
		}
		if !reflect.DeepEqual(next.Flatten(), f.Flatten()) {
			t.Error("forest changed on missing parent")
		}
	})
}

func TestRemovePreservesSiblingOrder(t *testing.T) {
	f := Build([]Category{
		cat("r", "", 0),
		cat("a", "r", 0),
		cat("b", "r", 1),
		cat("c", "r", 2),
	})

	next, ok := f.Remove("b")
	if !ok {
		t.Fatal("expected remove to find b")
	}
	root, _ := next.Find("r")
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(root.Children))
	}
	if root.Children[0].ID != "a" || root.Children[1].ID != "c" {
		t.Errorf("sibling order broken: %q, %q", root.Children[0].ID, root.Children[1].ID)
	}
	// Deletion alone does not renumber survivors.
	if root.Children[0].DisplayOrder != 0 || root.Children[1].DisplayOrder != 2 {
		t.Errorf("display orders changed: %d, %d",
			root.Children[0].DisplayOrder, root.Children[1].DisplayOrder)
	}

	orig, _ := f.Find("r")
	if len(orig.Children) != 3 {
		t.Error("input forest mutated")
	}
}

func TestRemoveMissingIDIsNoop(t *testing.T) {
	f := Build([]Category{cat("a", "", 0)})
	if _, ok := f.Remove("ghost"); ok {
		t.Error("expected not-found")
	}
}

func TestReorder(t *testing.T) {
	f := Build([]Category{
		cat("a", "", 0),
		cat("b", "", 1),
		cat("c", "", 2),
	})
	batch := []OrderChange{{ID: "a", Order: 2}, {ID: "b", Order: 0}, {ID: "c", Order: 1}}

	once := f.Reorder(batch)
	got := []string{once[0].ID, once[1].ID, once[2].ID}
	want := []string{"b", "c", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order after reorder = %v, want %v", got, want)
	}

	t.Run("idempotent", func(t *testing.T) {
		twice := once.Reorder(batch)
		if !reflect.DeepEqual(twice.Flatten(), once.Flatten()) {
			t.Error("applying the same batch twice changed the result")
		}
	})

	t.Run("unknown ids ignored", func(t *testing.T) {
		next := f.Reorder([]OrderChange{{ID: "ghost", Order: 9}})
		if !reflect.DeepEqual(next.Flatten(), f.Sorted().Flatten()) {
			t.Error("batch with unknown id changed node values")
		}
	})

	t.Run("nodes outside batch keep order", func(t *testing.T) {
		next := f.Reorder([]OrderChange{{ID: "a", Order: 5}})
		n, _ := next.Find("b")
		if n.DisplayOrder != 1 {
			t.Errorf("b order = %d, want 1", n.DisplayOrder)
		}
	})
}

func TestLocate(t *testing.T) {
	f := Build([]Category{
		cat("r", "", 0),
		cat("a", "r", 0),
		cat("b", "r", 1),
	})

	loc, ok := f.Locate("b")
	if !ok {
		t.Fatal("expected to locate b")
	}
	if loc.ParentID != "r" || loc.Index != 1 || len(loc.Siblings) != 2 {
		t.Errorf("location = %+v", loc)
	}

	loc, ok = f.Locate("r")
	if !ok || loc.ParentID != "" || loc.Index != 0 {
		t.Errorf("root location = %+v ok=%v", loc, ok)
	}

	if _, ok := f.Locate("ghost"); ok {
		t.Error("expected not-found")
	}
}
