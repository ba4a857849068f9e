package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"buckets/internal/catalog"
	"buckets/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestCreateAndFetchRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, core.Category{
		Name:  "Groceries",
		Group: core.NonDiscretionary,
		Limits: map[string]core.Money{
			"m1": {Cents: 40000},
		},
		Tags: []string{"food"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || core.IsTempID(created.ID) {
		t.Errorf("server must issue a real id, got %q", created.ID)
	}

	all, err := repo.Fetch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("fetched %d categories, want 1", len(all))
	}
	got := all[0]
	if got.Name != "Groceries" || got.Limits["m1"].Cents != 40000 || len(got.Tags) != 1 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestCreateReplacesTempID(t *testing.T) {
	repo := testRepo(t)

	created, err := repo.Create(context.Background(), core.Category{
		ID:    core.NewTempID(),
		Name:  "Fun",
		Group: core.Discretionary,
	})
	if err != nil {
		t.Fatal(err)
	}
	if core.IsTempID(created.ID) {
		t.Errorf("temporary id survived create: %q", created.ID)
	}
}

func TestUpdateMergesAndValidates(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, core.Category{Name: "Bills", Group: core.NonDiscretionary})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := repo.Update(ctx, created.ID, core.Patch{Name: core.StringPtr("Utilities")})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Utilities" || updated.Group != core.NonDiscretionary {
		t.Errorf("merge mismatch: %+v", updated)
	}

	if _, err := repo.Update(ctx, created.ID, core.Patch{Name: core.StringPtr("")}); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("err = %v, want ErrEmptyName", err)
	}

	if _, err := repo.Update(ctx, "missing", core.Patch{Name: core.StringPtr("x")}); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteReRootsChildren(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	parent, err := repo.Create(ctx, core.Category{Name: "Home", Group: core.NonDiscretionary})
	if err != nil {
		t.Fatal(err)
	}
	child, err := repo.Create(ctx, core.Category{Name: "Rent", ParentID: parent.ID, Group: core.NonDiscretionary})
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.Delete(ctx, parent.ID); err != nil {
		t.Fatal(err)
	}

	all, err := repo.Fetch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].ID != child.ID || all[0].ParentID != "" {
		t.Errorf("child not re-rooted: %+v", all)
	}
}

func TestDeleteProtected(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	sys, err := repo.Create(ctx, core.Category{
		Name: "Transfers", Group: core.NonDiscretionary, IsTransfer: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, sys.ID); !errors.Is(err, catalog.ErrProtected) {
		t.Errorf("err = %v, want ErrProtected", err)
	}
}

func TestReorderIgnoresUnknownIDs(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	a, _ := repo.Create(ctx, core.Category{Name: "A", Group: core.Discretionary, DisplayOrder: 0})
	b, _ := repo.Create(ctx, core.Category{Name: "B", Group: core.Discretionary, DisplayOrder: 1})

	err := repo.Reorder(ctx, []core.OrderChange{
		{ID: b.ID, Order: 0},
		{ID: a.ID, Order: 1},
		{ID: "ghost", Order: 9},
	})
	if err != nil {
		t.Fatal(err)
	}

	all, err := repo.Fetch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].ID != b.ID || all[1].ID != a.ID {
		t.Errorf("order after reorder: %+v", all)
	}
}

func TestListMembersAndTags(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if err := repo.UpsertMember(ctx, core.Member{ID: "m1", Name: "Alice", Color: "#ff0000"}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Create(ctx, core.Category{
		Name: "Travel", Group: core.Discretionary, Tags: []string{"fun", "summer"},
	}); err != nil {
		t.Fatal(err)
	}

	members, err := repo.ListMembers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 1 || members[0].Name != "Alice" {
		t.Errorf("members = %+v", members)
	}

	tags, err := repo.ListTags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 || tags[0] != "fun" || tags[1] != "summer" {
		t.Errorf("tags = %v", tags)
	}
}
