// Package memory is the in-process category backend used in dev mode
// and as the test double for the coordinator and the HTTP layer.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"buckets/internal/catalog"
	"buckets/internal/core"
)

type Store struct {
	mu      sync.Mutex
	cats    []core.Category
	members []core.Member
	tags    []string
}

// New returns a store seeded with the given records.
func New(cats []core.Category, members []core.Member) *Store {
	s := &Store{}
	for _, c := range cats {
		s.cats = append(s.cats, c.Clone())
	}
	s.members = append(s.members, members...)
	s.rebuildTags()
	return s
}

// NewFromFiles seeds members from a plain-text file under base and
// starts with a minimal default hierarchy when no seed exists.
func NewFromFiles(base string) *Store {
	members := readMembers(filepath.Join(base, "seed_members.txt"))
	if len(members) == 0 {
		members = []core.Member{
			{ID: "m1", Name: "Alex", Color: "#4e79a7"},
			{ID: "m2", Name: "Sam", Color: "#f28e2b"},
		}
	}
	cats := defaultCategories()
	return New(cats, members)
}

func defaultCategories() []core.Category {
	home := core.Category{ID: core.NewID(), Name: "Home", Group: core.NonDiscretionary, IsShared: true}
	fun := core.Category{ID: core.NewID(), Name: "Fun", Group: core.Discretionary, DisplayOrder: 1}
	return []core.Category{
		home,
		fun,
		{ID: core.NewID(), Name: "Rent", ParentID: home.ID, Group: core.NonDiscretionary, IsShared: true},
		{ID: core.NewID(), Name: "Utilities", ParentID: home.ID, Group: core.NonDiscretionary, DisplayOrder: 1, IsShared: true},
		{ID: core.NewID(), Name: "Transfers", Group: core.NonDiscretionary, DisplayOrder: 2, IsTransfer: true, IsHidden: true},
	}
}

var (
	_ catalog.Service      = (*Store)(nil)
	_ catalog.RosterReader = (*Store)(nil)
	_ catalog.TagReader    = (*Store)(nil)
)

// Fetch returns a copy of all category records.
func (s *Store) Fetch(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, len(s.cats))
	for i, c := range s.cats {
		out[i] = c.Clone()
	}
	return out, nil
}

// Create stores the record under a fresh server-issued ID.
func (s *Store) Create(_ context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := c.Clone()
	stored.ID = core.NewID()
	s.cats = append(s.cats, stored)
	s.rebuildTags()
	return stored.Clone(), nil
}

// Update merges the patch into the stored record.
func (s *Store) Update(_ context.Context, id string, p core.Patch) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.cats {
		if c.ID == id {
			merged := p.Apply(c)
			if err := merged.Validate(); err != nil {
				return core.Category{}, err
			}
			s.cats[i] = merged
			s.rebuildTags()
			return merged.Clone(), nil
		}
	}
	return core.Category{}, catalog.ErrNotFound
}

// Delete removes the record; children of the removed record are
// re-rooted, mirroring the SQLite backend's ON DELETE behavior.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, c := range s.cats {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return catalog.ErrNotFound
	}
	if s.cats[idx].Protected() {
		return catalog.ErrProtected
	}
	s.cats = append(s.cats[:idx], s.cats[idx+1:]...)
	for i := range s.cats {
		if s.cats[i].ParentID == id {
			s.cats[i].ParentID = ""
		}
	}
	s.rebuildTags()
	return nil
}

// Reorder persists the given order values verbatim; unknown IDs are
// ignored.
func (s *Store) Reorder(_ context.Context, batch []core.OrderChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := make(map[string]int, len(batch))
	for _, ch := range batch {
		orders[ch.ID] = ch.Order
	}
	for i := range s.cats {
		if o, ok := orders[s.cats[i].ID]; ok {
			s.cats[i].DisplayOrder = o
		}
	}
	return nil
}

// ListMembers returns the seeded household members.
func (s *Store) ListMembers(_ context.Context) ([]core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Member(nil), s.members...), nil
}

// ListTags returns every tag name used by any category, deduplicated
// case-insensitively.
func (s *Store) ListTags(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tags...), nil
}

func (s *Store) rebuildTags() {
	seen := map[string]struct{}{}
	var tags []string
	for _, c := range s.cats {
		for _, tag := range c.Tags {
			key := strings.ToLower(tag)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			tags = append(tags, tag)
		}
	}
	s.tags = tags
}

func readMembers(path string) []core.Member {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Member
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// id|name|color per line; trailing fields optional
		parts := strings.Split(line, "|")
		m := core.Member{ID: parts[0], Name: parts[0]}
		if len(parts) > 1 {
			m.Name = parts[1]
		}
		if len(parts) > 2 {
			m.Color = parts[2]
		}
		out = append(out, m)
	}
	return out
}
