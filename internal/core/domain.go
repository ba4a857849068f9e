package core

import (
	"errors"
	"strings"
)

const (
	Income           Group = "income"
	NonDiscretionary Group = "non_discretionary"
	Discretionary    Group = "discretionary"
)

type (
	// Group is the top-level bucketing of a category.
	Group string

	Money struct {
		Cents int64
	}

	// Category is a budgeting bucket. ParentID is empty for roots.
	// Limits map member IDs to per-member spending limits; absent
	// entries mean zero.
	Category struct {
		ID            string
		Name          string
		ParentID      string
		DisplayOrder  int
		Group         Group
		IsGroupBudget bool
		Limits        map[string]Money
		Tags          []string
		IsShared      bool
		IsRollover    bool
		IsHidden      bool
		IsTransfer    bool
		IsInvestment  bool
		Icon          string
	}

	// Member is a household member, read-only in this service.
	Member struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Color  string `json:"color,omitempty"`
		Avatar string `json:"avatar,omitempty"`
	}

	// OrderChange assigns a new sibling position to one category.
	OrderChange struct {
		ID    string `json:"id"`
		Order int    `json:"order"`
	}
)

var (
	ErrEmptyName      = errors.New("empty category name")
	ErrInvalidGroup   = errors.New("invalid category group")
	ErrDuplicateTag   = errors.New("duplicate tag")
	ErrNegativeAmount = errors.New("negative amount")
)

// IsValid reports whether g is one of the known groups.
func (g Group) IsValid() bool {
	switch g {
	case Income, NonDiscretionary, Discretionary:
		return true
	default:
		return false
	}
}

func (g Group) String() string {
	return string(g)
}

// Protected reports whether the category is system-managed and must
// never be deleted.
func (c Category) Protected() bool {
	return c.IsTransfer || c.IsInvestment
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	if !c.Group.IsValid() {
		return ErrInvalidGroup
	}
	seen := make(map[string]struct{}, len(c.Tags))
	for _, tag := range c.Tags {
		key := strings.ToLower(strings.TrimSpace(tag))
		if key == "" {
			return errors.New("empty tag")
		}
		if _, ok := seen[key]; ok {
			return ErrDuplicateTag
		}
		seen[key] = struct{}{}
	}
	for _, limit := range c.Limits {
		if limit.Cents < 0 {
			return ErrNegativeAmount
		}
	}
	return nil
}

// Limit returns the category's own stored limit for a member.
// Absent entries are zero.
func (c Category) Limit(memberID string) Money {
	return c.Limits[memberID]
}

// HasTag reports whether the category carries the tag, compared
// case-insensitively.
func (c Category) HasTag(tag string) bool {
	key := strings.ToLower(strings.TrimSpace(tag))
	for _, t := range c.Tags {
		if strings.ToLower(t) == key {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the category. Limits and Tags are
// copied so callers can mutate the result freely.
func (c Category) Clone() Category {
	out := c
	if c.Limits != nil {
		out.Limits = make(map[string]Money, len(c.Limits))
		for k, v := range c.Limits {
			out.Limits[k] = v
		}
	}
	if c.Tags != nil {
		out.Tags = append([]string(nil), c.Tags...)
	}
	return out
}

// NewChild returns a fresh sub-category initialized the way the
// dashboard creates one: default name, the parent's group, and the
// parent's sharing flag.
func NewChild(parent Category) Category {
	return Category{
		ID:       NewTempID(),
		Name:     "New category",
		ParentID: parent.ID,
		Group:    parent.Group,
		IsShared: parent.IsShared,
	}
}

// NewRoot returns a fresh root category in the given group.
func NewRoot(group Group) Category {
	return Category{
		ID:    NewTempID(),
		Name:  "New category",
		Group: group,
	}
}
