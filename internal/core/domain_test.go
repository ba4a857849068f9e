package core

import (
	"errors"
	"strings"
	"testing"
)

func TestCategoryValidate(t *testing.T) {
	valid := Category{ID: "a", Name: "Groceries", Group: NonDiscretionary}

	tests := []struct {
		name    string
		mutate  func(c *Category)
		wantErr error
	}{
		{"valid", func(c *Category) {}, nil},
		{"empty name", func(c *Category) { c.Name = "  " }, ErrEmptyName},
		{"bad group", func(c *Category) { c.Group = "weird" }, ErrInvalidGroup},
		{"duplicate tag differs only by case", func(c *Category) {
			c.Tags = []string{"Food", "food"}
		}, ErrDuplicateTag},
		{"negative limit", func(c *Category) {
			c.Limits = map[string]Money{"m1": {Cents: -1}}
		}, ErrNegativeAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid.Clone()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewChildInheritsGroupAndSharing(t *testing.T) {
	parent := Category{ID: "p", Name: "Home", Group: NonDiscretionary, IsShared: true}
	child := NewChild(parent)
	if child.ParentID != "p" {
		t.Errorf("parent = %q", child.ParentID)
	}
	if child.Group != NonDiscretionary {
		t.Errorf("group = %q, want parent's", child.Group)
	}
	if !child.IsShared {
		t.Error("sharing flag not inherited")
	}
	if !IsTempID(child.ID) {
		t.Errorf("expected a temp id, got %q", child.ID)
	}
}

func TestTempIDs(t *testing.T) {
	if !IsTempID(NewTempID()) {
		t.Error("NewTempID must be recognizable")
	}
	if IsTempID(NewID()) {
		t.Error("server ids must not look temporary")
	}
	if NewTempID() == NewTempID() {
		t.Error("temp ids must be unique")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := Category{
		ID:     "a",
		Name:   "Travel",
		Group:  Discretionary,
		Limits: map[string]Money{"m1": {Cents: 100}},
		Tags:   []string{"fun"},
	}
	copied := orig.Clone()
	copied.Limits["m1"] = Money{Cents: 999}
	copied.Tags[0] = strings.ToUpper(copied.Tags[0])

	if orig.Limits["m1"].Cents != 100 {
		t.Error("clone shares limits map")
	}
	if orig.Tags[0] != "fun" {
		t.Error("clone shares tags slice")
	}
}

func TestProtected(t *testing.T) {
	if (Category{IsTransfer: true}).Protected() != true {
		t.Error("transfer nodes are protected")
	}
	if (Category{IsInvestment: true}).Protected() != true {
		t.Error("investment nodes are protected")
	}
	if (Category{}).Protected() {
		t.Error("ordinary nodes are not protected")
	}
}
