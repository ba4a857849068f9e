package core

import "testing"

func TestResolveLimit(t *testing.T) {
	limits := func(cents int64) map[string]Money {
		return map[string]Money{"m1": {Cents: cents}}
	}

	tests := []struct {
		name         string
		node         *Node
		wantCents    int64
		wantEditable bool
		wantDerived  bool
	}{
		{
			name:         "leaf uses own value",
			node:         &Node{Category: Category{ID: "a", Limits: limits(500)}},
			wantCents:    500,
			wantEditable: true,
			wantDerived:  false,
		},
		{
			name:         "leaf with no stored limit is zero",
			node:         &Node{Category: Category{ID: "a"}},
			wantCents:    0,
			wantEditable: true,
			wantDerived:  false,
		},
		{
			name: "sum mode parent sums immediate children",
			node: &Node{
				Category: Category{ID: "p", Limits: limits(9999)},
				Children: []*Node{
					{Category: Category{ID: "c1", Limits: limits(100)}},
					{Category: Category{ID: "c2", Limits: limits(250)}},
				},
			},
			wantCents:    350,
			wantEditable: false,
			wantDerived:  true,
		},
		{
			name: "group budget parent uses own value regardless of children",
			node: &Node{
				Category: Category{ID: "p", IsGroupBudget: true, Limits: limits(1200)},
				Children: []*Node{
					{Category: Category{ID: "c1", Limits: limits(100)}},
				},
			},
			wantCents:    1200,
			wantEditable: true,
			wantDerived:  false,
		},
		{
			name: "grandchildren do not fold into the sum",
			node: &Node{
				Category: Category{ID: "p"},
				Children: []*Node{
					{
						Category: Category{ID: "c1", Limits: limits(100)},
						Children: []*Node{
							{Category: Category{ID: "g1", Limits: limits(7000)}},
						},
					},
				},
			},
			wantCents:    100,
			wantEditable: false,
			wantDerived:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveLimit(tt.node, "m1")
			if got.Value.Cents != tt.wantCents {
				t.Errorf("value = %d cents, want %d", got.Value.Cents, tt.wantCents)
			}
			if got.Editable != tt.wantEditable {
				t.Errorf("editable = %v, want %v", got.Editable, tt.wantEditable)
			}
			if got.Derived != tt.wantDerived {
				t.Errorf("derived = %v, want %v", got.Derived, tt.wantDerived)
			}
		})
	}
}

func TestResolveTotal(t *testing.T) {
	n := &Node{Category: Category{
		ID: "a",
		Limits: map[string]Money{
			"m1": {Cents: 100},
			"m2": {Cents: 200},
		},
	}}
	got := ResolveTotal(n, []string{"m1", "m2", "m3"})
	if got.Cents != 300 {
		t.Errorf("total = %d, want 300", got.Cents)
	}
}
