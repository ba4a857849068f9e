package core

// Limit is the effective per-member limit shown for a node, together
// with whether the cell is editable and whether the value was derived
// from children rather than stored on the node itself.
type Limit struct {
	Value    Money
	Editable bool
	Derived  bool
}

// ResolveLimit computes the effective limit of a node for one member.
//
// Leaves and group-budget parents report their own stored value and
// stay editable. A parent without the group-budget flag reports the
// sum of its immediate children's stored values and is read-only.
// Grandchildren are deliberately not folded into the sum: aggregation
// stops one level down, so a deeper hierarchy contributes only
// through what its intermediate nodes store themselves.
func ResolveLimit(n *Node, memberID string) Limit {
	if len(n.Children) == 0 || n.IsGroupBudget {
		return Limit{Value: n.Limit(memberID), Editable: true, Derived: false}
	}
	var sum Money
	for _, child := range n.Children {
		sum = sum.Add(child.Limit(memberID))
	}
	return Limit{Value: sum, Editable: false, Derived: true}
}

// ResolveTotal sums the effective limits of a node across the given
// members, useful for the shared-household column of the dashboard.
func ResolveTotal(n *Node, memberIDs []string) Money {
	var sum Money
	for _, id := range memberIDs {
		sum = sum.Add(ResolveLimit(n, id).Value)
	}
	return sum
}
