package core

// Patch is a partial category update. Nil fields are left untouched;
// set fields override. ParentID pointing at an empty string moves the
// category to the root level.
type Patch struct {
	Name          *string          `json:"name,omitempty"`
	ParentID      *string          `json:"parent_id,omitempty"`
	DisplayOrder  *int             `json:"display_order,omitempty"`
	Group         *Group           `json:"group,omitempty"`
	IsGroupBudget *bool            `json:"is_group_budget,omitempty"`
	Limits        map[string]Money `json:"limits,omitempty"`
	Tags          *[]string        `json:"tags,omitempty"`
	IsShared      *bool            `json:"is_shared,omitempty"`
	IsRollover    *bool            `json:"is_rollover,omitempty"`
	IsHidden      *bool            `json:"is_hidden,omitempty"`
	Icon          *string          `json:"icon,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p Patch) IsZero() bool {
	return p.Name == nil && p.ParentID == nil && p.DisplayOrder == nil &&
		p.Group == nil && p.IsGroupBudget == nil && p.Limits == nil &&
		p.Tags == nil && p.IsShared == nil && p.IsRollover == nil &&
		p.IsHidden == nil && p.Icon == nil
}

// Apply merges the patch into a copy of c and returns it. The input
// is never modified.
func (p Patch) Apply(c Category) Category {
	out := c.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.ParentID != nil {
		out.ParentID = *p.ParentID
	}
	if p.DisplayOrder != nil {
		out.DisplayOrder = *p.DisplayOrder
	}
	if p.Group != nil {
		out.Group = *p.Group
	}
	if p.IsGroupBudget != nil {
		out.IsGroupBudget = *p.IsGroupBudget
	}
	if p.Limits != nil {
		out.Limits = make(map[string]Money, len(p.Limits))
		for k, v := range p.Limits {
			out.Limits[k] = v
		}
	}
	if p.Tags != nil {
		out.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.IsShared != nil {
		out.IsShared = *p.IsShared
	}
	if p.IsRollover != nil {
		out.IsRollover = *p.IsRollover
	}
	if p.IsHidden != nil {
		out.IsHidden = *p.IsHidden
	}
	if p.Icon != nil {
		out.Icon = *p.Icon
	}
	return out
}

// Helpers for building patches without intermediate variables.

func StringPtr(s string) *string { return &s }
func IntPtr(i int) *int          { return &i }
func BoolPtr(b bool) *bool       { return &b }
func GroupPtr(g Group) *Group    { return &g }
