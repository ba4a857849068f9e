package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"buckets/internal/catalog"
	"buckets/internal/core"
	"buckets/internal/services"
)

// categoryJSON is the wire shape of a category record. Limits are
// cents per member.
type categoryJSON struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	ParentID      string           `json:"parent_id,omitempty"`
	DisplayOrder  int              `json:"display_order"`
	Group         string           `json:"group"`
	IsGroupBudget bool             `json:"is_group_budget"`
	Limits        map[string]int64 `json:"limits,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
	IsShared      bool             `json:"is_shared"`
	IsRollover    bool             `json:"is_rollover"`
	IsHidden      bool             `json:"is_hidden"`
	IsTransfer    bool             `json:"is_transfer"`
	IsInvestment  bool             `json:"is_investment"`
	Icon          string           `json:"icon,omitempty"`
}

// limitJSON is the resolved effective limit of a tree node: sum-mode
// parents report a derived, read-only value.
type limitJSON struct {
	Cents    int64 `json:"cents"`
	Editable bool  `json:"editable"`
	Derived  bool  `json:"derived"`
}

type treeNodeJSON struct {
	categoryJSON
	Limit    limitJSON      `json:"limit"`
	Children []treeNodeJSON `json:"children"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	out := categoryJSON{
		ID:            c.ID,
		Name:          c.Name,
		ParentID:      c.ParentID,
		DisplayOrder:  c.DisplayOrder,
		Group:         c.Group.String(),
		IsGroupBudget: c.IsGroupBudget,
		Tags:          c.Tags,
		IsShared:      c.IsShared,
		IsRollover:    c.IsRollover,
		IsHidden:      c.IsHidden,
		IsTransfer:    c.IsTransfer,
		IsInvestment:  c.IsInvestment,
		Icon:          c.Icon,
	}
	if len(c.Limits) > 0 {
		out.Limits = make(map[string]int64, len(c.Limits))
		for k, v := range c.Limits {
			out.Limits[k] = v.Cents
		}
	}
	return out
}

func fromCategoryJSON(in categoryJSON) core.Category {
	c := core.Category{
		ID:            in.ID,
		Name:          in.Name,
		ParentID:      in.ParentID,
		DisplayOrder:  in.DisplayOrder,
		Group:         core.Group(in.Group),
		IsGroupBudget: in.IsGroupBudget,
		Tags:          in.Tags,
		IsShared:      in.IsShared,
		IsRollover:    in.IsRollover,
		IsHidden:      in.IsHidden,
		IsTransfer:    in.IsTransfer,
		IsInvestment:  in.IsInvestment,
		Icon:          in.Icon,
	}
	if len(in.Limits) > 0 {
		c.Limits = make(map[string]core.Money, len(in.Limits))
		for k, v := range in.Limits {
			c.Limits[k] = core.Money{Cents: v}
		}
	}
	return c
}

func toTreeJSON(nodes []*core.Node, memberIDs []string) []treeNodeJSON {
	out := make([]treeNodeJSON, len(nodes))
	for i, n := range nodes {
		resolved := core.ResolveTotal(n, memberIDs)
		editable := len(n.Children) == 0 || n.IsGroupBudget
		out[i] = treeNodeJSON{
			categoryJSON: toCategoryJSON(n.Category),
			Limit: limitJSON{
				Cents:    resolved.Cents,
				Editable: editable,
				Derived:  !editable,
			},
			Children: toTreeJSON(n.Children, memberIDs),
		}
	}
	return out
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	forest, err := s.coordinator.Forest(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	members, err := s.cachedMembers(r)
	if err != nil {
		slog.WarnContext(r.Context(), "Roster lookup failed, tree limits unresolved", "error", err)
	}
	memberIDs := make([]string, len(members))
	for i, m := range members {
		memberIDs[i] = m.ID
	}

	writeJSON(w, http.StatusOK, toTreeJSON(forest, memberIDs))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	forest, err := s.coordinator.Forest(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	flat := forest.Flatten()
	out := make([]categoryJSON, len(flat))
	for i, c := range flat {
		out[i] = toCategoryJSON(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleLimits resolves the effective limit of one category per
// member. An optional ?member= query restricts the response to a
// single member.
func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	forest, err := s.coordinator.Forest(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	node, ok := forest.Find(id)
	if !ok {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	members, err := s.cachedMembers(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	memberIDs := make([]string, 0, len(members))
	if filter := r.URL.Query().Get("member"); filter != "" {
		memberIDs = append(memberIDs, filter)
	} else {
		for _, m := range members {
			memberIDs = append(memberIDs, m.ID)
		}
	}

	perMember := make(map[string]limitJSON, len(memberIDs))
	for _, memberID := range memberIDs {
		resolved := core.ResolveLimit(node, memberID)
		perMember[memberID] = limitJSON{
			Cents:    resolved.Value.Cents,
			Editable: resolved.Editable,
			Derived:  resolved.Derived,
		}
	}

	writeJSON(w, http.StatusOK, struct {
		ID         string               `json:"id"`
		Members    map[string]limitJSON `json:"members"`
		TotalCents int64                `json:"total_cents"`
	}{
		ID:         id,
		Members:    perMember,
		TotalCents: core.ResolveTotal(node, memberIDs).Cents,
	})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	record := fromCategoryJSON(req)
	record.ID = "" // server-issued
	if err := record.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.coordinator.Create(r.Context(), record)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.tagCache.Delete("tags")
	writeJSON(w, http.StatusCreated, toCategoryJSON(created))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch core.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if patch.IsZero() {
		writeError(w, http.StatusBadRequest, "empty patch")
		return
	}

	updated, err := s.coordinator.Update(r.Context(), id, patch)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.tagCache.Delete("tags")
	writeJSON(w, http.StatusOK, toCategoryJSON(updated))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.coordinator.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.tagCache.Delete("tags")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var batch []core.OrderChange
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.coordinator.Reorder(r.Context(), batch); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var dir services.Direction
	switch req.Direction {
	case "up":
		dir = services.MoveUp
	case "down":
		dir = services.MoveDown
	default:
		writeError(w, http.StatusBadRequest, "direction must be 'up' or 'down'")
		return
	}

	if err := s.coordinator.Move(r.Context(), id, dir); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MovedID  string `json:"moved_id"`
		TargetID string `json:"target_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MovedID == "" || req.TargetID == "" {
		writeError(w, http.StatusBadRequest, "moved_id and target_id are required")
		return
	}

	if err := s.coordinator.Drag(r.Context(), req.MovedID, req.TargetID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.cachedMembers(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	if tags, ok := s.tagCache.Get("tags"); ok {
		writeJSON(w, http.StatusOK, tags)
		return
	}
	tags, err := s.tags.ListTags(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	s.tagCache.Set("tags", tags)
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) cachedMembers(r *http.Request) ([]core.Member, error) {
	if members, ok := s.memberCache.Get("members"); ok {
		return members, nil
	}
	members, err := s.roster.ListMembers(r.Context())
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []core.Member{}
	}
	s.memberCache.Set("members", members)
	return members, nil
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, catalog.ErrProtected):
		writeError(w, http.StatusConflict, "category is system-managed")
	case errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidGroup),
		errors.Is(err, core.ErrDuplicateTag),
		errors.Is(err, core.ErrNegativeAmount),
		errors.Is(err, core.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
