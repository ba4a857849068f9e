package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"buckets/internal/cache"
	"buckets/internal/catalog/memory"
	"buckets/internal/core"
	"buckets/internal/services"
)

func testServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()

	store := memory.New([]core.Category{
		{ID: "home", Name: "Home", Group: core.NonDiscretionary, DisplayOrder: 0},
		{ID: "rent", Name: "Rent", ParentID: "home", Group: core.NonDiscretionary, DisplayOrder: 0,
			Limits: map[string]core.Money{"m1": {Cents: 120000}}},
		{ID: "power", Name: "Power", ParentID: "home", Group: core.NonDiscretionary, DisplayOrder: 1,
			Limits: map[string]core.Money{"m1": {Cents: 8000}}, Tags: []string{"utilities"}},
		{ID: "fun", Name: "Fun", Group: core.Discretionary, DisplayOrder: 1},
		{ID: "sys", Name: "Transfers", Group: core.NonDiscretionary, DisplayOrder: 2, IsTransfer: true},
	}, []core.Member{
		{ID: "m1", Name: "Alice", Color: "#ff0000"},
	})

	coordinator := services.NewCoordinator(cache.NewStore[core.Forest](), store, nil)
	srv := NewServer(":0", coordinator, store, store)
	t.Cleanup(func() { srv.rateLimiter.stop(); close(srv.stopCacheCleanup) })
	return srv, store
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestTreeResolvesDerivedLimits(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/categories/tree", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var tree []treeNodeJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &tree); err != nil {
		t.Fatal(err)
	}
	if len(tree) != 3 {
		t.Fatalf("root count = %d, want 3", len(tree))
	}

	home := tree[0]
	if home.ID != "home" {
		t.Fatalf("first root = %s", home.ID)
	}
	// Sum-mode parent: derived, read-only, immediate children only.
	if home.Limit.Cents != 128000 || !home.Limit.Derived || home.Limit.Editable {
		t.Errorf("home limit = %+v", home.Limit)
	}
	if len(home.Children) != 2 {
		t.Fatalf("home children = %d", len(home.Children))
	}
	rent := home.Children[0]
	if rent.Limit.Cents != 120000 || rent.Limit.Derived || !rent.Limit.Editable {
		t.Errorf("rent limit = %+v", rent.Limit)
	}
}

func TestLimitsEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/categories/home/limits", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp struct {
		ID         string               `json:"id"`
		Members    map[string]limitJSON `json:"members"`
		TotalCents int64                `json:"total_cents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	m1 := resp.Members["m1"]
	if m1.Cents != 128000 || !m1.Derived || m1.Editable {
		t.Errorf("m1 limit = %+v", m1)
	}
	if resp.TotalCents != 128000 {
		t.Errorf("total = %d", resp.TotalCents)
	}

	rec = doRequest(t, srv, http.MethodGet, "/categories/ghost/limits", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
}

func TestCreateCategoryRoundTrip(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/categories", categoryJSON{
		Name:     "Garden",
		ParentID: "home",
		Group:    "non_discretionary",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var created categoryJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || strings.HasPrefix(created.ID, "tmp_") {
		t.Errorf("created id = %q", created.ID)
	}

	rec = doRequest(t, srv, http.MethodGet, "/categories", nil)
	if !strings.Contains(rec.Body.String(), created.ID) {
		t.Error("created category missing from list")
	}
}

func TestCreateCategoryValidation(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/categories", categoryJSON{
		Name:  "",
		Group: "discretionary",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader("not json"))
	rw := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rw, req)
	if rw.Code != http.StatusBadRequest {
		t.Errorf("garbage body status = %d, want 400", rw.Code)
	}
}

func TestUpdateCategory(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodPatch, "/categories/fun", map[string]any{"name": "Leisure"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var updated categoryJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Leisure" {
		t.Errorf("name = %q", updated.Name)
	}

	rec = doRequest(t, srv, http.MethodPatch, "/categories/ghost", map[string]any{"name": "X"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPatch, "/categories/fun", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty patch status = %d, want 400", rec.Code)
	}
}

func TestDeleteCategory(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodDelete, "/categories/power", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/categories/sys", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("protected delete status = %d, want 409", rec.Code)
	}
}

func TestReorderEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/categories/reorder", []core.OrderChange{
		{ID: "fun", Order: 0},
		{ID: "home", Order: 1},
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = doRequest(t, srv, http.MethodGet, "/categories/tree", nil)
	var tree []treeNodeJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &tree); err != nil {
		t.Fatal(err)
	}
	if tree[0].ID != "fun" {
		t.Errorf("first root after reorder = %s", tree[0].ID)
	}
}

func TestMoveEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/categories/power/move", map[string]string{"direction": "up"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = doRequest(t, srv, http.MethodPost, "/categories/power/move", map[string]string{"direction": "sideways"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad direction status = %d, want 400", rec.Code)
	}

	// Boundary move is accepted and does nothing.
	rec = doRequest(t, srv, http.MethodPost, "/categories/power/move", map[string]string{"direction": "up"})
	if rec.Code != http.StatusNoContent {
		t.Errorf("boundary move status = %d, want 204", rec.Code)
	}
}

func TestDragEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/categories/drag", map[string]string{
		"moved_id": "rent", "target_id": "power",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = doRequest(t, srv, http.MethodPost, "/categories/drag", map[string]string{"moved_id": "rent"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing target status = %d, want 400", rec.Code)
	}
}

func TestMembersAndTags(t *testing.T) {
	srv, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/members", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Alice") {
		t.Errorf("members: status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = doRequest(t, srv, http.MethodGet, "/tags", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "utilities") {
		t.Errorf("tags: status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := testServer(t)

	if rec := doRequest(t, srv, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
	if rec := doRequest(t, srv, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Errorf("readyz = %d", rec.Code)
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	srv, _ := testServer(t)

	last := 0
	for i := 0; i < 61; i++ {
		rec := doRequest(t, srv, http.MethodPost, "/categories", categoryJSON{
			Name:  fmt.Sprintf("cat-%d", i),
			Group: "discretionary",
		})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("61st mutation status = %d, want 429", last)
	}

	// Reads stay unthrottled.
	if rec := doRequest(t, srv, http.MethodGet, "/categories/tree", nil); rec.Code != http.StatusOK {
		t.Errorf("read under throttle = %d", rec.Code)
	}
}
