// Package rest is a JSON client for a remote category persistence
// service. It is transport-only: all tree semantics live on the
// client side, the service just owns the records.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"buckets/internal/catalog"
	"buckets/internal/core"
)

type Client struct {
	base string
	http *http.Client
}

var (
	_ catalog.Service      = (*Client)(nil)
	_ catalog.RosterReader = (*Client)(nil)
	_ catalog.TagReader    = (*Client)(nil)
)

// New returns a client for the service rooted at baseURL.
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// categoryDTO is the wire shape of a category record.
type categoryDTO struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	ParentID      string                `json:"parent_id,omitempty"`
	DisplayOrder  int                   `json:"display_order"`
	Group         string                `json:"group"`
	IsGroupBudget bool                  `json:"is_group_budget"`
	Limits        map[string]int64      `json:"limits,omitempty"`
	Tags          []string              `json:"tags,omitempty"`
	IsShared      bool                  `json:"is_shared"`
	IsRollover    bool                  `json:"is_rollover"`
	IsHidden      bool                  `json:"is_hidden"`
	IsTransfer    bool                  `json:"is_transfer"`
	IsInvestment  bool                  `json:"is_investment"`
	Icon          string                `json:"icon,omitempty"`
}

func toDTO(c core.Category) categoryDTO {
	dto := categoryDTO{
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
		dto.Limits = make(map[string]int64, len(c.Limits))
		for k, v := range c.Limits {
			dto.Limits[k] = v.Cents
		}
	}
	return dto
}

func fromDTO(dto categoryDTO) core.Category {
	c := core.Category{
		ID:            dto.ID,
		Name:          dto.Name,
		ParentID:      dto.ParentID,
		DisplayOrder:  dto.DisplayOrder,
		Group:         core.Group(dto.Group),
		IsGroupBudget: dto.IsGroupBudget,
		Tags:          dto.Tags,
		IsShared:      dto.IsShared,
		IsRollover:    dto.IsRollover,
		IsHidden:      dto.IsHidden,
		IsTransfer:    dto.IsTransfer,
		IsInvestment:  dto.IsInvestment,
		Icon:          dto.Icon,
	}
	if len(dto.Limits) > 0 {
		c.Limits = make(map[string]core.Money, len(dto.Limits))
		for k, v := range dto.Limits {
			c.Limits[k] = core.Money{Cents: v}
		}
	}
	return c
}

func (c *Client) Fetch(ctx context.Context) ([]core.Category, error) {
	var dtos []categoryDTO
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &dtos); err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	out := make([]core.Category, len(dtos))
	for i, dto := range dtos {
		out[i] = fromDTO(dto)
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, cat core.Category) (core.Category, error) {
	var created categoryDTO
	if err := c.do(ctx, http.MethodPost, "/categories", toDTO(cat), &created); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return fromDTO(created), nil
}

func (c *Client) Update(ctx context.Context, id string, p core.Patch) (core.Category, error) {
	var updated categoryDTO
	path := "/categories/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPatch, path, p, &updated); err != nil {
		return core.Category{}, fmt.Errorf("update category %s: %w", id, err)
	}
	return fromDTO(updated), nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	path := "/categories/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}

func (c *Client) Reorder(ctx context.Context, batch []core.OrderChange) error {
	if err := c.do(ctx, http.MethodPost, "/categories/reorder", batch, nil); err != nil {
		return fmt.Errorf("reorder categories: %w", err)
	}
	return nil
}

func (c *Client) ListMembers(ctx context.Context) ([]core.Member, error) {
	var members []core.Member
	if err := c.do(ctx, http.MethodGet, "/members", nil, &members); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

func (c *Client) ListTags(ctx context.Context) ([]string, error) {
	var tags []string
	if err := c.do(ctx, http.MethodGet, "/tags", nil, &tags); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return catalog.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return catalog.ErrProtected
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
