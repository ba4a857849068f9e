// Package storage persists the category hierarchy in SQLite. It is the
// authoritative record store behind the optimistic cache.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"buckets/internal/catalog"
	"buckets/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ catalog.Service      = (*SQLiteRepository)(nil)
	_ catalog.RosterReader = (*SQLiteRepository)(nil)
	_ catalog.TagReader    = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const categoryColumns = `id, name, parent_id, display_order, category_group,
	is_group_budget, is_shared, is_rollover, is_hidden, is_transfer, is_investment, icon`

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	var group string
	err := row.Scan(&c.ID, &c.Name, &c.ParentID, &c.DisplayOrder, &group,
		&c.IsGroupBudget, &c.IsShared, &c.IsRollover, &c.IsHidden,
		&c.IsTransfer, &c.IsInvestment, &c.Icon)
	if err != nil {
		return core.Category{}, err
	}
	c.Group = core.Group(group)
	return c, nil
}

// Fetch returns every category with its limits and tags attached,
// ordered by stored sibling position.
func (r *SQLiteRepository) Fetch(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY parent_id, display_order, name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	index := make(map[string]int)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	limitRows, err := r.db.QueryContext(ctx,
		`SELECT category_id, member_id, amount_cents FROM category_limits`)
	if err != nil {
		return nil, fmt.Errorf("query category limits: %w", err)
	}
	defer limitRows.Close()
	for limitRows.Next() {
		var catID, memberID string
		var cents int64
		if err := limitRows.Scan(&catID, &memberID, &cents); err != nil {
			return nil, fmt.Errorf("scan category limit: %w", err)
		}
		i, ok := index[catID]
		if !ok {
			continue
		}
		if out[i].Limits == nil {
			out[i].Limits = make(map[string]core.Money)
		}
		out[i].Limits[memberID] = core.Money{Cents: cents}
	}
	if err := limitRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category limits: %w", err)
	}

	tagRows, err := r.db.QueryContext(ctx,
		`SELECT category_id, tag FROM category_tags ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("query category tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var catID, tag string
		if err := tagRows.Scan(&catID, &tag); err != nil {
			return nil, fmt.Errorf("scan category tag: %w", err)
		}
		if i, ok := index[catID]; ok {
			out[i].Tags = append(out[i].Tags, tag)
		}
	}
	if err := tagRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category tags: %w", err)
	}

	return out, nil
}

// Create validates and stores a new category. Client-issued temporary
// identifiers are replaced with a server one.
func (r *SQLiteRepository) Create(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID == "" || core.IsTempID(c.ID) {
		c.ID = core.NewID()
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("validate category: %w", err)
	}

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertCategory(ctx, tx, c); err != nil {
			return err
		}
		return writeLimitsAndTags(ctx, tx, c)
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category created",
		"id", c.ID, "name", c.Name, "parent_id", c.ParentID)
	return c, nil
}

// Update merges a partial record into the stored category.
func (r *SQLiteRepository) Update(ctx context.Context, id string, p core.Patch) (core.Category, error) {
	var updated core.Category
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getCategory(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = p.Apply(current)
		if err := updated.Validate(); err != nil {
			return fmt.Errorf("validate category: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE categories SET name=?, parent_id=?, display_order=?, category_group=?,
				is_group_budget=?, is_shared=?, is_rollover=?, is_hidden=?, icon=?,
				updated_at=CURRENT_TIMESTAMP
			 WHERE id=?`,
			updated.Name, updated.ParentID, updated.DisplayOrder, updated.Group.String(),
			updated.IsGroupBudget, updated.IsShared, updated.IsRollover, updated.IsHidden,
			updated.Icon, id); err != nil {
			return fmt.Errorf("update row: %w", err)
		}
		if p.Limits != nil || p.Tags != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM category_limits WHERE category_id=?`, id); err != nil {
				return fmt.Errorf("clear limits: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM category_tags WHERE category_id=?`, id); err != nil {
				return fmt.Errorf("clear tags: %w", err)
			}
			return writeLimitsAndTags(ctx, tx, updated)
		}
		return nil
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %s: %w", id, err)
	}
	return updated, nil
}

// Delete removes a category and hands its children back to the root
// level. System-managed categories are refused.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getCategory(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Protected() {
			return catalog.ErrProtected
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE categories SET parent_id='', updated_at=CURRENT_TIMESTAMP WHERE parent_id=?`, id); err != nil {
			return fmt.Errorf("re-root children: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id=?`, id); err != nil {
			return fmt.Errorf("delete row: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Category deleted", "id", id)
	return nil
}

// Reorder overwrites display positions from the batch in one
// transaction. Unknown identifiers are ignored.
func (r *SQLiteRepository) Reorder(ctx context.Context, batch []core.OrderChange) error {
	if len(batch) == 0 {
		return nil
	}
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`UPDATE categories SET display_order=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`)
		if err != nil {
			return fmt.Errorf("prepare reorder: %w", err)
		}
		defer stmt.Close()
		for _, ch := range batch {
			if _, err := stmt.ExecContext(ctx, ch.Order, ch.ID); err != nil {
				return fmt.Errorf("reorder %s: %w", ch.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reorder categories: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListMembers(ctx context.Context) ([]core.Member, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color, avatar FROM members ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var out []core.Member
	for rows.Next() {
		var m core.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Color, &m.Avatar); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) ListTags(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT tag FROM category_tags ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}
	return out, nil
}

// UpsertMember seeds or refreshes one roster entry.
func (r *SQLiteRepository) UpsertMember(ctx context.Context, m core.Member) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (id, name, color, avatar) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, color=excluded.color, avatar=excluded.avatar`,
		m.ID, m.Name, m.Color, m.Avatar)
	if err != nil {
		return fmt.Errorf("upsert member %s: %w", m.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func getCategory(ctx context.Context, tx *sql.Tx, id string) (core.Category, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id=?`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, catalog.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}

	limitRows, err := tx.QueryContext(ctx,
		`SELECT member_id, amount_cents FROM category_limits WHERE category_id=?`, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("query limits: %w", err)
	}
	defer limitRows.Close()
	for limitRows.Next() {
		var memberID string
		var cents int64
		if err := limitRows.Scan(&memberID, &cents); err != nil {
			return core.Category{}, fmt.Errorf("scan limit: %w", err)
		}
		if c.Limits == nil {
			c.Limits = make(map[string]core.Money)
		}
		c.Limits[memberID] = core.Money{Cents: cents}
	}
	if err := limitRows.Err(); err != nil {
		return core.Category{}, fmt.Errorf("iterate limits: %w", err)
	}

	tagRows, err := tx.QueryContext(ctx,
		`SELECT tag FROM category_tags WHERE category_id=? ORDER BY tag`, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("query tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var tag string
		if err := tagRows.Scan(&tag); err != nil {
			return core.Category{}, fmt.Errorf("scan tag: %w", err)
		}
		c.Tags = append(c.Tags, tag)
	}
	if err := tagRows.Err(); err != nil {
		return core.Category{}, fmt.Errorf("iterate tags: %w", err)
	}

	return c, nil
}

func insertCategory(ctx context.Context, tx *sql.Tx, c core.Category) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO categories (id, name, parent_id, display_order, category_group,
			is_group_budget, is_shared, is_rollover, is_hidden, is_transfer, is_investment, icon)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.ParentID, c.DisplayOrder, c.Group.String(),
		c.IsGroupBudget, c.IsShared, c.IsRollover, c.IsHidden,
		c.IsTransfer, c.IsInvestment, c.Icon)
	if err != nil {
		return fmt.Errorf("insert row: %w", err)
	}
	return nil
}

func writeLimitsAndTags(ctx context.Context, tx *sql.Tx, c core.Category) error {
	for memberID, amount := range c.Limits {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO category_limits (category_id, member_id, amount_cents) VALUES (?, ?, ?)`,
			c.ID, memberID, amount.Cents); err != nil {
			return fmt.Errorf("insert limit for %s: %w", memberID, err)
		}
	}
	for _, tag := range c.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO category_tags (category_id, tag) VALUES (?, ?)`,
			c.ID, tag); err != nil {
			return fmt.Errorf("insert tag %s: %w", tag, err)
		}
	}
	return nil
}
