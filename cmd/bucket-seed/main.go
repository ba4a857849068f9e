// bucket-seed populates a fresh SQLite database with a starter
// category hierarchy and household roster so the dashboard has
// something to show on first run.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"buckets/internal/config"
	"buckets/internal/core"
	applog "buckets/internal/log"
	"buckets/internal/storage"
)

func main() {
	_ = godotenv.Load()

	dbPath := flag.String("db", "", "SQLite database path (defaults to SQLITE_DB_PATH)")
	flag.Parse()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: "seed",
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	path := *dbPath
	if path == "" {
		path = cfg.SQLiteDBPath
	}

	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", path)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()

	existing, err := repo.Fetch(ctx)
	if err != nil {
		logger.Error("Failed to read existing categories", "error", err)
		os.Exit(1)
	}
	if len(existing) > 0 {
		logger.Info("Database already seeded, nothing to do",
			"path", path, "categories", len(existing))
		return
	}

	members := []core.Member{
		{ID: "m1", Name: "Alex", Color: "#4e79a7"},
		{ID: "m2", Name: "Sam", Color: "#f28e2b"},
	}
	for _, m := range members {
		if err := repo.UpsertMember(ctx, m); err != nil {
			logger.Error("Failed to seed member", "error", err, "member_id", m.ID)
			os.Exit(1)
		}
	}

	for _, c := range starterCategories() {
		created, err := repo.Create(ctx, c)
		if err != nil {
			logger.Error("Failed to seed category", "error", err, "name", c.Name)
			os.Exit(1)
		}
		logger.Info("Seeded category", "id", created.ID, "name", created.Name)
	}

	logger.Info("Seed complete", "path", path, "members", len(members))
}

// starterCategories builds the default hierarchy. Parents get stable
// IDs up front so children can reference them within one pass.
func starterCategories() []core.Category {
	salary := core.NewID()
	home := core.NewID()
	food := core.NewID()
	fun := core.NewID()

	return []core.Category{
		{ID: salary, Name: "Salary", Group: core.Income, DisplayOrder: 0, IsShared: true},
		{ID: home, Name: "Home", Group: core.NonDiscretionary, DisplayOrder: 0, IsShared: true},
		{ID: core.NewID(), Name: "Rent", ParentID: home, Group: core.NonDiscretionary, DisplayOrder: 0, IsShared: true},
		{ID: core.NewID(), Name: "Utilities", ParentID: home, Group: core.NonDiscretionary, DisplayOrder: 1, IsShared: true, Tags: []string{"bills"}},
		{ID: food, Name: "Food", Group: core.NonDiscretionary, DisplayOrder: 1, IsShared: true},
		{ID: core.NewID(), Name: "Groceries", ParentID: food, Group: core.NonDiscretionary, DisplayOrder: 0, IsShared: true},
		{ID: core.NewID(), Name: "Eating out", ParentID: food, Group: core.NonDiscretionary, DisplayOrder: 1},
		{ID: fun, Name: "Fun", Group: core.Discretionary, DisplayOrder: 2},
		{ID: core.NewID(), Name: "Hobbies", ParentID: fun, Group: core.Discretionary, DisplayOrder: 0},
		{ID: core.NewID(), Name: "Subscriptions", ParentID: fun, Group: core.Discretionary, DisplayOrder: 1, IsRollover: true},
		{ID: core.NewID(), Name: "Transfers", Group: core.NonDiscretionary, DisplayOrder: 3, IsTransfer: true, IsHidden: true},
		{ID: core.NewID(), Name: "Investments", Group: core.NonDiscretionary, DisplayOrder: 4, IsInvestment: true},
	}
}
