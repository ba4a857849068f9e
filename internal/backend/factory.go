package backend

import (
	"context"
	"fmt"
	"log/slog"

	"buckets/internal/catalog/memory"
	"buckets/internal/catalog/rest"
	groster "buckets/internal/roster/google"
	"buckets/internal/storage"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var result *Result
	var err error
	switch config.Type {
	case MemoryBackend:
		result, err = f.createMemoryBackend(config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case RESTBackend:
		result, err = f.createRESTBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	// A spreadsheet roster overrides whatever the data backend offers
	// for members and tags.
	if config.RosterSource == "google" {
		roster, err := groster.New(ctx, config.GoogleSpreadsheetID, config.GoogleMembersSheet, config.GoogleTagsSheet)
		if err != nil {
			if result.Cleanup != nil {
				result.Cleanup()
			}
			return nil, fmt.Errorf("initialize google roster: %w", err)
		}
		result.Roster = roster
		result.Tags = roster
		f.logger.Info("Roster source overridden",
			"source", "google", "spreadsheet_id", config.GoogleSpreadsheetID)
	}

	return result, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*Result, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store := memory.NewFromFiles(dataDir)

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	return &Result{
		Catalog: store,
		Roster:  store,
		Tags:    store,
		Cleanup: nil,
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Result{
		Catalog: repo,
		Roster:  repo,
		Tags:    repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createRESTBackend(config Config) (*Result, error) {
	client, err := rest.New(config.RemoteBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize REST client: %w", err)
	}

	f.logger.Info("Initialized REST backend", "base_url", config.RemoteBaseURL)

	return &Result{
		Catalog: client,
		Roster:  client,
		Tags:    client,
		Cleanup: nil,
	}, nil
}
