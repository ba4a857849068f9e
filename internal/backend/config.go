package backend

import (
	"fmt"

	"buckets/internal/config"
)

// Config holds what the factory needs to assemble a backend.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// REST specific
	RemoteBaseURL string

	// Memory backend specific
	DataDirectory string

	// Roster override
	RosterSource        string
	GoogleSpreadsheetID string
	GoogleMembersSheet  string
	GoogleTagsSheet     string
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := Type(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:          backendType,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		RemoteBaseURL: appConfig.RemoteBaseURL,
		DataDirectory: appConfig.DataDirectory,

		RosterSource:        appConfig.RosterSource,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleMembersSheet:  appConfig.GoogleMembersSheet,
		GoogleTagsSheet:     appConfig.GoogleTagsSheet,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case RESTBackend:
		if c.RemoteBaseURL == "" {
			return fmt.Errorf("remote base URL is required for rest backend")
		}
	case MemoryBackend:
		// DataDirectory defaults to "data" when empty.
	}

	if c.RosterSource == "google" && c.GoogleSpreadsheetID == "" {
		return fmt.Errorf("Google spreadsheet ID is required for the google roster source")
	}

	return nil
}
