package backend

import (
	"context"
	"path/filepath"
	"testing"

	"buckets/internal/config"
)

func TestTypeIsValid(t *testing.T) {
	tests := []struct {
		typ   Type
		valid bool
	}{
		{MemoryBackend, true},
		{SQLiteBackend, true},
		{RESTBackend, true},
		{Type("sheets"), false},
		{Type(""), false},
	}
	for _, tt := range tests {
		if got := tt.typ.IsValid(); got != tt.valid {
			t.Errorf("%q.IsValid() = %v, want %v", tt.typ, got, tt.valid)
		}
	}
}

func TestFromAppConfig(t *testing.T) {
	appCfg := &config.Config{
		DataBackend:   "sqlite",
		SQLiteDBPath:  "/tmp/x.db",
		RosterSource:  "backend",
		DataDirectory: "data",
	}
	cfg, err := FromAppConfig(appCfg)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "/tmp/x.db" {
		t.Errorf("converted config = %+v", cfg)
	}

	appCfg.DataBackend = "oracle"
	if _, err := FromAppConfig(appCfg); err == nil {
		t.Error("invalid backend type must be rejected")
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config must be rejected")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory defaults", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sqlite with path", Config{Type: SQLiteBackend, SQLiteDBPath: "/tmp/x.db"}, false},
		{"rest without url", Config{Type: RESTBackend}, true},
		{"rest with url", Config{Type: RESTBackend, RemoteBaseURL: "http://localhost:9000"}, false},
		{"google roster without spreadsheet", Config{Type: MemoryBackend, RosterSource: "google"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	factory := NewFactory(nil)
	result, err := factory.CreateBackend(context.Background(), Config{
		Type:          MemoryBackend,
		DataDirectory: t.TempDir(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Catalog == nil || result.Roster == nil || result.Tags == nil {
		t.Errorf("incomplete result: %+v", result)
	}

	cats, err := result.Catalog.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cats) == 0 {
		t.Error("memory backend must seed default categories")
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	factory := NewFactory(nil)
	result, err := factory.CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer result.Cleanup()

	if _, err := result.Catalog.Fetch(context.Background()); err != nil {
		t.Errorf("fetch on fresh database: %v", err)
	}
}
