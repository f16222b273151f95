package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-frameart/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-frameart/internal/infrastructure/logging"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("FRAMEART_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil || !strings.Contains(err.Error(), "loading config") {
		t.Fatalf("run() error = %v, want a config load failure", err)
	}
}

// TestRun_MissingTVHost verifies validation stops startup before any connection.
func TestRun_MissingTVHost(t *testing.T) {
	t.Setenv("FRAMEART_CONFIG", writeConfig(t, `
tv:
  id: frame
  token:
    backend: memory
logging:
  level: error
  format: text
`))
	t.Setenv("FRAMEART_TV_HOST", "")

	err := run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "tv.host") {
		t.Fatalf("run() error = %v, want tv.host validation failure", err)
	}
}

// TestRun_UnreachableBroker verifies an unreachable TV is tolerated but an
// unreachable broker is not.
func TestRun_UnreachableBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the MQTT connect timeout")
	}

	t.Setenv("FRAMEART_CONFIG", writeConfig(t, `
tv:
  id: frame
  host: 127.0.0.1
  port: 1
  secure: false
  timeout: 1
  token:
    backend: sqlite
database:
  path: "`+filepath.Join(t.TempDir(), "frameart.db")+`"
mqtt:
  broker:
    host: 127.0.0.1
    port: 19999
    client_id: frameart-test
  reconnect:
    initial_delay: 1
    max_delay: 5
logging:
  level: error
  format: text
`))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil || !strings.Contains(err.Error(), "connecting to MQTT") {
		t.Fatalf("run() error = %v, want MQTT connect failure", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("FRAMEART_CONFIG", "")
	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}

	t.Setenv("FRAMEART_CONFIG", "/custom/path/config.yaml")
	if path := getConfigPath(); path != "/custom/path/config.yaml" {
		t.Errorf("getConfigPath() = %q, want env override", path)
	}
}

func TestOpenTokenStore(t *testing.T) {
	tests := []struct {
		name    string
		backend string
	}{
		{"memory", config.TokenBackendMemory},
		{"file", config.TokenBackendFile},
		{"sqlite", config.TokenBackendSQLite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := &config.Config{
				TV: config.TVConfig{
					Host:  "192.168.1.20",
					Token: config.TokenConfig{Backend: tt.backend, Dir: dir},
				},
				Database: config.DatabaseConfig{Path: filepath.Join(dir, "frameart.db"), WALMode: true, BusyTimeout: 5},
			}
			ctx := context.Background()

			store, closeStore, err := openTokenStore(ctx, cfg, testLogger())
			if err != nil {
				t.Fatalf("openTokenStore() error = %v", err)
			}
			defer closeStore()

			if _, ok := store.Load(ctx); ok {
				t.Error("fresh store should hold no token")
			}
			if err := store.Save(ctx, "12345678"); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			if got, ok := store.Load(ctx); !ok || got != "12345678" {
				t.Errorf("Load() = %q, %v", got, ok)
			}
		})
	}
}

func TestOpenTokenStore_SQLiteOpenFailure(t *testing.T) {
	cfg := &config.Config{
		TV:       config.TVConfig{Host: "tv", Token: config.TokenConfig{Backend: config.TokenBackendSQLite}},
		Database: config.DatabaseConfig{},
	}
	if _, _, err := openTokenStore(context.Background(), cfg, testLogger()); err == nil {
		t.Error("openTokenStore() should fail without a database path")
	}
}
