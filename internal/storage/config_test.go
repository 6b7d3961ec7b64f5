package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("CRON_SECRET", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite || cfg.Publish.At != "06:00" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if len(cfg.Welcome.Contents) != 4 {
		t.Errorf("got %d welcome texts, want 4", len(cfg.Welcome.Contents))
	}
}

func TestLoadConfigYAML(t *testing.T) {
	t.Setenv("CRON_SECRET", "")
	t.Setenv("DATABASE_URL", "")

	path := filepath.Join(t.TempDir(), "press.yaml")
	data := `database:
  path: /tmp/x.db
publish:
  secret: s3cret
  at: "07:30"
  retry_delay: 5s
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Database.Path != "/tmp/x.db" {
		t.Errorf("Path = %q", cfg.Database.Path)
	}
	if cfg.Publish.Secret != "s3cret" || cfg.Publish.At != "07:30" {
		t.Errorf("publish = %+v", cfg.Publish)
	}
	if cfg.Publish.RetryDelay != 5*time.Second {
		t.Errorf("RetryDelay = %v, want 5s", cfg.Publish.RetryDelay)
	}
	// Unset keys keep their defaults.
	if cfg.Publish.RetryAttempts != 3 || cfg.Welcome.SystemUsername != "print_team" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfigTOML(t *testing.T) {
	t.Setenv("CRON_SECRET", "")
	t.Setenv("DATABASE_URL", "")

	path := filepath.Join(t.TempDir(), "press.toml")
	data := `[database]
driver = "sqlite"
path = "/var/lib/press.db"

[server]
addr = ":9090"
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Database.Path != "/var/lib/press.db" || cfg.Server.Addr != ":9090" {
		t.Errorf("toml not applied: %+v", cfg)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("CRON_SECRET", "from-env")
	t.Setenv("DATABASE_URL", "postgres://press@localhost/press")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Publish.Secret != "from-env" {
		t.Errorf("Secret = %q", cfg.Publish.Secret)
	}
	if cfg.Database.Driver != DriverPostgres || cfg.Database.DSN != "postgres://press@localhost/press" {
		t.Errorf("database = %+v", cfg.Database)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	t.Setenv("CRON_SECRET", "")
	t.Setenv("DATABASE_URL", "")

	path := filepath.Join(t.TempDir(), "nested", "press.yaml")
	cfg := DefaultConfig()
	cfg.Publish.At = "05:15"
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Publish.At != "05:15" || loaded.Publish.RetryDelay != cfg.Publish.RetryDelay {
		t.Errorf("round trip lost values: %+v", loaded.Publish)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.Driver = "oracle"
	if _, err := Open(cfg); err == nil {
		t.Error("expected error for unknown driver")
	}
}
