package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Driver string `yaml:"driver" toml:"driver"`
		Path   string `yaml:"path" toml:"path"`
		DSN    string `yaml:"dsn,omitempty" toml:"dsn"`
	} `yaml:"database" toml:"database"`

	Publish struct {
		Secret        string        `yaml:"secret,omitempty" toml:"secret"`
		At            string        `yaml:"at" toml:"at"`
		RetryAttempts uint          `yaml:"retry_attempts" toml:"retry_attempts"`
		RetryDelay    time.Duration `yaml:"retry_delay" toml:"retry_delay"`
	} `yaml:"publish" toml:"publish"`

	Welcome struct {
		SystemUsername    string   `yaml:"system_username" toml:"system_username"`
		SystemEmail       string   `yaml:"system_email" toml:"system_email"`
		SystemDisplayName string   `yaml:"system_display_name" toml:"system_display_name"`
		Title             string   `yaml:"title" toml:"title"`
		Contents          []string `yaml:"contents" toml:"contents"`
	} `yaml:"welcome" toml:"welcome"`

	Server struct {
		Addr string `yaml:"addr" toml:"addr"`
	} `yaml:"server" toml:"server"`
}

// DefaultWelcomeContents are the onboarding prints every new reader gets.
var DefaultWelcomeContents = []string{
	"Welcome to PRINT! We're thrilled to have you here. PRINT is your daily newspaper, curated just for you. Every day, a new edition lands on your doorstep — filled with stories, thoughts, and creations from the people you follow.",
	"How it works: write a PRINT and publish it. It will appear in the next edition of everyone who follows you. Think of it as sending a letter to all your readers at once. Short or long, funny or serious — it's your page.",
	"Discover and connect: follow people whose writing you enjoy. Clip PRINTs you love to save them for later. Like a PRINT to let the author know you appreciated it. The more people you follow, the richer your daily edition becomes.",
	"Ready to get started? Head to your profile and write your first PRINT. Then follow a few people and check back tomorrow for your next edition. Happy reading, happy writing!",
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Database.Driver = DriverSQLite
	cfg.Database.Path = "./press.db"
	cfg.Publish.At = "06:00"
	cfg.Publish.RetryAttempts = 3
	cfg.Publish.RetryDelay = 30 * time.Second
	cfg.Welcome.SystemUsername = "print_team"
	cfg.Welcome.SystemEmail = "system@print.app"
	cfg.Welcome.SystemDisplayName = "PRINT Team"
	cfg.Welcome.Title = "Welcome to PRINT"
	cfg.Welcome.Contents = append([]string(nil), DefaultWelcomeContents...)
	cfg.Server.Addr = ":8080"
	return cfg
}

// LoadConfig reads the config at path over the defaults. Files ending in
// .toml are decoded as TOML, anything else as YAML. A missing file is not an
// error. CRON_SECRET and DATABASE_URL override the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		case strings.EqualFold(filepath.Ext(path), ".toml"):
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if secret := os.Getenv("CRON_SECRET"); secret != "" {
		cfg.Publish.Secret = secret
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.Driver = DriverPostgres
		cfg.Database.DSN = dsn
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML, creating parent directories.
func SaveConfig(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
