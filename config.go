package press

import (
	"github.com/printdaily/press/internal/storage"
)

// Config is the on-disk configuration shared by the press binaries.
type Config = storage.Config

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return storage.DefaultConfig()
}

// LoadConfig reads a YAML or TOML (by .toml extension) config file over the
// defaults. A missing file yields the defaults. CRON_SECRET and DATABASE_URL
// override the file.
func LoadConfig(path string) (*Config, error) {
	return storage.LoadConfig(path)
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	return storage.SaveConfig(cfg, path)
}

// DefaultEngineConfig returns the engine settings implied by DefaultConfig.
func DefaultEngineConfig() EngineConfig {
	ec := EngineConfigFrom(storage.DefaultConfig())
	ec.PasswordCost = 12
	return ec
}

// EngineConfigFrom maps a file configuration onto engine settings.
func EngineConfigFrom(cfg *Config) EngineConfig {
	return EngineConfig{
		Driver:            cfg.Database.Driver,
		DBPath:            cfg.Database.Path,
		DSN:               cfg.Database.DSN,
		CronSecret:        cfg.Publish.Secret,
		RetryAttempts:     cfg.Publish.RetryAttempts,
		RetryDelay:        cfg.Publish.RetryDelay,
		SystemUsername:    cfg.Welcome.SystemUsername,
		SystemEmail:       cfg.Welcome.SystemEmail,
		SystemDisplayName: cfg.Welcome.SystemDisplayName,
		WelcomeTitle:      cfg.Welcome.Title,
		WelcomeContents:   cfg.Welcome.Contents,
	}
}
