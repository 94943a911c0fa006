package app

import (
	"fmt"
	"strings"

	coreconfig "github.com/m3rciful/finbot/core/config"
	"github.com/m3rciful/finbot/core/database"
	"github.com/m3rciful/finbot/internal/rates"
)

// Config is the full bot configuration: the reusable core sections plus the
// ledger database and the exchange-rate service.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database database.Config `yaml:"database"`
	Rates    rates.Config    `yaml:"rates"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads path, applies .env and environment overrides and validates.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalize(cfg *Config) error {
	cfg.Rates.Endpoint = strings.TrimSpace(cfg.Rates.Endpoint)
	if cfg.Rates.Endpoint == "" {
		return fmt.Errorf("config: rates.endpoint is required")
	}
	if cfg.Rates.TimeoutMS < 0 {
		return fmt.Errorf("config: rates.timeout_ms must be >= 0")
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.Name == "" {
		return fmt.Errorf("config: database.name is required")
	}
	return nil
}
