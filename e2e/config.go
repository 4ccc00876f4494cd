package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_SYNC_INTERVAL tightens or relaxes the poll cadence of scenarios.
	SyncInterval time.Duration `envconfig:"E2E_SYNC_INTERVAL" default:"50ms"`
	DialTimeout  time.Duration `envconfig:"E2E_DIAL_TIMEOUT" default:"2s"`
	IOTimeout    time.Duration `envconfig:"E2E_IO_TIMEOUT" default:"2s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
