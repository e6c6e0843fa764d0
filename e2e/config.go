package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// STORE_ADDR points at a running store, the suite is skipped without it
	StoreAddr string `envconfig:"STORE_ADDR"`
	APIKey    string `envconfig:"STORE_API_KEY"`
	// E2E_DEBUG_JSON allows dumping full gRPC request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
