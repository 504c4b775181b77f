// Package config loads the service configuration from a YAML or JSON file
// with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/evroute/core/discovery"
	"github.com/kilianp07/evroute/core/metrics"
	"github.com/kilianp07/evroute/core/planner"
	"github.com/kilianp07/evroute/infra/elevation"
	"github.com/kilianp07/evroute/infra/monitoring"
	"github.com/kilianp07/evroute/infra/mqtt"
	"github.com/kilianp07/evroute/infra/registry"
	"github.com/kilianp07/evroute/infra/routing"
)

// APIConfig defines the HTTP API listener settings.
type APIConfig struct {
	Addr string `json:"addr"`
}

// SetDefaults applies the listener default.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

type Config struct {
	API       APIConfig         `json:"api"`
	Planner   planner.Config    `json:"planner"`
	Discovery discovery.Config  `json:"discovery"`
	Registry  registry.Config   `json:"registry"`
	Routing   routing.Config    `json:"routing"`
	Elevation elevation.Config  `json:"elevation"`
	Metrics   metrics.Config    `json:"metrics"`
	MQTT      mqtt.Config       `json:"mqtt"`
	Sentry    monitoring.Config `json:"sentry"`
	Logging   LoggingConfig     `json:"logging"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("EVROUTE_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "evroute_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.API.SetDefaults()
	cfg.Planner.SetDefaults()
	cfg.Discovery.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.MQTT.SetDefaults()
	if err := cfg.Planner.Validate(); err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}
	if err := cfg.Discovery.Validate(); err != nil {
		return nil, fmt.Errorf("discovery: %w", err)
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, fmt.Errorf("mqtt: %w", err)
	}
	return &cfg, nil
}
