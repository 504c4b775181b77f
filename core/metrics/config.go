package metrics

import "github.com/kilianp07/evroute/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusPort is where the /metrics endpoint is served when a
	// prometheus sink is configured.
	PrometheusPort int `json:"prometheus_port"`
}
