package mqtt

import "fmt"

// Config defines the MQTT publisher settings. The publisher is optional and
// stays disabled unless a broker is configured.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
}

// SetDefaults applies the publisher defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "evroute-planner"
	}
	if c.Topic == "" {
		c.Topic = "evroute/plans"
	}
}

// Validate checks mandatory fields when the publisher is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("broker is required when mqtt is enabled")
	}
	if c.QoS > 2 {
		return fmt.Errorf("qos must be 0, 1 or 2: %d", c.QoS)
	}
	return nil
}
