// Package infra holds the technical adapters behind the core interfaces:
// the station registry, routing and elevation HTTP clients, the zerolog
// logger, metrics sinks, the MQTT publisher and the Sentry monitor. Core
// packages never import infra; wiring happens in app.
package infra
