// Package factory instantiates pluggable components from configuration.
// A component is configured as a type name plus a free-form settings map;
// implementations register a constructor under their type name and decode
// the settings into their own config struct.
package factory

import (
	"fmt"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// ModuleConfig selects one implementation and carries its raw settings.
type ModuleConfig struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
}

// Factory builds a T from the raw settings map.
type Factory[T any] func(map[string]any) (T, error)

// Registry maps type names to factories. Safe for concurrent use.
type Registry[T any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{factories: make(map[string]Factory[T])}
}

// Register binds a factory to a type name. Names are single-owner:
// registering the same name twice is an error.
func (r *Registry[T]) Register(name string, f Factory[T]) error {
	if f == nil {
		return fmt.Errorf("nil factory for %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("factory %q registered twice", name)
	}
	r.factories[name] = f
	return nil
}

// Create looks up the factory for cfg.Type and runs it on cfg.Conf.
func (r *Registry[T]) Create(cfg ModuleConfig) (T, error) {
	r.mu.RLock()
	f, ok := r.factories[cfg.Type]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("no factory for type %q", cfg.Type)
	}
	return f(cfg.Conf)
}

// Decode maps raw settings onto a typed config struct using its json tags,
// so file, environment and factory settings share one tag set.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}
