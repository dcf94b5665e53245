package adapter

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Factory builds an unconnected sink adapter. The engine connects it with
// the target settings from crickflat.yaml.
type Factory func(*slog.Logger) Adapter

// sinks maps a target type (as written under target.type) to its factory.
// Keys are lower case.
var (
	sinksMu sync.RWMutex
	sinks   = make(map[string]Factory)
)

func sinkKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register makes a sink available as a target type. The sqlite, duckdb and
// postgres packages call it from init, so importing them for side effects
// is enough to enable a sink. Registering a name twice replaces the factory.
func Register(name string, factory Factory) {
	sinksMu.Lock()
	defer sinksMu.Unlock()
	sinks[sinkKey(name)] = factory
}

// Get returns the factory registered for a target type.
func Get(name string) (Factory, bool) {
	sinksMu.RLock()
	defer sinksMu.RUnlock()
	f, ok := sinks[sinkKey(name)]
	return f, ok
}

// NewAdapter builds the sink named by cfg.Type. It does not connect.
// A nil logger is replaced with a discard logger.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	if sinkKey(cfg.Type) == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{
			Type:      cfg.Type,
			Available: ListAdapters(),
		}
	}
	return factory(logger), nil
}

// ListAdapters returns the registered target types, sorted.
func ListAdapters() []string {
	sinksMu.RLock()
	defer sinksMu.RUnlock()
	return slices.Sorted(maps.Keys(sinks))
}

// IsRegistered reports whether name is a known target type.
func IsRegistered(name string) bool {
	_, ok := Get(name)
	return ok
}
