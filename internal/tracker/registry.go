package tracker

import (
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/dbsmedya/historytracker/internal/logger"
)

// Registry holds one Configuration per tracked entity type.
//
// Configurations are written once by Track and never modified, so lookups
// from concurrent hooks only contend on the read lock.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]*Configuration
	ignored []string
	logger  *logger.Logger
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithIgnoredAttributes replaces DefaultIgnoredAttributes as the process-wide
// ignore list.
func WithIgnoredAttributes(names ...string) RegistryOption {
	return func(r *Registry) {
		r.ignored = uniqueStrings(names)
	}
}

// WithRegistryLogger sets the logger used for registration events.
func WithRegistryLogger(log *logger.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.logger = log
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		configs: make(map[string]*Configuration),
		ignored: slices.Clone(DefaultIgnoredAttributes),
		logger:  logger.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Track enables history tracking for t.
//
// Registering the same type again with equivalent options returns the
// existing Configuration and has no other effect. Different options, an
// unknown association or an unknown event yield a *ConfigurationError and
// leave the registry unchanged.
func (r *Registry) Track(t EntityType, opts Options) (*Configuration, error) {
	if t == nil {
		return nil, &ConfigurationError{Err: errors.New("entity type is nil")}
	}

	candidate, err := buildConfiguration(t, opts, r.ignored)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.configs[t.Name()]; ok {
		if existing.equivalent(candidate) {
			return existing, nil
		}
		return nil, &ConfigurationError{EntityType: t.Name(), Err: ErrConflictingOptions}
	}

	r.configs[t.Name()] = candidate
	r.logger.Debugw("Tracking enabled",
		"entity_type", candidate.entityType,
		"scope", candidate.scope,
		"tracked", len(candidate.trackable),
		"associations", len(candidate.associations),
		"events", candidate.events,
	)
	return candidate, nil
}

// Lookup returns the Configuration registered for an entity type name.
func (r *Registry) Lookup(typeName string) (*Configuration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[typeName]
	return cfg, ok
}

// IsTracked reports whether an entity type name has been registered.
func (r *Registry) IsTracked(typeName string) bool {
	_, ok := r.Lookup(typeName)
	return ok
}

// IgnoredAttributes returns the process-wide ignore list.
func (r *Registry) IgnoredAttributes() []string {
	return slices.Clone(r.ignored)
}

// EntityTypes returns the registered type names in sorted order.
func (r *Registry) EntityTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
