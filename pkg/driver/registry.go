package driver

import (
	"fmt"
	"sync"

	"github.com/benchkv/benchkv/pkg/dbcaps"
	"github.com/benchkv/benchkv/pkg/logger"
)

// Registry manages the registration and retrieval of backend drivers. It
// replaces runtime class loading with an explicit mapping from configuration
// strings to statically known constructors.
type Registry struct {
	drivers map[dbcaps.DatabaseID]Driver
	mu      sync.RWMutex
}

// NewRegistry creates a new driver registry.
func NewRegistry() *Registry {
	return &Registry{
		drivers: make(map[dbcaps.DatabaseID]Driver),
	}
}

// Register registers a backend driver. A driver already registered for the
// same database type is replaced.
func (r *Registry) Register(d Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.drivers[d.ID()] = d
}

// Get retrieves a registered driver by database type.
// Returns ErrDriverNotFound if the driver is not registered.
func (r *Registry) Get(id dbcaps.DatabaseID) (Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.drivers[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrDriverNotFound, id)
	}
	return d, nil
}

// GetByName retrieves a registered driver by database name or alias.
// Returns ErrDriverNotFound if the driver is not registered.
func (r *Registry) GetByName(name string) (Driver, error) {
	id, ok := dbcaps.ParseID(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown database type '%s'", ErrDriverNotFound, name)
	}
	return r.Get(id)
}

// IsRegistered checks if a driver is registered for the given database type.
func (r *Registry) IsRegistered(id dbcaps.DatabaseID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.drivers[id]
	return exists
}

// ListRegistered returns all registered database types.
func (r *Registry) ListRegistered() []dbcaps.DatabaseID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]dbcaps.DatabaseID, 0, len(r.drivers))
	for id := range r.drivers {
		ids = append(ids, id)
	}
	return ids
}

// Unregister removes a driver from the registry.
func (r *Registry) Unregister(id dbcaps.DatabaseID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.drivers, id)
}

// Clear removes all drivers from the registry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.drivers = make(map[dbcaps.DatabaseID]Driver)
}

// Open validates the configuration, resolves the driver by name or alias,
// and constructs an UNINITIALIZED client. Call Client.Init to connect.
func (r *Registry) Open(cfg *Config, log *logger.Logger) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d, err := r.GetByName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	client, err := d.Open(cfg, log)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// GetCapabilities returns the capabilities for a registered database type.
func (r *Registry) GetCapabilities(id dbcaps.DatabaseID) (dbcaps.Capability, error) {
	d, err := r.Get(id)
	if err != nil {
		return dbcaps.Capability{}, err
	}
	return d.Capabilities(), nil
}

// globalRegistry is the default global driver registry.
var globalRegistry = NewRegistry()

// Register registers a driver in the global registry.
func Register(d Driver) {
	globalRegistry.Register(d)
}

// Get retrieves a driver from the global registry.
func Get(id dbcaps.DatabaseID) (Driver, error) {
	return globalRegistry.Get(id)
}

// GetByName retrieves a driver from the global registry by name or alias.
func GetByName(name string) (Driver, error) {
	return globalRegistry.GetByName(name)
}

// IsRegistered checks if a driver is registered in the global registry.
func IsRegistered(id dbcaps.DatabaseID) bool {
	return globalRegistry.IsRegistered(id)
}

// ListRegistered returns all registered database types from the global registry.
func ListRegistered() []dbcaps.DatabaseID {
	return globalRegistry.ListRegistered()
}

// Open opens a client through the global registry.
func Open(cfg *Config, log *logger.Logger) (Client, error) {
	return globalRegistry.Open(cfg, log)
}

// GlobalRegistry returns the global driver registry.
func GlobalRegistry() *Registry {
	return globalRegistry
}
