package backend

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/shadergen/gpucore"
	"github.com/gogpu/shadergen/render"
)

// Backend names.
const (
	Vulkan = "vulkan"
	Noop   = "noop"
)

// ErrNotRegistered is returned by Open for an unknown backend name.
var ErrNotRegistered = errors.New("backend: not registered")

// ErrNoBackend is returned by OpenDefault when no backend could be opened.
var ErrNoBackend = errors.New("backend: no backend available")

// Context is a graphics context that renders into a CPU-side target.
type Context interface {
	gpucore.Context

	// Target returns the render target frames are read back into.
	Target() *render.PixmapTarget

	// Close releases the context and everything created on it.
	Close()
}

// Factory opens a Context rendering into target.
type Factory func(target *render.PixmapTarget) (Context, error)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for OpenDefault (first that opens wins).
	priority = []string{Vulkan, Noop}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Open opens the named backend.
func Open(name string, target *render.PixmapTarget) (Context, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return factory(target)
}

// OpenDefault opens the first backend in priority order that succeeds,
// then any other registered backend. It returns the name of the opened
// backend, or ErrNoBackend joined with every open error.
func OpenDefault(target *render.PixmapTarget) (Context, string, error) {
	registryMu.RLock()
	order := make([]string, 0, len(factories))
	for _, name := range priority {
		if _, ok := factories[name]; ok {
			order = append(order, name)
		}
	}
	var rest []string
	for name := range factories {
		if !contains(priority, name) {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)
	open := make([]Factory, len(order))
	for i, name := range order {
		open[i] = factories[name]
	}
	registryMu.RUnlock()

	errs := []error{ErrNoBackend}
	for i, factory := range open {
		ctx, err := factory(target)
		if err == nil {
			return ctx, order[i], nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", order[i], err))
	}
	return nil, "", errors.Join(errs...)
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
