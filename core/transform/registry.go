package transform

import (
	"sort"
	"strings"
	"sync"

	"github.com/FocuswithJustin/docbridge/core/errors"
)

// Registry maps format identifiers to transformers.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Transformer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Transformer)}
}

// Register adds t under name, replacing any previous entry.
func (r *Registry) Register(name string, t Transformer) {
	if name == "" || t == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[strings.ToLower(name)] = t
}

// Lookup returns the transformer registered under name. Unknown names fail
// with *errors.UnsupportedFormatError.
func (r *Registry) Lookup(name string) (Transformer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.entries[strings.ToLower(name)]
	if !ok {
		return nil, &errors.UnsupportedFormatError{Name: name}
	}
	return t, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, err := r.Lookup(name)
	return err == nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Capabilities describes every registered format in name order.
func (r *Registry) Capabilities() []Capability {
	names := r.Names()
	caps := make([]Capability, 0, len(names))
	for _, n := range names {
		t, err := r.Lookup(n)
		if err != nil {
			continue
		}
		caps = append(caps, CapabilityOf(n, t))
	}
	return caps
}

// defaultRegistry is populated by format modules from their init functions.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Register adds t to the default registry.
func Register(name string, t Transformer) {
	defaultRegistry.Register(name, t)
}

// Lookup finds a transformer in the default registry.
func Lookup(name string) (Transformer, error) {
	return defaultRegistry.Lookup(name)
}

// Names lists the default registry.
func Names() []string {
	return defaultRegistry.Names()
}

// Capabilities describes the default registry.
func Capabilities() []Capability {
	return defaultRegistry.Capabilities()
}

// Has reports whether the default registry knows name.
func Has(name string) bool {
	return defaultRegistry.Has(name)
}
