// Package registry maps component type names to factories.
//
// Each entry pairs a constructible implementation with the capability kind
// it satisfies. The table is populated at startup and read-only afterwards,
// so it is safe to share across concurrent evaluations.
package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/takaswie/flexeval/api"
)

// Kind names the capability interface a registered component satisfies.
type Kind string

const (
	KindLanguageModel  Kind = "language_model"
	KindPromptTemplate Kind = "prompt_template"
	KindMetric         Kind = "metric"
)

// Factory constructs a component from its resolved init_args. Nested specs
// in the arguments have already been resolved into live objects.
type Factory func(args map[string]any) (any, error)

type entry struct {
	kind    Kind
	factory Factory
}

// Registry is a table of named component factories.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a factory under the given type name.
// Duplicate names are rejected so variants cannot silently shadow each other.
func (r *Registry) Register(name string, kind Kind, factory Factory) error {
	if name == "" {
		return fmt.Errorf("registry: type name must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("registry: factory for %q must not be nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("registry: type %q already registered", name)
	}
	r.entries[name] = entry{kind: kind, factory: factory}
	return nil
}

// MustRegister is Register that panics on error, for startup wiring.
func (r *Registry) MustRegister(name string, kind Kind, factory Factory) {
	if err := r.Register(name, kind, factory); err != nil {
		panic(err)
	}
}

// Lookup resolves a class_path to its factory and kind.
//
// Dotted identifiers fall back to their final segment, so a config written
// against the original package layout ("flexeval.ChatLLMScore") resolves to
// the same entry as the simple name ("ChatLLMScore").
func (r *Registry) Lookup(classPath string) (Factory, Kind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[classPath]; ok {
		return e.factory, e.kind, nil
	}
	if i := strings.LastIndex(classPath, "."); i >= 0 {
		if e, ok := r.entries[classPath[i+1:]]; ok {
			return e.factory, e.kind, nil
		}
	}
	return nil, "", fmt.Errorf("%w: %q", api.ErrUnknownType, classPath)
}

// Names returns the registered type names, for diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}
