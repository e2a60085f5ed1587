package registry

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

type (
	// Registry maps command names to descriptors, keeping registration order.
	Registry struct {
		mu     sync.RWMutex
		order  []string
		byName map[string]*Descriptor
	}

	// Installer adds a provider's commands to a registry. Installers are
	// contributed to the application through the "providers" fx group.
	Installer struct {
		Name    string
		Install func(*Registry) error
	}
)

// New returns an empty Registry.
func New() *Registry {
	return &Registry{byName: make(map[string]*Descriptor)}
}

// Register adds d. A descriptor already registered under d.Name is replaced
// and d takes over its position.
func (r *Registry) Register(d *Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[d.Name]; !ok {
		r.order = append(r.order, d.Name)
	}

	r.byName[d.Name] = d
}

// All returns the descriptors in registration order.
func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Descriptor, len(r.order))
	for i, name := range r.order {
		out[i] = r.byName[name]
	}

	return out
}

// Names returns the command names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byName[name]
	return d, ok
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Install runs installers against r ordered by name, stopping at the first
// failure.
func Install(r *Registry, installers []Installer) error {
	sorted := append([]Installer(nil), installers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, in := range sorted {
		if in.Install == nil {
			continue
		}

		if err := in.Install(r); err != nil {
			return errors.Wrapf(err, "failed to install %s commands", in.Name)
		}
	}

	return nil
}
