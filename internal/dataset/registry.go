package dataset

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/eudatnat/harvest-cli/internal/meta"
)

// Registry holds the dataset definitions known to the application,
// keyed by name.
type Registry struct {
	metas map[string]*meta.Meta
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{metas: make(map[string]*meta.Meta)}
}

// LoadRegistry builds a registry from all metadata files in a directory.
func LoadRegistry(dir string) (*Registry, error) {
	metas, err := meta.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	r := NewRegistry()
	for _, m := range metas {
		if err := r.Add(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Add registers a dataset definition. Duplicate names are rejected.
func (r *Registry) Add(m *meta.Meta) error {
	if _, ok := r.metas[m.Name]; ok {
		return eris.Errorf("registry: duplicate dataset %q", m.Name)
	}
	r.metas[m.Name] = m
	return nil
}

// Get returns the definition for a dataset name.
func (r *Registry) Get(name string) (*meta.Meta, error) {
	m, ok := r.metas[name]
	if !ok {
		return nil, eris.Errorf("registry: unknown dataset %q", name)
	}
	return m, nil
}

// Names returns all registered dataset names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.metas))
	for name := range r.metas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ByCategory returns the definitions in a category, sorted by name.
func (r *Registry) ByCategory(category string) []*meta.Meta {
	var out []*meta.Meta
	for _, name := range r.Names() {
		if strings.EqualFold(r.metas[name].Category, category) {
			out = append(out, r.metas[name])
		}
	}
	return out
}

// New builds a Coordinator for a registered dataset.
func (r *Registry) New(name string, deps Deps) (*Coordinator, error) {
	m, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return New(m, deps), nil
}
