package tactic

import (
	"fmt"
	"sort"
	"sync"

	"github.com/newthinker/zhanfa/internal/core"
	"go.uber.org/zap"
)

// Registry holds the tactics available to a run
type Registry struct {
	mu      sync.RWMutex
	tactics map[string]*Tactic
	logger  *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger ...*zap.Logger) *Registry {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Registry{
		tactics: make(map[string]*Tactic),
		logger:  l,
	}
}

// Load builds a registry from the builtin tactics plus every definition in
// dir. A file tactic replaces a builtin of the same name. An empty dir loads
// only the builtins.
func Load(dir string, logger *zap.Logger) (*Registry, error) {
	r := NewRegistry(logger)

	builtins, err := Builtins()
	if err != nil {
		return nil, err
	}
	for _, t := range builtins {
		r.Register(t)
	}

	if dir == "" {
		return r, nil
	}
	extra, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, t := range extra {
		r.Register(t)
	}
	return r, nil
}

// Register adds a tactic, replacing one with the same name
func (r *Registry) Register(t *Tactic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.tactics[t.Name]; ok {
		r.logger.Info("tactic overridden",
			zap.String("tactic", t.Name),
			zap.String("previous", prev.Source),
			zap.String("source", t.Source),
		)
	}
	r.tactics[t.Name] = t
}

// Get retrieves a tactic by name
func (r *Registry) Get(name string) (*Tactic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tactics[name]
	return t, ok
}

// GetAll returns all tactics sorted by name
func (r *Registry) GetAll() []*Tactic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Tactic, 0, len(r.tactics))
	for _, t := range r.tactics {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Resolve looks up every name, failing on the first unknown one
func (r *Registry) Resolve(names []string) ([]*Tactic, error) {
	out := make([]*Tactic, 0, len(names))
	for _, n := range names {
		t, ok := r.Get(n)
		if !ok {
			return nil, core.WrapError(core.ErrTacticNotFound, fmt.Errorf("%q", n))
		}
		out = append(out, t)
	}
	return out, nil
}
