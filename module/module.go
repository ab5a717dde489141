// Package module declares generator modules with named dependencies and
// loads them in dependency order. Resolution happens once, up front, via a
// topological sort, so a cycle is detected before any side effect occurs.
// Each module's setup procedure executes exactly once per Loader, even when
// it is reachable through multiple dependency paths.
//
// The packages are generic over a host type H: the value handed to every
// setup procedure, typically the orchestrator the module registers its
// generators on.
package module

import (
	"fmt"

	"appforge"
)

// Module is a named, dependency-declaring bundle of generator procedures.
// Modules are registered once at the start of a run and never mutated.
type Module[H any] struct {
	ID        string
	DependsOn []string
	Setup     func(host H) error
}

// Registry holds registered modules. A second registration under an
// existing id fails loudly instead of silently replacing the first.
type Registry[H any] struct {
	modules map[string]Module[H]
	order   []string
}

// NewRegistry returns an empty Registry.
func NewRegistry[H any]() *Registry[H] {
	return &Registry[H]{modules: make(map[string]Module[H])}
}

// Register adds a module. Duplicate ids are a registration conflict.
func (r *Registry[H]) Register(m Module[H]) error {
	if m.ID == "" {
		return fmt.Errorf("appforge: module with empty id")
	}
	if _, ok := r.modules[m.ID]; ok {
		return appforge.NewDuplicateError("module", m.ID)
	}
	r.modules[m.ID] = m
	r.order = append(r.order, m.ID)
	return nil
}

// IDs returns the registered module ids in registration order.
func (r *Registry[H]) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the module registered under id.
func (r *Registry[H]) Get(id string) (Module[H], bool) {
	m, ok := r.modules[id]
	return m, ok
}

// Loader resolves a load order over a Registry and runs each module's setup
// exactly once. The loaded set is scoped to the Loader (one run), not to
// the process.
type Loader[H any] struct {
	registry *Registry[H]
	loaded   map[string]bool
}

// NewLoader returns a Loader over the given registry.
func NewLoader[H any](registry *Registry[H]) *Loader[H] {
	return &Loader[H]{registry: registry, loaded: make(map[string]bool)}
}

// Resolve returns a dependency-respecting load order using Kahn's
// algorithm. Ties among modules with no remaining dependency are broken by
// registration order, keeping the output deterministic across runs. A cycle
// yields a cycle error naming the module ids that could not be ordered.
func (l *Loader[H]) Resolve() ([]string, error) {
	reg := l.registry

	inDegree := make(map[string]int, len(reg.order))
	dependents := make(map[string][]string, len(reg.order))
	for _, id := range reg.order {
		inDegree[id] = 0
	}
	for _, id := range reg.order {
		for _, dep := range reg.modules[id].DependsOn {
			if _, ok := reg.modules[dep]; !ok {
				return nil, fmt.Errorf("appforge: module %q depends on unknown module %q", id, dep)
			}
			dependents[dep] = append(dependents[dep], id)
			inDegree[id]++
		}
	}

	// Seed with dependency-free modules in registration order.
	var queue []string
	for _, id := range reg.order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(reg.order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, dep := range dependents[id] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != len(reg.order) {
		var cycle []string
		for _, id := range reg.order {
			if inDegree[id] > 0 {
				cycle = append(cycle, id)
			}
		}
		return nil, appforge.NewCycleError(cycle)
	}
	return order, nil
}

// LoadAll resolves the load order and executes each not-yet-loaded module's
// setup against host, in order. On a cycle, zero setups run. A failing
// setup aborts loading immediately; there are no partial, silently-ignored
// module failures.
func (l *Loader[H]) LoadAll(host H) ([]string, error) {
	order, err := l.Resolve()
	if err != nil {
		return nil, err
	}
	for _, id := range order {
		if l.loaded[id] {
			continue
		}
		m, _ := l.registry.Get(id)
		if m.Setup != nil {
			if err := m.Setup(host); err != nil {
				return nil, fmt.Errorf("appforge: module %q setup failed: %w", id, err)
			}
		}
		l.loaded[id] = true
	}
	return order, nil
}

// Loaded reports whether the module with the given id has been set up by
// this Loader.
func (l *Loader[H]) Loaded(id string) bool {
	return l.loaded[id]
}
