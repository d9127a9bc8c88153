// Package observable materializes reactive properties on component instances.
//
// Computed properties are declared once per component type in a Registry.
// When an instance is constructed, Materialize binds those declarations to
// the instance in a fresh Properties set, so two instances of the same type
// never share bindings or cached values.
//
//	observable.Define(reg, "fullName", []string{"first", "last"}, func(p *Person) any {
//	    return p.Properties().Get("first").(string) + " " + p.Properties().Get("last").(string)
//	})
package observable

import (
	"reflect"
	"sync"

	"github.com/centraunit/vmkit/internal/log"
)

// Getter computes a property value from the instance it is bound to.
type Getter func(owner any) any

// Computed describes a derived property: its name, the properties it reads
// and the function that computes it.
type Computed struct {
	Name string
	Deps []string
	Get  Getter
}

// Registry is a per-type table of computed property declarations.
// It is populated at startup and read at construction time.
type Registry struct {
	mu   sync.RWMutex
	defs map[reflect.Type][]Computed
}

// Default is the registry used when none is configured explicitly.
var Default = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[reflect.Type][]Computed)}
}

// Define declares a computed property on component type T.
func Define[T any](r *Registry, name string, deps []string, get func(owner T) any) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	r.Add(t, Computed{
		Name: name,
		Deps: deps,
		Get: func(owner any) any {
			return get(owner.(T))
		},
	})
}

// Add registers c for type t. A declaration with the same name replaces the
// earlier one in place.
func (r *Registry) Add(t reflect.Type, c Computed) {
	c.Deps = append([]string(nil), c.Deps...)

	r.mu.Lock()
	defer r.mu.Unlock()

	defs := r.defs[t]
	for i := range defs {
		if defs[i].Name == c.Name {
			defs[i] = c
			return
		}
	}
	r.defs[t] = append(defs, c)
	log.Debug(log.CatObservable, "computed declared", "type", t.String(), "name", c.Name, "deps", c.Deps)
}

// Definitions returns a copy of the declarations for t in declaration order.
func (r *Registry) Definitions(t reflect.Type) []Computed {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Computed(nil), r.defs[t]...)
}

// Reset removes every declaration. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs = make(map[reflect.Type][]Computed)
}

// Host is implemented by components that carry reactive properties.
// Embedding Base satisfies it.
type Host interface {
	Properties() *Properties
}

// Base provides a lazily created Properties set for embedding.
type Base struct {
	props *Properties
}

// Properties returns the instance's property set.
func (b *Base) Properties() *Properties {
	if b.props == nil {
		b.props = NewProperties()
	}
	return b.props
}

// Materialize binds the computed declarations for instance's type to
// instance. Instances that are not a Host, or whose type declares nothing,
// are left untouched. Binding happens at most once per instance.
func Materialize(r *Registry, instance any) error {
	host, ok := instance.(Host)
	if !ok {
		return nil
	}
	t := reflect.TypeOf(instance)
	defs := r.Definitions(t)
	if len(defs) == 0 {
		return nil
	}

	p := host.Properties()
	if p.bound {
		return nil
	}
	if err := checkCycles(t, defs); err != nil {
		return err
	}
	p.bind(instance, defs)

	log.Debug(log.CatObservable, "materialized", "type", t.String(), "computed", len(defs))
	return nil
}

// checkCycles walks the declared graph with white/grey/black marking and
// reports the first cycle found.
func checkCycles(t reflect.Type, defs []Computed) error {
	byName := make(map[string]Computed, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}

	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(defs))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			start := 0
			for i, n := range path {
				if n == name {
					start = i
					break
				}
			}
			cycle := append(append([]string(nil), path[start:]...), name)
			return &CyclicComputedDependencyError{Type: t.String(), Path: cycle}
		case done:
			return nil
		}
		d, ok := byName[name]
		if !ok {
			return nil
		}
		state[name] = visiting
		path = append(path, name)
		for _, dep := range d.Deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}

	for _, d := range defs {
		if err := visit(d.Name); err != nil {
			return err
		}
	}
	return nil
}
