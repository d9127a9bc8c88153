package observable

import (
	"fmt"
	"reflect"
	"sort"
)

// Listener is called after a property's value changes.
type Listener func(name string, value any)

type subscription struct {
	id int
	fn Listener
}

type node struct {
	name     string
	computed bool
	get      func() any
	deps     []*node
	subs     []*node // computed nodes that read this one
	height   int
	order    int

	value any
	has   bool
	dirty bool

	listeners []subscription
	last      any // value most recently delivered to listeners
}

// Properties is the per-instance reactive property set.
//
// Plain properties are written with Set. Computed properties cache their
// value and recompute on the next read after any dependency changes.
// Listeners run once the outermost write or Batch completes, ordered so a
// property always notifies after every property it depends on.
//
// A Properties value belongs to a single component and is not safe for
// concurrent mutation.
type Properties struct {
	nodes    map[string]*node
	bound    bool
	nextID   int
	depth    int
	pending  map[*node]struct{}
	flushing bool
}

// NewProperties creates an empty, unbound property set.
func NewProperties() *Properties {
	return &Properties{
		nodes:   make(map[string]*node),
		pending: make(map[*node]struct{}),
	}
}

func (p *Properties) ensure(name string) *node {
	if n, ok := p.nodes[name]; ok {
		return n
	}
	n := &node{name: name, order: len(p.nodes)}
	p.nodes[name] = n
	return n
}

// bind installs the computed declarations with owner as their receiver.
// Cycles must already have been ruled out.
func (p *Properties) bind(owner any, defs []Computed) {
	for _, d := range defs {
		n := p.ensure(d.Name)
		getter := d.Get
		n.computed = true
		n.get = func() any { return getter(owner) }
		n.value, n.has, n.dirty = nil, false, true
	}
	for _, d := range defs {
		n := p.nodes[d.Name]
		for _, depName := range d.Deps {
			dep := p.ensure(depName)
			n.deps = append(n.deps, dep)
			dep.subs = append(dep.subs, n)
		}
	}
	heights := make(map[*node]int, len(p.nodes))
	for _, n := range p.nodes {
		n.height = heightOf(n, heights)
	}
	p.bound = true
}

func heightOf(n *node, memo map[*node]int) int {
	if h, ok := memo[n]; ok {
		return h
	}
	h := 0
	for _, d := range n.deps {
		if dh := heightOf(d, memo) + 1; dh > h {
			h = dh
		}
	}
	memo[n] = h
	return h
}

// Get returns the current value of name, recomputing it if stale.
// Unknown names yield nil.
func (p *Properties) Get(name string) any {
	n, ok := p.nodes[name]
	if !ok {
		return nil
	}
	return p.read(n)
}

func (p *Properties) read(n *node) any {
	if n.computed && (n.dirty || !n.has) {
		n.value = n.get()
		n.has = true
		n.dirty = false
	}
	return n.value
}

// Set writes a plain property. Writing a computed property panics.
func (p *Properties) Set(name string, value any) {
	n := p.ensure(name)
	if n.computed {
		panic(fmt.Sprintf("observable: cannot set computed property %q", name))
	}
	p.pending[n] = struct{}{}
	n.value = value
	n.has = true
	p.invalidate(n)

	if p.depth == 0 {
		p.flush()
	}
}

// Batch runs fn and defers notification until it returns, so listeners see
// one settled change per property for the whole group of writes.
func (p *Properties) Batch(fn func()) {
	p.depth++
	defer func() {
		p.depth--
		if p.depth == 0 {
			p.flush()
		}
	}()
	fn()
}

// Subscribe registers fn for changes to name and returns a function that
// removes it.
func (p *Properties) Subscribe(name string, fn Listener) func() {
	n := p.ensure(name)
	if len(n.listeners) == 0 {
		n.last = p.read(n)
	}
	p.nextID++
	id := p.nextID
	n.listeners = append(n.listeners, subscription{id: id, fn: fn})

	return func() {
		for i, s := range n.listeners {
			if s.id == id {
				n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
				return
			}
		}
	}
}

// Names returns all property names in sorted order.
func (p *Properties) Names() []string {
	names := make([]string, 0, len(p.nodes))
	for name := range p.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsComputed reports whether name is a bound computed property.
func (p *Properties) IsComputed(name string) bool {
	n, ok := p.nodes[name]
	return ok && n.computed
}

func (p *Properties) invalidate(from *node) {
	seen := map[*node]bool{from: true}
	queue := append([]*node(nil), from.subs...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if seen[n] {
			continue
		}
		seen[n] = true
		p.pending[n] = struct{}{}
		n.dirty = true
		queue = append(queue, n.subs...)
	}
}

func (p *Properties) flush() {
	if p.flushing {
		return
	}
	p.flushing = true
	defer func() { p.flushing = false }()

	// Listeners may write again; keep draining until nothing is pending.
	for len(p.pending) > 0 {
		touched := make([]*node, 0, len(p.pending))
		for n := range p.pending {
			touched = append(touched, n)
		}
		p.pending = make(map[*node]struct{})

		sort.Slice(touched, func(i, j int) bool {
			if touched[i].height != touched[j].height {
				return touched[i].height < touched[j].height
			}
			return touched[i].order < touched[j].order
		})

		for _, n := range touched {
			if len(n.listeners) == 0 {
				continue
			}
			cur := p.read(n)
			if reflect.DeepEqual(n.last, cur) {
				continue
			}
			n.last = cur
			for _, s := range append([]subscription(nil), n.listeners...) {
				s.fn(n.name, cur)
			}
		}
	}
}

// GetAs returns name's value as T, or T's zero value when unset or of a
// different type.
func GetAs[T any](p *Properties, name string) T {
	v, _ := p.Get(name).(T)
	return v
}
