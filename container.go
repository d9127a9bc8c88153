package vmkit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/centraunit/vmkit/internal/log"
	"github.com/centraunit/vmkit/observable"
)

// registration represents a token binding in the container.
// It holds the factory, its ordered dependency tokens and the lifetime.
type registration struct {
	token    Token
	deps     []Token
	factory  Factory
	lifetime Lifetime
}

// resolutionState tracks the tokens entered by one resolution chain.
// Every top-level Resolve gets its own state, so independent resolutions
// running at the same time never see each other's chain.
type resolutionState struct {
	chain   map[Token]bool
	path    []Token
	origins []*lazyOrigin
}

// lazyOrigin records the chain a Producer was handed out in. While that
// resolution is still running, calling the producer continues the chain so
// re-entering a token under construction is reported as circular.
type lazyOrigin struct {
	path []Token
	live atomic.Bool
}

// Container manages registrations and the singleton cache.
// It is safe for concurrent use. Singletons live until Shutdown.
type Container struct {
	mu            sync.RWMutex
	registrations map[Token]registration
	singletons    map[Token]any
	buildOrder    []Token
	observables   *observable.Registry
	statePool     sync.Pool
}

// Option configures a Container.
type Option func(*Container)

// WithObservables sets the computed-property table used to materialize
// freshly built instances. Defaults to observable.Default.
func WithObservables(r *observable.Registry) Option {
	return func(c *Container) {
		if r != nil {
			c.observables = r
		}
	}
}

const lazyPrefix = "lazy:"

// LazyOf returns the token that resolves to a Producer for t.
func LazyOf(t Token) Token {
	return Token(lazyPrefix) + t
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{
		registrations: make(map[Token]registration, 32),
		singletons:    make(map[Token]any, 16),
		observables:   observable.Default,
		statePool: sync.Pool{
			New: func() interface{} {
				return &resolutionState{
					chain: make(map[Token]bool, 8),
					path:  make([]Token, 0, 8),
				}
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observables returns the computed-property table the container materializes with.
func (c *Container) Observables() *observable.Registry {
	return c.observables
}

// Register binds token to factory with the given dependencies and lifetime.
// Registering a token again replaces the earlier entry and drops its cached
// singleton; that is meant for test setup, not runtime use.
// A LazyFactory registration takes exactly one dependency, the wrapped
// token, and no factory.
func (c *Container) Register(token Token, deps []Token, factory Factory, lifetime Lifetime) error {
	switch lifetime {
	case Transient, Singleton:
		if factory == nil {
			return &NilFactoryError{Token: token}
		}
	case LazyFactory:
		if len(deps) != 1 {
			return &InvalidRegistrationError{Token: token, Reason: "lazy factory must wrap exactly one token"}
		}
	default:
		return &InvalidRegistrationError{Token: token, Reason: fmt.Sprintf("unknown lifetime %q", lifetime)}
	}
	if token == "" || strings.HasPrefix(string(token), lazyPrefix) {
		return &InvalidRegistrationError{Token: token, Reason: "token must be non-empty and must not use the lazy prefix"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, replaced := c.registrations[token]; replaced {
		log.Debug(log.CatContainer, "registration replaced", "token", token)
	}
	c.registrations[token] = registration{
		token:    token,
		deps:     append([]Token(nil), deps...),
		factory:  factory,
		lifetime: lifetime,
	}
	if _, ok := c.singletons[token]; ok {
		delete(c.singletons, token)
		c.buildOrder = removeToken(c.buildOrder, token)
	}

	log.Debug(log.CatContainer, "registered", "token", token, "lifetime", lifetime, "deps", len(deps))
	return nil
}

// Resolve returns the instance for token, building its dependencies first in
// declared order. LazyFactory registrations and LazyOf tokens yield a
// Producer instead of an instance.
// Returns UnregisteredTokenError if no registration exists.
// Returns CircularDependencyError if the chain re-enters a token.
func (c *Container) Resolve(token Token) (any, error) {
	return c.resolveFrom(nil, token)
}

// resolveFrom resolves token on a fresh chain seeded with path.
func (c *Container) resolveFrom(path []Token, token Token) (any, error) {
	state := c.statePool.Get().(*resolutionState)
	defer c.releaseState(state)
	for _, t := range path {
		state.chain[t] = true
		state.path = append(state.path, t)
	}
	return c.resolve(token, state)
}

func (c *Container) resolve(token Token, state *resolutionState) (any, error) {
	if state.chain[token] {
		chain := append(append([]Token(nil), state.path...), token)
		return nil, &CircularDependencyError{Token: token, Chain: chain}
	}

	if target, ok := strings.CutPrefix(string(token), lazyPrefix); ok {
		return c.producerFor(Token(target), state)
	}

	c.mu.RLock()
	reg, ok := c.registrations[token]
	cached, built := c.singletons[token]
	c.mu.RUnlock()
	if !ok {
		return nil, &UnregisteredTokenError{Token: token}
	}

	switch reg.lifetime {
	case LazyFactory:
		return c.producerFor(reg.deps[0], state)
	case Singleton:
		if built {
			return cached, nil
		}
	}

	state.chain[token] = true
	state.path = append(state.path, token)
	defer func() {
		delete(state.chain, token)
		state.path = state.path[:len(state.path)-1]
	}()

	args := make([]any, len(reg.deps))
	for i, dep := range reg.deps {
		v, err := c.resolve(dep, state)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	instance, err := reg.factory(args)
	if err != nil {
		return nil, &FactoryError{Token: token, Err: err}
	}
	if err := observable.Materialize(c.observables, instance); err != nil {
		return nil, &MaterializeError{Token: token, Err: err}
	}

	if reg.lifetime == Singleton {
		return c.storeSingleton(token, instance), nil
	}

	log.Debug(log.CatContainer, "resolved", "token", token, "lifetime", reg.lifetime)
	return instance, nil
}

// storeSingleton caches instance unless another resolution stored one first,
// in which case the earlier instance wins.
func (c *Container) storeSingleton(token Token, instance any) any {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.singletons[token]; ok {
		log.Debug(log.CatContainer, "discarded concurrent singleton build", "token", token)
		return existing
	}
	if _, ok := c.registrations[token]; !ok {
		// Reset raced with the build; hand the instance out uncached.
		return instance
	}
	c.singletons[token] = instance
	c.buildOrder = append(c.buildOrder, token)

	log.Debug(log.CatContainer, "singleton built", "token", token)
	return instance
}

// producerFor looks the target up now and defers only the build. Called
// before state's resolution has finished, the producer continues its chain;
// afterwards it starts a new one.
func (c *Container) producerFor(target Token, state *resolutionState) (any, error) {
	c.mu.RLock()
	_, ok := c.registrations[target]
	c.mu.RUnlock()
	if !ok {
		return nil, &UnregisteredTokenError{Token: target}
	}

	origin := &lazyOrigin{path: append([]Token(nil), state.path...)}
	origin.live.Store(true)
	state.origins = append(state.origins, origin)

	return Producer(func() (any, error) {
		if origin.live.Load() {
			return c.resolveFrom(origin.path, target)
		}
		return c.Resolve(target)
	}), nil
}

func (c *Container) releaseState(state *resolutionState) {
	for k := range state.chain {
		delete(state.chain, k)
	}
	for _, o := range state.origins {
		o.live.Store(false)
	}
	clear(state.origins)
	state.origins = state.origins[:0]
	state.path = state.path[:0]
	c.statePool.Put(state)
}

// Has reports whether token is registered.
func (c *Container) Has(token Token) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.registrations[token]
	return ok
}

// Tokens returns all registered tokens in sorted order.
func (c *Container) Tokens() []Token {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tokens := make([]Token, 0, len(c.registrations))
	for t := range c.registrations {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	return tokens
}

// Boot builds every singleton registration in token order.
// Returns the first resolution error.
func (c *Container) Boot(ctx context.Context) error {
	for _, token := range c.Tokens() {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.mu.RLock()
		reg := c.registrations[token]
		c.mu.RUnlock()
		if reg.lifetime != Singleton {
			continue
		}
		if _, err := c.Resolve(token); err != nil {
			return fmt.Errorf("boot %s: %w", token, err)
		}
	}
	log.Info(log.CatContainer, "container booted", "registrations", len(c.Tokens()))
	return nil
}

// Shutdown disposes built singletons in reverse build order and empties the
// singleton cache. Registrations are kept, so singletons are rebuilt on the
// next resolution. All disposal failures are returned joined.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	order := c.buildOrder
	instances := c.singletons
	c.buildOrder = nil
	c.singletons = make(map[Token]any, 16)
	c.mu.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		token := order[i]
		d, ok := instances[token].(Disposable)
		if !ok {
			continue
		}
		if err := d.Dispose(ctx); err != nil {
			log.ErrorErr(log.CatContainer, "singleton dispose failed", err, "token", token)
			errs = append(errs, &ShutdownError{Token: token, Err: err})
		}
	}

	log.Info(log.CatContainer, "container shut down", "disposed", len(order))
	return errors.Join(errs...)
}

// Reset clears all registrations and cached singletons without disposing them.
// This function is intended for testing purposes only.
func (c *Container) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.registrations = make(map[Token]registration, 32)
	c.singletons = make(map[Token]any, 16)
	c.buildOrder = nil
}

func removeToken(tokens []Token, t Token) []Token {
	out := tokens[:0]
	for _, x := range tokens {
		if x != t {
			out = append(out, x)
		}
	}
	return out
}
