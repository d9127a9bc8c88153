// Package vmkit provides dependency resolution, a guarded activation
// lifecycle and modal result handshakes for view-model components.
package vmkit

import "context"

// Token identifies a component type or an abstract capability in the container.
type Token string

// Factory builds an instance from its resolved dependencies, which arrive in
// the order they were declared at registration.
type Factory func(deps []any) (any, error)

// Producer performs one deferred resolution. It is what a LazyFactory
// registration or a LazyOf token resolves to.
type Producer func() (any, error)

// Lifetime defines how often a registration's factory runs.
type Lifetime string

// Available lifetimes
const (
	// Transient builds a new instance for each resolution
	Transient Lifetime = "transient"
	// Singleton builds once and shares the instance across the container
	Singleton Lifetime = "singleton"
	// LazyFactory yields a Producer for the wrapped token instead of an instance
	LazyFactory Lifetime = "lazy"
)

func (l Lifetime) String() string {
	return string(l)
}

// Disposable is implemented by singletons that hold resources released at
// container shutdown.
type Disposable interface {
	Dispose(ctx context.Context) error
}

// ActivationGuard decides whether a component may be activated.
type ActivationGuard interface {
	CanActivate(ctx context.Context) (bool, error)
}

// Activator receives the activation options of type O.
type Activator[O any] interface {
	Activate(ctx context.Context, opts O) error
}

// DeactivationGuard decides whether a component may be deactivated.
type DeactivationGuard interface {
	CanDeactivate(ctx context.Context) (bool, error)
}

// Deactivator releases a component's resources.
type Deactivator interface {
	Deactivate(ctx context.Context) error
}

// Stateful exposes the lifecycle record a component carries. Embedding Base
// satisfies it.
type Stateful interface {
	Lifecycle() *Lifecycle
}

// Component is what the controller can deactivate.
type Component interface {
	Stateful
	DeactivationGuard
	Deactivator
}

// ViewModel is a component that can be activated with options of type O.
type ViewModel[O any] interface {
	Component
	ActivationGuard
	Activator[O]
}
