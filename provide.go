package vmkit

import (
	"fmt"
	"reflect"
	"sync"
)

var typeTokenCache sync.Map

// TokenOf returns the token the typed helpers use for T.
// Named types are qualified with their full package path.
func TokenOf[T any]() Token {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if cached, ok := typeTokenCache.Load(t); ok {
		return cached.(Token)
	}
	tok := Token(typeName(t))
	typeTokenCache.Store(t, tok)
	return tok
}

func typeName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		return "*" + typeName(t.Elem())
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// Lazy is a dependency that defers building T until it is called. Each call
// performs one resolution under T's own lifetime.
type Lazy[T any] func() (T, error)

type lazyDependency interface {
	lazyTarget() Token
	fromProducer(p Producer) any
}

func (Lazy[T]) lazyTarget() Token {
	return TokenOf[T]()
}

func (Lazy[T]) fromProducer(p Producer) any {
	return Lazy[T](func() (T, error) {
		v, err := p()
		if err != nil {
			var zero T
			return zero, err
		}
		return as[T](v)
	})
}

// depToken maps a dependency type to its token; Lazy[T] maps to LazyOf(T).
func depToken[A any]() Token {
	var zero A
	if ld, ok := any(zero).(lazyDependency); ok {
		return LazyOf(ld.lazyTarget())
	}
	return TokenOf[A]()
}

// arg converts a resolved dependency to the parameter type A.
func arg[A any](v any) (A, error) {
	var zero A
	if ld, ok := any(zero).(lazyDependency); ok {
		p, ok := v.(Producer)
		if !ok {
			return zero, &TypeMismatchError{Expected: "vmkit.Producer", Got: fmt.Sprintf("%T", v)}
		}
		return ld.fromProducer(p).(A), nil
	}
	return as[A](v)
}

func as[T any](v any) (T, error) {
	if typed, ok := v.(T); ok {
		return typed, nil
	}
	var zero T
	return zero, &TypeMismatchError{
		Expected: reflect.TypeOf((*T)(nil)).Elem().String(),
		Got:      fmt.Sprintf("%T", v),
	}
}

// Provide registers a constructor with no dependencies under TokenOf[T].
func Provide[T any](c *Container, lifetime Lifetime, ctor func() (T, error)) error {
	return c.Register(TokenOf[T](), nil, func([]any) (any, error) {
		return ctor()
	}, lifetime)
}

// Provide1 registers a constructor with one dependency.
func Provide1[T, A any](c *Container, lifetime Lifetime, ctor func(A) (T, error)) error {
	deps := []Token{depToken[A]()}
	return c.Register(TokenOf[T](), deps, func(args []any) (any, error) {
		a, err := arg[A](args[0])
		if err != nil {
			return nil, err
		}
		return ctor(a)
	}, lifetime)
}

// Provide2 registers a constructor with two dependencies.
func Provide2[T, A, B any](c *Container, lifetime Lifetime, ctor func(A, B) (T, error)) error {
	deps := []Token{depToken[A](), depToken[B]()}
	return c.Register(TokenOf[T](), deps, func(args []any) (any, error) {
		a, err := arg[A](args[0])
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args[1])
		if err != nil {
			return nil, err
		}
		return ctor(a, b)
	}, lifetime)
}

// Provide3 registers a constructor with three dependencies.
func Provide3[T, A, B, C any](c *Container, lifetime Lifetime, ctor func(A, B, C) (T, error)) error {
	deps := []Token{depToken[A](), depToken[B](), depToken[C]()}
	return c.Register(TokenOf[T](), deps, func(args []any) (any, error) {
		a, err := arg[A](args[0])
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args[1])
		if err != nil {
			return nil, err
		}
		cc, err := arg[C](args[2])
		if err != nil {
			return nil, err
		}
		return ctor(a, b, cc)
	}, lifetime)
}

// Provide4 registers a constructor with four dependencies.
func Provide4[T, A, B, C, D any](c *Container, lifetime Lifetime, ctor func(A, B, C, D) (T, error)) error {
	deps := []Token{depToken[A](), depToken[B](), depToken[C](), depToken[D]()}
	return c.Register(TokenOf[T](), deps, func(args []any) (any, error) {
		a, err := arg[A](args[0])
		if err != nil {
			return nil, err
		}
		b, err := arg[B](args[1])
		if err != nil {
			return nil, err
		}
		cc, err := arg[C](args[2])
		if err != nil {
			return nil, err
		}
		d, err := arg[D](args[3])
		if err != nil {
			return nil, err
		}
		return ctor(a, b, cc, d)
	}, lifetime)
}

// ProvideValue registers an existing value as the singleton for T.
func ProvideValue[T any](c *Container, value T) error {
	return c.Register(TokenOf[T](), nil, func([]any) (any, error) {
		return value, nil
	}, Singleton)
}

// Resolve resolves T through its typed token.
// Returns TypeMismatchError if the registration produced another type.
func Resolve[T any](c *Container) (T, error) {
	v, err := c.Resolve(depToken[T]())
	if err != nil {
		var zero T
		return zero, err
	}
	return arg[T](v)
}

// ResolveToken resolves an explicit token and asserts the result to T.
func ResolveToken[T any](c *Container, token Token) (T, error) {
	v, err := c.Resolve(token)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](v)
}

// MustResolve is Resolve that panics on error. Intended for wiring code.
func MustResolve[T any](c *Container) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(err)
	}
	return v
}
