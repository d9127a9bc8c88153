package vmkit

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/centraunit/vmkit/observable"
)

// Base supplies the lifecycle record, reactive properties, default guards
// and disposable tracking a view-model needs. Embed it by value and add an
// Activate method to satisfy ViewModel.
type Base struct {
	observable.Base

	once sync.Once
	lc   *Lifecycle

	mu          sync.Mutex
	disposables []func() error
	released    bool
}

// Lifecycle returns the instance's lifecycle record, creating it on first use.
func (b *Base) Lifecycle() *Lifecycle {
	b.once.Do(func() { b.lc = newLifecycle() })
	return b.lc
}

// ID returns the instance identifier.
func (b *Base) ID() uuid.UUID {
	return b.Lifecycle().ID()
}

// CanActivate allows activation.
func (b *Base) CanActivate(context.Context) (bool, error) {
	return true, nil
}

// CanDeactivate allows deactivation.
func (b *Base) CanDeactivate(context.Context) (bool, error) {
	return true, nil
}

// Deactivate releases everything tracked so far.
func (b *Base) Deactivate(context.Context) error {
	return b.Release()
}

// Track registers fn to run when the instance releases its resources.
func (b *Base) Track(fn func()) {
	b.track(func() error {
		fn()
		return nil
	})
}

// TrackCloser registers c to be closed when the instance releases its resources.
func (b *Base) TrackCloser(c io.Closer) {
	b.track(c.Close)
}

func (b *Base) track(fn func() error) {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		_ = fn()
		return
	}
	b.disposables = append(b.disposables, fn)
	b.mu.Unlock()
}

// Watch subscribes fn to a property and tracks the subscription.
func (b *Base) Watch(name string, fn observable.Listener) {
	b.Track(b.Properties().Subscribe(name, fn))
}

// Release runs the tracked disposers in reverse registration order. Only the
// first call does anything; later registrations run immediately.
func (b *Base) Release() error {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return nil
	}
	b.released = true
	fns := b.disposables
	b.disposables = nil
	b.mu.Unlock()

	var errs []error
	for i := len(fns) - 1; i >= 0; i-- {
		if err := fns[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
