package vmkit

import (
	"context"
	"sync"

	"github.com/centraunit/vmkit/internal/log"
)

// DialogOutcome tags how a modal was closed.
type DialogOutcome string

const (
	DialogOK     DialogOutcome = "ok"
	DialogCancel DialogOutcome = "cancel"
)

func (o DialogOutcome) String() string {
	return string(o)
}

// DialogResult is what a modal hands back to whoever opened it.
type DialogResult[T any] struct {
	Settled bool
	Outcome DialogOutcome
	Value   T
}

// ResultChannel is a one-shot result handshake owned by a modal. It settles
// at most once, either explicitly through Ok or Cancel while the owner is
// activated, or implicitly with Cancel(fallback) when the owner reaches a
// terminal state unsettled.
type ResultChannel[T any] struct {
	owner Stateful

	mu       sync.Mutex
	result   DialogResult[T]
	fallback T
	done     chan struct{}
}

// NewResultChannel creates a channel bound to owner's lifecycle.
func NewResultChannel[T any](owner Stateful, fallback T) *ResultChannel[T] {
	rc := &ResultChannel[T]{
		owner:    owner,
		fallback: fallback,
		done:     make(chan struct{}),
	}
	owner.Lifecycle().OnTerminal(rc.teardown)
	return rc
}

// Ok settles with DialogOK.
func (rc *ResultChannel[T]) Ok(v T) error {
	return rc.Settle(DialogOK, v)
}

// Cancel settles with DialogCancel.
func (rc *ResultChannel[T]) Cancel(v T) error {
	return rc.Settle(DialogCancel, v)
}

// Settle records the result and wakes every waiter.
// Returns InvalidLifecycleTransitionError unless the owner is activated.
// Returns AlreadySettledError on every call after the first.
func (rc *ResultChannel[T]) Settle(outcome DialogOutcome, v T) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.result.Settled {
		return &AlreadySettledError{Outcome: rc.result.Outcome}
	}
	if st := rc.owner.Lifecycle().State(); st != StateActivated {
		return &InvalidLifecycleTransitionError{Op: "settle", State: st}
	}
	rc.settleLocked(outcome, v)
	return nil
}

func (rc *ResultChannel[T]) settleLocked(outcome DialogOutcome, v T) {
	rc.result = DialogResult[T]{Settled: true, Outcome: outcome, Value: v}
	close(rc.done)
	log.Debug(log.CatDialog, "dialog settled", "instance", rc.owner.Lifecycle().ID(), "outcome", outcome)
}

func (rc *ResultChannel[T]) teardown() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.result.Settled {
		return
	}
	rc.settleLocked(DialogCancel, rc.fallback)
}

// AwaitResult blocks until the channel settles or ctx is done.
func (rc *ResultChannel[T]) AwaitResult(ctx context.Context) (DialogResult[T], error) {
	select {
	case <-rc.done:
		return rc.Result(), nil
	case <-ctx.Done():
		return DialogResult[T]{}, ctx.Err()
	}
}

// Result returns the current result; Settled is false until it settles.
func (rc *ResultChannel[T]) Result() DialogResult[T] {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.result
}

// Done is closed once the channel settles.
func (rc *ResultChannel[T]) Done() <-chan struct{} {
	return rc.done
}

// Fallback returns the value used for an implicit cancel.
func (rc *ResultChannel[T]) Fallback() T {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.fallback
}

// SetFallback replaces the value used for an implicit cancel.
func (rc *ResultChannel[T]) SetFallback(v T) {
	rc.mu.Lock()
	rc.fallback = v
	rc.mu.Unlock()
}

// BaseModal is Base plus a result channel. Embed it in modal view-models.
type BaseModal[T any] struct {
	Base

	resultsOnce sync.Once
	results     *ResultChannel[T]
}

// Results returns the modal's result channel, creating it on first use with
// the zero value of T as fallback.
func (m *BaseModal[T]) Results() *ResultChannel[T] {
	m.resultsOnce.Do(func() {
		var zero T
		m.results = NewResultChannel[T](&m.Base, zero)
	})
	return m.results
}

// Ok closes the modal with an accepted value.
func (m *BaseModal[T]) Ok(v T) error {
	return m.Results().Ok(v)
}

// Cancel closes the modal with a dismissed value.
func (m *BaseModal[T]) Cancel(v T) error {
	return m.Results().Cancel(v)
}

// Modal is a view-model that produces a result of type T.
type Modal[O, T any] interface {
	ViewModel[O]
	Results() *ResultChannel[T]
}
