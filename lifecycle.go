package vmkit

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/centraunit/vmkit/internal/log"
	"github.com/centraunit/vmkit/internal/pubsub"
)

// State is a component's position in its activation lifecycle.
type State int

const (
	StateCreated State = iota
	StateActivating
	StateActivated
	StateDeactivating
	StateDeactivated
	// StateFailed is the terminal state reached when activate or deactivate fails.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateActivating:
		return "activating"
	case StateActivated:
		return "activated"
	case StateDeactivating:
		return "deactivating"
	case StateDeactivated:
		return "deactivated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDeactivated || s == StateFailed
}

var allowedTransitions = map[State][]State{
	StateCreated:      {StateActivating},
	StateActivating:   {StateActivated, StateFailed},
	StateActivated:    {StateDeactivating},
	StateDeactivating: {StateDeactivated, StateFailed},
}

// Lifecycle is the per-instance lifecycle record. One exists for the whole
// life of a component; operations on it run one at a time in arrival order.
type Lifecycle struct {
	id uuid.UUID

	mu      sync.Mutex
	state   State
	busy    bool
	waiters []chan struct{}
	hooks   []func()
	ended   bool
}

func newLifecycle() *Lifecycle {
	return &Lifecycle{id: uuid.New()}
}

// ID uniquely identifies the component instance.
func (l *Lifecycle) ID() uuid.UUID {
	return l.id
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// OnTerminal registers fn to run once when the instance reaches a terminal
// state. If it already has, fn runs immediately.
func (l *Lifecycle) OnTerminal(fn func()) {
	l.mu.Lock()
	if l.ended {
		l.mu.Unlock()
		fn()
		return
	}
	l.hooks = append(l.hooks, fn)
	l.mu.Unlock()
}

// acquire waits for this caller's turn. Turns are handed over in FIFO order.
func (l *Lifecycle) acquire() {
	l.mu.Lock()
	if !l.busy {
		l.busy = true
		l.mu.Unlock()
		return
	}
	turn := make(chan struct{})
	l.waiters = append(l.waiters, turn)
	l.mu.Unlock()
	<-turn
}

func (l *Lifecycle) release() {
	l.mu.Lock()
	if len(l.waiters) > 0 {
		next := l.waiters[0]
		l.waiters = l.waiters[1:]
		l.mu.Unlock()
		close(next)
		return
	}
	l.busy = false
	l.mu.Unlock()
}

// advance moves to next if the transition table allows it and returns the
// previous state.
func (l *Lifecycle) advance(op string, next State) (State, error) {
	l.mu.Lock()
	prev := l.state
	allowed := false
	for _, s := range allowedTransitions[prev] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		l.mu.Unlock()
		return prev, &InvalidLifecycleTransitionError{Op: op, State: prev}
	}
	l.state = next

	var hooks []func()
	if next.Terminal() {
		l.ended = true
		hooks = l.hooks
		l.hooks = nil
	}
	l.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	return prev, nil
}

// Outcome is the non-error result of a lifecycle operation.
type Outcome int

const (
	// OutcomeCompleted means the transition ran to the target state.
	OutcomeCompleted Outcome = iota + 1
	// OutcomeCancelled means a guard declined; the state is unchanged.
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Transition describes one lifecycle state change or a guard cancellation.
type Transition struct {
	InstanceID uuid.UUID
	Component  string
	From       State
	To         State
	Cancelled  bool
	Err        error
}

// TransitionEvent is a published Transition.
type TransitionEvent = pubsub.Event[Transition]

// Controller drives component lifecycles and reports every transition.
type Controller struct {
	events *pubsub.Broker[Transition]
	tracer trace.Tracer
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithTracer sets the tracer used for lifecycle spans.
func WithTracer(t trace.Tracer) ControllerOption {
	return func(c *Controller) {
		if t != nil {
			c.tracer = t
		}
	}
}

// NewController creates a controller. Spans go to the global tracer
// provider unless WithTracer is given.
func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		events: pubsub.NewBroker[Transition](),
		tracer: otel.Tracer("github.com/centraunit/vmkit"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe streams transitions until ctx is cancelled or the controller closes.
func (c *Controller) Subscribe(ctx context.Context) <-chan TransitionEvent {
	return c.events.Subscribe(ctx)
}

// Close stops event delivery.
func (c *Controller) Close() {
	c.events.Close()
}

// TryActivate runs the activation guard and, if it agrees, activates vm
// with opts. A declining guard yields OutcomeCancelled and leaves vm in
// StateCreated. An Activate failure moves vm to StateFailed and is returned
// unchanged.
// Returns InvalidLifecycleTransitionError unless vm is in StateCreated.
func TryActivate[O any](ctx context.Context, c *Controller, vm ViewModel[O], opts O) (Outcome, error) {
	lc := vm.Lifecycle()
	lc.acquire()
	defer lc.release()

	ctx, span := c.startSpan(ctx, "vmkit.activate", vm)
	defer span.End()

	if st := lc.State(); st != StateCreated {
		err := &InvalidLifecycleTransitionError{Op: "activate", State: st}
		recordError(span, err)
		return 0, err
	}

	ok, err := vm.CanActivate(ctx)
	if err != nil {
		recordError(span, err)
		return 0, err
	}
	if !ok {
		c.cancelled(span, vm, StateCreated)
		return OutcomeCancelled, nil
	}

	if err := c.move(ctx, vm, "activate", StateActivating, nil); err != nil {
		recordError(span, err)
		return 0, err
	}
	if err := vm.Activate(ctx, opts); err != nil {
		_ = c.move(ctx, vm, "activate", StateFailed, err)
		recordError(span, err)
		return 0, err
	}
	if err := c.move(ctx, vm, "activate", StateActivated, nil); err != nil {
		recordError(span, err)
		return 0, err
	}
	return OutcomeCompleted, nil
}

// TryDeactivate runs the deactivation guard and, if it agrees, deactivates
// vm. A declining guard yields OutcomeCancelled and leaves vm activated.
// A Deactivate failure moves vm to StateFailed and is returned unchanged.
// Returns InvalidLifecycleTransitionError unless vm is in StateActivated.
func (c *Controller) TryDeactivate(ctx context.Context, vm Component) (Outcome, error) {
	lc := vm.Lifecycle()
	lc.acquire()
	defer lc.release()

	ctx, span := c.startSpan(ctx, "vmkit.deactivate", vm)
	defer span.End()

	if st := lc.State(); st != StateActivated {
		err := &InvalidLifecycleTransitionError{Op: "deactivate", State: st}
		recordError(span, err)
		return 0, err
	}

	ok, err := vm.CanDeactivate(ctx)
	if err != nil {
		recordError(span, err)
		return 0, err
	}
	if !ok {
		c.cancelled(span, vm, StateActivated)
		return OutcomeCancelled, nil
	}

	if err := c.move(ctx, vm, "deactivate", StateDeactivating, nil); err != nil {
		recordError(span, err)
		return 0, err
	}
	if err := vm.Deactivate(ctx); err != nil {
		_ = c.move(ctx, vm, "deactivate", StateFailed, err)
		recordError(span, err)
		return 0, err
	}
	if err := c.move(ctx, vm, "deactivate", StateDeactivated, nil); err != nil {
		recordError(span, err)
		return 0, err
	}
	return OutcomeCompleted, nil
}

func (c *Controller) move(ctx context.Context, vm Stateful, op string, to State, cause error) error {
	lc := vm.Lifecycle()
	from, err := lc.advance(op, to)
	if err != nil {
		return err
	}

	name := componentName(vm)
	trace.SpanFromContext(ctx).AddEvent("transition", trace.WithAttributes(
		attribute.String("vmkit.from", from.String()),
		attribute.String("vmkit.to", to.String()),
	))
	if cause != nil {
		log.ErrorErr(log.CatLifecycle, "transition failed", cause, "component", name, "instance", lc.ID(), "from", from, "to", to)
	} else {
		log.Debug(log.CatLifecycle, "transition", "component", name, "instance", lc.ID(), "from", from, "to", to)
	}
	c.events.Publish(Transition{
		InstanceID: lc.ID(),
		Component:  name,
		From:       from,
		To:         to,
		Err:        cause,
	})
	return nil
}

func (c *Controller) cancelled(span trace.Span, vm Stateful, at State) {
	name := componentName(vm)
	span.SetAttributes(attribute.Bool("vmkit.cancelled", true))
	log.Info(log.CatLifecycle, "guard declined", "component", name, "instance", vm.Lifecycle().ID(), "state", at)
	c.events.Publish(Transition{
		InstanceID: vm.Lifecycle().ID(),
		Component:  name,
		From:       at,
		To:         at,
		Cancelled:  true,
	})
}

func (c *Controller) startSpan(ctx context.Context, name string, vm Stateful) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("vmkit.component", componentName(vm)),
		attribute.String("vmkit.instance", vm.Lifecycle().ID().String()),
	))
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func componentName(vm any) string {
	return fmt.Sprintf("%T", vm)
}
