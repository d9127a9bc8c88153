package vmkit

import (
	"context"
	"errors"

	"github.com/centraunit/vmkit/internal/log"
	"github.com/centraunit/vmkit/observable"
)

// Presenter puts a modal in front of the user. It may return before the
// modal settles; OpenDialog waits on the result channel either way.
type Presenter interface {
	Present(ctx context.Context, modal any) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(ctx context.Context, modal any) error

func (f PresenterFunc) Present(ctx context.Context, modal any) error {
	return f(ctx, modal)
}

// DialogService opens modals and hands their results back.
type DialogService struct {
	ctrl      *Controller
	presenter Presenter
	confirm   Lazy[*ConfirmDialog]
}

// NewDialogService creates a dialog host. confirm builds a fresh
// ConfirmDialog for each Confirm call.
func NewDialogService(ctrl *Controller, presenter Presenter, confirm Lazy[*ConfirmDialog]) *DialogService {
	return &DialogService{ctrl: ctrl, presenter: presenter, confirm: confirm}
}

// Controller returns the lifecycle controller used for modals.
func (s *DialogService) Controller() *Controller {
	return s.ctrl
}

// OpenDialog activates modal with opts, presents it, waits for its result
// and deactivates it. If the activation guard declines, the result is an
// unpresented cancel carrying the modal's fallback value.
// If ctx ends before the modal settles, the modal is still closed and
// ctx's error is returned.
func OpenDialog[O, T any](ctx context.Context, s *DialogService, modal Modal[O, T], opts O) (DialogResult[T], error) {
	rc := modal.Results()

	outcome, err := TryActivate[O](ctx, s.ctrl, modal, opts)
	if err != nil {
		return DialogResult[T]{}, err
	}
	if outcome == OutcomeCancelled {
		log.Debug(log.CatDialog, "dialog open declined", "instance", modal.Lifecycle().ID())
		return DialogResult[T]{Settled: true, Outcome: DialogCancel, Value: rc.Fallback()}, nil
	}

	if err := s.presenter.Present(ctx, modal); err != nil {
		log.ErrorErr(log.CatDialog, "present failed", err, "instance", modal.Lifecycle().ID())
		return DialogResult[T]{}, errors.Join(err, s.close(context.WithoutCancel(ctx), modal))
	}

	res, waitErr := rc.AwaitResult(ctx)
	if waitErr != nil {
		return DialogResult[T]{}, errors.Join(waitErr, s.close(context.WithoutCancel(ctx), modal))
	}
	if err := s.close(ctx, modal); err != nil {
		return res, err
	}
	return res, nil
}

// close deactivates a modal. A declining guard leaves it open and is only
// logged, since the result is already in hand.
func (s *DialogService) close(ctx context.Context, modal Component) error {
	outcome, err := s.ctrl.TryDeactivate(ctx, modal)
	if err != nil {
		return err
	}
	if outcome == OutcomeCancelled {
		log.Warn(log.CatDialog, "modal refused to close", "instance", modal.Lifecycle().ID())
	}
	return nil
}

// Confirm asks a yes/no question and reports whether it was accepted.
func (s *DialogService) Confirm(ctx context.Context, message, title string) (bool, error) {
	dlg, err := s.confirm()
	if err != nil {
		return false, err
	}
	res, err := OpenDialog[ConfirmOptions, bool](ctx, s, dlg, ConfirmOptions{Message: message, Title: title})
	if err != nil {
		return false, err
	}
	return res.Outcome == DialogOK && res.Value, nil
}

// ConfirmOptions are the activation options of ConfirmDialog.
type ConfirmOptions struct {
	Message string
	Title   string
}

// ConfirmDialog is the built-in yes/no modal.
type ConfirmDialog struct {
	BaseModal[bool]
}

// NewConfirmDialog creates an unactivated confirm dialog.
func NewConfirmDialog() (*ConfirmDialog, error) {
	return &ConfirmDialog{}, nil
}

func (d *ConfirmDialog) Activate(_ context.Context, opts ConfirmOptions) error {
	d.Properties().Batch(func() {
		d.Properties().Set("message", opts.Message)
		d.Properties().Set("title", opts.Title)
	})
	return nil
}

// Message returns the question shown to the user.
func (d *ConfirmDialog) Message() string {
	return observable.GetAs[string](d.Properties(), "message")
}

// Title returns the dialog title.
func (d *ConfirmDialog) Title() string {
	return observable.GetAs[string](d.Properties(), "title")
}

// Answer settles the dialog: yes accepts, no cancels.
func (d *ConfirmDialog) Answer(yes bool) error {
	if yes {
		return d.Ok(true)
	}
	return d.Cancel(false)
}

// Install registers the lifecycle controller, presenter, confirm dialog and
// dialog service on c.
// Returns InvalidRegistrationError if presenter is nil.
func Install(c *Container, ctrl *Controller, presenter Presenter) error {
	if presenter == nil {
		return &InvalidRegistrationError{Token: TokenOf[Presenter](), Reason: "presenter must not be nil"}
	}
	if err := ProvideValue(c, ctrl); err != nil {
		return err
	}
	if err := ProvideValue(c, presenter); err != nil {
		return err
	}
	if err := Provide(c, Transient, NewConfirmDialog); err != nil {
		return err
	}
	return Provide3(c, Singleton, func(ctrl *Controller, p Presenter, confirm Lazy[*ConfirmDialog]) (*DialogService, error) {
		return NewDialogService(ctrl, p, confirm), nil
	})
}
