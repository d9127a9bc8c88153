package views

import (
	"context"
	"errors"

	"github.com/centraunit/vmkit"
	"github.com/centraunit/vmkit/observable"
)

const termsText = "Notes are stored in memory and are gone when the program exits."

// TermsPartial shows the usage terms on the home page.
type TermsPartial struct {
	vmkit.Base
}

func NewTermsPartial() (*TermsPartial, error) {
	return &TermsPartial{}, nil
}

func (t *TermsPartial) Activate(context.Context, NoOptions) error {
	p := t.Properties()
	p.Batch(func() {
		p.Set("text", termsText)
		p.Set("accepted", false)
	})
	return nil
}

func (t *TermsPartial) Text() string {
	return observable.GetAs[string](t.Properties(), "text")
}

func (t *TermsPartial) Accepted() bool {
	return observable.GetAs[bool](t.Properties(), "accepted")
}

func (t *TermsPartial) Accept() {
	t.Properties().Set("accepted", true)
}

// Home is the landing page.
type Home struct {
	vmkit.Base

	Terms *TermsPartial
	ctrl  *vmkit.Controller
}

func NewHome(terms *TermsPartial, ctrl *vmkit.Controller) (*Home, error) {
	return &Home{Terms: terms, ctrl: ctrl}, nil
}

func (h *Home) Heading() string {
	return observable.GetAs[string](h.Properties(), "heading")
}

func (h *Home) Activate(ctx context.Context, _ NoOptions) error {
	h.Properties().Set("heading", "Home")
	_, err := vmkit.TryActivate[NoOptions](ctx, h.ctrl, h.Terms, NoOptions{})
	return err
}

// Deactivate deactivates the terms partial before the page itself.
func (h *Home) Deactivate(ctx context.Context) error {
	var errs []error
	if h.Terms.Lifecycle().State() == vmkit.StateActivated {
		if _, err := h.ctrl.TryDeactivate(ctx, h.Terms); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, h.Base.Deactivate(ctx))
	return errors.Join(errs...)
}
