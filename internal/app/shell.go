package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/centraunit/vmkit"
	"github.com/centraunit/vmkit/internal/config"
	"github.com/centraunit/vmkit/internal/log"
	"github.com/centraunit/vmkit/internal/notes"
	"github.com/centraunit/vmkit/internal/views"
)

// ErrNoHistory is returned by Back when there is nothing to go back to.
var ErrNoHistory = errors.New("no previous view")

// UnknownRouteError reports navigation to a route with no view behind it.
type UnknownRouteError struct {
	Route string
}

func (e *UnknownRouteError) Error() string {
	return fmt.Sprintf("unknown route %q", e.Route)
}

// OptionsTypeError reports activation options of the wrong type for a route.
type OptionsTypeError struct {
	Route    string
	Expected string
	Got      string
}

func (e *OptionsTypeError) Error() string {
	return fmt.Sprintf("route %q expects options of type %s, got %s", e.Route, e.Expected, e.Got)
}

// page checks and applies the activation options of a route. Nil opts
// select the route's defaults.
type page struct {
	options func(opts any) (any, error)
	open    func(ctx context.Context, opts any) (vmkit.Component, vmkit.Outcome, error)
}

type entry struct {
	route string
	opts  any
	view  vmkit.Component
}

// Shell is the top-level navigator. It shows one view at a time and keeps a
// history of the views it left. A view that refuses to deactivate keeps the
// shell where it is; a target that refuses to activate or fails brings the
// previous view back with its previous options.
//
// Shell is not safe for concurrent use.
type Shell struct {
	c    *vmkit.Container
	ctrl *vmkit.Controller

	routes  map[string]page
	current *entry
	history []entry
}

var _ views.Navigator = (*Shell)(nil)

// NewShell creates a shell whose note list defaults follow cfg.
func NewShell(c *vmkit.Container, ctrl *vmkit.Controller, cfg config.NotesConfig) *Shell {
	s := &Shell{c: c, ctrl: ctrl}
	s.routes = map[string]page{
		views.RouteHome: route[views.NoOptions, *views.Home](s, views.RouteHome, func() views.NoOptions {
			return views.NoOptions{}
		}),
		views.RouteNotes: route[views.ListOptions, *views.NoteList](s, views.RouteNotes, func() views.ListOptions {
			return views.ListOptions{
				EditMode: cfg.EditMode,
				Order:    notes.OrderBy{Prop: cfg.SortBy, Desc: cfg.SortDesc},
			}
		}),
		views.RouteNoteDetail: route[views.DetailOptions, *views.NoteDetail](s, views.RouteNoteDetail, func() views.DetailOptions {
			return views.DetailOptions{ID: notes.NewNoteID}
		}),
	}
	return s
}

func route[O any, V vmkit.ViewModel[O]](s *Shell, name string, defaults func() O) page {
	return page{
		options: func(opts any) (any, error) {
			if opts == nil {
				return defaults(), nil
			}
			typed, ok := opts.(O)
			if !ok {
				return nil, &OptionsTypeError{
					Route:    name,
					Expected: fmt.Sprintf("%T", defaults()),
					Got:      fmt.Sprintf("%T", opts),
				}
			}
			return typed, nil
		},
		open: func(ctx context.Context, opts any) (vmkit.Component, vmkit.Outcome, error) {
			vm, err := vmkit.Resolve[V](s.c)
			if err != nil {
				return nil, 0, err
			}
			outcome, err := vmkit.TryActivate[O](ctx, s.ctrl, vm, opts.(O))
			return vm, outcome, err
		},
	}
}

// Current returns the view on screen, nil before the first navigation.
func (s *Shell) Current() vmkit.Component {
	if s.current == nil {
		return nil
	}
	return s.current.view
}

// Route returns the route of the view on screen.
func (s *Shell) Route() string {
	if s.current == nil {
		return ""
	}
	return s.current.route
}

// Depth is the number of views Back can return to.
func (s *Shell) Depth() int {
	return len(s.history)
}

// Navigate implements views.Navigator.
func (s *Shell) Navigate(ctx context.Context, route string, opts any) error {
	_, err := s.Go(ctx, route, opts)
	return err
}

// Go opens route and reports whether the move happened.
func (s *Shell) Go(ctx context.Context, route string, opts any) (vmkit.Outcome, error) {
	return s.open(ctx, route, opts, true)
}

// Back reopens the previous view with the options it was shown with.
func (s *Shell) Back(ctx context.Context) error {
	if len(s.history) == 0 {
		return ErrNoHistory
	}
	top := s.history[len(s.history)-1]
	outcome, err := s.open(ctx, top.route, top.opts, false)
	if err != nil {
		return err
	}
	if outcome == vmkit.OutcomeCompleted {
		s.history = s.history[:len(s.history)-1]
	}
	return nil
}

// Close deactivates the view on screen and forgets the history. The view
// may refuse, in which case the shell stays open.
func (s *Shell) Close(ctx context.Context) (vmkit.Outcome, error) {
	if s.current == nil {
		return vmkit.OutcomeCompleted, nil
	}
	outcome, err := s.ctrl.TryDeactivate(ctx, s.current.view)
	if err != nil || outcome == vmkit.OutcomeCancelled {
		return outcome, err
	}
	log.Debug(log.CatApp, "shell closed", "route", s.current.route)
	s.current = nil
	s.history = nil
	return outcome, nil
}

func (s *Shell) open(ctx context.Context, name string, opts any, push bool) (vmkit.Outcome, error) {
	target, ok := s.routes[name]
	if !ok {
		return 0, &UnknownRouteError{Route: name}
	}
	used, err := target.options(opts)
	if err != nil {
		return 0, err
	}

	prev := s.current
	if prev != nil {
		outcome, err := s.ctrl.TryDeactivate(ctx, prev.view)
		if err != nil {
			return 0, fmt.Errorf("leaving %s: %w", prev.route, err)
		}
		if outcome == vmkit.OutcomeCancelled {
			log.Info(log.CatApp, "navigation refused by current view", "from", prev.route, "to", name)
			return outcome, nil
		}
		s.current = nil
	}

	view, outcome, err := target.open(ctx, used)
	if err == nil && outcome == vmkit.OutcomeCompleted {
		if push && prev != nil {
			s.history = append(s.history, entry{route: prev.route, opts: prev.opts})
		}
		s.current = &entry{route: name, opts: used, view: view}
		log.Debug(log.CatApp, "navigated", "route", name, "depth", len(s.history))
		return outcome, nil
	}

	if err != nil {
		log.ErrorErr(log.CatApp, "navigation failed", err, "route", name)
	} else {
		log.Info(log.CatApp, "navigation refused by target view", "route", name)
	}
	if prev != nil {
		if rerr := s.reopen(ctx, *prev); rerr != nil {
			err = errors.Join(err, fmt.Errorf("restoring %s: %w", prev.route, rerr))
		}
	}
	if err != nil {
		return 0, err
	}
	return vmkit.OutcomeCancelled, nil
}

// reopen shows a fresh instance of a view that was left.
func (s *Shell) reopen(ctx context.Context, e entry) error {
	view, outcome, err := s.routes[e.route].open(ctx, e.opts)
	if err != nil {
		return err
	}
	if outcome == vmkit.OutcomeCompleted {
		s.current = &entry{route: e.route, opts: e.opts, view: view}
	}
	return nil
}
