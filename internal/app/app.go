// Package app assembles the notes application: the container with every
// service and view-model registered, the lifecycle controller and the
// navigation shell.
package app

import (
	"context"
	"fmt"

	"github.com/centraunit/vmkit"
	"github.com/centraunit/vmkit/internal/config"
	"github.com/centraunit/vmkit/internal/log"
	"github.com/centraunit/vmkit/internal/notes"
	"github.com/centraunit/vmkit/internal/views"
	"github.com/centraunit/vmkit/observable"
)

// App is a booted notes application.
type App struct {
	Config     config.Config
	Container  *vmkit.Container
	Controller *vmkit.Controller
	Shell      *Shell

	stop context.CancelFunc
	done chan struct{}
}

// Bootstrap registers every service and view-model and boots the container.
// Modals are shown through presenter.
func Bootstrap(ctx context.Context, cfg config.Config, presenter vmkit.Presenter) (*App, error) {
	c := vmkit.New(vmkit.WithObservables(observable.NewRegistry()))
	ctrl := vmkit.NewController()
	shell := NewShell(c, ctrl, cfg.Notes)

	err := vmkit.Provide(c, vmkit.Singleton, func() (notes.Repository, error) {
		return newRepository(ctx, cfg.Notes.SeedFile)
	})
	if err == nil {
		err = vmkit.Install(c, ctrl, presenter)
	}
	if err == nil {
		err = vmkit.ProvideValue[views.Navigator](c, shell)
	}
	if err == nil {
		err = views.Register(c)
	}
	if err != nil {
		ctrl.Close()
		return nil, fmt.Errorf("registering services: %w", err)
	}

	if err := c.Boot(ctx); err != nil {
		ctrl.Close()
		return nil, err
	}

	watchCtx, stop := context.WithCancel(context.Background())
	a := &App{
		Config:     cfg,
		Container:  c,
		Controller: ctrl,
		Shell:      shell,
		stop:       stop,
		done:       make(chan struct{}),
	}
	go a.logTransitions(ctrl.Subscribe(watchCtx))

	log.Info(log.CatApp, "application booted", "tokens", len(c.Tokens()))
	return a, nil
}

func newRepository(ctx context.Context, seedFile string) (notes.Repository, error) {
	repo := notes.NewMemoryRepository()
	if seedFile == "" {
		return repo, nil
	}
	seed, err := notes.LoadSeed(seedFile)
	if err != nil {
		return nil, err
	}
	if err := repo.Seed(ctx, seed); err != nil {
		return nil, err
	}
	return repo, nil
}

func (a *App) logTransitions(events <-chan vmkit.TransitionEvent) {
	defer close(a.done)
	for ev := range events {
		t := ev.Payload
		log.Debug(log.CatApp, "transition",
			"component", t.Component,
			"from", t.From.String(),
			"to", t.To.String(),
			"cancelled", t.Cancelled)
	}
}

// Repository returns the shared note store.
func (a *App) Repository() (notes.Repository, error) {
	return vmkit.Resolve[notes.Repository](a.Container)
}

// Start shows the first view.
func (a *App) Start(ctx context.Context, route string, opts any) error {
	outcome, err := a.Shell.Go(ctx, route, opts)
	if err != nil {
		return err
	}
	if outcome == vmkit.OutcomeCancelled {
		return fmt.Errorf("view %q refused to open", route)
	}
	return nil
}

// Shutdown disposes the container's singletons and stops the controller.
// Call Shell.Close first to give the view on screen a chance to refuse.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Container.Shutdown(ctx)
	a.stop()
	a.Controller.Close()
	<-a.done
	if err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	log.Info(log.CatApp, "application stopped")
	return nil
}
