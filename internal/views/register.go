package views

import (
	"github.com/centraunit/vmkit"
	"github.com/centraunit/vmkit/observable"
)

// DefineObservables declares the computed properties of every view-model.
func DefineObservables(reg *observable.Registry) {
	defineNoteObservables(reg)
	defineListObservables(reg)
}

// Register declares the view observables on c's registry and registers
// every view-model as transient. The repository, navigator and dialog
// service must be registered separately.
func Register(c *vmkit.Container) error {
	DefineObservables(c.Observables())

	if err := vmkit.Provide(c, vmkit.Transient, NewNoteViewModel); err != nil {
		return err
	}
	if err := vmkit.Provide(c, vmkit.Transient, NewTermsPartial); err != nil {
		return err
	}
	if err := vmkit.Provide2(c, vmkit.Transient, NewHome); err != nil {
		return err
	}
	if err := vmkit.Provide4(c, vmkit.Transient, NewNoteDetail); err != nil {
		return err
	}
	return vmkit.Provide4(c, vmkit.Transient, NewNoteList)
}
