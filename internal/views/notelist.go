package views

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/centraunit/vmkit"
	"github.com/centraunit/vmkit/internal/config"
	"github.com/centraunit/vmkit/internal/notes"
	"github.com/centraunit/vmkit/observable"
)

// ListOptions are the activation options of NoteList. Edit mode samepage
// edits notes in the list; anything else opens the detail page.
type ListOptions struct {
	EditMode string
	Order    notes.OrderBy
}

var sortProps = []string{notes.PropModified, notes.PropContent}

// NoteList is the page listing every note.
type NoteList struct {
	vmkit.Base

	repo         notes.Repository
	newNoteModel vmkit.Lazy[*NoteViewModel]
	dialogs      *vmkit.DialogService
	nav          Navigator

	noteModels []*NoteViewModel
}

// NewNoteList creates an unactivated list page. newNoteModel builds one
// note partial per call.
func NewNoteList(repo notes.Repository, newNoteModel vmkit.Lazy[*NoteViewModel], dialogs *vmkit.DialogService, nav Navigator) (*NoteList, error) {
	return &NoteList{
		repo:         repo,
		newNoteModel: newNoteModel,
		dialogs:      dialogs,
		nav:          nav,
	}, nil
}

func defineListObservables(reg *observable.Registry) {
	observable.Define(reg, "toggleEditModeButtonText", []string{"allowEditing"}, func(l *NoteList) any {
		target := "same-page"
		if l.AllowEditing() {
			target = "separate-page"
		}
		return fmt.Sprintf("Switch to %s edit-mode", target)
	})
}

func (l *NoteList) Activate(ctx context.Context, opts ListOptions) error {
	prop := opts.Order.Prop
	if prop == "" {
		prop = notes.PropModified
	}
	p := l.Properties()
	p.Batch(func() {
		p.Set("allowEditing", opts.EditMode == config.EditModeSamePage)
		p.Set("sortProp", prop)
		p.Set("sortDesc", opts.Order.Desc)
		p.Set("hasUnsavedChanges", false)
	})
	return l.loadData(ctx)
}

func (l *NoteList) loadData(ctx context.Context) error {
	list, err := l.repo.List(ctx, notes.Query{OrderBy: l.Order()})
	if err != nil {
		return fmt.Errorf("listing notes: %w", err)
	}
	models := make([]*NoteViewModel, 0, len(list))
	for _, n := range list {
		m, err := l.activateModel(ctx, n)
		if err != nil {
			return errors.Join(err, l.deactivateModels(ctx, models))
		}
		models = append(models, m)
	}
	l.noteModels = models
	return nil
}

func (l *NoteList) activateModel(ctx context.Context, n notes.Note) (*NoteViewModel, error) {
	m, err := l.newNoteModel()
	if err != nil {
		return nil, fmt.Errorf("building note partial: %w", err)
	}
	if _, err := vmkit.TryActivate[NoteOptions](ctx, l.dialogs.Controller(), m, l.partialOptions(n)); err != nil {
		return nil, fmt.Errorf("activating note partial: %w", err)
	}
	return m, nil
}

func (l *NoteList) partialOptions(n notes.Note) NoteOptions {
	h := NoteHandlers{Remove: l.Remove}
	if l.AllowEditing() {
		h.Save = l.Save
	} else {
		h.Edit = l.Edit
	}
	return NoteOptions{
		Note:     n,
		Readonly: !l.AllowEditing(),
		Owner:    l,
		Handlers: h,
	}
}

// Deactivate deactivates every note partial, then releases the list's own
// resources.
func (l *NoteList) Deactivate(ctx context.Context) error {
	return errors.Join(l.deactivateModels(ctx, l.noteModels), l.Base.Deactivate(ctx))
}

func (l *NoteList) deactivateModels(ctx context.Context, models []*NoteViewModel) error {
	var errs []error
	for _, m := range models {
		if m.Lifecycle().State() != vmkit.StateActivated {
			continue
		}
		if _, err := l.dialogs.Controller().TryDeactivate(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoteModels returns the partials in display order.
func (l *NoteList) NoteModels() []*NoteViewModel {
	return append([]*NoteViewModel(nil), l.noteModels...)
}

func (l *NoteList) AllowEditing() bool {
	return observable.GetAs[bool](l.Properties(), "allowEditing")
}

func (l *NoteList) HasUnsavedChanges() bool {
	return observable.GetAs[bool](l.Properties(), "hasUnsavedChanges")
}

func (l *NoteList) ToggleEditModeButtonText() string {
	return observable.GetAs[string](l.Properties(), "toggleEditModeButtonText")
}

// Order returns the current sort order.
func (l *NoteList) Order() notes.OrderBy {
	return notes.OrderBy{
		Prop: observable.GetAs[string](l.Properties(), "sortProp"),
		Desc: observable.GetAs[bool](l.Properties(), "sortDesc"),
	}
}

// ToggleSortProp cycles through the sortable properties.
func (l *NoteList) ToggleSortProp() {
	cur := l.Order().Prop
	next := sortProps[0]
	for i, p := range sortProps {
		if p == cur && i+1 < len(sortProps) {
			next = sortProps[i+1]
		}
	}
	l.Properties().Set("sortProp", next)
	l.sort()
}

func (l *NoteList) ToggleSortDirection() {
	l.Properties().Set("sortDesc", !l.Order().Desc)
	l.sort()
}

func (l *NoteList) sort() {
	by := l.Order()
	sort.SliceStable(l.noteModels, func(i, j int) bool {
		return notes.Less(l.noteModels[i].Note(), l.noteModels[j].Note(), by)
	})
}

// ToggleEditMode reopens the list in the other edit mode.
func (l *NoteList) ToggleEditMode(ctx context.Context) error {
	mode := config.EditModeSamePage
	if l.AllowEditing() {
		mode = config.EditModeSeparatePage
	}
	return l.nav.Navigate(ctx, RouteNotes, ListOptions{EditMode: mode, Order: l.Order()})
}

func (l *NoteList) Edit(ctx context.Context, m *NoteViewModel) error {
	return l.nav.Navigate(ctx, RouteNoteDetail, DetailOptions{ID: m.Note().ID})
}

// Remove deletes a note after confirmation and drops its partial.
func (l *NoteList) Remove(ctx context.Context, m *NoteViewModel) (bool, error) {
	confirmed, err := l.dialogs.Confirm(ctx, "Are you sure you want to delete this note?", TitleDelete)
	if err != nil || !confirmed {
		return false, err
	}
	removed, err := l.repo.DeleteByID(ctx, m.Note().ID)
	if err != nil {
		return false, err
	}
	for i, x := range l.noteModels {
		if x == m {
			l.noteModels = append(l.noteModels[:i], l.noteModels[i+1:]...)
			break
		}
	}
	if m.Lifecycle().State() == vmkit.StateActivated {
		if _, err := l.dialogs.Controller().TryDeactivate(ctx, m); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// Add appends an editable new note in samepage mode, otherwise opens the
// detail page for a new note.
func (l *NoteList) Add(ctx context.Context) error {
	if !l.AllowEditing() {
		return l.nav.Navigate(ctx, RouteNoteDetail, DetailOptions{ID: notes.NewNoteID})
	}
	m, err := l.activateModel(ctx, l.repo.CreateNew())
	if err != nil {
		return err
	}
	l.noteModels = append(l.noteModels, m)
	l.Properties().Set("hasUnsavedChanges", true)
	l.sort()
	return nil
}

// Save stores a partial's note, adding it when new.
func (l *NoteList) Save(ctx context.Context, m *NoteViewModel) error {
	note := m.Note()
	var (
		saved notes.Note
		err   error
	)
	if note.IsNew() {
		saved, err = l.repo.Add(ctx, note)
	} else {
		saved, err = l.repo.Update(ctx, note)
	}
	if err != nil {
		return fmt.Errorf("saving note: %w", err)
	}
	m.MarkSaved(saved)
	l.Properties().Set("hasUnsavedChanges", false)
	l.sort()
	return nil
}
