package views

import (
	"context"
	"errors"
	"fmt"

	"github.com/centraunit/vmkit"
	"github.com/centraunit/vmkit/internal/log"
	"github.com/centraunit/vmkit/internal/notes"
	"github.com/centraunit/vmkit/observable"
)

// DetailOptions are the activation options of NoteDetail. A negative ID
// opens a new note.
type DetailOptions struct {
	ID int
}

// NoteDetail is the page that edits a single note.
type NoteDetail struct {
	vmkit.Base

	NoteModel *NoteViewModel

	repo    notes.Repository
	dialogs *vmkit.DialogService
	nav     Navigator
}

// NewNoteDetail creates an unactivated detail page.
func NewNoteDetail(repo notes.Repository, noteModel *NoteViewModel, dialogs *vmkit.DialogService, nav Navigator) (*NoteDetail, error) {
	return &NoteDetail{
		NoteModel: noteModel,
		repo:      repo,
		dialogs:   dialogs,
		nav:       nav,
	}, nil
}

func (d *NoteDetail) Heading() string {
	return observable.GetAs[string](d.Properties(), "heading")
}

func (d *NoteDetail) HasUnsavedChanges() bool {
	return observable.GetAs[bool](d.Properties(), "hasUnsavedChanges")
}

func (d *NoteDetail) setUnsaved(v bool) {
	d.Properties().Set("hasUnsavedChanges", v)
}

func (d *NoteDetail) Activate(ctx context.Context, opts DetailOptions) error {
	var note notes.Note
	if opts.ID < 0 {
		d.Properties().Set("heading", "New note")
		d.setUnsaved(true)
		note = d.repo.CreateNew()
	} else {
		d.Properties().Set("heading", "Edit note")
		d.setUnsaved(false)
		n, err := d.repo.GetByID(ctx, opts.ID)
		if err != nil {
			return fmt.Errorf("loading note %d: %w", opts.ID, err)
		}
		note = n
	}

	if _, err := vmkit.TryActivate[NoteOptions](ctx, d.dialogs.Controller(), d.NoteModel, d.partialOptions(note)); err != nil {
		return fmt.Errorf("activating note partial: %w", err)
	}
	d.Track(d.NoteModel.Properties().Subscribe("dirty", func(_ string, dirty any) {
		d.setUnsaved(d.NoteModel.Note().IsNew() || dirty == true)
	}))
	return nil
}

func (d *NoteDetail) partialOptions(note notes.Note) NoteOptions {
	return NoteOptions{
		Note:     note,
		Readonly: false,
		Owner:    d,
		Handlers: NoteHandlers{
			Save:   func(ctx context.Context, _ *NoteViewModel) error { return d.Save(ctx, false) },
			Remove: func(ctx context.Context, _ *NoteViewModel) (bool, error) { return d.Remove(ctx) },
			Cancel: func(ctx context.Context, _ *NoteViewModel) error { return d.Cancel(ctx) },
		},
	}
}

// CanDeactivate offers to save unsaved changes. Declining keeps the page open.
func (d *NoteDetail) CanDeactivate(ctx context.Context) (bool, error) {
	if !d.HasUnsavedChanges() {
		return true, nil
	}
	confirmed, err := d.dialogs.Confirm(ctx, "Do you want to save the note before leaving?", TitleSaveChanges)
	if err != nil || !confirmed {
		return false, err
	}
	if err := d.Save(ctx, true); err != nil {
		return false, err
	}
	return true, nil
}

func (d *NoteDetail) Deactivate(ctx context.Context) error {
	var errs []error
	if d.NoteModel.Lifecycle().State() == vmkit.StateActivated {
		if _, err := d.dialogs.Controller().TryDeactivate(ctx, d.NoteModel); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, d.Base.Deactivate(ctx))
	return errors.Join(errs...)
}

// Save stores the note, adding it when new, and goes back unless skipBack.
func (d *NoteDetail) Save(ctx context.Context, skipBack bool) error {
	note := d.NoteModel.Note()
	var (
		saved notes.Note
		err   error
	)
	if note.IsNew() {
		saved, err = d.repo.Add(ctx, note)
	} else {
		saved, err = d.repo.Update(ctx, note)
	}
	if err != nil {
		return fmt.Errorf("saving note: %w", err)
	}

	d.NoteModel.MarkSaved(saved)
	d.setUnsaved(false)
	log.Debug(log.CatNotes, "note saved", "id", saved.ID)

	if skipBack {
		return nil
	}
	return d.nav.Back(ctx)
}

// Remove deletes the note after confirmation and goes back.
func (d *NoteDetail) Remove(ctx context.Context) (bool, error) {
	confirmed, err := d.dialogs.Confirm(ctx, "Are you sure you want to delete this note?", TitleDelete)
	if err != nil || !confirmed {
		return false, err
	}
	removed, err := d.repo.DeleteByID(ctx, d.NoteModel.Note().ID)
	if err != nil {
		return false, err
	}
	d.setUnsaved(false)
	return removed, d.nav.Back(ctx)
}

// Add opens a new note.
func (d *NoteDetail) Add(ctx context.Context) error {
	return d.nav.Navigate(ctx, RouteNoteDetail, DetailOptions{ID: notes.NewNoteID})
}

// Cancel goes back without saving.
func (d *NoteDetail) Cancel(ctx context.Context) error {
	return d.nav.Back(ctx)
}
