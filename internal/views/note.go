// Package views holds the note application's view-models. Every view-model
// is built through the container and driven by the lifecycle controller.
package views

import (
	"context"
	"strings"

	"github.com/centraunit/vmkit"
	"github.com/centraunit/vmkit/internal/notes"
	"github.com/centraunit/vmkit/observable"
)

// NoteHandlers are the owner callbacks a note partial offers. A nil handler
// hides the corresponding action.
type NoteHandlers struct {
	Edit   func(ctx context.Context, m *NoteViewModel) error
	Remove func(ctx context.Context, m *NoteViewModel) (bool, error)
	Save   func(ctx context.Context, m *NoteViewModel) error
	Cancel func(ctx context.Context, m *NoteViewModel) error
}

// NoteOptions are the activation options of NoteViewModel.
type NoteOptions struct {
	Note     notes.Note
	Readonly bool
	Owner    any
	Handlers NoteHandlers
}

// NoteViewModel is the partial that shows or edits one note.
type NoteViewModel struct {
	vmkit.Base

	note     notes.Note
	readonly bool
	owner    any
	handlers NoteHandlers
}

// NewNoteViewModel creates an unactivated note partial.
func NewNoteViewModel() (*NoteViewModel, error) {
	return &NoteViewModel{}, nil
}

func defineNoteObservables(reg *observable.Registry) {
	observable.Define(reg, "dirty", []string{"content", "original"}, func(m *NoteViewModel) any {
		return m.Content() != observable.GetAs[string](m.Properties(), "original")
	})
	observable.Define(reg, "title", []string{"content"}, func(m *NoteViewModel) any {
		line, _, _ := strings.Cut(strings.TrimSpace(m.Content()), "\n")
		if line == "" {
			return "(empty)"
		}
		return line
	})
}

func (m *NoteViewModel) Activate(_ context.Context, opts NoteOptions) error {
	m.note = opts.Note
	m.readonly = opts.Readonly
	m.owner = opts.Owner
	m.handlers = opts.Handlers

	p := m.Properties()
	p.Batch(func() {
		p.Set("content", opts.Note.Content)
		p.Set("original", opts.Note.Content)
	})
	return nil
}

// Note returns the note with the edited content applied.
func (m *NoteViewModel) Note() notes.Note {
	n := m.note
	n.Content = m.Content()
	return n
}

// Owner returns the view-model that activated this partial.
func (m *NoteViewModel) Owner() any {
	return m.owner
}

// Readonly reports whether editing is disabled.
func (m *NoteViewModel) Readonly() bool {
	return m.readonly
}

func (m *NoteViewModel) Content() string {
	return observable.GetAs[string](m.Properties(), "content")
}

// SetContent edits the note content. Readonly partials ignore edits.
func (m *NoteViewModel) SetContent(s string) {
	if m.readonly {
		return
	}
	m.Properties().Set("content", s)
}

// Dirty reports whether the content differs from the last saved content.
func (m *NoteViewModel) Dirty() bool {
	return observable.GetAs[bool](m.Properties(), "dirty")
}

// Title is the first non-empty line of the content.
func (m *NoteViewModel) Title() string {
	return observable.GetAs[string](m.Properties(), "title")
}

// MarkSaved adopts the stored form of the note.
func (m *NoteViewModel) MarkSaved(n notes.Note) {
	m.note = n
	p := m.Properties()
	p.Batch(func() {
		p.Set("content", n.Content)
		p.Set("original", n.Content)
	})
}

func (m *NoteViewModel) CanEdit() bool   { return m.handlers.Edit != nil }
func (m *NoteViewModel) CanSave() bool   { return m.handlers.Save != nil }
func (m *NoteViewModel) CanRemove() bool { return m.handlers.Remove != nil }

func (m *NoteViewModel) Edit(ctx context.Context) error {
	if m.handlers.Edit == nil {
		return nil
	}
	return m.handlers.Edit(ctx, m)
}

func (m *NoteViewModel) Save(ctx context.Context) error {
	if m.handlers.Save == nil {
		return nil
	}
	return m.handlers.Save(ctx, m)
}

func (m *NoteViewModel) Remove(ctx context.Context) (bool, error) {
	if m.handlers.Remove == nil {
		return false, nil
	}
	return m.handlers.Remove(ctx, m)
}

// Cancel reverts unsaved edits and notifies the owner.
func (m *NoteViewModel) Cancel(ctx context.Context) error {
	m.Properties().Set("content", observable.GetAs[string](m.Properties(), "original"))
	if m.handlers.Cancel == nil {
		return nil
	}
	return m.handlers.Cancel(ctx, m)
}
