package views

import "context"

// Route names understood by the Navigator.
const (
	RouteHome       = "home"
	RouteNotes      = "notes"
	RouteNoteDetail = "note"
)

// Navigator moves between top-level views. Navigate completes only if the
// current view agrees to deactivate and the target agrees to activate.
type Navigator interface {
	Navigate(ctx context.Context, route string, opts any) error
	Back(ctx context.Context) error
}

// NoOptions is the activation options type of views that take none.
type NoOptions struct{}

// Titles of the confirmation dialogs the views open.
const (
	TitleDelete      = "Delete?"
	TitleSaveChanges = "Save changes"
)
