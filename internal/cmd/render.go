package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/centraunit/vmkit"
	"github.com/centraunit/vmkit/internal/views"
)

const timeLayout = "2006-01-02 15:04"

func render(w io.Writer, view vmkit.Component) {
	switch v := view.(type) {
	case *views.Home:
		fmt.Fprintf(w, "== %s ==\n%s\n", v.Heading(), v.Terms.Text())
		if !v.Terms.Accepted() {
			fmt.Fprintln(w, "Type 'accept' to accept, 'list' to see your notes.")
		}
	case *views.NoteList:
		renderList(w, v)
	case *views.NoteDetail:
		marker := ""
		if v.HasUnsavedChanges() {
			marker = " *"
		}
		fmt.Fprintf(w, "== %s%s ==\n%s\n", v.Heading(), marker, v.NoteModel.Content())
	default:
		fmt.Fprintln(w, "(nothing to show)")
	}
}

func renderList(w io.Writer, l *views.NoteList) {
	order := l.Order()
	dir := "ascending"
	if order.Desc {
		dir = "descending"
	}
	fmt.Fprintf(w, "== Notes (by %s, %s) ==\n", order.Prop, dir)

	models := l.NoteModels()
	if len(models) == 0 {
		fmt.Fprintln(w, "No notes yet. Type 'new' to write one.")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, m := range models {
		n := m.Note()
		id, modified := strconv.Itoa(n.ID), "-"
		if n.IsNew() {
			id = "new"
		}
		if !n.Modified.IsZero() {
			modified = n.Modified.Local().Format(timeLayout)
		}
		marker := ""
		if m.Dirty() || n.IsNew() {
			marker = " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s%s\n", id, modified, m.Title(), marker)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "[%s]\n", l.ToggleEditModeButtonText())
}
