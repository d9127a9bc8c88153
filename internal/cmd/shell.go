package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/centraunit/vmkit"
	"github.com/centraunit/vmkit/internal/app"
	"github.com/centraunit/vmkit/internal/log"
	"github.com/centraunit/vmkit/internal/views"
)

const helpText = `Commands:
  home                 go to the home page
  list                 go to the note list
  open <id>            open a note
  new                  write a new note
  back                 go back to the previous page
  accept               accept the terms (home)
  sort | reverse       change the sort property or direction (list)
  mode                 switch between same-page and separate-page editing (list)
  edit <id>            open a note for editing (list, separate-page mode)
  set [<id>] <text>    replace a note's text, \n starts a new line
  save [<id>]          save a note
  cancel [<id>]        discard unsaved edits
  delete [<id>]        delete a note
  show                 show the current page again
  quit                 leave
`

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive shell",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	presenter := &terminalPresenter{in: in, out: out, confirmDeletes: cfg.UI.ConfirmDeletes}
	a, shutdown, err := boot(ctx, presenter)
	if err != nil {
		return err
	}

	r := &repl{shell: a.Shell, in: in, out: out, prompt: cfg.UI.Prompt}
	runErr := r.run(ctx)
	if err := shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// repl reads commands line by line and applies them to the view on screen.
type repl struct {
	shell  *app.Shell
	in     *bufio.Reader
	out    io.Writer
	prompt string
}

func (r *repl) run(ctx context.Context) error {
	if _, err := r.shell.Go(ctx, views.RouteHome, nil); err != nil {
		return err
	}
	render(r.out, r.shell.Current())

	for {
		fmt.Fprint(r.out, r.prompt)
		line, err := r.in.ReadString('\n')
		if err != nil && line == "" {
			if !errors.Is(err, io.EOF) {
				return err
			}
			fmt.Fprintln(r.out)
			// Out of input: give the view a last chance to save, then leave
			// regardless of its answer.
			if _, err := r.shell.Close(ctx); err != nil {
				log.ErrorErr(log.CatApp, "closing shell", err)
			}
			return nil
		}

		quit, err := r.exec(ctx, strings.TrimSpace(line))
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
			continue
		}
		if quit {
			return nil
		}
	}
}

// exec runs one command line and reports whether the shell should stop.
func (r *repl) exec(ctx context.Context, line string) (bool, error) {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	var err error
	switch name {
	case "":
		return false, nil
	case "help", "?":
		fmt.Fprint(r.out, helpText)
		return false, nil
	case "quit", "exit", "q":
		outcome, err := r.shell.Close(ctx)
		if err != nil {
			return false, err
		}
		if outcome == vmkit.OutcomeCancelled {
			fmt.Fprintln(r.out, "Staying on this page.")
			return false, nil
		}
		return true, nil
	case "show":
	case "home":
		err = r.navigate(ctx, views.RouteHome, nil)
	case "list", "ls":
		err = r.navigate(ctx, views.RouteNotes, nil)
	case "open":
		var id int
		if id, err = strconv.Atoi(rest); err == nil {
			err = r.navigate(ctx, views.RouteNoteDetail, views.DetailOptions{ID: id})
		}
	case "back":
		err = r.shell.Back(ctx)
	case "new":
		if l, ok := r.shell.Current().(*views.NoteList); ok {
			err = l.Add(ctx)
		} else {
			err = r.navigate(ctx, views.RouteNoteDetail, nil)
		}
	case "accept":
		h, ok := r.shell.Current().(*views.Home)
		if !ok {
			return false, notHere(name)
		}
		h.Terms.Accept()
	case "sort", "reverse", "mode":
		l, ok := r.shell.Current().(*views.NoteList)
		if !ok {
			return false, notHere(name)
		}
		switch name {
		case "sort":
			l.ToggleSortProp()
		case "reverse":
			l.ToggleSortDirection()
		default:
			err = l.ToggleEditMode(ctx)
		}
	case "edit":
		var m *views.NoteViewModel
		if m, _, err = r.note(name, rest); err == nil {
			if !m.CanEdit() {
				return false, errors.New("notes are edited in place in this mode, use 'set'")
			}
			err = m.Edit(ctx)
		}
	case "set":
		var (
			m    *views.NoteViewModel
			text string
		)
		if m, text, err = r.note(name, rest); err == nil {
			if m.Readonly() {
				return false, errors.New("note is read-only in this mode, use 'edit'")
			}
			m.SetContent(strings.ReplaceAll(text, `\n`, "\n"))
		}
	case "save":
		var m *views.NoteViewModel
		if m, _, err = r.note(name, rest); err == nil {
			if !m.CanSave() {
				return false, notHere(name)
			}
			err = m.Save(ctx)
		}
	case "cancel":
		var m *views.NoteViewModel
		if m, _, err = r.note(name, rest); err == nil {
			err = m.Cancel(ctx)
		}
	case "delete", "rm":
		var m *views.NoteViewModel
		if m, _, err = r.note(name, rest); err == nil {
			var removed bool
			if removed, err = m.Remove(ctx); err == nil && !removed {
				fmt.Fprintln(r.out, "Nothing deleted.")
			}
		}
	default:
		return false, fmt.Errorf("unknown command %q, type 'help'", name)
	}
	if err != nil {
		return false, err
	}
	render(r.out, r.shell.Current())
	return false, nil
}

func (r *repl) navigate(ctx context.Context, route string, opts any) error {
	outcome, err := r.shell.Go(ctx, route, opts)
	if err == nil && outcome == vmkit.OutcomeCancelled {
		fmt.Fprintln(r.out, "Staying on this page.")
	}
	return err
}

// note picks the note a command applies to. On the detail page it is the
// open note and args is the command's text. On the list the first word of
// args selects a note by id, or "new" for an unsaved one.
func (r *repl) note(cmd, args string) (*views.NoteViewModel, string, error) {
	switch v := r.shell.Current().(type) {
	case *views.NoteDetail:
		return v.NoteModel, args, nil
	case *views.NoteList:
		ref, text, _ := strings.Cut(args, " ")
		for _, m := range v.NoteModels() {
			n := m.Note()
			if (ref == "new" && n.IsNew()) || strconv.Itoa(n.ID) == ref {
				return m, strings.TrimSpace(text), nil
			}
		}
		return nil, "", fmt.Errorf("no note %q on this page", ref)
	default:
		return nil, "", notHere(cmd)
	}
}

func notHere(cmd string) error {
	return fmt.Errorf("%q is not available on this page", cmd)
}
