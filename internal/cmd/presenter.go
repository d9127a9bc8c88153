package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/centraunit/vmkit"
	"github.com/centraunit/vmkit/internal/views"
)

// terminalPresenter asks confirmation questions on the terminal. It reads
// from the same reader as the shell so answers and commands interleave.
type terminalPresenter struct {
	in             *bufio.Reader
	out            io.Writer
	confirmDeletes bool
}

func (p *terminalPresenter) Present(_ context.Context, modal any) error {
	d, ok := modal.(*vmkit.ConfirmDialog)
	if !ok {
		return fmt.Errorf("cannot present %T", modal)
	}
	if !p.confirmDeletes && d.Title() == views.TitleDelete {
		return d.Answer(true)
	}

	fmt.Fprintf(p.out, "%s %s [y/N] ", d.Title(), d.Message())
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		// Input ended; treat it as a no.
		fmt.Fprintln(p.out)
		return d.Answer(false)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return d.Answer(true)
	default:
		return d.Answer(false)
	}
}

// declinePresenter answers no to every question. Non-interactive commands
// use it.
var declinePresenter = vmkit.PresenterFunc(func(_ context.Context, modal any) error {
	if d, ok := modal.(*vmkit.ConfirmDialog); ok {
		return d.Answer(false)
	}
	return fmt.Errorf("cannot present %T", modal)
})
