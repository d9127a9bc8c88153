package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/centraunit/vmkit/internal/config"
	"github.com/centraunit/vmkit/internal/log"
	"github.com/centraunit/vmkit/internal/notes"
	"github.com/centraunit/vmkit/internal/views"
)

var (
	listSort string
	listDesc bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all notes",
	Long: `List all notes in the configured order.

Examples:
  # Newest first (default)
  notes list

  # Alphabetically
  notes list --sort content --desc=false`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := views.ListOptions{
			EditMode: config.EditModeSeparatePage,
			Order:    notes.OrderBy{Prop: cfg.Notes.SortBy, Desc: cfg.Notes.SortDesc},
		}
		if cmd.Flags().Changed("sort") {
			switch listSort {
			case config.SortByModified, config.SortByContent:
				opts.Order.Prop = listSort
			default:
				return fmt.Errorf("--sort must be %q or %q", config.SortByModified, config.SortByContent)
			}
		}
		if cmd.Flags().Changed("desc") {
			opts.Order.Desc = listDesc
		}

		a, shutdown, err := boot(cmd.Context(), declinePresenter)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(); err != nil {
				log.ErrorErr(log.CatApp, "shutdown failed", err)
			}
		}()

		if err := a.Start(cmd.Context(), views.RouteNotes, opts); err != nil {
			return err
		}
		renderList(cmd.OutOrStdout(), a.Shell.Current().(*views.NoteList))
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a single note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil || id < 0 {
			return fmt.Errorf("invalid note id %q", args[0])
		}

		a, shutdown, err := boot(cmd.Context(), declinePresenter)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(); err != nil {
				log.ErrorErr(log.CatApp, "shutdown failed", err)
			}
		}()

		if err := a.Start(cmd.Context(), views.RouteNoteDetail, views.DetailOptions{ID: id}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.Shell.Current().(*views.NoteDetail).NoteModel.Content())
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listSort, "sort", "s", "", "sort by modified or content (default from config)")
	listCmd.Flags().BoolVar(&listDesc, "desc", false, "sort descending (default from config)")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
}
