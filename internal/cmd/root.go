// Package cmd holds the command line interface of the notes application.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/centraunit/vmkit"
	"github.com/centraunit/vmkit/internal/app"
	"github.com/centraunit/vmkit/internal/config"
	"github.com/centraunit/vmkit/internal/log"
)

var (
	version    = "dev"
	cfgFile    string
	debug      bool
	cfg        config.Config
	cfgUsed    string
	logCleanup = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "notes",
	Short: "A terminal note keeper",
	Long: `A small note keeper driven by view-models.

Without a subcommand it starts the interactive shell.`,
	Version:            version,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
	RunE:               runShell,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .vmkit/config.yaml, then ~/.config/vmkit/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug logging")
}

func setup(cmd *cobra.Command, _ []string) error {
	loaded, used, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if debug {
		loaded.Log.Enabled = true
		loaded.Log.Level = "debug"
	}
	cleanup, err := log.Init(loaded.Log)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	cfg, cfgUsed, logCleanup = loaded, used, cleanup
	log.Debug(log.CatConfig, "Using config", "path", cfgUsed, "command", cmd.Name())
	return nil
}

func teardown(*cobra.Command, []string) error {
	logCleanup()
	logCleanup = func() {}
	return nil
}

// boot starts the application with presenter answering its dialogs. The
// returned function closes the shell and shuts the application down.
func boot(ctx context.Context, presenter vmkit.Presenter) (*app.App, func() error, error) {
	a, err := app.Bootstrap(ctx, cfg, presenter)
	if err != nil {
		return nil, nil, err
	}
	return a, func() error { return a.Shutdown(ctx) }, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
