// Package cli implements organizectl, a command-line trigger for the same
// services the HTTP server exposes.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"go-file-organizer/internal/app"
	"go-file-organizer/internal/config"
	"go-file-organizer/internal/logger"
)

// Version is injected at build time via -ldflags
var Version = "dev"

type options struct {
	logLevel string
	jsonOut  bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "organizectl",
		Short: "Classify, organize and flatten files",
		Long: `organizectl files documents into category folders, flattens nested
directory trees into their root and undoes a recorded flatten.

Configuration is read from the environment and an optional .env file
(ALLOWED_ROOTS, BACKUP_DIR, ORGANIZE_ROOT, ...), the same as the server.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print results as JSON")

	cmd.AddCommand(
		newFlattenCommand(opts),
		newUndoCommand(opts),
		newHistoryCommand(opts),
		newClassifyCommand(opts),
		newOrganizeCommand(opts),
		newWatchCommand(opts),
		newServeCommand(opts),
		newTokenCommand(opts),
	)

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, red.Sprint("error: ")+err.Error())
		return 1
	}
	return 0
}

func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger.Setup(cmd.ErrOrStderr(), level)

	return cfg, nil
}

// withServices builds the service graph for one command and tears it down
// afterwards.
func (o *options) withServices(cmd *cobra.Command, run func(*app.Services) error) error {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return err
	}

	services, err := app.NewServices(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer services.Close()

	return run(services)
}

// emit prints value as indented JSON when --json is set, otherwise calls human.
func (o *options) emit(w io.Writer, value any, human func(io.Writer)) error {
	if !o.jsonOut {
		human(w)
		return nil
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
