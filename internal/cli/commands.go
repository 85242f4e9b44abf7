package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go-file-organizer/internal/app"
	"go-file-organizer/internal/model"
	"go-file-organizer/internal/service"
)

func newFlattenCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "flatten <directory>",
		Short: "Move every nested file into the directory root",
		Long: `Moves every file below <directory> into <directory> itself, renaming on
collision as "name (1).ext", removes the emptied subdirectories and records
the operation so it can be undone with 'organizectl undo <operation-id>'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withServices(cmd, func(s *app.Services) error {
				result, err := s.Flatten.Flatten(cmd.Context(), args[0], service.ActorCLI)
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), result, func(w io.Writer) { printFlatten(w, result) })
			})
		},
	}
}

func newUndoCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "undo <operation-id>",
		Short: "Reverse a recorded flatten",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withServices(cmd, func(s *app.Services) error {
				result, err := s.Undo.Undo(cmd.Context(), args[0], service.ActorCLI)
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), result, func(w io.Writer) { printUndo(w, result) })
			})
		},
	}
}

func newHistoryCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recorded flatten operations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withServices(cmd, func(s *app.Services) error {
				history := s.Undo.History()
				return opts.emit(cmd.OutOrStdout(), history, func(w io.Writer) { printHistory(w, history) })
			})
		},
	}
}

func newClassifyCommand(opts *options) *cobra.Command {
	var analyze bool

	cmd := &cobra.Command{
		Use:   "classify <path>...",
		Short: "Print the category of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withServices(cmd, func(s *app.Services) error {
				if analyze {
					analyses := make([]model.FileAnalysis, 0, len(args))
					for _, path := range args {
						analysis, err := s.Organize.Analyze(cmd.Context(), path)
						if err != nil {
							return err
						}
						analyses = append(analyses, analysis)
					}
					return opts.emit(cmd.OutOrStdout(), analyses, func(w io.Writer) { printAnalyses(w, analyses) })
				}

				results := make([]model.ClassifyResult, 0, len(args))
				for _, path := range args {
					classification, err := s.Organize.Classify(cmd.Context(), path)
					if err != nil {
						return err
					}
					results = append(results, model.ClassifyResult{
						Path:        path,
						Category:    classification.String(),
						Subcategory: classification.Subcategory,
					})
				}
				return opts.emit(cmd.OutOrStdout(), results, func(w io.Writer) { printClassified(w, results) })
			})
		},
	}

	cmd.Flags().BoolVar(&analyze, "analyze", false, "include MIME type, size and timestamps")
	return cmd
}

func newOrganizeCommand(opts *options) *cobra.Command {
	var destination string

	cmd := &cobra.Command{
		Use:   "organize <path>...",
		Short: "File paths into <destination>/<category>[/<subcategory>]",
		Long: `Classifies each file and moves it into a category folder below the
destination (--dest, else ORGANIZE_ROOT, else the file's own directory).
Collisions are renamed "name_1.ext". Failures are reported per file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withServices(cmd, func(s *app.Services) error {
				result := s.Organize.Organize(cmd.Context(), args, destination, service.ActorCLI)
				if err := opts.emit(cmd.OutOrStdout(), result, func(w io.Writer) { printOrganize(w, result) }); err != nil {
					return err
				}
				if len(result.Organized) == 0 && len(result.Errors) > 0 {
					return fmt.Errorf("no files organized")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&destination, "dest", "d", "", "destination root for category folders")
	return cmd
}

func newWatchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <watch-directory> <organization-directory>",
		Short: "File everything that appears in a directory until interrupted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withServices(cmd, func(s *app.Services) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				status, err := s.Watch.Setup(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if err := opts.emit(cmd.OutOrStdout(), status, func(w io.Writer) { printWatchStatus(w, status) }); err != nil {
					return err
				}

				<-ctx.Done()
				final, err := s.Watch.Stop()
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), final, func(w io.Writer) { printWatchStatus(w, final) })
			})
		},
	}
}

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			return application.Run(ctx)
		},
	}
}

func newTokenCommand(opts *options) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with AUTH_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.AuthEnabled() {
				return fmt.Errorf("AUTH_SECRET is not set; the API does not require tokens")
			}

			auth, err := service.NewAuthService(cfg.AuthSecret, cfg.AuthTokenTTL)
			if err != nil {
				return err
			}
			token, err := auth.IssueToken(subject)
			if err != nil {
				return err
			}
			slog.Debug("token issued", "subject", subject, "expires_in", token.ExpiresIn)

			return opts.emit(cmd.OutOrStdout(), token, func(w io.Writer) { fmt.Fprintln(w, token.AccessToken) })
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "cli", "subject recorded in audit entries")
	return cmd
}
