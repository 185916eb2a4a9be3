// Package cli implements the kidflix command line: account, feed,
// messaging, admin, transfer and graph commands over the local store.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"kidflix/internal/observability"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute builds the command tree and runs it against os.Args.
// This is called by main.main(). Usage errors that no command printed
// are reported here.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	var printed *printedError
	if err != nil && !errors.As(err, &printed) {
		_ = NewPrinter(root.OutOrStdout(), root.ErrOrStderr()).Error(err.Error(), "", "Run 'kidflix --help' for usage")
	}
	return err
}

type rootFlags struct {
	verbose bool
}

// NewRootCmd returns a fresh command tree. Each invocation opens the
// app on demand, so tests can build as many trees as they like.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "kidflix",
		Short: "Kidflix - local-first social feed",
		Long: `Kidflix keeps users, posts, follows, messages and notifications in a
single local snapshot. Every command loads the snapshot, applies one
operation atomically and persists the result.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
		SilenceErrors:      true,
		SilenceUsage:       true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(observability.WithCorrelationID(ctx, observability.GenerateCorrelationID()))
		},
	}
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Write logs to stderr")

	root.AddCommand(
		newSignupCmd(flags),
		newLoginCmd(flags),
		newLogoutCmd(flags),
		newWhoamiCmd(flags),
		newPasswdCmd(flags),
		newProfileCmd(flags),
		newPostCmd(flags),
		newLikeCmd(flags),
		newCommentCmd(flags),
		newFollowCmd(flags),
		newFavoriteCmd(flags),
		newFeedCmd(flags),
		newUsersCmd(flags),
		newNotificationsCmd(flags),
		newMessagesCmd(flags),
		newSendCmd(flags),
		newDeletePostCmd(flags),
		newDeleteUserCmd(flags),
		newAdminCmd(flags),
		newSeedCmd(flags),
		newExportCmd(flags),
		newImportCmd(flags),
		newInspectCmd(flags),
		newGraphCmd(flags),
	)
	return root
}

// runFunc is a command body with an opened app and a printer.
type runFunc func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error

// withApp opens the app for the duration of one command and closes it
// afterwards, whatever the command returned.
func withApp(flags *rootFlags, fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		p := NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())

		var logOut io.Writer
		if flags.verbose {
			logOut = cmd.ErrOrStderr()
		}
		app, err := OpenApp(ctx, AppOptions{
			Version:   version,
			LogOutput: logOut,
			Stderr:    cmd.ErrOrStderr(),
		})
		if err != nil {
			return p.Error("failed to open kidflix storage", err.Error(),
				"Check STORAGE_DRIVER and its connection settings")
		}
		defer func() {
			if cerr := app.Close(ctx); cerr != nil && err == nil {
				err = cerr
			}
		}()

		span, ctx := observability.TraceCommand(ctx, cmd.CommandPath())
		defer span.End()

		if err := fn(ctx, cmd, app, p, args); err != nil {
			span.SetError(err)
			observability.GlobalLogger.ErrorContext(ctx, "command failed",
				"command", cmd.Name(),
				"error", err,
				"correlation_id", observability.ExtractCorrelationID(ctx),
			)
			return report(p, err)
		}
		return nil
	}
}
