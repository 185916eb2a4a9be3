package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newExportCmd(flags *rootFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole store as a portable backup string",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			blob, err := app.Store.Export(ctx)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				fmt.Fprintln(cmd.OutOrStdout(), blob)
				return nil
			}
			if err := os.WriteFile(out, []byte(blob+"\n"), 0o600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			p.Success("Exported to %s", out)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (stdout when omitted)")
	return cmd
}

func newImportCmd(flags *rootFlags) *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Merge a backup string into the store; local records win",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			var raw []byte
			var err error
			if in == "" || in == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(in)
			}
			if err != nil {
				return fmt.Errorf("failed to read import: %w", err)
			}

			res, err := app.Store.Import(ctx, strings.TrimSpace(string(raw)))
			if err != nil {
				return err
			}
			if res.Total() == 0 {
				p.Info("Nothing new to import.")
				return nil
			}
			p.Success("Imported %d users, %d posts, %d messages, %d notifications",
				res.Users, res.Posts, res.Messages, res.Notifications)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&in, "in", "i", "", "Input file (stdin when omitted)")
	return cmd
}
