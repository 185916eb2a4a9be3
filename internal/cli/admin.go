package cli

import (
	"context"
	"fmt"

	"kidflix/internal/models"

	"github.com/spf13/cobra"
)

func newAdminCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Operator commands for user roles",
		Long: `Operator commands that act on the store directly, without a session.
Use them to bootstrap the first admin account.`,
	}
	cmd.AddCommand(
		newSetRoleCmd(flags, "promote", "Grant admin role", models.RoleAdmin),
		newSetRoleCmd(flags, "demote", "Revoke admin role", models.RoleUser),
		newListAdminsCmd(flags),
	)
	return cmd
}

func newSetRoleCmd(flags *rootFlags, use, short string, role models.Role) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			u, err := lookupUser(app, args[0])
			if err != nil {
				return err
			}
			if u.Role == role {
				p.Info("%s already has role %s", u.Username, role)
				return nil
			}
			ok, err := app.Store.SetRole(ctx, u.ID, role)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("user %s disappeared while updating role", u.Username)
			}
			p.Success("%s is now %s", u.Username, role)
			return nil
		}),
	}
}

func newListAdminsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List admin accounts",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			n := 0
			for _, u := range app.Views.SearchUsers("") {
				if u.IsAdmin() {
					p.Info("%s <%s>", u.Username, u.Email)
					n++
				}
			}
			if n == 0 {
				p.Info("No admins.")
			}
			return nil
		}),
	}
}
