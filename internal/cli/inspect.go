package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newInspectCmd(flags *rootFlags) *cobra.Command {
	var tables bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show store totals and, optionally, raw tables",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			s := app.Views.Stats()
			p.Heading("Storage: %s", app.KV.Driver())
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "users\t%d\n", s.Users)
			fmt.Fprintf(w, "posts\t%d\n", s.Posts)
			fmt.Fprintf(w, "comments\t%d\n", s.Comments)
			fmt.Fprintf(w, "likes\t%d\n", s.Likes)
			fmt.Fprintf(w, "relations\t%d\n", s.Relations)
			fmt.Fprintf(w, "messages\t%d\n", s.Messages)
			fmt.Fprintf(w, "notifications\t%d\n", s.Notifications)
			if err := w.Flush(); err != nil {
				return err
			}
			if !tables {
				return nil
			}

			st := app.Store.State()
			p.Heading("\nUsers")
			w = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tFOLLOWING\tFOLLOWERS")
			for _, u := range st.Users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n", u.ID, u.Username, u.Email, u.Role, len(u.Following), len(u.Followers))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			p.Heading("\nPosts")
			w = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tAUTHOR\tCAPTION\tLIKES\tCOMMENTS")
			for _, post := range st.Posts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", post.ID, usernameOf(app, post.UserID), truncate(post.Caption, 40), len(post.Likes), len(post.Comments))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			p.Heading("\nMessages")
			w = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFROM\tTO\tREAD\tTEXT")
			for _, m := range st.Messages {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", m.ID, usernameOf(app, m.SenderID), usernameOf(app, m.RecipientID), m.Read, truncate(m.Text, 40))
			}
			return w.Flush()
		}),
	}
	cmd.Flags().BoolVar(&tables, "tables", false, "Also print users, posts and messages")
	return cmd
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
