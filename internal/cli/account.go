package cli

import (
	"bufio"
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"kidflix/internal/media"
	"kidflix/internal/session"
	"kidflix/internal/validation"

	"github.com/spf13/cobra"
)

var stdinReaders sync.Map

// prompt prints label and reads one line from the command's stdin.
// Successive prompts share one buffered reader per input.
func prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)
	in := cmd.InOrStdin()
	r, _ := stdinReaders.LoadOrStore(in, bufio.NewReader(in))
	line, err := r.(*bufio.Reader).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read %s: %w", strings.TrimSpace(strings.TrimSuffix(label, ":")), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// passwordOrPrompt returns value, or asks for it when empty.
func passwordOrPrompt(cmd *cobra.Command, value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return prompt(cmd, label)
}

func newSignupCmd(flags *rootFlags) *cobra.Command {
	var password string
	var challenge bool

	cmd := &cobra.Command{
		Use:   "signup <username> <email>",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			pw, err := passwordOrPrompt(cmd, password, "Password: ")
			if err != nil {
				return err
			}
			in := session.SignupInput{Username: args[0], Email: args[1], Password: pw}
			if challenge {
				seed := uint64(time.Now().UnixNano())
				c := validation.NewChallenge(rand.New(rand.NewPCG(seed, seed>>1)))
				answer, err := prompt(cmd, fmt.Sprintf("What is %s? ", c.Question()))
				if err != nil {
					return err
				}
				in.Challenge = &c
				in.Answer = answer
			}

			u, err := app.Gate.Signup(ctx, in)
			if err != nil {
				return err
			}
			p.Success("Welcome, %s! You are logged in.", u.Username)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	cmd.Flags().BoolVar(&challenge, "challenge", false, "Ask the arithmetic signup question")
	return cmd
}

func newLoginCmd(flags *rootFlags) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <email-or-username>",
		Short: "Log in with email or username",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			pw, err := passwordOrPrompt(cmd, password, "Password: ")
			if err != nil {
				return err
			}
			u, err := app.Gate.Login(ctx, args[0], pw)
			if err != nil {
				return err
			}
			p.Success("Logged in as %s", u.Username)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the current session",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			if err := app.Gate.Logout(ctx); err != nil {
				return err
			}
			p.Success("Logged out")
			return nil
		}),
	}
}

func newWhoamiCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user and unread counts",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			u := app.Gate.CurrentUser()
			if u == nil {
				p.Info("Not logged in")
				return nil
			}
			p.Heading("%s <%s>", u.Username, u.Email)
			p.Info("role:          %s", u.Role)
			p.Info("following:     %d", len(u.Following))
			p.Info("followers:     %d", len(u.Followers))
			p.Info("messages:      %d unread", app.Views.UnreadMessageCount(u.ID))
			p.Info("notifications: %d unread", app.Views.UnreadNotificationCount(u.ID))

			enabled := app.Flags.Snapshot(u.ID)
			for _, name := range app.Flags.Names() {
				state := "off"
				if enabled[name] {
					state = "on"
				}
				p.Info("flag %s: %s", name, state)
			}
			return nil
		}),
	}
}

func newPasswdCmd(flags *rootFlags) *cobra.Command {
	var current, next, confirm string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the current user's password",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			var err error
			if current, err = passwordOrPrompt(cmd, current, "Current password: "); err != nil {
				return err
			}
			if next, err = passwordOrPrompt(cmd, next, "New password: "); err != nil {
				return err
			}
			if confirm, err = passwordOrPrompt(cmd, confirm, "Confirm new password: "); err != nil {
				return err
			}
			if err := app.Gate.ChangePassword(ctx, session.PasswordChange{Current: current, New: next, Confirm: confirm}); err != nil {
				return err
			}
			p.Success("Password updated")
			return nil
		}),
	}
	cmd.Flags().StringVar(&current, "current", "", "Current password")
	cmd.Flags().StringVar(&next, "new", "", "New password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "New password again")
	return cmd
}

func newProfileCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile [username]",
		Short: "Show a profile with its posts",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			me := app.Gate.CurrentUser()
			var username string
			switch {
			case len(args) == 1:
				username = args[0]
			case me != nil:
				username = me.Username
			default:
				return p.Error("no profile selected", "", "Pass a username or log in first")
			}

			u, ok := app.Views.UserByUsername(username)
			if !ok {
				return p.Error("user not found", fmt.Sprintf("No user named %q", username))
			}
			p.Heading("%s", u.Username)
			p.Info("%d followers · %d following", len(u.Followers), len(u.Following))
			if me != nil && me.ID != u.ID && me.IsFollowing(u.ID) {
				p.Info("You follow %s", u.Username)
			}
			p.Info("")
			printPosts(p, app, app.Views.ProfilePosts(u.ID), me)
			if me != nil && me.ID == u.ID {
				favs := app.Views.FavoritePosts(u.ID)
				if len(favs) > 0 {
					p.Heading("Favorites")
					printPosts(p, app, favs, me)
				}
			}
			return nil
		}),
	}
	cmd.AddCommand(newProfileEditCmd(flags), newProfileAvatarCmd(flags))
	return cmd
}

func newProfileEditCmd(flags *rootFlags) *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Change username and email",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			me := app.Gate.CurrentUser()
			if me != nil {
				if username == "" {
					username = me.Username
				}
				if email == "" {
					email = me.Email
				}
			}
			u, err := app.Gate.UpdateProfile(ctx, username, email)
			if err != nil {
				return err
			}
			p.Success("Profile updated: %s <%s>", u.Username, u.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&username, "username", "", "New username")
	cmd.Flags().StringVar(&email, "email", "", "New email")
	return cmd
}

func newProfileAvatarCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "avatar <image-file>",
		Short: "Upload a new avatar image",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			ref, err := media.AvatarFromFile(args[0])
			if err != nil {
				return err
			}
			if err := app.Gate.UpdateAvatar(ctx, ref); err != nil {
				return err
			}
			p.Success("Avatar updated")
			return nil
		}),
	}
}
