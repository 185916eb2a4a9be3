package cli

import (
	"context"

	"kidflix/internal/seed"

	"github.com/spf13/cobra"
)

func newSeedCmd(flags *rootFlags) *cobra.Command {
	var opts seed.Options
	var fixture string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the store with demo data or a YAML fixture",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			var (
				res seed.Result
				err error
			)
			if fixture != "" {
				f, ferr := seed.LoadFixture(fixture)
				if ferr != nil {
					return ferr
				}
				res, err = f.Apply(ctx, app.Store)
			} else {
				res, err = seed.Demo(ctx, app.Store, opts)
			}
			if err != nil {
				return err
			}
			p.Success("Seeded %d users, %d posts, %d follows, %d likes, %d comments, %d messages",
				res.Users, res.Posts, res.Follows, res.Likes, res.Comments, res.Messages)
			if fixture == "" {
				password := opts.Password
				if password == "" {
					password = seed.DefaultPassword
				}
				p.Info("Every demo account uses the password %q", password)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&fixture, "fixture", "", "YAML fixture to apply instead of random data")
	cmd.Flags().IntVar(&opts.NumUsers, "users", 8, "Number of demo users")
	cmd.Flags().IntVar(&opts.PostsPerUser, "posts", 3, "Posts per user")
	cmd.Flags().IntVar(&opts.FollowsPerUser, "follows", 3, "Follows per user")
	cmd.Flags().IntVar(&opts.CommentsPerPost, "comments", 2, "Comments per post")
	cmd.Flags().IntVar(&opts.NumMessages, "messages", 12, "Direct messages in total")
	cmd.Flags().StringVar(&opts.Password, "password", "", "Password for demo accounts")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "Random seed (0 picks one)")
	return cmd
}
