package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kidflix/internal/media"
	"kidflix/internal/models"

	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04"

// lookupUser resolves a username to a user or a NotFound error.
func lookupUser(app *App, username string) (*models.User, error) {
	u, ok := app.Views.UserByUsername(strings.TrimPrefix(username, "@"))
	if !ok {
		return nil, models.NewNotFoundError("User", username)
	}
	return u, nil
}

// usernameOf renders an author for display, including deleted ones.
func usernameOf(app *App, userID string) string {
	if u, ok := app.Store.State().User(userID); ok {
		return u.Username
	}
	return "[deleted]"
}

func printPosts(p *Printer, app *App, posts []models.Post, me *models.User) {
	if len(posts) == 0 {
		p.Info("No posts yet.")
		return
	}
	for _, post := range posts {
		heart := "♡"
		if me != nil && post.LikedBy(me.ID) {
			heart = "♥"
		}
		mark := ""
		if me != nil && me.HasFavorite(post.ID) {
			mark = " ★"
		}
		p.Heading("[%s] %s · %s%s", post.ID, usernameOf(app, post.UserID), post.Timestamp.Local().Format(timeLayout), mark)
		if post.Caption != "" {
			p.Info("  %s", post.Caption)
		}
		if post.FileURL != "" {
			kind := "file"
			switch {
			case post.IsImage():
				kind = "image"
			case post.IsVideo():
				kind = "video"
			}
			name := post.FileName
			if name == "" {
				name = post.FileType
			}
			p.Info("  [%s] %s", kind, name)
		}
		p.Info("  %s %d  💬 %d", heart, len(post.Likes), len(post.Comments))
		for _, c := range post.Comments {
			p.Info("    %s: %s", usernameOf(app, c.UserID), c.Text)
		}
	}
}

func newPostCmd(flags *rootFlags) *cobra.Command {
	var caption, file string

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish a post with a caption, a file, or both",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			in := models.PostInput{Caption: caption}
			if file != "" {
				att, err := media.AttachmentFromFile(file)
				if err != nil {
					return err
				}
				in = att.PostInput(caption)
			}
			post, err := app.Gate.CreatePost(ctx, in)
			if err != nil {
				return err
			}
			p.Success("Posted %s", post.ID)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&caption, "caption", "c", "", "Post caption")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Image or video to attach")
	return cmd
}

func newLikeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Like or unlike a post",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			if err := app.Gate.ToggleLike(ctx, args[0]); err != nil {
				return err
			}
			post, ok := app.Store.State().Post(args[0])
			if !ok {
				p.Warning("Post %s does not exist", args[0])
				return nil
			}
			me := app.Gate.CurrentUser()
			if post.LikedBy(me.ID) {
				p.Success("Liked %s", post.ID)
			} else {
				p.Success("Unliked %s", post.ID)
			}
			return nil
		}),
	}
}

func newCommentCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <post-id> <text>",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			c, err := app.Gate.AddComment(ctx, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if c == nil {
				p.Warning("Nothing was added")
				return nil
			}
			p.Success("Commented on %s", args[0])
			return nil
		}),
	}
}

func newFollowCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "follow <username>",
		Short: "Follow or unfollow a user",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			target, err := lookupUser(app, args[0])
			if err != nil {
				return err
			}
			if err := app.Gate.ToggleFollow(ctx, target.ID); err != nil {
				return err
			}
			me := app.Gate.CurrentUser()
			switch {
			case me.ID == target.ID:
				p.Warning("You cannot follow yourself")
			case me.IsFollowing(target.ID):
				p.Success("Following %s", target.Username)
			default:
				p.Success("Unfollowed %s", target.Username)
			}
			return nil
		}),
	}
}

func newFavoriteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <post-id>",
		Short: "Bookmark or unbookmark a post",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			if err := app.Gate.ToggleFavorite(ctx, args[0]); err != nil {
				return err
			}
			if app.Gate.CurrentUser().HasFavorite(args[0]) {
				p.Success("Saved %s to favorites", args[0])
			} else {
				p.Success("Removed %s from favorites", args[0])
			}
			return nil
		}),
	}
}

func newFeedCmd(flags *rootFlags) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show all posts, newest first",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			printPosts(p, app, app.Views.Feed(search), app.Gate.CurrentUser())
			return nil
		}),
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by caption or author")
	return cmd
}

func newUsersCmd(flags *rootFlags) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			users := app.Views.SearchUsers(search)
			if len(users) == 0 {
				p.Info("No users found.")
				return nil
			}
			me := app.Gate.CurrentUser()
			for _, u := range users {
				suffix := ""
				if me != nil && me.ID != u.ID && me.IsFollowing(u.ID) {
					suffix = " (following)"
				}
				if u.IsAdmin() {
					suffix += " [admin]"
				}
				p.Info("%s · %d followers%s", u.Username, len(u.Followers), suffix)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by username")
	return cmd
}

func newNotificationsCmd(flags *rootFlags) *cobra.Command {
	var markRead bool

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show notifications for the current user",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			me := app.Gate.CurrentUser()
			if me == nil {
				return models.NewUnauthorizedError("login required")
			}
			notes := app.Views.Notifications(me.ID)
			if len(notes) == 0 {
				p.Info("No notifications.")
			}
			for _, n := range notes {
				dot := " "
				if !n.Read {
					dot = "•"
				}
				p.Info("%s %s %s (%s)", dot, usernameOf(app, n.ActorID), describe(n), n.Timestamp.Local().Format(timeLayout))
			}
			if markRead {
				if err := app.Gate.MarkNotificationsRead(ctx); err != nil {
					return err
				}
				p.Success("Marked all as read")
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&markRead, "mark-read", false, "Mark every notification as read")
	return cmd
}

func describe(n models.Notification) string {
	switch n.Type {
	case models.NotificationNewPost:
		return "shared a new post"
	default:
		return strings.ToLower(string(n.Type))
	}
}

func newMessagesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "messages [username]",
		Short: "List conversations, or open one and mark it read",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			me := app.Gate.CurrentUser()
			if me == nil {
				return models.NewUnauthorizedError("login required")
			}
			if len(args) == 0 {
				convs := app.Views.Conversations(me.ID)
				if len(convs) == 0 {
					p.Info("No conversations yet.")
				}
				for _, c := range convs {
					unread := ""
					if c.Unread > 0 {
						unread = fmt.Sprintf(" (%d unread)", c.Unread)
					}
					p.Heading("%s%s", c.Partner.Username, unread)
					p.Info("  %s", c.LastMessage.Text)
				}
				return nil
			}

			partner, err := lookupUser(app, args[0])
			if err != nil {
				return err
			}
			for _, m := range app.Views.Thread(me.ID, partner.ID) {
				p.Info("%s  %s: %s", m.Timestamp.Local().Format(timeLayout), usernameOf(app, m.SenderID), m.Text)
			}
			return app.Gate.MarkConversationRead(ctx, partner.ID)
		}),
	}
}

func newSendCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "send <username> <text>",
		Short: "Send a direct message",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			to, err := lookupUser(app, args[0])
			if err != nil {
				return err
			}
			m, err := app.Gate.SendMessage(ctx, to.ID, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if m == nil {
				p.Warning("Nothing was sent")
				return nil
			}
			p.Success("Sent to %s at %s", to.Username, m.Timestamp.Local().Format(time.Kitchen))
			return nil
		}),
	}
}

func newDeletePostCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-post <post-id>",
		Short: "Delete a post (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			if err := app.Gate.DeletePost(ctx, args[0]); err != nil {
				return err
			}
			p.Success("Deleted post %s", args[0])
			return nil
		}),
	}
}

func newDeleteUserCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <username>",
		Short: "Delete a user and everything they authored (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			target, err := lookupUser(app, args[0])
			if err != nil {
				return err
			}
			if err := app.Gate.DeleteUser(ctx, target.ID); err != nil {
				return err
			}
			p.Success("Deleted user %s", target.Username)
			return nil
		}),
	}
}
