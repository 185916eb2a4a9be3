package session

import (
	"context"

	"kidflix/internal/models"
	"kidflix/internal/validation"
)

// CreatePost publishes a post as the current user. A post needs a
// caption, an attached file, or both.
func (g *Gate) CreatePost(ctx context.Context, in models.PostInput) (*models.Post, error) {
	u, err := g.requireUser()
	if err != nil {
		return nil, err
	}
	in.Caption = validation.SanitizeText(in.Caption)
	if in.Empty() {
		return nil, models.NewValidationError("a post needs a caption or a file")
	}
	return g.store.CreatePost(ctx, u.ID, in)
}

func (g *Gate) ToggleLike(ctx context.Context, postID string) error {
	u, err := g.requireUser()
	if err != nil {
		return err
	}
	return g.store.ToggleLike(ctx, postID, u.ID)
}

// AddComment comments on a post as the current user. Blank comments are
// ignored.
func (g *Gate) AddComment(ctx context.Context, postID, text string) (*models.Comment, error) {
	u, err := g.requireUser()
	if err != nil {
		return nil, err
	}
	text = validation.SanitizeText(text)
	if text == "" {
		return nil, nil
	}
	return g.store.AddComment(ctx, postID, u.ID, text)
}

func (g *Gate) ToggleFollow(ctx context.Context, targetID string) error {
	u, err := g.requireUser()
	if err != nil {
		return err
	}
	return g.store.ToggleFollow(ctx, u.ID, targetID)
}

func (g *Gate) ToggleFavorite(ctx context.Context, postID string) error {
	u, err := g.requireUser()
	if err != nil {
		return err
	}
	return g.store.ToggleFavorite(ctx, u.ID, postID)
}

// SendMessage sends a direct message from the current user. Blank
// messages are ignored.
func (g *Gate) SendMessage(ctx context.Context, recipientID, text string) (*models.Message, error) {
	u, err := g.requireUser()
	if err != nil {
		return nil, err
	}
	text = validation.SanitizeText(text)
	if text == "" {
		return nil, nil
	}
	return g.store.SendMessage(ctx, u.ID, recipientID, text)
}

// MarkConversationRead marks every message from partnerID to the current
// user as read, as happens when the conversation is opened.
func (g *Gate) MarkConversationRead(ctx context.Context, partnerID string) error {
	u, err := g.requireUser()
	if err != nil {
		return err
	}
	return g.store.MarkMessagesRead(ctx, u.ID, partnerID)
}

func (g *Gate) MarkNotificationsRead(ctx context.Context) error {
	u, err := g.requireUser()
	if err != nil {
		return err
	}
	return g.store.MarkNotificationsRead(ctx, u.ID)
}

// DeletePost removes any post. Admins only.
func (g *Gate) DeletePost(ctx context.Context, postID string) error {
	if _, err := g.requireAdmin(); err != nil {
		return err
	}
	return g.store.DeletePost(ctx, postID)
}

// DeleteUser removes another account and everything it authored. Admins
// only, and never their own account.
func (g *Gate) DeleteUser(ctx context.Context, userID string) error {
	admin, err := g.requireAdmin()
	if err != nil {
		return err
	}
	if admin.ID == userID {
		return models.NewForbiddenError("cannot delete your own account")
	}
	return g.store.DeleteUser(ctx, userID)
}
