package store

import (
	"context"

	"kidflix/internal/models"
)

// CreatePost publishes a post for authorID and fans out one unread
// NEW_POST notification to each of the author's followers.
func (s *Store) CreatePost(ctx context.Context, authorID string, in models.PostInput) (*models.Post, error) {
	var created models.Post
	err := s.commit(ctx, "create_post", func(next *State) (bool, error) {
		author, ok := next.User(authorID)
		if !ok {
			return false, models.NewNotFoundError("User", authorID)
		}
		now := s.now()
		created = models.Post{
			ID:        s.newID(),
			UserID:    authorID,
			FileURL:   in.FileURL,
			FileType:  in.FileType,
			FileName:  in.FileName,
			Caption:   in.Caption,
			Timestamp: now,
			Likes:     []string{},
			Comments:  []models.Comment{},
		}
		next.Posts = append(next.Posts, created)

		for _, followerID := range author.Followers {
			next.Notifications = append(next.Notifications, models.Notification{
				ID:          s.newID(),
				RecipientID: followerID,
				ActorID:     authorID,
				Type:        models.NotificationNewPost,
				Timestamp:   now,
			})
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	p := created.Clone()
	return &p, nil
}

// ToggleLike adds or removes userID from the post's likes. Missing posts
// or users are ignored.
func (s *Store) ToggleLike(ctx context.Context, postID, userID string) error {
	return s.commit(ctx, "toggle_like", func(next *State) (bool, error) {
		i := next.postIndex(postID)
		if i < 0 || next.userIndex(userID) < 0 {
			return false, nil
		}
		next.Posts[i].Likes, _ = models.Toggle(next.Posts[i].Likes, userID)
		return true, nil
	})
}

// AddComment appends a comment to the post. It returns a nil comment and
// no error when the post or the commenting user does not exist.
func (s *Store) AddComment(ctx context.Context, postID, userID, text string) (*models.Comment, error) {
	var created *models.Comment
	err := s.commit(ctx, "add_comment", func(next *State) (bool, error) {
		i := next.postIndex(postID)
		if i < 0 || next.userIndex(userID) < 0 {
			return false, nil
		}
		c := models.Comment{
			ID:        s.newID(),
			UserID:    userID,
			Text:      text,
			Timestamp: s.now(),
		}
		next.Posts[i].Comments = append(next.Posts[i].Comments, c)
		created = &c
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeletePost removes a single post. Callers enforce who may do this.
func (s *Store) DeletePost(ctx context.Context, postID string) error {
	return s.commit(ctx, "delete_post", func(next *State) (bool, error) {
		i := next.postIndex(postID)
		if i < 0 {
			return false, nil
		}
		next.Posts = append(next.Posts[:i], next.Posts[i+1:]...)
		return true, nil
	})
}
