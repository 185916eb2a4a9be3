package store

import (
	"context"

	"kidflix/internal/media"
	"kidflix/internal/models"
)

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Username string
	Email    string
}

// CreateUser registers a new account. Usernames are unique by exact,
// case-sensitive match.
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	var created models.User
	err := s.commit(ctx, "create_user", func(next *State) (bool, error) {
		if _, taken := next.UserByUsername(username); taken {
			return false, models.NewDuplicateUsernameError(username)
		}
		created = models.User{
			ID:           s.newID(),
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
			Avatar:       media.DefaultAvatar(username),
			Role:         models.RoleUser,
			Following:    []string{},
			Followers:    []string{},
			Favorites:    []string{},
		}
		next.Users = append(next.Users, created)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	u := created.Clone()
	return &u, nil
}

// Authenticate finds the user whose email or username equals identifier
// and checks the password hash.
func (s *Store) Authenticate(identifier, passwordHash string) (*models.User, error) {
	st := s.State()
	for i := range st.Users {
		u := &st.Users[i]
		if u.Email != identifier && u.Username != identifier {
			continue
		}
		if u.PasswordHash != passwordHash {
			return nil, models.NewWrongPasswordError()
		}
		c := u.Clone()
		return &c, nil
	}
	return nil, models.NewNotFoundError("User", identifier)
}

// UpdateProfile changes username and email. It reports false without
// mutating anything when the user is missing or the username belongs to
// someone else.
func (s *Store) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (bool, error) {
	ok := false
	err := s.commit(ctx, "update_profile", func(next *State) (bool, error) {
		i := next.userIndex(userID)
		if i < 0 {
			return false, nil
		}
		if other, taken := next.UserByUsername(in.Username); taken && other.ID != userID {
			return false, nil
		}
		ok = true
		u := &next.Users[i]
		if u.Username == in.Username && u.Email == in.Email {
			return false, nil
		}
		u.Username = in.Username
		u.Email = in.Email
		return true, nil
	})
	return ok && err == nil, err
}

// UpdatePassword replaces the stored hash. It reports false when the user is missing.
func (s *Store) UpdatePassword(ctx context.Context, userID, newHash string) (bool, error) {
	ok := false
	err := s.commit(ctx, "update_password", func(next *State) (bool, error) {
		i := next.userIndex(userID)
		if i < 0 {
			return false, nil
		}
		ok = true
		next.Users[i].PasswordHash = newHash
		return true, nil
	})
	return ok && err == nil, err
}

// UpdateAvatar replaces the avatar reference. Missing users are ignored.
func (s *Store) UpdateAvatar(ctx context.Context, userID, avatar string) error {
	return s.commit(ctx, "update_avatar", func(next *State) (bool, error) {
		i := next.userIndex(userID)
		if i < 0 {
			return false, nil
		}
		next.Users[i].Avatar = avatar
		return true, nil
	})
}

// SetRole changes a user's role. It reports false when the user is missing.
func (s *Store) SetRole(ctx context.Context, userID string, role models.Role) (bool, error) {
	if !role.Valid() {
		return false, models.NewValidationError("unknown role " + string(role))
	}
	ok := false
	err := s.commit(ctx, "set_role", func(next *State) (bool, error) {
		i := next.userIndex(userID)
		if i < 0 {
			return false, nil
		}
		ok = true
		if next.Users[i].Role == role {
			return false, nil
		}
		next.Users[i].Role = role
		return true, nil
	})
	return ok && err == nil, err
}

// ToggleFollow makes followerID follow targetID, or stops following when
// it already does. Both users' edge sets change in the same transition.
func (s *Store) ToggleFollow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return nil
	}
	return s.commit(ctx, "toggle_follow", func(next *State) (bool, error) {
		fi, ti := next.userIndex(followerID), next.userIndex(targetID)
		if fi < 0 || ti < 0 {
			return false, nil
		}
		follower, target := &next.Users[fi], &next.Users[ti]
		if follower.IsFollowing(targetID) {
			follower.Following = models.Remove(follower.Following, targetID)
			target.Followers = models.Remove(target.Followers, followerID)
		} else {
			follower.Following = append(follower.Following, targetID)
			if !models.Contains(target.Followers, followerID) {
				target.Followers = append(target.Followers, followerID)
			}
		}
		return true, nil
	})
}

// ToggleFavorite bookmarks or un-bookmarks postID for userID. The post
// itself is not touched.
func (s *Store) ToggleFavorite(ctx context.Context, userID, postID string) error {
	return s.commit(ctx, "toggle_favorite", func(next *State) (bool, error) {
		i := next.userIndex(userID)
		if i < 0 {
			return false, nil
		}
		next.Users[i].Favorites, _ = models.Toggle(next.Users[i].Favorites, postID)
		return true, nil
	})
}

// DeleteUser removes the user together with their posts, their follow
// edges, and their likes and comments on remaining posts. Messages and
// notifications that reference the user are kept.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	return s.commit(ctx, "delete_user", func(next *State) (bool, error) {
		i := next.userIndex(userID)
		if i < 0 {
			return false, nil
		}
		next.Users = append(next.Users[:i], next.Users[i+1:]...)

		for j := range next.Users {
			u := &next.Users[j]
			u.Following = models.Remove(u.Following, userID)
			u.Followers = models.Remove(u.Followers, userID)
		}

		posts := next.Posts[:0]
		for _, p := range next.Posts {
			if p.UserID == userID {
				continue
			}
			p.Likes = models.Remove(p.Likes, userID)
			comments := make([]models.Comment, 0, len(p.Comments))
			for _, c := range p.Comments {
				if c.UserID != userID {
					comments = append(comments, c)
				}
			}
			p.Comments = comments
			posts = append(posts, p)
		}
		next.Posts = posts

		if next.CurrentUserID == userID {
			next.CurrentUserID = ""
		}
		return true, nil
	})
}
