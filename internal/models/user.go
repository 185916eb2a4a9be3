// Package models contains data structures for the application's domain models.
package models

// Role is the permission level of a user account.
type Role string

const (
	// RoleUser is the default role assigned at signup.
	RoleUser Role = "user"
	// RoleAdmin may delete posts and users.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an account in the local store. Following and Followers are
// mutual inverses and are only ever changed together.
type User struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"passwordHash"`
	Avatar       string   `json:"avatar"`
	Role         Role     `json:"role"`
	Following    []string `json:"following"`
	Followers    []string `json:"followers"`
	Favorites    []string `json:"favorites"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsFollowing reports whether the user follows targetID.
func (u *User) IsFollowing(targetID string) bool {
	return Contains(u.Following, targetID)
}

// HasFavorite reports whether postID is bookmarked by the user.
func (u *User) HasFavorite(postID string) bool {
	return Contains(u.Favorites, postID)
}

// Clone returns a deep copy of the user.
func (u User) Clone() User {
	u.Following = cloneIDs(u.Following)
	u.Followers = cloneIDs(u.Followers)
	u.Favorites = cloneIDs(u.Favorites)
	return u
}
