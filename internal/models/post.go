package models

import (
	"strings"
	"time"
)

// Post is a feed entry. Comments are owned by the post and kept in
// chronological (insertion) order.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	FileURL   string    `json:"fileUrl"`
	FileType  string    `json:"fileType"`
	FileName  string    `json:"fileName"`
	Caption   string    `json:"caption"`
	Timestamp time.Time `json:"timestamp"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
}

// Comment belongs to exactly one post and has no lifecycle of its own.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// PostInput is the payload used to create a post.
type PostInput struct {
	FileURL  string `json:"fileUrl"`
	FileType string `json:"fileType"`
	FileName string `json:"fileName"`
	Caption  string `json:"caption"`
}

// Empty reports whether the payload carries neither a caption nor a file.
func (in PostInput) Empty() bool {
	return strings.TrimSpace(in.Caption) == "" && in.FileURL == ""
}

// IsImage reports whether the attached media is an image.
func (p *Post) IsImage() bool {
	return strings.HasPrefix(p.FileType, "image/")
}

// IsVideo reports whether the attached media is a video.
func (p *Post) IsVideo() bool {
	return strings.HasPrefix(p.FileType, "video/")
}

// LikedBy reports whether userID has liked the post.
func (p *Post) LikedBy(userID string) bool {
	return Contains(p.Likes, userID)
}

// Clone returns a deep copy of the post.
func (p Post) Clone() Post {
	p.Likes = cloneIDs(p.Likes)
	if p.Comments != nil {
		comments := make([]Comment, len(p.Comments))
		copy(comments, p.Comments)
		p.Comments = comments
	}
	return p
}
