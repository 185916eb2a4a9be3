package store

import "kidflix/internal/models"

// State is an immutable view of every collection at one point in time.
// A published State is never modified; mutations build a new one.
type State struct {
	Version       uint64
	Users         []models.User
	Posts         []models.Post
	Messages      []models.Message
	Notifications []models.Notification
	CurrentUserID string
}

func emptyState() *State {
	return &State{
		Users:         []models.User{},
		Posts:         []models.Post{},
		Messages:      []models.Message{},
		Notifications: []models.Notification{},
	}
}

// User returns the user with id. The pointer must be treated as read-only.
func (s *State) User(id string) (*models.User, bool) {
	i := s.userIndex(id)
	if i < 0 {
		return nil, false
	}
	return &s.Users[i], true
}

// UserByUsername returns the user with the exact (case-sensitive) username.
func (s *State) UserByUsername(username string) (*models.User, bool) {
	for i := range s.Users {
		if s.Users[i].Username == username {
			return &s.Users[i], true
		}
	}
	return nil, false
}

// Post returns the post with id. The pointer must be treated as read-only.
func (s *State) Post(id string) (*models.Post, bool) {
	i := s.postIndex(id)
	if i < 0 {
		return nil, false
	}
	return &s.Posts[i], true
}

// CurrentUser returns the logged-in user, if any.
func (s *State) CurrentUser() (*models.User, bool) {
	if s.CurrentUserID == "" {
		return nil, false
	}
	return s.User(s.CurrentUserID)
}

func (s *State) userIndex(id string) int {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) postIndex(id string) int {
	for i := range s.Posts {
		if s.Posts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) clone() *State {
	next := &State{
		Version:       s.Version,
		Users:         make([]models.User, len(s.Users)),
		Posts:         make([]models.Post, len(s.Posts)),
		Messages:      make([]models.Message, len(s.Messages)),
		Notifications: make([]models.Notification, len(s.Notifications)),
		CurrentUserID: s.CurrentUserID,
	}
	for i, u := range s.Users {
		next.Users[i] = u.Clone()
	}
	for i, p := range s.Posts {
		next.Posts[i] = p.Clone()
	}
	copy(next.Messages, s.Messages)
	copy(next.Notifications, s.Notifications)
	return next
}

// Snapshot converts the state to its durable form.
func (s *State) Snapshot() models.Snapshot {
	c := s.clone()
	snap := models.Snapshot{
		Users:         c.Users,
		Posts:         c.Posts,
		Messages:      c.Messages,
		Notifications: c.Notifications,
	}
	if c.CurrentUserID != "" {
		id := c.CurrentUserID
		snap.CurrentUserID = &id
	}
	return snap
}

// stateFromSnapshot builds a state, normalizing missing collections and sets.
func stateFromSnapshot(snap models.Snapshot) *State {
	st := emptyState()
	for _, u := range snap.Users {
		st.Users = append(st.Users, u.Clone())
	}
	for _, p := range snap.Posts {
		st.Posts = append(st.Posts, normalizePost(p))
	}
	st.Messages = append(st.Messages, snap.Messages...)
	st.Notifications = append(st.Notifications, snap.Notifications...)
	if snap.CurrentUserID != nil {
		st.CurrentUserID = *snap.CurrentUserID
	}
	return st
}

func normalizePost(p models.Post) models.Post {
	p = p.Clone()
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	return p
}
