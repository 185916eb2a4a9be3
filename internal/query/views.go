// Package query derives read-only views from entity store states. Every
// view is a pure function of one state and is memoized until the store
// publishes a newer state. Returned slices are shared between callers
// and must not be modified.
package query

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"kidflix/internal/models"
	"kidflix/internal/observability"
	"kidflix/internal/store"
)

// StateSource provides the current immutable store state.
type StateSource interface {
	State() *store.State
}

// Conversation is the latest message exchanged with one partner.
type Conversation struct {
	Partner     models.User
	LastMessage models.Message
	Unread      int
}

// Stats are the database inspector totals.
type Stats struct {
	Users         int `json:"users"`
	Posts         int `json:"posts"`
	Comments      int `json:"comments"`
	Likes         int `json:"likes"`
	Messages      int `json:"messages"`
	Notifications int `json:"notifications"`
	Relations     int `json:"relations"`
}

// Views memoizes derived views per store state.
type Views struct {
	src StateSource

	mu    sync.Mutex
	state *store.State
	cache map[string]any
}

func New(src StateSource) *Views {
	return &Views{src: src}
}

// memo returns the cached value for key on the current state, computing
// it with fn on a miss. Any newer state discards the whole cache.
func memo[T any](v *Views, view, key string, fn func(st *store.State) T) T {
	st := v.src.State()

	v.mu.Lock()
	if v.state != st {
		v.state = st
		v.cache = make(map[string]any)
	}
	if cached, ok := v.cache[key]; ok {
		v.mu.Unlock()
		observability.QueryCacheHits.WithLabelValues(view).Inc()
		return cached.(T)
	}
	v.mu.Unlock()

	observability.QueryCacheMisses.WithLabelValues(view).Inc()
	out := fn(st)

	v.mu.Lock()
	if v.state == st {
		v.cache[key] = out
	}
	v.mu.Unlock()
	return out
}

// UnreadMessageCount counts unread messages addressed to userID.
func (v *Views) UnreadMessageCount(userID string) int {
	return memo(v, "unread_messages", fmt.Sprintf(unreadMessagesKey, userID), func(st *store.State) int {
		n := 0
		for _, m := range st.Messages {
			if m.RecipientID == userID && !m.Read {
				n++
			}
		}
		return n
	})
}

// UnreadNotificationCount counts unread notifications for userID.
func (v *Views) UnreadNotificationCount(userID string) int {
	return memo(v, "unread_notifications", fmt.Sprintf(unreadNotificationsKey, userID), func(st *store.State) int {
		return unreadNotifications(st, userID)
	})
}

func unreadNotifications(st *store.State, userID string) int {
	n := 0
	for _, note := range st.Notifications {
		if note.RecipientID == userID && !note.Read {
			n++
		}
	}
	return n
}

// UnreadNotifications counts unread notifications for userID on st
// without memoization.
func UnreadNotifications(st *store.State, userID string) int {
	return unreadNotifications(st, userID)
}

// UnreadFrom counts unread messages partnerID sent to userID.
func (v *Views) UnreadFrom(userID, partnerID string) int {
	return memo(v, "unread_from", fmt.Sprintf(unreadFromKey, userID, partnerID), func(st *store.State) int {
		n := 0
		for _, m := range st.Messages {
			if m.SenderID == partnerID && m.RecipientID == userID && !m.Read {
				n++
			}
		}
		return n
	})
}

// Conversations lists the most recent message per partner, newest
// first. Partners that no longer exist are left out.
func (v *Views) Conversations(userID string) []Conversation {
	return memo(v, "conversations", fmt.Sprintf(conversationsKey, userID), func(st *store.State) []Conversation {
		latest := make(map[string]models.Message)
		unread := make(map[string]int)
		for _, m := range st.Messages {
			if !m.Involves(userID) {
				continue
			}
			partner := m.Partner(userID)
			if cur, ok := latest[partner]; !ok || m.Timestamp.After(cur.Timestamp) {
				latest[partner] = m
			}
			if m.RecipientID == userID && !m.Read {
				unread[partner]++
			}
		}

		out := make([]Conversation, 0, len(latest))
		for partnerID, m := range latest {
			partner, ok := st.User(partnerID)
			if !ok {
				continue
			}
			out = append(out, Conversation{Partner: partner.Clone(), LastMessage: m, Unread: unread[partnerID]})
		}
		sort.SliceStable(out, func(i, j int) bool {
			ti, tj := out[i].LastMessage.Timestamp, out[j].LastMessage.Timestamp
			if !ti.Equal(tj) {
				return ti.After(tj)
			}
			return out[i].Partner.ID < out[j].Partner.ID
		})
		return out
	})
}

// Thread returns every message between a and b, oldest first.
func (v *Views) Thread(a, b string) []models.Message {
	return memo(v, "thread", threadPair(a, b), func(st *store.State) []models.Message {
		out := make([]models.Message, 0)
		for _, m := range st.Messages {
			if (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a) {
				out = append(out, m)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Timestamp.Before(out[j].Timestamp)
		})
		return out
	})
}

// ProfilePosts returns userID's posts, newest first.
func (v *Views) ProfilePosts(userID string) []models.Post {
	return memo(v, "profile_posts", fmt.Sprintf(profilePostsKey, userID), func(st *store.State) []models.Post {
		out := make([]models.Post, 0)
		for _, p := range st.Posts {
			if p.UserID == userID {
				out = append(out, p.Clone())
			}
		}
		newestFirst(out)
		return out
	})
}

// FavoritePosts returns the live posts userID bookmarked, in store order.
func (v *Views) FavoritePosts(userID string) []models.Post {
	return memo(v, "favorite_posts", fmt.Sprintf(favoritePostsKey, userID), func(st *store.State) []models.Post {
		out := make([]models.Post, 0)
		u, ok := st.User(userID)
		if !ok {
			return out
		}
		for _, p := range st.Posts {
			if u.HasFavorite(p.ID) {
				out = append(out, p.Clone())
			}
		}
		return out
	})
}

// Notifications returns userID's notifications, newest first.
func (v *Views) Notifications(userID string) []models.Notification {
	return memo(v, "notifications", fmt.Sprintf(notificationsKey, userID), func(st *store.State) []models.Notification {
		out := make([]models.Notification, 0)
		for _, n := range st.Notifications {
			if n.RecipientID == userID {
				out = append(out, n)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Timestamp.After(out[j].Timestamp)
		})
		return out
	})
}

// Feed returns all posts newest first. A non-empty search keeps posts
// whose caption or author username contains it, ignoring case.
func (v *Views) Feed(search string) []models.Post {
	search = strings.ToLower(strings.TrimSpace(search))
	return memo(v, "feed", fmt.Sprintf(feedKey, search), func(st *store.State) []models.Post {
		out := make([]models.Post, 0, len(st.Posts))
		for _, p := range st.Posts {
			if search != "" && !matchesPost(st, p, search) {
				continue
			}
			out = append(out, p.Clone())
		}
		newestFirst(out)
		return out
	})
}

func matchesPost(st *store.State, p models.Post, search string) bool {
	if strings.Contains(strings.ToLower(p.Caption), search) {
		return true
	}
	author, ok := st.User(p.UserID)
	return ok && strings.Contains(strings.ToLower(author.Username), search)
}

// UserByUsername resolves a profile route parameter.
func (v *Views) UserByUsername(username string) (*models.User, bool) {
	u, ok := v.src.State().UserByUsername(username)
	if !ok {
		return nil, false
	}
	c := u.Clone()
	return &c, true
}

// SearchUsers returns users whose username contains q, ignoring case,
// sorted by username.
func (v *Views) SearchUsers(q string) []models.User {
	q = strings.ToLower(strings.TrimSpace(q))
	return memo(v, "search_users", fmt.Sprintf(searchUsersKey, q), func(st *store.State) []models.User {
		out := make([]models.User, 0)
		for _, u := range st.Users {
			if strings.Contains(strings.ToLower(u.Username), q) {
				out = append(out, u.Clone())
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Username < out[j].Username })
		return out
	})
}

// Stats summarizes the store for the database inspector. Relations is
// the number of follow edges.
func (v *Views) Stats() Stats {
	return memo(v, "stats", statsKey, func(st *store.State) Stats {
		s := Stats{
			Users:         len(st.Users),
			Posts:         len(st.Posts),
			Messages:      len(st.Messages),
			Notifications: len(st.Notifications),
		}
		for _, u := range st.Users {
			s.Relations += len(u.Following)
		}
		for _, p := range st.Posts {
			s.Likes += len(p.Likes)
			s.Comments += len(p.Comments)
		}
		return s
	})
}

func newestFirst(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Timestamp.After(posts[j].Timestamp)
	})
}
