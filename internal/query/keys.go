package query

import "fmt"

const (
	unreadMessagesKey      = "unread_messages:%s"
	unreadNotificationsKey = "unread_notifications:%s"
	unreadFromKey          = "unread_from:%s:%s"
	conversationsKey       = "conversations:%s"
	threadKey              = "thread:%s:%s"
	profilePostsKey        = "profile_posts:%s"
	favoritePostsKey       = "favorite_posts:%s"
	notificationsKey       = "notifications:%s"
	feedKey                = "feed:%s"
	searchUsersKey         = "search_users:%s"
	statsKey               = "stats"
)

// threadPair orders a and b so both directions share one cache entry.
func threadPair(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf(threadKey, a, b)
}
