package models

import "time"

// Message is a direct message between two users.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
	Read        bool      `json:"read"`
}

// Involves reports whether userID is the sender or the recipient.
func (m *Message) Involves(userID string) bool {
	return m.SenderID == userID || m.RecipientID == userID
}

// Partner returns the other party of the message from userID's side.
func (m *Message) Partner(userID string) string {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}

// NotificationType identifies what triggered a notification.
type NotificationType string

const (
	// NotificationNewPost is fanned out to followers when a user posts.
	NotificationNewPost NotificationType = "NEW_POST"
)

// Notification is an in-app alert for a single recipient.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipientId"`
	ActorID     string           `json:"actorId"`
	Type        NotificationType `json:"type"`
	Timestamp   time.Time        `json:"timestamp"`
	Read        bool             `json:"read"`
}
