package store

import (
	"context"

	"kidflix/internal/models"
)

// SendMessage stores a new unread direct message.
func (s *Store) SendMessage(ctx context.Context, senderID, recipientID, text string) (*models.Message, error) {
	var created models.Message
	err := s.commit(ctx, "send_message", func(next *State) (bool, error) {
		if next.userIndex(senderID) < 0 {
			return false, models.NewNotFoundError("User", senderID)
		}
		if next.userIndex(recipientID) < 0 {
			return false, models.NewNotFoundError("User", recipientID)
		}
		created = models.Message{
			ID:          s.newID(),
			SenderID:    senderID,
			RecipientID: recipientID,
			Text:        text,
			Timestamp:   s.now(),
		}
		next.Messages = append(next.Messages, created)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// MarkMessagesRead flags every message from partnerID to currentUserID as read.
func (s *Store) MarkMessagesRead(ctx context.Context, currentUserID, partnerID string) error {
	return s.commit(ctx, "mark_messages_read", func(next *State) (bool, error) {
		changed := false
		for i := range next.Messages {
			m := &next.Messages[i]
			if m.SenderID == partnerID && m.RecipientID == currentUserID && !m.Read {
				m.Read = true
				changed = true
			}
		}
		return changed, nil
	})
}

// MarkNotificationsRead flags all of the user's notifications as read.
func (s *Store) MarkNotificationsRead(ctx context.Context, currentUserID string) error {
	return s.commit(ctx, "mark_notifications_read", func(next *State) (bool, error) {
		changed := false
		for i := range next.Notifications {
			n := &next.Notifications[i]
			if n.RecipientID == currentUserID && !n.Read {
				n.Read = true
				changed = true
			}
		}
		return changed, nil
	})
}
