// Package notifications triggers the notification sound when the
// logged-in user's unread notification count goes up.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
)

// Chime plays the notification sound for a user.
type Chime interface {
	Ring(ctx context.Context, userID string, unread int) error
}

// ChimeFunc adapts a function to Chime.
type ChimeFunc func(ctx context.Context, userID string, unread int) error

func (f ChimeFunc) Ring(ctx context.Context, userID string, unread int) error {
	return f(ctx, userID, unread)
}

// Bell rings the terminal bell on w.
type Bell struct {
	w io.Writer
}

func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) Ring(_ context.Context, _ string, _ int) error {
	_, err := io.WriteString(b.w, "\a")
	return err
}

// UserChannel returns the Redis channel chime events for userID go to.
func UserChannel(userID string) string {
	return fmt.Sprintf("notifications:user:%s", userID)
}

// Event is the payload published for a chime.
type Event struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Unread int    `json:"unread"`
}

// Publisher forwards chimes to a Redis channel so another process (a
// desktop shell, a second terminal) can play the sound.
type Publisher struct {
	rdb *redis.Client
}

// NewPublisher creates a Publisher. A nil client makes every Ring a no-op.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

func (p *Publisher) Ring(ctx context.Context, userID string, unread int) error {
	if p.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(Event{Type: "chime", UserID: userID, Unread: unread})
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}
