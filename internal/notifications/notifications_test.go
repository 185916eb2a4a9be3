package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"kidflix/internal/featureflags"
	"kidflix/internal/models"
	"kidflix/internal/store"
	"kidflix/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ring struct {
	userID string
	unread int
}

type recorder struct {
	mu    sync.Mutex
	rings []ring
}

func (r *recorder) Ring(_ context.Context, userID string, unread int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rings = append(r.rings, ring{userID, unread})
	return nil
}

func (r *recorder) all() []ring {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ring(nil), r.rings...)
}

type fixture struct {
	store *store.Store
	alice *models.User
	bob   *models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	s := store.New(testutil.NewFailingKV(), "k")
	alice, err := s.CreateUser(ctx, "alice", "a@example.com", "h")
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, "bob", "b@example.com", "h")
	require.NoError(t, err)
	require.NoError(t, s.ToggleFollow(ctx, bob.ID, alice.ID))
	return fixture{store: s, alice: alice, bob: bob}
}

func TestWatcher_RingsOnUnreadIncrease(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.SetCurrentUser(ctx, f.bob.ID))

	rec := &recorder{}
	w := NewWatcher(rec, featureflags.NewManager("notification_sound=on"))
	w.Attach(f.store)

	_, err := f.store.CreatePost(ctx, f.alice.ID, models.PostInput{Caption: "one"})
	require.NoError(t, err)
	_, err = f.store.CreatePost(ctx, f.alice.ID, models.PostInput{Caption: "two"})
	require.NoError(t, err)
	assert.Equal(t, []ring{{f.bob.ID, 1}, {f.bob.ID, 2}}, rec.all())

	// going down and unrelated changes stay silent
	require.NoError(t, f.store.MarkNotificationsRead(ctx, f.bob.ID))
	require.NoError(t, f.store.UpdateAvatar(ctx, f.bob.ID, "x"))
	assert.Len(t, rec.all(), 2)

	_, err = f.store.CreatePost(ctx, f.alice.ID, models.PostInput{Caption: "three"})
	require.NoError(t, err)
	assert.Equal(t, ring{f.bob.ID, 1}, rec.all()[2])
}

func TestWatcher_LoginSwitchResetsBaseline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.store.CreatePost(ctx, f.alice.ID, models.PostInput{Caption: "while away"})
	require.NoError(t, err)

	rec := &recorder{}
	w := NewWatcher(rec, featureflags.NewManager("notification_sound=on"))
	w.Attach(f.store)

	require.NoError(t, f.store.SetCurrentUser(ctx, f.bob.ID))
	assert.Empty(t, rec.all(), "logging in with unread notifications does not chime")

	// notifications for someone else are ignored
	require.NoError(t, f.store.ToggleFollow(ctx, f.alice.ID, f.bob.ID))
	_, err = f.store.CreatePost(ctx, f.bob.ID, models.PostInput{Caption: "for alice"})
	require.NoError(t, err)
	assert.Empty(t, rec.all())
}

func TestWatcher_FlagOffIsSilent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.SetCurrentUser(ctx, f.bob.ID))

	rec := &recorder{}
	NewWatcher(rec, featureflags.NewManager("notification_sound=off")).Attach(f.store)

	_, err := f.store.CreatePost(ctx, f.alice.ID, models.PostInput{Caption: "one"})
	require.NoError(t, err)
	assert.Empty(t, rec.all())
}

func TestWatcher_ChimeFailuresDoNotPropagate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.SetCurrentUser(ctx, f.bob.ID))

	calls := 0
	NewWatcher(ChimeFunc(func(context.Context, string, int) error {
		calls++
		if calls == 1 {
			return errors.New("no audio device")
		}
		panic("speaker on fire")
	}), featureflags.NewManager("notification_sound=on")).Attach(f.store)

	_, err := f.store.CreatePost(ctx, f.alice.ID, models.PostInput{Caption: "one"})
	require.NoError(t, err)
	_, err = f.store.CreatePost(ctx, f.alice.ID, models.PostInput{Caption: "two"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestBell(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewBell(&buf).Ring(context.Background(), "u", 1))
	assert.Equal(t, "\a", buf.String())
}

func TestUserChannel(t *testing.T) {
	assert.Equal(t, "notifications:user:abc", UserChannel("abc"))
}

func TestPublisher(t *testing.T) {
	assert.NoError(t, NewPublisher(nil).Ring(context.Background(), "u", 1))

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, UserChannel("u1"))
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, NewPublisher(rdb).Ring(ctx, "u1", 3))

	select {
	case msg := <-sub.Channel():
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		assert.Equal(t, Event{Type: "chime", UserID: "u1", Unread: 3}, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for chime event")
	}
}
