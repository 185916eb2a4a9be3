package notifications

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	"kidflix/internal/featureflags"
	"kidflix/internal/observability"
	"kidflix/internal/query"
	"kidflix/internal/store"
)

// Watcher observes store states and rings its chime whenever the current
// user's unread notification count increases. A login switch only resets
// the baseline.
type Watcher struct {
	chime Chime
	flags *featureflags.Manager

	mu     sync.Mutex
	userID string
	unread int
}

func NewWatcher(chime Chime, flags *featureflags.Manager) *Watcher {
	return &Watcher{chime: chime, flags: flags}
}

// Attach takes the store's current state as the baseline and observes
// every later state.
func (w *Watcher) Attach(s *store.Store) {
	w.Observe(s.State())
	s.OnChange(w.Observe)
}

// Observe compares st against the previous observation and rings when
// the unread count went up for the same user.
func (w *Watcher) Observe(st *store.State) {
	userID := st.CurrentUserID
	unread := 0
	if userID != "" {
		unread = query.UnreadNotifications(st, userID)
	}

	w.mu.Lock()
	ring := userID != "" && userID == w.userID && unread > 0 && unread > w.unread
	w.userID, w.unread = userID, unread
	w.mu.Unlock()

	if !ring || !w.flags.Enabled(featureflags.NotificationSound, userID) {
		return
	}
	w.ring(userID, unread)
}

func (w *Watcher) ring(userID string, unread int) {
	defer func() {
		if r := recover(); r != nil {
			observability.GlobalLogger.Error("panic in notification chime",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	observability.NotificationChimes.Inc()
	if err := w.chime.Ring(context.Background(), userID, unread); err != nil {
		observability.GlobalLogger.Warn("notification chime failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}
