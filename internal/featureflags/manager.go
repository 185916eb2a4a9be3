// Package featureflags gates optional client behavior per user.
package featureflags

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Known flags.
const (
	NotificationSound = "notification_sound"
	NetworkExplorer   = "network_explorer"
)

// rule is a parsed flag value. pct is the share of users, 0..100, for
// which the flag is on; on/off values are stored as 100 and 0.
type rule struct {
	raw string
	pct int
}

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "notification_sound=on,network_explorer=25%"
//
// Supported values are on/true/1, off/false/0 and N% for a deterministic
// per-user rollout. Anything else parses as off.
type Manager struct {
	rules map[string]rule
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	rules := make(map[string]rule)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		rules[key] = rule{raw: value, pct: parsePercent(value)}
	}
	return &Manager{rules: rules}
}

func parsePercent(value string) int {
	switch value {
	case "on", "true", "1":
		return 100
	case "off", "false", "0":
		return 0
	}
	n, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return 0
	}
	pct, err := strconv.Atoi(n)
	if err != nil {
		return 0
	}
	return min(max(pct, 0), 100)
}

// Enabled reports whether flag name is on for userID. Partial rollouts
// are off for anonymous callers.
func (m *Manager) Enabled(name, userID string) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	switch {
	case !ok || r.pct == 0:
		return false
	case r.pct == 100:
		return true
	case userID == "":
		return false
	}
	return rolloutBucket(name, userID) < r.pct
}

// Names lists the configured flags in sorted order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.rules))
	for name := range m.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.rules))
	for k, r := range m.rules {
		out[k] = r.raw
	}
	return out
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID string) map[string]bool {
	out := make(map[string]bool, len(m.rules))
	for name := range m.rules {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// rolloutBucket maps a user deterministically onto 0..99 per flag.
func rolloutBucket(name, userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name)))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % 100)
}
