package graph

import (
	"context"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"kidflix/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }

func users(follows map[string][]string, ids ...string) []models.User {
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.User{ID: id, Username: "user-" + id, Following: follows[id]})
	}
	return out
}

func distance(a, b Node) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }

func assertInBounds(t *testing.T, p Params, nodes []Node) {
	t.Helper()
	for _, n := range nodes {
		assert.GreaterOrEqual(t, n.X, p.Radius, "node %s x", n.ID)
		assert.LessOrEqual(t, n.X, p.Width-p.Radius, "node %s x", n.ID)
		assert.GreaterOrEqual(t, n.Y, p.Radius, "node %s y", n.ID)
		assert.LessOrEqual(t, n.Y, p.Height-p.Radius, "node %s y", n.ID)
	}
}

func TestFromUsers(t *testing.T) {
	nodes, edges := FromUsers(users(map[string][]string{
		"a": {"b", "ghost"},
		"b": {"a"},
	}, "a", "b", "c"))

	assert.Len(t, nodes, 3)
	assert.Equal(t, []Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "a"}}, edges)
}

func TestTopology(t *testing.T) {
	n1, e1 := FromUsers(users(map[string][]string{"a": {"b"}}, "a", "b"))
	n2, e2 := FromUsers(users(map[string][]string{"a": {"b"}}, "b", "a"))
	n3, e3 := FromUsers(users(nil, "a", "b"))

	assert.Equal(t, Topology(n1, e1), Topology(n2, e2))
	assert.NotEqual(t, Topology(n1, e1), Topology(n3, e3))
}

func TestTwoConnectedNodesConvergeToRestLength(t *testing.T) {
	p := DefaultParams(800, 600)
	p.CenterPull = 0
	sim := NewSimulator(p, seeded())
	nodes, edges := FromUsers(users(map[string][]string{"a": {"b"}}, "a", "b"))
	sim.Reset(nodes, edges)
	require.True(t, sim.Place("a", 150, 300))
	require.True(t, sim.Place("b", 650, 300))

	sim.Run(2000)
	got := sim.Nodes()
	// repulsion shifts the balance point slightly beyond the rest length
	assert.InDelta(t, p.SpringLength, distance(got[0], got[1]), 5)
	assert.Less(t, sim.Energy(), 1e-6)
	assertInBounds(t, p, got)
}

func TestDefaultParamsSettleInsideViewport(t *testing.T) {
	p := DefaultParams(800, 600)
	sim := NewSimulator(p, seeded())
	follows := map[string][]string{}
	var ids []string
	for i := 0; i < 30; i++ {
		id := string(rune('A' + i))
		ids = append(ids, id)
		if i > 0 {
			follows[id] = []string{ids[i-1], ids[0]}
		}
	}
	sim.Reset(FromUsers(users(follows, ids...)))

	steps := sim.Settle(0.01, 5000)
	assert.Less(t, steps, 5000, "layout should settle")
	assertInBounds(t, p, sim.Nodes())
	assert.Equal(t, steps, sim.Ticks())
}

func TestStepClampsToViewport(t *testing.T) {
	p := DefaultParams(200, 200)
	sim := NewSimulator(p, seeded())
	sim.Reset(FromUsers(users(nil, "a", "b", "c")))
	// three coincident-ish nodes in a corner blow apart
	sim.Place("a", 21, 21)
	sim.Place("b", 21.5, 21)
	sim.Place("c", 21, 21.5)
	for i := 0; i < 50; i++ {
		sim.Step()
		assertInBounds(t, p, sim.Nodes())
	}
}

func TestResetPlacesNodesInsideViewport(t *testing.T) {
	p := DefaultParams(800, 600)
	sim := NewSimulator(p, seeded())
	sim.Reset(FromUsers(users(nil, "a", "b", "c", "d")))
	for _, n := range sim.Nodes() {
		assert.True(t, n.X >= 0 && n.X <= p.Width)
		assert.True(t, n.Y >= 0 && n.Y <= p.Height)
		assert.Zero(t, n.VX)
		assert.Zero(t, n.VY)
	}
	assert.False(t, sim.Place("missing", 1, 1))
}

func TestRunner_SyncRestartsOnlyOnTopologyChange(t *testing.T) {
	r := NewRunner(NewSimulator(DefaultParams(800, 600), seeded()), 60)
	us := users(map[string][]string{"a": {"b"}}, "a", "b")

	assert.True(t, r.Sync(us))
	r.mu.Lock()
	r.sim.Run(10)
	r.mu.Unlock()
	assert.Equal(t, 10, r.Ticks())

	us[0].Username = "renamed"
	assert.False(t, r.Sync(us))
	assert.Equal(t, 10, r.Ticks())
	assert.Equal(t, "renamed", r.Positions()[0].Username)

	us[1].Following = []string{"a"}
	assert.True(t, r.Sync(us))
	assert.Equal(t, 0, r.Ticks())
	for _, n := range r.Positions() {
		assert.Zero(t, n.VX)
		assert.Zero(t, n.VY)
	}

	assert.True(t, r.Sync(append(us, models.User{ID: "c"})))
}

func TestRunner_ShowTicksAndHideStops(t *testing.T) {
	var frames atomic.Int64
	r := NewRunner(NewSimulator(DefaultParams(800, 600), seeded()), 200,
		WithFrameHandler(func([]Node) { frames.Add(1) }))
	r.Sync(users(map[string][]string{"a": {"b"}}, "a", "b"))

	r.Show(context.Background())
	r.Show(context.Background())
	assert.True(t, r.Visible())
	require.Eventually(t, func() bool { return r.Ticks() >= 3 }, 2*time.Second, 5*time.Millisecond)

	r.Hide()
	assert.False(t, r.Visible())
	stopped := r.Ticks()
	stoppedFrames := frames.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, r.Ticks(), "no tick after Hide")
	assert.Equal(t, stoppedFrames, frames.Load())

	r.Hide()
}

func TestRunner_StopsWhenContextCancelled(t *testing.T) {
	r := NewRunner(NewSimulator(DefaultParams(800, 600), seeded()), 200)
	r.Sync(users(nil, "a"))

	ctx, cancel := context.WithCancel(context.Background())
	r.Show(ctx)
	require.Eventually(t, func() bool { return r.Ticks() >= 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	r.Hide()

	n := r.Ticks()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, r.Ticks())
}

func TestRunner_ShowAgainAfterParentCancelled(t *testing.T) {
	r := NewRunner(NewSimulator(DefaultParams(800, 600), seeded()), 200)
	r.Sync(users(nil, "a"))

	ctx, cancel := context.WithCancel(context.Background())
	r.Show(ctx)
	require.Eventually(t, func() bool { return r.Ticks() >= 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.Eventually(t, func() bool { return !r.Visible() }, 2*time.Second, 5*time.Millisecond)

	r.Show(context.Background())
	defer r.Hide()
	assert.True(t, r.Visible())
	n := r.Ticks()
	require.Eventually(t, func() bool { return r.Ticks() > n }, 2*time.Second, 5*time.Millisecond)
}
