package graph

import (
	"context"
	"sync"
	"time"

	"kidflix/internal/models"
	"kidflix/internal/observability"
)

// Runner ticks a Simulator once per frame while its view is visible.
// Hide cancels the frame task and waits for it, so no tick runs after
// Hide returns.
type Runner struct {
	mu       sync.Mutex
	sim      *Simulator
	topology string
	interval time.Duration
	onFrame  func([]Node)

	cancel context.CancelFunc
	done   chan struct{}

	log *observability.SimLogger
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithFrameHandler registers fn to receive node positions after every tick.
func WithFrameHandler(fn func([]Node)) RunnerOption {
	return func(r *Runner) { r.onFrame = fn }
}

// NewRunner returns a hidden runner that ticks fps times per second once shown.
func NewRunner(sim *Simulator, fps int, opts ...RunnerOption) *Runner {
	if fps <= 0 {
		fps = 60
	}
	r := &Runner{
		sim:      sim,
		interval: time.Second / time.Duration(fps),
		log:      observability.NewSimLogger("follow_graph"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sync rebuilds the layout from users when the node or edge set changed
// since the last call. It reports whether the layout restarted.
func (r *Runner) Sync(users []models.User) bool {
	nodes, edges := FromUsers(users)
	topology := Topology(nodes, edges)

	r.mu.Lock()
	defer r.mu.Unlock()
	if topology == r.topology && r.sim.nodes != nil {
		r.relabel(nodes)
		return false
	}
	r.topology = topology
	r.sim.Reset(nodes, edges)
	r.log.LogLifecycle(context.Background(), "restart", map[string]interface{}{
		"nodes": len(nodes),
		"edges": len(edges),
	})
	return true
}

func (r *Runner) relabel(nodes []Node) {
	names := make(map[string]string, len(nodes))
	for _, n := range nodes {
		names[n.ID] = n.Username
	}
	for i := range r.sim.nodes {
		r.sim.nodes[i].Username = names[r.sim.nodes[i].ID]
	}
}

// Show starts the frame task. It is a no-op while already visible. The
// task also stops when ctx is cancelled, after which the runner is hidden
// and Show may start it again.
func (r *Runner) Show(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.log.LogLifecycle(ctx, "show", map[string]interface{}{"interval_ms": r.interval.Milliseconds()})
	go r.loop(ctx, done)
}

// Hide cancels the frame task and blocks until it has exited.
func (r *Runner) Hide() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	r.log.LogLifecycle(context.Background(), "hide", nil)
}

// Visible reports whether the frame task is running.
func (r *Runner) Visible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Positions returns the current node states.
func (r *Runner) Positions() []Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.Nodes()
}

// Ticks reports the steps taken since the layout last restarted.
func (r *Runner) Ticks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.Ticks()
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer r.release(done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame, ok := r.tick(ctx)
			if !ok {
				return
			}
			if r.onFrame != nil {
				r.onFrame(frame)
			}
		}
	}
}

// release clears the task handles if they still belong to the exiting
// task. Hide has already cleared them when it stopped the task itself.
func (r *Runner) release(done chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != done {
		return
	}
	r.cancel()
	r.cancel, r.done = nil, nil
}

// tick steps the simulation unless ctx was cancelled in the meantime.
func (r *Runner) tick(ctx context.Context) ([]Node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx.Err() != nil {
		return nil, false
	}
	r.sim.Step()
	observability.SimulationTicks.Inc()
	if r.onFrame == nil {
		return nil, true
	}
	return r.sim.Nodes(), true
}
