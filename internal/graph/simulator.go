// Package graph lays out the follow graph with a force-directed
// particle simulation.
package graph

import (
	"math"
	"math/rand/v2"
	"sort"
	"strings"

	"kidflix/internal/models"
)

// Params are the physical constants of the simulation.
type Params struct {
	Repulsion      float64
	SpringLength   float64
	SpringStrength float64
	Damping        float64
	CenterPull     float64
	Radius         float64
	Width          float64
	Height         float64
}

// DefaultParams returns the standard constants for a viewport of the given size.
func DefaultParams(width, height float64) Params {
	return Params{
		Repulsion:      1000,
		SpringLength:   120,
		SpringStrength: 0.05,
		Damping:        0.85,
		CenterPull:     0.03,
		Radius:         20,
		Width:          width,
		Height:         height,
	}
}

// Node is one user in the layout.
type Node struct {
	ID       string
	Username string
	X, Y     float64
	VX, VY   float64
}

// Edge is a follower → followee relation.
type Edge struct {
	Source string
	Target string
}

// FromUsers builds the node and edge sets: one node per user and one
// edge per following entry whose target exists.
func FromUsers(users []models.User) ([]Node, []Edge) {
	nodes := make([]Node, 0, len(users))
	exists := make(map[string]bool, len(users))
	for _, u := range users {
		nodes = append(nodes, Node{ID: u.ID, Username: u.Username})
		exists[u.ID] = true
	}
	var edges []Edge
	for _, u := range users {
		for _, target := range u.Following {
			if exists[target] {
				edges = append(edges, Edge{Source: u.ID, Target: target})
			}
		}
	}
	return nodes, edges
}

// Topology is a canonical key of the node and edge sets; layouts restart
// when it changes.
func Topology(nodes []Node, edges []Edge) string {
	parts := make([]string, 0, len(nodes)+len(edges))
	for _, n := range nodes {
		parts = append(parts, "n:"+n.ID)
	}
	for _, e := range edges {
		parts = append(parts, "e:"+e.Source+">"+e.Target)
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

type link struct{ source, target int }

// Simulator holds the particle state of one layout. It is not safe for
// concurrent use; Runner serializes access.
type Simulator struct {
	params Params
	rng    *rand.Rand
	nodes  []Node
	edges  []Edge
	links  []link
	ticks  int
}

// NewSimulator returns an empty simulator. rng drives the initial
// placement.
func NewSimulator(p Params, rng *rand.Rand) *Simulator {
	return &Simulator{params: p, rng: rng}
}

// Params returns the simulation constants.
func (s *Simulator) Params() Params { return s.params }

// Reset places nodes at random positions inside the viewport with zero
// velocity and resolves edges to node indexes.
func (s *Simulator) Reset(nodes []Node, edges []Edge) {
	s.nodes = make([]Node, len(nodes))
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		n.X = s.rng.Float64() * s.params.Width
		n.Y = s.rng.Float64() * s.params.Height
		n.VX, n.VY = 0, 0
		s.nodes[i] = n
		index[n.ID] = i
	}
	s.edges = append([]Edge(nil), edges...)
	s.links = s.links[:0]
	for _, e := range edges {
		src, ok1 := index[e.Source]
		dst, ok2 := index[e.Target]
		if ok1 && ok2 {
			s.links = append(s.links, link{src, dst})
		}
	}
	s.ticks = 0
}

// Place overrides the position of node id. It reports false when the
// node is unknown.
func (s *Simulator) Place(id string, x, y float64) bool {
	for i := range s.nodes {
		if s.nodes[i].ID == id {
			s.nodes[i].X, s.nodes[i].Y = x, y
			return true
		}
	}
	return false
}

// Step advances the simulation by one tick.
func (s *Simulator) Step() {
	p := s.params
	nodes := s.nodes

	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := &nodes[i], &nodes[j]
			dx := a.X - b.X
			dy := a.Y - b.Y
			dist := math.Max(math.Hypot(dx, dy), 1)
			force := p.Repulsion / (dist * dist)
			fx := dx / dist * force
			fy := dy / dist * force
			a.VX += fx
			a.VY += fy
			b.VX -= fx
			b.VY -= fy
		}
	}

	for _, l := range s.links {
		src, dst := &nodes[l.source], &nodes[l.target]
		dx := dst.X - src.X
		dy := dst.Y - src.Y
		dist := math.Hypot(dx, dy)
		if dist == 0 {
			continue
		}
		force := (dist - p.SpringLength) * p.SpringStrength
		fx := dx / dist * force
		fy := dy / dist * force
		src.VX += fx
		src.VY += fy
		dst.VX -= fx
		dst.VY -= fy
	}

	cx, cy := p.Width/2, p.Height/2
	for i := range nodes {
		n := &nodes[i]
		n.VX += (cx - n.X) * p.CenterPull
		n.VY += (cy - n.Y) * p.CenterPull
		n.VX *= p.Damping
		n.VY *= p.Damping
		n.X += n.VX
		n.Y += n.VY
		n.X = clamp(n.X, p.Radius, p.Width-p.Radius)
		n.Y = clamp(n.Y, p.Radius, p.Height-p.Radius)
	}
	s.ticks++
}

// Run performs n steps.
func (s *Simulator) Run(n int) {
	for i := 0; i < n; i++ {
		s.Step()
	}
}

// Settle steps until the kinetic energy drops below threshold or
// maxTicks is reached, and returns the number of steps taken.
func (s *Simulator) Settle(threshold float64, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		s.Step()
		if s.Energy() < threshold {
			return i + 1
		}
	}
	return maxTicks
}

// Energy is the sum of squared node speeds.
func (s *Simulator) Energy() float64 {
	var e float64
	for _, n := range s.nodes {
		e += n.VX*n.VX + n.VY*n.VY
	}
	return e
}

// Ticks reports the steps taken since the last Reset.
func (s *Simulator) Ticks() int { return s.ticks }

// Nodes returns a copy of the current node states.
func (s *Simulator) Nodes() []Node {
	return append([]Node(nil), s.nodes...)
}

// Edges returns the edge set the layout was built from.
func (s *Simulator) Edges() []Edge {
	return append([]Edge(nil), s.edges...)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
