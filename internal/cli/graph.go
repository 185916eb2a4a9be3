package cli

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"kidflix/internal/featureflags"
	"kidflix/internal/graph"
	"kidflix/internal/store"

	"github.com/spf13/cobra"
)

const (
	settleThreshold = 0.01
	settleMaxTicks  = 1000
	plotCols        = 64
	plotRows        = 20
)

type graphFlags struct {
	iterations int
	live       time.Duration
	seed       uint64
	plot       bool
}

func newGraphCmd(flags *rootFlags) *cobra.Command {
	gf := &graphFlags{}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Lay out the follow graph with a force-directed simulation",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(ctx context.Context, cmd *cobra.Command, app *App, p *Printer, args []string) error {
			var userID string
			if me := app.Gate.CurrentUser(); me != nil {
				userID = me.ID
			}
			if !app.Flags.Enabled(featureflags.NetworkExplorer, userID) {
				p.Warning("The network explorer is turned off (FEATURE_FLAGS %s)", featureflags.NetworkExplorer)
				return nil
			}

			seed := gf.seed
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			params := graph.DefaultParams(app.Config.GraphWidth, app.Config.GraphHeight)
			sim := graph.NewSimulator(params, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))

			var nodes []graph.Node
			var edges []graph.Edge
			var ticks int
			if gf.live > 0 {
				nodes, edges, ticks = runLive(ctx, app, sim, gf.live)
			} else {
				nodes, edges = graph.FromUsers(app.Store.State().Users)
				sim.Reset(nodes, edges)
				if gf.iterations > 0 {
					sim.Run(gf.iterations)
				} else {
					sim.Settle(settleThreshold, settleMaxTicks)
				}
				nodes, ticks = sim.Nodes(), sim.Ticks()
			}

			p.Heading("%d users · %d follow edges · %d ticks · energy %.4f", len(nodes), len(edges), ticks, sim.Energy())
			if gf.plot && len(nodes) > 0 {
				fmt.Fprint(cmd.OutOrStdout(), plot(nodes, params))
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tX\tY")
			sort.Slice(nodes, func(i, j int) bool { return nodes[i].Username < nodes[j].Username })
			for _, n := range nodes {
				fmt.Fprintf(w, "%s\t%.1f\t%.1f\n", n.Username, n.X, n.Y)
			}
			return w.Flush()
		}),
	}
	cmd.Flags().IntVarP(&gf.iterations, "iterations", "n", 0, "Fixed number of ticks (settles when 0)")
	cmd.Flags().DurationVar(&gf.live, "live", 0, "Run the per-frame layout for this long, following store changes")
	cmd.Flags().Uint64Var(&gf.seed, "seed", 0, "Placement seed (0 picks one)")
	cmd.Flags().BoolVar(&gf.plot, "plot", true, "Draw an ASCII plot of the layout")
	return cmd
}

// runLive shows a frame runner for d, restarting the layout whenever
// the store's follow topology changes.
func runLive(ctx context.Context, app *App, sim *graph.Simulator, d time.Duration) ([]graph.Node, []graph.Edge, int) {
	var frames atomic.Int64
	runner := graph.NewRunner(sim, app.Config.GraphFPS, graph.WithFrameHandler(func([]graph.Node) {
		frames.Add(1)
	}))
	runner.Sync(app.Store.State().Users)
	app.Store.OnChange(func(st *store.State) {
		runner.Sync(st.Users)
	})

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	runner.Show(ctx)
	<-ctx.Done()
	runner.Hide()

	_, edges := graph.FromUsers(app.Store.State().Users)
	return runner.Positions(), edges, runner.Ticks()
}

// plot draws node positions onto a character grid scaled to the viewport.
func plot(nodes []graph.Node, p graph.Params) string {
	grid := make([][]rune, plotRows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", plotCols))
	}
	for _, n := range nodes {
		col := int(math.Round(n.X / p.Width * float64(plotCols-1)))
		row := int(math.Round(n.Y / p.Height * float64(plotRows-1)))
		col = min(max(col, 0), plotCols-1)
		row = min(max(row, 0), plotRows-1)
		mark := '●'
		if name := []rune(n.Username); len(name) > 0 {
			mark = name[0]
		}
		grid[row][col] = mark
	}

	var b strings.Builder
	border := "+" + strings.Repeat("-", plotCols) + "+\n"
	b.WriteString(border)
	for _, row := range grid {
		b.WriteString("|")
		b.WriteString(string(row))
		b.WriteString("|\n")
	}
	b.WriteString(border)
	return b.String()
}
