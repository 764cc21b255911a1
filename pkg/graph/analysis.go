package graph

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/vanderheijden86/trustmap/pkg/metrics"
	"github.com/vanderheijden86/trustmap/pkg/model"
)

// Overview summarizes a graph for legends and detail panels.
type Overview struct {
	Trusts      int     `json:"trusts"`
	Entities    int     `json:"entities"`
	Projects    int     `json:"projects"`
	Completed   int     `json:"completed"`
	Edges       int     `json:"edges"`
	Dangling    int     `json:"dangling"`
	AvgProgress float64 `json:"avg_progress"`
}

// Overview counts nodes per kind, completed projects and edges.
func (g *Graph) Overview() Overview {
	ov := Overview{
		Trusts:   len(g.order[model.KindTrust]),
		Entities: len(g.order[model.KindEntity]),
		Projects: len(g.order[model.KindProject]),
	}
	total := 0
	for _, p := range g.Projects() {
		if p.Status == model.StatusCompleted {
			ov.Completed++
		}
		total += p.Progress
	}
	if ov.Projects > 0 {
		ov.AvgProgress = float64(total) / float64(ov.Projects)
	}
	d := g.derivation()
	ov.Edges = len(d.Edges)
	ov.Dangling = d.DanglingTotal()
	return ov
}

// Analysis is a directed view of the derived edges for reachability queries.
type Analysis struct {
	g     *Graph
	dg    *simple.DirectedGraph
	ids   map[string]int64
	names map[int64]string
}

// Analyze builds the reachability view of the current edge set.
func (g *Graph) Analyze() *Analysis {
	defer metrics.Timer(metrics.Analysis)()

	a := &Analysis{
		g:     g,
		dg:    simple.NewDirectedGraph(),
		ids:   make(map[string]int64, len(g.nodes)),
		names: make(map[int64]string, len(g.nodes)),
	}
	for i, n := range g.AllNodes() {
		id := int64(i)
		a.ids[n.ID] = id
		a.names[id] = n.ID
		a.dg.AddNode(simple.Node(id))
	}
	for _, e := range g.Edges() {
		from, to := a.ids[e.From], a.ids[e.To]
		if from == to {
			continue
		}
		a.dg.SetEdge(a.dg.NewEdge(simple.Node(from), simple.Node(to)))
	}
	return a
}

// Descendants returns every node reachable from id (the entities of a trust
// and their projects), in AllNodes order. Unknown ids yield nil.
func (a *Analysis) Descendants(id string) []model.Node {
	start, ok := a.ids[id]
	if !ok {
		return nil
	}
	seen := make(map[int64]bool)
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) {
			if n.ID() != start {
				seen[n.ID()] = true
			}
		},
	}
	bf.Walk(a.dg, a.dg.Node(start), nil)
	return a.collect(seen)
}

// Ancestors returns every node that reaches id (the owners up the chain), in
// AllNodes order.
func (a *Analysis) Ancestors(id string) []model.Node {
	start, ok := a.ids[id]
	if !ok {
		return nil
	}
	seen := make(map[int64]bool)
	queue := []int64{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		to := a.dg.To(cur)
		for to.Next() {
			pid := to.Node().ID()
			if !seen[pid] && pid != start {
				seen[pid] = true
				queue = append(queue, pid)
			}
		}
	}
	return a.collect(seen)
}

// Orphans returns entities and projects that no owner references.
func (a *Analysis) Orphans() []model.Node {
	var out []model.Node
	for _, n := range a.g.AllNodes() {
		if n.Kind == model.KindTrust {
			continue
		}
		if a.dg.To(a.ids[n.ID]).Len() == 0 {
			out = append(out, n)
		}
	}
	return out
}

func (a *Analysis) collect(set map[int64]bool) []model.Node {
	if len(set) == 0 {
		return nil
	}
	out := make([]model.Node, 0, len(set))
	for _, n := range a.g.AllNodes() {
		if set[a.ids[n.ID]] {
			out = append(out, n)
		}
	}
	return out
}
