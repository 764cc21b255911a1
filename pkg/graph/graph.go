// Package graph holds the trust/entity/project structure and derives the
// edges between its nodes.
//
// A Graph owns every node in a single id-keyed map and remembers the authored
// order of each kind. Edges are never stored: they are recomputed from the
// membership lists whenever the node set has changed, so they cannot go
// stale.
package graph

import (
	"github.com/mitchellh/hashstructure/v2"

	"github.com/vanderheijden86/trustmap/pkg/debug"
	"github.com/vanderheijden86/trustmap/pkg/model"
)

// Option configures a Graph.
type Option func(*Graph)

// WithAnchors sets the anchor geometry used for derived edges.
func WithAnchors(a Anchors) Option {
	return func(g *Graph) {
		g.anchors = a
	}
}

// Graph is the node mapping plus the per-kind authored order.
type Graph struct {
	nodes   map[string]model.Node
	order   map[model.Kind][]string
	anchors Anchors

	// derivation cache, keyed by the structural hash of the snapshot
	cacheKey   uint64
	cacheValid bool
	cached     DerivationResult
}

var kindOrder = []model.Kind{model.KindTrust, model.KindEntity, model.KindProject}

// New builds a graph from snap. The snapshot is assumed validated (see
// datasource.Validate); a later node with a duplicate id replaces the earlier one.
func New(snap model.Snapshot, opts ...Option) *Graph {
	g := &Graph{
		nodes:   make(map[string]model.Node, snap.Len()),
		order:   make(map[model.Kind][]string, len(kindOrder)),
		anchors: DefaultAnchors(),
	}
	for _, opt := range opts {
		opt(g)
	}

	snap = snap.Clone()
	snap.Normalize()
	for _, n := range snap.All() {
		g.Upsert(n)
	}
	return g
}

// Anchors returns the anchor geometry of the graph.
func (g *Graph) Anchors() Anchors {
	return g.anchors
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// AllNodes returns every node: trusts, then entities, then projects, each in
// authored order.
func (g *Graph) AllNodes() []model.Node {
	out := make([]model.Node, 0, len(g.nodes))
	for _, k := range kindOrder {
		out = append(out, g.ofKind(k)...)
	}
	return out
}

// NodeByID returns the node with the given id. The boolean is false when no
// such node exists.
func (g *Graph) NodeByID(id string) (model.Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return model.Node{}, false
	}
	return n.Clone(), true
}

// Trusts returns the trusts in authored order.
func (g *Graph) Trusts() []model.Node { return g.ofKind(model.KindTrust) }

// Entities returns the entities in authored order.
func (g *Graph) Entities() []model.Node { return g.ofKind(model.KindEntity) }

// Projects returns the projects in authored order.
func (g *Graph) Projects() []model.Node { return g.ofKind(model.KindProject) }

func (g *Graph) ofKind(k model.Kind) []model.Node {
	ids := g.order[k]
	out := make([]model.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.nodes[id].Clone())
	}
	return out
}

// Upsert inserts n or replaces the node with the same id. A replaced node
// keeps its position in the authored order unless its kind changed, in which
// case it moves to the end of its new kind. A node without a known kind is
// rejected and Upsert reports false.
func (g *Graph) Upsert(n model.Node) bool {
	if !n.Kind.IsValid() {
		return false
	}
	n = n.Clone()
	if prev, ok := g.nodes[n.ID]; ok {
		if prev.Kind != n.Kind {
			g.order[prev.Kind] = removeID(g.order[prev.Kind], n.ID)
			g.order[n.Kind] = append(g.order[n.Kind], n.ID)
		}
	} else {
		g.order[n.Kind] = append(g.order[n.Kind], n.ID)
	}
	g.nodes[n.ID] = n
	return true
}

// Remove deletes the node with the given id. Edges that referenced it
// disappear on the next derivation. It reports whether a node was removed.
func (g *Graph) Remove(id string) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	delete(g.nodes, id)
	g.order[n.Kind] = removeID(g.order[n.Kind], id)
	return true
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

// Snapshot returns a copy of the current nodes as an ordered snapshot.
func (g *Graph) Snapshot() model.Snapshot {
	return model.Snapshot{
		Trusts:   g.Trusts(),
		Entities: g.Entities(),
		Projects: g.Projects(),
	}
}

// Filter returns the nodes matching query (see model.Node.Matches) in
// AllNodes order.
func (g *Graph) Filter(query string) []model.Node {
	var out []model.Node
	for _, n := range g.AllNodes() {
		if n.Matches(query) {
			out = append(out, n)
		}
	}
	return out
}

// Hash returns a structural hash of the snapshot and anchor geometry.
func (g *Graph) Hash() uint64 {
	h, err := hashstructure.Hash(struct {
		Snapshot model.Snapshot
		Anchors  Anchors
	}{g.Snapshot(), g.anchors}, hashstructure.FormatV2, nil)
	if err != nil {
		// Only reachable with unhashable field types, which the model does
		// not have. Fall back to an uncached key.
		debug.Log("graph hash failed: %v", err)
		return 0
	}
	return h
}

// Edges returns the derived edge set. Results are cached against Hash, so any
// membership, position or anchor change invalidates them.
func (g *Graph) Edges() []model.Edge {
	return append([]model.Edge(nil), g.derivation().Edges...)
}

// Dangling returns how many membership references did not resolve.
func (g *Graph) Dangling() int {
	return g.derivation().DanglingTotal()
}

// Warm derives and caches the edge set. After Warm, and until the next
// Upsert or Remove, the graph may be read from several goroutines.
func (g *Graph) Warm() {
	g.derivation()
}

func (g *Graph) derivation() DerivationResult {
	key := g.Hash()
	if g.cacheValid && key != 0 && key == g.cacheKey {
		return g.cached
	}
	g.cached = Derive(g.Snapshot(), g.anchors)
	g.cacheKey = key
	g.cacheValid = true
	debug.Log("derived %d edges (%d dangling)", len(g.cached.Edges), g.cached.DanglingTotal())
	return g.cached
}

// Bounds returns the rectangle covering every node box, or false for an
// empty graph.
func (g *Graph) Bounds() (model.Rect, bool) {
	if len(g.nodes) == 0 {
		return model.Rect{}, false
	}
	first := true
	var r model.Rect
	for _, n := range g.nodes {
		maxP := n.Position.Add(model.Point{X: g.anchors.NodeSize.W, Y: g.anchors.NodeSize.H})
		if first {
			r = model.Rect{Min: n.Position, Max: maxP}
			first = false
			continue
		}
		r.Min.X = min(r.Min.X, n.Position.X)
		r.Min.Y = min(r.Min.Y, n.Position.Y)
		r.Max.X = max(r.Max.X, maxP.X)
		r.Max.Y = max(r.Max.Y, maxP.Y)
	}
	return r, true
}

// NodeAt returns the topmost node whose box contains the model point p.
// Later kinds draw over earlier ones, so projects win over entities.
func (g *Graph) NodeAt(p model.Point) (model.Node, bool) {
	all := g.AllNodes()
	for i := len(all) - 1; i >= 0; i-- {
		n := all[i]
		if p.X >= n.Position.X && p.X <= n.Position.X+g.anchors.NodeSize.W &&
			p.Y >= n.Position.Y && p.Y <= n.Position.Y+g.anchors.NodeSize.H {
			return n, true
		}
	}
	return model.Node{}, false
}
