package graph

import (
	"github.com/vanderheijden86/trustmap/pkg/metrics"
	"github.com/vanderheijden86/trustmap/pkg/model"
)

// Default node box and anchor fractions. The source anchor sits in the middle
// of the owner's box, the target anchor on the left edge of the member's box,
// halfway down.
const (
	DefaultNodeWidth  = 160.0
	DefaultNodeHeight = 80.0
)

// Anchors places edge endpoints on node boxes. Source and Target are
// fractions of NodeSize measured from a node's top-left position, so
// resizing nodes moves the anchors with them.
type Anchors struct {
	NodeSize model.Size  `json:"node_size" yaml:"node_size"`
	Source   model.Point `json:"source" yaml:"source"`
	Target   model.Point `json:"target" yaml:"target"`
}

// DefaultAnchors returns the 160x80 box with a centre source and a
// left-middle target.
func DefaultAnchors() Anchors {
	return Anchors{
		NodeSize: model.Size{W: DefaultNodeWidth, H: DefaultNodeHeight},
		Source:   model.Point{X: 0.5, Y: 0.5},
		Target:   model.Point{X: 0, Y: 0.5},
	}
}

// SourcePoint returns where an edge leaving n starts.
func (a Anchors) SourcePoint(n model.Node) model.Point {
	return n.Position.Add(model.Point{X: a.Source.X * a.NodeSize.W, Y: a.Source.Y * a.NodeSize.H})
}

// TargetPoint returns where an edge entering n ends.
func (a Anchors) TargetPoint(n model.Node) model.Point {
	return n.Position.Add(model.Point{X: a.Target.X * a.NodeSize.W, Y: a.Target.Y * a.NodeSize.H})
}

// DerivationResult is the outcome of one edge derivation pass.
type DerivationResult struct {
	Edges []model.Edge
	// Dangling counts membership references that did not resolve, by edge kind.
	Dangling map[model.EdgeKind]int
}

// DanglingTotal returns the number of skipped references across kinds.
func (r DerivationResult) DanglingTotal() int {
	total := 0
	for _, n := range r.Dangling {
		total += n
	}
	return total
}

// DeriveEdges computes the edge set of snap. Trust memberships are walked
// first, then entity memberships, each in authored order, so the result is
// deterministic for a given snapshot. A member id that does not name a node
// of the expected kind is skipped.
func DeriveEdges(snap model.Snapshot, a Anchors) []model.Edge {
	return Derive(snap, a).Edges
}

// Derive is DeriveEdges with the dangling reference counts attached.
func Derive(snap model.Snapshot, a Anchors) DerivationResult {
	defer metrics.Timer(metrics.EdgeDerivation)()

	entities := indexByID(snap.Entities)
	projects := indexByID(snap.Projects)

	res := DerivationResult{Dangling: make(map[model.EdgeKind]int, 2)}
	res.Edges = appendEdges(res.Edges, snap.Trusts, entities, model.EdgeTrustEntity, a, res.Dangling)
	res.Edges = appendEdges(res.Edges, snap.Entities, projects, model.EdgeEntityProject, a, res.Dangling)

	for kind, n := range res.Dangling {
		metrics.RecordDangling(string(kind), n)
	}
	return res
}

func appendEdges(edges []model.Edge, owners []model.Node, members map[string]model.Node, kind model.EdgeKind, a Anchors, dangling map[model.EdgeKind]int) []model.Edge {
	for _, owner := range owners {
		for _, id := range owner.Members {
			member, ok := members[id]
			if !ok {
				dangling[kind]++
				continue
			}
			edges = append(edges, model.Edge{
				From:  owner.ID,
				To:    member.ID,
				Kind:  kind,
				Start: a.SourcePoint(owner),
				End:   a.TargetPoint(member),
			})
		}
	}
	return edges
}

func indexByID(nodes []model.Node) map[string]model.Node {
	m := make(map[string]model.Node, len(nodes))
	for _, n := range nodes {
		m[n.ID] = n
	}
	return m
}
