// Package model defines the node, edge and snapshot types shared by every
// trustmap package.
package model

import (
	"fmt"
	"strings"
)

// Kind identifies which tier of the structure a node belongs to.
type Kind string

const (
	KindTrust   Kind = "trust"
	KindEntity  Kind = "entity"
	KindProject Kind = "project"
)

// IsValid reports whether k is one of the known kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindTrust, KindEntity, KindProject:
		return true
	}
	return false
}

// Plural returns the display name for a group of nodes of this kind.
func (k Kind) Plural() string {
	switch k {
	case KindTrust:
		return "Trusts"
	case KindEntity:
		return "Entities"
	case KindProject:
		return "Projects"
	default:
		return string(k)
	}
}

// Status is the lifecycle state shown on a node.
type Status string

const (
	StatusActive     Status = "active"
	StatusInactive   Status = "inactive"
	StatusInProgress Status = "in-progress"
	StatusReview     Status = "review"
	StatusPending    Status = "pending"
	StatusCompleted  Status = "completed"
)

// IsValid reports whether s is a known status. Unknown statuses are kept
// as-is on the node so renderers can still show them.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusInProgress, StatusReview, StatusPending, StatusCompleted:
		return true
	}
	return false
}

// IsHealthy reports whether the status dot should be drawn green.
func (s Status) IsHealthy() bool {
	return s == StatusActive || s == StatusCompleted
}

// Point is a coordinate in model or screen space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Scale returns p multiplied by f on both axes.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

func (p Point) String() string {
	return fmt.Sprintf("(%g,%g)", p.X, p.Y)
}

// Size is a width/height pair.
type Size struct {
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

// Rect is an axis aligned box.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Node is a vertex of the structure graph: a trust, an entity or a project.
//
// Members lists the ids this node references: the entities owned by a trust,
// or the projects sponsored by an entity. Projects have no members. A node
// never owns the nodes it references; the graph owns every node.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Kind     Kind     `json:"kind" yaml:"kind"`
	Label    string   `json:"label" yaml:"label"`
	Subtitle string   `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Status   Status   `json:"status" yaml:"status"`
	Position Point    `json:"position" yaml:"position"`
	Members  []string `json:"members,omitempty" yaml:"members,omitempty"`
	Progress int      `json:"progress,omitempty" yaml:"progress,omitempty"` // project completion, 0-100
}

// Detail returns the second display line of a node: the progress for
// projects and the subtitle for everything else.
func (n Node) Detail() string {
	if n.Kind == KindProject {
		return fmt.Sprintf("%d%% Complete", n.Progress)
	}
	return n.Subtitle
}

// Matches reports whether the node's id, label, subtitle or status contains
// query, case-insensitively. An empty query matches everything.
func (n Node) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{n.ID, n.Label, n.Subtitle, string(n.Status)} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	if n.Members != nil {
		n.Members = append([]string(nil), n.Members...)
	}
	return n
}

// EdgeKind names the tier pair an edge connects.
type EdgeKind string

const (
	EdgeTrustEntity   EdgeKind = "trust-entity"
	EdgeEntityProject EdgeKind = "entity-project"
)

// Edge is a derived connection between two nodes. Edges are never stored;
// they are recomputed from membership lists.
type Edge struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Kind  EdgeKind `json:"kind"`
	Start Point    `json:"start"`
	End   Point    `json:"end"`
}

func (e Edge) String() string {
	return fmt.Sprintf("%s->%s (%s)", e.From, e.To, e.Kind)
}

// Snapshot is the ordered input of a graph: three node sequences in authored
// order.
type Snapshot struct {
	Trusts   []Node `json:"trusts" yaml:"trusts"`
	Entities []Node `json:"entities" yaml:"entities"`
	Projects []Node `json:"projects" yaml:"projects"`
}

// Len returns the total number of nodes in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Trusts) + len(s.Entities) + len(s.Projects)
}

// All returns every node, trusts first, then entities, then projects.
func (s Snapshot) All() []Node {
	out := make([]Node, 0, s.Len())
	out = append(out, s.Trusts...)
	out = append(out, s.Entities...)
	out = append(out, s.Projects...)
	return out
}

// Normalize stamps each node with the kind implied by the sequence it sits
// in. Sources that omit the kind field rely on this.
func (s *Snapshot) Normalize() {
	for i := range s.Trusts {
		if s.Trusts[i].Kind == "" {
			s.Trusts[i].Kind = KindTrust
		}
	}
	for i := range s.Entities {
		if s.Entities[i].Kind == "" {
			s.Entities[i].Kind = KindEntity
		}
	}
	for i := range s.Projects {
		if s.Projects[i].Kind == "" {
			s.Projects[i].Kind = KindProject
		}
	}
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Trusts:   cloneNodes(s.Trusts),
		Entities: cloneNodes(s.Entities),
		Projects: cloneNodes(s.Projects),
	}
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
