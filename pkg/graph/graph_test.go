package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vanderheijden86/trustmap/pkg/model"
)

func ids(nodes []model.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func sampleSnapshot() model.Snapshot {
	return model.Snapshot{
		Trusts: []model.Node{
			{ID: "trust-1", Label: "Chen Family Trust", Position: model.Point{X: 100, Y: 200}, Members: []string{"entity-1", "entity-2"}},
			{ID: "trust-2", Label: "Investment Holdings Trust", Position: model.Point{X: 100, Y: 400}, Members: []string{"entity-3"}},
		},
		Entities: []model.Node{
			{ID: "entity-1", Label: "TechVentures LLC", Subtitle: "LLC", Position: model.Point{X: 400, Y: 150}, Members: []string{"project-1", "project-2"}},
			{ID: "entity-2", Label: "Real Estate Holdings Inc", Position: model.Point{X: 400, Y: 250}, Members: []string{"project-3"}},
			{ID: "entity-3", Label: "Growth Capital Partners", Position: model.Point{X: 400, Y: 400}, Members: []string{"project-4"}},
		},
		Projects: []model.Node{
			{ID: "project-1", Label: "Series A Fundraising", Status: model.StatusInProgress, Progress: 75, Position: model.Point{X: 700, Y: 100}},
			{ID: "project-2", Label: "QSBS Optimization", Status: model.StatusReview, Progress: 90, Position: model.Point{X: 700, Y: 180}},
			{ID: "project-3", Label: "Property Acquisition", Status: model.StatusPending, Progress: 30, Position: model.Point{X: 700, Y: 250}},
			{ID: "project-4", Label: "Portfolio Rebalancing", Status: model.StatusCompleted, Progress: 100, Position: model.Point{X: 700, Y: 400}},
		},
	}
}

func TestNew_PreservesAuthoredOrder(t *testing.T) {
	g := New(sampleSnapshot())

	want := []string{
		"trust-1", "trust-2",
		"entity-1", "entity-2", "entity-3",
		"project-1", "project-2", "project-3", "project-4",
	}
	if diff := cmp.Diff(want, ids(g.AllNodes())); diff != "" {
		t.Errorf("AllNodes order (-want +got):\n%s", diff)
	}
	if got := ids(g.Entities()); !cmp.Equal(got, []string{"entity-1", "entity-2", "entity-3"}) {
		t.Errorf("Entities = %v", got)
	}
	if g.Len() != 9 {
		t.Errorf("Len = %d, want 9", g.Len())
	}
}

func TestNew_StampsKindFromSequence(t *testing.T) {
	g := New(sampleSnapshot())
	n, ok := g.NodeByID("entity-2")
	if !ok {
		t.Fatal("entity-2 not found")
	}
	if n.Kind != model.KindEntity {
		t.Errorf("kind = %q, want entity", n.Kind)
	}
}

func TestNodeByID_NotFound(t *testing.T) {
	g := New(sampleSnapshot())
	n, ok := g.NodeByID("nope")
	if ok {
		t.Errorf("expected not found, got %+v", n)
	}
	if n.ID != "" {
		t.Errorf("expected zero node, got %+v", n)
	}
}

func TestNodeByID_ReturnsCopy(t *testing.T) {
	g := New(sampleSnapshot())
	n, _ := g.NodeByID("trust-1")
	n.Members[0] = "mutated"

	again, _ := g.NodeByID("trust-1")
	if again.Members[0] != "entity-1" {
		t.Error("caller mutation leaked into the graph")
	}
}

func TestEdges_SampleStructure(t *testing.T) {
	g := New(sampleSnapshot())
	var got []string
	for _, e := range g.Edges() {
		got = append(got, e.String())
	}
	want := []string{
		"trust-1->entity-1 (trust-entity)",
		"trust-1->entity-2 (trust-entity)",
		"trust-2->entity-3 (trust-entity)",
		"entity-1->project-1 (entity-project)",
		"entity-1->project-2 (entity-project)",
		"entity-2->project-3 (entity-project)",
		"entity-3->project-4 (entity-project)",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("edges (-want +got):\n%s", diff)
	}
}

func TestUpsertAndRemove_RecomputeEdges(t *testing.T) {
	g := New(sampleSnapshot())
	before := len(g.Edges())

	if !g.Remove("entity-1") {
		t.Fatal("Remove(entity-1) = false")
	}
	if _, ok := g.NodeByID("entity-1"); ok {
		t.Error("entity-1 still present after Remove")
	}
	// trust-1 -> entity-1 and both entity-1 -> project edges go away
	if got := len(g.Edges()); got != before-3 {
		t.Errorf("edges after remove = %d, want %d", got, before-3)
	}
	if g.Dangling() != 1 {
		t.Errorf("dangling after remove = %d, want 1", g.Dangling())
	}

	g.Upsert(model.Node{ID: "entity-1", Kind: model.KindEntity, Members: []string{"project-1"}})
	if got := len(g.Edges()); got != before-1 {
		t.Errorf("edges after upsert = %d, want %d", got, before-1)
	}
	if last := g.Entities()[2].ID; last != "entity-1" {
		t.Errorf("re-added entity should be last, got %s", last)
	}
	if g.Remove("entity-1") != true || g.Remove("entity-1") != false {
		t.Error("second Remove should report false")
	}
}

func TestUpsert_ReplaceKeepsOrder(t *testing.T) {
	g := New(sampleSnapshot())
	g.Upsert(model.Node{ID: "project-2", Kind: model.KindProject, Label: "Renamed"})

	if diff := cmp.Diff([]string{"project-1", "project-2", "project-3", "project-4"}, ids(g.Projects())); diff != "" {
		t.Errorf("project order changed (-want +got):\n%s", diff)
	}
	n, _ := g.NodeByID("project-2")
	if n.Label != "Renamed" {
		t.Errorf("label = %q", n.Label)
	}
}

func TestUpsert_KindChangeMovesNode(t *testing.T) {
	g := New(sampleSnapshot())
	g.Upsert(model.Node{ID: "entity-3", Kind: model.KindProject})

	if got := ids(g.Entities()); !cmp.Equal(got, []string{"entity-1", "entity-2"}) {
		t.Errorf("entities = %v", got)
	}
	if got := ids(g.Projects()); got[len(got)-1] != "entity-3" {
		t.Errorf("projects = %v", got)
	}
}

func TestUpsert_RejectsUnknownKind(t *testing.T) {
	g := New(sampleSnapshot())
	before, edges := g.Len(), len(g.Edges())

	for _, k := range []model.Kind{"", "holding"} {
		if g.Upsert(model.Node{ID: "entity-9", Kind: k}) {
			t.Errorf("Upsert with kind %q accepted", k)
		}
	}
	// replacing an existing node with a kindless copy must not detach it
	if g.Upsert(model.Node{ID: "entity-1"}) {
		t.Error("kindless replacement accepted")
	}
	if g.Len() != before || len(g.AllNodes()) != before {
		t.Errorf("Len = %d, AllNodes = %d, want %d", g.Len(), len(g.AllNodes()), before)
	}
	if _, ok := g.NodeByID("entity-9"); ok {
		t.Error("rejected node is reachable by id")
	}
	if n, _ := g.NodeByID("entity-1"); n.Kind != model.KindEntity {
		t.Errorf("entity-1 kind = %q", n.Kind)
	}
	if len(g.Edges()) != edges || g.Dangling() != 0 {
		t.Errorf("edges = %d, dangling = %d; want %d, 0", len(g.Edges()), g.Dangling(), edges)
	}
	if !g.Upsert(model.Node{ID: "entity-9", Kind: model.KindEntity}) {
		t.Error("valid node rejected")
	}
}

func TestHash_ChangesWithMembership(t *testing.T) {
	g := New(sampleSnapshot())
	h1 := g.Hash()
	if h1 != New(sampleSnapshot()).Hash() {
		t.Error("equal snapshots should hash equally")
	}

	n, _ := g.NodeByID("trust-2")
	n.Members = append(n.Members, "entity-1")
	g.Upsert(n)
	if g.Hash() == h1 {
		t.Error("hash did not change after membership change")
	}
}

func TestEdges_ReturnsCopy(t *testing.T) {
	g := New(sampleSnapshot())
	e := g.Edges()
	e[0].From = "x"
	if g.Edges()[0].From != "trust-1" {
		t.Error("cached edges were mutated through the returned slice")
	}
}

func TestFilter(t *testing.T) {
	g := New(sampleSnapshot())
	if got := ids(g.Filter("holdings")); !cmp.Equal(got, []string{"trust-2", "entity-2"}) {
		t.Errorf("Filter(holdings) = %v", got)
	}
	if got := len(g.Filter("")); got != 9 {
		t.Errorf("empty filter returned %d nodes", got)
	}
}

func TestBoundsAndNodeAt(t *testing.T) {
	g := New(sampleSnapshot())
	r, ok := g.Bounds()
	if !ok {
		t.Fatal("Bounds on non-empty graph returned false")
	}
	want := model.Rect{Min: model.Point{X: 100, Y: 100}, Max: model.Point{X: 860, Y: 480}}
	if r != want {
		t.Errorf("Bounds = %+v, want %+v", r, want)
	}

	n, ok := g.NodeAt(model.Point{X: 120, Y: 210})
	if !ok || n.ID != "trust-1" {
		t.Errorf("NodeAt = %v %v, want trust-1", n.ID, ok)
	}
	if _, ok := g.NodeAt(model.Point{X: 0, Y: 0}); ok {
		t.Error("NodeAt on empty space should miss")
	}

	if _, ok := New(model.Snapshot{}).Bounds(); ok {
		t.Error("Bounds on empty graph should be false")
	}
}

func TestWithAnchors(t *testing.T) {
	a := DefaultAnchors()
	a.NodeSize = model.Size{W: 100, H: 50}
	g := New(sampleSnapshot(), WithAnchors(a))
	e := g.Edges()[0]
	if e.Start != (model.Point{X: 150, Y: 225}) {
		t.Errorf("start = %v", e.Start)
	}
	if g.Anchors() != a {
		t.Error("Anchors() did not return configured anchors")
	}
}
