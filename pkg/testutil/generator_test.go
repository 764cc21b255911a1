package testutil

import (
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/vanderheijden86/trustmap/internal/datasource"
	"github.com/vanderheijden86/trustmap/pkg/graph"
	"github.com/vanderheijden86/trustmap/pkg/model"
)

func TestStructure(t *testing.T) {
	snap := QuickStructure(2, 3, 2)
	AssertNodeCounts(t, snap, 2, 6, 12)
	AssertValid(t, snap)

	if got := snap.Trusts[0].Members; !reflect.DeepEqual(got, []string{"entity-1", "entity-2", "entity-3"}) {
		t.Errorf("trust-1 members = %v", got)
	}
	if got := snap.Entities[5].Members; !reflect.DeepEqual(got, []string{"project-11", "project-12"}) {
		t.Errorf("entity-6 members = %v", got)
	}
	// trust-1 sits level with its middle entity
	if snap.Trusts[0].Position != (model.Point{X: TrustX, Y: snap.Entities[1].Position.Y}) {
		t.Errorf("trust-1 at %v, entity-2 at %v", snap.Trusts[0].Position, snap.Entities[1].Position)
	}

	g := graph.New(snap)
	edges := g.Edges()
	if len(edges) != 2*3*(1+2) {
		t.Errorf("edges = %d, want 18", len(edges))
	}
	AssertEdgesResolve(t, snap, edges)
}

func TestCompletedProjectsAreFull(t *testing.T) {
	g := New(GeneratorConfig{Seed: 7, StatusMix: []model.Status{model.StatusCompleted}})
	for _, p := range g.Structure(1, 1, 5).Projects {
		if p.Progress != 100 || p.Status != model.StatusCompleted {
			t.Errorf("%s: %s at %d%%", p.ID, p.Status, p.Progress)
		}
	}
}

func TestSharedHoldings(t *testing.T) {
	g := New(GeneratorConfig{Seed: 1, SharedRate: 1})
	snap := g.Structure(3, 2, 0)
	AssertValid(t, snap)
	// every entity of trusts 2 and 3 is also held by the trust before it
	if n := len(snap.Trusts[0].Members); n != 4 {
		t.Errorf("trust-1 holds %d entities, want 4", n)
	}
	if n := len(snap.Trusts[2].Members); n != 2 {
		t.Errorf("trust-3 holds %d entities, want 2", n)
	}
	a := graph.New(snap).Analyze()
	if got := IDs(a.Ancestors("entity-3")); !reflect.DeepEqual(got, []string{"trust-1", "trust-2"}) {
		t.Errorf("ancestors of entity-3 = %v", got)
	}
}

func TestWithDangling(t *testing.T) {
	g := NewDefault()
	base := g.Structure(2, 2, 1)
	snap := g.WithDangling(base, 3)

	if got := graph.New(snap).Dangling(); got != 3 {
		t.Errorf("dangling = %d, want 3", got)
	}
	if graph.New(base).Dangling() != 0 {
		t.Error("WithDangling modified its input")
	}
	AssertEdgesResolve(t, snap, graph.New(snap).Edges())

	if out := g.WithDangling(model.Snapshot{}, 2); out.Len() != 0 {
		t.Errorf("empty snapshot grew to %d nodes", out.Len())
	}
}

func TestUnlinked(t *testing.T) {
	snap := NewDefault().Unlinked(3)
	AssertNodeCounts(t, snap, 0, 3, 0)
	if n := len(graph.New(snap).Analyze().Orphans()); n != 3 {
		t.Errorf("orphans = %d, want 3", n)
	}
}

func TestIDPrefix(t *testing.T) {
	snap := New(GeneratorConfig{IDPrefix: "x-"}).Structure(1, 1, 1)
	for _, n := range snap.All() {
		if !strings.HasPrefix(n.ID, "x-") {
			t.Errorf("id %q lacks prefix", n.ID)
		}
	}
}

func TestDeterminism(t *testing.T) {
	a := New(GeneratorConfig{Seed: 99, SharedRate: 0.5, StatusMix: DefaultConfig().StatusMix}).Structure(4, 3, 3)
	b := New(GeneratorConfig{Seed: 99, SharedRate: 0.5, StatusMix: DefaultConfig().StatusMix}).Structure(4, 3, 3)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different structures")
	}
}

func TestWriteDataFile(t *testing.T) {
	dir := t.TempDir()
	snap := QuickStructure(1, 2, 2)
	for _, name := range []string{"s.yaml", "s.json", "s.db"} {
		path := WriteDataFile(t, dir, name, snap)
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		src, err := datasource.Open(path)
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		got, err := src.Load(t.Context())
		if err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
		if d := datasource.Diff(snap, got); !d.Empty() {
			t.Errorf("%s round trip: %s", name, d.Summary())
		}
	}
}

func BenchmarkStructure1000(b *testing.B) {
	g := NewDefault()
	for i := 0; i < b.N; i++ {
		_ = g.Structure(10, 10, 10)
	}
}
