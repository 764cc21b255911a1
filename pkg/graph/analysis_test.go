package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vanderheijden86/trustmap/pkg/model"
)

func TestOverview(t *testing.T) {
	ov := New(sampleSnapshot()).Overview()
	want := Overview{
		Trusts:      2,
		Entities:    3,
		Projects:    4,
		Completed:   1,
		Edges:       7,
		Dangling:    0,
		AvgProgress: 73.75,
	}
	if diff := cmp.Diff(want, ov); diff != "" {
		t.Errorf("overview (-want +got):\n%s", diff)
	}
}

func TestOverview_Empty(t *testing.T) {
	ov := New(model.Snapshot{}).Overview()
	if ov != (Overview{}) {
		t.Errorf("expected zero overview, got %+v", ov)
	}
}

func TestDescendants(t *testing.T) {
	a := New(sampleSnapshot()).Analyze()

	got := ids(a.Descendants("trust-1"))
	want := []string{"entity-1", "entity-2", "project-1", "project-2", "project-3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("descendants (-want +got):\n%s", diff)
	}
	if d := a.Descendants("project-4"); d != nil {
		t.Errorf("project has descendants: %v", ids(d))
	}
	if d := a.Descendants("missing"); d != nil {
		t.Errorf("unknown id has descendants: %v", ids(d))
	}
}

func TestAncestors(t *testing.T) {
	a := New(sampleSnapshot()).Analyze()
	got := ids(a.Ancestors("project-3"))
	if diff := cmp.Diff([]string{"trust-1", "entity-2"}, got); diff != "" {
		t.Errorf("ancestors (-want +got):\n%s", diff)
	}
	if a.Ancestors("trust-2") != nil {
		t.Error("trust should have no ancestors")
	}
}

func TestOrphans(t *testing.T) {
	snap := sampleSnapshot()
	snap.Projects = append(snap.Projects, model.Node{ID: "project-5"})
	snap.Trusts[1].Members = nil

	got := ids(New(snap).Analyze().Orphans())
	if diff := cmp.Diff([]string{"entity-3", "project-5"}, got); diff != "" {
		t.Errorf("orphans (-want +got):\n%s", diff)
	}
}
