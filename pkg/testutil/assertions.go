package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/trustmap/internal/datasource"
	"github.com/vanderheijden86/trustmap/pkg/model"
)

// AssertNodeCounts verifies the number of nodes of each kind.
func AssertNodeCounts(t *testing.T, snap model.Snapshot, trusts, entities, projects int) {
	t.Helper()
	if len(snap.Trusts) != trusts || len(snap.Entities) != entities || len(snap.Projects) != projects {
		t.Errorf("counts = %d/%d/%d, want %d/%d/%d",
			len(snap.Trusts), len(snap.Entities), len(snap.Projects), trusts, entities, projects)
	}
}

// AssertValid verifies the snapshot passes datasource validation.
func AssertValid(t *testing.T, snap model.Snapshot) {
	t.Helper()
	if err := datasource.Validate(snap); err != nil {
		t.Errorf("snapshot invalid: %v", err)
	}
}

// AssertEdgesResolve verifies every edge joins two nodes of snap with the
// kinds its edge kind implies.
func AssertEdgesResolve(t *testing.T, snap model.Snapshot, edges []model.Edge) {
	t.Helper()
	byID := make(map[string]model.Kind, snap.Len())
	for _, n := range snap.All() {
		byID[n.ID] = n.Kind
	}
	for _, e := range edges {
		from, okFrom := byID[e.From]
		to, okTo := byID[e.To]
		if !okFrom || !okTo {
			t.Errorf("edge %s -> %s has a missing endpoint", e.From, e.To)
			continue
		}
		want := [2]model.Kind{model.KindTrust, model.KindEntity}
		if e.Kind == model.EdgeEntityProject {
			want = [2]model.Kind{model.KindEntity, model.KindProject}
		}
		if from != want[0] || to != want[1] {
			t.Errorf("edge %s -> %s (%s) joins %s to %s", e.From, e.To, e.Kind, from, to)
		}
	}
}

// WriteDataFile saves snap to dir/name in the format implied by the
// extension and returns the path.
func WriteDataFile(t *testing.T, dir, name string, snap model.Snapshot) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := datasource.Save(context.Background(), path, snap); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// IDs returns the ids of nodes in order.
func IDs(nodes []model.Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
