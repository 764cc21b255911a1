package datasource

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vanderheijden86/trustmap/pkg/model"
)

// SnapshotDiff lists how two snapshots differ, keyed by node id.
type SnapshotDiff struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	// Changed holds ids present in both whose label, status, position,
	// progress or members differ.
	Changed []string `json:"changed,omitempty"`
	CountA  int      `json:"count_a"`
	CountB  int      `json:"count_b"`
}

// Diff compares a to b. Ids are reported in b's order for Added and Changed
// and in a's order for Removed.
func Diff(a, b model.Snapshot) SnapshotDiff {
	d := SnapshotDiff{CountA: a.Len(), CountB: b.Len()}

	before := make(map[string]model.Node, a.Len())
	for _, n := range a.All() {
		before[n.ID] = n
	}
	after := make(map[string]struct{}, b.Len())

	for _, n := range b.All() {
		after[n.ID] = struct{}{}
		old, ok := before[n.ID]
		switch {
		case !ok:
			d.Added = append(d.Added, n.ID)
		case !nodesEqual(old, n):
			d.Changed = append(d.Changed, n.ID)
		}
	}
	for _, n := range a.All() {
		if _, ok := after[n.ID]; !ok {
			d.Removed = append(d.Removed, n.ID)
		}
	}
	return d
}

func nodesEqual(a, b model.Node) bool {
	return a.Kind == b.Kind &&
		a.Label == b.Label &&
		a.Subtitle == b.Subtitle &&
		a.Status == b.Status &&
		a.Position == b.Position &&
		a.Progress == b.Progress &&
		slices.Equal(a.Members, b.Members)
}

// Empty reports whether the snapshots had the same nodes.
func (d SnapshotDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Summary returns a one-line description suitable for logs and status bars.
func (d SnapshotDiff) Summary() string {
	if d.Empty() {
		return fmt.Sprintf("no changes (%d nodes)", d.CountB)
	}
	var parts []string
	if n := len(d.Added); n > 0 {
		parts = append(parts, fmt.Sprintf("+%d added", n))
	}
	if n := len(d.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("-%d removed", n))
	}
	if n := len(d.Changed); n > 0 {
		parts = append(parts, fmt.Sprintf("~%d changed", n))
	}
	return fmt.Sprintf("%s (%d -> %d nodes)", strings.Join(parts, ", "), d.CountA, d.CountB)
}
