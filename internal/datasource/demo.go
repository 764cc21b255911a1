package datasource

import (
	"context"

	"github.com/vanderheijden86/trustmap/pkg/model"
)

// DemoSource serves the built-in sample structure. It is used when no data
// path is configured.
type DemoSource struct{}

// Name returns "demo".
func (DemoSource) Name() string { return "demo" }

// Type returns SourceTypeDemo.
func (DemoSource) Type() SourceType { return SourceTypeDemo }

// Load returns a fresh copy of the demo snapshot.
func (DemoSource) Load(ctx context.Context) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}
	return Demo(), nil
}

// Demo returns two trusts, three entities and four projects laid out left to
// right. Every call returns a new copy.
func Demo() model.Snapshot {
	return model.Snapshot{
		Trusts: []model.Node{
			{
				ID: "trust-1", Kind: model.KindTrust, Label: "Chen Family Trust", Subtitle: "Revocable Living Trust",
				Status: model.StatusActive, Position: model.Point{X: 100, Y: 200},
				Members: []string{"entity-1", "entity-2"},
			},
			{
				ID: "trust-2", Kind: model.KindTrust, Label: "Investment Holdings Trust", Subtitle: "Irrevocable Trust",
				Status: model.StatusActive, Position: model.Point{X: 100, Y: 400},
				Members: []string{"entity-3"},
			},
		},
		Entities: []model.Node{
			{
				ID: "entity-1", Kind: model.KindEntity, Label: "TechVentures LLC", Subtitle: "LLC",
				Status: model.StatusActive, Position: model.Point{X: 400, Y: 150},
				Members: []string{"project-1", "project-2"},
			},
			{
				ID: "entity-2", Kind: model.KindEntity, Label: "Real Estate Holdings Inc", Subtitle: "Corporation",
				Status: model.StatusActive, Position: model.Point{X: 400, Y: 250},
				Members: []string{"project-3"},
			},
			{
				ID: "entity-3", Kind: model.KindEntity, Label: "Growth Capital Partners", Subtitle: "Partnership",
				Status: model.StatusActive, Position: model.Point{X: 400, Y: 400},
				Members: []string{"project-4"},
			},
		},
		Projects: []model.Node{
			{
				ID: "project-1", Kind: model.KindProject, Label: "Series A Fundraising",
				Status: model.StatusInProgress, Position: model.Point{X: 700, Y: 100}, Progress: 75,
			},
			{
				ID: "project-2", Kind: model.KindProject, Label: "QSBS Optimization",
				Status: model.StatusReview, Position: model.Point{X: 700, Y: 180}, Progress: 90,
			},
			{
				ID: "project-3", Kind: model.KindProject, Label: "Property Acquisition",
				Status: model.StatusPending, Position: model.Point{X: 700, Y: 250}, Progress: 30,
			},
			{
				ID: "project-4", Kind: model.KindProject, Label: "Portfolio Rebalancing",
				Status: model.StatusCompleted, Position: model.Point{X: 700, Y: 400}, Progress: 100,
			},
		},
	}
}
