// Package testutil builds synthetic trust structures for tests and
// benchmarks. Every generator is deterministic for a given seed.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/trustmap/pkg/model"
)

// Column x-positions and row spacing, matching the demo layout.
const (
	TrustX   = 100
	EntityX  = 400
	ProjectX = 700
	RowGap   = 100
	TopY     = 50
)

// GeneratorConfig controls structure generation.
type GeneratorConfig struct {
	Seed      int64          // random seed (0 = 42)
	IDPrefix  string         // prefix for every id (default "")
	StatusMix []model.Status // statuses drawn for projects (nil = in-progress)
	// SharedRate is the chance that an entity is also held by the previous
	// trust, giving entities more than one parent.
	SharedRate float64
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:      42,
		StatusMix: []model.Status{model.StatusInProgress, model.StatusReview, model.StatusCompleted},
	}
}

// Generator creates snapshots with various shapes.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if len(cfg.StatusMix) == 0 {
		cfg.StatusMix = []model.Status{model.StatusInProgress}
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func (g *Generator) id(kind model.Kind, i int) string {
	return fmt.Sprintf("%s%s-%d", g.cfg.IDPrefix, kind, i+1)
}

// Structure creates trusts that each hold entitiesPer entities, which each
// run projectsPer projects. Nodes are stacked in three columns.
// Edge count: trusts*entitiesPer*(1+projectsPer), plus shared holdings.
func (g *Generator) Structure(trusts, entitiesPer, projectsPer int) model.Snapshot {
	var snap model.Snapshot
	entityRow, projectRow := 0, 0
	for t := 0; t < trusts; t++ {
		trust := model.Node{
			ID:       g.id(model.KindTrust, t),
			Kind:     model.KindTrust,
			Label:    fmt.Sprintf("Trust %d", t+1),
			Subtitle: "Revocable Living Trust",
			Status:   model.StatusActive,
		}
		firstEntityRow := entityRow
		for e := 0; e < entitiesPer; e++ {
			entity := model.Node{
				ID:       g.id(model.KindEntity, entityRow),
				Kind:     model.KindEntity,
				Label:    fmt.Sprintf("Holding %d LLC", entityRow+1),
				Subtitle: "LLC",
				Status:   model.StatusActive,
				Position: model.Point{X: EntityX, Y: float64(TopY + entityRow*RowGap)},
			}
			for p := 0; p < projectsPer; p++ {
				project := g.project(projectRow)
				entity.Members = append(entity.Members, project.ID)
				snap.Projects = append(snap.Projects, project)
				projectRow++
			}
			trust.Members = append(trust.Members, entity.ID)
			if t > 0 && g.rng.Float64() < g.cfg.SharedRate {
				prev := &snap.Trusts[t-1]
				prev.Members = append(prev.Members, entity.ID)
			}
			snap.Entities = append(snap.Entities, entity)
			entityRow++
		}
		// centre the trust on the entities it holds
		mid := float64(firstEntityRow+entityRow-1) / 2
		if entitiesPer == 0 {
			mid = float64(t)
		}
		trust.Position = model.Point{X: TrustX, Y: TopY + mid*RowGap}
		snap.Trusts = append(snap.Trusts, trust)
	}
	return snap
}

func (g *Generator) project(i int) model.Node {
	status := g.cfg.StatusMix[g.rng.Intn(len(g.cfg.StatusMix))]
	progress := g.rng.Intn(100)
	if status == model.StatusCompleted {
		progress = 100
	}
	return model.Node{
		ID:       g.id(model.KindProject, i),
		Kind:     model.KindProject,
		Label:    fmt.Sprintf("Project %d", i+1),
		Status:   status,
		Position: model.Point{X: ProjectX, Y: float64(TopY + i*RowGap)},
		Progress: progress,
	}
}

// Unlinked creates n entities that no trust holds and that run nothing.
func (g *Generator) Unlinked(n int) model.Snapshot {
	var snap model.Snapshot
	for i := 0; i < n; i++ {
		snap.Entities = append(snap.Entities, model.Node{
			ID:       g.id(model.KindEntity, i),
			Kind:     model.KindEntity,
			Label:    fmt.Sprintf("Dormant %d", i+1),
			Status:   model.StatusInactive,
			Position: model.Point{X: EntityX, Y: float64(TopY + i*RowGap)},
		})
	}
	return snap
}

// WithDangling returns a copy of snap where n randomly chosen owners list
// a member that does not exist. It returns snap unchanged when there are no
// owners.
func (g *Generator) WithDangling(snap model.Snapshot, n int) model.Snapshot {
	out := snap.Clone()
	owners := make([]*model.Node, 0, len(out.Trusts)+len(out.Entities))
	for i := range out.Trusts {
		owners = append(owners, &out.Trusts[i])
	}
	for i := range out.Entities {
		owners = append(owners, &out.Entities[i])
	}
	if len(owners) == 0 {
		return out
	}
	for i := 0; i < n; i++ {
		o := owners[g.rng.Intn(len(owners))]
		o.Members = append(o.Members, fmt.Sprintf("missing-%d", i+1))
	}
	return out
}

// QuickStructure is Structure with the default config.
func QuickStructure(trusts, entitiesPer, projectsPer int) model.Snapshot {
	return NewDefault().Structure(trusts, entitiesPer, projectsPer)
}

// Single returns one trust with nothing under it.
func Single() model.Snapshot {
	return QuickStructure(1, 0, 0)
}
