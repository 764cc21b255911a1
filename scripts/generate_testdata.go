//go:build ignore

// generate_testdata.go creates standard datasets for benchmarking.
// Usage: go run scripts/generate_testdata.go
//
// Creates, each as .yaml, .json and .db:
//
//	testdata/benchmark/small   (2 trusts, 30 nodes)
//	testdata/benchmark/medium  (10 trusts, 510 nodes)
//	testdata/benchmark/large   (40 trusts, 4840 nodes)
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/trustmap/internal/datasource"
	"github.com/vanderheijden86/trustmap/pkg/graph"
	"github.com/vanderheijden86/trustmap/pkg/model"
	"github.com/vanderheijden86/trustmap/pkg/testutil"
)

type datasetSpec struct {
	name        string
	trusts      int
	entitiesPer int
	projectsPer int
	dangling    int
}

var datasets = []datasetSpec{
	{"small", 2, 2, 6, 0},
	{"medium", 10, 5, 9, 3},
	{"large", 40, 10, 11, 20},
}

func main() {
	outputDir := filepath.Join("testdata", "benchmark")
	ctx := context.Background()

	for _, ds := range datasets {
		gen := testutil.New(testutil.GeneratorConfig{
			Seed:       int64(ds.trusts), // reproducible per size
			SharedRate: 0.1,
			StatusMix: []model.Status{
				model.StatusInProgress, model.StatusReview, model.StatusPending, model.StatusCompleted,
			},
		})
		snap := gen.WithDangling(gen.Structure(ds.trusts, ds.entitiesPer, ds.projectsPer), ds.dangling)
		g := graph.New(snap)

		fmt.Printf("Generating %s (%d nodes, %d edges, %d dangling)...\n",
			ds.name, snap.Len(), len(g.Edges()), g.Dangling())
		for _, ext := range []string{".yaml", ".json", ".db"} {
			path := filepath.Join(outputDir, ds.name+ext)
			_ = os.Remove(path)
			if err := datasource.Save(ctx, path, snap); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", path, err)
				os.Exit(1)
			}
			fmt.Printf("  Written %s\n", path)
		}
	}

	fmt.Println("\nDone! Datasets created in", outputDir)
}
