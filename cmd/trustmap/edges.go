package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/trustmap/pkg/graph"
	"github.com/vanderheijden86/trustmap/pkg/model"
)

// edgesReport is the --json form of `trustmap edges`.
type edgesReport struct {
	Edges    []model.Edge `json:"edges"`
	Dangling int          `json:"dangling"`
}

func newEdgesCommand(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "edges",
		Short: "List the derived edges with their anchor points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.setup("stderr")
			if err != nil {
				return err
			}
			store, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			g := store.Graph()
			if asJSON {
				edges := g.Edges()
				if edges == nil {
					edges = []model.Edge{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(edgesReport{Edges: edges, Dangling: g.Dangling()})
			}
			return writeEdgesTable(cmd.OutOrStdout(), g)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func writeEdgesTable(w io.Writer, g *graph.Graph) error {
	edges := g.Edges()
	rows := make([][]string, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, []string{e.From, e.To, string(e.Kind), point(e.Start), point(e.End)})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("FROM", "TO", "KIND", "START", "END").
		Rows(rows...)
	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d edges, %d dangling membership reference(s)\n", len(edges), g.Dangling())
	return err
}

func point(p model.Point) string {
	return "(" + strconv.FormatFloat(p.X, 'f', -1, 64) + ", " + strconv.FormatFloat(p.Y, 'f', -1, 64) + ")"
}
