package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/trustmap/internal/datasource"
	"github.com/vanderheijden86/trustmap/pkg/graph"
	"github.com/vanderheijden86/trustmap/pkg/model"
)

// errDangling is returned by `check --strict` when members point at
// missing nodes.
var errDangling = errors.New("dangling membership references")

func newCheckCommand(flags *globalFlags) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the data file and report problems",
		Long: `Check loads the data file, reports duplicate or empty ids, unknown kinds
and out-of-range progress, then lists members that point at missing nodes
and statuses outside the known set. With --strict, dangling members fail
the check.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.setup("stderr")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			info, err := datasource.Stat(a.dataPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Source: %s\n", info)

			snap, err := a.src.Load(cmd.Context())
			if err != nil {
				return err
			}
			g := graph.New(snap, graph.WithAnchors(a.cfg.Anchors()))
			dangling := writeCheckReport(out, g)
			if strict && dangling > 0 {
				return fmt.Errorf("%w: %d", errDangling, dangling)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when members point at missing nodes")
	return cmd
}

// writeCheckReport prints counts and warnings and returns the dangling
// reference count.
func writeCheckReport(w io.Writer, g *graph.Graph) int {
	ov := g.Overview()
	fmt.Fprintf(w, "OK: %d trusts, %d entities, %d projects, %d edges\n",
		ov.Trusts, ov.Entities, ov.Projects, ov.Edges)

	for _, n := range g.AllNodes() {
		for _, m := range n.Members {
			if _, ok := g.NodeByID(m); !ok {
				fmt.Fprintf(w, "warning: %s %q lists missing member %q\n", n.Kind, n.ID, m)
			}
		}
		if !n.Status.IsValid() {
			fmt.Fprintf(w, "warning: %s %q has unknown status %q\n", n.Kind, n.ID, n.Status)
		}
	}
	return ov.Dangling
}

func newDiffCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Compare two data files node by node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := flags.setup("stderr"); err != nil {
				return err
			}
			var snaps [2]model.Snapshot
			for i, path := range args {
				src, err := datasource.Open(path)
				if err != nil {
					return err
				}
				if snaps[i], err = src.Load(cmd.Context()); err != nil {
					return err
				}
			}

			d := datasource.Diff(snaps[0], snaps[1])
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, d.Summary())
			for _, sec := range []struct {
				mark string
				ids  []string
			}{{"+", d.Added}, {"-", d.Removed}, {"~", d.Changed}} {
				if len(sec.ids) > 0 {
					fmt.Fprintf(out, "%s %s\n", sec.mark, strings.Join(sec.ids, " "))
				}
			}
			return nil
		},
	}
}
