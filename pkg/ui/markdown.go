package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/trustmap/pkg/graph"
	"github.com/vanderheijden86/trustmap/pkg/model"
)

// MarkdownRenderer renders detail panels with glamour, rebuilding the
// underlying renderer when the width changes.
type MarkdownRenderer struct {
	style string
	width int
	tr    *glamour.TermRenderer
}

// NewMarkdownRenderer returns a renderer for the "dark" or "light" style.
func NewMarkdownRenderer(style string, width int) *MarkdownRenderer {
	if style != "light" {
		style = "dark"
	}
	r := &MarkdownRenderer{style: style}
	r.SetWidth(width)
	return r
}

// SetWidth rewraps output to width cells.
func (r *MarkdownRenderer) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if width == r.width && r.tr != nil {
		return
	}
	r.width = width
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r.tr = nil
		return
	}
	r.tr = tr
}

// Render renders md, falling back to the raw text if glamour fails.
func (r *MarkdownRenderer) Render(md string) string {
	if r == nil || r.tr == nil {
		return md
	}
	out, err := r.tr.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, " \n")
}

// NodeMarkdown describes n and its neighbours in g.
func NodeMarkdown(g *graph.Graph, n model.Node) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", n.Label)
	fmt.Fprintf(&sb, "| | |\n|---|---|\n")
	fmt.Fprintf(&sb, "| ID | `%s` |\n", n.ID)
	fmt.Fprintf(&sb, "| Kind | %s |\n", n.Kind)
	if n.Subtitle != "" {
		fmt.Fprintf(&sb, "| Type | %s |\n", n.Subtitle)
	}
	fmt.Fprintf(&sb, "| Status | %s |\n", n.Status)
	if n.Kind == model.KindProject {
		fmt.Fprintf(&sb, "| Progress | %s %d%% |\n", miniBar(n.Progress, 10), n.Progress)
	}
	fmt.Fprintf(&sb, "| Position | %s |\n\n", n.Position)

	a := g.Analyze()
	if up := a.Ancestors(n.ID); len(up) > 0 {
		sb.WriteString("## Held by\n\n")
		writeNodeList(&sb, up)
	}
	if down := a.Descendants(n.ID); len(down) > 0 {
		sb.WriteString("## Holds\n\n")
		writeNodeList(&sb, down)
	}

	var missing []string
	for _, id := range n.Members {
		if _, ok := g.NodeByID(id); !ok {
			missing = append(missing, "`"+id+"`")
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(&sb, "> Missing members: %s\n", strings.Join(missing, ", "))
	}
	return sb.String()
}

func writeNodeList(sb *strings.Builder, nodes []model.Node) {
	for _, m := range nodes {
		fmt.Fprintf(sb, "- **%s** `%s` %s\n", m.Label, m.ID, m.Detail())
	}
	sb.WriteString("\n")
}

// OverviewMarkdown summarizes the whole graph for the detail panel when
// nothing is selected.
func OverviewMarkdown(g *graph.Graph, source string) string {
	o := g.Overview()
	var sb strings.Builder
	sb.WriteString("# Financial Mind Map\n\n")
	if source != "" {
		fmt.Fprintf(&sb, "Source: `%s`\n\n", source)
	}
	fmt.Fprintf(&sb, "- **%d** trusts\n- **%d** entities\n- **%d** projects (%d completed, %.0f%% average)\n- **%d** links\n",
		o.Trusts, o.Entities, o.Projects, o.Completed, o.AvgProgress, o.Edges)
	if o.Dangling > 0 {
		fmt.Fprintf(&sb, "\n> %d membership reference(s) point at missing nodes.\n", o.Dangling)
	}
	if orphans := g.Analyze().Orphans(); len(orphans) > 0 {
		sb.WriteString("\n## Unlinked\n\n")
		writeNodeList(&sb, orphans)
	}
	return sb.String()
}
