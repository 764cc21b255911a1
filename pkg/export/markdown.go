package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vanderheijden86/trustmap/pkg/model"
)

// now is replaced in tests.
var now = time.Now

// GenerateMarkdown creates a report of the structure: overview counts, a
// Mermaid diagram, then one table per kind.
func GenerateMarkdown(f Frame) string {
	f = f.withDefaults()
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", f.Title))
	sb.WriteString(fmt.Sprintf("*Generated: %s*\n\n", now().Format(time.RFC1123)))

	if f.Graph == nil {
		sb.WriteString("_No nodes._\n")
		return sb.String()
	}

	o := f.Graph.Overview()
	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Trusts | Entities | Projects | Completed | Links | Avg progress |\n")
	sb.WriteString("|---:|---:|---:|---:|---:|---:|\n")
	sb.WriteString(fmt.Sprintf("| %d | %d | %d | %d | %d | %.0f%% |\n\n",
		o.Trusts, o.Entities, o.Projects, o.Completed, o.Edges, o.AvgProgress))
	if o.Dangling > 0 {
		sb.WriteString(fmt.Sprintf("> **Warning:** %d membership reference(s) point at missing nodes.\n\n", o.Dangling))
	}

	sb.WriteString("## Structure\n\n```mermaid\n")
	sb.WriteString(MermaidGraph(f))
	sb.WriteString("```\n\n")

	writeTable(&sb, model.KindTrust, f.Graph.Trusts(), f.Selected)
	writeTable(&sb, model.KindEntity, f.Graph.Entities(), f.Selected)
	writeTable(&sb, model.KindProject, f.Graph.Projects(), f.Selected)
	return sb.String()
}

func writeTable(sb *strings.Builder, kind model.Kind, nodes []model.Node, selected string) {
	if len(nodes) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("## %s\n\n", kind.Plural()))
	if kind == model.KindProject {
		sb.WriteString("| ID | Name | Status | Progress |\n|---|---|---|---:|\n")
	} else {
		sb.WriteString("| ID | Name | Type | Status | Members |\n|---|---|---|---|---|\n")
	}
	for _, n := range nodes {
		id := "`" + n.ID + "`"
		if n.ID == selected {
			id = "**" + id + "**"
		}
		status := fmt.Sprintf("%s %s", statusEmoji(n.Status), n.Status)
		if kind == model.KindProject {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", id, escapeCell(n.Label), status, progressBar(n.Progress)))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			id, escapeCell(n.Label), escapeCell(n.Subtitle), status, strings.Join(n.Members, ", ")))
	}
	sb.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", "\\|"), "\n", " ")
}

func statusEmoji(s model.Status) string {
	switch s {
	case model.StatusActive, model.StatusCompleted:
		return "🟢"
	case model.StatusInProgress:
		return "🟡"
	case model.StatusReview, model.StatusPending:
		return "🟠"
	case model.StatusInactive:
		return "⚪"
	default:
		return "🔴"
	}
}

// progressBar renders a 10-cell bar followed by the percentage.
func progressBar(pct int) string {
	pct = max(0, min(100, pct))
	filled := pct / 10
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled) + fmt.Sprintf(" %d%%", pct)
}

// WriteMarkdown writes GenerateMarkdown(f).
func WriteMarkdown(w io.Writer, f Frame) error {
	_, err := io.WriteString(w, GenerateMarkdown(f))
	return err
}
