package export

import (
	"fmt"
	"hash/fnv"
	"io"
	"strings"
	"unicode"

	"github.com/vanderheijden86/trustmap/pkg/model"
)

// sanitizeMermaidID keeps letters, digits, hyphens and underscores.
func sanitizeMermaidID(id string) string {
	var sb strings.Builder
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "node"
	}
	return sb.String()
}

var mermaidTextReplacer = strings.NewReplacer(
	"\"", "'",
	"[", "(",
	"]", ")",
	"{", "(",
	"}", ")",
	"<", "&lt;",
	">", "&gt;",
	"|", "/",
	"`", "'",
	"\n", " ",
	"\r", "",
)

func sanitizeMermaidText(text string) string {
	out := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, mermaidTextReplacer.Replace(text))
	return Truncate(strings.TrimSpace(out), 40)
}

// MermaidGraph renders the graph as a left-to-right Mermaid flowchart, one
// subgraph per kind. Node ids are sanitized; collisions get a stable hash
// suffix.
func MermaidGraph(f Frame) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	sb.WriteString(fmt.Sprintf("    classDef trust fill:%s,stroke:%s\n", CSS(trustFill), CSS(trustStroke)))
	sb.WriteString(fmt.Sprintf("    classDef entity fill:%s,stroke:%s\n", CSS(entityFill), CSS(entityStroke)))
	sb.WriteString(fmt.Sprintf("    classDef done fill:%s,stroke:%s\n", CSS(doneFill), CSS(doneStroke)))
	sb.WriteString(fmt.Sprintf("    classDef busy fill:%s,stroke:%s\n", CSS(busyFill), CSS(busyStroke)))
	sb.WriteString(fmt.Sprintf("    classDef other fill:%s,stroke:%s\n", CSS(otherFill), CSS(otherStroke)))
	sb.WriteString("    classDef selected stroke-width:4px,stroke-dasharray:6 3\n")

	if f.Graph == nil {
		return sb.String()
	}

	safe := make(map[string]string)
	used := make(map[string]bool)
	safeID := func(orig string) string {
		if s, ok := safe[orig]; ok {
			return s
		}
		s := sanitizeMermaidID(orig)
		if used[s] {
			h := fnv.New32a()
			_, _ = h.Write([]byte(orig))
			s = fmt.Sprintf("%s_%x", s, h.Sum32())
		}
		used[s] = true
		safe[orig] = s
		return s
	}

	groups := []struct {
		kind  model.Kind
		nodes []model.Node
	}{
		{model.KindTrust, f.Graph.Trusts()},
		{model.KindEntity, f.Graph.Entities()},
		{model.KindProject, f.Graph.Projects()},
	}
	for _, grp := range groups {
		if len(grp.nodes) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n    subgraph %s [%s]\n", grp.kind, grp.kind.Plural()))
		for _, n := range grp.nodes {
			id := safeID(n.ID)
			label := sanitizeMermaidText(n.Label)
			if d := sanitizeMermaidText(n.Detail()); d != "" {
				label += "<br/>" + d
			}
			sb.WriteString(fmt.Sprintf("        %s[\"%s\"]:::%s\n", id, label, mermaidClass(n)))
		}
		sb.WriteString("    end\n")
	}

	sb.WriteString("\n")
	for _, e := range f.Graph.Edges() {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", safeID(e.From), safeID(e.To)))
	}
	if f.Selected != "" {
		if _, ok := f.Graph.NodeByID(f.Selected); ok {
			sb.WriteString(fmt.Sprintf("    class %s selected\n", safeID(f.Selected)))
		}
	}
	return sb.String()
}

func mermaidClass(n model.Node) string {
	switch n.Kind {
	case model.KindTrust:
		return "trust"
	case model.KindEntity:
		return "entity"
	}
	switch n.Status {
	case model.StatusCompleted:
		return "done"
	case model.StatusInProgress:
		return "busy"
	}
	return "other"
}

// WriteMermaid writes MermaidGraph(f).
func WriteMermaid(w io.Writer, f Frame) error {
	_, err := io.WriteString(w, MermaidGraph(f))
	return err
}
