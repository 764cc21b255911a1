package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/trustmap/pkg/model"
)

// NodeDelegate renders node items in the list, one row each.
type NodeDelegate struct {
	Theme Theme
	// Marked is the controller's selection; it gets a dot even when the
	// list cursor is elsewhere.
	Marked string
}

func (d NodeDelegate) Height() int {
	return 1
}

func (d NodeDelegate) Spacing() int {
	return 0
}

func (d NodeDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

func (d NodeDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(NodeItem)
	if !ok {
		return
	}
	t := d.Theme
	width := m.Width()
	if width <= 0 {
		width = 80
	}
	// Reduce width by 1 to prevent terminal wrapping on the exact edge
	width--

	isCursor := index == m.Index()
	n := i.Node

	sel := "  "
	switch {
	case isCursor:
		sel = t.PrimaryBold.Render("▸ ")
	case n.ID == d.Marked:
		sel = t.PrimaryBold.Render("• ")
	}

	icon := t.Renderer.NewStyle().Foreground(t.NodeColor(n)).Bold(true).Render(t.KindIcon(n.Kind))
	dot := t.Renderer.NewStyle().Foreground(t.DotColor(n)).Render("●")

	var right string
	if n.Kind == model.KindProject {
		right = fmt.Sprintf("%s %3d%%", miniBar(n.Progress, 8), n.Progress)
	} else {
		right = string(n.Status)
	}
	if i.Changed {
		right = "~ " + right
	}
	rightWidth := lipgloss.Width(right) + 1

	idWidth := 12
	if width < 50 {
		idWidth = 0
	}
	// sel(2) icon(1) space dot(1) space
	fixed := 2 + 1 + 1 + 1 + 1 + rightWidth
	if idWidth > 0 {
		fixed += idWidth + 1
	}
	labelWidth := width - fixed
	if labelWidth < 4 {
		labelWidth = 4
	}

	var sb strings.Builder
	sb.WriteString(sel)
	sb.WriteString(icon)
	sb.WriteString(" ")
	sb.WriteString(dot)
	sb.WriteString(" ")
	if idWidth > 0 {
		sb.WriteString(t.SecondaryText.Render(padRight(truncate(n.ID, idWidth), idWidth)))
		sb.WriteString(" ")
	}
	label := padRight(truncate(n.Label, labelWidth), labelWidth)
	if isCursor {
		label = t.Base.Bold(true).Render(label)
	} else {
		label = t.Base.Render(label)
	}
	sb.WriteString(label)
	sb.WriteString(" ")
	sb.WriteString(t.MutedText.Render(right))

	fmt.Fprint(w, sb.String())
}
