package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/trustmap/pkg/graph"
	"github.com/vanderheijden86/trustmap/pkg/model"
	"github.com/vanderheijden86/trustmap/pkg/viewport"
)

// One terminal cell covers this many screen units. Cells are about twice as
// tall as they are wide.
const (
	CellWidth  = 8.0
	CellHeight = 16.0
)

const ownerEdge = "\x00edge"

// CanvasSize converts a cell grid to screen units, for Fit and Focus.
func CanvasSize(cols, rows int) model.Size {
	return model.Size{W: float64(cols) * CellWidth, H: float64(rows) * CellHeight}
}

// canvas is a character grid the map is drawn into. owner records which
// node (or edge) put each rune there so rows can be coloured in runs.
type canvas struct {
	cols, rows int
	cells      [][]rune
	owner      [][]string
}

func newCanvas(cols, rows int) *canvas {
	c := &canvas{cols: cols, rows: rows}
	c.cells = make([][]rune, rows)
	c.owner = make([][]string, rows)
	for y := range rows {
		c.cells[y] = []rune(strings.Repeat(" ", cols))
		c.owner[y] = make([]string, cols)
	}
	return c
}

func (c *canvas) set(x, y int, r rune, owner string) {
	if x < 0 || y < 0 || x >= c.cols || y >= c.rows {
		return
	}
	c.cells[y][x] = r
	c.owner[y][x] = owner
}

// text writes s starting at (x, y), at most width cells. Wide runes take
// two cells; the second holds a zero rune that rendering skips.
func (c *canvas) text(x, y, width int, s, owner string) {
	s = truncate(s, width)
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if w == 2 && x+1 >= c.cols {
			return
		}
		c.set(x, y, r, owner)
		if w == 2 {
			c.set(x+1, y, 0, owner)
		}
		x += w
	}
}

// line draws a Bresenham line of dots under any node boxes.
func (c *canvas) line(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for steps := 0; steps < 4096; steps++ {
		if x0 >= 0 && y0 >= 0 && x0 < c.cols && y0 < c.rows && c.owner[y0][x0] == "" {
			c.set(x0, y0, '·', ownerEdge)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

var (
	plainBox    = [6]rune{'┌', '┐', '└', '┘', '─', '│'}
	selectedBox = [6]rune{'╔', '╗', '╚', '╝', '═', '║'}
)

func (c *canvas) box(x0, y0, w, h int, n model.Node, selected bool) {
	b := plainBox
	if selected {
		b = selectedBox
	}
	x1, y1 := x0+w-1, y0+h-1
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			var r rune
			switch {
			case y == y0 && x == x0:
				r = b[0]
			case y == y0 && x == x1:
				r = b[1]
			case y == y1 && x == x0:
				r = b[2]
			case y == y1 && x == x1:
				r = b[3]
			case y == y0 || y == y1:
				r = b[4]
			case x == x0 || x == x1:
				r = b[5]
			default:
				r = ' '
			}
			c.set(x, y, r, n.ID)
		}
	}
	inner := w - 2
	if inner <= 0 {
		return
	}
	// status dot in the top-right interior corner, like the image renderers
	labelWidth := inner
	if inner >= 6 {
		c.set(x1-1, y0+1, '●', n.ID)
		labelWidth = inner - 2
	}
	c.text(x0+1, y0+1, labelWidth, n.Label, n.ID)
	if h >= 4 {
		c.text(x0+1, y0+2, inner, n.Detail(), n.ID)
	}
}

// RenderCanvas draws g as seen through view into a cols x rows grid: edges
// as dotted lines between anchor points, nodes as boxes, the selected node
// with a double border.
func RenderCanvas(t Theme, g *graph.Graph, view viewport.State, selected string, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}
	// pin the range to the frame's zoom so no clamping applies
	vp := viewport.New(viewport.Config{MinZoom: view.Zoom, MaxZoom: view.Zoom})
	vp.SetPan(view.Pan)
	toCell := func(p model.Point) (int, int) {
		s := vp.ScreenPoint(p)
		return int(math.Floor(s.X / CellWidth)), int(math.Floor(s.Y / CellHeight))
	}

	c := newCanvas(cols, rows)
	for _, e := range g.Edges() {
		x0, y0 := toCell(e.Start)
		x1, y1 := toCell(e.End)
		c.line(x0, y0, x1, y1)
	}

	size := g.Anchors().NodeSize
	w := max(6, int(math.Round(size.W*vp.Zoom()/CellWidth)))
	h := max(3, int(math.Round(size.H*vp.Zoom()/CellHeight)))
	nodes := g.AllNodes()
	var sel *model.Node
	for i := range nodes {
		if nodes[i].ID == selected {
			sel = &nodes[i]
			continue
		}
		x, y := toCell(nodes[i].Position)
		c.box(x, y, w, h, nodes[i], false)
	}
	if sel != nil {
		x, y := toCell(sel.Position)
		c.box(x, y, w, h, *sel, true)
	}
	return c.render(t, g, selected)
}

func (c *canvas) render(t Theme, g *graph.Graph, selected string) string {
	styles := map[string]lipgloss.Style{
		"":        t.Renderer.NewStyle(),
		ownerEdge: t.MutedText,
	}
	styleFor := func(owner string) lipgloss.Style {
		if st, ok := styles[owner]; ok {
			return st
		}
		st := t.Renderer.NewStyle()
		if n, ok := g.NodeByID(owner); ok {
			st = st.Foreground(t.NodeColor(n))
			if owner == selected {
				st = st.Bold(true)
			}
		}
		styles[owner] = st
		return st
	}

	lines := make([]string, c.rows)
	for y := range c.rows {
		var sb, run strings.Builder
		cur := c.owner[y][0]
		flush := func() {
			if run.Len() > 0 {
				sb.WriteString(styleFor(cur).Render(run.String()))
				run.Reset()
			}
		}
		for x := range c.cols {
			if c.owner[y][x] != cur {
				flush()
				cur = c.owner[y][x]
			}
			if r := c.cells[y][x]; r != 0 {
				run.WriteRune(r)
			}
		}
		flush()
		lines[y] = sb.String()
	}
	return strings.Join(lines, "\n")
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
