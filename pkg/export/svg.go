package export

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/vanderheijden86/trustmap/pkg/metrics"
)

// Node text offsets inside the box, as fractions of the node size.
const (
	labelY    = 25.0 / 80
	detailY   = 45.0 / 80
	dotX      = 140.0 / 160
	dotY      = 20.0 / 80
	dotRadius = 6
	cornerR   = 8
	labelMax  = 22 // cells; the default box fits about this many 14px glyphs
)

// panel geometry, in screen pixels
const (
	panelW      = 200
	panelMargin = 16
	panelRow    = 22
)

// WriteSVG renders f as a standalone SVG document. Node and edge geometry is
// written in model coordinates inside one transformed group, so the output
// matches ScreenPoint for every node.
func WriteSVG(w io.Writer, f Frame) error {
	defer metrics.Timer(metrics.SVGRender)()
	f = f.withDefaults()

	canvas := svg.New(w)
	canvas.Start(f.Width, f.Height)
	canvas.Title(f.Title)
	canvas.Def()
	canvas.LinearGradient("bg", 0, 0, 100, 100, []svg.Offcolor{
		{Offset: 0, Color: CSS(bgFrom), Opacity: 1},
		{Offset: 100, Color: CSS(bgTo), Opacity: 1},
	})
	canvas.DefEnd()
	canvas.Rect(0, 0, f.Width, f.Height, "fill:url(#bg)")

	if f.Graph != nil {
		canvas.Gtransform(fmt.Sprintf("translate(%g,%g) scale(%g)", f.View.Pan.X, f.View.Pan.Y, f.View.Zoom))
		drawEdgesSVG(canvas, f)
		drawNodesSVG(canvas, f)
		canvas.Gend()
	}

	drawTitleSVG(canvas, f)
	if f.Legend {
		drawLegendSVG(canvas, f)
	}
	if f.Overview && f.Graph != nil {
		drawOverviewSVG(canvas, f)
	}

	canvas.End()
	return nil
}

func px(v float64) int { return int(math.Round(v)) }

func drawEdgesSVG(canvas *svg.SVG, f Frame) {
	canvas.Gid("edges")
	for _, e := range f.Graph.Edges() {
		canvas.Line(px(e.Start.X), px(e.Start.Y), px(e.End.X), px(e.End.Y),
			fmt.Sprintf("stroke:%s;stroke-width:2", CSS(colorEdge)),
			fmt.Sprintf(`class="edge %s"`, e.Kind))
	}
	canvas.Gend()
}

func drawNodesSVG(canvas *svg.SVG, f Frame) {
	size := f.Graph.Anchors().NodeSize
	w, h := size.W, size.H
	for _, n := range f.Graph.AllNodes() {
		st := StyleFor(n)
		x, y := n.Position.X, n.Position.Y

		canvas.Gid(n.ID)
		if n.ID == f.Selected {
			canvas.Roundrect(px(x-4), px(y-4), px(w+8), px(h+8), cornerR+2, cornerR+2,
				fmt.Sprintf("fill:none;stroke:%s;stroke-width:2;stroke-dasharray:6,3", CSS(colorSelected)),
				`class="selection"`)
		}
		canvas.Roundrect(px(x), px(y), px(w), px(h), cornerR, cornerR,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:2", CSS(st.Fill), CSS(st.Stroke)),
			fmt.Sprintf(`class="node %s"`, n.Kind))
		canvas.Text(px(x+w/2), px(y+h*labelY), Truncate(n.Label, labelMax),
			fmt.Sprintf("fill:%s;font-size:14px;font-weight:600;font-family:sans-serif;text-anchor:middle", CSS(st.Text)))
		canvas.Text(px(x+w/2), px(y+h*detailY), Truncate(n.Detail(), labelMax+4),
			fmt.Sprintf("fill:%s;font-size:12px;font-family:sans-serif;text-anchor:middle", CSS(st.Text)))
		canvas.Circle(px(x+w*dotX), px(y+h*dotY), dotRadius, fmt.Sprintf("fill:%s", CSS(st.Dot)))
		canvas.Gend()
	}
}

func drawTitleSVG(canvas *svg.SVG, f Frame) {
	canvas.Text(panelMargin, panelMargin+14, f.Title,
		fmt.Sprintf("fill:%s;font-size:18px;font-weight:700;font-family:sans-serif", CSS(colorTitle)))
	canvas.Text(panelMargin, panelMargin+34, zoomLine(f),
		fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", CSS(colorSubtle)))
}

func zoomLine(f Frame) string {
	return fmt.Sprintf("zoom %.0f%%  pan %s", f.View.Zoom*100, f.View.Pan)
}

func drawPanelSVG(canvas *svg.SVG, x, y, rows int, title string) {
	canvas.Roundrect(x, y, panelW, 36+rows*panelRow, 10, 10,
		fmt.Sprintf("fill:%s;fill-opacity:0.92;stroke:%s;stroke-width:1", CSS(colorPanel), CSS(colorBorder)))
	canvas.Text(x+12, y+22, title,
		fmt.Sprintf("fill:%s;font-size:14px;font-weight:600;font-family:sans-serif", CSS(colorTitle)))
}

func drawLegendSVG(canvas *svg.SVG, f Frame) {
	entries := Legend()
	x := f.Width - panelW - panelMargin
	y := panelMargin
	canvas.Gid("legend")
	drawPanelSVG(canvas, x, y, len(entries), "Legend")
	for i, e := range entries {
		ry := y + 44 + i*panelRow
		if e.Dot {
			canvas.Circle(x+19, ry-4, 6, fmt.Sprintf("fill:%s", CSS(e.Fill)))
		} else {
			canvas.Roundrect(x+12, ry-12, 14, 14, 3, 3,
				fmt.Sprintf("fill:%s;stroke:%s;stroke-width:2", CSS(e.Fill), CSS(e.Stroke)))
		}
		canvas.Text(x+34, ry, e.Label, fmt.Sprintf("fill:%s;font-size:12px;font-family:sans-serif", CSS(colorSubtle)))
	}
	canvas.Gend()
}

func drawOverviewSVG(canvas *svg.SVG, f Frame) {
	rows := overviewRows(f)
	x := f.Width - panelW - panelMargin
	y := f.Height - panelMargin - (36 + len(rows)*panelRow)
	canvas.Gid("overview")
	drawPanelSVG(canvas, x, y, len(rows), "Overview")
	for i, r := range rows {
		ry := y + 44 + i*panelRow
		canvas.Text(x+12, ry, r.label, fmt.Sprintf("fill:%s;font-size:12px;font-family:sans-serif", CSS(colorSubtle)))
		canvas.Text(x+panelW-12, ry, r.value,
			fmt.Sprintf("fill:%s;font-size:12px;font-weight:600;font-family:monospace;text-anchor:end", CSS(colorTitle)))
	}
	canvas.Gend()
}

type overviewRow struct{ label, value string }

func overviewRows(f Frame) []overviewRow {
	o := f.Graph.Overview()
	rows := []overviewRow{
		{"Trusts", fmt.Sprint(o.Trusts)},
		{"Entities", fmt.Sprint(o.Entities)},
		{"Projects", fmt.Sprint(o.Projects)},
		{"Completed", fmt.Sprint(o.Completed)},
	}
	if o.Dangling > 0 {
		rows = append(rows, overviewRow{"Dangling refs", fmt.Sprint(o.Dangling)})
	}
	return rows
}
