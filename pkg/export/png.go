package export

import (
	"image/color"
	"io"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/trustmap/pkg/metrics"
)

// WritePNG renders f as a PNG image with the same geometry as WriteSVG.
// Text uses the fixed 7x13 bitmap face, so labels are positioned under the
// view transform but not scaled by it.
func WritePNG(w io.Writer, f Frame) error {
	defer metrics.Timer(metrics.PNGRender)()
	f = f.withDefaults()

	dc := gg.NewContext(f.Width, f.Height)
	grad := gg.NewLinearGradient(0, 0, float64(f.Width), float64(f.Height))
	grad.AddColorStop(0, bgFrom)
	grad.AddColorStop(1, bgTo)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(f.Width), float64(f.Height))
	dc.Fill()
	dc.SetFontFace(basicfont.Face7x13)

	if f.Graph != nil {
		dc.Push()
		dc.Translate(f.View.Pan.X, f.View.Pan.Y)
		dc.Scale(f.View.Zoom, f.View.Zoom)
		drawEdgesPNG(dc, f)
		drawNodesPNG(dc, f)
		dc.Pop()
	}

	drawTitlePNG(dc, f)
	if f.Legend {
		drawLegendPNG(dc, f)
	}
	if f.Overview && f.Graph != nil {
		drawOverviewPNG(dc, f)
	}

	return dc.EncodePNG(w)
}

func drawEdgesPNG(dc *gg.Context, f Frame) {
	dc.SetColor(colorEdge)
	dc.SetLineWidth(2)
	for _, e := range f.Graph.Edges() {
		dc.DrawLine(e.Start.X, e.Start.Y, e.End.X, e.End.Y)
		dc.Stroke()
	}
}

func drawNodesPNG(dc *gg.Context, f Frame) {
	size := f.Graph.Anchors().NodeSize
	w, h := size.W, size.H
	for _, n := range f.Graph.AllNodes() {
		st := StyleFor(n)
		x, y := n.Position.X, n.Position.Y

		if n.ID == f.Selected {
			dc.SetColor(colorSelected)
			dc.SetLineWidth(2)
			dc.SetDash(6, 3)
			dc.DrawRoundedRectangle(x-4, y-4, w+8, h+8, cornerR+2)
			dc.Stroke()
			dc.SetDash()
		}

		dc.SetColor(st.Fill)
		dc.DrawRoundedRectangle(x, y, w, h, cornerR)
		dc.Fill()
		dc.SetColor(st.Stroke)
		dc.SetLineWidth(2)
		dc.DrawRoundedRectangle(x, y, w, h, cornerR)
		dc.Stroke()

		dc.SetColor(st.Text)
		dc.DrawStringAnchored(Truncate(n.Label, labelMax), x+w/2, y+h*labelY, 0.5, 0.5)
		dc.DrawStringAnchored(Truncate(n.Detail(), labelMax), x+w/2, y+h*detailY, 0.5, 0.5)

		dc.SetColor(st.Dot)
		dc.DrawCircle(x+w*dotX, y+h*dotY, dotRadius)
		dc.Fill()
	}
}

func drawTitlePNG(dc *gg.Context, f Frame) {
	dc.SetColor(colorTitle)
	dc.DrawStringAnchored(f.Title, panelMargin, panelMargin+10, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(zoomLine(f), panelMargin, panelMargin+28, 0, 0.5)
}

func drawPanelPNG(dc *gg.Context, x, y float64, rows int, title string) {
	hgt := float64(36 + rows*panelRow)
	dc.SetColor(color.RGBA{colorPanel.R, colorPanel.G, colorPanel.B, 0xeb})
	dc.DrawRoundedRectangle(x, y, panelW, hgt, 10)
	dc.Fill()
	dc.SetColor(colorBorder)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x, y, panelW, hgt, 10)
	dc.Stroke()
	dc.SetColor(colorTitle)
	dc.DrawStringAnchored(title, x+12, y+18, 0, 0.5)
}

func drawLegendPNG(dc *gg.Context, f Frame) {
	entries := Legend()
	x := float64(f.Width - panelW - panelMargin)
	y := float64(panelMargin)
	drawPanelPNG(dc, x, y, len(entries), "Legend")
	for i, e := range entries {
		ry := y + 40 + float64(i*panelRow)
		if e.Dot {
			dc.SetColor(e.Fill)
			dc.DrawCircle(x+19, ry, 6)
			dc.Fill()
		} else {
			dc.SetColor(e.Fill)
			dc.DrawRoundedRectangle(x+12, ry-7, 14, 14, 3)
			dc.Fill()
			dc.SetColor(e.Stroke)
			dc.SetLineWidth(2)
			dc.DrawRoundedRectangle(x+12, ry-7, 14, 14, 3)
			dc.Stroke()
		}
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(e.Label, x+34, ry, 0, 0.5)
	}
}

func drawOverviewPNG(dc *gg.Context, f Frame) {
	rows := overviewRows(f)
	x := float64(f.Width - panelW - panelMargin)
	y := float64(f.Height-panelMargin) - float64(36+len(rows)*panelRow)
	drawPanelPNG(dc, x, y, len(rows), "Overview")
	for i, r := range rows {
		ry := y + 40 + float64(i*panelRow)
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(r.label, x+12, ry, 0, 0.5)
		dc.SetColor(colorTitle)
		dc.DrawStringAnchored(r.value, x+panelW-12, ry, 1, 0.5)
	}
}
