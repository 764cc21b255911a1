package export

import (
	"fmt"
	"image/color"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/trustmap/pkg/model"
)

// NodeStyle is the colour set for one node box.
type NodeStyle struct {
	Fill   color.RGBA
	Stroke color.RGBA
	Text   color.RGBA
	Dot    color.RGBA
}

var (
	trustFill    = rgb(0xdb, 0xea, 0xfe)
	trustStroke  = rgb(0x3b, 0x82, 0xf6)
	trustText    = rgb(0x1e, 0x3a, 0x8a)
	entityFill   = rgb(0xf3, 0xe8, 0xff)
	entityStroke = rgb(0x8b, 0x5c, 0xf6)
	entityText   = rgb(0x58, 0x1c, 0x87)

	doneFill    = rgb(0xd1, 0xfa, 0xe5)
	doneStroke  = rgb(0x10, 0xb9, 0x81)
	doneText    = rgb(0x06, 0x5f, 0x46)
	busyFill    = rgb(0xfe, 0xf3, 0xc7)
	busyStroke  = rgb(0xf5, 0x9e, 0x0b)
	busyText    = rgb(0x92, 0x40, 0x0e)
	otherFill   = rgb(0xfe, 0xe2, 0xe2)
	otherStroke = rgb(0xef, 0x44, 0x44)
	otherText   = rgb(0x99, 0x1b, 0x1b)

	colorHealthy  = doneStroke
	colorIdle     = rgb(0x9c, 0xa3, 0xaf)
	colorEdge     = rgb(0xcc, 0xcc, 0xcc)
	colorSelected = rgb(0x11, 0x18, 0x27)
	colorPanel    = rgb(0xff, 0xff, 0xff)
	colorBorder   = rgb(0xe5, 0xe7, 0xeb)
	colorTitle    = rgb(0x11, 0x18, 0x27)
	colorSubtle   = rgb(0x4b, 0x55, 0x63)
	bgFrom        = rgb(0xef, 0xf6, 0xff)
	bgTo          = rgb(0xee, 0xf2, 0xff)
)

func rgb(r, g, b uint8) color.RGBA { return color.RGBA{r, g, b, 0xff} }

// StyleFor returns the colours of n. Trusts are blue and entities purple.
// Projects are green when completed, amber in progress and red otherwise.
func StyleFor(n model.Node) NodeStyle {
	dot := colorIdle
	if n.Status.IsHealthy() {
		dot = colorHealthy
	}
	switch n.Kind {
	case model.KindTrust:
		return NodeStyle{Fill: trustFill, Stroke: trustStroke, Text: trustText, Dot: dot}
	case model.KindEntity:
		return NodeStyle{Fill: entityFill, Stroke: entityStroke, Text: entityText, Dot: dot}
	}
	switch n.Status {
	case model.StatusCompleted:
		return NodeStyle{Fill: doneFill, Stroke: doneStroke, Text: doneText, Dot: doneStroke}
	case model.StatusInProgress:
		return NodeStyle{Fill: busyFill, Stroke: busyStroke, Text: busyText, Dot: busyStroke}
	default:
		return NodeStyle{Fill: otherFill, Stroke: otherStroke, Text: otherText, Dot: otherStroke}
	}
}

// LegendEntry is one row of the legend panel.
type LegendEntry struct {
	Label  string
	Fill   color.RGBA
	Stroke color.RGBA
	Dot    bool
}

// Legend lists the kind swatches and the status dot meaning.
func Legend() []LegendEntry {
	return []LegendEntry{
		{Label: "Trusts", Fill: trustFill, Stroke: trustStroke},
		{Label: "Entities", Fill: entityFill, Stroke: entityStroke},
		{Label: "Projects", Fill: busyFill, Stroke: busyStroke},
		{Label: "Active/Completed", Fill: colorHealthy, Stroke: colorHealthy, Dot: true},
	}
}

// CSS renders c as a #rrggbb string.
func CSS(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Truncate shortens s to at most width terminal cells, ending in "...".
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
