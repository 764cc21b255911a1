// Package viewport maps model coordinates to screen coordinates through a
// zoom factor and a pan offset.
//
// The transform scales about the origin first and pans second:
//
//	screen = model*zoom + pan
//
// Zoom is clamped to [MinZoom, MaxZoom] by every setter, so an out-of-range
// zoom is never observable. Pan is unconstrained.
package viewport

import (
	"math"

	"github.com/vanderheijden86/trustmap/pkg/model"
)

// Default zoom bounds and step.
const (
	DefaultMinZoom = 0.5
	DefaultMaxZoom = 3.0
	DefaultStep    = 0.2
)

// Config bounds a viewport.
type Config struct {
	MinZoom float64 `yaml:"min_zoom,omitempty" json:"min_zoom,omitempty"`
	MaxZoom float64 `yaml:"max_zoom,omitempty" json:"max_zoom,omitempty"`
	Step    float64 `yaml:"step,omitempty" json:"step,omitempty"`
}

// DefaultConfig returns the [0.5, 3.0] range with a 0.2 step.
func DefaultConfig() Config {
	return Config{MinZoom: DefaultMinZoom, MaxZoom: DefaultMaxZoom, Step: DefaultStep}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinZoom > 0 {
		d.MinZoom = c.MinZoom
	}
	if c.MaxZoom > 0 {
		d.MaxZoom = c.MaxZoom
	}
	if c.Step > 0 {
		d.Step = c.Step
	}
	if d.MinZoom > d.MaxZoom {
		d.MinZoom, d.MaxZoom = d.MaxZoom, d.MinZoom
	}
	return d
}

// State is a copyable view of the viewport.
type State struct {
	Zoom float64     `json:"zoom"`
	Pan  model.Point `json:"pan"`
}

// Viewport holds zoom and pan.
type Viewport struct {
	cfg  Config
	zoom float64
	pan  model.Point
}

// New returns a viewport at zoom 1 and no pan. Zero fields of cfg take their
// defaults; an inverted range is swapped.
func New(cfg Config) *Viewport {
	v := &Viewport{cfg: cfg.withDefaults()}
	v.Reset()
	return v
}

// Config returns the effective bounds.
func (v *Viewport) Config() Config { return v.cfg }

// Zoom returns the current zoom factor.
func (v *Viewport) Zoom() float64 { return v.zoom }

// Pan returns the current pan offset in screen units.
func (v *Viewport) Pan() model.Point { return v.pan }

// State returns zoom and pan together.
func (v *Viewport) State() State {
	return State{Zoom: v.zoom, Pan: v.pan}
}

// ZoomIn raises zoom by one step, stopping at MaxZoom.
func (v *Viewport) ZoomIn() {
	v.SetZoom(v.zoom + v.cfg.Step)
}

// ZoomOut lowers zoom by one step, stopping at MinZoom.
func (v *Viewport) ZoomOut() {
	v.SetZoom(v.zoom - v.cfg.Step)
}

// SetZoom sets zoom, clamped to the configured range. NaN is ignored.
func (v *Viewport) SetZoom(z float64) {
	if math.IsNaN(z) {
		return
	}
	v.zoom = v.clamp(round(z))
}

// Reset returns to zoom 1 and no pan. Node positions are untouched. When 1
// lies outside a custom range the zoom lands on the nearest bound.
func (v *Viewport) Reset() {
	v.zoom = v.clamp(1)
	v.pan = model.Point{}
}

// PanBy shifts the pan offset by (dx, dy) screen units.
func (v *Viewport) PanBy(dx, dy float64) {
	v.pan = v.pan.Add(model.Point{X: dx, Y: dy})
}

// SetPan replaces the pan offset.
func (v *Viewport) SetPan(p model.Point) {
	v.pan = p
}

// ScreenPoint maps a model coordinate to the screen.
func (v *Viewport) ScreenPoint(p model.Point) model.Point {
	return p.Scale(v.zoom).Add(v.pan)
}

// ModelPoint maps a screen coordinate back to model space.
func (v *Viewport) ModelPoint(p model.Point) model.Point {
	return model.Point{
		X: (p.X - v.pan.X) / v.zoom,
		Y: (p.Y - v.pan.Y) / v.zoom,
	}
}

// ScreenRect maps a model rectangle to the screen.
func (v *Viewport) ScreenRect(r model.Rect) model.Rect {
	return model.Rect{Min: v.ScreenPoint(r.Min), Max: v.ScreenPoint(r.Max)}
}

// Fit chooses the zoom and pan that show bounds inside a screen of the given
// size with padding on every side. The zoom is clamped, so very large or
// very small graphs may not fill the screen exactly.
func (v *Viewport) Fit(bounds model.Rect, screen model.Size, padding float64) {
	gw := bounds.Width()
	gh := bounds.Height()
	if gw <= 0 {
		gw = 1
	}
	if gh <= 0 {
		gh = 1
	}
	sx := (screen.W - 2*padding) / gw
	sy := (screen.H - 2*padding) / gh
	s := math.Min(sx, sy)
	if s <= 0 {
		s = 1
	}
	v.SetZoom(s)
	v.pan = model.Point{
		X: padding - bounds.Min.X*v.zoom,
		Y: padding - bounds.Min.Y*v.zoom,
	}
}

// Focus pans so that model point p sits at the centre of the screen,
// keeping the current zoom.
func (v *Viewport) Focus(p model.Point, screen model.Size) {
	v.pan = model.Point{
		X: screen.W/2 - p.X*v.zoom,
		Y: screen.H/2 - p.Y*v.zoom,
	}
}

func (v *Viewport) clamp(z float64) float64 {
	return math.Max(v.cfg.MinZoom, math.Min(v.cfg.MaxZoom, z))
}

// round trims float drift from repeated steps (1.2+0.2 = 1.4000000000000001).
func round(z float64) float64 {
	return math.Round(z*1e9) / 1e9
}
