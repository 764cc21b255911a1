// Package controller ties a graph to a viewport and tracks the selected node.
//
// A Controller is what renderers talk to: they call Select on clicks, the
// zoom commands on button presses, and read State to draw. Selection is
// advisory and never changes the graph or the viewport.
package controller

import (
	"github.com/vanderheijden86/trustmap/pkg/graph"
	"github.com/vanderheijden86/trustmap/pkg/metrics"
	"github.com/vanderheijden86/trustmap/pkg/model"
	"github.com/vanderheijden86/trustmap/pkg/viewport"
)

// ViewState is everything a renderer needs for one frame besides the nodes.
type ViewState struct {
	Zoom      float64     `json:"zoom"`
	Pan       model.Point `json:"pan"`
	Selection string      `json:"selection,omitempty"`
}

// Controller owns the selection and viewport for one graph.
type Controller struct {
	g        *graph.Graph
	view     *viewport.Viewport
	selected string
}

// New returns a controller over g with a fresh viewport.
func New(g *graph.Graph, cfg viewport.Config) *Controller {
	if g == nil {
		g = graph.New(model.Snapshot{})
	}
	return &Controller{g: g, view: viewport.New(cfg)}
}

// Graph returns the current graph.
func (c *Controller) Graph() *graph.Graph { return c.g }

// Viewport returns the controller's viewport.
func (c *Controller) Viewport() *viewport.Viewport { return c.view }

// SetGraph swaps in a new graph, for example after a reload. The selection
// survives if the selected id still exists and is cleared otherwise. The
// viewport is left alone.
func (c *Controller) SetGraph(g *graph.Graph) {
	if g == nil {
		return
	}
	c.g = g
	if c.selected != "" {
		if _, ok := g.NodeByID(c.selected); !ok {
			c.selected = ""
		}
	}
}

// Select makes id the only selected node. Unknown ids are ignored and the
// previous selection stays; the result reports whether id was selected.
func (c *Controller) Select(id string) bool {
	if _, ok := c.g.NodeByID(id); !ok {
		return false
	}
	c.selected = id
	return true
}

// SelectAt selects the node under a screen point, if any.
func (c *Controller) SelectAt(screen model.Point) bool {
	n, ok := c.g.NodeAt(c.view.ModelPoint(screen))
	if !ok {
		return false
	}
	c.selected = n.ID
	return true
}

// Clear drops the selection.
func (c *Controller) Clear() {
	c.selected = ""
}

// Selection returns the selected id, or false when nothing is selected.
func (c *Controller) Selection() (string, bool) {
	return c.selected, c.selected != ""
}

// SelectedNode returns the selected node.
func (c *Controller) SelectedNode() (model.Node, bool) {
	if c.selected == "" {
		return model.Node{}, false
	}
	return c.g.NodeByID(c.selected)
}

// ZoomIn steps the viewport zoom up.
func (c *Controller) ZoomIn() {
	c.view.ZoomIn()
	metrics.RecordZoom(c.view.Zoom())
}

// ZoomOut steps the viewport zoom down.
func (c *Controller) ZoomOut() {
	c.view.ZoomOut()
	metrics.RecordZoom(c.view.Zoom())
}

// Reset restores zoom 1 and no pan. The selection is kept.
func (c *Controller) Reset() {
	c.view.Reset()
	metrics.RecordZoom(c.view.Zoom())
}

// PanBy moves the viewport by (dx, dy) screen units.
func (c *Controller) PanBy(dx, dy float64) {
	c.view.PanBy(dx, dy)
}

// Fit zooms and pans so the whole graph fits a screen of the given size.
func (c *Controller) Fit(screen model.Size, padding float64) {
	if b, ok := c.g.Bounds(); ok {
		c.view.Fit(b, screen, padding)
		metrics.RecordZoom(c.view.Zoom())
	}
}

// FocusSelection centres the selected node on a screen of the given size.
func (c *Controller) FocusSelection(screen model.Size) bool {
	n, ok := c.SelectedNode()
	if !ok {
		return false
	}
	a := c.g.Anchors()
	centre := n.Position.Add(model.Point{X: a.NodeSize.W / 2, Y: a.NodeSize.H / 2})
	c.view.Focus(centre, screen)
	return true
}

// State returns the current view state.
func (c *Controller) State() ViewState {
	vs := c.view.State()
	return ViewState{Zoom: vs.Zoom, Pan: vs.Pan, Selection: c.selected}
}
