// Package export renders a graph as SVG, PNG, Markdown or Mermaid.
//
// Images are drawn the way the interactive view shows them: node boxes in
// model space under the current zoom and pan, with the legend and overview
// panels fixed on top.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/trustmap/pkg/controller"
	"github.com/vanderheijden86/trustmap/pkg/graph"
	"github.com/vanderheijden86/trustmap/pkg/viewport"
)

// Default canvas, matching the interactive view's viewBox.
const (
	DefaultWidth  = 1000
	DefaultHeight = 600
)

// Largest canvas any format will render.
const (
	MaxWidth  = 8192
	MaxHeight = 8192
)

// Format is an output format.
type Format string

const (
	FormatSVG      Format = "svg"
	FormatPNG      Format = "png"
	FormatMarkdown Format = "md"
	FormatMermaid  Format = "mmd"
)

var (
	ErrNoNodes           = errors.New("no nodes to export")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrFrameTooLarge     = errors.New("frame exceeds maximum size")
)

// ParseFormat accepts a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "mmd", "mermaid":
		return FormatMermaid, nil
	}
	return "", fmt.Errorf("%w %q (want svg, png, md or mmd)", ErrUnsupportedFormat, s)
}

// Frame is everything needed to draw one picture of a graph.
type Frame struct {
	Graph    *graph.Graph
	View     viewport.State
	Selected string
	Width    int
	Height   int
	Title    string
	Legend   bool
	Overview bool
}

// FrameFor captures the controller's current graph, view and selection.
func FrameFor(c *controller.Controller) Frame {
	st := c.State()
	return Frame{
		Graph:    c.Graph(),
		View:     viewport.State{Zoom: st.Zoom, Pan: st.Pan},
		Selected: st.Selection,
		Legend:   true,
		Overview: true,
	}
}

func (f Frame) withDefaults() Frame {
	if f.Width <= 0 {
		f.Width = DefaultWidth
	}
	if f.Height <= 0 {
		f.Height = DefaultHeight
	}
	if f.View.Zoom <= 0 {
		f.View.Zoom = 1
	}
	if strings.TrimSpace(f.Title) == "" {
		f.Title = "Financial Mind Map"
	}
	return f
}

func (f Frame) check() error {
	if f.Graph == nil || f.Graph.Len() == 0 {
		return ErrNoNodes
	}
	return f.checkSize()
}

func (f Frame) checkSize() error {
	if f.Width > MaxWidth || f.Height > MaxHeight {
		return fmt.Errorf("%w: %dx%d, limit %dx%d", ErrFrameTooLarge, f.Width, f.Height, MaxWidth, MaxHeight)
	}
	return nil
}

// Write renders f in the given format.
func Write(w io.Writer, format Format, f Frame) error {
	if err := f.checkSize(); err != nil {
		return err
	}
	switch format {
	case FormatSVG:
		return WriteSVG(w, f)
	case FormatPNG:
		return WritePNG(w, f)
	case FormatMarkdown:
		return WriteMarkdown(w, f)
	case FormatMermaid:
		return WriteMermaid(w, f)
	}
	return fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
}

// Save writes f to path. The format comes from the extension.
func Save(path string, f Frame) error {
	if path == "" {
		return fmt.Errorf("output path is required")
	}
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	if err := f.check(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(file, format, f); err != nil {
		file.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return file.Close()
}

// SaveAll writes base.<format> for each format concurrently and returns the
// paths written, in the order of formats.
func SaveAll(ctx context.Context, base string, formats []Format, f Frame) ([]string, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	paths := make([]string, len(formats))
	f.Graph.Warm()

	g, ctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		paths[i] = base + "." + string(format)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return Save(paths[i], f)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
