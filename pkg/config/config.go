// Package config handles loading and saving trustmap configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/trustmap/config.yaml
//   - State:   ~/.local/state/trustmap/ (last view state)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/trustmap/pkg/graph"
	"github.com/vanderheijden86/trustmap/pkg/model"
	"github.com/vanderheijden86/trustmap/pkg/viewport"
)

// DataConfig selects the data file and how it is watched.
type DataConfig struct {
	Path     string        `yaml:"path,omitempty"` // empty means auto-discover, then demo
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// RenderConfig controls node geometry and export decorations.
type RenderConfig struct {
	NodeWidth  float64     `yaml:"node_width,omitempty"`
	NodeHeight float64     `yaml:"node_height,omitempty"`
	Source     model.Point `yaml:"source_anchor,omitempty"` // fraction of the node box
	Target     model.Point `yaml:"target_anchor,omitempty"`
	Legend     bool        `yaml:"legend"`
	Overview   bool        `yaml:"overview"`
}

// ViewportConfig bounds the zoom factor.
type ViewportConfig struct {
	MinZoom float64 `yaml:"min_zoom,omitempty"`
	MaxZoom float64 `yaml:"max_zoom,omitempty"`
	Step    float64 `yaml:"step,omitempty"`
}

// ServerConfig configures `trustmap serve`.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// UIConfig holds TUI preferences.
type UIConfig struct {
	Theme      string `yaml:"theme,omitempty"` // dark, light
	ShowDetail bool   `yaml:"show_detail"`
}

// LogConfig sets the zap level used when TRUSTMAP_DEBUG is unset.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

// Config is the top-level configuration for trustmap.
type Config struct {
	Data     DataConfig     `yaml:"data"`
	Render   RenderConfig   `yaml:"render"`
	Viewport ViewportConfig `yaml:"viewport"`
	Server   ServerConfig   `yaml:"server"`
	UI       UIConfig       `yaml:"ui"`
	Log      LogConfig      `yaml:"log"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	a := graph.DefaultAnchors()
	v := viewport.DefaultConfig()
	return Config{
		Data: DataConfig{
			Watch:    true,
			Debounce: 200 * time.Millisecond,
		},
		Render: RenderConfig{
			NodeWidth:  a.NodeSize.W,
			NodeHeight: a.NodeSize.H,
			Source:     a.Source,
			Target:     a.Target,
			Legend:     true,
			Overview:   true,
		},
		Viewport: ViewportConfig{
			MinZoom: v.MinZoom,
			MaxZoom: v.MaxZoom,
			Step:    v.Step,
		},
		Server: ServerConfig{Addr: "127.0.0.1:7744"},
		UI:     UIConfig{Theme: "dark", ShowDetail: true},
		Log:    LogConfig{Level: "info"},
	}
}

// ConfigDir returns the XDG config directory for trustmap.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "trustmap")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "trustmap")
}

// StateDir returns the XDG state directory for trustmap.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "trustmap")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "trustmap")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path. Fields missing from the file
// keep their defaults. Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Data.Path = expandHome(cfg.Data.Path)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate reports every out-of-range setting.
func (c Config) Validate() error {
	var errs []error
	if c.Render.NodeWidth <= 0 || c.Render.NodeHeight <= 0 {
		errs = append(errs, fmt.Errorf("render: node size must be positive, got %gx%g", c.Render.NodeWidth, c.Render.NodeHeight))
	}
	for name, p := range map[string]model.Point{"source_anchor": c.Render.Source, "target_anchor": c.Render.Target} {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			errs = append(errs, fmt.Errorf("render: %s %v outside the node box", name, p))
		}
	}
	if c.Viewport.MinZoom <= 0 {
		errs = append(errs, fmt.Errorf("viewport: min_zoom must be positive, got %g", c.Viewport.MinZoom))
	}
	if c.Viewport.MaxZoom < c.Viewport.MinZoom {
		errs = append(errs, fmt.Errorf("viewport: max_zoom %g below min_zoom %g", c.Viewport.MaxZoom, c.Viewport.MinZoom))
	}
	if c.Viewport.Step <= 0 {
		errs = append(errs, fmt.Errorf("viewport: step must be positive, got %g", c.Viewport.Step))
	}
	if c.Data.Debounce < 0 {
		errs = append(errs, fmt.Errorf("data: negative debounce %s", c.Data.Debounce))
	}
	switch c.UI.Theme {
	case "", "dark", "light":
	default:
		errs = append(errs, fmt.Errorf("ui: unknown theme %q", c.UI.Theme))
	}
	return errors.Join(errs...)
}

// Anchors returns the edge anchors described by the render section.
func (c Config) Anchors() graph.Anchors {
	return graph.Anchors{
		NodeSize: model.Size{W: c.Render.NodeWidth, H: c.Render.NodeHeight},
		Source:   c.Render.Source,
		Target:   c.Render.Target,
	}
}

// ViewportConfig returns the zoom bounds for viewport.New.
func (c Config) ViewportConfig() viewport.Config {
	return viewport.Config{MinZoom: c.Viewport.MinZoom, MaxZoom: c.Viewport.MaxZoom, Step: c.Viewport.Step}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
