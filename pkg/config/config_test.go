package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/trustmap/pkg/graph"
	"github.com/vanderheijden86/trustmap/pkg/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Anchors() != graph.DefaultAnchors() {
		t.Errorf("default anchors = %+v", cfg.Anchors())
	}
	vc := cfg.ViewportConfig()
	if vc.MinZoom != 0.5 || vc.MaxZoom != 3 || vc.Step != 0.2 {
		t.Errorf("viewport defaults = %+v", vc)
	}
	if !cfg.Data.Watch {
		t.Error("watch should default on")
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Server.Addr != DefaultConfig().Server.Addr {
		t.Errorf("expected default config, got addr %q", cfg.Server.Addr)
	}
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data:
  path: ~/maps/family.yaml
  watch: false
  debounce: 500ms
render:
  node_width: 200
  source_anchor: {x: 1, y: 0.5}
viewport:
  max_zoom: 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "maps/family.yaml"); cfg.Data.Path != want {
		t.Errorf("data.path = %q, want %q", cfg.Data.Path, want)
	}
	if cfg.Data.Watch {
		t.Error("data.watch should be false")
	}
	if cfg.Data.Debounce != 500*time.Millisecond {
		t.Errorf("debounce = %v", cfg.Data.Debounce)
	}

	a := cfg.Anchors()
	if a.NodeSize != (model.Size{W: 200, H: 80}) {
		t.Errorf("node size = %+v", a.NodeSize)
	}
	if a.Source != (model.Point{X: 1, Y: 0.5}) {
		t.Errorf("source anchor = %+v", a.Source)
	}
	if cfg.Viewport.MaxZoom != 4 || cfg.Viewport.MinZoom != 0.5 {
		t.Errorf("viewport = %+v", cfg.Viewport)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil || !strings.Contains(err.Error(), "parsing config") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadFrom_RejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
render:
  node_height: -1
viewport:
  min_zoom: 2
  max_zoom: 1
ui:
  theme: neon
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"node size", "max_zoom", "neon"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestSaveToThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Data.Path = "/srv/trustmap.db"
	cfg.UI.Theme = "light"

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got != cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")

	if got := ConfigPath(); got != "/tmp/xdg-config/trustmap/config.yaml" {
		t.Errorf("ConfigPath = %q", got)
	}
	if got := StateDir(); got != "/tmp/xdg-state/trustmap" {
		t.Errorf("StateDir = %q", got)
	}
}

func TestLoad_UsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := DefaultConfig()
	cfg.Server.Addr = ":9999"
	if err := Save(cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if got.Server.Addr != ":9999" {
		t.Errorf("addr = %q", got.Server.Addr)
	}
}
