package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/trustmap/internal/datasource"
	"github.com/vanderheijden86/trustmap/pkg/config"
	"github.com/vanderheijden86/trustmap/pkg/export"
)

// isolate runs the test in an empty directory with its own XDG dirs, so
// neither a real config nor a trustmap.yaml in the tree leaks in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("TRUSTMAP_DATA", "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	if args == nil {
		// nil makes cobra fall back to os.Args
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const danglingYAML = `trusts:
  - id: t1
    kind: trust
    label: Family Trust
    status: active
    position: {x: 0, y: 0}
    members: [e1, ghost]
entities:
  - id: e1
    kind: entity
    label: Holdco
    status: dormant
    position: {x: 300, y: 0}
projects: []
`

const duplicateYAML = `trusts:
  - id: same
    kind: trust
    label: A
    status: active
    position: {x: 0, y: 0}
entities:
  - id: same
    kind: entity
    label: B
    status: active
    position: {x: 300, y: 0}
projects: []
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "trustmap v") {
		t.Errorf("version output = %q", out)
	}
}

func TestRootPipedPrintsOverview(t *testing.T) {
	isolate(t)
	out, err := run(t)
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	for _, want := range []string{"# Financial Mind Map", "Source: `demo`", "**2** trusts", "**4** projects", "**7** links"} {
		if !strings.Contains(out, want) {
			t.Errorf("overview missing %q:\n%s", want, out)
		}
	}
}

func TestDataDiscoveredInWorkingDirectory(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, "trustmap.yaml", danglingYAML)

	out, err := run(t)
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	if !strings.Contains(out, "**1** trusts") || !strings.Contains(out, "1 membership reference(s)") {
		t.Errorf("discovered file not used:\n%s", out)
	}
}

func TestEdgesTable(t *testing.T) {
	isolate(t)
	out, err := run(t, "edges")
	if err != nil {
		t.Fatalf("edges: %v", err)
	}
	for _, want := range []string{"FROM", "trust-1", "entity-1", "trust-entity", "entity-project", "(180, 240)", "(400, 190)", "7 edges, 0 dangling"} {
		if !strings.Contains(out, want) {
			t.Errorf("edges output missing %q:\n%s", want, out)
		}
	}
}

func TestEdgesJSON(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "dangling.yaml", danglingYAML)

	out, err := run(t, "--data", path, "edges", "--json")
	if err != nil {
		t.Fatalf("edges --json: %v", err)
	}
	var rep edgesReport
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(rep.Edges) != 1 || rep.Dangling != 1 {
		t.Errorf("edges = %d, dangling = %d; want 1, 1", len(rep.Edges), rep.Dangling)
	}
	if rep.Edges[0].From != "t1" || rep.Edges[0].To != "e1" {
		t.Errorf("edge = %+v", rep.Edges[0])
	}
}

func TestExportWritesEachFormat(t *testing.T) {
	dir := isolate(t)
	base := filepath.Join(dir, "out", "map")

	out, err := run(t, "export", "-o", base, "-f", "svg,mmd", "--zoom", "1.4", "--x", "10", "--select", "entity-1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Fields(out)
	if len(lines) != 2 || lines[0] != base+".svg" || lines[1] != base+".mmd" {
		t.Fatalf("printed paths = %q", lines)
	}

	svg, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	if !strings.Contains(string(svg), "translate(10,0) scale(1.4)") {
		t.Error("svg does not carry the requested view")
	}
	if !strings.Contains(string(svg), `class="selection"`) {
		t.Error("svg does not mark the selection")
	}
	mmd, err := os.ReadFile(base + ".mmd")
	if err != nil {
		t.Fatalf("read mmd: %v", err)
	}
	if !strings.HasPrefix(string(mmd), "graph LR") {
		t.Errorf("mermaid = %q", mmd)
	}
}

func TestExportErrors(t *testing.T) {
	dir := isolate(t)
	base := filepath.Join(dir, "map")

	if _, err := run(t, "export", "-o", base, "-f", "gif"); !errors.Is(err, export.ErrUnsupportedFormat) {
		t.Errorf("gif export error = %v, want ErrUnsupportedFormat", err)
	}
	_, err := run(t, "export", "-o", base, "-f", "svg", "--select", "ghost")
	if err == nil || !strings.Contains(err.Error(), `"ghost"`) {
		t.Errorf("unknown selection error = %v", err)
	}
	if _, err := os.Stat(base + ".svg"); !os.IsNotExist(err) {
		t.Error("export with an unknown selection still wrote a file")
	}
}

func TestInitDefaults(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "trustmap.config.yaml")

	out, err := run(t, "--config", cfgPath, "--data", "structure.yaml", "init", "--defaults")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Wrote "+cfgPath) {
		t.Errorf("init output = %q", out)
	}
	cfg, err := config.LoadFrom(cfgPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Data.Path != "structure.yaml" || cfg.UI.Theme != "dark" {
		t.Errorf("config = %+v", cfg)
	}

	if _, err := run(t, "--config", cfgPath, "init", "--defaults"); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("second init error = %v", err)
	}
	if _, err := run(t, "--config", cfgPath, "init", "--defaults", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestConfigDataPathUsed(t *testing.T) {
	dir := isolate(t)
	data := writeFile(t, dir, "elsewhere.yaml", danglingYAML)
	cfg := config.DefaultConfig()
	cfg.Data.Path = data
	cfgPath := filepath.Join(dir, "cfg.yaml")
	if err := config.SaveTo(cfg, cfgPath); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	out, err := run(t, "--config", cfgPath, "edges")
	if err != nil {
		t.Fatalf("edges: %v", err)
	}
	if !strings.Contains(out, "1 edges, 1 dangling") {
		t.Errorf("config data path ignored:\n%s", out)
	}
}

func TestBadLogLevel(t *testing.T) {
	isolate(t)
	if _, err := run(t, "--log-level", "loud", "edges"); err == nil {
		t.Error("expected an error for an unknown log level")
	}
}

func TestCheck(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "dangling.yaml", danglingYAML)

	out, err := run(t, "--data", path, "check")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	for _, want := range []string{"Source: " + path, "OK: 1 trusts, 1 entities, 0 projects, 1 edges",
		`lists missing member "ghost"`, `unknown status "dormant"`} {
		if !strings.Contains(out, want) {
			t.Errorf("check output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "--data", path, "check", "--strict"); !errors.Is(err, errDangling) {
		t.Errorf("check --strict error = %v, want errDangling", err)
	}

	dup := writeFile(t, dir, "dup.yaml", duplicateYAML)
	if _, err := run(t, "--data", dup, "check"); !errors.Is(err, datasource.ErrDuplicateID) {
		t.Errorf("duplicate id error = %v, want ErrDuplicateID", err)
	}
}

func TestDiff(t *testing.T) {
	dir := isolate(t)
	ctx := context.Background()

	before := datasource.Demo()
	after := datasource.Demo()
	after.Projects[0].Progress = 90
	after.Projects = after.Projects[:3]
	a, b := filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.json")
	if err := datasource.Save(ctx, a, before); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := datasource.Save(ctx, b, after); err != nil {
		t.Fatalf("save b: %v", err)
	}

	out, err := run(t, "diff", a, b)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	for _, want := range []string{"-1 removed", "~1 changed", "- project-4", "~ project-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("diff output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "diff", a); err == nil {
		t.Error("diff with one file should fail")
	}
}

func TestValidators(t *testing.T) {
	if err := validateDataPath(""); err != nil {
		t.Errorf("empty data path: %v", err)
	}
	if err := validateDataPath("map.db"); err != nil {
		t.Errorf("sqlite path: %v", err)
	}
	if err := validateDataPath("map.txt"); !errors.Is(err, datasource.ErrUnsupportedFormat) {
		t.Errorf("txt path error = %v", err)
	}
	if err := validateAddr("127.0.0.1:7744"); err != nil {
		t.Errorf("addr: %v", err)
	}
	if err := validateAddr("7744"); err == nil {
		t.Error("port without colon accepted")
	}
}
