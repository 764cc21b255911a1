package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/trustmap/internal/datasource"
	"github.com/vanderheijden86/trustmap/pkg/controller"
	"github.com/vanderheijden86/trustmap/pkg/export"
	"github.com/vanderheijden86/trustmap/pkg/graph"
	"github.com/vanderheijden86/trustmap/pkg/loader"
	"github.com/vanderheijden86/trustmap/pkg/model"
	"github.com/vanderheijden86/trustmap/pkg/viewport"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	ctrl := controller.New(graph.New(datasource.Demo()), viewport.DefaultConfig())
	m := NewModel(ctrl, opts)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 60})
	return updated.(Model)
}

func press(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func TestZoomKeys(t *testing.T) {
	m := newTestModel(t, Options{})
	c := m.Controller()

	m = press(m, runes("+"))
	if z := c.State().Zoom; z != 1.2 {
		t.Fatalf("zoom after + = %v, want 1.2", z)
	}
	m = press(m, runes("-"), runes("-"))
	if z := c.State().Zoom; z != 0.8 {
		t.Fatalf("zoom after two - = %v, want 0.8", z)
	}
	for range 10 {
		m = press(m, runes("-"))
	}
	if z := c.State().Zoom; z != 0.5 {
		t.Fatalf("zoom not clamped at 0.5: %v", z)
	}
	m = press(m, runes("L"), runes("J"))
	if p := c.State().Pan; p.X == 0 || p.Y == 0 {
		t.Fatalf("pan keys did not move the view: %v", p)
	}
	press(m, runes("0"))
	if st := c.State(); st.Zoom != 1 || st.Pan != (model.Point{}) {
		t.Fatalf("reset left %+v", st)
	}
}

func TestCursorDrivesSelection(t *testing.T) {
	m := newTestModel(t, Options{})
	if _, ok := m.Controller().Selection(); ok {
		t.Fatal("nothing should be selected initially")
	}
	m = press(m, runes("j"))
	if id, _ := m.Controller().Selection(); id != "trust-2" {
		t.Fatalf("selection = %q, want trust-2", id)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	if id, _ := m.Controller().Selection(); id != "entity-1" {
		t.Fatalf("selection = %q, want entity-1", id)
	}
	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := m.Controller().Selection(); ok {
		t.Fatal("esc should clear the selection")
	}
}

func TestFilter(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, runes("/"))
	if m.focused != focusFilter {
		t.Fatalf("focus = %v, want filter", m.focused)
	}
	m = press(m, runes("q"), runes("s"), runes("b"), runes("s"))
	if n := len(m.list.Items()); n != 1 {
		t.Fatalf("filtered items = %d, want 1", n)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if id, _ := m.Controller().Selection(); id != "project-2" {
		t.Fatalf("selection = %q, want project-2", id)
	}
	if m.focused != focusList {
		t.Fatal("enter should leave the filter")
	}

	m = press(m, runes("/"), tea.KeyMsg{Type: tea.KeyEsc})
	if n := len(m.list.Items()); n != 9 {
		t.Fatalf("items after cancel = %d, want 9", n)
	}
	if id, _ := m.Controller().Selection(); id != "project-2" {
		t.Fatal("cancelling the filter should keep the selection")
	}
}

func TestCopyWithoutSelection(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, runes("y"))
	if m.Status() != "Nothing selected" {
		t.Fatalf("status = %q", m.Status())
	}
}

func TestGraphLoadedMsg(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, runes("j")) // trust-2

	snap := datasource.Demo()
	snap.Trusts = snap.Trusts[:1]
	l := &loader.Loaded{
		Graph:  graph.New(snap),
		Source: "test",
		Seq:    3,
		Diff:   datasource.Diff(datasource.Demo(), snap),
	}
	m = press(m, GraphLoadedMsg{Loaded: l})
	if m.Controller().Graph() != l.Graph {
		t.Fatal("graph not swapped")
	}
	if n := len(m.list.Items()); n != 8 {
		t.Fatalf("items = %d, want 8", n)
	}
	if _, ok := m.Controller().Selection(); ok {
		t.Fatal("selection of a removed node should be cleared")
	}

	stale := &loader.Loaded{Graph: graph.New(datasource.Demo()), Seq: 2}
	m = press(m, GraphLoadedMsg{Loaded: stale})
	if m.Controller().Graph() != l.Graph {
		t.Fatal("stale graph replaced a newer one")
	}
}

func TestExportKey(t *testing.T) {
	base := filepath.Join(t.TempDir(), "snap")
	m := newTestModel(t, Options{ExportBase: base, ExportFormats: []export.Format{export.FormatSVG, export.FormatMermaid}})
	updated, cmd := m.Update(runes("e"))
	if cmd == nil {
		t.Fatal("export key returned no command")
	}
	msg := cmd()
	done, ok := msg.(ExportDoneMsg)
	if !ok || done.Err != nil {
		t.Fatalf("export msg = %#v", msg)
	}
	for _, ext := range []string{".svg", ".mmd"} {
		if _, err := os.Stat(base + ext); err != nil {
			t.Errorf("missing %s: %v", ext, err)
		}
	}
	m = press(updated.(Model), done)
	if !strings.HasPrefix(m.Status(), "Exported snap.svg") {
		t.Fatalf("status = %q", m.Status())
	}
}

func TestReloadKey(t *testing.T) {
	store := loader.NewStore(datasource.DemoSource{})
	m := newTestModel(t, Options{Store: store})
	_, cmd := m.Update(runes("r"))
	msg := cmd()
	loaded, ok := msg.(GraphLoadedMsg)
	if !ok {
		t.Fatalf("reload msg = %#v", msg)
	}
	m = press(m, loaded)
	if m.Controller().Graph() != store.Current().Graph {
		t.Fatal("reloaded graph not shown")
	}

	noStore := newTestModel(t, Options{})
	_, cmd = noStore.Update(runes("r"))
	if _, ok := cmd().(ReloadErrorMsg); !ok {
		t.Fatal("reload without a store should report an error")
	}
}

func TestHelpAndQuit(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(m, runes("?"))
	if !m.showHelp {
		t.Fatal("help not shown")
	}
	if !strings.Contains(m.View(), "zoom in") {
		t.Error("full help missing bindings")
	}
	m = press(m, runes("x"))
	if m.showHelp {
		t.Fatal("any key should dismiss help")
	}
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should quit")
	}
}

func TestViewSplit(t *testing.T) {
	m := newTestModel(t, Options{ShowDetail: true})
	m = press(m, runes("j"))
	out := m.View()
	for _, want := range []string{"trustmap", "zoom 100%", "2T 3E 4P", "Investment Holdings", "╔"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewNarrowAndUnready(t *testing.T) {
	ctrl := controller.New(graph.New(datasource.Demo()), viewport.DefaultConfig())
	m := NewModel(ctrl, Options{})
	if m.View() != "Loading…" {
		t.Fatal("unsized model should show the loading line")
	}
	m = press(m, tea.WindowSizeMsg{Width: 60, Height: 20})
	if m.isSplitView {
		t.Fatal("60 columns should not split")
	}
	if strings.Contains(m.View(), "┌──") {
		t.Error("narrow view should not draw the map")
	}
}

func TestSwapFeedKeepsNewest(t *testing.T) {
	f := NewSwapFeed()
	f.Publish(&loader.Loaded{Seq: 1})
	f.Publish(&loader.Loaded{Seq: 2})

	done := make(chan tea.Msg, 1)
	go func() { done <- WaitForSwapCmd(f)() }()
	select {
	case msg := <-done:
		if got := msg.(GraphLoadedMsg).Loaded.Seq; got != 2 {
			t.Fatalf("seq = %d, want 2", got)
		}
	case <-time.After(time.Second):
		t.Fatal("feed did not deliver")
	}
	if WaitForSwapCmd(nil) != nil {
		t.Fatal("nil feed should give a nil command")
	}
}
