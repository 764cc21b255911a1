// Package ui is the terminal front end: a node list, a character-cell map
// of the graph under the current zoom and pan, and a markdown detail panel.
package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/vanderheijden86/trustmap/pkg/controller"
	"github.com/vanderheijden86/trustmap/pkg/debug"
	"github.com/vanderheijden86/trustmap/pkg/export"
	"github.com/vanderheijden86/trustmap/pkg/loader"
	"github.com/vanderheijden86/trustmap/pkg/metrics"
	"github.com/vanderheijden86/trustmap/pkg/model"
)

// SplitViewThreshold is the terminal width at which the map is shown next
// to the list.
const SplitViewThreshold = 100

// panCells is how far one pan key moves the map, in cells.
const panCells = 6

type focus int

const (
	focusList focus = iota
	focusDetail
	focusFilter
)

// GraphLoadedMsg carries a newly published graph.
type GraphLoadedMsg struct {
	Loaded *loader.Loaded
}

// ReloadErrorMsg reports a failed manual reload.
type ReloadErrorMsg struct {
	Err error
}

// ExportDoneMsg reports the files written by an export.
type ExportDoneMsg struct {
	Paths []string
	Err   error
}

// SwapFeed hands published graphs from the store to the program. It holds
// at most one graph; a newer swap replaces one not yet consumed.
type SwapFeed chan *loader.Loaded

// NewSwapFeed returns an empty feed.
func NewSwapFeed() SwapFeed {
	return make(SwapFeed, 1)
}

// Publish is meant for loader.WithOnSwap. It never blocks.
func (f SwapFeed) Publish(l *loader.Loaded) {
	for {
		select {
		case f <- l:
			return
		default:
		}
		select {
		case <-f:
		default:
		}
	}
}

// WaitForSwapCmd returns a command that waits for the next published graph.
func WaitForSwapCmd(f SwapFeed) tea.Cmd {
	if f == nil {
		return nil
	}
	return func() tea.Msg {
		l, ok := <-f
		if !ok {
			return nil
		}
		return GraphLoadedMsg{Loaded: l}
	}
}

// Options configures NewModel.
type Options struct {
	Store *loader.Store
	Feed  SwapFeed
	// Theme is "dark" or "light".
	Theme      string
	ShowDetail bool
	// ExportBase is the path prefix exports are written to; each format
	// adds its extension.
	ExportBase    string
	ExportFormats []export.Format
	Legend        bool
	Overview      bool
}

// Model is the bubbletea model of the map view.
type Model struct {
	ctrl  *controller.Controller
	store *loader.Store
	feed  SwapFeed
	opts  Options

	theme  Theme
	keys   KeyMap
	help   help.Model
	list   list.Model
	detail viewport.Model
	filter textinput.Model
	md     *MarkdownRenderer

	width, height int
	ready         bool
	focused       focus
	showHelp      bool
	showDetail    bool
	isSplitView   bool

	seq        uint64
	source     string
	loadedAt   time.Time
	changed    map[string]bool
	statusMsg  string
	statusErr  bool
	detailFor  string
	detailHash uint64
}

// NewModel returns a model over ctrl. The controller's graph is shown until
// the store publishes a newer one.
func NewModel(ctrl *controller.Controller, opts Options) Model {
	r := lipgloss.DefaultRenderer()
	theme := DefaultTheme(r)
	if opts.Theme == "light" {
		theme = LightTheme(r)
	}
	if opts.ExportBase == "" {
		opts.ExportBase = "trustmap"
	}
	if len(opts.ExportFormats) == 0 {
		opts.ExportFormats = []export.Format{export.FormatSVG, export.FormatPNG}
	}

	l := list.New(nil, NodeDelegate{Theme: theme}, 40, 10)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "id, name, type or status"
	ti.CharLimit = 80

	m := Model{
		ctrl:       ctrl,
		store:      opts.Store,
		feed:       opts.Feed,
		opts:       opts,
		theme:      theme,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		list:       l,
		detail:     viewport.New(40, 10),
		filter:     ti,
		md:         NewMarkdownRenderer(opts.Theme, 40),
		showDetail: opts.ShowDetail,
		changed:    map[string]bool{},
	}
	if opts.Store != nil {
		if cur := opts.Store.Current(); cur != nil {
			m.applyLoaded(cur, false)
		}
	}
	m.refreshItems()
	return m
}

func (m Model) Init() tea.Cmd {
	return WaitForSwapCmd(m.feed)
}

// Controller returns the model's controller.
func (m Model) Controller() *controller.Controller { return m.ctrl }

// Status returns the current status-bar message.
func (m Model) Status() string { return m.statusMsg }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case GraphLoadedMsg:
		if msg.Loaded != nil && msg.Loaded.Seq > m.seq {
			m.applyLoaded(msg.Loaded, true)
			m.refreshItems()
		}
		if m.feed != nil {
			cmds = append(cmds, WaitForSwapCmd(m.feed))
		}
		return m, tea.Batch(cmds...)

	case ReloadErrorMsg:
		m.setStatus(fmt.Sprintf("Reload failed: %v", msg.Err), true)
		return m, nil

	case ExportDoneMsg:
		if msg.Err != nil {
			m.setStatus(fmt.Sprintf("Export failed: %v", msg.Err), true)
		} else {
			names := make([]string, len(msg.Paths))
			for i, p := range msg.Paths {
				names[i] = filepath.Base(p)
			}
			m.setStatus("Exported "+strings.Join(names, ", "), false)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.focused == focusDetail {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.focused == focusFilter {
		return m.handleFilterKeys(msg)
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.showHelp = true
	case key.Matches(msg, k.ZoomIn):
		m.ctrl.ZoomIn()
	case key.Matches(msg, k.ZoomOut):
		m.ctrl.ZoomOut()
	case key.Matches(msg, k.Reset):
		m.ctrl.Reset()
	case key.Matches(msg, k.Fit):
		m.ctrl.Fit(m.canvasScreen(), CellWidth*2)
	case key.Matches(msg, k.PanLeft):
		m.ctrl.PanBy(-panCells*CellWidth, 0)
	case key.Matches(msg, k.PanRight):
		m.ctrl.PanBy(panCells*CellWidth, 0)
	case key.Matches(msg, k.PanUp):
		m.ctrl.PanBy(0, -panCells*CellHeight/2)
	case key.Matches(msg, k.PanDown):
		m.ctrl.PanBy(0, panCells*CellHeight/2)
	case key.Matches(msg, k.Select):
		m.selectCursor()
		m.ctrl.FocusSelection(m.canvasScreen())
	case key.Matches(msg, k.Clear):
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.refreshItems()
		} else {
			m.ctrl.Clear()
		}
	case key.Matches(msg, k.Filter):
		m.focused = focusFilter
		return m, m.filter.Focus()
	case key.Matches(msg, k.CopyID):
		m.copySelection()
	case key.Matches(msg, k.Export):
		m.setStatus("Exporting…", false)
		return m, m.exportCmd()
	case key.Matches(msg, k.Reload):
		return m, m.reloadCmd()
	case key.Matches(msg, k.Detail):
		m.showDetail = !m.showDetail
		if !m.showDetail && m.focused == focusDetail {
			m.focused = focusList
		}
		m.layout()
	case key.Matches(msg, k.Focus):
		if m.showDetail {
			if m.focused == focusList {
				m.focused = focusDetail
			} else {
				m.focused = focusList
			}
		}
	default:
		var cmd tea.Cmd
		if m.focused == focusDetail {
			m.detail, cmd = m.detail.Update(msg)
		} else {
			m.list, cmd = m.list.Update(msg)
			m.selectCursor()
		}
		m.refreshDetail()
		return m, cmd
	}
	m.refreshDetail()
	return m, nil
}

func (m Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.filter.SetValue("")
		m.filter.Blur()
		m.focused = focusList
		m.refreshItems()
		return m, nil
	case key.Matches(msg, m.keys.Accept):
		m.filter.Blur()
		m.focused = focusList
		m.selectCursor()
		m.refreshDetail()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refreshItems()
	return m, cmd
}

// selectCursor makes the node under the list cursor the selection.
func (m *Model) selectCursor() {
	if it, ok := m.list.SelectedItem().(NodeItem); ok {
		m.ctrl.Select(it.Node.ID)
	}
}

func (m *Model) copySelection() {
	id, ok := m.ctrl.Selection()
	if !ok {
		m.setStatus("Nothing selected", true)
		return
	}
	if err := clipboard.WriteAll(id); err != nil {
		m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("📋 Copied %s to clipboard", id), false)
}

func (m *Model) setStatus(s string, isErr bool) {
	m.statusMsg = s
	m.statusErr = isErr
}

func (m *Model) applyLoaded(l *loader.Loaded, announce bool) {
	first := m.seq == 0
	m.seq = l.Seq
	m.source = l.Source
	m.loadedAt = l.LoadedAt
	m.ctrl.SetGraph(l.Graph)
	m.changed = map[string]bool{}
	if !first {
		for _, id := range l.Diff.Added {
			m.changed[id] = true
		}
		for _, id := range l.Diff.Changed {
			m.changed[id] = true
		}
	}
	if announce && !first {
		m.setStatus("Reloaded: "+l.Diff.Summary(), false)
	}
	debug.L().Debug("ui graph swapped", zap.Uint64("seq", l.Seq), zap.Int("nodes", l.Graph.Len()))
}

// refreshItems rebuilds the list from the graph and the filter, keeping the
// cursor on the selected node when it is still listed.
func (m *Model) refreshItems() {
	g := m.ctrl.Graph()
	nodes := g.Filter(m.filter.Value())
	items := make([]list.Item, len(nodes))
	sel, _ := m.ctrl.Selection()
	cursor := 0
	for i, n := range nodes {
		items[i] = NodeItem{Node: n, Changed: m.changed[n.ID]}
		if n.ID == sel {
			cursor = i
		}
	}
	m.list.SetItems(items)
	m.list.Select(cursor)
	m.list.SetDelegate(NodeDelegate{Theme: m.theme, Marked: sel})
	m.detailFor = "\x00"
	m.refreshDetail()
}

// refreshDetail re-renders the detail panel when the selection or the graph
// changed since the last render.
func (m *Model) refreshDetail() {
	g := m.ctrl.Graph()
	sel, _ := m.ctrl.Selection()
	m.list.SetDelegate(NodeDelegate{Theme: m.theme, Marked: sel})
	h := g.Hash()
	if sel == m.detailFor && h == m.detailHash {
		return
	}
	m.detailFor, m.detailHash = sel, h
	var md string
	if n, ok := m.ctrl.SelectedNode(); ok {
		md = NodeMarkdown(g, n)
	} else {
		md = OverviewMarkdown(g, m.source)
	}
	m.detail.SetContent(m.md.Render(md))
	m.detail.GotoTop()
}

func (m Model) reloadCmd() tea.Cmd {
	store := m.store
	if store == nil {
		return func() tea.Msg { return ReloadErrorMsg{Err: errors.New("no data source")} }
	}
	return func() tea.Msg {
		l, err := store.Reload(context.Background())
		if errors.Is(err, loader.ErrSuperseded) {
			return nil
		}
		if err != nil {
			return ReloadErrorMsg{Err: err}
		}
		return GraphLoadedMsg{Loaded: l}
	}
}

func (m Model) exportCmd() tea.Cmd {
	f := export.FrameFor(m.ctrl)
	f.Legend = m.opts.Legend
	f.Overview = m.opts.Overview
	base, formats := m.opts.ExportBase, m.opts.ExportFormats
	return func() tea.Msg {
		paths, err := export.SaveAll(context.Background(), base, formats, f)
		return ExportDoneMsg{Paths: paths, Err: err}
	}
}

// layout sizes the panes for the current window.
func (m *Model) layout() {
	m.isSplitView = m.width >= SplitViewThreshold
	bodyHeight := max(5, m.height-2) // header and footer rows

	listWidth := m.width
	if m.isSplitView {
		listWidth = min(52, m.width*2/5)
	}
	m.list.SetSize(max(10, listWidth-2), max(3, bodyHeight-2))

	detailWidth := m.width - 2
	detailHeight := bodyHeight - 2
	if m.isSplitView {
		detailWidth = m.width - listWidth - 2
		detailHeight = bodyHeight - m.canvasRows() - 4
	}
	m.detail.Width = max(10, detailWidth)
	m.detail.Height = max(3, detailHeight)
	m.md.SetWidth(m.detail.Width - 2)
	m.detailFor = "\x00"
	m.refreshDetail()
}

func (m Model) bodyHeight() int {
	return max(5, m.height-2)
}

func (m Model) canvasCols() int {
	if !m.isSplitView {
		return max(10, m.width-2)
	}
	return max(10, m.width-min(52, m.width*2/5)-2)
}

func (m Model) canvasRows() int {
	rows := m.bodyHeight() - 2
	if m.isSplitView && m.showDetail {
		rows = (m.bodyHeight() * 3 / 5) - 2
	}
	return max(3, rows)
}

// canvasScreen is the map pane in screen units.
func (m Model) canvasScreen() model.Size {
	return CanvasSize(m.canvasCols(), m.canvasRows())
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}
	defer metrics.Timer(metrics.UIRender)()

	if m.showHelp {
		m.help.ShowAll = true
		m.help.Width = m.width
		return lipgloss.JoinVertical(lipgloss.Left,
			m.renderHeader(),
			m.theme.Panel.Width(m.width-2).Render(m.help.View(m.keys)),
		)
	}

	var body string
	listPanel := m.panel(m.list.View(), m.focused != focusDetail, m.list.Width())
	switch {
	case m.isSplitView:
		mapView := RenderCanvas(m.theme, m.ctrl.Graph(), m.ctrl.Viewport().State(), m.selection(), m.canvasCols(), m.canvasRows())
		right := m.panel(mapView, false, m.canvasCols())
		if m.showDetail {
			right = lipgloss.JoinVertical(lipgloss.Left, right, m.panel(m.detail.View(), m.focused == focusDetail, m.detail.Width))
		}
		body = lipgloss.JoinHorizontal(lipgloss.Top, listPanel, right)
	case m.showDetail:
		body = m.panel(m.detail.View(), true, m.detail.Width)
	default:
		body = listPanel
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m Model) panel(content string, focused bool, width int) string {
	st := m.theme.Panel
	if focused {
		st = m.theme.Focused
	}
	return st.Width(width).Render(content)
}

func (m Model) selection() string {
	id, _ := m.ctrl.Selection()
	return id
}

func (m Model) renderHeader() string {
	st := m.ctrl.State()
	o := m.ctrl.Graph().Overview()
	info := fmt.Sprintf(" zoom %.0f%%  pan %s  %dT %dE %dP  %d links",
		st.Zoom*100, st.Pan, o.Trusts, o.Entities, o.Projects, o.Edges)
	if o.Dangling > 0 {
		info += fmt.Sprintf("  %d dangling", o.Dangling)
	}
	if m.source != "" {
		info += "  " + m.source
		if !m.loadedAt.IsZero() {
			info += " (" + FormatTimeRel(m.loadedAt) + ")"
		}
	}
	title := m.theme.Header.Render("trustmap")
	return title + m.theme.SecondaryText.Render(truncate(info, max(0, m.width-lipgloss.Width(title))))
}

func (m Model) renderFooter() string {
	if m.focused == focusFilter {
		return m.filter.View()
	}
	if m.statusMsg != "" {
		if m.statusErr {
			return m.theme.ErrorText.Render(truncate(m.statusMsg, m.width))
		}
		return m.theme.PrimaryBold.Render(truncate(m.statusMsg, m.width))
	}
	m.help.Width = m.width
	return m.help.ShortHelpView(m.keys.ShortHelp())
}
