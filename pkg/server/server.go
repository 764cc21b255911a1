// Package server exposes a graph over HTTP: JSON for the structure, rendered
// images for a given view, and a websocket where each client drives its own
// zoom, pan and selection.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"github.com/vanderheijden86/trustmap/pkg/controller"
	"github.com/vanderheijden86/trustmap/pkg/debug"
	"github.com/vanderheijden86/trustmap/pkg/export"
	"github.com/vanderheijden86/trustmap/pkg/graph"
	"github.com/vanderheijden86/trustmap/pkg/metrics"
	"github.com/vanderheijden86/trustmap/pkg/model"
	"github.com/vanderheijden86/trustmap/pkg/viewport"
)

// DefaultAddr is used when Options.Addr is empty.
const DefaultAddr = "127.0.0.1:7744"

// DefaultMaxConns caps simultaneous connections when Options.MaxConns is 0.
const DefaultMaxConns = 256

// GraphSource returns the graph to serve. *loader.Store satisfies it.
type GraphSource interface {
	Graph() *graph.Graph
}

// Options configures a Server.
type Options struct {
	Addr     string
	MaxConns int
	Viewport viewport.Config
	Title    string
	Legend   bool
	Overview bool
}

// Server is the HTTP front end.
type Server struct {
	src      GraphSource
	opts     Options
	upgrader websocket.Upgrader
	server   *http.Server

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

// New returns a server over src. Nothing listens until Start.
func New(src GraphSource, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.MaxConns <= 0 {
		opts.MaxConns = DefaultMaxConns
	}
	s := &Server{
		src:  src,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sessions: make(map[string]*session),
	}
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler with logging and panic recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/graph", s.handleGraph)
	mux.HandleFunc("GET /api/nodes/{id}", s.handleNode)
	mux.HandleFunc("GET /graph.svg", s.handleRender(export.FormatSVG))
	mux.HandleFunc("GET /graph.png", s.handleRender(export.FormatPNG))
	mux.HandleFunc("GET /render/{format}", s.handleRenderFormat)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return withLogging(withRecovery(mux))
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.opts.Addr }

// Start listens and serves until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln, at most MaxConns at a time, until
// Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	debug.L().Info("server starting", zap.String("addr", ln.Addr().String()), zap.Int("max_conns", s.opts.MaxConns))
	if err := s.server.Serve(netutil.LimitListener(ln, s.opts.MaxConns)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes every websocket session and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	debug.L().Info("server stopping")
	s.mu.Lock()
	s.closed = true
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
	return s.server.Shutdown(ctx)
}

// GraphChanged pushes g to every open session. It is meant for
// loader.WithOnSwap.
func (s *Server) GraphChanged(g *graph.Graph) {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.setGraph(g)
	}
}

// SessionCount returns the number of open websocket sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// GraphResponse is the body of /api/graph.
type GraphResponse struct {
	Nodes    []model.Node   `json:"nodes"`
	Edges    []model.Edge   `json:"edges"`
	Overview graph.Overview `json:"overview"`
	Hash     string         `json:"hash"`
}

// NodeResponse is the body of /api/nodes/{id}.
type NodeResponse struct {
	Node    model.Node   `json:"node"`
	HeldBy  []model.Node `json:"held_by,omitempty"`
	Holds   []model.Node `json:"holds,omitempty"`
	Missing []string     `json:"missing,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"nodes":    s.src.Graph().Len(),
		"sessions": s.SessionCount(),
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	g := s.src.Graph()
	nodes := g.AllNodes()
	edges := g.Edges()
	if nodes == nil {
		nodes = []model.Node{}
	}
	if edges == nil {
		edges = []model.Edge{}
	}
	writeJSON(w, http.StatusOK, GraphResponse{
		Nodes:    nodes,
		Edges:    edges,
		Overview: g.Overview(),
		Hash:     strconv.FormatUint(g.Hash(), 16),
	})
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	g := s.src.Graph()
	id := r.PathValue("id")
	n, ok := g.NodeByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("node %q not found", id))
		return
	}
	a := g.Analyze()
	resp := NodeResponse{Node: n, HeldBy: a.Ancestors(id), Holds: a.Descendants(id)}
	for _, m := range n.Members {
		if _, ok := g.NodeByID(m); !ok {
			resp.Missing = append(resp.Missing, m)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRenderFormat(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.PathValue("format"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.handleRender(format)(w, r)
}

var contentTypes = map[export.Format]string{
	export.FormatSVG:      "image/svg+xml",
	export.FormatPNG:      "image/png",
	export.FormatMarkdown: "text/markdown; charset=utf-8",
	export.FormatMermaid:  "text/plain; charset=utf-8",
}

// handleRender draws the graph under the view given by the zoom, x, y and
// select query parameters.
func (s *Server) handleRender(format export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := s.frameFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		w.Header().Set("Content-Type", contentTypes[format])
		w.Header().Set("Cache-Control", "no-store")
		if err := export.Write(w, format, f); err != nil {
			debug.L().Warn("render failed", zap.String("format", string(format)), zap.Error(err))
		}
	}
}

func (s *Server) frameFromQuery(r *http.Request) (export.Frame, error) {
	q := r.URL.Query()
	ctrl := controller.New(s.src.Graph(), s.opts.Viewport)
	vp := ctrl.Viewport()

	if v := q.Get("zoom"); v != "" {
		z, err := strconv.ParseFloat(v, 64)
		if err != nil || z <= 0 {
			return export.Frame{}, fmt.Errorf("invalid zoom %q", v)
		}
		vp.SetZoom(z)
	}
	var pan model.Point
	for _, p := range []struct {
		name string
		dst  *float64
	}{{"x", &pan.X}, {"y", &pan.Y}} {
		if v := q.Get(p.name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return export.Frame{}, fmt.Errorf("invalid %s %q", p.name, v)
			}
			*p.dst = f
		}
	}
	vp.SetPan(pan)
	if id := q.Get("select"); id != "" {
		ctrl.Select(id)
	}

	f := export.FrameFor(ctrl)
	f.Title = s.opts.Title
	f.Legend = s.opts.Legend && q.Get("legend") != "0"
	f.Overview = s.opts.Overview && q.Get("overview") != "0"
	for _, p := range []struct {
		name string
		max  int
		dst  *int
	}{{"width", export.MaxWidth, &f.Width}, {"height", export.MaxHeight, &f.Height}} {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return export.Frame{}, fmt.Errorf("invalid %s %q", p.name, v)
			}
			if n > p.max {
				return export.Frame{}, fmt.Errorf("%s %d exceeds limit %d", p.name, n, p.max)
			}
			*p.dst = n
		}
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debug.L().Warn("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(msg)})
}
