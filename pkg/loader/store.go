package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vanderheijden86/trustmap/internal/datasource"
	"github.com/vanderheijden86/trustmap/pkg/debug"
	"github.com/vanderheijden86/trustmap/pkg/graph"
	"github.com/vanderheijden86/trustmap/pkg/metrics"
	"github.com/vanderheijden86/trustmap/pkg/model"
)

// ErrSuperseded is returned by a Reload whose result was discarded because a
// newer Reload started before it finished.
var ErrSuperseded = errors.New("load superseded by a newer reload")

// Loaded is one published graph. It is immutable once published; readers
// may hold it for as long as they like.
type Loaded struct {
	Graph    *graph.Graph
	Source   string
	Seq      uint64
	LoadedAt time.Time
	// Diff compares this load to the previous one. The first load reports
	// every node as added.
	Diff datasource.SnapshotDiff
}

// Store holds the current graph and serializes reloads from one source.
//
// At most one load is in flight: starting a Reload cancels the previous one,
// and only the newest load may publish. Readers never block; Current is a
// single atomic load.
type Store struct {
	src       datasource.Source
	graphOpts []graph.Option
	onSwap    func(*Loaded)

	current atomic.Pointer[Loaded]

	mu       sync.Mutex
	seq      uint64
	inflight context.CancelFunc
	closed   bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithGraphOptions passes options to every graph the store builds.
func WithGraphOptions(opts ...graph.Option) StoreOption {
	return func(s *Store) { s.graphOpts = append(s.graphOpts, opts...) }
}

// WithOnSwap registers a callback run after each successful publish. It runs
// on the reloading goroutine and must not call Reload.
func WithOnSwap(fn func(*Loaded)) StoreOption {
	return func(s *Store) { s.onSwap = fn }
}

// NewStore returns an empty store reading from src.
func NewStore(src datasource.Source, opts ...StoreOption) *Store {
	s := &Store{src: src}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Source returns the store's data source.
func (s *Store) Source() datasource.Source { return s.src }

// Current returns the latest published graph, or nil before the first
// successful load.
func (s *Store) Current() *Loaded {
	return s.current.Load()
}

// Graph returns the current graph, or an empty one before the first load.
func (s *Store) Graph() *graph.Graph {
	if l := s.Current(); l != nil {
		return l.Graph
	}
	return graph.New(model.Snapshot{}, s.graphOpts...)
}

// Reload loads the source and publishes the result. A failed load leaves
// the previous graph in place.
func (s *Store) Reload(ctx context.Context) (*Loaded, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.New("store closed")
	}
	if s.inflight != nil {
		s.inflight()
	}
	s.seq++
	seq := s.seq
	lctx, cancel := context.WithCancel(ctx)
	s.inflight = cancel
	s.mu.Unlock()
	defer cancel()

	name := string(s.src.Type())
	stop := metrics.Timer(metrics.GraphLoad)
	snap, err := s.src.Load(lctx)
	stop()

	s.mu.Lock()
	if seq != s.seq || s.closed {
		s.mu.Unlock()
		metrics.RecordLoad(name, "superseded")
		debug.L().Debug("load superseded", zap.String("source", s.src.Name()), zap.Uint64("seq", seq))
		return nil, ErrSuperseded
	}
	s.inflight = nil

	if err != nil {
		s.mu.Unlock()
		metrics.RecordLoad(name, "error")
		debug.L().Warn("load failed, keeping previous graph",
			zap.String("source", s.src.Name()), zap.Error(err))
		return nil, fmt.Errorf("load %s: %w", s.src.Name(), err)
	}

	var prev model.Snapshot
	if old := s.current.Load(); old != nil {
		prev = old.Graph.Snapshot()
	}
	g := graph.New(snap, s.graphOpts...)
	g.Warm()
	l := &Loaded{
		Graph:    g,
		Source:   s.src.Name(),
		Seq:      seq,
		LoadedAt: time.Now(),
		Diff:     datasource.Diff(prev, snap),
	}
	s.current.Store(l)
	onSwap := s.onSwap
	s.mu.Unlock()

	metrics.RecordLoad(name, "ok")
	debug.L().Info("graph loaded",
		zap.String("source", l.Source),
		zap.Uint64("seq", seq),
		zap.Int("nodes", l.Graph.Len()),
		zap.Int("dangling", l.Graph.Dangling()),
		zap.String("changes", l.Diff.Summary()))

	if onSwap != nil {
		onSwap(l)
	}
	return l, nil
}

// Close cancels any in-flight load. Later Reloads fail; Current keeps
// returning the last published graph.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.inflight != nil {
		s.inflight()
		s.inflight = nil
	}
}
