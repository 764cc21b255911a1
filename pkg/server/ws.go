package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vanderheijden86/trustmap/pkg/controller"
	"github.com/vanderheijden86/trustmap/pkg/debug"
	"github.com/vanderheijden86/trustmap/pkg/graph"
	"github.com/vanderheijden86/trustmap/pkg/metrics"
	"github.com/vanderheijden86/trustmap/pkg/model"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 16
)

// Op names accepted from clients.
const (
	OpZoomIn  = "zoom_in"
	OpZoomOut = "zoom_out"
	OpReset   = "reset"
	OpPan     = "pan"
	OpSelect  = "select"
	OpClear   = "clear"
	OpFit     = "fit"
)

// Request is one client message.
type Request struct {
	Op     string  `json:"op"`
	ID     string  `json:"id,omitempty"`
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Event is one server message. Type is hello, state, graph or error.
type Event struct {
	Type     string               `json:"type"`
	Session  string               `json:"session,omitempty"`
	State    *controller.ViewState `json:"state,omitempty"`
	Selected *model.Node          `json:"selected,omitempty"`
	Overview *graph.Overview      `json:"overview,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// session is one websocket client with its own controller.
type session struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	mu   sync.Mutex
	ctrl *controller.Controller

	closeOnce sync.Once
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		writeError(w, http.StatusServiceUnavailable, "server shutting down")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		debug.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	sess := &session{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
		ctrl: controller.New(s.src.Graph(), s.opts.Viewport),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	metrics.WebsocketSessions.Inc()
	debug.L().Info("websocket session opened", zap.String("session", sess.id), zap.String("request_id", RequestID(r.Context())))

	defer func() {
		sess.close()
		s.mu.Lock()
		delete(s.sessions, sess.id)
		s.mu.Unlock()
		metrics.WebsocketSessions.Dec()
		debug.L().Info("websocket session closed", zap.String("session", sess.id))
	}()

	go sess.writer()
	sess.push(sess.event("hello"))
	sess.reader()
}

// reader handles client requests until the connection fails or closes.
func (sess *session) reader() {
	sess.conn.SetReadLimit(4096)
	_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				debug.L().Debug("websocket read", zap.String("session", sess.id), zap.Error(err))
			}
			return
		}
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			sess.push(Event{Type: "error", Error: fmt.Sprintf("bad request: %v", err)})
			continue
		}
		sess.push(sess.apply(req))
	}
}

// apply runs one request against the session's controller and returns the
// resulting state, or an error event.
func (sess *session) apply(req Request) Event {
	sess.mu.Lock()
	c := sess.ctrl
	switch req.Op {
	case OpZoomIn:
		c.ZoomIn()
	case OpZoomOut:
		c.ZoomOut()
	case OpReset:
		c.Reset()
	case OpPan:
		c.PanBy(req.DX, req.DY)
	case OpSelect:
		// unknown ids leave the selection as it was
		c.Select(req.ID)
	case OpClear:
		c.Clear()
	case OpFit:
		if req.Width <= 0 || req.Height <= 0 {
			sess.mu.Unlock()
			return Event{Type: "error", Error: "fit needs width and height"}
		}
		c.Fit(model.Size{W: req.Width, H: req.Height}, 20)
	default:
		sess.mu.Unlock()
		return Event{Type: "error", Error: fmt.Sprintf("unknown op %q", req.Op)}
	}
	sess.mu.Unlock()
	return sess.event("state")
}

func (sess *session) event(typ string) Event {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	st := sess.ctrl.State()
	ev := Event{Type: typ, State: &st}
	if typ == "hello" {
		ev.Session = sess.id
	}
	if n, ok := sess.ctrl.SelectedNode(); ok {
		ev.Selected = &n
	}
	if typ != "state" {
		ov := sess.ctrl.Graph().Overview()
		ev.Overview = &ov
	}
	return ev
}

func (sess *session) setGraph(g *graph.Graph) {
	sess.mu.Lock()
	sess.ctrl.SetGraph(g)
	sess.mu.Unlock()
	sess.push(sess.event("graph"))
}

// push queues ev for the writer. A client that stops reading is dropped
// rather than allowed to block broadcasts.
func (sess *session) push(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		debug.L().Warn("encode event", zap.Error(err))
		return
	}
	select {
	case sess.send <- data:
	case <-sess.done:
	default:
		debug.L().Warn("websocket client too slow, closing", zap.String("session", sess.id))
		sess.close()
	}
}

func (sess *session) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg := <-sess.send:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				sess.close()
				return
			}
		case <-ticker.C:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				sess.close()
				return
			}
		case <-sess.done:
			return
		}
	}
}

func (sess *session) close() {
	sess.closeOnce.Do(func() {
		close(sess.done)
		_ = sess.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = sess.conn.Close()
	})
}
