package server

import (
	"context"
	"image/png"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/trustmap/internal/datasource"
	"github.com/vanderheijden86/trustmap/pkg/graph"
	"github.com/vanderheijden86/trustmap/pkg/model"
	"github.com/vanderheijden86/trustmap/pkg/viewport"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(Static(graph.New(datasource.Demo())), Options{
		Viewport: viewport.DefaultConfig(),
		Legend:   true,
		Overview: true,
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "ok", out["status"])
	assert.EqualValues(t, 9, out["nodes"])
}

func TestAPIGraph(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/api/graph")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var g GraphResponse
	require.NoError(t, json.Unmarshal(body, &g))
	assert.Len(t, g.Nodes, 9)
	assert.Len(t, g.Edges, 7)
	assert.Equal(t, 2, g.Overview.Trusts)
	assert.Equal(t, 1, g.Overview.Completed)
	assert.NotEmpty(t, g.Hash)
	assert.Equal(t, model.Point{X: 180, Y: 240}, g.Edges[0].Start)
}

func TestAPIGraph_Empty(t *testing.T) {
	s := New(Static(graph.New(model.Snapshot{})), Options{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	_, body := get(t, ts.URL+"/api/graph")
	assert.Contains(t, string(body), `"nodes":[]`)
	assert.Contains(t, string(body), `"edges":[]`)
}

func TestAPINode(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/api/nodes/entity-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var n NodeResponse
	require.NoError(t, json.Unmarshal(body, &n))
	assert.Equal(t, "TechVentures LLC", n.Node.Label)
	require.Len(t, n.HeldBy, 1)
	assert.Equal(t, "trust-1", n.HeldBy[0].ID)
	assert.Len(t, n.Holds, 2)

	resp, _ = get(t, ts.URL+"/api/nodes/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGraphSVG_QueryView(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/graph.svg?zoom=1.4&x=10&y=-20&select=project-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	s := string(body)
	assert.Contains(t, s, `translate(10,-20) scale(1.4)`)
	assert.Equal(t, 1, strings.Count(s, `class="selection"`))

	// zoom beyond the range is clamped, unknown selections ignored
	_, body = get(t, ts.URL+"/graph.svg?zoom=9&select=ghost")
	assert.Contains(t, string(body), `scale(3)`)
	assert.NotContains(t, string(body), `class="selection"`)

	resp, _ = get(t, ts.URL+"/graph.svg?zoom=abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = get(t, ts.URL+"/graph.svg?x=left")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRenderFormats(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/graph.png?width=300&height=200")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	img, err := png.Decode(strings.NewReader(string(body)))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())

	_, body = get(t, ts.URL+"/render/mmd")
	assert.True(t, strings.HasPrefix(string(body), "graph LR"))

	_, body = get(t, ts.URL+"/render/markdown")
	assert.Contains(t, string(body), "## Overview")

	resp, _ = get(t, ts.URL+"/render/gif")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRenderSizeValidated(t *testing.T) {
	_, ts := newTestServer(t)

	for _, query := range []string{
		"width=abc",
		"height=-3",
		"width=0",
		"width=abc&height=-3",
		"width=8193",
		"width=50000&height=50000",
	} {
		resp, body := get(t, ts.URL+"/graph.png?"+query)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
		assert.Contains(t, string(body), "error", query)
	}

	resp, _ := get(t, ts.URL+"/render/svg?width=8192&height=10")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "trustmap_websocket_sessions")
}

func TestRecovery(t *testing.T) {
	h := withLogging(withRecovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev Event
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func send(t *testing.T, conn *websocket.Conn, req Request) Event {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
	return readEvent(t, conn)
}

func TestWebSocketSession(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, ts)

	hello := readEvent(t, conn)
	require.Equal(t, "hello", hello.Type)
	assert.NotEmpty(t, hello.Session)
	require.NotNil(t, hello.State)
	assert.Equal(t, 1.0, hello.State.Zoom)
	require.NotNil(t, hello.Overview)
	assert.Equal(t, 4, hello.Overview.Projects)
	assert.Equal(t, 1, s.SessionCount())

	ev := send(t, conn, Request{Op: OpZoomIn})
	assert.Equal(t, "state", ev.Type)
	assert.Equal(t, 1.2, ev.State.Zoom)

	ev = send(t, conn, Request{Op: OpPan, DX: 15, DY: -5})
	assert.Equal(t, model.Point{X: 15, Y: -5}, ev.State.Pan)

	ev = send(t, conn, Request{Op: OpSelect, ID: "entity-2"})
	assert.Equal(t, "entity-2", ev.State.Selection)
	require.NotNil(t, ev.Selected)
	assert.Equal(t, "Real Estate Holdings Inc", ev.Selected.Label)

	ev = send(t, conn, Request{Op: OpSelect, ID: "missing"})
	assert.Equal(t, "entity-2", ev.State.Selection, "unknown id keeps the selection")

	ev = send(t, conn, Request{Op: OpReset})
	assert.Equal(t, 1.0, ev.State.Zoom)
	assert.Equal(t, model.Point{}, ev.State.Pan)
	assert.Equal(t, "entity-2", ev.State.Selection)

	ev = send(t, conn, Request{Op: OpClear})
	assert.Empty(t, ev.State.Selection)

	ev = send(t, conn, Request{Op: "explode"})
	assert.Equal(t, "error", ev.Type)
	ev = send(t, conn, Request{Op: OpFit})
	assert.Equal(t, "error", ev.Type)
	ev = send(t, conn, Request{Op: OpFit, Width: 1000, Height: 600})
	assert.Equal(t, "state", ev.Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, "error", readEvent(t, conn).Type)
}

func TestWebSocketSessionsAreIndependent(t *testing.T) {
	_, ts := newTestServer(t)
	a, b := dial(t, ts), dial(t, ts)
	readEvent(t, a)
	readEvent(t, b)

	send(t, a, Request{Op: OpZoomIn})
	ev := send(t, b, Request{Op: OpSelect, ID: "trust-1"})
	assert.Equal(t, 1.0, ev.State.Zoom)
}

func TestGraphChangedBroadcast(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, ts)
	readEvent(t, conn)
	send(t, conn, Request{Op: OpSelect, ID: "trust-2"})

	snap := datasource.Demo()
	snap.Trusts = snap.Trusts[:1]
	g := graph.New(snap)
	g.Warm()
	s.GraphChanged(g)

	ev := readEvent(t, conn)
	assert.Equal(t, "graph", ev.Type)
	assert.Equal(t, 1, ev.Overview.Trusts)
	assert.Empty(t, ev.State.Selection, "selection of a removed node is cleared")
}

func TestShutdownClosesSessions(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, ts)
	readEvent(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Eventually(t, func() bool { return s.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	resp, _ := get(t, ts.URL+"/ws")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServeAndShutdown(t *testing.T) {
	s := New(Static(graph.New(datasource.Demo())), Options{MaxConns: 4})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ln) }()

	resp, _ := get(t, "http://"+ln.Addr().String()+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	select {
	case err := <-errCh:
		assert.NoError(t, err, "clean shutdown is not an error")
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}
