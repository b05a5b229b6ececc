package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/helium-dev/helium/pkg/client"
	"github.com/helium-dev/helium/pkg/middleware"
	"github.com/helium-dev/helium/pkg/procedure"
	"github.com/helium-dev/helium/pkg/router"
	"github.com/helium-dev/helium/pkg/transport"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTable(t *testing.T) *router.Table {
	t.Helper()
	table, err := router.BuildTable([]router.Declaration{
		{Template: "/", Page: "index"},
		{Template: "/posts/latest", Page: "posts/latest"},
		{Template: "/posts/[id]", Page: "posts/[id]"},
		{Template: "/docs/[...slug]", Page: "docs/[...slug]"},
	})
	if err != nil {
		t.Fatalf("BuildTable: %v", err)
	}
	return table
}

func newTestServer(t *testing.T, dopts []transport.Option, opts ...Option) *Server {
	t.Helper()
	reg := procedure.NewRegistry()
	reg.MustRegister("echo", procedure.Func(func(ctx context.Context, s string) (string, error) {
		return s, nil
	}))

	dopts = append([]transport.Option{transport.WithLogger(quietLogger())}, dopts...)
	d := transport.NewDispatcher(reg, dopts...)

	opts = append([]Option{WithLogger(quietLogger()), WithTable(testTable(t))}, opts...)
	return New(nil, d, opts...)
}

func TestRPCOverHTTP(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, nil))
	defer ts.Close()

	c := client.New(client.NewHTTPTransport(ts.URL + "/_helium/rpc"))
	got, err := client.Invoke[string](context.Background(), c, "echo", "hello")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got != "hello" {
		t.Errorf("echo = %q, want hello", got)
	}

	_, err = client.Invoke[string](context.Background(), c, "missing", nil)
	if client.KindOf(err) != client.KindUnknownProcedure {
		t.Errorf("KindOf(%v) = %q, want UnknownProcedure", err, client.KindOf(err))
	}
}

func TestRPCOverWebSocket(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, nil))
	defer ts.Close()

	ctx := context.Background()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/_helium/ws"
	tr, err := client.DialWebSocket(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("DialWebSocket: %v", err)
	}
	defer tr.Close()

	c := client.New(tr)
	for _, word := range []string{"a", "b", "c"} {
		got, err := client.Invoke[string](ctx, c, "echo", word)
		if err != nil {
			t.Fatalf("Invoke(%q): %v", word, err)
		}
		if got != word {
			t.Errorf("echo = %q, want %q", got, word)
		}
	}
}

func TestPageResolution(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		path     string
		page     router.PageRef
		template string
		params   string
	}{
		{"/", "index", "/", `{}`},
		{"/posts/latest", "posts/latest", "/posts/latest", `{}`},
		{"/posts/42", "posts/[id]", "/posts/[id]", `{"id":"42"}`},
		{"/docs/a/b/c", "docs/[...slug]", "/docs/[...slug]", `{"slug":["a","b","c"]}`},
	}

	for _, tc := range tests {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", tc.path, rec.Code)
			continue
		}
		var body struct {
			Path     string          `json:"path"`
			Template string          `json:"template"`
			Page     router.PageRef  `json:"page"`
			Params   json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("GET %s: decode body: %v", tc.path, err)
		}
		if body.Page != tc.page || body.Template != tc.template || body.Path != tc.path {
			t.Errorf("GET %s = %+v", tc.path, body)
		}
		if string(body.Params) != tc.params {
			t.Errorf("GET %s params = %s, want %s", tc.path, body.Params, tc.params)
		}
	}
}

func TestPageCanonicalRedirect(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		path string
		want string
	}{
		{"/posts/42/", "/posts/42"},
		{"/posts//42?tab=1", "/posts/42?tab=1"},
		{"/docs/./a/../b", "/docs/b"},
	}

	for _, tc := range tests {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

		if rec.Code != http.StatusPermanentRedirect {
			t.Errorf("GET %s status = %d, want 308", tc.path, rec.Code)
			continue
		}
		if loc := rec.Header().Get("Location"); loc != tc.want {
			t.Errorf("GET %s Location = %q, want %q", tc.path, loc, tc.want)
		}
	}
}

func TestPageErrors(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/nowhere", http.StatusNotFound},
		{http.MethodGet, "/docs", http.StatusNotFound},
		{http.MethodGet, "/Posts/latest", http.StatusNotFound},
		{http.MethodPost, "/posts/1", http.StatusMethodNotAllowed},
		{http.MethodGet, "/..", http.StatusBadRequest},
		{http.MethodGet, "/a/../../b", http.StatusBadRequest},
	}

	for _, tc := range tests {
		req := httptest.NewRequest(tc.method, "/", nil)
		req.URL.Path = tc.path
		req.URL.RawPath = tc.path
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s %s status = %d, want %d", tc.method, tc.path, rec.Code, tc.want)
		}
	}
}

type notFoundPages struct {
	JSONRenderer
}

func (notFoundPages) RenderNotFound(w http.ResponseWriter, r *http.Request) error {
	_, err := io.WriteString(w, "custom missing page")
	return err
}

func TestNotFoundRenderer(t *testing.T) {
	s := newTestServer(t, nil, WithRenderer(notFoundPages{}))

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if rec.Body.String() != "custom missing page" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestRendererFailure(t *testing.T) {
	s := newTestServer(t, nil, WithRenderer(PageRendererFunc(
		func(w http.ResponseWriter, r *http.Request, rr *router.ResolvedRoute) error {
			return errors.New("template exploded")
		})))

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/1", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestNoTable(t *testing.T) {
	d := transport.NewDispatcher(procedure.NewRegistry(), transport.WithLogger(quietLogger()))
	s := New(nil, d, WithLogger(quietLogger()))

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := newTestServer(t,
		[]transport.Option{transport.WithMiddleware(middleware.Prometheus(middleware.WithRegistry(reg)))},
		WithGatherer(reg),
	)
	ts := httptest.NewServer(s)
	defer ts.Close()

	c := client.New(client.NewHTTPTransport(ts.URL + "/_helium/rpc"))
	if _, err := client.Invoke[string](context.Background(), c, "echo", "x"); err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `helium_rpc_calls_total{kind="ok",procedure="echo"} 1`) {
		t.Errorf("metrics output missing call counter:\n%s", body)
	}
}

func TestMetricsEndpointDisabledWithoutGatherer(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /metrics status = %d, want 404", rec.Code)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String()
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url + "/posts/1")
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if s.Addr() == nil {
		t.Error("Addr() is nil while serving")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	if err := s.Serve(context.Background(), mustListen(t)); !errors.Is(err, ErrServerClosed) {
		t.Errorf("Serve after shutdown = %v, want ErrServerClosed", err)
	}
}

func TestShutdownClosesWebSockets(t *testing.T) {
	s := newTestServer(t, nil)
	ln := mustListen(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	var tr *client.WSTransport
	var err error
	for i := 0; i < 50; i++ {
		tr, err = client.DialWebSocket(context.Background(), "ws://"+ln.Addr().String()+"/_helium/ws", nil)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("DialWebSocket: %v", err)
	}
	defer tr.Close()

	cancel()
	select {
	case <-tr.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("websocket stayed open after shutdown")
	}
	<-done
}

func mustListen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	return ln
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	c := (&Config{Address: ":9999"}).withDefaults()
	if c.Address != ":9999" || c.RPCPath != "/_helium/rpc" || c.WSPath != "/_helium/ws" {
		t.Errorf("withDefaults = %+v", c)
	}
	if c.MetricsPath != "" {
		t.Errorf("MetricsPath = %q, want empty when not set", c.MetricsPath)
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}

	bad := DefaultConfig()
	bad.RPCPath = "rpc"
	bad.WSPath = "/metrics"
	bad.ShutdownTimeout = -time.Second
	err := bad.Validate()
	if err == nil {
		t.Fatal("Validate() succeeded for bad config")
	}
	for _, want := range []string{"rpc path", "also used by", "shutdown timeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() = %v, missing %q", err, want)
		}
	}
}
