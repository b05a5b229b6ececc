package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/helium-dev/helium/pkg/procedure"
	"github.com/helium-dev/helium/pkg/protocol"
	"github.com/helium-dev/helium/pkg/transport"
)

type sumArgs struct {
	Values []int `json:"values"`
}

func testDispatcher(t *testing.T) *transport.Dispatcher {
	t.Helper()
	reg := procedure.NewRegistry()
	reg.MustRegister("sum", procedure.Func(func(ctx context.Context, in sumArgs) (int, error) {
		total := 0
		for _, v := range in.Values {
			total += v
		}
		return total, nil
	}))
	reg.MustRegister("fail", procedure.NoArgs(func(ctx context.Context) (any, error) {
		return nil, errors.New("out of coffee")
	}))
	reg.MustRegister("sleep", procedure.Func(func(ctx context.Context, ms int) (int, error) {
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
			return ms, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}))
	reg.Seal()
	return transport.NewDispatcher(reg, transport.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// funcTransport adapts a function to Transport.
type funcTransport func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

func (f funcTransport) RoundTrip(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return f(ctx, req)
}

func TestHTTPCallSuccess(t *testing.T) {
	srv := httptest.NewServer(testDispatcher(t))
	defer srv.Close()

	c := New(NewHTTPTransport(srv.URL))
	got, err := Invoke[int](context.Background(), c, "sum", sumArgs{Values: []int{1, 2, 3}})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if got != 6 {
		t.Errorf("sum = %d, want 6", got)
	}
}

func TestHTTPCallFailureKinds(t *testing.T) {
	srv := httptest.NewServer(testDispatcher(t))
	defer srv.Close()
	c := New(NewHTTPTransport(srv.URL))

	tests := []struct {
		name string
		proc string
		args any
		want Kind
	}{
		{"unknown procedure", "missing", nil, KindUnknownProcedure},
		{"invalid arguments", "sum", "not an object", KindInvalidArguments},
		{"handler error", "fail", nil, KindHandlerError},
		{"unencodable arguments", "sum", make(chan int), KindInvalidArguments},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Call(context.Background(), tt.proc, tt.args, nil)
			var callErr *CallError
			if !errors.As(err, &callErr) {
				t.Fatalf("error = %v, want *CallError", err)
			}
			if callErr.Kind != tt.want {
				t.Errorf("Kind = %s, want %s", callErr.Kind, tt.want)
			}
			if callErr.Procedure != tt.proc {
				t.Errorf("Procedure = %q, want %q", callErr.Procedure, tt.proc)
			}
		})
	}
}

func TestHandlerErrorMessagePreserved(t *testing.T) {
	srv := httptest.NewServer(testDispatcher(t))
	defer srv.Close()

	err := New(NewHTTPTransport(srv.URL)).Call(context.Background(), "fail", nil, nil)
	var callErr *CallError
	if !errors.As(err, &callErr) || callErr.Message != "out of coffee" {
		t.Fatalf("error = %v", err)
	}
	if !strings.Contains(err.Error(), "HandlerError") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(testDispatcher(t))
	defer srv.Close()

	c := New(NewHTTPTransport(srv.URL), WithTimeout(20*time.Millisecond))
	err := c.Call(context.Background(), "sleep", 2000, nil)
	if KindOf(err) != KindTimeout {
		t.Fatalf("error = %v, want TimeoutError", err)
	}
}

func TestTimeoutWithBlockingTransport(t *testing.T) {
	block := funcTransport(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	start := time.Now()
	err := New(block, WithTimeout(10*time.Millisecond)).Call(context.Background(), "x", nil, nil)
	if KindOf(err) != KindTimeout {
		t.Fatalf("error = %v, want TimeoutError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("errors.Is(err, DeadlineExceeded) = false")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("call blocked past its timeout")
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := New(NewHTTPTransport(url)).Call(context.Background(), "sum", sumArgs{}, nil)
	if KindOf(err) != KindNetwork {
		t.Fatalf("error = %v, want NetworkError", err)
	}
}

func TestUnexpectedStatusIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(NewHTTPTransport(srv.URL)).Call(context.Background(), "sum", nil, nil)
	if KindOf(err) != KindNetwork {
		t.Fatalf("error = %v, want NetworkError", err)
	}
}

func TestMismatchedCorrelationID(t *testing.T) {
	wrong := funcTransport(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
		return protocol.Success("someone-else", nil), nil
	})
	err := New(wrong).Call(context.Background(), "x", nil, nil)
	if KindOf(err) != KindNetwork {
		t.Fatalf("error = %v, want NetworkError", err)
	}
}

func TestEmptyNameFailsBeforeDelivery(t *testing.T) {
	called := false
	tr := funcTransport(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
		called = true
		return protocol.Success(req.CorrelationID, nil), nil
	})

	err := New(tr).Call(context.Background(), "", nil, nil)
	if KindOf(err) != KindUnknownProcedure {
		t.Fatalf("error = %v, want UnknownProcedure", err)
	}
	if !errors.Is(err, protocol.ErrMissingName) {
		t.Errorf("error = %v, want it to wrap ErrMissingName", err)
	}
	if called {
		t.Error("transport was called for an empty name")
	}
}

func TestResultDecodeFailureIsCallError(t *testing.T) {
	srv := httptest.NewServer(testDispatcher(t))
	defer srv.Close()

	var out string
	err := New(NewHTTPTransport(srv.URL)).Call(context.Background(), "sum", sumArgs{Values: []int{1}}, &out)
	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("error = %v, want *CallError", err)
	}
	if callErr.Kind != KindInvalidResult || callErr.Procedure != "sum" {
		t.Errorf("CallError = %+v", callErr)
	}
	if callErr.Err == nil {
		t.Error("Err is nil, want the decode error")
	}
}

func TestCallUsesIDGenerator(t *testing.T) {
	var seen string
	echo := funcTransport(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
		seen = req.CorrelationID
		return protocol.Success(req.CorrelationID, []byte(`"ok"`)), nil
	})
	c := New(echo, WithIDGenerator(func() string { return "fixed-id" }))

	got, err := Invoke[string](context.Background(), c, "x", nil)
	if err != nil || got != "ok" {
		t.Fatalf("Invoke() = %q, %v", got, err)
	}
	if seen != "fixed-id" {
		t.Errorf("correlation id = %q, want fixed-id", seen)
	}
}

func TestWebSocketConcurrentCalls(t *testing.T) {
	d := testDispatcher(t)
	srv := httptest.NewServer(http.HandlerFunc(d.ServeWebSocket))
	defer srv.Close()

	tr, err := DialWebSocket(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("DialWebSocket() error = %v", err)
	}
	defer tr.Close()
	c := New(tr, WithTimeout(5*time.Second))

	const n = 12
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Earlier calls sleep longer so responses arrive out of order.
			ms := (n - i) * 5
			got, err := Invoke[int](context.Background(), c, "sleep", ms)
			if err != nil {
				t.Errorf("call %d: %v", i, err)
				return
			}
			if got != ms {
				t.Errorf("call %d = %d, want %d", i, got, ms)
			}
		}(i)
	}
	wg.Wait()
}

func TestWebSocketCloseFailsPendingCalls(t *testing.T) {
	d := testDispatcher(t)
	srv := httptest.NewServer(http.HandlerFunc(d.ServeWebSocket))
	defer srv.Close()

	tr, err := DialWebSocket(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	c := New(tr, WithTimeout(5*time.Second))

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Call(context.Background(), "sleep", 3000, nil)
	}()
	time.Sleep(50 * time.Millisecond)
	tr.Close()

	select {
	case err := <-errCh:
		if KindOf(err) != KindNetwork {
			t.Errorf("error = %v, want NetworkError", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("pending call did not fail after Close")
	}

	if err := c.Call(context.Background(), "sum", sumArgs{}, nil); KindOf(err) != KindNetwork {
		t.Errorf("call after Close error = %v, want NetworkError", err)
	}
}

func TestCallErrorFormatting(t *testing.T) {
	err := &CallError{Kind: KindTimeout, Procedure: "p", Err: context.DeadlineExceeded}
	if got := err.Error(); got != fmt.Sprintf("call %q failed: TimeoutError: %v", "p", context.DeadlineExceeded) {
		t.Errorf("Error() = %q", got)
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("KindOf(plain error) should be empty")
	}
}
