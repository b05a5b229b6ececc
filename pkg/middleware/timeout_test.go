package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/helium-dev/helium/pkg/procedure"
	"github.com/helium-dev/helium/pkg/protocol"
	"github.com/helium-dev/helium/pkg/transport"
)

func TestTimeout(t *testing.T) {
	reg := procedure.NewRegistry()
	reg.MustRegister("wait", procedure.NoArgs(func(ctx context.Context) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
			return "done", nil
		}
	}))
	reg.MustRegister("deadline", procedure.NoArgs(func(ctx context.Context) (bool, error) {
		_, ok := ctx.Deadline()
		return ok, nil
	}))

	d := transport.NewDispatcher(reg, transport.WithMiddleware(Timeout(20*time.Millisecond)))

	start := time.Now()
	resp := d.Dispatch(context.Background(), &protocol.Request{CorrelationID: "1", Name: "wait"})
	if time.Since(start) > 2*time.Second {
		t.Fatal("handler was not cancelled")
	}
	if e := resp.Err(); e == nil || e.Kind != protocol.KindHandlerError {
		t.Fatalf("resp = %+v, want HandlerError", resp)
	}
	if e := resp.Err(); e.Message != context.DeadlineExceeded.Error() {
		t.Errorf("Message = %q", e.Message)
	}

	resp = d.Dispatch(context.Background(), &protocol.Request{CorrelationID: "2", Name: "deadline"})
	if string(resp.Value) != "true" {
		t.Errorf("Value = %s, want true", resp.Value)
	}
}

func TestTimeoutDisabled(t *testing.T) {
	var sawDeadline bool
	next := func(ctx context.Context, req *protocol.Request) *protocol.Response {
		_, sawDeadline = ctx.Deadline()
		return protocol.Success(req.CorrelationID, nil)
	}
	Timeout(0)(next)(context.Background(), &protocol.Request{CorrelationID: "1", Name: "x"})
	if sawDeadline {
		t.Error("Timeout(0) set a deadline")
	}
}
