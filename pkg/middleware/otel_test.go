package middleware

import (
	"context"
	"encoding/json"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/helium-dev/helium/pkg/procedure"
	"github.com/helium-dev/helium/pkg/protocol"
)

func remoteParent() (context.Context, trace.SpanContext) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02, 0x03},
		SpanID:     trace.SpanID{0x04, 0x05},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	return trace.ContextWithRemoteSpanContext(context.Background(), sc), sc
}

func TestOpenTelemetryPropagatesTraceContext(t *testing.T) {
	ctx, parent := remoteParent()
	ctx = procedure.WithCallInfo(ctx, procedure.CallInfo{Transport: "http"})

	extracted := false
	mw := OpenTelemetry(
		WithTracerName("test"),
		WithAttributeExtractor(func(ctx context.Context, req *protocol.Request) []attribute.KeyValue {
			extracted = true
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	)

	var seen trace.SpanContext
	next := func(ctx context.Context, req *protocol.Request) *protocol.Response {
		seen = trace.SpanContextFromContext(ctx)
		return protocol.Success(req.CorrelationID, json.RawMessage(`"pong"`))
	}

	resp := mw(next)(ctx, &protocol.Request{Name: "helium.ping", CorrelationID: "c1"})
	if !resp.OK || string(resp.Value) != `"pong"` {
		t.Fatalf("response = %+v, want pong", resp)
	}
	if seen.TraceID() != parent.TraceID() {
		t.Errorf("handler trace id = %s, want %s", seen.TraceID(), parent.TraceID())
	}
	if !extracted {
		t.Error("attribute extractor was not called")
	}
}

func TestOpenTelemetryPassesFailuresThrough(t *testing.T) {
	mw := OpenTelemetry()
	next := func(ctx context.Context, req *protocol.Request) *protocol.Response {
		return protocol.Failure(req.CorrelationID, protocol.KindHandlerError, "boom")
	}

	resp := mw(next)(context.Background(), &protocol.Request{Name: "fail", CorrelationID: "c2"})
	if resp.OK || resp.Kind != protocol.KindHandlerError || resp.Message != "boom" {
		t.Errorf("response = %+v, want HandlerError boom", resp)
	}
}

func TestOpenTelemetryFilterSkipsSpan(t *testing.T) {
	filtered := false
	mw := OpenTelemetry(WithCallFilter(func(req *protocol.Request) bool {
		filtered = true
		return req.Name != "helium.ping"
	}))

	ctx := context.Background()
	var span trace.Span
	next := func(ctx context.Context, req *protocol.Request) *protocol.Response {
		span = trace.SpanFromContext(ctx)
		return protocol.Success(req.CorrelationID, json.RawMessage(`null`))
	}
	mw(next)(ctx, &protocol.Request{Name: "helium.ping"})

	if !filtered {
		t.Fatal("filter was not consulted")
	}
	if span.SpanContext().IsValid() {
		t.Error("filtered call carried a span context")
	}
}

func TestSpanName(t *testing.T) {
	if got := spanName(&protocol.Request{Name: "users.get"}); got != "helium.rpc/users.get" {
		t.Errorf("spanName = %q", got)
	}
	if got := spanName(&protocol.Request{}); got != "helium.rpc" {
		t.Errorf("spanName(empty) = %q", got)
	}
}
