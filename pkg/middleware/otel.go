package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/helium-dev/helium/pkg/procedure"
	"github.com/helium-dev/helium/pkg/protocol"
	"github.com/helium-dev/helium/pkg/transport"
)

const defaultTracerName = "helium"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "helium").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: the global provider from otel.GetTracerProvider.
	TracerProvider trace.TracerProvider

	// Filter determines which calls to trace. If nil, all calls are traced.
	Filter func(req *protocol.Request) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(ctx context.Context, req *protocol.Request) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithCallFilter sets a filter function for calls.
func WithCallFilter(filter func(req *protocol.Request) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ctx context.Context, req *protocol.Request) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// OpenTelemetry creates middleware that starts a span for every call.
//
// The tracer comes from the global provider unless WithTracerProvider is
// given. Configure the provider in main() before serving:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) transport.Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(config.TracerName)

	return func(next transport.Invoker) transport.Invoker {
		return func(ctx context.Context, req *protocol.Request) *protocol.Response {
			if config.Filter != nil && !config.Filter(req) {
				return next(ctx, req)
			}

			attrs := []attribute.KeyValue{
				attribute.String("rpc.system", "helium"),
				attribute.String("rpc.method", req.Name),
				attribute.String("helium.correlation_id", req.CorrelationID),
			}
			if info, ok := procedure.InfoFromContext(ctx); ok && info.Transport != "" {
				attrs = append(attrs, attribute.String("helium.transport", info.Transport))
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(ctx, req)...)
			}

			ctx, span := tracer.Start(ctx, spanName(req),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			resp := next(ctx, req)

			if kind := outcome(resp); kind != "ok" {
				span.SetAttributes(attribute.String("helium.error_kind", kind))
				msg := kind
				if resp != nil && resp.Message != "" {
					msg = resp.Message
				}
				span.SetStatus(codes.Error, msg)
			} else {
				span.SetStatus(codes.Ok, "")
			}

			return resp
		}
	}
}

func spanName(req *protocol.Request) string {
	if req.Name == "" {
		return "helium.rpc"
	}
	return "helium.rpc/" + req.Name
}
