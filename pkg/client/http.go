package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/helium-dev/helium/pkg/protocol"
)

// HTTPTransport sends each call as one POST request.
type HTTPTransport struct {
	url    string
	client *http.Client
	header http.Header
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient sets the underlying HTTP client. Default: http.DefaultClient.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(t *HTTPTransport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) HTTPOption {
	return func(t *HTTPTransport) {
		t.header.Add(key, value)
	}
}

// NewHTTPTransport creates a transport posting to url.
func NewHTTPTransport(url string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		url:    url,
		client: http.DefaultClient,
		header: make(http.Header),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RoundTrip implements Transport.
func (t *HTTPTransport) RoundTrip(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	body, err := protocol.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for key, values := range t.header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, protocol.DefaultMaxMessageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > protocol.DefaultMaxMessageSize {
		return nil, fmt.Errorf("response exceeds %d bytes", protocol.DefaultMaxMessageSize)
	}

	if !hasEnvelope(httpResp) {
		return nil, fmt.Errorf("unexpected HTTP status %d: %s", httpResp.StatusCode, bytes.TrimSpace(data))
	}
	return protocol.DecodeResponse(data)
}

// hasEnvelope reports whether the response body is a protocol envelope.
func hasEnvelope(resp *http.Response) bool {
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}
