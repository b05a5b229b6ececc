package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

// === Request Benchmarks ===

var benchRequest = &Request{
	Name:          "posts.list",
	Args:          json.RawMessage(`{"author":"ada","tags":["go","web"],"limit":20,"offset":40}`),
	CorrelationID: "0f8fad5b-d9cb-469f-a165-70867728950e",
}

func BenchmarkRequest_Encode(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeRequest(benchRequest); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRequest_Decode(b *testing.B) {
	data, _ := EncodeRequest(benchRequest)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeRequest(data); err != nil {
			b.Fatal(err)
		}
	}
}

// === Response Benchmarks ===

func BenchmarkResponse_EncodeSuccess(b *testing.B) {
	value := json.RawMessage(`[{"id":1,"title":"hello"},{"id":2,"title":"world"}]`)
	resp := Success("0f8fad5b", value)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeResponse(resp); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkResponse_DecodeSuccess(b *testing.B) {
	data, _ := EncodeResponse(Success("0f8fad5b", json.RawMessage(`{"ok":1}`)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeResponse(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkResponse_DecodeFailure(b *testing.B) {
	data, _ := EncodeResponse(Failure("0f8fad5b", KindHandlerError, "not found"))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeResponse(data); err != nil {
			b.Fatal(err)
		}
	}
}

// === Limit Benchmarks ===

func BenchmarkCheckDepth_Flat(b *testing.B) {
	raw := []byte(`{"a":1,"b":2,"c":[1,2,3],"d":"text"}`)
	for i := 0; i < b.N; i++ {
		CheckDepth(raw, MaxArgsDepth)
	}
}

func BenchmarkCheckDepth_AtLimit(b *testing.B) {
	raw := []byte(strings.Repeat("[", MaxArgsDepth) + strings.Repeat("]", MaxArgsDepth))
	for i := 0; i < b.N; i++ {
		CheckDepth(raw, MaxArgsDepth)
	}
}
