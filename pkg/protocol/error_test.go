package protocol

import (
	"strings"
	"testing"
)

func TestErrorKindValid(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want bool
	}{
		{KindUnknownProcedure, true},
		{KindInvalidArguments, true},
		{KindHandlerError, true},
		{KindRateLimited, true},
		{"", false},
		{"NetworkError", false},
	}
	for _, tt := range tests {
		if got := tt.kind.Valid(); got != tt.want {
			t.Errorf("%q.Valid() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewError(KindHandlerError, "database down")
	if got := err.Error(); got != "HandlerError: database down" {
		t.Errorf("Error() = %q", got)
	}
	if got := NewError(KindUnknownProcedure, "").Error(); got != "UnknownProcedure" {
		t.Errorf("Error() = %q", got)
	}
}

func TestCheckDepth(t *testing.T) {
	shallow := strings.Repeat("[", 3) + strings.Repeat("]", 3)
	if err := CheckDepth([]byte(shallow), 3); err != nil {
		t.Errorf("CheckDepth(depth 3, max 3) = %v", err)
	}
	if err := CheckDepth([]byte(shallow), 2); err != ErrMaxDepthExceeded {
		t.Errorf("CheckDepth(depth 3, max 2) = %v, want ErrMaxDepthExceeded", err)
	}
	if err := CheckDepth([]byte(`{"a":{"b":1},"c":[1,2]}`), 2); err != nil {
		t.Errorf("CheckDepth(siblings) = %v", err)
	}
}
