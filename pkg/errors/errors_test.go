package errors

import (
	"strings"
	"testing"
)

func TestRPCErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      *RPCError
		wantCode int
		protocol bool
		domain   bool
	}{
		{"parse error", NewParseError("bad json"), -32700, true, false},
		{"invalid request", NewInvalidRequest("no method"), -32600, true, false},
		{"method not found", NewMethodNotFound("nope"), -32601, true, false},
		{"invalid params", NewInvalidParams("missing from_ref"), -32602, true, false},
		{"internal error", NewInternalError("boom"), -32603, true, false},
		{"repo not found", NewRepoNotFound("/tmp/x"), -32001, false, true},
		{"invalid ref", NewInvalidRef("v9.9.9"), -32002, false, true},
		{"empty range", NewEmptyRange("v1.0.0", "v1.0.0"), -32003, false, true},
		{"limit exceeded", NewLimitExceeded(6, 5), -32004, false, true},
		{"git timeout", NewGitTimeout(30), -32005, false, true},
		{"file not found", NewFileNotFound("./x.json"), -32006, false, true},
		{"invalid json file", NewInvalidJSONFile("./x.json", "truncated"), -32007, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", tt.err.Code, tt.wantCode)
			}
			if got := IsProtocolError(tt.err); got != tt.protocol {
				t.Errorf("IsProtocolError() = %v, want %v", got, tt.protocol)
			}
			if got := IsDomainError(tt.err); got != tt.domain {
				t.Errorf("IsDomainError() = %v, want %v", got, tt.domain)
			}
			if !HasCode(tt.err, tt.wantCode) {
				t.Errorf("HasCode(%d) = false, want true", tt.wantCode)
			}
		})
	}
}

func TestAsRPCErrorThroughWrap(t *testing.T) {
	base := NewInvalidRef("main~999")
	wrapped := Wrap(base, "resolving refs")

	rpcErr, ok := AsRPCError(wrapped)
	if !ok {
		t.Fatal("AsRPCError() did not find RPCError in wrapped chain")
	}
	if rpcErr.Code != CodeInvalidRef {
		t.Errorf("Code = %d, want %d", rpcErr.Code, CodeInvalidRef)
	}
}

func TestWithCauseUnwraps(t *testing.T) {
	cause := New("exit status 128")
	err := NewRepoNotFound(".").WithCause(cause)

	if !Is(err, cause) {
		t.Error("Is() did not match the attached cause")
	}
}

func TestAsRPCErrorPlainError(t *testing.T) {
	if _, ok := AsRPCError(New("plain")); ok {
		t.Error("AsRPCError() matched a plain error")
	}
	if IsProtocolError(New("plain")) || IsDomainError(New("plain")) {
		t.Error("namespace helpers matched a plain error")
	}
}

func TestFormatUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "invalid ref suggests listing refs",
			err:  NewInvalidRef("v2.0"),
			want: []string{"Invalid git ref", "git tag --list", "git branch -a"},
		},
		{
			name: "limit exceeded suggests max-commits",
			err:  NewLimitExceeded(300, 200),
			want: []string{"Commit limit exceeded", "--max-commits"},
		},
		{
			name: "invalid json suggests fallback",
			err:  NewInvalidJSONFile("./ci.json", "unexpected end of input"),
			want: []string{"Invalid JSON file", "fall back to defaults"},
		},
		{
			name: "plain error passes through",
			err:  New("something else"),
			want: []string{"something else"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatUserError(tt.err)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("FormatUserError() = %q, missing %q", got, want)
				}
			}
		})
	}

	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}
