package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	relerrors "thoreinstein.com/relnote/pkg/errors"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer("relnote-test", "0.0.1", slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Register(Tool{
		Name:        "echo",
		Description: "Returns its message argument.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"message": map[string]any{"type": "string"},
			},
			"required":             []any{"message"},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var p struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(args, &p); err != nil {
				return nil, relerrors.NewInvalidParams(err.Error())
			}
			return map[string]any{"echo": p.Message}, nil
		},
	})
	s.Register(Tool{
		Name:        "fail",
		Description: "Always returns a domain error.",
		InputSchema: map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			return nil, relerrors.NewEmptyRange("v1", "v1")
		},
	})
	s.Register(Tool{
		Name:        "explode",
		Description: "Always panics.",
		InputSchema: map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			panic("boom")
		},
	})
	return s
}

// roundTrip feeds framed requests through a server and decodes every
// framed response.
func roundTrip(t *testing.T, s *Server, requests ...string) []Response {
	t.Helper()

	var in bytes.Buffer
	for _, req := range requests {
		in.WriteString(frame(req))
	}
	var out bytes.Buffer
	require.NoError(t, s.Run(context.Background(), &in, &out))

	var responses []Response
	r := NewFrameReader(&out)
	for {
		body, err := r.Next()
		if err == io.EOF {
			return responses
		}
		require.NoError(t, err)
		var resp Response
		require.NoError(t, json.Unmarshal(body, &resp))
		responses = append(responses, resp)
	}
}

func TestInitialize(t *testing.T) {
	resps := roundTrip(t, testServer(t), `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	require.Len(t, resps, 1)
	require.Nil(t, resps[0].Error)
	assert.Equal(t, float64(1), resps[0].ID)

	result := resps[0].Result.(map[string]any)
	assert.Equal(t, "2024-11-05", result["protocolVersion"])
	info := result["serverInfo"].(map[string]any)
	assert.Equal(t, "relnote-test", info["name"])
	assert.Contains(t, result, "capabilities")
}

func TestToolsListPreservesRegistrationOrder(t *testing.T) {
	resps := roundTrip(t, testServer(t), `{"jsonrpc":"2.0","id":"list-1","method":"tools/list"}`)
	require.Len(t, resps, 1)
	require.Nil(t, resps[0].Error)
	assert.Equal(t, "list-1", resps[0].ID)

	tools := resps[0].Result.(map[string]any)["tools"].([]any)
	require.Len(t, tools, 3)
	names := make([]string, len(tools))
	for i, tool := range tools {
		entry := tool.(map[string]any)
		names[i] = entry["name"].(string)
		assert.Contains(t, entry, "description")
		assert.Contains(t, entry, "inputSchema")
	}
	assert.Equal(t, []string{"echo", "fail", "explode"}, names)
}

func TestToolsCallSuccess(t *testing.T) {
	resps := roundTrip(t, testServer(t),
		`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"echo","arguments":{"message":"hi"}}}`)
	require.Len(t, resps, 1)
	require.Nil(t, resps[0].Error)

	content := resps[0].Result.(map[string]any)["content"].([]any)
	require.Len(t, content, 1)
	block := content[0].(map[string]any)
	assert.Equal(t, "text", block["type"])

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(block["text"].(string)), &payload))
	assert.Equal(t, "hi", payload["echo"])
}

func TestToolsCallOmittedArgumentsUsesDefaults(t *testing.T) {
	s := NewServer("relnote-test", "0.0.1", slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Register(Tool{
		Name:        "greet",
		Description: "Greets with an optional name.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"who": map[string]any{"type": "string"},
			},
			"additionalProperties": false,
		},
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var p struct {
				Who string `json:"who"`
			}
			if err := json.Unmarshal(args, &p); err != nil {
				return nil, relerrors.NewInvalidParams(err.Error())
			}
			if p.Who == "" {
				p.Who = "world"
			}
			return map[string]any{"greeting": "hello " + p.Who}, nil
		},
	})

	// No arguments field at all: handlers still get a decodable object.
	resps := roundTrip(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"greet"}}`)
	require.Len(t, resps, 1)
	require.Nil(t, resps[0].Error, "error = %+v", resps[0].Error)

	block := resps[0].Result.(map[string]any)["content"].([]any)[0].(map[string]any)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(block["text"].(string)), &payload))
	assert.Equal(t, "hello world", payload["greeting"])
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name     string
		request  string
		wantCode int
	}{
		{
			"unknown method",
			`{"jsonrpc":"2.0","id":1,"method":"does/not/exist"}`,
			relerrors.CodeMethodNotFound,
		},
		{
			"unknown tool",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope"}}`,
			relerrors.CodeMethodNotFound,
		},
		{
			"missing tool name",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{}}`,
			relerrors.CodeInvalidParams,
		},
		{
			"missing required argument",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{}}}`,
			relerrors.CodeInvalidParams,
		},
		{
			"unknown argument rejected",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"message":"hi","extra":1}}}`,
			relerrors.CodeInvalidParams,
		},
		{
			"wrong argument type",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"message":42}}}`,
			relerrors.CodeInvalidParams,
		},
		{
			"wrong protocol version",
			`{"jsonrpc":"1.0","id":1,"method":"initialize"}`,
			relerrors.CodeInvalidRequest,
		},
		{
			"missing method",
			`{"jsonrpc":"2.0","id":1}`,
			relerrors.CodeInvalidRequest,
		},
		{
			"domain error passthrough",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"fail"}}`,
			relerrors.CodeEmptyRange,
		},
		{
			"handler panic",
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"explode"}}`,
			relerrors.CodeInternalError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resps := roundTrip(t, testServer(t), tt.request)
			require.Len(t, resps, 1)
			require.NotNil(t, resps[0].Error)
			assert.Equal(t, tt.wantCode, resps[0].Error.Code)
			assert.Nil(t, resps[0].Result)
		})
	}
}

func TestParseErrorNullID(t *testing.T) {
	resps := roundTrip(t, testServer(t), `{"jsonrpc": not json`)
	require.Len(t, resps, 1)
	require.NotNil(t, resps[0].Error)
	assert.Equal(t, relerrors.CodeParseError, resps[0].Error.Code)
	assert.Nil(t, resps[0].ID)
}

func TestNotificationsGetNoResponse(t *testing.T) {
	resps := roundTrip(t, testServer(t),
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"fail"}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)

	// Only the id-bearing request is answered, even though the second
	// notification failed.
	require.Len(t, resps, 1)
	assert.Equal(t, float64(2), resps[0].ID)
}

func TestEveryRequestGetsExactlyOneResponse(t *testing.T) {
	requests := []string{
		`{"jsonrpc":"2.0","id":"a","method":"initialize"}`,
		`{"jsonrpc":"2.0","id":"b","method":"tools/call","params":{"name":"echo","arguments":{"message":"x"}}}`,
		`{"jsonrpc":"2.0","id":"c","method":"bogus"}`,
	}
	resps := roundTrip(t, testServer(t), requests...)
	require.Len(t, resps, len(requests))
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, resps[i].ID)
	}
}

func TestServerSurvivesFramingErrorBetweenRequests(t *testing.T) {
	var in bytes.Buffer
	in.WriteString("Content-Type: application/json\r\n\r\n")
	in.WriteString(frame(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))

	var out bytes.Buffer
	require.NoError(t, testServer(t).Run(context.Background(), &in, &out))

	var resps []Response
	r := NewFrameReader(&out)
	for {
		body, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		var resp Response
		require.NoError(t, json.Unmarshal(body, &resp))
		resps = append(resps, resp)
	}

	require.Len(t, resps, 2)
	require.NotNil(t, resps[0].Error)
	assert.Equal(t, relerrors.CodeInvalidRequest, resps[0].Error.Code)
	assert.Nil(t, resps[0].ID)
	assert.Nil(t, resps[1].Error)
}

func TestRequestValidate(t *testing.T) {
	valid := Request{JSONRPC: "2.0", ID: "x", Method: "initialize"}
	assert.NoError(t, valid.Validate())

	notification := Request{JSONRPC: "2.0", Method: "notifications/initialized"}
	assert.NoError(t, notification.Validate())
	assert.True(t, notification.IsNotification())

	badID := Request{JSONRPC: "2.0", ID: []any{1}, Method: "initialize"}
	err := badID.Validate()
	assert.True(t, relerrors.HasCode(err, relerrors.CodeInvalidRequest), "error = %v", err)
}

func TestDuplicateToolRegistrationPanics(t *testing.T) {
	s := NewServer("x", "0", slog.New(slog.NewTextHandler(io.Discard, nil)))
	tool := Tool{Name: "dup", InputSchema: map[string]any{"type": "object"}}
	s.Register(tool)
	assert.Panics(t, func() { s.Register(tool) })
}

func TestResponseMarshalShape(t *testing.T) {
	ok, err := json.Marshal(NewResponse("id-1", map[string]any{"k": "v"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"id-1","result":{"k":"v"}}`, string(ok))

	failed, err := json.Marshal(NewErrorResponse(nil, relerrors.NewMethodNotFound("x")))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(failed, &decoded))
	assert.Nil(t, decoded["id"])
	assert.NotContains(t, decoded, "result")
	errObj := decoded["error"].(map[string]any)
	assert.Equal(t, float64(relerrors.CodeMethodNotFound), errObj["code"])
	assert.True(t, strings.Contains(errObj["message"].(string), "Method not found"))
}
