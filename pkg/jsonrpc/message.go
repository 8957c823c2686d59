// Package jsonrpc implements a JSON-RPC 2.0 server over a pair of
// byte streams with Content-Length framing, as used by editor and
// agent protocols. One connection, one request at a time, responses
// in request order.
package jsonrpc

import (
	"encoding/json"

	relerrors "thoreinstein.com/relnote/pkg/errors"
)

// Version is the only protocol version accepted or emitted.
const Version = "2.0"

// Request is an incoming JSON-RPC request or notification. ID is nil
// for notifications; otherwise it is a string or a number and is
// echoed back verbatim.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no id and
// therefore must not receive a response.
func (r *Request) IsNotification() bool {
	return r.ID == nil
}

// Validate checks the envelope structure, not the method semantics.
func (r *Request) Validate() error {
	if r.JSONRPC != Version {
		return relerrors.NewInvalidRequest("must specify \"jsonrpc\": \"2.0\"")
	}
	if r.Method == "" {
		return relerrors.NewInvalidRequest("missing \"method\" field")
	}
	switch r.ID.(type) {
	case nil, string, float64:
	default:
		return relerrors.NewInvalidRequest("request \"id\" must be a string, number, or null")
	}
	return nil
}

// ErrorObject is the wire form of a JSON-RPC error.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Response is an outgoing JSON-RPC response. Exactly one of Result
// and Error is set.
type Response struct {
	JSONRPC string       `json:"jsonrpc"`
	ID      any          `json:"id"`
	Result  any          `json:"result,omitempty"`
	Error   *ErrorObject `json:"error,omitempty"`
}

// NewResponse builds a success response for id.
func NewResponse(id, result any) *Response {
	return &Response{JSONRPC: Version, ID: id, Result: result}
}

// NewErrorResponse builds an error response for id. Typed errors keep
// their code and detail; anything else becomes an internal error.
func NewErrorResponse(id any, err error) *Response {
	obj := &ErrorObject{
		Code:    relerrors.CodeInternalError,
		Message: "Internal error",
	}
	if rpcErr, ok := relerrors.AsRPCError(err); ok {
		obj.Code = rpcErr.Code
		obj.Message = rpcErr.Message
		if rpcErr.Detail != "" {
			obj.Data = rpcErr.Detail
		}
	} else if err != nil {
		obj.Data = err.Error()
	}
	return &Response{JSONRPC: Version, ID: id, Error: obj}
}
