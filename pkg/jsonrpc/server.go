package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	relerrors "thoreinstein.com/relnote/pkg/errors"
)

// protocolVersion is the protocol revision reported to clients during
// initialize.
const protocolVersion = "2024-11-05"

// Handler executes one tool call. Arguments have already passed the
// tool's input schema; the handler still owns semantic validation and
// default values.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Tool is one registered operation: metadata the client can list,
// plus the handler that runs it.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
	Handler     Handler
}

// Server dispatches framed JSON-RPC requests to registered tools.
// Register all tools before Run; the registry is never mutated
// afterwards. Requests are handled one at a time in arrival order.
type Server struct {
	name    string
	version string
	logger  *slog.Logger

	tools  []Tool
	byName map[string]int
}

// NewServer creates a server that will identify itself to clients
// with the given name and version.
func NewServer(name, version string, logger *slog.Logger) *Server {
	return &Server{
		name:    name,
		version: version,
		logger:  logger,
		byName:  map[string]int{},
	}
}

// Register adds a tool. Registration order is the order tools/list
// reports. Registering a duplicate name panics: that is a programming
// error, not a runtime condition.
func (s *Server) Register(t Tool) {
	if _, dup := s.byName[t.Name]; dup {
		panic(fmt.Sprintf("jsonrpc: duplicate tool %q", t.Name))
	}
	s.byName[t.Name] = len(s.tools)
	s.tools = append(s.tools, t)
	s.logger.Info("registered tool", "name", t.Name)
}

// Run serves requests from in and writes responses to out until EOF,
// a write failure, or ctx cancellation. Framing errors produce an
// error response with a null id and the loop continues; a clean EOF
// returns nil.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := NewFrameReader(in)
	writer := NewFrameWriter(out)
	s.logger.Info("server starting", "name", s.name, "version", s.version, "tools", len(s.tools))

	for {
		if err := ctx.Err(); err != nil {
			s.logger.Info("server stopping", "reason", "context cancelled")
			return err
		}

		body, err := reader.Next()
		if err == io.EOF {
			s.logger.Info("eof received, shutting down")
			return nil
		}
		if err != nil {
			// Framing is broken; report it with a null id and keep
			// reading, per the protocol contract for parse failures.
			s.logger.Error("framing error", "error", err)
			if werr := s.writeResponse(writer, NewErrorResponse(nil, err)); werr != nil {
				return werr
			}
			continue
		}

		resp := s.handle(ctx, body)
		if resp == nil {
			continue
		}
		if err := s.writeResponse(writer, resp); err != nil {
			return err
		}
	}
}

func (s *Server) writeResponse(w *FrameWriter, resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		// A response we built but cannot serialize is a server bug.
		s.logger.Error("failed to marshal response", "error", err)
		data, _ = json.Marshal(NewErrorResponse(resp.ID, relerrors.NewInternalError("response serialization failed")))
	}
	return w.Write(data)
}

// handle parses and dispatches one message. A nil return means no
// response is owed (the request was a notification).
func (s *Server) handle(ctx context.Context, body []byte) *Response {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return NewErrorResponse(nil, relerrors.NewParseError(err.Error()))
	}

	if err := req.Validate(); err != nil {
		if req.IsNotification() {
			s.logger.Error("invalid notification dropped", "error", err)
			return nil
		}
		return NewErrorResponse(req.ID, err)
	}

	s.logger.Debug("received request", "method", req.Method, "id", req.ID)

	result, err := s.dispatch(ctx, &req)
	if req.IsNotification() {
		if err != nil {
			s.logger.Error("error handling notification", "method", req.Method, "error", err)
		}
		return nil
	}
	if err != nil {
		return NewErrorResponse(req.ID, err)
	}
	return NewResponse(req.ID, result)
}

func (s *Server) dispatch(ctx context.Context, req *Request) (any, error) {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(), nil
	case "notifications/initialized":
		// Client acknowledgment, nothing to do.
		return nil, nil
	case "tools/list":
		return s.handleToolsList(), nil
	case "tools/call":
		return s.handleToolsCall(ctx, req.Params)
	default:
		return nil, relerrors.NewMethodNotFound(req.Method)
	}
}

func (s *Server) handleInitialize() any {
	s.logger.Info("received initialize request")
	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    s.name,
			"version": s.version,
		},
	}
}

func (s *Server) handleToolsList() any {
	list := make([]map[string]any, 0, len(s.tools))
	for _, t := range s.tools {
		list = append(list, map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"inputSchema": t.InputSchema,
		})
	}
	return map[string]any{"tools": list}
}

// toolCallParams is the params shape of a tools/call request.
type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (result any, err error) {
	var call toolCallParams
	if len(params) > 0 {
		if uerr := json.Unmarshal(params, &call); uerr != nil {
			return nil, relerrors.NewInvalidParams("params must be an object").WithCause(uerr)
		}
	}
	if call.Name == "" {
		return nil, relerrors.NewInvalidParams("missing \"name\" parameter")
	}

	idx, ok := s.byName[call.Name]
	if !ok {
		return nil, relerrors.NewMethodNotFound(call.Name)
	}
	tool := s.tools[idx]

	// An omitted arguments field means "all defaults"; hand the
	// handler an empty object so it can unmarshal normally.
	if len(call.Arguments) == 0 {
		call.Arguments = json.RawMessage("{}")
	}

	if err := ValidateArgs(tool.InputSchema, call.Arguments); err != nil {
		return nil, err
	}

	s.logger.Info("calling tool", "name", call.Name)

	// A panicking handler must not take the whole server down; it
	// becomes an internal error on this one request.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tool handler panicked", "name", call.Name, "panic", r)
			result = nil
			err = relerrors.NewInternalError(fmt.Sprintf("tool %q failed", call.Name))
		}
	}()

	out, err := tool.Handler(ctx, call.Arguments)
	if err != nil {
		if _, typed := relerrors.AsRPCError(err); typed {
			return nil, err
		}
		s.logger.Error("tool handler failed", "name", call.Name, "error", err)
		return nil, relerrors.NewInternalError(fmt.Sprintf("tool %q failed: %v", call.Name, err)).WithCause(err)
	}

	text, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, relerrors.NewInternalError("tool result serialization failed").WithCause(err)
	}
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(text)},
		},
	}, nil
}
