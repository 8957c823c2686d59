// Package errors provides typed errors for the relnote project.
//
// Errors are split into two namespaces mirroring the wire protocol:
// protocol errors (parse error, invalid request, method not found,
// invalid params, internal error) and domain errors (git repository and
// config-file failures). Every typed error carries the numeric code the
// protocol engine writes into error responses, so the engine never
// needs a switch over error kinds. All types support errors.Is() and
// errors.As() from the standard library and cockroachdb/errors.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Protocol error codes (JSON-RPC 2.0 reserved range).
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Domain error codes (implementation-defined server range).
const (
	CodeRepoNotFound    = -32001
	CodeInvalidRef      = -32002
	CodeEmptyRange      = -32003
	CodeLimitExceeded   = -32004
	CodeGitTimeout      = -32005
	CodeFileNotFound    = -32006
	CodeInvalidJSONFile = -32007
)

// RPCError is an error that maps directly onto a protocol error object:
// a numeric code, a short stable message, and an optional detail string
// with actionable context.
type RPCError struct {
	Code    int
	Message string
	Detail  string
	Cause   error
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%d): %s", e.Message, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Code)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *RPCError) Unwrap() error {
	return e.Cause
}

// WithCause attaches an underlying cause and returns the receiver.
func (e *RPCError) WithCause(cause error) *RPCError {
	e.Cause = cause
	return e
}

// NewParseError reports malformed JSON on the wire (-32700).
func NewParseError(detail string) *RPCError {
	return &RPCError{Code: CodeParseError, Message: "Parse error", Detail: detail}
}

// NewInvalidRequest reports a structurally invalid request envelope or
// broken framing (-32600).
func NewInvalidRequest(detail string) *RPCError {
	return &RPCError{Code: CodeInvalidRequest, Message: "Invalid Request", Detail: detail}
}

// NewMethodNotFound reports an unknown method or tool name (-32601).
func NewMethodNotFound(method string) *RPCError {
	return &RPCError{
		Code:    CodeMethodNotFound,
		Message: "Method not found",
		Detail:  fmt.Sprintf("method %q not found", method),
	}
}

// NewInvalidParams reports arguments that fail a tool's input schema (-32602).
func NewInvalidParams(detail string) *RPCError {
	return &RPCError{Code: CodeInvalidParams, Message: "Invalid params", Detail: detail}
}

// NewInternalError reports an unexpected server fault (-32603). The
// detail string is what remote callers see; implementation specifics
// belong on the diagnostic log, not here.
func NewInternalError(detail string) *RPCError {
	return &RPCError{Code: CodeInternalError, Message: "Internal error", Detail: detail}
}

// NewRepoNotFound reports that the working directory is not inside a
// git repository.
func NewRepoNotFound(path string) *RPCError {
	return &RPCError{
		Code:    CodeRepoNotFound,
		Message: "Git repository not found",
		Detail:  fmt.Sprintf("no git repository at %q; run 'git init' or change to a repository root", path),
	}
}

// NewInvalidRef reports a ref that does not resolve to a commit.
func NewInvalidRef(ref string) *RPCError {
	return &RPCError{
		Code:    CodeInvalidRef,
		Message: "Invalid git ref",
		Detail:  fmt.Sprintf("ref %q not found; run 'git tag --list' or 'git branch -a' to see available refs", ref),
	}
}

// NewEmptyRange reports that no commits exist between two refs.
func NewEmptyRange(fromRef, toRef string) *RPCError {
	return &RPCError{
		Code:    CodeEmptyRange,
		Message: "Empty commit range",
		Detail:  fmt.Sprintf("no commits between %q and %q", fromRef, toRef),
	}
}

// NewLimitExceeded reports a commit range larger than the allowed
// maximum. The range is rejected outright rather than truncated so that
// aggregate statistics are never computed over a partial window.
func NewLimitExceeded(count, maxCommits int) *RPCError {
	return &RPCError{
		Code:    CodeLimitExceeded,
		Message: "Commit limit exceeded",
		Detail:  fmt.Sprintf("found %d commits but limit is %d; use a smaller range or raise max_commits", count, maxCommits),
	}
}

// NewGitTimeout reports a git subprocess that exceeded its deadline.
func NewGitTimeout(seconds int) *RPCError {
	return &RPCError{
		Code:    CodeGitTimeout,
		Message: "Git operation timeout",
		Detail:  fmt.Sprintf("git operation exceeded the %d second timeout; try a smaller commit range", seconds),
	}
}

// NewFileNotFound reports a required file that does not exist. Optional
// config files are not errors and never reach this constructor.
func NewFileNotFound(path string) *RPCError {
	return &RPCError{
		Code:    CodeFileNotFound,
		Message: "File not found",
		Detail:  fmt.Sprintf("file %q does not exist", path),
	}
}

// NewInvalidJSONFile reports a config file that exists but cannot be
// used: malformed JSON or fields of the wrong type.
func NewInvalidJSONFile(path, detail string) *RPCError {
	return &RPCError{
		Code:    CodeInvalidJSONFile,
		Message: "Invalid JSON file",
		Detail:  fmt.Sprintf("file %q is not usable: %s", path, detail),
	}
}

// AsRPCError extracts an *RPCError from anywhere in the chain.
func AsRPCError(err error) (*RPCError, bool) {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr, true
	}
	return nil, false
}

// IsProtocolError reports whether err carries a protocol-namespace code.
func IsProtocolError(err error) bool {
	if rpcErr, ok := AsRPCError(err); ok {
		return rpcErr.Code == CodeParseError || (rpcErr.Code >= CodeInternalError && rpcErr.Code <= CodeInvalidRequest)
	}
	return false
}

// IsDomainError reports whether err carries a domain-namespace code.
func IsDomainError(err error) bool {
	if rpcErr, ok := AsRPCError(err); ok {
		return rpcErr.Code >= CodeInvalidJSONFile && rpcErr.Code <= CodeRepoNotFound
	}
	return false
}

// HasCode reports whether err carries the given error code.
func HasCode(err error, code int) bool {
	if rpcErr, ok := AsRPCError(err); ok {
		return rpcErr.Code == code
	}
	return false
}

// Re-export commonly used functions from cockroachdb/errors for
// convenience, so consumers can use relerrors.Wrap() without importing
// two packages.
var (
	// New creates a new error with the given message.
	New = errors.New

	// Newf creates a new error with formatted message.
	Newf = errors.Newf

	// Wrap wraps an error with additional context.
	Wrap = errors.Wrap

	// Wrapf wraps an error with formatted additional context.
	Wrapf = errors.Wrapf

	// Is reports whether any error in err's chain matches target.
	Is = errors.Is

	// As finds the first error in err's chain that matches target.
	As = errors.As

	// Cause returns the root cause of an error.
	Cause = errors.Cause
)
