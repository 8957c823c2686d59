package jsonrpc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	relerrors "thoreinstein.com/relnote/pkg/errors"
)

// maxMessageSize bounds a single framed message. A request larger
// than this is almost certainly a framing bug on the client side.
const maxMessageSize = 16 << 20

// FrameReader reads Content-Length framed messages:
//
//	Content-Length: 123\r\n
//	\r\n
//	{"jsonrpc": "2.0", ...}
//
// Unknown headers are tolerated and ignored.
type FrameReader struct {
	r *bufio.Reader
}

// NewFrameReader wraps r for framed reads.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// Next returns the body of the next framed message. io.EOF signals a
// clean end of stream at a frame boundary; framing violations return
// an InvalidRequest error, leaving the caller to decide whether the
// stream is still usable.
func (fr *FrameReader) Next() ([]byte, error) {
	length := -1
	sawHeader := false

	for {
		line, err := fr.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" && !sawHeader {
				return nil, io.EOF
			}
			if err == io.EOF {
				return nil, relerrors.NewInvalidRequest("unexpected EOF inside message headers")
			}
			return nil, relerrors.NewInvalidRequest("failed to read header line").WithCause(err)
		}
		sawHeader = true

		header := strings.TrimRight(line, "\r\n")
		if header == "" {
			break
		}

		name, value, ok := strings.Cut(header, ":")
		if !ok {
			return nil, relerrors.NewInvalidRequest(fmt.Sprintf("malformed header line %q", header))
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, relerrors.NewInvalidRequest("invalid Content-Length header").WithCause(err)
			}
			length = n
		}
	}

	if length < 0 {
		return nil, relerrors.NewInvalidRequest("missing Content-Length header")
	}
	if length == 0 || length > maxMessageSize {
		// Skip the declared body so the next read lands on a frame
		// boundary instead of mid-body bytes.
		_, _ = io.CopyN(io.Discard, fr.r, int64(length))
		return nil, relerrors.NewInvalidRequest(fmt.Sprintf("invalid Content-Length: %d", length))
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(fr.r, body); err != nil {
		return nil, relerrors.NewInvalidRequest(
			fmt.Sprintf("incomplete message body, expected %d bytes", length)).WithCause(err)
	}
	return body, nil
}

// FrameWriter writes Content-Length framed messages. Safe for
// concurrent use; each message is written atomically with respect to
// other writers.
type FrameWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewFrameWriter wraps w for framed writes.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// Write frames and writes one message body.
func (fw *FrameWriter) Write(body []byte) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, err := fmt.Fprintf(fw.w, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return relerrors.Wrap(err, "writing frame header")
	}
	if _, err := fw.w.Write(body); err != nil {
		return relerrors.Wrap(err, "writing frame body")
	}
	return nil
}
