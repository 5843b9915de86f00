package jsonrpc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	contentLengthHeader = "Content-Length"
	headerTerminator    = "\r\n\r\n"
)

// FramingError is returned by [FrameReader.Feed] when a header block doesn't carry a valid Content-Length.
type FramingError struct {
	Header string // The offending header block, without its terminator.
	Reason string
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("invalid message header %q: %s", e.Header, e.Reason)
}

type frameState int

const (
	awaitingHeader frameState = iota
	awaitingBody
)

// FrameReader reconstructs message payloads from a stream of bytes framed by Content-Length headers, as defined at
// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#baseProtocol.
// Bytes are passed to Feed as they arrive, regardless of how the stream is chunked.
type FrameReader struct {
	buf    []byte
	state  frameState
	length int // expected body length, valid in the awaitingBody state
}

// NewFrameReader returns a FrameReader which is awaiting a header.
func NewFrameReader() *FrameReader {
	return &FrameReader{}
}

// Feed appends p to the buffered bytes and returns the payloads of all messages which are now complete, in the order
// that they were received. Incomplete messages remain buffered until a later call completes them.
//
// If a header block has a missing or invalid Content-Length, it's discarded and a [*FramingError] is returned along
// with any payloads extracted by the same call. Reading resumes with the bytes following the discarded header.
func (r *FrameReader) Feed(p []byte) ([][]byte, error) {
	r.buf = append(r.buf, p...)
	var payloads [][]byte
	var errs []error
	for {
		switch r.state {
		case awaitingHeader:
			i := bytes.Index(r.buf, []byte(headerTerminator))
			if i == -1 {
				return payloads, errors.Join(errs...)
			}
			header := string(r.buf[:i])
			r.buf = r.buf[i+len(headerTerminator):]
			length, err := parseContentLength(header)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			r.length = length
			r.state = awaitingBody

		case awaitingBody:
			if len(r.buf) < r.length {
				return payloads, errors.Join(errs...)
			}
			payload := make([]byte, r.length)
			copy(payload, r.buf)
			payloads = append(payloads, payload)
			r.buf = r.buf[r.length:]
			if len(r.buf) == 0 {
				r.buf = nil
			}
			r.length = 0
			r.state = awaitingHeader
		}
	}
}

// Buffered returns the number of bytes which have been fed but not yet returned as part of a payload.
func (r *FrameReader) Buffered() int {
	return len(r.buf)
}

func parseContentLength(header string) (int, error) {
	for _, line := range strings.Split(header, "\r\n") {
		field, value, found := strings.Cut(line, ":")
		if !found || !strings.EqualFold(strings.TrimSpace(field), contentLengthHeader) {
			continue
		}
		value = strings.TrimSpace(value)
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, &FramingError{Header: header, Reason: fmt.Sprintf("%s value %q is not a number", contentLengthHeader, value)}
		}
		if n < 0 {
			return 0, &FramingError{Header: header, Reason: fmt.Sprintf("%s value %d is negative", contentLengthHeader, n)}
		}
		return n, nil
	}
	return 0, &FramingError{Header: header, Reason: fmt.Sprintf("missing %s header", contentLengthHeader)}
}

// WriteFrame writes a payload to w preceded by its Content-Length header.
func WriteFrame(w io.Writer, payload []byte) error {
	if _, err := fmt.Fprintf(w, "%s: %d%s%s", contentLengthHeader, len(payload), headerTerminator, payload); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}
