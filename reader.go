package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	ErrMalformedRequest = errors.New("malformed request")
	ErrRequestTooLarge  = errors.New("request too large")
)

const (
	readBufferSize = 1024
	maxRequestSize = 1 << 20

	crlf             = "\r\n"
	headerTerminator = "\r\n\r\n"
)

// readRaw reads from r in fixed-size passes until the header terminator shows
// up. A stream that ends early is returned as is and left to the parser; a
// stream that ends before the first byte is an error.
func readRaw(r io.Reader, bufSize, max int) ([]byte, error) {
	buf := make([]byte, bufSize)
	var data []byte
	for {
		n, err := r.Read(buf)
		if n > 0 {
			// the terminator may straddle two reads
			from := len(data) - (len(headerTerminator) - 1)
			if from < 0 {
				from = 0
			}
			data = append(data, buf[:n]...)
			if bytes.Contains(data[from:], []byte(headerTerminator)) {
				return data, nil
			}
		}
		if err != nil {
			if err == io.EOF && len(data) > 0 {
				return data, nil
			}
			return nil, err
		}
		if len(data) >= max {
			return nil, ErrRequestTooLarge
		}
	}
}

// ParseRequest splits a raw request into its request line, headers and body.
// The head is decoded lossily; the body is kept as raw bytes.
func ParseRequest(raw []byte) (*Request, error) {
	req := &Request{Headers: make(HTTPHeader)}

	head := raw
	if i := bytes.Index(raw, []byte(headerTerminator)); i >= 0 {
		head = raw[:i+len(crlf)]
		req.Body = raw[i+len(headerTerminator):]
		req.HasBody = true
	}
	text := lossyString(head)

	i := strings.Index(text, crlf)
	if i < 0 {
		return nil, fmt.Errorf("%w: no CRLF after request line", ErrMalformedRequest)
	}
	fields := strings.Fields(text[:i])
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: invalid request line %q", ErrMalformedRequest, text[:i])
	}
	req.Method = fields[0]
	req.Path = fields[1]
	if len(fields) > 2 {
		req.Version = fields[2]
	}

	parseHeaders(text[i+len(crlf):], req.Headers)
	return req, nil
}

// lossyString decodes b as UTF-8, replacing each maximal invalid subsequence
// with one U+FFFD.
func lossyString(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, n := utf8.DecodeRune(b)
		if r != utf8.RuneError || n > 1 {
			sb.Write(b[:n])
			b = b[n:]
			continue
		}
		sb.WriteRune(utf8.RuneError)
		b = b[invalidPrefixLen(b):]
	}
	return sb.String()
}

// invalidPrefixLen returns how many bytes of b belong to the ill-formed
// sequence at its start: a lead byte plus the continuation bytes that could
// still have completed it.
func invalidPrefixLen(b []byte) int {
	need, lo, hi := 0, byte(0x80), byte(0xBF)
	switch c := b[0]; {
	case c >= 0xC2 && c <= 0xDF:
		need = 1
	case c == 0xE0:
		need, lo = 2, 0xA0
	case c == 0xED:
		need, hi = 2, 0x9F
	case c >= 0xE1 && c <= 0xEF:
		need = 2
	case c == 0xF0:
		need, lo = 3, 0x90
	case c == 0xF4:
		need, hi = 3, 0x8F
	case c >= 0xF1 && c <= 0xF3:
		need = 3
	default:
		return 1
	}
	i := 1
	for ; i <= need && i < len(b); i++ {
		if b[i] < lo || b[i] > hi {
			break
		}
		lo, hi = 0x80, 0xBF
	}
	return i
}

// parseHeaders fills h from a CRLF separated block, stopping at the first
// empty line. Lines that are not "Name: value" are skipped.
func parseHeaders(block string, h HTTPHeader) {
	for _, line := range strings.Split(block, crlf) {
		if len(line) == 0 {
			break
		}
		kv := strings.SplitN(line, ": ", 2)
		if len(kv) != 2 {
			continue
		}
		h[kv[0]] = kv[1]
	}
}

func contentLength(h HTTPHeader) (int, error) {
	cls, ok := h["Content-Length"]
	if !ok {
		return 0, fmt.Errorf("No Content-Length")
	}
	cl, err := strconv.Atoi(strings.TrimSpace(cls))
	if err != nil || cl < 0 {
		return 0, fmt.Errorf("Invalid Content-Length: %q", cls)
	}
	return cl, nil
}

// readBody tops up req.Body from r until it holds Content-Length bytes. A
// stream that ends or times out leaves the body short.
func readBody(r io.Reader, req *Request, max int) error {
	if !req.HasBody {
		return nil
	}
	cl, err := contentLength(req.Headers)
	if err != nil {
		return nil
	}
	if cl > max {
		cl = max
	}

	buf := make([]byte, readBufferSize)
	for total := len(req.Body); total < cl; {
		var n int
		m := cl - total
		if len(buf) > m {
			n, err = r.Read(buf[:m])
		} else {
			n, err = r.Read(buf)
		}
		if n > 0 {
			req.Body = append(req.Body, buf[:n]...)
			total += n
		}
		if err != nil {
			var ne net.Error
			if err == io.EOF || errors.As(err, &ne) && ne.Timeout() {
				return nil
			}
			return err
		}
	}
	return nil
}

// RequestReader reads one request from a connection, up to what arrived with
// the header block. The rest of a body is left on the connection.
type RequestReader struct {
	r     io.Reader
	errCh chan error
	reqCh chan *Request
}

func NewRequestReader(r io.Reader) *RequestReader {
	// buffered so that an abandoned reader never blocks its goroutine
	return &RequestReader{r, make(chan error, 1), make(chan *Request, 1)}
}

func (r *RequestReader) Start() {
	go func() {
		req, err := r.read()
		if err != nil {
			r.errCh <- err
			return
		}
		r.reqCh <- req
	}()
}

func (r *RequestReader) read() (*Request, error) {
	raw, err := readRaw(r.r, readBufferSize, maxRequestSize)
	if err != nil {
		return nil, err
	}
	return ParseRequest(raw)
}

func (r *RequestReader) RequestReceived() <-chan *Request {
	return r.reqCh
}

func (r *RequestReader) ErrorOccurred() <-chan error {
	return r.errCh
}
