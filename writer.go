package main

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"unicode"
)

func capitalizeHeader(h string) string {
	ret := []rune(h)
	cap := true
	for i, r := range ret {
		if cap && unicode.IsLetter(r) {
			ret[i] = unicode.ToUpper(r)
			cap = false
		}
		if r == '-' {
			cap = true
		}
	}
	return string(ret)
}

// serializeResponse renders res in wire format. Headers are sorted so the
// output is stable.
func serializeResponse(res *Response) []byte {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "%s %d %s\r\n", res.Version, res.Status, res.Phrase)
	keys := make([]string, 0, len(res.Headers))
	for k := range res.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s: %s\r\n", capitalizeHeader(k), res.Headers[k])
	}
	buf.WriteString("\r\n")
	buf.Write(res.Body)
	return buf.Bytes()
}

// writeFull keeps writing until b is drained. A write that makes progress is
// retried even if it reported an error; one that makes none is fatal.
func writeFull(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		b = b[n:]
		if err != nil && (n == 0 || len(b) == 0) {
			return err
		}
		if err == nil && n == 0 {
			return io.ErrShortWrite
		}
	}
	return nil
}

func WriteResponse(w io.Writer, res *Response) error {
	return writeFull(w, serializeResponse(res))
}
