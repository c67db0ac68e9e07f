package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func ExpectStatus(t *testing.T, expect int, res *Response) {
	t.Helper()
	if res.Status != expect {
		t.Errorf("Got status %d, want %d", res.Status, expect)
	}
}

func newFileStore(t *testing.T) *fileStore {
	return &fileStore{dir: t.TempDir() + string(os.PathSeparator)}
}

func uploadRequest(body string, cl string) *Request {
	req := &Request{
		Method:  "POST",
		Headers: HTTPHeader{},
		Body:    []byte(body),
		HasBody: true,
	}
	if cl != "" {
		req.Headers["Content-Length"] = cl
	}
	return req
}

func readStored(t *testing.T, s *fileStore, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestUserAgent(t *testing.T) {
	res := userAgent(&Request{Headers: HTTPHeader{"User-Agent": "curl/8.0 (x86_64)"}}, "")
	ExpectStatus(t, 200, res)
	ExpectEqual(t, "curl/8.0 (x86_64)", string(res.Body))
	ExpectEqual(t, "17", res.Headers["Content-Length"])

	res = userAgent(&Request{Headers: HTTPHeader{"User-Agent": ""}}, "")
	ExpectStatus(t, 200, res)
	ExpectEqual(t, "0", res.Headers["Content-Length"])

	ExpectStatus(t, 400, userAgent(&Request{Headers: HTTPHeader{"user-agent": "x"}}, ""))
}

func TestFilePostGet(t *testing.T) {
	s := newFileStore(t)
	ExpectStatus(t, 201, s.post(uploadRequest("some content", "12"), "a.txt"))
	ExpectEqual(t, "some content", readStored(t, s, "a.txt"))

	res := s.get(&Request{Method: "GET"}, "a.txt")
	ExpectStatus(t, 200, res)
	ExpectEqual(t, "some content", string(res.Body))
	ExpectEqual(t, "12", res.Headers["Content-Length"])
	ExpectEqual(t, "application/octet-stream", res.Headers["Content-Type"])
}

func TestFilePostOverwrites(t *testing.T) {
	s := newFileStore(t)
	ExpectStatus(t, 201, s.post(uploadRequest("a much longer first version", "27"), "f"))
	ExpectStatus(t, 201, s.post(uploadRequest("second", "6"), "f"))
	ExpectEqual(t, "second", readStored(t, s, "f"))
}

func TestFilePostPadsToContentLength(t *testing.T) {
	s := newFileStore(t)
	ExpectStatus(t, 201, s.post(uploadRequest("abc", "6"), "pad"))
	ExpectEqual(t, "abc\x00\x00\x00", readStored(t, s, "pad"))
}

func TestFilePostTruncatesToContentLength(t *testing.T) {
	s := newFileStore(t)
	ExpectStatus(t, 201, s.post(uploadRequest("abcdef\r\n", "6"), "cut"))
	ExpectEqual(t, "abcdef", readStored(t, s, "cut"))
}

func TestFileBinaryContentPreserved(t *testing.T) {
	s := newFileStore(t)
	content := []byte{0x00, 0xff, ' ', '\n', 0x7f, '\t', 0x00}
	req := uploadRequest(string(content), strconv.Itoa(len(content)))
	ExpectStatus(t, 201, s.post(req, "bin"))

	res := s.get(&Request{Method: "GET"}, "bin")
	ExpectStatus(t, 200, res)
	if !bytes.Equal(content, res.Body) {
		t.Errorf("Got %v, want %v", res.Body, content)
	}
}

func TestFilePostFailures(t *testing.T) {
	s := newFileStore(t)

	ExpectStatus(t, 404, s.post(uploadRequest("abc", ""), "no-length"))
	ExpectStatus(t, 404, s.post(uploadRequest("abc", "three"), "bad-length"))

	noBody := uploadRequest("", "3")
	noBody.HasBody = false
	ExpectStatus(t, 404, s.post(noBody, "no-body"))

	ExpectStatus(t, 404, s.post(uploadRequest("abc", "3"), "missing-dir/file"))

	for _, name := range []string{"no-length", "bad-length", "no-body"} {
		if _, err := os.Stat(filepath.Join(s.dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s should not exist, stat: %v", name, err)
		}
	}
}

func TestFileGetFailures(t *testing.T) {
	s := newFileStore(t)
	ExpectStatus(t, 404, s.get(&Request{Method: "GET"}, "missing"))
	// the directory itself
	ExpectStatus(t, 404, s.get(&Request{Method: "GET"}, ""))
}

func TestFileNoDirectory(t *testing.T) {
	s := &fileStore{}
	ExpectStatus(t, 404, s.get(&Request{Method: "GET"}, "a"))
	ExpectStatus(t, 404, s.post(uploadRequest("abc", "3"), "a"))
}

func TestFilePathIsConcatenated(t *testing.T) {
	parent := t.TempDir()
	// no separator after the prefix: "<parent>/pre" + "fix.txt"
	s := &fileStore{dir: filepath.Join(parent, "pre")}
	ExpectStatus(t, 201, s.post(uploadRequest("x", "1"), "fix.txt"))
	if _, err := os.Stat(filepath.Join(parent, "prefix.txt")); err != nil {
		t.Errorf("expected prefix.txt: %v", err)
	}
}
