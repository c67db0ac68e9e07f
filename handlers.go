package main

import (
	"fmt"
	"log"
	"os"
)

func health(req *Request, _ string) *Response {
	return ResponseOK
}

func echo(req *Request, text string) *Response {
	return newBodyResponse(contentTypeText, []byte(text))
}

func userAgent(req *Request, _ string) *Response {
	ua, ok := req.Headers["User-Agent"]
	if !ok {
		log.Printf("W %v: missing User-Agent", ErrMalformedRequest)
		return ResponseBadRequest
	}
	return newBodyResponse(contentTypeText, []byte(ua))
}

func notFound(req *Request, _ string) *Response {
	return ResponseNotFound
}

// fileStore serves /files/<name> out of dir. Names are appended to dir as
// is, so dir should carry its trailing separator and nothing stops "..".
type fileStore struct {
	dir string
}

func (s *fileStore) path(name string) (string, error) {
	if s.dir == "" {
		return "", fmt.Errorf("no directory configured")
	}
	return s.dir + name, nil
}

func (s *fileStore) get(req *Request, name string) *Response {
	p, err := s.path(name)
	if err != nil {
		log.Printf("W GET %s: %v", name, err)
		return ResponseNotFound
	}
	content, err := os.ReadFile(p)
	if err != nil {
		log.Printf("W GET %s: %v", name, err)
		return ResponseNotFound
	}
	return newBodyResponse(contentTypeBinary, content)
}

func (s *fileStore) post(req *Request, name string) *Response {
	if err := s.save(req, name); err != nil {
		log.Printf("W POST %s: %v", name, err)
		return ResponseNotFound
	}
	return ResponseCreated
}

// save writes the body to the named file and then sizes the file to
// Content-Length, padding with zeros or cutting off what is beyond it.
func (s *fileStore) save(req *Request, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if !req.HasBody {
		return fmt.Errorf("no body")
	}
	cl, err := contentLength(req.Headers)
	if err != nil {
		return err
	}

	f, err := os.Create(p)
	if err != nil {
		return err
	}
	if _, err := f.Write(req.Body); err != nil {
		f.Close()
		return err
	}
	if err := f.Truncate(int64(cl)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
