package main

import "strconv"

// Not map[string][]string, unlike http.Header.
// Keys are kept as received; no case folding.
type HTTPHeader map[string]string

type Request struct {
	Method  string
	Path    string
	Version string
	Headers HTTPHeader
	Body    []byte
	HasBody bool // a CRLF CRLF separator was seen
}

type Response struct {
	Version string
	Status  int
	Phrase  string
	Headers HTTPHeader
	Body    []byte
}

const (
	httpVersion = "HTTP/1.1"

	contentTypeText   = "text/plain"
	contentTypeBinary = "application/octet-stream"
)

// Canned responses are shared by every worker and must never be mutated.
var ResponseOK = &Response{
	Version: httpVersion,
	Status:  200,
	Phrase:  "OK",
}

var ResponseCreated = &Response{
	Version: httpVersion,
	Status:  201,
	Phrase:  "Created",
}

var ResponseBadRequest = &Response{
	Version: httpVersion,
	Status:  400,
	Phrase:  "Bad Request",
	Headers: HTTPHeader{"Content-Length": "0"},
}

var ResponseNotFound = &Response{
	Version: httpVersion,
	Status:  404,
	Phrase:  "Not Found",
	Headers: HTTPHeader{"Content-Length": "0"},
}

func newBodyResponse(contentType string, body []byte) *Response {
	return &Response{
		Version: httpVersion,
		Status:  200,
		Phrase:  "OK",
		Headers: HTTPHeader{
			"Content-Type":   contentType,
			"Content-Length": strconv.Itoa(len(body)),
		},
		Body: body,
	}
}
