package main

import (
	"errors"
	"io"
	"log"
	"net"
	"time"
)

// An upload body stops at the first gap in the stream this long.
const bodyIdleTimeout = 250 * time.Millisecond

// Worker handles a single connection: one request, one response, then close.
type Worker struct {
	conn     net.Conn
	router   *Router
	timeout  time.Duration
	deadline time.Time
	req      *Request
	res      *Response
	quit     <-chan struct{}
}

type stateFunc func(*Worker) stateFunc

// NewWorker returns a worker that routes with router. Closing quit makes a
// worker still waiting for its request give up.
func NewWorker(router *Router, timeout time.Duration, quit <-chan struct{}) *Worker {
	return &Worker{
		router:  router,
		timeout: timeout,
		quit:    quit,
	}
}

func (w *Worker) Start(conn net.Conn) {
	w.conn = conn // worker takes the ownership of |conn|
	if w.timeout > 0 {
		w.deadline = time.Now().Add(w.timeout)
		conn.SetDeadline(w.deadline)
	}

	for state := waitForRequest; state != nil; {
		state = state(w)
	}
}

func (w *Worker) requestReceived(req *Request) stateFunc {
	w.req = req
	if w.router.WantsBody(req) {
		return receiveBody
	}
	return handleRequest
}

// idleReader reads from conn with a read deadline of idle from each call,
// never later than limit.
type idleReader struct {
	conn  net.Conn
	idle  time.Duration
	limit time.Time
}

func (r *idleReader) Read(b []byte) (int, error) {
	d := time.Now().Add(r.idle)
	if !r.limit.IsZero() && r.limit.Before(d) {
		d = r.limit
	}
	r.conn.SetReadDeadline(d)
	return r.conn.Read(b)
}

func (w *Worker) requestFailed(err error) stateFunc {
	if errors.Is(err, ErrMalformedRequest) || errors.Is(err, ErrRequestTooLarge) {
		log.Printf("W %s: %v", w.conn.RemoteAddr().String(), err)
		w.res = ResponseBadRequest
		return sendResponse
	}
	if err == io.EOF {
		log.Printf("I %s closed before sending a request", w.conn.RemoteAddr().String())
	} else {
		log.Printf("E read from %s: %v", w.conn.RemoteAddr().String(), err)
	}
	return finishWorker
}

// state funcs

func waitForRequest(w *Worker) stateFunc {
	r := NewRequestReader(w.conn)
	r.Start()
	select {
	case req := <-r.RequestReceived():
		return w.requestReceived(req)
	case err := <-r.ErrorOccurred():
		return w.requestFailed(err)
	case <-w.quit:
		log.Println("W waitForRequest done")
		return finishWorker
	}
}

func receiveBody(w *Worker) stateFunc {
	r := &idleReader{w.conn, bodyIdleTimeout, w.deadline}
	err := readBody(r, w.req, maxRequestSize)
	w.conn.SetReadDeadline(w.deadline)
	if err != nil {
		log.Printf("E read body from %s: %v", w.conn.RemoteAddr().String(), err)
		return finishWorker
	}
	return handleRequest
}

func handleRequest(w *Worker) stateFunc {
	w.res = w.router.Serve(w.req)
	log.Printf("I %s %s %s -> %d",
		w.conn.RemoteAddr().String(), w.req.Method, w.req.Path, w.res.Status)
	return sendResponse
}

func sendResponse(w *Worker) stateFunc {
	if err := WriteResponse(w.conn, w.res); err != nil {
		log.Printf("E write to %s: %v", w.conn.RemoteAddr().String(), err)
	}
	return finishWorker
}

func finishWorker(w *Worker) stateFunc {
	if w.conn != nil {
		w.conn.Close()
	}
	return nil
}
