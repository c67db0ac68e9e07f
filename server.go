package main

import (
	"errors"
	"log"
	"net"
	"sync"
	"time"
)

// Server accepts connections and hands each one to its own Worker.
type Server struct {
	router  *Router
	timeout time.Duration

	mu      sync.Mutex
	ln      net.Listener
	quit    chan struct{}
	closed  bool
	workers sync.WaitGroup
}

func NewServer(dir string, timeout time.Duration) *Server {
	return &Server{
		router:  NewRouter(dir),
		timeout: timeout,
		quit:    make(chan struct{}),
	}
}

func (s *Server) handle(conn net.Conn) {
	defer s.workers.Done()
	worker := NewWorker(s.router, s.timeout, s.quit)
	worker.Start(conn)
}

// Serve runs the accept loop on ln until Close is called.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ln.Close()
	}
	s.ln = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			log.Printf("E accept error: %v", err)
			continue
		}
		if !s.track() {
			conn.Close()
			return nil
		}
		go s.handle(conn)
	}
}

// track registers a new worker unless the server is shutting down.
func (s *Server) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.workers.Add(1)
	return true
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops accepting, releases workers still waiting for a request and
// waits for the rest to finish.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.quit)
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	s.mu.Unlock()

	s.workers.Wait()
	return err
}
