package main

import (
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
)

var (
	addr      = flag.String("addr", "127.0.0.1:4221", "listen address")
	directory = flag.String("directory", "", "directory served under /files/")
	timeout   = flag.Duration("timeout", 0, "per-connection read/write deadline, 0 for none")
)

// run serves on ln until a value arrives on stop, then returns once every
// worker has finished.
func run(s *Server, ln net.Listener, stop <-chan os.Signal) error {
	closed := make(chan struct{})
	go func() {
		<-stop
		log.Println("I shutting down")
		s.Close()
		close(closed)
	}()
	if err := s.Serve(ln); err != nil {
		return err
	}
	<-closed
	return nil
}

func serve() error {
	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		return err
	}
	log.Printf("I listening on %s, serving %q", ln.Addr().String(), *directory)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	return run(NewServer(*directory, *timeout), ln, sig)
}

func main() {
	flag.Parse()
	if err := serve(); err != nil {
		log.Fatalf("E %v", err)
	}
}
