package session

import (
	"fmt"
	"log"
	"net"
)

// Acceptor listens on the fixed reliable port and spawns a Handler.Serve
// goroutine per accepted connection (spec §2, §4.4, §6.4).
type Acceptor struct {
	Handler *Handler
	Port    int
}

// Run blocks accepting connections until the listener fails or stop is
// closed. It returns the error of the initial bind (spec §6.6) or of a
// failed Accept while stop is still open, and nil once stop is closed.
func (a *Acceptor) Run(stop <-chan struct{}) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.Port))
	if err != nil {
		return err
	}
	defer ln.Close()

	go func() {
		<-stop
		ln.Close()
	}()

	log.Printf("session: reliable acceptor listening on :%d", a.Port)
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-stop:
				return nil
			default:
			}
			log.Printf("session: accept error: %v", err)
			return err
		}
		go a.Handler.Serve(conn)
	}
}
