package chat

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/tevino/abool"
	"golang.org/x/time/rate"

	"github.com/wtask/relaychat/internal/chat/broker"
	"github.com/wtask/relaychat/pkg/background"
)

// Server - represents chat server over any net.Listener implementation.
type Server struct {
	running *background.Signal
	broker  *broker.Broker
	logger  Logger
	workers background.Roster

	handshakeTimeout,
	replyTimeout,
	pollTimeout,
	idleTimeout,
	idleInterval,
	grace,
	workerJoinTimeout,
	monitorJoinTimeout time.Duration
	rateLimit rate.Limit

	console     io.Reader
	exitCommand string

	mu       sync.Mutex
	listener net.Listener

	// orchestrated is set before running signal is cleared by Shutdown,
	// drained is closed after Shutdown force-closed remaining connections.
	orchestrated *abool.AtomicBool
	drained      chan struct{}
	shutdown     sync.Once
}

// NewServer - creates new chat server which is ready to serve single network listener.
func NewServer(buildBroker BrokerBuilder, options ...Option) (*Server, error) {
	if buildBroker == nil {
		return nil, errors.New("chat.NewServer: required chat.BrokerBuilder is nil")
	}
	s := &Server{
		running:            background.NewSignal(),
		handshakeTimeout:   10 * time.Second,
		replyTimeout:       1 * time.Second,
		pollTimeout:        1 * time.Second,
		idleTimeout:        10 * time.Second,
		idleInterval:       1 * time.Second,
		grace:              500 * time.Millisecond,
		workerJoinTimeout:  3 * time.Second,
		monitorJoinTimeout: 2 * time.Second,
		rateLimit:          rate.Inf,
		orchestrated:       abool.New(),
		drained:            make(chan struct{}),
	}
	if err := setup(s, options...); err != nil {
		return nil, err
	}
	b, err := buildBroker(s.running, s.logger)
	if err != nil {
		return nil, fmt.Errorf("chat.NewServer: can't build broker: %w", err)
	}
	s.broker = b
	return s, nil
}

// Running - reports whether server is not stopped yet.
func (s *Server) Running() bool {
	return s.running.Running()
}

// Clients - returns number of registered clients.
func (s *Server) Clients() int {
	return s.broker.Clients().Len()
}

// Serve - accepts connections until server is stopped, then waits for workers with bounded timeouts.
// Returns nil when server was stopped by idle monitor, operator or Shutdown call,
// and non-nil error when accept loop failed.
func (s *Server) Serve(listener net.Listener) error {
	if listener == nil {
		return errors.New("chat.Server: listener is nil")
	}
	if !s.running.Running() {
		return ErrServerStopped
	}
	s.mu.Lock()
	if s.listener != nil {
		s.mu.Unlock()
		return ErrServing
	}
	s.listener = listener
	s.mu.Unlock()

	go func() {
		<-s.running.Done()
		listener.Close()
	}()

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		s.monitorIdle()
	}()

	if s.console != nil {
		// detached, it may stay blocked on operator input forever
		go s.adminConsole(s.console)
	}

	logInfo(s.logger, "Server is listening", formatAddress(listener.Addr()))
	err := s.acceptLoop(listener)
	s.running.Stop()
	listener.Close()

	logInfo(s.logger, "Waiting for client workers to finish...")
	for _, name := range s.workers.Join(s.workerJoinTimeout) {
		logError(s.logger, "Worker", name, "did not finish within", s.workerJoinTimeout)
	}
	logInfo(s.logger, "Waiting for idle monitor to finish...")
	if !background.Join(monitorDone, s.monitorJoinTimeout) {
		logError(s.logger, "Idle monitor did not finish within", s.monitorJoinTimeout)
	}
	logInfo(s.logger, "Server shutdown complete.")
	return err
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

func (s *Server) acceptLoop(listener net.Listener) error {
	for s.running.Running() {
		if d, ok := listener.(deadliner); ok {
			d.SetDeadline(time.Now().Add(s.pollTimeout))
		}
		conn, err := listener.Accept()
		if err != nil {
			if !s.running.Running() {
				return nil
			}
			if isTimeout(err) {
				continue
			}
			logError(s.logger, "MAIN: Server accept failed:", err)
			s.Shutdown()
			return fmt.Errorf("chat.Server: accept failed: %w", err)
		}
		handle := broker.Wrap(conn)
		s.workers.Go(handle.ID(), func() {
			s.handleConn(handle)
		})
	}
	return nil
}

// Stop - clears running signal only. Every loop observes it within its poll timeout,
// sessions close their connections silently.
func (s *Server) Stop() {
	if s.running.Stop() {
		logInfo(s.logger, "Server is stopping")
	}
}

// Shutdown - stops the server and notifies clients with shutdown sentinel,
// after grace period force-closes every connection which is still registered.
func (s *Server) Shutdown() {
	s.shutdown.Do(func() {
		defer close(s.drained)
		s.orchestrated.Set()
		s.running.Stop()
		s.broker.BroadcastShutdown()
		time.Sleep(s.grace)
		if n := s.broker.CloseAll(); n > 0 {
			logInfo(s.logger, "Force-closed", n, "connection(s)")
		}
	})
}

// awaitDrain - blocks session which observed orchestrated shutdown
// until sentinel is delivered and connections are force-closed.
func (s *Server) awaitDrain() {
	if !s.orchestrated.IsSet() {
		return
	}
	if !background.Join(s.drained, s.grace+2*s.replyTimeout) {
		logError(s.logger, "Shutdown did not drain connections in time")
	}
}

func (s *Server) closeListener() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		s.listener.Close()
	}
}

// formatAddress - formats specified network address for logging purposes.
func formatAddress(a net.Addr) string {
	if a == nil {
		return "unknown"
	}
	return fmt.Sprintf("%s %s", a.Network(), a.String())
}
