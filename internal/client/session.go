// Package client implements chat client session: one connection served by
// a sending loop and a receiving loop which share single cancellation signal.
package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/tevino/abool"

	"github.com/wtask/relaychat/internal/chat/message"
	"github.com/wtask/relaychat/pkg/background"
)

// Notices printed for the operator.
const (
	NoticeDisconnected = "Server disconnected."
	NoticeServerClosed = "Server has closed the connection."
	NoticeClientDone   = "Client disconnected."
)

// Session - owns single connection to chat server.
type Session struct {
	conn    net.Conn
	running *background.Signal
	// quit is set when operator asked to leave
	quit *abool.AtomicBool

	pollTimeout, writeTimeout time.Duration

	outMu sync.Mutex
	out   io.Writer

	closeOnce sync.Once
}

type sessionOption func(s *Session) error

// WithPollTimeout - overwrites bounded wait of receive calls.
func WithPollTimeout(timeout time.Duration) sessionOption {
	return func(s *Session) error {
		if timeout <= 0 {
			return fmt.Errorf("client.WithPollTimeout: invalid timeout (%v)", timeout)
		}
		s.pollTimeout = timeout
		return nil
	}
}

// WithWriteTimeout - overwrites bounded wait of send calls.
func WithWriteTimeout(timeout time.Duration) sessionOption {
	return func(s *Session) error {
		if timeout <= 0 {
			return fmt.Errorf("client.WithWriteTimeout: invalid timeout (%v)", timeout)
		}
		s.writeTimeout = timeout
		return nil
	}
}

// NewSession - builds session over established connection, everything received is printed to out.
func NewSession(conn net.Conn, out io.Writer, options ...sessionOption) (*Session, error) {
	if conn == nil {
		return nil, errors.New("client.NewSession: connection is nil")
	}
	if out == nil {
		out = io.Discard
	}
	s := &Session{
		conn:         conn,
		running:      background.NewSignal(),
		quit:         abool.New(),
		pollTimeout:  1 * time.Second,
		writeTimeout: 5 * time.Second,
		out:          out,
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Running - reports whether both loops may continue.
func (s *Session) Running() bool {
	return s.running.Running()
}

// Join - sends handshake frame with the username.
func (s *Session) Join(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return message.ErrEmptyUsername
	}
	return s.send(message.Join(username))
}

// Run - runs sending loop over input lines and receiving loop together,
// returns after both of them are finished and connection is closed.
func (s *Session) Run(input io.Reader) {
	lines := ReadLines(input)
	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.SendLoop(lines)
	}()
	go func() {
		defer wg.Done()
		s.ReceiveLoop()
	}()
	wg.Wait()
	s.close()
	s.println(NoticeClientDone)
}

// SendLoop - forwards every input line to server until quit command,
// send failure, end of input or cancellation by receiving side.
func (s *Session) SendLoop(lines <-chan string) {
	for {
		var (
			line string
			ok   bool
		)
		select {
		case <-s.running.Done():
			return
		case line, ok = <-lines:
		}
		if !s.running.Running() {
			return
		}
		if !ok {
			// end of operator input
			line = message.Quit
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == message.Quit {
			s.quit.Set()
		}
		if err := s.send(line); err != nil {
			s.println("Send error:", err)
			s.running.Stop()
			return
		}
		if line == message.Quit {
			s.running.Stop()
			s.close()
			return
		}
	}
}

// ReceiveLoop - prints every frame from server until shutdown sentinel,
// disconnection or cancellation by sending side.
func (s *Session) ReceiveLoop() {
	buf := make([]byte, message.MaxFrameSize)
	frames := message.Builder{}
	for s.running.Running() {
		s.conn.SetReadDeadline(time.Now().Add(s.pollTimeout))
		n, err := s.conn.Read(buf)
		if n > 0 {
			if !s.running.Running() {
				s.stopped()
				return
			}
			frames.Write(buf[:n])
			text := strings.TrimSpace(frames.Flush())
			if strings.HasSuffix(text, message.ShutdownSentinel) {
				if rest := strings.TrimSpace(strings.TrimSuffix(text, message.ShutdownSentinel)); rest != "" {
					s.println(rest)
				}
				s.running.Stop()
				s.println(NoticeServerClosed)
				return
			}
			if text != "" {
				s.println(text)
			}
		}
		switch {
		case err == nil:
			continue
		case isTimeout(err):
			continue
		case errors.Is(err, io.EOF):
			s.println(NoticeDisconnected)
			s.running.Stop()
			return
		case !s.running.Running():
			s.stopped()
			return
		default:
			s.println("Receive error:", err)
			s.running.Stop()
			return
		}
	}
	s.stopped()
}

// stopped - reports loss of the session, unless operator asked to quit.
func (s *Session) stopped() {
	if !s.quit.IsSet() {
		s.println(NoticeDisconnected)
	}
}

// Stop - cancels both loops at their next safe point.
func (s *Session) Stop() {
	s.running.Stop()
}

func (s *Session) send(text string) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	_, err := s.conn.Write([]byte(text))
	return err
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		if tcp, ok := s.conn.(*net.TCPConn); ok {
			tcp.CloseWrite()
		}
		s.conn.Close()
	})
}

func (s *Session) println(v ...interface{}) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintln(s.out, v...)
}

// ReadLines - reads lines from r in background until the end of input.
// The reader is never joined, it may stay blocked on r after the session is over.
func ReadLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
