package chat

import (
	"net"
	"testing"
	"time"

	"github.com/wtask/relaychat/internal/chat/broker"
	"github.com/wtask/relaychat/internal/chat/message"
	"github.com/wtask/relaychat/pkg/background"
)

func readChunk(conn net.Conn, timeout time.Duration) (string, error) {
	conn.SetReadDeadline(time.Now().Add(timeout))
	buf := make([]byte, message.MaxFrameSize)
	n, err := conn.Read(buf)
	return string(buf[:n]), err
}

// handle - runs session over net.Pipe and returns client side of the pipe.
func handle(s *Server) (net.Conn, <-chan struct{}) {
	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handleConn(broker.Wrap(server))
	}()
	return client, done
}

func TestSession_rejectedHandshake(test *testing.T) {
	cases := []struct {
		frame string
		reply string
	}{
		{"hello", message.RejectInvalidProtocol},
		{"join:alice", message.RejectInvalidProtocol},
		{"JOIN:", message.RejectEmptyUsername},
		{"JOIN:   \n", message.RejectEmptyUsername},
	}
	for _, c := range cases {
		s := newTestServer(test)
		client, done := handle(s)
		client.Write([]byte(c.frame))
		if got, err := readChunk(client, time.Second); err != nil || got != c.reply {
			test.Errorf("Frame %q: expected reply %q, got (%q, %v)", c.frame, c.reply, got, err)
		}
		if got, err := readChunk(client, time.Second); err == nil {
			test.Errorf("Frame %q: expected closed connection, got %q", c.frame, got)
		}
		if !background.Join(done, time.Second) {
			test.Errorf("Frame %q: session did not finish", c.frame)
		}
		if s.Clients() != 0 {
			test.Errorf("Frame %q: rejected client was registered", c.frame)
		}
	}
}

func TestSession_handshakeTimeout(test *testing.T) {
	s := newTestServer(test, WithHandshakeTimeout(30*time.Millisecond))
	client, done := handle(s)
	if got, err := readChunk(client, time.Second); err == nil {
		test.Errorf("Expected closed connection, got %q", got)
	}
	if !background.Join(done, time.Second) {
		test.Error("Session did not finish after handshake timeout")
	}
	if s.Clients() != 0 {
		test.Error("Silent client was registered")
	}
}

func TestSession_handshakeEmpty(test *testing.T) {
	s := newTestServer(test)
	client, done := handle(s)
	client.Close()
	if !background.Join(done, time.Second) {
		test.Error("Session did not finish after client closed")
	}
	if s.Clients() != 0 {
		test.Error("Closed client was registered")
	}
}

func TestSession_joinAndQuit(test *testing.T) {
	s := newTestServer(test)
	client, done := handle(s)
	client.Write([]byte(message.Join("alice")))
	if got, err := readChunk(client, time.Second); err != nil || got != message.Joined("alice") {
		test.Errorf("Expected join notice, got (%q, %v)", got, err)
	}
	if s.Clients() != 1 {
		test.Error("alice was not registered")
	}
	client.Write([]byte(message.Quit + "\n"))
	if !background.Join(done, time.Second) {
		test.Fatal("Session did not finish after quit")
	}
	if s.Clients() != 0 {
		test.Error("alice is still registered after quit")
	}
	if got, err := readChunk(client, time.Second); err == nil {
		test.Errorf("Expected closed connection, got %q", got)
	}
}

func TestState_String(test *testing.T) {
	cases := []struct {
		state    State
		expected string
	}{
		{StateConnecting, "connecting"},
		{StateAuthenticating, "authenticating"},
		{StateActive, "active"},
		{StateClosing, "closing"},
		{StateClosed, "closed"},
		{State(42), "unknown state"},
	}
	for _, c := range cases {
		if actual := c.state.String(); actual != c.expected {
			test.Errorf("Expected %q, actual %q", c.expected, actual)
		}
	}
}
