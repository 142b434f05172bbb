package broker

import (
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/tevino/abool"

	"github.com/wtask/relaychat/internal/chat/message"
	"github.com/wtask/relaychat/pkg/background"
)

type link struct {
	clientConn net.Conn
	brokerConn *Conn
}

func connect() link {
	c, s := net.Pipe()
	return link{c, Wrap(s)}
}

// readChunk - reads single chunk from the client side of link.
func readChunk(conn net.Conn, timeout time.Duration) (string, error) {
	conn.SetReadDeadline(time.Now().Add(timeout))
	buf := make([]byte, message.MaxFrameSize)
	n, err := conn.Read(buf)
	return string(buf[:n]), err
}

func isTimeout(err error) bool {
	netErr, ok := err.(net.Error)
	return ok && netErr.Timeout()
}

func newTestBroker(test *testing.T, running *background.Signal) *Broker {
	b, err := New(running, WithWriteTimeout(200*time.Millisecond))
	if err != nil {
		test.Fatal("broker.New, unexpected error:", err)
	}
	return b
}

func TestNew(test *testing.T) {
	b, err := New(nil, WithWriteTimeout(15*time.Second))
	if err != nil {
		test.Error("broker.New, unexpected error", err)
	}
	if b.writeTimeout != 15*time.Second {
		test.Error("broker.New: unexpected write timeout", b.writeTimeout)
	}
	if b.running == nil || !b.running.Running() {
		test.Error("broker.New: expected running signal")
	}
	if _, err := New(nil, WithWriteTimeout(0)); err == nil {
		test.Error("broker.New: expected error for zero write timeout")
	}
	if _, err := New(nil, WithLogger(nopLogger{}), WithLogger(nopLogger{})); err == nil {
		test.Error("broker.New: expected error for duplicate logger")
	}
}

type nopLogger struct{}

func (nopLogger) Println(v ...interface{}) {}

func TestBroker_Broadcast_excludesSender(test *testing.T) {
	b := newTestBroker(test, nil)
	alice, bob, carol := connect(), connect(), connect()
	b.Register(alice.brokerConn, "alice")
	b.Register(bob.brokerConn, "bob")
	b.Register(carol.brokerConn, "carol")

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Broadcast("alice: hello", alice.brokerConn)
	}()

	for _, l := range []link{bob, carol} {
		got, err := readChunk(l.clientConn, time.Second)
		if err != nil || got != "alice: hello" {
			test.Errorf("Expected %q, got (%q, %v)", "alice: hello", got, err)
		}
	}
	if got, err := readChunk(alice.clientConn, 50*time.Millisecond); !isTimeout(err) {
		test.Errorf("Sender received own message: (%q, %v)", got, err)
	}
	<-done
	if b.Clients().Len() != 3 {
		test.Error("Unexpected registry len", b.Clients().Len())
	}
}

func TestBroker_Broadcast_sendFailure(test *testing.T) {
	b := newTestBroker(test, nil)
	alice, bob, dead := connect(), connect(), connect()
	b.Register(alice.brokerConn, "alice")
	b.Register(bob.brokerConn, "bob")
	b.Register(dead.brokerConn, "dead")
	dead.clientConn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Broadcast("hi", nil)
	}()

	expected := []string{"hi", message.Disconnected("dead")}
	for _, l := range []link{alice, bob} {
		for _, exp := range expected {
			got, err := readChunk(l.clientConn, time.Second)
			if err != nil || got != exp {
				test.Errorf("Expected %q, got (%q, %v)", exp, got, err)
			}
		}
	}
	<-done

	if _, ok := b.Clients().Lookup(dead.brokerConn); ok {
		test.Error("Failed connection is still registered")
	}
	if b.Clients().Len() != 2 {
		test.Error("Unexpected registry len", b.Clients().Len())
	}
	if _, removed := b.Evict(dead.brokerConn, ReasonSendFailure); removed {
		test.Error("Failed connection evicted twice")
	}
}

func TestBroker_Broadcast_stalledPeer(test *testing.T) {
	b := newTestBroker(test, nil)
	alice, stalled := connect(), connect()
	b.Register(alice.brokerConn, "alice")
	b.Register(stalled.brokerConn, "stalled")

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Broadcast("ping", nil)
	}()

	if got, err := readChunk(alice.clientConn, time.Second); err != nil || got != "ping" {
		test.Errorf("Expected %q, got (%q, %v)", "ping", got, err)
	}
	// stalled peer never reads, its write times out and it is evicted
	if got, err := readChunk(alice.clientConn, time.Second); err != nil || got != message.Disconnected("stalled") {
		test.Errorf("Expected eviction notice, got (%q, %v)", got, err)
	}
	<-done
	if b.Clients().Len() != 1 {
		test.Error("Unexpected registry len", b.Clients().Len())
	}
}

// probeConn - reports whether registry lock was held at the moment of write.
type probeConn struct {
	net.Conn
	registry *Registry
	locked   *abool.AtomicBool
}

func (c probeConn) Write(p []byte) (int, error) {
	if c.registry.mu.TryLock() {
		c.registry.mu.Unlock()
	} else {
		c.locked.Set()
	}
	return c.Conn.Write(p)
}

func TestBroker_Broadcast_lockNotHeldOnSend(test *testing.T) {
	b := newTestBroker(test, nil)
	locked := abool.New()
	client, server := net.Pipe()
	conn := Wrap(probeConn{server, b.Clients(), locked})
	b.Register(conn, "probe")

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Broadcast("hello", nil)
	}()
	if got, err := readChunk(client, time.Second); err != nil || got != "hello" {
		test.Errorf("Expected %q, got (%q, %v)", "hello", got, err)
	}
	<-done
	if locked.IsSet() {
		test.Error("Registry lock was held during network write")
	}
}

func TestBroker_stopped(test *testing.T) {
	running := background.NewSignal()
	b := newTestBroker(test, running)
	alice, bob := connect(), connect()
	b.Register(alice.brokerConn, "alice")
	b.Register(bob.brokerConn, "bob")
	running.Stop()

	if err := b.Register(connect().brokerConn, "late"); err != ErrUnderStopCondition {
		test.Error("Expected error:", ErrUnderStopCondition, "got:", err)
	}

	b.Broadcast("ignored", nil)
	if got, err := readChunk(alice.clientConn, 50*time.Millisecond); !isTimeout(err) {
		test.Errorf("Broadcast delivered while stopped: (%q, %v)", got, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.BroadcastShutdown()
	}()
	for _, l := range []link{alice, bob} {
		if got, err := readChunk(l.clientConn, time.Second); err != nil || got != message.ShutdownSentinel {
			test.Errorf("Expected %q, got (%q, %v)", message.ShutdownSentinel, got, err)
		}
	}
	<-done

	if n := b.CloseAll(); n != 2 {
		test.Error("CloseAll: expected 2 evictions, got", n)
	}
	for _, l := range []link{alice, bob} {
		if got, err := readChunk(l.clientConn, time.Second); err == nil {
			test.Errorf("Expected closed connection, got %q", got)
		}
	}
	if b.Clients().Len() != 0 {
		test.Error("Registry is not empty after CloseAll")
	}
}

func TestBroker_Evict_notices(test *testing.T) {
	cases := []struct {
		reason Reason
		notice string
	}{
		{ReasonQuit, ""},
		{ReasonShutdown, ""},
		{ReasonLeft, message.Removed("gone")},
		{ReasonFault, message.Removed("gone")},
		{ReasonSendFailure, message.Disconnected("gone")},
	}
	for _, c := range cases {
		b := newTestBroker(test, nil)
		watcher, gone := connect(), connect()
		b.Register(watcher.brokerConn, "watcher")
		b.Register(gone.brokerConn, "gone")

		done := make(chan struct{})
		go func() {
			defer close(done)
			if u, removed := b.Evict(gone.brokerConn, c.reason); !removed || u != "gone" {
				test.Errorf("Evict(%v): unexpected (%q, %v)", c.reason, u, removed)
			}
		}()
		got, err := readChunk(watcher.clientConn, 100*time.Millisecond)
		switch {
		case c.notice == "" && !isTimeout(err):
			test.Errorf("Evict(%v): unexpected notice (%q, %v)", c.reason, got, err)
		case c.notice != "" && got != c.notice:
			test.Errorf("Evict(%v): expected notice %q, got (%q, %v)", c.reason, c.notice, got, err)
		}
		<-done
	}
}

func TestBroker_Register_racesStop(test *testing.T) {
	running := background.NewSignal()
	b := newTestBroker(test, running)
	conns := make([]*Conn, 200)
	for i := range conns {
		conns[i] = connect().brokerConn
	}

	start := make(chan struct{})
	wg := sync.WaitGroup{}
	for i, c := range conns {
		wg.Add(1)
		go func(i int, c *Conn) {
			defer wg.Done()
			<-start
			b.Register(c, fmt.Sprintf("user-%d", i))
		}(i, c)
	}
	close(start)
	time.Sleep(time.Millisecond)
	running.Stop()
	// what shutdown would notify
	seen := map[*Conn]bool{}
	for _, e := range b.Clients().Snapshot() {
		seen[e.Conn] = true
	}
	wg.Wait()

	for _, e := range b.Clients().Snapshot() {
		if !seen[e.Conn] {
			test.Error(e.Username, "was registered after the server stopped")
		}
	}
}
