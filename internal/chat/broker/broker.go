package broker

import (
	"sync"
	"time"

	"github.com/wtask/relaychat/internal/chat/message"
	"github.com/wtask/relaychat/pkg/background"
)

// Logger - interface for logging broker events
type Logger interface {
	Println(v ...interface{})
}

// Broker - chat connections keeper and message router
type Broker struct {
	writeTimeout time.Duration
	running      *background.Signal
	logger       Logger

	clients *Registry
}

// Option - configures Broker on construction.
type Option func(b *Broker) error

func setup(b *Broker, options ...Option) error {
	if b == nil {
		return nil
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(b); err != nil {
			return err
		}
	}
	return nil
}

// New - builds Broker bound to the running signal of the server.
func New(running *background.Signal, options ...Option) (*Broker, error) {
	if running == nil {
		running = background.NewSignal()
	}
	b := &Broker{
		writeTimeout: 1 * time.Second,
		running:      running,
		clients:      NewRegistry(),
	}

	if err := setup(b, options...); err != nil {
		return nil, err
	}

	return b, nil
}

// Clients - returns registry of kept connections.
func (b *Broker) Clients() *Registry {
	return b.clients
}

// Register - keeps connection under the username.
// A connection is kept only if it was inserted before the running signal was cleared,
// so every kept connection is seen by the snapshots taken on shutdown.
func (b *Broker) Register(conn *Conn, username string) error {
	if !b.running.Running() {
		return ErrUnderStopCondition
	}
	if err := b.clients.Register(conn, username); err != nil {
		return err
	}
	if !b.running.Running() {
		// stopped while inserting
		b.clients.Unregister(conn)
		return ErrUnderStopCondition
	}
	b.logInfo("Registered", username, "from", conn)
	return nil
}

// Broadcast - sends the message to every kept connection except the excluded one.
// Does nothing when server is stopping.
func (b *Broker) Broadcast(text string, exclude *Conn) {
	if !b.running.Running() {
		return
	}
	b.deliver(text, exclude, ReasonSendFailure)
}

// BroadcastShutdown - sends shutdown sentinel to every kept connection.
// Unlike Broadcast it works after the running signal is cleared.
func (b *Broker) BroadcastShutdown() {
	b.deliver(message.ShutdownSentinel, nil, ReasonShutdown)
}

// deliver - sends message over registry snapshot, failed connections are collected
// and evicted only after the whole pass is over.
func (b *Broker) deliver(text string, exclude *Conn, reason Reason) {
	mu := sync.Mutex{}
	failed := []Entry{}
	wg := sync.WaitGroup{}
	for _, entry := range b.clients.Snapshot() {
		if entry.Conn == exclude {
			continue
		}
		wg.Add(1)
		go func(entry Entry) {
			defer wg.Done()
			if err := entry.Conn.Send(text, b.writeTimeout); err != nil {
				b.logError("BROADCAST:", err, "- could not send to", entry.Username)
				mu.Lock()
				failed = append(failed, entry)
				mu.Unlock()
			}
		}(entry)
	}
	wg.Wait()

	for _, entry := range failed {
		b.Evict(entry.Conn, reason)
	}
}

// Evict - removes connection from registry and closes it.
// Remaining clients are notified only if this call actually removed the connection,
// the reason is not silent and the server is still running.
func (b *Broker) Evict(conn *Conn, reason Reason) (username string, removed bool) {
	if conn == nil {
		return "", false
	}
	username, removed = b.clients.Unregister(conn)
	if removed {
		b.logInfo("Removed", username, "|", "reason:", reason)
	}
	if err := conn.Close(); err != nil {
		b.logInfo("Closing", conn, "error:", err)
	}
	if !removed {
		return username, false
	}
	if notice := reason.notice(username); notice != "" {
		b.Broadcast(notice, nil)
	}
	return username, true
}

// CloseAll - force-closes every kept connection without notices.
// Returns number of evicted connections.
func (b *Broker) CloseAll() int {
	n := 0
	for _, entry := range b.clients.Snapshot() {
		if _, removed := b.Evict(entry.Conn, ReasonShutdown); removed {
			n++
		}
	}
	return n
}

func (b *Broker) logInfo(v ...interface{}) {
	if b.logger == nil {
		return
	}
	b.logger.Println(v...)
}

func (b *Broker) logError(v ...interface{}) {
	if b.logger == nil {
		return
	}
	b.logger.Println(append([]interface{}{"ERR"}, v...)...)
}
