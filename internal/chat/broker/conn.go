package broker

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Conn - connection handle owned by the registry.
// Close is safe to call several times from different goroutines,
// only the first call reaches the underlying connection.
type Conn struct {
	net.Conn
	id       uuid.UUID
	once     sync.Once
	closeErr error
}

// Wrap - builds handle for raw network connection.
func Wrap(conn net.Conn) *Conn {
	if conn == nil {
		return nil
	}
	return &Conn{Conn: conn, id: uuid.New()}
}

// ID - returns unique identifier of the handle.
func (c *Conn) ID() string {
	return c.id.String()
}

// Close - shuts down and closes underlying connection once.
func (c *Conn) Close() error {
	c.once.Do(func() {
		if tcp, ok := c.Conn.(*net.TCPConn); ok {
			tcp.CloseWrite()
		}
		c.closeErr = c.Conn.Close()
	})
	return c.closeErr
}

// Send - writes message as single chunk with bounded timeout.
func (c *Conn) Send(message string, timeout time.Duration) error {
	if err := c.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	_, err := c.Write([]byte(message))
	return err
}

func (c *Conn) String() string {
	if c == nil {
		return "<nil>"
	}
	return formatAddress(c.RemoteAddr()) + " #" + c.ID()
}

// formatAddress - formats specified network address for logging purposes.
func formatAddress(a net.Addr) string {
	if a == nil {
		return "unknown"
	}
	return a.Network() + " " + a.String()
}
