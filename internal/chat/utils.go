package chat

import (
	"errors"
	"io"
	"net"
)

// isTimeout - reports whether err is a deadline expiration.
func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isClosed - reports whether err means connection was closed on our side.
func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}
