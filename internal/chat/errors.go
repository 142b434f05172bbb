package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrHandshake - base error for every failed handshake,
	// session is dropped before registration and nobody is notified.
	ErrHandshake = errors.New("chat: handshake failed")

	// ErrHandshakeTimeout - client sent nothing within handshake timeout.
	ErrHandshakeTimeout = fmt.Errorf("%w: no join frame in time", ErrHandshake)
	// ErrHandshakeEmpty - client closed connection before sending join frame.
	ErrHandshakeEmpty = fmt.Errorf("%w: empty data received", ErrHandshake)
	// ErrMalformedJoin - first frame is not a join request.
	ErrMalformedJoin = fmt.Errorf("%w: invalid protocol", ErrHandshake)
	// ErrEmptyUsername - join frame carries empty username.
	ErrEmptyUsername = fmt.Errorf("%w: empty username", ErrHandshake)

	// ErrServerStopped - server was stopped and can not serve anymore.
	ErrServerStopped = errors.New("chat.Server: stopped")
	// ErrServing - server already serves a listener.
	ErrServing = errors.New("chat.Server: already serving")
)
