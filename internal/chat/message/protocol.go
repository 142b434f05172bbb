package message

import (
	"errors"
	"fmt"
	"strings"
)

// Control vocabulary exchanged over the wire.
// Frames are unframed text chunks; every token is matched exactly after trimming.
const (
	// JoinPrefix - first frame from client must be JoinPrefix+username
	JoinPrefix = "JOIN:"
	// Quit - client asks for graceful self-disconnect
	Quit = "!quit"
	// ShutdownSentinel - server notifies clients it is going down
	ShutdownSentinel = "!server_shutdown"
	// MaxFrameSize - max size of single chunk read from the wire
	MaxFrameSize = 2048
)

var (
	// ErrNotJoin - frame does not start with JoinPrefix.
	ErrNotJoin = errors.New("message: frame is not a join request")
	// ErrEmptyUsername - join frame carries no username.
	ErrEmptyUsername = errors.New("message: empty username")
)

// Rejection replies sent by server before it drops failed handshake.
const (
	RejectEmptyUsername   = "SET_USERNAME: Username cannot be empty."
	RejectInvalidProtocol = "SET_USERNAME: Invalid Protocol. Use JOIN <username>"
)

// Join - builds handshake frame.
func Join(username string) string {
	return JoinPrefix + username
}

// ParseJoin - extracts username from handshake frame.
func ParseJoin(frame string) (string, error) {
	frame = strings.TrimSpace(frame)
	if !strings.HasPrefix(frame, JoinPrefix) {
		return "", ErrNotJoin
	}
	username := strings.TrimSpace(strings.TrimPrefix(frame, JoinPrefix))
	if username == "" {
		return "", ErrEmptyUsername
	}
	return username, nil
}

// Chat - formats relayed chat line.
func Chat(username, text string) string {
	return fmt.Sprintf("%s: %s", username, text)
}

// Joined - notice about new member.
func Joined(username string) string {
	return fmt.Sprintf("%s has joined the chat.", username)
}

// Left - notice about member departure.
func Left(username string) string {
	return fmt.Sprintf("%s left the chat.", username)
}

// Removed - notice about member cleanup.
func Removed(username string) string {
	return fmt.Sprintf("%s removed from the chat.", username)
}

// Disconnected - notice about member evicted after send failure.
func Disconnected(username string) string {
	return fmt.Sprintf("%s has disconnected unexpectedly.", username)
}
