package broker

import "github.com/wtask/relaychat/internal/chat/message"

// Reason - describes the cause of parting with client (connection).
type Reason int

const (
	_ Reason = iota
	// ReasonQuit - client asked to leave with quit command, departure is already announced.
	ReasonQuit
	// ReasonLeft - connection was closed by peer or session loop ended.
	ReasonLeft
	// ReasonFault - unexpected I/O failure in the session.
	ReasonFault
	// ReasonSendFailure - broadcast to the connection failed.
	ReasonSendFailure
	// ReasonShutdown - the whole server is stopping.
	ReasonShutdown
)

func (r Reason) String() string {
	switch r {
	case ReasonQuit:
		return "quit chat"
	case ReasonLeft:
		return "left"
	case ReasonFault:
		return "fault"
	case ReasonSendFailure:
		return "broadcast failure"
	case ReasonShutdown:
		return "server shutdown"
	default:
		return "unknown reason"
	}
}

// notice - returns text announced to remaining clients after removal for the reason,
// or empty string when removal must stay silent.
func (r Reason) notice(username string) string {
	switch r {
	case ReasonLeft, ReasonFault:
		return message.Removed(username)
	case ReasonSendFailure:
		return message.Disconnected(username)
	default:
		return ""
	}
}
