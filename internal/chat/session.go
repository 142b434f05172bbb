package chat

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/wtask/relaychat/internal/chat/broker"
	"github.com/wtask/relaychat/internal/chat/message"
)

// State - stage of a client session.
type State int

const (
	StateConnecting State = iota
	StateAuthenticating
	StateActive
	StateClosing
	StateClosed
)

func (st State) String() string {
	switch st {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown state"
	}
}

// session - per-connection state machine.
type session struct {
	srv      *Server
	conn     *broker.Conn
	username string
	state    State
	reason   broker.Reason
	limiter  *rate.Limiter
	frames   message.Builder
	logger   Logger
}

func (s *Server) handleConn(conn *broker.Conn) {
	ss := &session{
		srv:     s,
		conn:    conn,
		state:   StateConnecting,
		limiter: rate.NewLimiter(s.rateLimit, 1),
		logger:  withTag(s.logger, conn.ID()),
	}
	logInfo(ss.logger, "[CONNECT] Connected to:", formatAddress(conn.RemoteAddr()))
	ss.run()
}

func (ss *session) run() {
	for {
		switch ss.state {
		case StateConnecting:
			ss.state = StateAuthenticating
		case StateAuthenticating:
			ss.authenticate()
		case StateActive:
			ss.serve()
		case StateClosing:
			ss.close()
		default:
			return
		}
	}
}

func (ss *session) authenticate() {
	srv := ss.srv
	username, err := ss.handshake()
	if err != nil {
		logError(ss.logger, "SET_USERNAME:", err)
		ss.conn.Close()
		ss.state = StateClosed
		return
	}
	if err := srv.broker.Register(ss.conn, username); err != nil {
		logError(ss.logger, "SET_USERNAME: can't register", username, err)
		ss.conn.Close()
		ss.state = StateClosed
		return
	}
	ss.username = username
	logInfo(ss.logger, "Username", username, "joined the chat from", formatAddress(ss.conn.RemoteAddr()))
	srv.broker.Broadcast(message.Joined(username), nil)
	ss.state = StateActive
}

// handshake - waits for join frame and extracts username from it.
// Malformed frames are answered with rejection reply before the error is returned.
func (ss *session) handshake() (string, error) {
	ss.conn.SetReadDeadline(time.Now().Add(ss.srv.handshakeTimeout))
	buf := make([]byte, message.MaxFrameSize)
	n, err := ss.conn.Read(buf)
	if n == 0 {
		switch {
		case err == nil, errors.Is(err, io.EOF):
			return "", ErrHandshakeEmpty
		case isTimeout(err):
			return "", ErrHandshakeTimeout
		default:
			return "", fmt.Errorf("%w: %v", ErrHandshake, err)
		}
	}
	username, err := message.ParseJoin(message.Decode(buf[:n]))
	switch {
	case errors.Is(err, message.ErrEmptyUsername):
		ss.reply(message.RejectEmptyUsername)
		return "", ErrEmptyUsername
	case err != nil:
		ss.reply(message.RejectInvalidProtocol)
		return "", ErrMalformedJoin
	}
	return username, nil
}

func (ss *session) reply(text string) {
	if err := ss.conn.Send(text, ss.srv.replyTimeout); err != nil {
		logError(ss.logger, "SET_USERNAME: reply failed:", err)
	}
}

// serve - message loop of active session.
func (ss *session) serve() {
	srv := ss.srv
	buf := make([]byte, message.MaxFrameSize)
	for ss.state == StateActive {
		if !srv.running.Running() {
			ss.closing(broker.ReasonShutdown)
			return
		}
		ss.conn.SetReadDeadline(time.Now().Add(srv.pollTimeout))
		n, err := ss.conn.Read(buf)
		if n > 0 {
			ss.frames.Write(buf[:n])
			ss.handleFrame(strings.TrimSpace(ss.frames.Flush()))
			if ss.state != StateActive {
				return
			}
		}
		switch {
		case err == nil, isTimeout(err):
			continue
		case errors.Is(err, io.EOF):
			logInfo(ss.logger, "[DISCONNECT]", ss.username, "disconnected")
			srv.broker.Broadcast(message.Left(ss.username), ss.conn)
			ss.closing(broker.ReasonLeft)
		case !srv.running.Running():
			ss.closing(broker.ReasonShutdown)
		case isClosed(err):
			// evicted by broker
			ss.closing(broker.ReasonLeft)
		default:
			logError(ss.logger, "[ERROR] Receive error for", ss.username, err)
			ss.closing(broker.ReasonFault)
		}
	}
}

func (ss *session) handleFrame(text string) {
	srv := ss.srv
	switch text {
	case "":
		return
	case message.Quit:
		logInfo(ss.logger, "[QUIT]", ss.username, "requested to quit")
		srv.broker.Broadcast(message.Left(ss.username), ss.conn)
		srv.broker.Evict(ss.conn, broker.ReasonQuit)
		ss.closing(broker.ReasonQuit)
		return
	}
	if !ss.limiter.Allow() {
		// chunk read over the limit is dropped, a flooder must not queue text in the socket
		logInfo(ss.logger, "[RATE] Dropped message from", ss.username)
		return
	}
	srv.broker.Broadcast(message.Chat(ss.username, text), ss.conn)
}

func (ss *session) closing(reason broker.Reason) {
	ss.reason = reason
	ss.state = StateClosing
}

// close - unregisters connection if it is still kept and closes it.
func (ss *session) close() {
	if ss.reason == broker.ReasonShutdown {
		ss.srv.awaitDrain()
	}
	ss.srv.broker.Evict(ss.conn, ss.reason)
	logInfo(ss.logger, "[CLOSE] Cleanup for user:", ss.username, "|", ss.reason)
	ss.state = StateClosed
}
