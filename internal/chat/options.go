package chat

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Option - configures Server on construction.
type Option func(s *Server) error

func setup(s *Server, options ...Option) error {
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(s); err != nil {
			return err
		}
	}
	return nil
}

func positive(name string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("chat.%s: invalid duration (%v)", name, d)
	}
	return nil
}

// WithLogger - attach logger to report server events.
func WithLogger(logger Logger) Option {
	return func(s *Server) error {
		if s.logger != nil {
			return errors.New("chat.WithLogger: logger already set up")
		}
		s.logger = logger
		return nil
	}
}

// WithHandshakeTimeout - overwrites time given to a new client to send its join frame.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(s *Server) error {
		if err := positive("WithHandshakeTimeout", timeout); err != nil {
			return err
		}
		s.handshakeTimeout = timeout
		return nil
	}
}

// WithPollTimeout - overwrites bounded wait of accept and receive calls,
// it limits how fast loops observe the server is stopping.
func WithPollTimeout(timeout time.Duration) Option {
	return func(s *Server) error {
		if err := positive("WithPollTimeout", timeout); err != nil {
			return err
		}
		s.pollTimeout = timeout
		return nil
	}
}

// WithIdleTimeout - server stops itself after it has no clients for threshold duration.
// Registry size is checked every interval.
func WithIdleTimeout(threshold, interval time.Duration) Option {
	return func(s *Server) error {
		if err := positive("WithIdleTimeout", threshold); err != nil {
			return err
		}
		if err := positive("WithIdleTimeout", interval); err != nil {
			return err
		}
		s.idleTimeout, s.idleInterval = threshold, interval
		return nil
	}
}

// WithGracePeriod - overwrites delay between shutdown sentinel and forced closing of connections.
func WithGracePeriod(grace time.Duration) Option {
	return func(s *Server) error {
		if grace < 0 {
			return fmt.Errorf("chat.WithGracePeriod: invalid duration (%v)", grace)
		}
		s.grace = grace
		return nil
	}
}

// WithJoinTimeouts - overwrites bounded waits for session workers and idle monitor on shutdown.
func WithJoinTimeouts(worker, monitor time.Duration) Option {
	return func(s *Server) error {
		if err := positive("WithJoinTimeouts", worker); err != nil {
			return err
		}
		if err := positive("WithJoinTimeouts", monitor); err != nil {
			return err
		}
		s.workerJoinTimeout, s.monitorJoinTimeout = worker, monitor
		return nil
	}
}

// WithConsole - attach operator console. Reading of console is never joined on shutdown.
func WithConsole(console io.Reader, exitCommand string) Option {
	return func(s *Server) error {
		if console == nil {
			return errors.New("chat.WithConsole: console reader is nil")
		}
		exitCommand = strings.TrimSpace(exitCommand)
		if exitCommand == "" {
			return errors.New("chat.WithConsole: exit command is empty")
		}
		s.console, s.exitCommand = console, exitCommand
		return nil
	}
}

// WithRateLimit - limits number of relayed messages per second for every session.
// Every received chunk costs one token (burst 1), chunks received without a token are dropped.
// Zero means no limit.
func WithRateLimit(perSecond float64) Option {
	return func(s *Server) error {
		switch {
		case perSecond < 0:
			return fmt.Errorf("chat.WithRateLimit: invalid rate (%v)", perSecond)
		case perSecond == 0:
			s.rateLimit = rate.Inf
		default:
			s.rateLimit = rate.Limit(perSecond)
		}
		return nil
	}
}
