package broker

import (
	"errors"
	"fmt"
	"time"
)

// WithWriteTimeout - overwrites default write timeout used for every single send.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(b *Broker) error {
		if timeout <= 0 {
			return fmt.Errorf("broker.WithWriteTimeout: invalid timeout (%v)", timeout)
		}
		b.writeTimeout = timeout
		return nil
	}
}

// WithLogger - attach logger to report registrations, removals and send failures.
func WithLogger(logger Logger) Option {
	return func(b *Broker) error {
		if b.logger != nil {
			return errors.New("broker.WithLogger: logger already set up")
		}
		b.logger = logger
		return nil
	}
}
