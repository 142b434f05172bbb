package chat

import (
	"errors"
	"time"

	"github.com/wtask/relaychat/internal/chat/broker"
	"github.com/wtask/relaychat/pkg/background"
)

// BrokerBuilder - helps to build custom broker.Broker bound to server running signal and logger.
type BrokerBuilder func(running *background.Signal, logger Logger) (*broker.Broker, error)

// DefaultBroker - returns builder of broker.Broker with one second send timeout.
func DefaultBroker() BrokerBuilder {
	return BrokerWithTimeout(1 * time.Second)
}

// BrokerWithTimeout - returns builder of broker.Broker with custom send timeout.
func BrokerWithTimeout(sendTimeout time.Duration) BrokerBuilder {
	return func(running *background.Signal, logger Logger) (*broker.Broker, error) {
		if running == nil {
			return nil, errors.New("chat.DefaultBroker: running signal is required")
		}
		options := []broker.Option{broker.WithWriteTimeout(sendTimeout)}
		if logger != nil {
			options = append(options, broker.WithLogger(logger))
		}
		return broker.New(running, options...)
	}
}
