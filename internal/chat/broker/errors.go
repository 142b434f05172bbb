package broker

import "errors"

var (
	// ErrUnderStopCondition - returns in case if Broker is under stop condition
	// and will not register any new connections, so you should close such connection by your own.
	ErrUnderStopCondition = errors.New("broker.Broker: under stop condition")

	// ErrConnKept - returns in case if connection is registered already.
	// Do not close such connection after this error, it is still owned by the registry.
	ErrConnKept = errors.New("broker.Registry: connection is kept already")

	// ErrNilConn - returns on attempt to register nil handle.
	ErrNilConn = errors.New("broker.Registry: connection is nil")
)
