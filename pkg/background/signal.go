package background

import (
	"context"

	"github.com/tevino/abool"
)

// Signal - process-wide running flag shared by cooperating loops.
// It starts in running state and can only move to stopped state, never back.
// Loops check Running() at their safe points or select on Done().
type Signal struct {
	running *abool.AtomicBool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewSignal - builds signal in running state.
func NewSignal() *Signal {
	ctx, cancel := context.WithCancel(context.Background())
	return &Signal{
		running: abool.NewBool(true),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Running - reports whether the signal is still in running state.
func (s *Signal) Running() bool {
	return s.running.IsSet()
}

// Stop - clears the signal. Returns true only for the call which actually made the transition.
func (s *Signal) Stop() bool {
	stopped := s.running.SetToIf(true, false)
	s.cancel()
	return stopped
}

// Done - returns channel which is closed after the signal is stopped.
func (s *Signal) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Context - returns context canceled together with the signal.
func (s *Signal) Context() context.Context {
	return s.ctx
}
