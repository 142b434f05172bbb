package chat

import "time"

// monitorIdle - stops the server when it has no registered clients for idle timeout.
// The idle window opens at the first check which finds registry empty
// and resets as soon as any client is registered.
func (s *Server) monitorIdle() {
	ticker := time.NewTicker(s.idleInterval)
	defer ticker.Stop()

	var emptySince time.Time
	for {
		select {
		case <-s.running.Done():
			return
		case now := <-ticker.C:
			if s.broker.Clients().Len() > 0 {
				emptySince = time.Time{}
				continue
			}
			if emptySince.IsZero() {
				emptySince = now
				continue
			}
			if now.Sub(emptySince) >= s.idleTimeout {
				logInfo(s.logger, "No clients for", s.idleTimeout, "Closing server...")
				s.running.Stop()
				s.closeListener()
				logInfo(s.logger, "MONITOR_SERVER: Server closed.")
				return
			}
		}
	}
}
