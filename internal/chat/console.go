package chat

import (
	"bufio"
	"io"
	"strings"
)

// adminConsole - reads operator commands line by line.
// Exit command starts orchestrated shutdown, any other input is ignored.
// End of input only clears running signal.
func (s *Server) adminConsole(console io.Reader) {
	scanner := bufio.NewScanner(console)
	for scanner.Scan() {
		if !s.running.Running() {
			return
		}
		if !strings.EqualFold(strings.TrimSpace(scanner.Text()), s.exitCommand) {
			continue
		}
		logInfo(s.logger, "Manual shutdown of server commenced.")
		s.Shutdown()
		return
	}
	if err := scanner.Err(); err != nil {
		logError(s.logger, "ADMIN_COMMAND: console read error:", err)
	}
	s.Stop()
}
