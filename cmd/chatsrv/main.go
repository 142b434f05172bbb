package main

import (
	"fmt"
	stdlog "log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wtask/relaychat/internal/chat"
)

func main() {
	logger := stdlog.New(os.Stdout, "chatsrv:"+Version+" ", stdlog.Ldate|stdlog.Ltime)
	logger.Printf("Started with config: %+v", Config)

	node := net.JoinHostPort(Config.IPAddress, fmt.Sprintf("%d", Config.Port))
	listener, err := net.Listen("tcp", node)
	if err != nil {
		logger.Println("ERR", "Unable to listen TCP:", err)
		os.Exit(1)
	}

	options := []chat.Option{
		chat.WithLogger(logger),
		chat.WithIdleTimeout(Config.IdleTimeout, idleInterval(Config.IdleTimeout)),
		chat.WithGracePeriod(Config.GracePeriod),
		chat.WithRateLimit(Config.RateLimit),
	}
	if Config.AdminConsole {
		options = append(options, chat.WithConsole(os.Stdin, Config.ExitCommand))
		logger.Printf("Type %q to shut the server down", Config.ExitCommand)
	}
	server, err := chat.NewServer(chat.DefaultBroker(), options...)
	if err != nil {
		logger.Println("ERR", "Can't start chat server:", err)
		listener.Close()
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-sig
		logger.Println("Got stop signal:", s)
		server.Shutdown()
	}()

	if err := server.Serve(listener); err != nil {
		logger.Println("ERR", "Chat server failed:", err)
		os.Exit(1)
	}
	logger.Println("Chat server stopped, bye")
}

// idleInterval - how often registry size is checked, at least ten checks per idle timeout.
func idleInterval(timeout time.Duration) time.Duration {
	interval := timeout / 10
	switch {
	case interval > time.Second:
		return time.Second
	case interval < time.Millisecond:
		return time.Millisecond
	}
	return interval
}
