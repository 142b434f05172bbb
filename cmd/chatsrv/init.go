package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wtask/relaychat/pkg/envconf"
)

type (
	// Configuration - server configuration
	Configuration struct {
		// IPAddress - bind the address
		IPAddress string
		// Port - bind the port
		Port uint
		// IdleTimeout - server stops itself when nobody is connected during this period
		IdleTimeout time.Duration
		// GracePeriod - delay between shutdown notice and forced closing of connections
		GracePeriod time.Duration
		// RateLimit - max relayed messages per second for single client, 0 is unlimited
		RateLimit float64
		// AdminConsole - read operator commands from stdin
		AdminConsole bool
		// ExitCommand - operator command to shut the server down
		ExitCommand string
	}
)

// Version - app version fingerprint
const Version = "1.0.0"

var (
	// Config - current configuration of the server
	Config = Configuration{
		IPAddress:    "0.0.0.0",
		Port:         50007,
		IdleTimeout:  10 * time.Second,
		GracePeriod:  500 * time.Millisecond,
		RateLimit:    0,
		AdminConsole: true,
		ExitCommand:  "exit",
	}

	// BinaryName - name of run application binary
	BinaryName = strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0]))
)

func init() {
	out := flag.CommandLine.Output()
	printUsage := func() {
		fmt.Fprintf(out, "Launch text chat relay server over TCP\n\n\t%s [options]\nOptions:\n\n", BinaryName)
		flag.PrintDefaults()
		fmt.Fprint(out, "\nEvery option defaults to CHATSRV_<OPTION> environment variable, .env file is loaded when present.\n\n")
	}
	printError := func(msg string) {
		fmt.Fprintf(out, "%s (v%s) error:\n\n\t%s\n", BinaryName, Version, msg)
	}

	env, err := envconf.Load("CHATSRV_")
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	help := false
	flag.BoolVar(&help, "help", false, "Print usage help")
	flag.StringVar(&Config.IPAddress, "ip", env.String("IP", Config.IPAddress), "Listen address")
	flag.UintVar(&Config.Port, "port", env.Uint("PORT", Config.Port), "Listen port")
	flag.DurationVar(
		&Config.IdleTimeout,
		"idle-timeout",
		env.Duration("IDLE_TIMEOUT", Config.IdleTimeout),
		"Server stops itself when nobody is connected during this period.",
	)
	flag.DurationVar(
		&Config.GracePeriod,
		"grace",
		env.Duration("GRACE", Config.GracePeriod),
		"Delay between shutdown notice and forced closing of client connections.",
	)
	flag.Float64Var(
		&Config.RateLimit,
		"rate",
		env.Float("RATE", Config.RateLimit),
		"Max relayed messages per second for single client, 0 is unlimited.",
	)
	flag.BoolVar(&Config.AdminConsole, "admin", env.Bool("ADMIN", Config.AdminConsole), "Read operator commands from stdin")
	flag.StringVar(&Config.ExitCommand, "exit-command", env.String("EXIT", Config.ExitCommand), "Operator command to shut the server down")

	flag.Parse()

	if help {
		printUsage()
		os.Exit(0)
	}
	if err := env.Err(); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	if Config.Port == 0 || Config.Port > 65535 {
		printError("port value should be in range 1..65535")
		os.Exit(1)
	}
	if Config.IdleTimeout <= 0 {
		printError("idle-timeout value should be positive")
		os.Exit(1)
	}
	if Config.GracePeriod < 0 {
		printError("grace value should not be negative")
		os.Exit(1)
	}
	if Config.RateLimit < 0 {
		printError("rate value should be greater or equal 0")
		os.Exit(1)
	}
	Config.ExitCommand = strings.TrimSpace(Config.ExitCommand)
	if Config.AdminConsole && Config.ExitCommand == "" {
		printError("exit-command value should not be empty")
		os.Exit(1)
	}

	fmt.Fprint(out, "TCP chat server is launching, press Ctrl-C to stop...\n")
}
