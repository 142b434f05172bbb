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
	// Configuration - client configuration
	Configuration struct {
		// Host - chat server host
		Host string
		// Port - chat server port
		Port uint
		// DialTimeout - max time to establish connection
		DialTimeout time.Duration
	}
)

// Version - app version fingerprint
const Version = "1.0.0"

var (
	// Config - current configuration of the client
	Config = Configuration{
		Host:        "127.0.0.1",
		Port:        5007,
		DialTimeout: 5 * time.Second,
	}

	// BinaryName - name of run application binary
	BinaryName = strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0]))
)

func init() {
	out := flag.CommandLine.Output()
	printUsage := func() {
		fmt.Fprintf(out, "Connect to text chat relay server over TCP\n\n\t%s [options]\nOptions:\n\n", BinaryName)
		flag.PrintDefaults()
		fmt.Fprint(out, "\n")
	}
	printError := func(msg string) {
		fmt.Fprintf(out, "%s (v%s) error:\n\n\t%s\n", BinaryName, Version, msg)
	}

	env, err := envconf.Load("CHATCLI_")
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}

	help := false
	flag.BoolVar(&help, "help", false, "Print usage help")
	flag.StringVar(&Config.Host, "host", env.String("HOST", Config.Host), "Server host")
	flag.UintVar(&Config.Port, "port", env.Uint("PORT", Config.Port), "Server port")
	flag.DurationVar(&Config.DialTimeout, "dial-timeout", env.Duration("DIAL_TIMEOUT", Config.DialTimeout), "Connection timeout")

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
	if Config.DialTimeout <= 0 {
		printError("dial-timeout value should be positive")
		os.Exit(1)
	}
}
