package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/wtask/relaychat/internal/client"
)

func main() {
	node := net.JoinHostPort(Config.Host, fmt.Sprintf("%d", Config.Port))
	conn, err := net.DialTimeout("tcp", node, Config.DialTimeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Unable to connect to", node, err)
		os.Exit(1)
	}

	session, err := client.NewSession(conn, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Can't start chat session:", err)
		conn.Close()
		os.Exit(1)
	}

	// prompt and session share single buffered reader, so typed ahead lines are not lost
	input := bufio.NewReader(os.Stdin)
	username, err := askUsername(input, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Username is required:", err)
		conn.Close()
		os.Exit(1)
	}
	if err := session.Join(username); err != nil {
		fmt.Fprintln(os.Stderr, "Can't join the chat:", err)
		conn.Close()
		os.Exit(1)
	}
	session.Run(input)
}

// askUsername - repeats prompt until non-empty username is entered.
func askUsername(input *bufio.Reader, out io.Writer) (string, error) {
	for {
		fmt.Fprint(out, "Enter Your Username: ")
		line, err := input.ReadString('\n')
		if username := strings.TrimSpace(line); username != "" {
			return username, nil
		}
		if err != nil {
			return "", err
		}
	}
}
