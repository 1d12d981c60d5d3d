// Package main provides the chatkeep CLI application.
//
// Chatkeep is a terminal chat client with durable local sessions.
// Conversations are stored in a local bbolt database, messages are
// relayed to a backend chat service, and sessions can be pinned,
// renamed and browsed offline.
package main

import (
	"flag"
	"fmt"
	"os"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run() error {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Parse()

	if *showVersion {
		fmt.Printf("chatkeep %s\n", version)
		return nil
	}

	args := flag.Args()
	if len(args) == 0 {
		return showUsage()
	}

	command := args[0]

	switch command {
	case "chat":
		return runChatCommand(*configPath, args[1:])
	case "send":
		return runSendCommand(*configPath, args[1:])
	case "list":
		return runListCommand(*configPath, args[1:])
	case "session":
		return runSessionCommand(*configPath, args[1:])
	case "remote":
		return runRemoteCommand(*configPath, args[1:])
	case "config":
		return runConfigCommand(*configPath, args[1:])
	case "help":
		return showUsage()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runChatCommand runs the interactive chat command.
func runChatCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	session := fs.String("session", "", "session ID to resume")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &chatCommand{
		sessionID:  *session,
		configPath: configPath,
	}
	return cmd.Execute()
}

// runSendCommand runs the one-shot send command.
func runSendCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	session := fs.String("session", "", "session ID to send into")
	newSession := fs.Bool("new", false, "create a new session for the message")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		return fmt.Errorf("usage: chatkeep send [flags] <message>")
	}

	cmd := &sendCommand{
		sessionID:  *session,
		newSession: *newSession,
		message:    fs.Arg(0),
		configPath: configPath,
	}
	return cmd.Execute()
}

// runListCommand runs the list command.
func runListCommand(configPath string, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	format := fs.String("format", "table", "output format (table, json, simple)")
	compact := fs.Bool("compact", false, "compact output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd := &listCommand{
		format:     *format,
		compact:    *compact,
		configPath: configPath,
	}
	return cmd.Execute()
}

// runSessionCommand runs the session command.
func runSessionCommand(configPath string, args []string) error {
	cmd := &sessionCommand{
		configPath: configPath,
	}
	return cmd.Execute(args)
}

// runRemoteCommand runs the remote command.
func runRemoteCommand(configPath string, args []string) error {
	cmd := &remoteCommand{
		configPath: configPath,
	}
	return cmd.Execute(args)
}

// runConfigCommand runs the config command.
func runConfigCommand(configPath string, args []string) error {
	cmd := &configCommand{
		configPath: configPath,
	}
	return cmd.Execute(args)
}

// showUsage displays usage information.
func showUsage() error {
	usage := `Chatkeep - terminal chat client with durable sessions

Usage:
  chatkeep [flags] <command> [command flags]

Commands:
  chat        Interactive chat in the active session
  send        Send a single message and print the reply
  list        List local sessions (pinned group first)
  session     Session management (new, show, rename, delete, pin, pins)
  remote      Server-side sessions (list, delete)
  config      Configuration management (show, path, reset)
  help        Show this help message

Global Flags:
  -config     Path to configuration file
  -version    Show version information

Chat Command Flags:
  -session    Session ID to resume (default: last active)

Send Command Flags:
  -session    Session ID to send into
  -new        Create a new session for the message

List Command Flags:
  -format     Output format (table, json, simple)
  -compact    Compact output

Examples:
  # Start an interactive chat
  chatkeep chat

  # Send a one-shot message into a new session
  chatkeep send -new "Hello"

  # List local sessions
  chatkeep list

  # Show a session transcript
  chatkeep session show <id>

  # Session management
  chatkeep session new
  chatkeep session rename <id> <name>
  chatkeep session pin <id>
  chatkeep session pin-message <id> <message-id>
  chatkeep session delete <id>

  # Server-side sessions
  chatkeep remote list
  chatkeep remote delete <id>

Version: %s
`

	fmt.Printf(usage, version)
	return nil
}
