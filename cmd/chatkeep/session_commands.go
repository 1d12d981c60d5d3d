package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nrfhq/chatkeep/pkg/chat"
	"github.com/nrfhq/chatkeep/pkg/display"
	"github.com/nrfhq/chatkeep/pkg/store"
)

// sessionCommand handles session management subcommands.
type sessionCommand struct {
	configPath string
}

// Execute runs the session command.
func (c *sessionCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	subcommand := args[0]
	subargs := args[1:]

	switch subcommand {
	case "new":
		return c.runNew()
	case "show":
		return c.runShow(subargs)
	case "rename":
		return c.runRename(subargs)
	case "delete":
		return c.runDelete(subargs)
	case "pin":
		return c.runPin(subargs)
	case "pin-message":
		return c.runPinMessage(subargs)
	case "unpin-message":
		return c.runUnpinMessage(subargs)
	case "pins":
		return c.runPins(subargs)
	case "switch":
		return c.runSwitch(subargs)
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown session subcommand: %s", subcommand)
	}
}

// runNew creates a session and makes it active.
func (c *sessionCommand) runNew() error {
	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	sess, err := a.mgr.NewChat()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	fmt.Printf("Created session '%s' (%s)\n", sess.Name, sess.ID)
	return nil
}

// runShow prints a session transcript.
func (c *sessionCommand) runShow(args []string) error {
	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	id := a.mgr.ActiveID()
	if len(args) > 0 {
		id = args[0]
	}
	if id == "" {
		return chat.ErrNoActiveSession
	}

	sess, err := a.store.Get(id)
	if err != nil {
		return err
	}

	formatter := display.New(display.Config{
		ShowTimestamps: true,
		Width:          terminalWidth(),
	})
	return formatter.FormatTranscript(os.Stdout, sess)
}

// runRename renames a session.
func (c *sessionCommand) runRename(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: chatkeep session rename <id> <name>")
	}

	id := args[0]
	name := strings.Join(args[1:], " ")
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name cannot be empty")
	}

	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if !a.store.Has(id) {
		return store.ErrSessionNotFound
	}

	if err := a.store.RenameSession(id, name); err != nil {
		return fmt.Errorf("failed to rename session: %w", err)
	}

	fmt.Printf("Renamed session %s to '%s'\n", id, name)
	return nil
}

// runDelete removes a session.
func (c *sessionCommand) runDelete(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: chatkeep session delete <id>")
	}
	id := args[0]

	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if !a.store.Has(id) {
		return store.ErrSessionNotFound
	}

	if err := a.mgr.DeleteSession(id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	fmt.Printf("Deleted session %s\n", id)
	if active := a.mgr.ActiveID(); active != "" {
		fmt.Printf("Active session is now %s\n", active)
	}
	return nil
}

// runPin toggles a session's pinned flag.
func (c *sessionCommand) runPin(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: chatkeep session pin <id>")
	}
	id := args[0]

	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if !a.store.Has(id) {
		return store.ErrSessionNotFound
	}

	if err := a.store.TogglePinSession(id); err != nil {
		return fmt.Errorf("failed to toggle pin: %w", err)
	}

	sess, err := a.store.Get(id)
	if err != nil {
		return err
	}

	state := "unpinned"
	if sess.IsPinned {
		state = "pinned"
	}
	fmt.Printf("Session '%s' is now %s\n", sess.Name, state)
	return nil
}

// runPinMessage pins a message inside a session.
func (c *sessionCommand) runPinMessage(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: chatkeep session pin-message <id> <message-id>")
	}

	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	id, messageID := args[0], args[1]
	if !a.store.Has(id) {
		return store.ErrSessionNotFound
	}

	if err := a.store.PinMessage(id, messageID); err != nil {
		return fmt.Errorf("failed to pin message: %w", err)
	}

	fmt.Printf("Pinned message %s (last %d pins are kept)\n",
		messageID, store.MaxPinnedMessages)
	return nil
}

// runUnpinMessage unpins a message inside a session.
func (c *sessionCommand) runUnpinMessage(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: chatkeep session unpin-message <id> <message-id>")
	}

	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	id, messageID := args[0], args[1]
	if !a.store.Has(id) {
		return store.ErrSessionNotFound
	}

	if err := a.store.UnpinMessage(id, messageID); err != nil {
		return fmt.Errorf("failed to unpin message: %w", err)
	}

	fmt.Printf("Unpinned message %s\n", messageID)
	return nil
}

// runPins lists a session's pinned messages.
func (c *sessionCommand) runPins(args []string) error {
	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	id := a.mgr.ActiveID()
	if len(args) > 0 {
		id = args[0]
	}
	if id == "" {
		return chat.ErrNoActiveSession
	}

	pins, err := a.store.PinnedMessages(id)
	if err != nil {
		return err
	}

	if len(pins) == 0 {
		fmt.Println("No pinned messages")
		return nil
	}

	for _, msg := range pins {
		fmt.Printf("%s [%s] %s\n", msg.ID, msg.Sender, msg.Text)
	}
	return nil
}

// runSwitch changes the active session.
func (c *sessionCommand) runSwitch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: chatkeep session switch <id>")
	}

	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.mgr.SetActive(args[0]); err != nil {
		return err
	}

	sess, _ := a.mgr.ActiveSession()
	fmt.Printf("Active session is now '%s' (%s)\n", sess.Name, sess.ID)
	return nil
}

// showHelp displays help for the session command.
func (c *sessionCommand) showHelp() error {
	help := `Session - session management

Usage:
  chatkeep session <subcommand> [args]

Subcommands:
  new                          Create a session and make it active
  show [id]                    Show a transcript (default: active session)
  rename <id> <name>           Rename a session
  delete <id>                  Delete a session
  pin <id>                     Toggle a session's pinned flag
  pin-message <id> <msg-id>    Pin a message (last 3 pins are kept)
  unpin-message <id> <msg-id>  Unpin a message
  pins [id]                    List pinned messages
  switch <id>                  Change the active session

Examples:
  chatkeep session new
  chatkeep session rename session-42 "Research notes"
  chatkeep session pin session-42
  chatkeep session pins
`
	fmt.Print(help)
	return nil
}

// remoteCommand handles server-side session subcommands.
type remoteCommand struct {
	configPath string
}

// Execute runs the remote command.
func (c *remoteCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	subcommand := args[0]
	subargs := args[1:]

	switch subcommand {
	case "list":
		return c.runList(subargs)
	case "delete":
		return c.runDelete(subargs)
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown remote subcommand: %s", subcommand)
	}
}

// runList fetches and prints the server's session listing.
func (c *remoteCommand) runList(args []string) error {
	format := "table"
	if len(args) > 0 {
		format = args[0]
	}

	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, err := a.mgr.Refresh(ctx)
	if err != nil {
		return err
	}

	formatter := display.New(display.Config{
		Format:         parseFormat(format),
		ShowTimestamps: true,
	})
	return formatter.FormatRemoteSessions(os.Stdout, sessions)
}

// runDelete removes a server-side session and prints the refreshed
// listing.
func (c *remoteCommand) runDelete(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: chatkeep remote delete <id>")
	}

	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, err := a.mgr.DeleteRemote(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Deleted server session %s, %d session(s) remain\n", args[0], len(sessions))
	return nil
}

// showHelp displays help for the remote command.
func (c *remoteCommand) showHelp() error {
	help := `Remote - server-side sessions

Usage:
  chatkeep remote <subcommand> [args]

Subcommands:
  list [format]    List sessions known to the backend (table, json, simple)
  delete <id>      Delete a session server-side

Examples:
  chatkeep remote list
  chatkeep remote list json
  chatkeep remote delete session-42
`
	fmt.Print(help)
	return nil
}
