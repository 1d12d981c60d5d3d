package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/nrfhq/chatkeep/pkg/chat"
	"github.com/nrfhq/chatkeep/pkg/client"
	"github.com/nrfhq/chatkeep/pkg/config"
	"github.com/nrfhq/chatkeep/pkg/display"
	"github.com/nrfhq/chatkeep/pkg/logger"
	"github.com/nrfhq/chatkeep/pkg/store"
	"github.com/nrfhq/chatkeep/pkg/watcher"
)

// app bundles the components every command needs.
type app struct {
	cfg     *config.Config
	cfgPath string
	log     logger.Logger
	storage store.Storage
	store   *store.Store
	backend client.Client
	mgr     *chat.Manager
}

// newApp loads configuration and wires up storage, store, backend
// and the chat manager.
//
// The backend is nil when no base URL is configured; local commands
// keep working without it.
func newApp(configPath string) (*app, error) {
	cfg, err := config.NewLoader(configPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	storage, err := store.NewBoltStorage(store.BoltConfig{
		Path:      cfg.Storage.DBPath,
		Namespace: cfg.Storage.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	st := store.Open(storage, log)

	var backend client.Client
	if cfg.Backend.BaseURL != "" {
		backend, err = client.New(client.Config{
			BaseURL: cfg.Backend.BaseURL,
			Timeout: cfg.Backend.Timeout,
		}, log)
		if err != nil {
			_ = storage.Close() //nolint:errcheck // best effort cleanup
			return nil, fmt.Errorf("failed to create backend client: %w", err)
		}
	}

	mgr := chat.New(chat.Config{
		BaseSessionName:  cfg.Chat.BaseSessionName,
		ContextWindow:    cfg.Chat.ContextWindow,
		StaleReplyPolicy: cfg.Chat.StaleReplyPolicy,
	}, st, storage, backend, log)

	return &app{
		cfg:     cfg,
		cfgPath: configPath,
		log:     log,
		storage: storage,
		store:   st,
		backend: backend,
		mgr:     mgr,
	}, nil
}

// close releases the app's resources.
func (a *app) close() {
	if err := a.storage.Close(); err != nil {
		a.log.Error("failed to close storage", "error", err)
	}
}

// terminalWidth reports the stdout width, or zero when stdout is not
// a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}

	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}

// chatCommand runs an interactive chat in the active session.
type chatCommand struct {
	sessionID  string
	configPath string
}

// Execute runs the chat command.
func (c *chatCommand) Execute() error {
	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if a.backend == nil {
		return chat.ErrNoBackend
	}

	if c.sessionID != "" {
		if err := a.mgr.SetActive(c.sessionID); err != nil {
			return fmt.Errorf("cannot resume session %s: %w", c.sessionID, err)
		}
	}

	if a.mgr.ActiveID() == "" {
		if _, err := a.mgr.NewChat(); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.watchConfig(ctx, a)

	sess, _ := a.mgr.ActiveSession()
	fmt.Printf("chatkeep - %s (%s)\n", sess.Name, sess.ID)
	fmt.Println("Type a message, or /help for commands.")
	fmt.Println()

	return c.repl(ctx, a)
}

// watchConfig reloads chat settings when the config file changes.
func (c *chatCommand) watchConfig(ctx context.Context, a *app) {
	path := c.configPath
	if path == "" {
		path = os.Getenv("CHATKEEP_CONFIG")
	}
	if path == "" {
		path = config.DefaultConfigPath()
	}

	w, err := watcher.New(watcher.Config{
		DebounceInterval: 200 * time.Millisecond,
	}, a.log)
	if err != nil {
		a.log.Warn("config watching disabled", "error", err)
		return
	}

	if err := w.Start(ctx, path); err != nil {
		a.log.Warn("config watching disabled", "error", err)
		_ = w.Close() //nolint:errcheck // best effort cleanup
		return
	}

	go func() {
		defer func() {
			_ = w.Close() //nolint:errcheck // best effort cleanup
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events():
				if !ok {
					return
				}
				if event.Op == watcher.OpRemove {
					continue
				}

				cfg, loadErr := config.NewLoader(c.configPath).Load()
				if loadErr != nil {
					a.log.Warn("config reload failed", "error", loadErr)
					continue
				}

				a.mgr.UpdateConfig(chat.Config{
					BaseSessionName:  cfg.Chat.BaseSessionName,
					ContextWindow:    cfg.Chat.ContextWindow,
					StaleReplyPolicy: cfg.Chat.StaleReplyPolicy,
				})
				a.log.Info("chat settings reloaded", "path", event.Path)
			}
		}
	}()
}

// repl reads lines from stdin until EOF or cancellation.
func (c *chatCommand) repl(ctx context.Context, a *app) error {
	interactive := term.IsTerminal(int(os.Stdin.Fd()))

	// Reading happens in a goroutine so Ctrl+C interrupts the REPL
	// even while blocked on stdin.
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		readErr <- scanner.Err()
		close(lines)
	}()

	for {
		if interactive {
			fmt.Print("> ")
		}

		var line string
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case text, ok := <-lines:
			if !ok {
				fmt.Println()
				return <-readErr
			}
			line = text
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, cmdErr := c.handleSlashCommand(a, line)
			if cmdErr != nil {
				fmt.Printf("error: %v\n", cmdErr)
			}
			if quit {
				return nil
			}
			continue
		}

		res, sendErr := a.mgr.Send(ctx, line)
		if sendErr != nil {
			fmt.Printf("error: %v\n", sendErr)
			continue
		}

		c.printReply(res)
	}
}

// handleSlashCommand dispatches REPL commands. It reports whether the
// REPL should exit.
func (c *chatCommand) handleSlashCommand(a *app, line string) (bool, error) {
	fields := strings.Fields(line)
	command := fields[0]
	args := fields[1:]

	switch command {
	case "/quit", "/exit":
		return true, nil

	case "/new":
		sess, err := a.mgr.NewChat()
		if err != nil {
			return false, err
		}
		fmt.Printf("switched to %s (%s)\n", sess.Name, sess.ID)
		return false, nil

	case "/list", "/sessions":
		formatter := display.New(display.Config{
			Format:         display.FormatSimple,
			ShowTimestamps: false,
		})
		return false, formatter.FormatSessions(os.Stdout,
			a.store.PinnedSessions(), a.store.UnpinnedSessions(), a.mgr.ActiveID())

	case "/switch":
		if len(args) == 0 {
			return false, fmt.Errorf("usage: /switch <session-id>")
		}
		if err := a.mgr.SetActive(args[0]); err != nil {
			return false, err
		}
		sess, _ := a.mgr.ActiveSession()
		fmt.Printf("switched to %s (%s)\n", sess.Name, sess.ID)
		return false, nil

	case "/show":
		sess, ok := a.mgr.ActiveSession()
		if !ok {
			return false, chat.ErrNoActiveSession
		}
		formatter := display.New(display.Config{
			ShowTimestamps: true,
			Width:          terminalWidth(),
		})
		return false, formatter.FormatTranscript(os.Stdout, sess)

	case "/pin":
		if len(args) == 0 {
			return false, fmt.Errorf("usage: /pin <message-id>")
		}
		id := a.mgr.ActiveID()
		if id == "" {
			return false, chat.ErrNoActiveSession
		}
		return false, a.store.PinMessage(id, args[0])

	case "/unpin":
		if len(args) == 0 {
			return false, fmt.Errorf("usage: /unpin <message-id>")
		}
		id := a.mgr.ActiveID()
		if id == "" {
			return false, chat.ErrNoActiveSession
		}
		return false, a.store.UnpinMessage(id, args[0])

	case "/pins":
		id := a.mgr.ActiveID()
		if id == "" {
			return false, chat.ErrNoActiveSession
		}
		pins, err := a.store.PinnedMessages(id)
		if err != nil {
			return false, err
		}
		if len(pins) == 0 {
			fmt.Println("No pinned messages")
			return false, nil
		}
		for _, msg := range pins {
			fmt.Printf("%s [%s] %s\n", msg.ID, msg.Sender, msg.Text)
		}
		return false, nil

	case "/rename":
		if len(args) == 0 {
			return false, fmt.Errorf("usage: /rename <name>")
		}
		id := a.mgr.ActiveID()
		if id == "" {
			return false, chat.ErrNoActiveSession
		}
		name := strings.Join(args, " ")
		if err := a.store.RenameSession(id, name); err != nil {
			return false, err
		}
		fmt.Printf("renamed to %s\n", name)
		return false, nil

	case "/delete":
		id := a.mgr.ActiveID()
		if id == "" {
			return false, chat.ErrNoActiveSession
		}
		if err := a.mgr.DeleteSession(id); err != nil {
			return false, err
		}
		if sess, ok := a.mgr.ActiveSession(); ok {
			fmt.Printf("deleted; switched to %s (%s)\n", sess.Name, sess.ID)
		} else {
			fmt.Println("deleted; no sessions left, use /new to start one")
		}
		return false, nil

	case "/help":
		fmt.Println("/new                 start a new session")
		fmt.Println("/list                list sessions")
		fmt.Println("/switch <id>         switch to a session")
		fmt.Println("/show                show the current transcript")
		fmt.Println("/rename <name>       rename the current session")
		fmt.Println("/delete              delete the current session")
		fmt.Println("/pin <message-id>    pin a message (keeps the last 3 pins)")
		fmt.Println("/unpin <message-id>  unpin a message")
		fmt.Println("/pins                list pinned messages")
		fmt.Println("/quit                exit")
		return false, nil

	default:
		return false, fmt.Errorf("unknown command: %s", command)
	}
}

// printReply renders a completed send.
func (c *chatCommand) printReply(res *chat.SendResult) {
	prefix := "ai"
	if res.Failed {
		prefix = "ai (error)"
	}

	fmt.Printf("%s: %s\n", prefix, res.Reply.Text)
}

// sendCommand sends a single message and prints the reply.
type sendCommand struct {
	sessionID  string
	newSession bool
	message    string
	configPath string
}

// Execute runs the send command.
func (c *sendCommand) Execute() error {
	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	switch {
	case c.newSession:
		if _, err := a.mgr.NewChat(); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
	case c.sessionID != "":
		if err := a.mgr.SetActive(c.sessionID); err != nil {
			return fmt.Errorf("unknown session %s: %w", c.sessionID, err)
		}
	}

	if a.mgr.ActiveID() == "" {
		if _, err := a.mgr.NewChat(); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := a.mgr.Send(ctx, c.message)
	if err != nil {
		return err
	}

	if res.Failed {
		fmt.Fprintf(os.Stderr, "%s\n", res.Reply.Text)
		return errors.New("send failed")
	}

	fmt.Println(res.Reply.Text)
	return nil
}

// listCommand lists local sessions.
type listCommand struct {
	format     string
	compact    bool
	configPath string
}

// Execute runs the list command.
func (c *listCommand) Execute() error {
	a, err := newApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	formatter := display.New(display.Config{
		Format:         parseFormat(c.format),
		ShowTimestamps: true,
		Compact:        c.compact,
	})

	return formatter.FormatSessions(os.Stdout,
		a.store.PinnedSessions(), a.store.UnpinnedSessions(), a.mgr.ActiveID())
}

// parseFormat maps a format flag value to a display format.
func parseFormat(format string) display.Format {
	switch format {
	case "json":
		return display.FormatJSON
	case "simple":
		return display.FormatSimple
	default:
		return display.FormatTable
	}
}
