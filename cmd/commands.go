package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cosmosinnovate/openchat-cli/internal/chat"
	"github.com/cosmosinnovate/openchat-cli/internal/history"
	"github.com/cosmosinnovate/openchat-cli/internal/session"
	"github.com/cosmosinnovate/openchat-cli/internal/ui"
)

// Command represents a slash command available inside a chat session.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
}

// AllCommands returns all available slash commands
func AllCommands() []Command {
	return []Command{
		{
			Name:        "help",
			Aliases:     []string{"h", "?"},
			Description: "Show help and available commands",
			Usage:       "/help",
		},
		{
			Name:        "new",
			Aliases:     []string{"n"},
			Description: "Start a new conversation",
			Usage:       "/new",
		},
		{
			Name:        "history",
			Aliases:     []string{"ls"},
			Description: "List conversations",
			Usage:       "/history",
		},
		{
			Name:        "rename",
			Aliases:     []string{"mv"},
			Description: "Rename a conversation",
			Usage:       "/rename <id> <title>",
		},
		{
			Name:        "delete",
			Aliases:     []string{"rm"},
			Description: "Delete a conversation",
			Usage:       "/delete <id>",
		},
		{
			Name:        "cancel",
			Description: "Cancel the in-flight response",
			Usage:       "/cancel",
		},
		{
			Name:        "quit",
			Aliases:     []string{"q", "exit"},
			Description: "Exit chat",
			Usage:       "/quit",
		},
	}
}

func matchCommand(name string) (Command, bool) {
	for _, c := range AllCommands() {
		if c.Name == name {
			return c, true
		}
		for _, alias := range c.Aliases {
			if alias == name {
				return c, true
			}
		}
	}
	return Command{}, false
}

// runSlashCommand dispatches one slash command line. It reports whether the
// session should exit.
func runSlashCommand(ctx context.Context, line string, ctrl *chat.Controller, hist *history.Store, resolver *session.Resolver, styles *ui.Styles) bool {
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return false
	}

	cmd, ok := matchCommand(fields[0])
	if !ok {
		ui.Errorf(styles, "Unknown command: /%s (try /help)", fields[0])
		return false
	}
	args := fields[1:]

	switch cmd.Name {
	case "help":
		for _, c := range AllCommands() {
			fmt.Fprintf(os.Stderr, "  %-24s %s\n", c.Usage, c.Description)
		}

	case "new":
		if err := ctrl.Clear(ctx); err != nil {
			ui.Errorf(styles, "Failed to start a new conversation: %v", err)
			return false
		}
		ui.Transient(styles, "Started a new conversation.")

	case "history":
		if err := hist.Fetch(ctx); err != nil {
			ui.Errorf(styles, "Failed to fetch history: %v", err)
			return false
		}
		printHistory(styles, hist.Entries(), resolver.Target())

	case "rename":
		if len(args) < 2 {
			ui.Errorf(styles, "Usage: %s", cmd.Usage)
			return false
		}
		id, title := args[0], strings.Join(args[1:], " ")
		if err := hist.Rename(ctx, id, title); err != nil {
			ui.Errorf(styles, "Failed to rename %s: %v", id, err)
			return false
		}
		ui.Transient(styles, fmt.Sprintf("Renamed %s to %q.", id, title))

	case "delete":
		if len(args) != 1 {
			ui.Errorf(styles, "Usage: %s", cmd.Usage)
			return false
		}
		id := args[0]
		if err := hist.Remove(ctx, id); err != nil {
			ui.Errorf(styles, "Failed to delete %s: %v", id, err)
			return false
		}
		ui.Transient(styles, fmt.Sprintf("Deleted %s.", id))
		if target := resolver.Target(); target.Kind == session.TargetExisting && target.ID == id {
			// The active conversation is gone; fall back to a fresh one.
			if err := ctrl.Clear(ctx); err != nil {
				ui.Errorf(styles, "Failed to reset session: %v", err)
			}
		}

	case "cancel":
		ctrl.Abort()

	case "quit":
		return true
	}
	return false
}

func printHistory(styles *ui.Styles, entries []history.Entry, target session.Target) {
	if len(entries) == 0 {
		ui.Transient(styles, "No conversations yet.")
		return
	}
	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = "New chat"
		}
		marker := "  "
		if target.Kind == session.TargetExisting && target.ID == e.ID {
			marker = styles.Success.Render("* ")
		}
		fmt.Fprintf(os.Stderr, "%s%s  %s\n", marker, styles.Muted.Render(e.ID), title)
	}
}
