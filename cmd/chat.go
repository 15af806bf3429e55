package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/cosmosinnovate/openchat-cli/internal/api"
	"github.com/cosmosinnovate/openchat-cli/internal/chat"
	"github.com/cosmosinnovate/openchat-cli/internal/debuglog"
	"github.com/cosmosinnovate/openchat-cli/internal/history"
	"github.com/cosmosinnovate/openchat-cli/internal/session"
	"github.com/cosmosinnovate/openchat-cli/internal/ui"
	"github.com/spf13/cobra"
)

var (
	chatID    string
	chatModel string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session with the conversation service.

The active conversation is remembered between runs. Pass --chat to open a
specific conversation, or use /new inside the session to start fresh.

Examples:
  openchat chat
  openchat chat --chat 67ab3f2e
  openchat chat --model deepseek-r1

Slash commands:
  /help                 - Show available commands
  /new                  - Start a new conversation
  /history              - List conversations
  /rename <id> <title>  - Rename a conversation
  /delete <id>          - Delete a conversation
  /quit                 - Exit

Ctrl+C cancels the in-flight response without quitting.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatID, "chat", "", "Conversation id to open")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "Override the configured model")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, client, err := buildClient()
	if err != nil {
		return err
	}

	log, err := debuglog.Open(debugRaw)
	if err != nil {
		return err
	}
	defer log.Close()

	store, err := session.NewSQLiteStore()
	if err != nil {
		return err
	}
	defer store.Close()

	resolver := session.NewResolver(store)
	target, err := resolver.Resolve(ctx, chatID)
	if err != nil {
		return err
	}

	styles := ui.NewStyles(os.Stderr)
	buffer := chat.NewBuffer()
	hist := history.NewStore(client)
	ctrl := chat.NewController(client, buffer, hist, resolver, log)

	model := cfg.Model
	if chatModel != "" {
		model = chatModel
	}

	if target.Kind == session.TargetExisting {
		turns, err := client.GetConversation(ctx, target.ID)
		if err != nil {
			// Start empty rather than aborting the whole session.
			ui.Errorf(styles, "Failed to load chat history: %v", err)
		} else {
			buffer.Load(turns)
			printTurns(styles, buffer.Snapshot())
		}
	}

	ctrl.OnDelta(func(text string) {
		fmt.Print(text)
	})

	// Ctrl+C cancels the in-flight exchange instead of killing the session.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(os.Stderr, styles.User.Render("you")+" ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit := runSlashCommand(ctx, line, ctrl, hist, resolver, styles)
			if quit {
				break
			}
			continue
		}

		drainSignals(sigCh)
		fmt.Fprint(os.Stderr, styles.Assistant.Render("assistant")+" ")
		done := ctrl.Send(ctx, line, model)

		var res chat.Result
		select {
		case res = <-done:
		case <-sigCh:
			ctrl.Abort()
			res = <-done
		}
		fmt.Println()
		reportResult(styles, res)
	}

	// Teardown: any pending exchange must not outlive the session.
	ctrl.Abort()
	return scanner.Err()
}

func reportResult(styles *ui.Styles, res chat.Result) {
	switch res.State {
	case chat.ExchangeCancelled:
		ui.Transient(styles, "Request cancelled.")
	case chat.ExchangeFailed:
		if api.IsAuth(res.Err) {
			ui.Errorf(styles, "Authentication failed; check your token.")
		} else {
			ui.Errorf(styles, "Request failed: %v", res.Err)
		}
	}
}

func printTurns(styles *ui.Styles, turns []chat.Turn) {
	for _, t := range turns {
		label := styles.Assistant.Render("assistant")
		if t.Role == api.RoleUser {
			label = styles.User.Render("you")
		}
		fmt.Printf("%s %s\n", label, t.Content)
	}
}

func drainSignals(sigCh <-chan os.Signal) {
	for {
		select {
		case <-sigCh:
		default:
			return
		}
	}
}
