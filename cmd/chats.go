package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cosmosinnovate/openchat-cli/internal/history"
	"github.com/cosmosinnovate/openchat-cli/internal/session"
	"github.com/spf13/cobra"
)

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "Manage saved conversations",
	Long: `List, show, rename, and delete conversations stored on the server.

Examples:
  openchat chats                          # List conversations
  openchat chats show <id>
  openchat chats rename <id> "New title"
  openchat chats delete <id>`,
	RunE: runChatsList, // Default to list
}

var chatsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations",
	RunE:  runChatsList,
}

var chatsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a conversation's turns",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatsShow,
}

var chatsRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a conversation",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runChatsRename,
}

var chatsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runChatsDelete,
}

// Flags
var chatsJSON bool

func init() {
	chatsShowCmd.Flags().BoolVar(&chatsJSON, "json", false, "Output as JSON")

	chatsCmd.AddCommand(chatsListCmd)
	chatsCmd.AddCommand(chatsShowCmd)
	chatsCmd.AddCommand(chatsRenameCmd)
	chatsCmd.AddCommand(chatsDeleteCmd)

	rootCmd.AddCommand(chatsCmd)
}

func runChatsList(cmd *cobra.Command, args []string) error {
	_, client, err := buildClient()
	if err != nil {
		return err
	}

	ctx := context.Background()
	hist := history.NewStore(client)
	if err := hist.Fetch(ctx); err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	entries := hist.Entries()
	if len(entries) == 0 {
		fmt.Println("No conversations found.")
		return nil
	}

	active := ""
	if store, err := session.NewSQLiteStore(); err == nil {
		active, _ = store.GetActive(ctx)
		store.Close()
	}

	fmt.Printf("%-38s %s\n", "ID", "Title")
	fmt.Println(strings.Repeat("-", 70))

	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = "New chat"
		}
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		marker := "  "
		if e.ID == active {
			marker = "* "
		}
		fmt.Printf("%s%-36s %s\n", marker, e.ID, title)
	}

	return nil
}

func runChatsShow(cmd *cobra.Command, args []string) error {
	_, client, err := buildClient()
	if err != nil {
		return err
	}

	ctx := context.Background()
	turns, err := client.GetConversation(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get conversation: %w", err)
	}

	if chatsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(turns)
	}

	for _, t := range turns {
		fmt.Printf("[%s]\n%s\n\n", t.Role, t.Content)
	}

	return nil
}

func runChatsRename(cmd *cobra.Command, args []string) error {
	_, client, err := buildClient()
	if err != nil {
		return err
	}

	ctx := context.Background()
	title := strings.Join(args[1:], " ")
	hist := history.NewStore(client)
	if err := hist.Rename(ctx, args[0], title); err != nil {
		return fmt.Errorf("failed to rename conversation: %w", err)
	}

	fmt.Printf("Renamed %s to '%s'\n", args[0], title)
	return nil
}

func runChatsDelete(cmd *cobra.Command, args []string) error {
	_, client, err := buildClient()
	if err != nil {
		return err
	}

	ctx := context.Background()
	hist := history.NewStore(client)
	if err := hist.Remove(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	// Clear local state if the active conversation was deleted
	if store, err := session.NewSQLiteStore(); err == nil {
		defer store.Close()
		if active, _ := store.GetActive(ctx); active == args[0] {
			if err := store.ClearActive(ctx); err != nil {
				return err
			}
		}
	}

	fmt.Printf("Deleted conversation %s\n", args[0])
	return nil
}
