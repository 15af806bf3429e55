package cmd

import (
	"os"

	"github.com/cosmosinnovate/openchat-cli/internal/api"
	"github.com/cosmosinnovate/openchat-cli/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "openchat",
	Short: "Chat with your organization's knowledge base",
	Long: `openchat is a terminal client for the Open-Chat conversation service.

Examples:
  openchat chat                         # interactive chat session
  openchat ask "What is our PTO policy?"
  openchat chats                        # list conversations
  openchat chats rename <id> "New title"
  openchat chats delete <id>`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

var debugRaw bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugRaw, "debug-raw", false, "Write raw exchange logs to the state directory")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildClient loads configuration and constructs the API client.
func buildClient() (*config.Config, *api.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, api.NewClient(cfg.ServerURL, cfg.Token), nil
}
