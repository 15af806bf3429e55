package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cosmosinnovate/openchat-cli/internal/chat"
	"github.com/cosmosinnovate/openchat-cli/internal/debuglog"
	"github.com/cosmosinnovate/openchat-cli/internal/history"
	"github.com/cosmosinnovate/openchat-cli/internal/session"
	"github.com/cosmosinnovate/openchat-cli/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	askModelFlag string
	askText      bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question and stream the answer",
	Long: `Send one turn to the active conversation and stream the answer.

Examples:
  openchat ask "What is our deployment checklist?"
  openchat ask "Summarize the onboarding document" --model deepseek-r1
  openchat ask "List the security policies" --text`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askModelFlag, "model", "", "Override the configured model")
	askCmd.Flags().BoolVarP(&askText, "text", "t", false, "Stream plain text without the spinner")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
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
	target, err := resolver.Resolve(ctx, "")
	if err != nil {
		return err
	}

	styles := ui.NewStyles(os.Stderr)
	buffer := chat.NewBuffer()
	hist := history.NewStore(client)
	ctrl := chat.NewController(client, buffer, hist, resolver, log)

	if target.Kind == session.TargetExisting {
		turns, err := client.GetConversation(ctx, target.ID)
		if err != nil {
			ui.Errorf(styles, "Failed to load chat history: %v", err)
		} else {
			buffer.Load(turns)
		}
	}

	model := cfg.Model
	if askModelFlag != "" {
		model = askModelFlag
	}

	output := make(chan string, 16)
	ctrl.OnDelta(func(text string) {
		output <- text
	})

	done := ctrl.Send(ctx, question, model)
	resCh := make(chan chat.Result, 1)
	go func() {
		res := <-done
		resCh <- res
		close(output)
	}()

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	if !askText && isTTY {
		err = streamWithSpinner(output, ctrl.Abort)
	} else {
		err = streamPlainText(output)
	}
	if err != nil {
		return err
	}

	res := <-resCh
	switch res.State {
	case chat.ExchangeCancelled:
		ui.Transient(styles, "Request cancelled.")
	case chat.ExchangeFailed:
		return fmt.Errorf("exchange failed: %w", res.Err)
	}
	return nil
}

// streamPlainText streams chunks directly without formatting
func streamPlainText(output <-chan string) error {
	for chunk := range output {
		fmt.Print(chunk)
	}
	fmt.Println()
	return nil
}

// askViewModel is the bubbletea model for the one-shot streaming view
type askViewModel struct {
	spinner    spinner.Model
	content    *strings.Builder
	output     <-chan string
	abort      func()
	done       bool
	hasContent bool
}

// chunkMsg carries a streaming chunk
type chunkMsg string

// doneMsg signals streaming is complete
type doneMsg struct{}

func newAskViewModel(output <-chan string, abort func()) askViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return askViewModel{
		spinner: s,
		content: &strings.Builder{},
		output:  output,
		abort:   abort,
	}
}

func (m askViewModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForChunk(m.output))
}

// waitForChunk reads from the channel and sends chunks as messages
func waitForChunk(output <-chan string) tea.Cmd {
	return func() tea.Msg {
		chunk, ok := <-output
		if !ok {
			return doneMsg{}
		}
		return chunkMsg(chunk)
	}
}

func (m askViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "esc" {
			if m.abort != nil {
				m.abort()
			}
			return m, nil
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case chunkMsg:
		m.content.WriteString(string(msg))
		m.hasContent = true
		return m, waitForChunk(m.output)

	case doneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m askViewModel) View() string {
	if m.done || m.hasContent {
		return m.content.String()
	}
	return m.spinner.View() + " Thinking..."
}

// streamWithSpinner uses bubbletea for proper terminal handling
func streamWithSpinner(output <-chan string, abort func()) error {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		// Fallback to simple streaming if no TTY
		return streamPlainText(output)
	}
	defer tty.Close()

	model := newAskViewModel(output, abort)
	p := tea.NewProgram(model, tea.WithInput(tty), tea.WithOutput(os.Stdout))

	_, err = p.Run()
	return err
}
