package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"tui"},
	Short:   "Start an interactive conversation",
	Long: `Opens a terminal chat over your documents. Follow-up questions see the
recent conversation, so "what about the second one?" works.

Controls:
  Enter        - Ask
  PgUp/PgDn    - Scroll the conversation
  Ctrl+L       - Start a new conversation (or type /clear)
  Ctrl+C       - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI crashed: %v", r)
		}
	}()

	svc, err := requireRAG(cmd)
	if err != nil {
		return err
	}

	app, err := tui.NewApp(&tui.Ports{RAG: svc})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(commandContext(cmd))

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(commandContext(cmd)))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
