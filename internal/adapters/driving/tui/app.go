package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// clearCommand typed into the input starts a new conversation.
const clearCommand = "/clear"

// turn is one question and, once it arrives, its answer.
type turn struct {
	question string
	answer   *domain.Answer
}

// App is the chat TUI following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	input    *input.QuestionInput
	viewport viewport.Model
	status   *status.Bar

	turns   []turn
	stats   domain.Stats
	pending bool

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:    ports,
		ctx:      context.Background(),
		styles:   s,
		keymap:   km,
		input:    input.NewQuestionInput(s),
		viewport: viewport.New(0, 0),
		status:   status.NewBar(s, km),
	}, nil
}

// WithContext sets the context passed to the RAG service.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.input.Init(),
		tea.SetWindowTitle("ragcore chat"),
		a.loadStats(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.AnswerReceived:
		a.receive(msg)
		return a, tea.Batch(a.input.Focus(), a.loadStats())

	case messages.StatsLoaded:
		a.stats = msg.Stats
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keymap.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keymap.Clear):
		a.clear()
		return a, nil

	case key.Matches(msg, a.keymap.ScrollUp):
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(tea.KeyMsg{Type: tea.KeyPgUp})
		return a, cmd

	case key.Matches(msg, a.keymap.ScrollDown):
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(tea.KeyMsg{Type: tea.KeyPgDown})
		return a, cmd

	case key.Matches(msg, a.keymap.Send):
		return a, a.submit()
	}

	if a.pending {
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submit sends the typed question unless an answer is still pending.
func (a *App) submit() tea.Cmd {
	question := strings.TrimSpace(a.input.Value())
	if question == "" || a.pending {
		return nil
	}
	a.input.Reset()

	if question == clearCommand {
		a.clear()
		return nil
	}

	history := a.History()
	a.turns = append(a.turns, turn{question: question})
	a.pending = true
	a.input.Blur()
	a.status.SetState(status.StateThinking)
	a.status.SetMessage("")
	a.refresh()

	ctx := a.ctx
	rag := a.ports.RAG
	return func() tea.Msg {
		return messages.AnswerReceived{
			Question: question,
			Answer:   rag.Query(ctx, question, history),
		}
	}
}

func (a *App) receive(msg messages.AnswerReceived) {
	a.pending = false
	answer := msg.Answer
	if n := len(a.turns); n > 0 && a.turns[n-1].answer == nil {
		a.turns[n-1].answer = &answer
	} else {
		a.turns = append(a.turns, turn{question: msg.Question, answer: &answer})
	}

	a.status.SetState(status.StateReady)
	a.status.SetTurns(len(a.turns))
	a.refresh()
}

func (a *App) clear() {
	if a.pending {
		return
	}
	a.turns = nil
	a.status.Clear()
	a.status.SetMessage("Started a new conversation")
	a.refresh()
}

func (a *App) loadStats() tea.Cmd {
	ctx := a.ctx
	rag := a.ports.RAG
	return func() tea.Msg {
		return messages.StatsLoaded{Stats: rag.Stats(ctx)}
	}
}

// History returns the answered turns as conversation history, oldest first.
func (a *App) History() []domain.HistoryEntry {
	history := make([]domain.HistoryEntry, 0, 2*len(a.turns))
	for _, t := range a.turns {
		if t.answer == nil {
			continue
		}
		history = append(history,
			domain.HistoryEntry{Role: "user", Content: t.question},
			domain.HistoryEntry{Role: "assistant", Content: t.answer.Text},
		)
	}
	return history
}

// Pending reports whether a question is awaiting its answer.
func (a *App) Pending() bool {
	return a.pending
}

// SetDimensions lays out the view for a terminal size.
func (a *App) SetDimensions(width, height int) {
	a.width, a.height = width, height
	a.ready = true

	a.input.SetWidth(width)
	a.status.SetWidth(width)

	frameW, frameH := a.styles.Transcript.GetFrameSize()
	const headerLines, statusLines = 1, 1
	a.viewport.Width = max(20, width-frameW)
	a.viewport.Height = max(3, height-headerLines-statusLines-a.input.Height()-frameH)
	a.refresh()
}

// refresh re-renders the transcript and scrolls to the newest message.
func (a *App) refresh() {
	a.viewport.SetContent(a.renderTranscript())
	a.viewport.GotoBottom()
}

func (a *App) renderTranscript() string {
	if len(a.turns) == 0 {
		return a.styles.Muted.Render("Ask a question about your documents. Type /clear to start over.")
	}

	wrap := lipgloss.NewStyle().Width(max(10, a.viewport.Width))
	var b strings.Builder
	for i, t := range a.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(a.styles.User.Render("You"))
		b.WriteString("\n")
		b.WriteString(wrap.Render(t.question))
		b.WriteString("\n\n")
		b.WriteString(a.styles.Assistant.Render("Assistant"))
		b.WriteString("\n")
		if t.answer == nil {
			b.WriteString(a.styles.Muted.Render("Thinking..."))
			continue
		}
		b.WriteString(wrap.Render(t.answer.Text))
		b.WriteString(a.renderSources(*t.answer))
	}
	return b.String()
}

func (a *App) renderSources(answer domain.Answer) string {
	if len(answer.Citations) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(a.styles.Muted.Render("Sources, confidence "))
	b.WriteString(a.styles.Confidence(answer.Confidence).Render(fmt.Sprintf("%.2f", answer.Confidence)))
	for i, c := range answer.Citations {
		fmt.Fprintf(&b, "\n  [%d] %s %s", i+1,
			a.styles.Source.Render(c.SourceLabel),
			a.styles.Muted.Render(fmt.Sprintf("chunk %d/%d, score %.3f",
				c.ChunkSequenceIndex+1, c.TotalInDocument, c.Score)))
	}
	return b.String()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	header := a.styles.Title.Render("ragcore chat") + "  " + a.styles.Muted.Render(
		fmt.Sprintf("%d documents, %d chunks", a.stats.DocumentCount, a.stats.LogicalChunkCount))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		a.styles.Transcript.Render(a.viewport.View()),
		a.input.View(),
		a.status.View(),
	)
}
