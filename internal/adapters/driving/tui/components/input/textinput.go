// Package input provides the question box for the chat TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
)

// minWidth is the narrowest the text field gets.
const minWidth = 20

// QuestionInput wraps a bubbles textinput with chat styling.
type QuestionInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewQuestionInput creates a focused question box.
func NewQuestionInput(s *styles.Styles) *QuestionInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	q := &QuestionInput{textinput: ti, styles: s}
	q.SetWidth(80)
	return q
}

// Init starts the cursor blinking.
func (q *QuestionInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (q *QuestionInput) Update(msg tea.Msg) (*QuestionInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

// View renders the framed question box.
func (q *QuestionInput) View() string {
	return q.styles.InputField.Width(q.width - q.styles.InputField.GetHorizontalBorderSize()).
		Render(q.textinput.View())
}

// Height is the number of lines View occupies.
func (q *QuestionInput) Height() int {
	return 1 + q.styles.InputField.GetVerticalFrameSize()
}

// Value returns the current input value.
func (q *QuestionInput) Value() string {
	return q.textinput.Value()
}

// SetValue sets the input value.
func (q *QuestionInput) SetValue(value string) {
	q.textinput.SetValue(value)
}

// Focused returns whether the input is focused.
func (q *QuestionInput) Focused() bool {
	return q.textinput.Focused()
}

// Blur stops accepting keystrokes while an answer is pending.
func (q *QuestionInput) Blur() {
	q.textinput.Blur()
}

// Focus accepts keystrokes again.
func (q *QuestionInput) Focus() tea.Cmd {
	return q.textinput.Focus()
}

// SetWidth sets the total width including the frame.
func (q *QuestionInput) SetWidth(width int) {
	q.width = max(width, minWidth+q.styles.InputField.GetHorizontalFrameSize())
	q.textinput.Width = q.width - q.styles.InputField.GetHorizontalFrameSize() - len(q.textinput.Prompt) - 1
}

// Width returns the current width.
func (q *QuestionInput) Width() int {
	return q.width
}

// Reset clears the input.
func (q *QuestionInput) Reset() {
	q.textinput.Reset()
}
