// Package status renders the footer line of the chat TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
)

type State int

const (
	StateReady State = iota
	StateThinking
)

// Bar shows what the chat is doing on the left and key hints on the right.
// The hints are dropped when the terminal is too narrow for both.
type Bar struct {
	style lipgloss.Style
	hints string

	state State
	note  string
	turns int
	width int
}

func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{style: s.StatusBar, hints: formatHints(km.ShortHelp()), width: 80}
}

func formatHints(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if b.Enabled() {
			parts = append(parts, b.Help().Key+": "+b.Help().Desc)
		}
	}
	return strings.Join(parts, " | ")
}

func (b *Bar) label() string {
	switch {
	case b.state == StateThinking:
		return "Thinking..."
	case b.note != "":
		return b.note
	case b.turns == 1:
		return "1 question asked"
	case b.turns > 1:
		return fmt.Sprintf("%d questions asked", b.turns)
	}
	return "Ready"
}

func (b *Bar) View() string {
	inner := b.width - b.style.GetHorizontalFrameSize()
	left, right := b.label(), b.hints

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		right, gap = "", 0
	}
	return b.style.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) SetState(state State) { b.state = state }
func (b *Bar) State() State         { return b.state }

// SetMessage replaces the idle label until Clear or the next SetMessage.
func (b *Bar) SetMessage(msg string) { b.note = msg }
func (b *Bar) Message() string       { return b.note }

func (b *Bar) SetTurns(n int)     { b.turns = n }
func (b *Bar) SetWidth(width int) { b.width = width }

func (b *Bar) Clear() {
	b.state, b.note, b.turns = StateReady, "", 0
}
