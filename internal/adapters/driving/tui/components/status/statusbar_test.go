package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/ragcore/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Equal(t, "enter: ask | pgup: scroll up | ctrl+l: new conversation | ctrl+c: quit", bar.hints)
	assert.Equal(t, bar.hints, NewBar(nil, nil).hints)
}

func TestBar_Label(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Bar)
		want  string
	}{
		{"ready", func(*Bar) {}, "Ready"},
		{"thinking", func(b *Bar) { b.SetState(StateThinking) }, "Thinking..."},
		{"thinking beats message", func(b *Bar) {
			b.SetMessage("saved")
			b.SetState(StateThinking)
		}, "Thinking..."},
		{"one turn", func(b *Bar) { b.SetTurns(1) }, "1 question asked"},
		{"turns", func(b *Bar) { b.SetTurns(3) }, "3 questions asked"},
		{"message beats turns", func(b *Bar) {
			b.SetTurns(3)
			b.SetMessage("Started a new conversation")
		}, "Started a new conversation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			tt.setup(bar)

			view := bar.View()
			assert.Contains(t, view, tt.want)
			assert.Contains(t, view, "ctrl+c: quit")
		})
	}
}

func TestBar_NarrowDropsHints(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(30)

	view := bar.View()

	assert.Contains(t, view, "Ready")
	assert.NotContains(t, view, "quit")
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateThinking)
	bar.SetMessage("boom")
	bar.SetTurns(2)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Contains(t, bar.View(), "Ready")
}
