// Package keymap holds the chat TUI key bindings.
package keymap

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit       key.Binding
	Send       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	// Clear starts a new conversation.
	Clear key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:       bind("ctrl+c", "quit", "ctrl+c", "ctrl+d"),
		Send:       bind("enter", "ask", "enter"),
		ScrollUp:   bind("pgup", "scroll up", "pgup", "ctrl+u"),
		ScrollDown: bind("pgdn", "scroll down", "pgdown", "ctrl+f"),
		Clear:      bind("ctrl+l", "new conversation", "ctrl+l"),
	}
}

// ShortHelp is what the status bar advertises, in display order.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.ScrollUp, k.Clear, k.Quit}
}
