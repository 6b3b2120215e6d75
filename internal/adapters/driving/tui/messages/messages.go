// Package messages defines Bubbletea message types for the chat TUI.
package messages

import (
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// AnswerReceived carries the answer to a submitted question.
type AnswerReceived struct {
	Question string
	Answer   domain.Answer
}

// StatsLoaded carries index statistics for the header.
type StatsLoaded struct {
	Stats domain.Stats
}
