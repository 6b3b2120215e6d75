package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Fixed answers for outcomes that never reach the LLM.
const (
	NoResultsAnswer = "I couldn't find any relevant information in the uploaded documents to answer your question. " +
		"Could you try rephrasing your question or upload more documents?"

	AllDeletedAnswer = "I found some documents, but they seem to have been deleted. Please upload some documents first!"

	generationFailedPrefix = "I found relevant documents but encountered an error while generating the response: "
)

const contextRule = "=================================================="

// AnswerComposer turns a retrieval context into a grounded answer.
type AnswerComposer struct {
	llm           driven.LLMService
	prompts       driven.PromptStore
	timeout       time.Duration
	historyWindow int
}

// ComposerOption configures an AnswerComposer.
type ComposerOption func(*AnswerComposer)

// WithTimeout bounds each completion call.
func WithTimeout(d time.Duration) ComposerOption {
	return func(c *AnswerComposer) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHistoryWindow sets how many recent conversation entries reach the prompt.
func WithHistoryWindow(n int) ComposerOption {
	return func(c *AnswerComposer) {
		if n >= 0 {
			c.historyWindow = n
		}
	}
}

// WithPromptStore loads prompts from store instead of the built-in defaults.
func WithPromptStore(store driven.PromptStore) ComposerOption {
	return func(c *AnswerComposer) {
		c.prompts = store
	}
}

// NewAnswerComposer creates a composer. llm may be nil, in which case every
// non-empty context yields the generation failure answer.
func NewAnswerComposer(llm driven.LLMService, opts ...ComposerOption) *AnswerComposer {
	c := &AnswerComposer{
		llm:           llm,
		timeout:       domain.DefaultGenerationTimeout,
		historyWindow: domain.DefaultHistoryWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose produces the final answer. It never fails.
func (c *AnswerComposer) Compose(
	ctx context.Context,
	question string,
	rc *domain.RetrievalContext,
	history []domain.HistoryEntry,
) domain.Answer {
	if rc.IsEmpty() {
		text := NoResultsAnswer
		if rc != nil && rc.RawHitCount > 0 {
			text = AllDeletedAnswer
		}
		return domain.Answer{Text: text, Citations: []domain.Citation{}, Confidence: 0}
	}

	if c.llm == nil {
		return c.failed(rc, domain.ErrLLMUnavailable)
	}

	system := c.prompt(driven.PromptAnswerSystem)
	user := c.userPrompt(question, rc, history)

	logger.Section("Generation")
	logger.Debug("Model: %s, sources: %d, prompt: %d chars", c.llm.ModelName(), len(rc.Results), len(user))

	genCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.llm.Complete(genCtx, system, user)
	if err != nil {
		logger.Warn("Generation failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
		return c.failed(rc, err)
	}
	logger.Debug("Generated %d chars in %s", len(text), time.Since(start).Round(time.Millisecond))

	return domain.Answer{
		Text:       strings.TrimSpace(text),
		Citations:  rc.Citations,
		Confidence: rc.Confidence,
	}
}

// failed keeps the citations but reports zero confidence.
func (c *AnswerComposer) failed(rc *domain.RetrievalContext, err error) domain.Answer {
	return domain.Answer{
		Text:       generationFailedPrefix + domain.AsGenerationError(err).UserMessage(),
		Citations:  rc.Citations,
		Confidence: 0,
	}
}

func (c *AnswerComposer) userPrompt(question string, rc *domain.RetrievalContext, history []domain.HistoryEntry) string {
	parts := []string{c.prompt(driven.PromptAnswerIntro)}
	if h := c.formatHistory(history); h != "" {
		parts = append(parts, "\nFor additional context, here's our recent conversation:"+h)
	}
	parts = append(parts,
		"\nDocument context:"+formatContext(rc.Results),
		"\nQuestion: "+question,
		"\n"+c.prompt(driven.PromptAnswerClosing),
	)
	return strings.Join(parts, "\n")
}

// formatContext labels each chunk with its 1-based source number.
func formatContext(results []domain.RetrievedChunk) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[Source %d: %s]\n%s", i+1, r.Chunk.SourceLabel, r.Chunk.Content)
	}
	return "\n\n" + contextRule + strings.Join(blocks, "\n\n")
}

// formatHistory renders the most recent entries as "Role: content" lines.
func (c *AnswerComposer) formatHistory(history []domain.HistoryEntry) string {
	if len(history) == 0 || c.historyWindow == 0 {
		return ""
	}
	if len(history) > c.historyWindow {
		history = history[len(history)-c.historyWindow:]
	}

	lines := make([]string, len(history))
	for i, h := range history {
		lines[i] = titleRole(h.Role) + ": " + h.Content
	}
	return "\n\nPrevious conversation:\n" + strings.Join(lines, "\n")
}

// titleRole upper-cases the first letter; an empty role is the user.
func titleRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = "user"
	}
	r, size := utf8.DecodeRuneInString(role)
	return string(unicode.ToUpper(r)) + role[size:]
}

func (c *AnswerComposer) prompt(name string) string {
	if c.prompts != nil {
		if p, err := c.prompts.Load(name); err == nil && p != "" {
			return p
		}
	}
	return driven.DefaultPrompts()[name]
}
