// Package pdf extracts text from PDF documents with poppler's pdftotext.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/normalisers/doctitle"
)

var _ driven.TextExtractor = (*Extractor)(nil)

const (
	toolName       = "pdftotext"
	maxTitleLength = 200
	// maxStderr caps how much of pdftotext's complaint ends up in an error.
	maxStderr = 300
)

var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// Runner executes name with args and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrPDFToolNotFound
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			if len(msg) > maxStderr {
				msg = msg[:maxStderr] + "..."
			}
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

type Extractor struct {
	run Runner
}

func New() *Extractor {
	return NewWithRunner(runCommand)
}

// NewWithRunner swaps the command runner, letting tests avoid pdftotext.
func NewWithRunner(run Runner) *Extractor {
	return &Extractor{run: run}
}

func (e *Extractor) SupportedMIMETypes() []string { return []string{"application/pdf"} }
func (e *Extractor) Priority() int                { return 50 }

// Extract converts the document through a temporary file. Page breaks
// become blank lines.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	path, err := writeTemp(raw.Content)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	out, err := e.run(ctx, toolName, "-enc", "UTF-8", path, "-")
	switch {
	case errors.Is(err, ErrPDFToolNotFound):
		return nil, fmt.Errorf("%w: %w (%s)", domain.ErrUnsupportedFormat, err, InstallInstructions())
	case err != nil:
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	text := strings.TrimSpace(strings.ReplaceAll(string(out), "\f", "\n\n"))
	title := doctitle.FirstLine(text, maxTitleLength)
	if title == "" {
		title = doctitle.FromURI(raw.URI)
	}
	return &domain.ExtractResult{Text: text, Title: title}, nil
}

func writeTemp(content []byte) (string, error) {
	f, err := os.CreateTemp("", "ragcore-*.pdf")
	if err != nil {
		return "", fmt.Errorf("pdf temp file: %w", err)
	}
	_, err = f.Write(content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("pdf temp file: %w", err)
	}
	return f.Name(), nil
}

// CheckAvailable reports whether pdftotext is on PATH.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

func InstallInstructions() string {
	return "install pdftotext from poppler: brew install poppler (macOS) or apt install poppler-utils (Debian/Ubuntu)"
}
