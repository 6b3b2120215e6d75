package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/normalisers"
)

var (
	ingestLabel    string
	ingestText     string
	ingestGlob     string
	ingestManifest string
	ingestJSON     bool
)

var errNothingToIngest = errors.New("nothing to ingest: pass files, --glob, --manifest or --text")

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Add documents to the index",
	Long: `Extracts text from files, splits it into chunks, embeds the chunks and
stores them in the index.

Supported formats: plain text, Markdown, HTML, DOCX, PDF (needs pdftotext)
and common source code files.

Examples:
  ragcore ingest notes.txt report.pdf
  ragcore ingest --glob "docs/**/*.md"
  ragcore ingest --label "meeting" --text "The launch moved to May."
  ragcore ingest --manifest corpus.yaml`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestLabel, "label", "l", "", "source label (single file or --text)")
	ingestCmd.Flags().StringVar(&ingestText, "text", "", "ingest this text instead of a file")
	ingestCmd.Flags().StringVarP(&ingestGlob, "glob", "g", "", "ingest every supported file matching the pattern")
	ingestCmd.Flags().StringVarP(&ingestManifest, "manifest", "m", "", "YAML file listing documents to ingest")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(ingestCmd)
}

// manifest is the --manifest file format.
//
//	documents:
//	  - path: guide.md
//	    label: User guide
//	  - label: Release note
//	    text: Version 2 ships in May.
type manifest struct {
	Documents []manifestEntry `yaml:"documents"`
}

type manifestEntry struct {
	Path  string `yaml:"path"`
	Label string `yaml:"label"`
	Text  string `yaml:"text"`
}

// ingestResult reports one ingested source.
type ingestResult struct {
	Source     string `json:"source"`
	DocumentID string `json:"document_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	entries, err := collectIngestEntries(args)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return errNothingToIngest
	}

	svc, err := requireRAG(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	results := make([]ingestResult, 0, len(entries))
	failed := 0
	for _, e := range entries {
		res := ingestResult{Source: e.Label}
		if e.Path != "" {
			res.Source = e.Path
		}

		var id string
		if e.Path == "" {
			id, err = svc.Ingest(ctx, e.Label, e.Text)
		} else {
			id, err = ingestFile(cmd, svc, e)
		}
		if err != nil {
			res.Error = err.Error()
			failed++
		} else {
			res.DocumentID = id
		}
		results = append(results, res)
	}

	if ingestJSON {
		if err := printJSON(cmd, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Error != "" {
				cmd.Printf("  FAILED %s: %s\n", r.Source, r.Error)
				continue
			}
			cmd.Printf("  Ingested %s (%s)\n", r.Source, r.DocumentID)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed to ingest", failed, len(results))
	}
	return nil
}

func ingestFile(cmd *cobra.Command, svc driving.RAGService, e manifestEntry) (string, error) {
	content, err := os.ReadFile(e.Path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return svc.IngestDocument(commandContext(cmd), &domain.RawDocument{
		URI:      e.Path,
		Label:    e.Label,
		MIMEType: normalisers.DetectMIMEType(e.Path),
		Content:  content,
	})
}

// collectIngestEntries merges positional files, --glob, --manifest and --text.
func collectIngestEntries(args []string) ([]manifestEntry, error) {
	var entries []manifestEntry

	for _, path := range args {
		entries = append(entries, manifestEntry{Path: path})
	}

	if ingestGlob != "" {
		matches, err := doublestar.FilepathGlob(ingestGlob, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%w: bad glob pattern %q: %w", domain.ErrInvalidInput, ingestGlob, err)
		}
		for _, m := range matches {
			if normalisers.DetectMIMEType(m) == "" {
				continue
			}
			entries = append(entries, manifestEntry{Path: m})
		}
	}

	if ingestManifest != "" {
		fromManifest, err := readManifest(ingestManifest)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fromManifest...)
	}

	if ingestLabel != "" && ingestText == "" && len(entries) == 1 {
		entries[0].Label = ingestLabel
	}

	if ingestText != "" {
		if ingestLabel == "" {
			return nil, fmt.Errorf("%w: --text needs --label", domain.ErrInvalidInput)
		}
		entries = append(entries, manifestEntry{Label: ingestLabel, Text: ingestText})
	}
	return entries, nil
}

// readManifest loads a manifest. Relative paths resolve against its directory.
func readManifest(path string) ([]manifestEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse manifest: %w", domain.ErrInvalidInput, err)
	}

	base := filepath.Dir(path)
	for i, e := range m.Documents {
		switch {
		case e.Path == "" && e.Text == "":
			return nil, fmt.Errorf("%w: manifest entry %d has neither path nor text", domain.ErrInvalidInput, i+1)
		case e.Path == "" && e.Label == "":
			return nil, fmt.Errorf("%w: manifest entry %d has text but no label", domain.ErrInvalidInput, i+1)
		case e.Path != "" && !filepath.IsAbs(e.Path):
			m.Documents[i].Path = filepath.Join(base, e.Path)
		}
	}
	return m.Documents, nil
}
