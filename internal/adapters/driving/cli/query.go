package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

var (
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question about your documents",
	Long: `Retrieves the chunks closest to the question and asks the configured LLM
to answer from them. The answer lists its sources with similarity scores.

Confidence is the mean similarity of the cited chunks. A confidence of 0
means no answer could be generated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of chunks to retrieve (0 = configured default)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryTopK < 0 || queryTopK > domain.MaxTopK {
		return fmt.Errorf("%w: --top-k must be between 1 and %d", domain.ErrInvalidInput, domain.MaxTopK)
	}

	svc, err := requireRAG(cmd)
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	answer := svc.QueryWithK(commandContext(cmd), question, nil, queryTopK)

	if queryJSON {
		return printJSON(cmd, answer)
	}

	printAnswer(cmd.OutOrStdout(), answer)
	return nil
}

var (
	headingColor = color.New(color.Bold)
	sourceColor  = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)
)

// printAnswer renders an answer with its sources.
func printAnswer(w io.Writer, answer domain.Answer) {
	fmt.Fprintln(w, answer.Text)
	if len(answer.Citations) == 0 {
		return
	}

	fmt.Fprintln(w)
	headingColor.Fprintf(w, "Sources (confidence %s):\n", confidenceColor(answer.Confidence).Sprintf("%.2f", answer.Confidence))
	for i, c := range answer.Citations {
		fmt.Fprintf(w, "  [%d] %s %s\n", i+1,
			sourceColor.Sprint(c.SourceLabel),
			dimColor.Sprintf("(chunk %d/%d, score %.3f)", c.ChunkSequenceIndex+1, c.TotalInDocument, c.Score))
		if c.ContentPreview != "" {
			fmt.Fprintf(w, "      %s\n", dimColor.Sprint(c.ContentPreview))
		}
	}
}

func confidenceColor(c float64) *color.Color {
	switch {
	case c >= 0.75:
		return color.New(color.FgGreen)
	case c >= 0.5:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
