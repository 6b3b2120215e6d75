package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	statsJSON     bool
	documentsJSON bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs", "ls"},
	Short:   "List indexed documents",
	Args:    cobra.NoArgs,
	RunE:    runDocuments,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	documentsCmd.Flags().BoolVar(&documentsJSON, "json", false, "output documents as JSON")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	svc, err := requireRAG(cmd)
	if err != nil {
		return err
	}

	stats := svc.Stats(commandContext(cmd))
	if statsJSON {
		return printJSON(cmd, stats)
	}

	cmd.Println("Index Statistics")
	cmd.Println("================")
	cmd.Printf("  Documents:           %d\n", stats.DocumentCount)
	cmd.Printf("  Deleted documents:   %d\n", stats.DeletedDocumentCount)
	cmd.Printf("  Chunks (live):       %d\n", stats.LogicalChunkCount)
	cmd.Printf("  Chunks (stored):     %d\n", stats.ChunkCount)
	cmd.Printf("  Chunks per document: %.2f\n", stats.AverageChunksPerDocument)
	cmd.Printf("  Dimension:           %d\n", stats.Dimension)
	return nil
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	svc, err := requireRAG(cmd)
	if err != nil {
		return err
	}

	docs, err := svc.Documents(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if documentsJSON {
		return printJSON(cmd, docs)
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}
	for _, d := range docs {
		cmd.Printf("  %s  %-40s %3d chunks  %s\n",
			d.ID, d.SourceLabel, d.ChunkCount, d.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
