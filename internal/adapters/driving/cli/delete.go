package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [document-id...]",
	Short: "Remove documents from the index",
	Long: `Marks documents as deleted. Their chunks stay in the vector index but are
never returned by queries. Deleting a document twice is harmless.

Use 'ragcore documents' to find document ids.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	svc, err := requireRAG(cmd)
	if err != nil {
		return err
	}

	var errs []error
	for _, id := range args {
		if err := svc.Delete(commandContext(cmd), id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				err = fmt.Errorf("document %s not found", id)
			}
			errs = append(errs, err)
			continue
		}
		cmd.Printf("Deleted %s\n", id)
	}
	return errors.Join(errs...)
}
