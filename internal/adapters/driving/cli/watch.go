package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/watch"
)

var (
	watchGlobs    []string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Keep the index in sync with a directory",
	Long: `Indexes every supported file below a directory, then watches it and
re-indexes files as they change. Removed files are deleted from the index.

Documents are labelled with their path relative to the directory. Files
already indexed under that label are only re-indexed when they changed.

Press Ctrl+C to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringSliceVarP(&watchGlobs, "glob", "g", nil, `only watch files matching these patterns (e.g. "**/*.md")`)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a changed file is indexed")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	w, err := watch.New(dir, watch.WithPatterns(watchGlobs...), watch.WithDebounce(watchDebounce))
	if err != nil {
		return err
	}
	defer w.Close() //nolint:errcheck // closing on exit

	svc, err := requireRAG(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	syncer, err := watch.NewSyncer(ctx, svc, w.Root())
	if err != nil {
		return err
	}

	files, err := w.Files()
	if err != nil {
		return fmt.Errorf("scan %s: %w", w.Root(), err)
	}
	cmd.Printf("Scanning %s (%d files)\n", w.Root(), len(files))
	var indexed, skipped, failed int
	for _, res := range syncer.Scan(ctx, files) {
		switch {
		case res.Err != nil:
			failed++
			printWatchResult(cmd, syncer, res)
		case res.Skipped:
			skipped++
		default:
			indexed++
			printWatchResult(cmd, syncer, res)
		}
	}
	cmd.Printf("Indexed %d, unchanged %d, failed %d\n", indexed, skipped, failed)

	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	cmd.Println("Watching for changes. Press Ctrl+C to stop.")

	err = syncer.Run(ctx, changes, func(res watch.Result) {
		printWatchResult(cmd, syncer, res)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printWatchResult(cmd *cobra.Command, syncer *watch.Syncer, res watch.Result) {
	label := syncer.Label(res.Change.Path)
	switch {
	case res.Err != nil:
		cmd.Printf("  FAILED %s: %v\n", label, res.Err)
	case res.Change.Type == watch.ChangeRemoved:
		cmd.Printf("  Removed %s\n", label)
	default:
		cmd.Printf("  Indexed %s (%s)\n", label, res.DocumentID)
	}
}
