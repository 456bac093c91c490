package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Index one or more PDF documents",
	Long: `Stores each PDF, extracts its text, chunks and embeds it, and
indexes the chunks so they can be retrieved by the ask command.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	failed := 0
	for _, path := range args {
		if err := ingestOne(cmd, path); err != nil {
			failed++
			cmd.PrintErrf("failed to ingest %s: %v\n", path, err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func ingestOne(cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := ingestService.Ingest(cmd.Context(), f, filepath.Base(path))
	if err != nil {
		return err
	}

	cmd.Printf("Indexed %s\n", result.OriginalName)
	cmd.Printf("  ID:      %s\n", result.DocumentID)
	cmd.Printf("  Chunks:  %d of %d indexed\n", result.ChunksIndexed, result.TotalChunks)
	cmd.Printf("  Status:  %s\n", result.Status)
	if result.Summary != "" {
		cmd.Printf("  Summary: %s\n", result.Summary)
	}
	return nil
}
