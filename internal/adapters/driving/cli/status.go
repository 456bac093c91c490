package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
)

// statusPingTimeout bounds each connectivity check.
const statusPingTimeout = 5 * time.Second

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backing service health and index counts",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if application == nil {
		return errors.New("application not configured")
	}

	cmd.Println("Services:")
	printPing(cmd, "embedder ("+application.Embedder.ModelName()+")", application.Embedder.Ping)
	printPing(cmd, "vector index", application.Index.Ping)
	if application.LLM != nil {
		printPing(cmd, "llm ("+application.LLM.ModelName()+")", application.LLM.Ping)
	} else {
		cmd.Println("  llm:          not configured")
	}

	cmd.Println()

	docCount, err := application.Docs.CountDocuments(cmd.Context())
	if err != nil {
		cmd.Printf("Documents: unavailable (%v)\n", err)
	} else {
		cmd.Printf("Documents: %d\n", docCount)
	}

	vecCount, err := application.Index.Count(cmd.Context())
	if err != nil {
		cmd.Printf("Vectors:   unavailable (%v)\n", err)
	} else {
		cmd.Printf("Vectors:   %d\n", vecCount)
	}
	return nil
}

func printPing(cmd *cobra.Command, name string, ping func(context.Context) error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), statusPingTimeout)
	defer cancel()

	if err := ping(ctx); err != nil {
		cmd.Printf("  %-13s unavailable: %v\n", name+":", err)
		return
	}
	cmd.Printf("  %-13s ok\n", name+":")
}
