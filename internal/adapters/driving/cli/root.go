// Package cli implements the consulta command line interface. It is a
// thin driving adapter: commands validate arguments, call the core
// services and format output. All construction happens up front in
// the app package before any command runs.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/consulta-labs/consulta/internal/app"
	"github.com/consulta-labs/consulta/internal/config"
	"github.com/consulta-labs/consulta/internal/core/ports/driving"
	"github.com/consulta-labs/consulta/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Package-level services, wired on startup. Tests replace these with
// doubles.
var (
	application   *app.App
	ingestService driving.Ingestor
	answerService driving.Answerer
)

// Persistent flags.
var (
	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "consulta",
	Short: "Ask questions about your PDF documents",
	Long: `Consulta indexes PDF documents and answers questions about them.
Documents are chunked, embedded and stored in a vector index; answers
are generated by an LLM grounded in the retrieved passages.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.consulta)")
}

// initServices builds the application unless a test wired doubles in.
func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if ingestService != nil || cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	wire(a)

	for _, warning := range a.Ready.Warnings {
		cmd.PrintErrln("warning:", warning)
	}
	return nil
}

// wire installs a constructed application into the package.
func wire(a *app.App) {
	application = a
	ingestService = a.Ingest()
	answerService = a.Answer()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
