package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driving"
	"github.com/custodia-labs/reportchat-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Injected driving ports. Commands check for nil so that partial wiring
// (e.g. no AI provider configured yet) degrades with a clear message
// instead of a panic.
var (
	ingestService    driving.IngestService
	retrievalService driving.RetrievalService
	chatService      driving.ChatService
	reportService    driving.ReportService
	configStore      driven.ConfigStore
)

// Services aggregates everything the CLI needs from the composition root.
type Services struct {
	Ingest    driving.IngestService
	Retrieval driving.RetrievalService
	Chat      driving.ChatService
	Report    driving.ReportService
	Config    driven.ConfigStore
}

// SetServices injects the application services into the command tree.
// Must be called before Execute.
func SetServices(s Services) {
	ingestService = s.Ingest
	retrievalService = s.Retrieval
	chatService = s.Chat
	reportService = s.Report
	configStore = s.Config
}

var rootCmd = &cobra.Command{
	Use:   "reportchat",
	Short: "Ingest scanned medical reports and chat about them",
	Long: `Reportchat turns scans of medical reports into a searchable,
conversational archive.

Ingested images are transcribed with a vision model, classified by
document type, chunked and embedded for semantic retrieval. The chat
command answers questions grounded in the ingested reports and says so
when it has nothing relevant to cite.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
