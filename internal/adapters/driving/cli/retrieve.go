package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

var (
	retrieveLimit    int
	retrieveMinScore float64
	retrieveClass    string
	retrieveJSON     bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Find report passages relevant to a query",
	Long: `Embeds the query and returns the most similar passages from fully
ingested reports, highest similarity first. Useful for checking what the
chat command would ground its answers on.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveLimit, "limit", "n", 5, "maximum number of passages")
	retrieveCmd.Flags().Float64Var(&retrieveMinScore, "min-score", 0, "drop passages below this similarity")
	retrieveCmd.Flags().StringVar(&retrieveClass, "class", "", "restrict to a document type (e.g. lab_report)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	opts := domain.RetrievalOptions{
		TopK:     retrieveLimit,
		MinScore: retrieveMinScore,
		Filter:   domain.ReportFilter{Classification: retrieveClass},
	}

	results, err := retrievalService.Retrieve(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if retrieveJSON {
		return outputRetrieveJSON(cmd, results)
	}

	return outputRetrieveTable(cmd, results)
}

func outputRetrieveJSON(cmd *cobra.Command, results []domain.RetrievedChunk) error {
	type row struct {
		ChunkID  string  `json:"chunk_id"`
		ReportID string  `json:"report_id"`
		Index    int     `json:"index"`
		Score    float64 `json:"score"`
		Text     string  `json:"text"`
	}

	rows := make([]row, len(results))
	for i := range results {
		rows[i] = row{
			ChunkID:  results[i].Chunk.ID,
			ReportID: results[i].Chunk.ReportID,
			Index:    results[i].Chunk.Index,
			Score:    results[i].Score,
			Text:     results[i].Chunk.Text,
		}
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputRetrieveTable(cmd *cobra.Command, results []domain.RetrievedChunk) error {
	if len(results) == 0 {
		cmd.Println("No matching passages found.")
		return nil
	}

	cmd.Println("Passages:")
	cmd.Println()
	for i := range results {
		cmd.Printf("  [%d] %s part %d (%.2f)\n",
			i+1, results[i].Chunk.ReportID, results[i].Chunk.Index+1, results[i].Score)
		cmd.Printf("      %s\n", excerpt(results[i].Chunk.Text, 200))
		cmd.Println()
	}

	return nil
}

// excerpt truncates s to at most n runes, appending an ellipsis when cut.
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
