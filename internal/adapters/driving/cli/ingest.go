package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

var ingestMimeType string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest scanned report images",
	Long: `Runs the full ingestion pipeline for each image: store, transcribe,
classify, chunk, embed. A report that fails part-way is kept with its
failure stage recorded and can be retried with 'reportchat resume'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var resumeCmd = &cobra.Command{
	Use:   "resume [report-id]",
	Short: "Retry a failed ingestion",
	Long: `Restarts a failed ingestion at the first incomplete stage. Stages
that already completed are not rerun; a report that failed during
classification resumes with its transcribed text intact.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestMimeType, "mime-type", "", "content type override (inferred from extension by default)")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(resumeCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	var failed int
	for _, path := range args {
		image, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		meta := domain.UploadMetadata{
			Filename: filepath.Base(path),
			MimeType: ingestMimeType,
		}

		report, err := ingestService.Ingest(cmd.Context(), image, meta)
		if err != nil {
			failed++
			if report != nil {
				cmd.Printf("✗ %s: %s (%v)\n", path, report.Status, err)
				cmd.Printf("  retry with: reportchat resume %s\n", report.ID)
			} else {
				cmd.Printf("✗ %s: %v\n", path, err)
			}
			continue
		}

		printIngestResult(cmd, report)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to ingest", failed, len(args))
	}
	return nil
}

func runResume(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	report, err := ingestService.Resume(cmd.Context(), args[0])
	if err != nil {
		if report != nil {
			cmd.Printf("✗ %s: %s (%v)\n", report.ID, report.Status, err)
			return err
		}
		return fmt.Errorf("resume failed: %w", err)
	}

	printIngestResult(cmd, report)
	return nil
}

func printIngestResult(cmd *cobra.Command, report *domain.Report) {
	cmd.Printf("✓ %s\n", report.Filename)
	cmd.Printf("  ID:             %s\n", report.ID)
	cmd.Printf("  Classification: %s\n", report.Classification)
	cmd.Printf("  OCR confidence: %.2f\n", report.OCRConfidence)
	cmd.Printf("  Status:         %s\n", report.Status)
}
