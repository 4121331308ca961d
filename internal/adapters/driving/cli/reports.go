package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	reportsClass string
	reportsJSON  bool
	exportOut    string
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Manage ingested reports",
	Long:  `List, inspect, export, or delete ingested reports.`,
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports, newest first",
	RunE:  runReportsList,
}

var reportsShowCmd = &cobra.Command{
	Use:   "show [report-id]",
	Short: "Show a report and its transcribed text",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsShow,
}

var reportsExportCmd = &cobra.Command{
	Use:   "export [report-id]",
	Short: "Write the original scan image to a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsExport,
}

var reportsDeleteCmd = &cobra.Command{
	Use:   "delete [report-id]",
	Short: "Delete a report, its passages and its stored image",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsDelete,
}

func init() {
	reportsListCmd.Flags().StringVar(&reportsClass, "class", "", "restrict to a document type (e.g. lab_report)")
	reportsListCmd.Flags().BoolVar(&reportsJSON, "json", false, "output as JSON")
	reportsExportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (defaults to the original filename)")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsShowCmd)
	reportsCmd.AddCommand(reportsExportCmd)
	reportsCmd.AddCommand(reportsDeleteCmd)
	rootCmd.AddCommand(reportsCmd)
}

func runReportsList(cmd *cobra.Command, _ []string) error {
	if reportService == nil {
		return errors.New("report service not configured")
	}

	reports, err := reportService.List(cmd.Context(), reportsClass)
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}

	if reportsJSON {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal reports: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(reports) == 0 {
		cmd.Println("No reports ingested yet.")
		return nil
	}

	for i := range reports {
		cmd.Printf("  %s\n", reports[i].ID)
		cmd.Printf("    File:   %s\n", reports[i].Filename)
		cmd.Printf("    Type:   %s\n", reports[i].Classification)
		cmd.Printf("    Status: %s\n", reports[i].Status)
		cmd.Printf("    Added:  %s\n", reports[i].CreatedAt.Format("2006-01-02 15:04"))
		cmd.Println()
	}

	return nil
}

func runReportsShow(cmd *cobra.Command, args []string) error {
	if reportService == nil {
		return errors.New("report service not configured")
	}

	report, err := reportService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get report: %w", err)
	}

	cmd.Printf("ID:             %s\n", report.ID)
	cmd.Printf("File:           %s\n", report.Filename)
	cmd.Printf("Type:           %s\n", report.Classification)
	cmd.Printf("Status:         %s\n", report.Status)
	cmd.Printf("OCR confidence: %.2f\n", report.OCRConfidence)
	if report.FailureReason != "" {
		cmd.Printf("Failure:        %s\n", report.FailureReason)
	}
	cmd.Println()
	cmd.Println(report.Text)

	return nil
}

func runReportsExport(cmd *cobra.Command, args []string) error {
	if reportService == nil {
		return errors.New("report service not configured")
	}

	report, err := reportService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get report: %w", err)
	}

	image, err := reportService.Image(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch image: %w", err)
	}

	out := exportOut
	if out == "" {
		out = report.Filename
	}

	if err := os.WriteFile(out, image, 0600); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	cmd.Printf("Wrote %s (%d bytes)\n", out, len(image))
	return nil
}

func runReportsDelete(cmd *cobra.Command, args []string) error {
	if reportService == nil {
		return errors.New("report service not configured")
	}

	if err := reportService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	cmd.Printf("Deleted report: %s\n", args[0])
	return nil
}
