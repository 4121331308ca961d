package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

var watchInterval time.Duration

// settleDelay gives scanners and downloads time to finish writing a file
// before the pipeline reads it.
const settleDelay = 2 * time.Second

// imageExtensions are the file types the watcher will ingest.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Ingest new scans as they appear in a directory",
	Long: `Watches a directory and runs the ingestion pipeline on every new
image file. Useful as a drop folder for a document scanner.

Ingestion is rate limited so a bulk copy into the folder does not flood
the AI provider. Files that fail to ingest are reported and left in
place; retry them with 'reportchat resume'.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "minimum time between ingestions")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	limiter := rate.NewLimiter(rate.Every(watchInterval), 1)
	ctx := cmd.Context()

	cmd.Printf("Watching %s (ctrl-c to stop)\n", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cmd.PrintErrf("watch error: %v\n", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !imageExtensions[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}

			if err := ingestWatchedFile(ctx, cmd, limiter, event.Name); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				cmd.PrintErrf("✗ %s: %v\n", event.Name, err)
			}
		}
	}
}

func ingestWatchedFile(ctx context.Context, cmd *cobra.Command, limiter *rate.Limiter, path string) error {
	select {
	case <-time.After(settleDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	report, err := ingestService.Ingest(ctx, image, domain.UploadMetadata{
		Filename: filepath.Base(path),
	})
	if err != nil {
		if report != nil {
			return fmt.Errorf("%s: %w (retry with: reportchat resume %s)", report.Status, err, report.ID)
		}
		return err
	}

	cmd.Printf("✓ %s → %s (%s)\n", filepath.Base(path), report.ID, report.Classification)
	return nil
}
