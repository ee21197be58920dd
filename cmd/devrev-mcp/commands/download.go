package commands

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/saramaebee/devrev-mcp/engine/artifact"
	"github.com/saramaebee/devrev-mcp/engine/devrev"
	"github.com/saramaebee/devrev-mcp/pkg/config"
	"github.com/saramaebee/devrev-mcp/pkg/logger"
	"github.com/saramaebee/devrev-mcp/pkg/progress"
)

var (
	initDownloadOnce sync.Once
	downloadDir      string
	downloadFilename string
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download <artifact-id>",
	Short: "Download an artifact's content to a local directory",
	Long: `Download fetches an artifact's metadata, resolves its temporary
download URL, and streams the content to disk. The file is written
atomically: a failed download never leaves a partial file behind.

The artifact ID can be numeric or a full don: ID.

Examples:
  # Download into the current directory
  devrev-mcp download 12345

  # Download into a specific directory with a custom name
  devrev-mcp download don:core:dvrv-us-1:devo/ABC:artifact/12345 \
    --dir ./attachments --filename report.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

// InitDownloadCommand registers the download command
func InitDownloadCommand() {
	initDownloadOnce.Do(func() {
		downloadCmd.Flags().StringVar(&downloadDir, "dir", "", "target directory (default: configured download directory)")
		downloadCmd.Flags().StringVar(&downloadFilename, "filename", "", "override the saved file name")
		rootCmd.AddCommand(downloadCmd)
	})
}

func runDownload(_ *cobra.Command, args []string) error {
	artifactID := args[0]

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	dir := downloadDir
	if dir == "" {
		dir = cfg.Download.Dir
	}

	downloader := artifact.NewDownloader(devrev.NewClient(cfg))

	// The spinner owns stdout while the download runs
	indicator := progress.NewAdaptive(os.Stdout)
	indicator.Start(fmt.Sprintf("Downloading artifact %s", artifactID))
	logger.Disable()

	result, err := downloader.Download(context.Background(), artifactID, dir, downloadFilename)

	logger.Enable()
	if err != nil {
		indicator.Error(err)
		return err
	}
	indicator.Success(fmt.Sprintf("Saved %s (%s)", result.Path, progress.FormatBytes(result.Size)))
	return nil
}
