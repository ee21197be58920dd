package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saramaebee/devrev-mcp/engine/artifact"
	"github.com/saramaebee/devrev-mcp/engine/devrev"
	"github.com/saramaebee/devrev-mcp/engine/enrich"
	"github.com/saramaebee/devrev-mcp/engine/mcp"
	"github.com/saramaebee/devrev-mcp/pkg/cache"
	"github.com/saramaebee/devrev-mcp/pkg/config"
	"github.com/saramaebee/devrev-mcp/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Start the Model Context Protocol (MCP) server on stdio. MCP clients
such as Claude Desktop launch this command as a subprocess and speak
JSON-RPC over stdin/stdout; all logging goes to stderr.

The server provides:
  • Search tools for hybrid and structured queries
  • Work item tools to read, create, and update tickets and issues
  • Timeline tools for conversation threads and comments
  • Artifact tools to inspect and download attachments
  • devrev:// resources for navigating between related objects

Authentication comes from the DEVREV_API_KEY environment variable.

Examples:
  # Start the server with default settings
  devrev-mcp serve

  # Start with a specific config file and debug logging
  devrev-mcp serve --config ./devrev-mcp.yaml --debug`,
	RunE: runServe,
}

var initServeOnce sync.Once

// InitServeCommand registers the serve command
func InitServeCommand() {
	initServeOnce.Do(func() {
		rootCmd.AddCommand(serveCmd)
	})
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	server, err := buildServer(cfg)
	if err != nil {
		return err
	}

	runWithGracefulShutdown(ctx, cancel, server)
	return nil
}

// buildServer wires the client, cache, enricher, and downloader into a
// ready MCP server.
func buildServer(cfg *config.Config) (*mcp.Server, error) {
	client := devrev.NewClient(cfg)

	store, err := cache.New(cfg.Cache.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	enricher := enrich.NewService(client, store)
	downloader := artifact.NewDownloader(client)

	return mcp.NewServer(cfg, client, enricher, downloader, Version), nil
}

func runWithGracefulShutdown(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(ctx); err != nil {
			logger.Error("MCP server error", "error", err)
		}
		cancel()
	}()

	select {
	case <-sigChan:
		logger.Info("received shutdown signal")
	case <-ctx.Done():
	}

	logger.Info("shutting down MCP server")
}
