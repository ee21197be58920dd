package commands

import (
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/saramaebee/devrev-mcp/pkg/logger"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "devrev-mcp",
	Short: "An MCP server exposing the DevRev API to LLM applications",
	Long: `DevRev MCP is a Model Context Protocol server that exposes the DevRev
REST API as tools and resources for LLM applications. It enriches raw
API records with related objects so assistants can work with complete
tickets, timelines, and artifacts instead of stitching calls together.

Key Features:
  • Search DevRev with hybrid or structured queries
  • Fetch tickets enriched with timelines, artifacts, and linked work
  • Read and create timeline comments with visibility controls
  • Download artifact content to the local filesystem
  • Navigable devrev:// resource URIs embedded in every payload

Example workflow:
  1. Initialize configuration:  devrev-mcp init
  2. Export your API token:     export DEVREV_API_KEY=<token>
  3. Start the server:          devrev-mcp serve
  4. Download an attachment:    devrev-mcp download <artifact-id>

For more information, visit: https://github.com/saramaebee/devrev-mcp`,
}

var (
	initRootOnce sync.Once
	cfgFile      string
	debugMode    bool
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	InitConfig()

	InitServeCommand()
	InitDownloadCommand()
	InitInitCommand()
	InitVersionCommand()

	// Set help template for better formatting
	rootCmd.SetHelpTemplate(`{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}{{if or .Runnable .HasAvailableSubCommands}}{{.UsageString}}{{end}}`)

	cobra.CheckErr(rootCmd.Execute())
}

// InitConfig initializes global flags and environment handling
func InitConfig() {
	initRootOnce.Do(func() {
		rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./devrev-mcp.yaml)")
		rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")
		cobra.OnInitialize(initEnvironment)
	})
}

func initEnvironment() {
	// A .env in the working directory is a convenience for local
	// development; a missing file is not an error.
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded environment from .env")
	}

	viper.SetEnvPrefix("DEVREV_MCP")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	logger.InitLogger()
	if debugMode {
		logger.SetDebug(true)
	}
}
