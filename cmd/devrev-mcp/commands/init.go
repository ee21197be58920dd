package commands

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/saramaebee/devrev-mcp/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new devrev-mcp configuration file",
	Long: `Initialize creates a new devrev-mcp.yaml configuration file in the
current directory with default settings.

The configuration file includes:
  • DevRev API connection settings (base URL, timeout)
  • Cache sizing
  • Retry and backoff behavior
  • Artifact download directory

The API key is never stored in the file. Set it through the
DEVREV_API_KEY environment variable or a local .env file.`,
	Example: `  # Create a default configuration file
  devrev-mcp init

  # Overwrite an existing file
  devrev-mcp init --force`,
	RunE: func(_ *cobra.Command, _ []string) error {
		configFile := "devrev-mcp.yaml"
		if cfgFile != "" {
			configFile = cfgFile
		}

		if _, err := os.Stat(configFile); err == nil && !forceOverwrite {
			return fmt.Errorf("config file %s already exists. Use --force to overwrite", configFile)
		}

		data, err := yaml.Marshal(config.DefaultConfig())
		if err != nil {
			return fmt.Errorf("failed to encode default config: %w", err)
		}
		if err := os.WriteFile(configFile, data, 0o644); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}

		fmt.Printf("✓ Configuration file '%s' created successfully\n", configFile)
		fmt.Println("\nNext steps:")
		fmt.Printf("1. Export your API token: export %s=<token>\n", config.APIKeyEnvVar)
		fmt.Println("2. Run 'devrev-mcp serve' to start the MCP server")
		return nil
	},
}

var (
	initInitOnce   sync.Once
	forceOverwrite bool
)

// InitInitCommand registers the init command
func InitInitCommand() {
	initInitOnce.Do(func() {
		initCmd.Flags().BoolVar(&forceOverwrite, "force", false, "Force overwrite existing config file")
		rootCmd.AddCommand(initCmd)
	})
}
