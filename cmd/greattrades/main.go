package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/common"
)

var (
	// Command-line flags
	configFiles []string
	serverPort  int
	serverHost  string
	envFiles    []string

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "greattrades",
	Short: "AI trading chart analysis",
	Long:  `GreatTrades analyzes screenshots of trading charts with a multimodal model and keeps a per-user history of the results.`,
	// Running without a subcommand starts the server
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "Environment files loaded before configuration")
	rootCmd.PersistentFlags().IntVarP(&serverPort, "port", "p", 0, "Server port (overrides config)")
	rootCmd.PersistentFlags().StringVar(&serverHost, "host", "", "Server host (overrides config)")

	rootCmd.AddCommand(serveCmd, analyzeCmd, versionCmd)
}

// loadConfig runs the startup sequence shared by all commands:
// .env -> defaults -> config files -> env -> CLI flags.
func loadConfig() error {
	if err := common.LoadDotEnv(envFiles...); err != nil {
		return err
	}

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		for _, candidate := range []string{"greattrades.toml", "deployments/local/greattrades.toml"} {
			if _, err := os.Stat(candidate); err == nil {
				configFiles = append(configFiles, candidate)
				break
			}
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration %v: %w", configFiles, err)
	}

	common.ApplyFlagOverrides(config, serverPort, serverHost)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
