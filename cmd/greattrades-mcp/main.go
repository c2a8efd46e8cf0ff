package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ternarybob/greattrades/internal/app"
	"github.com/ternarybob/greattrades/internal/common"
)

func main() {
	if err := common.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	var configPaths []string
	if configPath := os.Getenv("GREATTRADES_CONFIG"); configPath != "" {
		configPaths = append(configPaths, configPath)
	} else if _, err := os.Stat("greattrades.toml"); err == nil {
		configPaths = append(configPaths, "greattrades.toml")
	}

	config, err := common.LoadFromFiles(configPaths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol, so logs only go to file
	config.Logging.Output = []string{"file"}
	logger := common.InitLogger(config)

	application, err := app.New(config, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	tools := &toolset{
		batch:    application.Batch,
		history:  application.HistoryService,
		settings: application.SettingsService,
		logger:   logger,
	}

	mcpServer := server.NewMCPServer(
		"greattrades",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createAnalyzeChartTool(), tools.handleAnalyzeChart)
	mcpServer.AddTool(createListHistoryTool(), tools.handleListHistory)
	mcpServer.AddTool(createGetHistoryItemTool(), tools.handleGetHistoryItem)
	mcpServer.AddTool(createGetSettingsTool(), tools.handleGetSettings)

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error().Err(err).Msg("MCP server failed")
		os.Exit(1)
	}
}
