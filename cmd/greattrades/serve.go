package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ternarybob/greattrades/internal/app"
	"github.com/ternarybob/greattrades/internal/common"
	"github.com/ternarybob/greattrades/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket server",
	Long:  `Starts the GreatTrades server: chart uploads, per-user history and settings, PDF reports and live batch progress over WebSocket.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger = common.InitLogger(config)
	common.PrintBanner(config, logger)

	logger.Debug().
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Strs("config_files", configFiles).
		Msg("Resolved configuration")

	application, err := app.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	srv := server.New(application)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("url", "http://"+srv.Addr()).
		Msg("Server ready - Press Ctrl+C to stop")

	if err := srv.Run(ctx); err != nil {
		return err
	}

	logger.Info().Msg("Server stopped")
	return nil
}
