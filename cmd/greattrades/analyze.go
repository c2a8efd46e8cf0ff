package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ternarybob/greattrades/internal/app"
	"github.com/ternarybob/greattrades/internal/common"
	"github.com/ternarybob/greattrades/internal/models"
	"github.com/ternarybob/greattrades/internal/services/analysis"
	"github.com/ternarybob/greattrades/internal/services/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image> [image...]",
	Short: "Analyze chart images from the command line",
	Long: `Analyzes one or more chart images concurrently and prints the results.
Without --user nothing is persisted; with --user the user's saved settings are
applied and successful results are added to their history.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeFormat    string
	analyzePDF       string
	analyzeTimeFrame string
	analyzeUser      string
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "markdown", "Output format: json or markdown")
	analyzeCmd.Flags().StringVar(&analyzePDF, "pdf", "", "Write a PDF report per successful chart to this path")
	analyzeCmd.Flags().StringVar(&analyzeTimeFrame, "time-frame", "", "Chart time frame, e.g. 4H or 1D")
	analyzeCmd.Flags().StringVar(&analyzeUser, "user", "", "User id whose settings and history are used")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeFormat != "json" && analyzeFormat != "markdown" {
		return fmt.Errorf("unsupported --format %q (expected json or markdown)", analyzeFormat)
	}
	if err := loadConfig(); err != nil {
		return err
	}

	// Keep stdout for the report
	config.Logging.Output = []string{"file"}
	if analyzeUser == "" {
		config.Storage.Badger.InMemory = true
	}
	logger = common.InitLogger(config)

	application, err := app.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	inputs := make([]analysis.BatchInput, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		inputs = append(inputs, analysis.BatchInput{Name: filepath.Base(path), Data: data})
	}

	ctx := context.Background()
	settings := models.DefaultUserSettings()
	if analyzeUser != "" {
		if settings, err = application.SettingsService.Get(ctx, analyzeUser); err != nil {
			return fmt.Errorf("failed to load settings for %s: %w", analyzeUser, err)
		}
	}

	rep, err := application.Batch.Run(ctx, analysis.BatchRequest{
		UserID:    analyzeUser,
		Settings:  settings,
		TimeFrame: analyzeTimeFrame,
		Inputs:    inputs,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeFormat == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(rep); err != nil {
			return err
		}
	} else {
		writeMarkdown(out, rep)
	}

	if analyzePDF != "" {
		if err := writePDFs(application, rep, analyzePDF); err != nil {
			return err
		}
	}

	if rep.Succeeded == 0 {
		return fmt.Errorf("%s", rep.Message)
	}
	return nil
}

func writeMarkdown(w io.Writer, rep *analysis.BatchReport) {
	for _, outcome := range rep.Outcomes {
		fmt.Fprintf(w, "<!-- %s -->\n", outcome.Name)
		if outcome.Error != nil {
			fmt.Fprintf(w, "**%s failed** (%s): %s\n\n", outcome.Name, outcome.Error.Category, outcome.Error.Message)
			continue
		}
		fmt.Fprintln(w, report.RenderMarkdown(*outcome.HistoryItem))
	}
	fmt.Fprintf(w, "---\n%s (%s)\n", rep.Message, rep.Summary)
}

// writePDFs writes one report per successful chart. With several charts the
// chart index is added before the extension.
func writePDFs(application *app.App, rep *analysis.BatchReport, path string) error {
	items := rep.HistoryItems()
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)

	for i, item := range items {
		target := path
		if len(items) > 1 {
			target = fmt.Sprintf("%s-%d%s", base, i+1, ext)
		}

		data, err := application.ReportService.PDF(item)
		if err != nil {
			return fmt.Errorf("failed to render PDF for %s: %w", target, err)
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		logger.Info().Str("path", target).Int64("history_id", item.ID).Msg("PDF report written")
	}
	return nil
}
