package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/interfaces"
	"github.com/ternarybob/greattrades/internal/models"
	"github.com/ternarybob/greattrades/internal/services/analysis"
)

// batchRunner runs chart analyses
type batchRunner interface {
	Run(ctx context.Context, req analysis.BatchRequest) (*analysis.BatchReport, error)
}

// toolset holds the services behind the MCP tools
type toolset struct {
	batch    batchRunner
	history  interfaces.HistoryService
	settings interfaces.SettingsService
	logger   arbor.ILogger
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

func errorResult(format string, args ...interface{}) *mcp.CallToolResult {
	result := textResult(fmt.Sprintf(format, args...))
	result.IsError = true
	return result
}

// handleAnalyzeChart implements the analyze_chart tool
func (t *toolset) handleAnalyzeChart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := chartInput(request)
	if err != nil {
		return errorResult("Error: %v", err), nil
	}

	userID := request.GetString("user_id", "")
	settings := models.DefaultUserSettings()
	if userID != "" {
		if settings, err = t.settings.Get(ctx, userID); err != nil {
			t.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to load settings")
			return errorResult("Failed to load settings: %v", err), nil
		}
	}

	report, err := t.batch.Run(ctx, analysis.BatchRequest{
		UserID:    userID,
		Settings:  settings,
		TimeFrame: request.GetString("time_frame", ""),
		Inputs:    []analysis.BatchInput{input},
	})
	if err != nil {
		return errorResult("Analysis failed: %v", err), nil
	}

	outcome := report.Outcomes[0]
	if outcome.Error != nil {
		return errorResult("%s: %s", outcome.Error.Category, outcome.Error.Message), nil
	}
	return textResult(formatAnalysis(*outcome.HistoryItem, report.HistorySaved)), nil
}

// chartInput reads the image from image_path or image_base64
func chartInput(request mcp.CallToolRequest) (analysis.BatchInput, error) {
	if path := request.GetString("image_path", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return analysis.BatchInput{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return analysis.BatchInput{Name: filepath.Base(path), Data: data}, nil
	}

	encoded := request.GetString("image_base64", "")
	if encoded == "" {
		return analysis.BatchInput{}, errors.New("image_path or image_base64 is required")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return analysis.BatchInput{}, fmt.Errorf("image_base64 is not valid base64: %w", err)
	}
	return analysis.BatchInput{
		Name:     "chart",
		Data:     data,
		MIMEType: request.GetString("mime_type", ""),
	}, nil
}

// handleListHistory implements the list_history tool
func (t *toolset) handleListHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil || userID == "" {
		return errorResult("Error: user_id parameter is required"), nil
	}

	limit := request.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}

	items, err := t.history.List(ctx, userID)
	if err != nil {
		t.logger.Error().Err(err).Str("user_id", userID).Msg("List history failed")
		return errorResult("Failed to load history: %v", err), nil
	}

	return textResult(formatHistoryList(userID, items, limit)), nil
}

// handleGetHistoryItem implements the get_history_item tool
func (t *toolset) handleGetHistoryItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil || userID == "" {
		return errorResult("Error: user_id parameter is required"), nil
	}
	rawID, err := request.RequireString("id")
	if err != nil {
		return errorResult("Error: id parameter is required"), nil
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return errorResult("Error: id must be an integer"), nil
	}

	item, err := t.history.Get(ctx, userID, id)
	if err != nil {
		return errorResult("History item not found: %v", err), nil
	}
	return textResult(formatAnalysis(*item, true)), nil
}

// handleGetSettings implements the get_settings tool
func (t *toolset) handleGetSettings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil || userID == "" {
		return errorResult("Error: user_id parameter is required"), nil
	}

	settings, err := t.settings.Get(ctx, userID)
	if err != nil {
		return errorResult("Failed to load settings: %v", err), nil
	}
	return textResult(formatSettings(settings)), nil
}
