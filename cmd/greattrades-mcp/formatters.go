package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/greattrades/internal/models"
	"github.com/ternarybob/greattrades/internal/services/report"
)

// formatAnalysis renders one analysis as markdown with its history id
func formatAnalysis(item models.HistoryItem, saved bool) string {
	var sb strings.Builder
	sb.WriteString(report.RenderMarkdown(item))
	if saved {
		sb.WriteString(fmt.Sprintf("\n_History id: %d_\n", item.ID))
	}
	return sb.String()
}

// formatHistoryList formats up to limit history items as a markdown table
func formatHistoryList(userID string, items []models.HistoryItem, limit int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Analysis history for %s (%d items)\n\n", userID, len(items)))

	if len(items) == 0 {
		sb.WriteString("No analyses found.\n")
		return sb.String()
	}

	sb.WriteString("| ID | Analyzed | Trend | Action | Confidence | Summary |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for i, item := range items {
		if i >= limit {
			sb.WriteString(fmt.Sprintf("\n_%d older items not shown._\n", len(items)-limit))
			break
		}
		r := item.Result
		summary := strings.ReplaceAll(strings.Join(strings.Fields(r.Summary), " "), "|", `\|`)
		if len(summary) > 120 {
			summary = summary[:117] + "..."
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %g%% | %s |\n",
			item.ID, item.Timestamp, r.Trend, r.Action, r.Confidence, summary))
	}
	return sb.String()
}

// formatSettings renders settings as indented JSON
func formatSettings(settings models.UserSettings) string {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error formatting settings: %v", err)
	}
	return "```json\n" + string(data) + "\n```\n"
}
