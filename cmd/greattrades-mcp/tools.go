package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createAnalyzeChartTool returns the analyze_chart tool definition
func createAnalyzeChartTool() mcp.Tool {
	return mcp.NewTool("analyze_chart",
		mcp.WithDescription("Analyze a trading chart image and return a technical analysis report"),
		mcp.WithString("image_path",
			mcp.Description("Path to a chart image on disk (PNG, JPEG, WebP, GIF)"),
		),
		mcp.WithString("image_base64",
			mcp.Description("Base64 image data, used when image_path is not given"),
		),
		mcp.WithString("mime_type",
			mcp.Description("MIME type of image_base64, e.g. image/png (sniffed when omitted)"),
		),
		mcp.WithString("time_frame",
			mcp.Description("Chart time frame, e.g. 15m, 4H, 1D"),
		),
		mcp.WithString("user_id",
			mcp.Description("User whose settings apply; successful results are added to their history"),
		),
	)
}

// createListHistoryTool returns the list_history tool definition
func createListHistoryTool() mcp.Tool {
	return mcp.NewTool("list_history",
		mcp.WithDescription("List a user's past chart analyses, most recent first"),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("User id"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 20)"),
		),
	)
}

// createGetHistoryItemTool returns the get_history_item tool definition
func createGetHistoryItemTool() mcp.Tool {
	return mcp.NewTool("get_history_item",
		mcp.WithDescription("Return the full report of one past analysis"),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("User id"),
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("History item id as returned by list_history"),
		),
	)
}

// createGetSettingsTool returns the get_settings tool definition
func createGetSettingsTool() mcp.Tool {
	return mcp.NewTool("get_settings",
		mcp.WithDescription("Return a user's trading preferences and analysis settings"),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("User id"),
		),
	)
}
