package prompt

import (
	"fmt"
	"strings"

	"github.com/ternarybob/greattrades/internal/models"
	"github.com/ternarybob/greattrades/internal/services/llm"
)

// Instruction is the fixed user-turn text sent alongside the chart image
const Instruction = "Analyze this financial trading chart in exhaustive detail, focusing on providing an accurate and comprehensive technical analysis."

const notSpecified = "Not specified"

const roleText = `You are an expert trading chart analyst. Your task is to analyze the provided image and return a structured JSON object with your findings.

First, decide whether the image is a financial trading chart (price chart, candlestick chart, line chart of a traded instrument).
- If it is NOT a financial chart, set "isChart" to false, set "trend" to "Neutral", "action" to "Hold", "confidence" to 0, "volatility" to "Low", every indicator signal to "Neutral", every numeric field to 0 and every other text field to "N/A".
- If it IS a financial chart, set "isChart" to true and produce the full analysis.

Your analysis must be extremely thorough. Scrutinize trend lines, support and resistance levels, key swing points (highs and lows), candlestick patterns (e.g., Doji, Hammer, Engulfing patterns), chart patterns (e.g., Head and Shoulders, Triangles, Flags), volume, and every indicator visible on the chart. Synthesize all of these factors into an objective analysis. Do not provide financial advice. Your goal is a high-quality, detailed technical breakdown, not a guaranteed prediction.`

var personalityText = map[models.AIPersonality]string{
	models.PersonalityConcise:     "Keep every text field short and to the point. Prefer one or two sentences.",
	models.PersonalityDetailed:    "Be detailed and explain the reasoning behind each finding.",
	models.PersonalityEducational: "Explain each finding as a mentor would to a learning trader, defining technical terms as you use them.",
}

// Builder turns an analysis request context into a model request.
// It performs no I/O and holds no mutable state.
type Builder struct {
	model       string
	temperature float32
}

// NewBuilder creates a builder targeting model. An empty model uses the provider default.
func NewBuilder(model string, temperature float32) *Builder {
	return &Builder{model: model, temperature: temperature}
}

// Build produces the instruction, response schema and system instruction for one chart.
// Identical contexts produce identical requests.
func (b *Builder) Build(reqCtx models.AnalysisRequestContext) *llm.ContentRequest {
	image := reqCtx.Image
	return &llm.ContentRequest{
		Model:             b.model,
		Temperature:       b.temperature,
		Instruction:       Instruction,
		Image:             &image,
		SystemInstruction: SystemInstruction(reqCtx),
		OutputSchema:      ResponseSchema(),
	}
}

// SystemInstruction renders the role, the isChart rule, the user context and
// the output-language directive
func SystemInstruction(reqCtx models.AnalysisRequestContext) string {
	settings := reqCtx.Settings

	var sb strings.Builder
	sb.WriteString(roleText)
	sb.WriteString("\n\n")
	sb.WriteString(UserContext(reqCtx))

	if style, ok := personalityText[settings.AIPersonality]; ok {
		sb.WriteString("\n")
		sb.WriteString(style)
		sb.WriteString("\n")
	}

	language := orDefault(settings.DefaultLanguage, "English")
	fmt.Fprintf(&sb, "\nIMPORTANT: Write the value of every string field in the JSON response in %s. "+
		"Keep the JSON keys and the enumerated values (trend, action, volatility, signal) exactly as specified in English.", language)

	return sb.String()
}

// UserContext renders the settings snapshot as plain-text guidance
func UserContext(reqCtx models.AnalysisRequestContext) string {
	settings := reqCtx.Settings

	strategies := notSpecified
	if len(settings.TradeStrategies) > 0 {
		strategies = strings.Join(settings.TradeStrategies, ", ")
	}

	var sb strings.Builder
	sb.WriteString("The user has provided the following context for their analysis request:\n")
	fmt.Fprintf(&sb, "- Chart Time Frame: %s\n", orDefault(reqCtx.EffectiveTimeFrame(), notSpecified))
	fmt.Fprintf(&sb, "- Trading Style: %s\n", orDefault(settings.TradingStyle, notSpecified))
	fmt.Fprintf(&sb, "- Primary Goal: %s\n", orDefault(settings.PrimaryGoal, notSpecified))
	fmt.Fprintf(&sb, "- Risk Tolerance: %s\n", orDefault(settings.RiskTolerance, notSpecified))
	fmt.Fprintf(&sb, "- Investment Horizon: %s\n", orDefault(settings.InvestmentHorizon, notSpecified))
	fmt.Fprintf(&sb, "- Preferred Strategies: %s\n", strategies)
	fmt.Fprintf(&sb, "- Trade Budget: %s\n", orDefault(settings.TradeBudget, notSpecified))
	fmt.Fprintf(&sb, "- Portfolio Exposure: %s\n", orDefault(settings.PortfolioExposure, notSpecified))
	sb.WriteString("\nTailor your analysis to this context. For example, if the user is a day trader on a 5-minute chart, focus on short-term signals and intraday patterns. " +
		"If their goal is risk assessment, highlight potential pitfalls and stop-loss levels. Size the trade setup to the stated budget and exposure when they are given.\n")
	return sb.String()
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
