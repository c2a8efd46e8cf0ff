package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/greattrades/internal/models"
)

// RenderMarkdown renders a history item as a standalone markdown report
func RenderMarkdown(item models.HistoryItem) string {
	r := item.Result
	var b strings.Builder

	b.WriteString("# Chart Analysis Report\n\n")
	fmt.Fprintf(&b, "*Analyzed %s*\n\n", displayTime(item.Timestamp))

	b.WriteString("## Summary\n\n")
	paragraph(&b, r.Summary)

	table(&b, []string{"Field", "Value"}, [][]string{
		{"Trend", string(r.Trend)},
		{"Action", string(r.Action)},
		{"Confidence", strconv.FormatFloat(r.Confidence, 'f', -1, 64) + "%"},
		{"Volatility", string(r.Volatility)},
		{"Support", r.SupportLevel},
		{"Resistance", r.ResistanceLevel},
		{"Price Target", r.PriceTarget},
		{"Stop Loss", r.StopLoss},
		{"Risk/Reward", r.RiskRewardRatio},
		{"Market Sentiment", r.MarketSentiment},
	})

	b.WriteString("## Detailed Analysis\n\n")
	paragraph(&b, r.DetailedAnalysis)

	b.WriteString("## Price Action\n\n")
	bullets(&b, [][2]string{
		{"Key patterns", r.KeyPatterns},
		{"Swing points", r.SwingPoints},
		{"Candlesticks", r.CandlestickAnalysis},
		{"Volume", r.VolumeAnalysis},
	})

	b.WriteString("## Indicators\n\n")
	table(&b, []string{"Indicator", "Reading", "Signal", "Interpretation"}, [][]string{
		{"RSI", r.RSI.Value.String(), string(r.RSI.Signal), r.RSI.Interpretation},
		{"MACD", fmt.Sprintf("line %s, signal %s, histogram %s",
			r.MACD.MACDLine.String(), r.MACD.SignalLine.String(), r.MACD.Histogram.String()),
			string(r.MACD.Signal), r.MACD.Interpretation},
		{"Moving Averages", fmt.Sprintf("%s: %s, %s: %s",
			r.MovingAverages.ShortTerm.Period.String(), r.MovingAverages.ShortTerm.Value.String(),
			r.MovingAverages.LongTerm.Period.String(), r.MovingAverages.LongTerm.Value.String()),
			string(r.MovingAverages.Signal), r.MovingAverages.Interpretation},
		{"Bollinger Bands", fmt.Sprintf("upper %s, middle %s, lower %s",
			r.BollingerBands.UpperBand.String(), r.BollingerBands.MiddleBand.String(), r.BollingerBands.LowerBand.String()),
			string(r.BollingerBands.Signal), r.BollingerBands.Interpretation},
		{"Ichimoku Cloud", "", string(r.IchimokuCloud.Signal), r.IchimokuCloud.Interpretation},
	})

	b.WriteString("## Wave and Fibonacci\n\n")
	bullets(&b, [][2]string{
		{"Current wave", r.ElliottWave.CurrentWave},
		{"Wave count", r.ElliottWave.Interpretation},
		{"Retracements", r.FibonacciAnalysis.KeyRetracementLevels},
		{"Extensions", r.FibonacciAnalysis.KeyExtensionLevels},
		{"Fibonacci view", r.FibonacciAnalysis.Interpretation},
	})

	b.WriteString("## Trade Setup\n\n")
	bullets(&b, [][2]string{
		{"Entry", r.TradeSetup.EntryStrategy},
		{"Targets", r.TradeSetup.ProfitTargets},
		{"Stop loss", r.TradeSetup.StopLossStrategy},
		{"Rationale", r.TradeSetup.Rationale},
	})

	b.WriteString("## Alternative Scenarios\n\n")
	bullets(&b, [][2]string{
		{"Bullish", r.AlternativeScenario.Bullish},
		{"Bearish", r.AlternativeScenario.Bearish},
	})

	b.WriteString("## Confluence\n\n")
	paragraph(&b, r.ConfluenceFactors)

	if strings.TrimSpace(r.EducationalInsight) != "" {
		b.WriteString("## Educational Insight\n\n")
		paragraph(&b, r.EducationalInsight)
	}

	return b.String()
}

func displayTime(timestamp string) string {
	t, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return timestamp
	}
	return t.UTC().Format("02 Jan 2006 15:04 MST")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return models.NotAvailable
	}
	return s
}

func paragraph(b *strings.Builder, text string) {
	b.WriteString(orNA(strings.TrimSpace(text)))
	b.WriteString("\n\n")
}

func bullets(b *strings.Builder, rows [][2]string) {
	for _, row := range rows {
		fmt.Fprintf(b, "- **%s:** %s\n", row[0], inline(orNA(row[1])))
	}
	b.WriteString("\n")
}

func table(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(header)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cell
			if i > 0 && strings.TrimSpace(cell) == "" {
				cells[i] = "-"
			}
			cells[i] = strings.ReplaceAll(inline(cells[i]), "|", `\|`)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	b.WriteString("\n")
}

// inline flattens model text onto a single line
func inline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
