package report

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/greattrades/internal/models"
)

func sampleItem() models.HistoryItem {
	return models.HistoryItem{
		ID:        1748779200000000,
		Timestamp: "2025-06-01T12:00:00Z",
		Result: models.AnalysisResult{
			IsChart:          true,
			Trend:            models.TrendBullish,
			Action:           models.ActionBuy,
			Confidence:       72.5,
			Summary:          "Higher lows above the 50 EMA",
			DetailedAnalysis: "Buyers defended 1.2500 three times.\nMomentum is improving.",
			SupportLevel:     "1.2500",
			ResistanceLevel:  "1.2710 | 1.2800",
			Volatility:       models.VolatilityMedium,
			RSI:              models.RSIAnalysis{Value: models.NewNumber(58.2), Signal: models.SignalBuy, Interpretation: "Room to run"},
			MovingAverages: models.MovingAveragesAnalysis{
				ShortTerm: models.MovingAverage{Period: models.NewNumber(50), Value: models.NewNumber(1.2555)},
				LongTerm:  models.MovingAverage{Period: models.NewNumber(200), Value: models.NewNumber(1.2432)},
				Signal:    models.SignalBullishCrossover,
			},
			TradeSetup: models.TradeSetup{EntryStrategy: "Buy a pullback to 1.2550"},
		},
	}
}

func jpegDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 30))
	for x := 0; x < 60; x++ {
		img.Set(x, x/2, color.RGBA{R: 20, G: 200, B: 120, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}))
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(sampleItem())

	assert.True(t, strings.HasPrefix(md, "# Chart Analysis Report\n"))
	assert.Contains(t, md, "*Analyzed 01 Jun 2025 12:00 UTC*")
	assert.Contains(t, md, "| Confidence | 72.5% |")
	assert.Contains(t, md, `| Resistance | 1.2710 \| 1.2800 |`)
	assert.Contains(t, md, "| RSI | 58.2 | Buy | Room to run |")
	assert.Contains(t, md, "| Moving Averages | 50: 1.2555, 200: 1.2432 | Bullish Crossover | - |")
	assert.Contains(t, md, "- **Entry:** Buy a pullback to 1.2550")
	assert.Contains(t, md, "- **Targets:** N/A")
	assert.NotContains(t, md, "## Educational Insight")
}

func TestRenderMarkdown_TextReadings(t *testing.T) {
	item := sampleItem()
	require.NoError(t, json.Unmarshal([]byte(`{"value":"N/A","signal":"Neutral"}`), &item.Result.RSI))
	require.NoError(t, json.Unmarshal([]byte(`{"period":20.5,"value":null}`), &item.Result.MovingAverages.ShortTerm))

	md := RenderMarkdown(item)

	assert.Contains(t, md, "| RSI | N/A | Neutral | Room to run |")
	assert.Contains(t, md, "| Moving Averages | 20.5: N/A, 200: 1.2432 |")
}

func TestPDF(t *testing.T) {
	service := NewService(arbor.NewLogger())

	tests := []struct {
		name      string
		thumbnail string
	}{
		{name: "without thumbnail"},
		{name: "with thumbnail", thumbnail: jpegDataURL(t)},
		{name: "unreadable thumbnail falls back", thumbnail: "data:image/png;base64,AAAA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := sampleItem()
			item.ThumbnailDataURL = tt.thumbnail

			data, err := service.PDF(item)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
		})
	}
}

func TestMarkdownToPDF_Lists(t *testing.T) {
	data, err := markdownToPDF("# Title\n\n1. one\n2. two\n   - nested `code`\n\n---\n\n**bold** and *italic*", "lists", "")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
