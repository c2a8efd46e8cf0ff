package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-15, 0},
		{140, 100},
		{57.4, 57.4},
		{0, 0},
		{100, 100},
	}
	for _, tt := range tests {
		r := AnalysisResult{Confidence: tt.in}
		r.ClampConfidence()
		assert.Equal(t, tt.want, r.Confidence, "input %v", tt.in)
	}
}

func TestDefaultUserSettings(t *testing.T) {
	s := DefaultUserSettings()
	assert.Equal(t, PersonalityDetailed, s.AIPersonality)
	assert.Equal(t, "English", s.DefaultLanguage)
	assert.Equal(t, NotSpecified, s.TradingStyle)
	assert.NotNil(t, s.TradeStrategies)
	assert.True(t, s.HistoryTrackingEnabled)
}

func TestUserSettingsClone_DoesNotShareStrategies(t *testing.T) {
	s := DefaultUserSettings()
	s.TradeStrategies = []string{"Breakout"}

	clone := s.Clone()
	clone.TradeStrategies[0] = "Scalping"

	assert.Equal(t, "Breakout", s.TradeStrategies[0])
}

func TestEncodedImage(t *testing.T) {
	img := EncodedImage{Base64Data: "aGVsbG8=", MIMEType: "image/png"}

	data, err := img.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", img.DataURL())
}

func TestEffectiveTimeFrame(t *testing.T) {
	ctx := AnalysisRequestContext{Settings: DefaultUserSettings()}
	assert.Equal(t, NotSpecified, ctx.EffectiveTimeFrame())

	ctx.TimeFrame = "4H"
	assert.Equal(t, "4H", ctx.EffectiveTimeFrame())
}

func TestNewHistoryItem_TimestampIsUTC(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 30, 0, 0, time.FixedZone("AEST", 10*3600))
	item := NewHistoryItem(42, at, "data:image/jpeg;base64,AA==", AnalysisResult{IsChart: true})

	assert.Equal(t, int64(42), item.ID)
	assert.Equal(t, "2025-03-01T00:30:00Z", item.Timestamp)
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		display string
		float   float64
		isFloat bool
	}{
		{"integer", `20`, "20", 20, true},
		{"fraction", `20.5`, "20.5", 20.5, true},
		{"text", `"N/A"`, "N/A", 0, false},
		{"empty text", `""`, "N/A", 0, false},
		{"null", `null`, "N/A", 0, false},
		{"object", `{"level":1}`, `{"level":1}`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var average MovingAverage
			require.NoError(t, json.Unmarshal([]byte(`{"period":`+tt.raw+`}`), &average))

			assert.Equal(t, tt.display, average.Period.String())
			got, ok := average.Period.Float64()
			assert.Equal(t, tt.isFloat, ok)
			assert.Equal(t, tt.float, got)

			encoded, err := json.Marshal(average.Period)
			require.NoError(t, err)
			assert.JSONEq(t, tt.raw, string(encoded))
		})
	}

	assert.Equal(t, "1.0901", NewNumber(1.0901).String())
	assert.True(t, Number{}.IsZero())
}
