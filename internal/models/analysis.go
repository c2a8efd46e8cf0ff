package models

// Trend is the overall direction the model reads from the chart
type Trend string

const (
	TrendBullish Trend = "Bullish"
	TrendBearish Trend = "Bearish"
	TrendNeutral Trend = "Neutral"
)

// TradeAction is the recommended action for the charted instrument
type TradeAction string

const (
	ActionBuy  TradeAction = "Buy"
	ActionSell TradeAction = "Sell"
	ActionHold TradeAction = "Hold"
)

// Volatility is the model's volatility bucket
type Volatility string

const (
	VolatilityLow      Volatility = "Low"
	VolatilityMedium   Volatility = "Medium"
	VolatilityHigh     Volatility = "High"
	VolatilityVeryHigh Volatility = "Very High"
)

// IndicatorSignal is the closed set of signals an indicator sub-record may carry
type IndicatorSignal string

const (
	SignalStrongBuy        IndicatorSignal = "Strong Buy"
	SignalBuy              IndicatorSignal = "Buy"
	SignalNeutral          IndicatorSignal = "Neutral"
	SignalSell             IndicatorSignal = "Sell"
	SignalStrongSell       IndicatorSignal = "Strong Sell"
	SignalOversold         IndicatorSignal = "Oversold"
	SignalOverbought       IndicatorSignal = "Overbought"
	SignalBullishCrossover IndicatorSignal = "Bullish Crossover"
	SignalBearishCrossover IndicatorSignal = "Bearish Crossover"
	SignalExpanding        IndicatorSignal = "Expanding"
	SignalContracting      IndicatorSignal = "Contracting"
)

// NotAvailable is the literal used for string fields with no finding
const NotAvailable = "N/A"

// ConfidenceMin and ConfidenceMax bound AnalysisResult.Confidence
const (
	ConfidenceMin = 0.0
	ConfidenceMax = 100.0
)

// Trends lists every legal Trend value in schema order
func Trends() []string {
	return []string{string(TrendBullish), string(TrendBearish), string(TrendNeutral)}
}

// TradeActions lists every legal TradeAction value in schema order
func TradeActions() []string {
	return []string{string(ActionBuy), string(ActionSell), string(ActionHold)}
}

// Volatilities lists every legal Volatility value in schema order
func Volatilities() []string {
	return []string{string(VolatilityLow), string(VolatilityMedium), string(VolatilityHigh), string(VolatilityVeryHigh)}
}

// IndicatorSignals lists every legal IndicatorSignal value in schema order
func IndicatorSignals() []string {
	return []string{
		string(SignalStrongBuy),
		string(SignalBuy),
		string(SignalNeutral),
		string(SignalSell),
		string(SignalStrongSell),
		string(SignalOversold),
		string(SignalOverbought),
		string(SignalBullishCrossover),
		string(SignalBearishCrossover),
		string(SignalExpanding),
		string(SignalContracting),
	}
}

// RSIAnalysis is the relative strength index reading
type RSIAnalysis struct {
	Value          Number          `json:"value"`
	Signal         IndicatorSignal `json:"signal"`
	Interpretation string          `json:"interpretation"`
}

// MACDAnalysis is the moving average convergence divergence reading
type MACDAnalysis struct {
	MACDLine       Number          `json:"macdLine"`
	SignalLine     Number          `json:"signalLine"`
	Histogram      Number          `json:"histogram"`
	Signal         IndicatorSignal `json:"signal"`
	Interpretation string          `json:"interpretation"`
}

// MovingAverage is a single moving average line
type MovingAverage struct {
	Period Number `json:"period"`
	Value  Number `json:"value"`
}

// MovingAveragesAnalysis compares a short and a long moving average
type MovingAveragesAnalysis struct {
	ShortTerm      MovingAverage   `json:"shortTerm"`
	LongTerm       MovingAverage   `json:"longTerm"`
	Signal         IndicatorSignal `json:"signal"`
	Interpretation string          `json:"interpretation"`
}

// BollingerBandsAnalysis is the Bollinger band reading
type BollingerBandsAnalysis struct {
	UpperBand      Number          `json:"upperBand"`
	MiddleBand     Number          `json:"middleBand"`
	LowerBand      Number          `json:"lowerBand"`
	Signal         IndicatorSignal `json:"signal"`
	Interpretation string          `json:"interpretation"`
}

// AlternativeScenario describes what would flip the read either way
type AlternativeScenario struct {
	Bullish string `json:"bullish"`
	Bearish string `json:"bearish"`
}

// ElliottWaveAnalysis is the model's wave count
type ElliottWaveAnalysis struct {
	CurrentWave    string `json:"currentWave"`
	Interpretation string `json:"interpretation"`
}

// FibonacciAnalysis lists the retracement and extension levels in play
type FibonacciAnalysis struct {
	KeyRetracementLevels string `json:"keyRetracementLevels"`
	KeyExtensionLevels   string `json:"keyExtensionLevels"`
	Interpretation       string `json:"interpretation"`
}

// IchimokuCloudAnalysis is the Ichimoku cloud reading
type IchimokuCloudAnalysis struct {
	Signal         IndicatorSignal `json:"signal"`
	Interpretation string          `json:"interpretation"`
}

// TradeSetup is the actionable plan derived from the analysis
type TradeSetup struct {
	EntryStrategy    string `json:"entryStrategy"`
	ProfitTargets    string `json:"profitTargets"`
	StopLossStrategy string `json:"stopLossStrategy"`
	Rationale        string `json:"rationale"`
}

// AnalysisResult is the structured analysis returned by the model.
// Numeric indicator values are model-generated and kept verbatim as Number;
// only Confidence is decoded strictly and clamped.
type AnalysisResult struct {
	IsChart             bool                   `json:"isChart"`
	Trend               Trend                  `json:"trend"`
	Action              TradeAction            `json:"action"`
	Confidence          float64                `json:"confidence"`
	Summary             string                 `json:"summary"`
	DetailedAnalysis    string                 `json:"detailedAnalysis"`
	KeyPatterns         string                 `json:"keyPatterns"`
	SupportLevel        string                 `json:"supportLevel"`
	ResistanceLevel     string                 `json:"resistanceLevel"`
	SwingPoints         string                 `json:"swingPoints"`
	CandlestickAnalysis string                 `json:"candlestickAnalysis"`
	PriceTarget         string                 `json:"priceTarget"`
	StopLoss            string                 `json:"stopLoss"`
	Volatility          Volatility             `json:"volatility"`
	RSI                 RSIAnalysis            `json:"rsi"`
	MACD                MACDAnalysis           `json:"macd"`
	MovingAverages      MovingAveragesAnalysis `json:"movingAverages"`
	BollingerBands      BollingerBandsAnalysis `json:"bollingerBands"`
	VolumeAnalysis      string                 `json:"volumeAnalysis"`
	MarketSentiment     string                 `json:"marketSentiment"`
	RiskRewardRatio     string                 `json:"riskRewardRatio"`
	AlternativeScenario AlternativeScenario    `json:"alternativeScenario"`
	EducationalInsight  string                 `json:"educationalInsight"`
	ElliottWave         ElliottWaveAnalysis    `json:"elliottWave"`
	FibonacciAnalysis   FibonacciAnalysis      `json:"fibonacciAnalysis"`
	IchimokuCloud       IchimokuCloudAnalysis  `json:"ichimokuCloud"`
	TradeSetup          TradeSetup             `json:"tradeSetup"`
	ConfluenceFactors   string                 `json:"confluenceFactors"`
}

// ClampConfidence forces Confidence into [ConfidenceMin, ConfidenceMax]
func (r *AnalysisResult) ClampConfidence() {
	switch {
	case r.Confidence < ConfidenceMin:
		r.Confidence = ConfidenceMin
	case r.Confidence > ConfidenceMax:
		r.Confidence = ConfidenceMax
	}
}
