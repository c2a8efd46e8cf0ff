package prompt

import "github.com/ternarybob/greattrades/internal/models"

// field is one named property of an object schema
type field struct {
	name   string
	schema map[string]interface{}
}

// object builds an object schema whose fields are all required and emitted in order
func object(description string, fields ...field) map[string]interface{} {
	properties := make(map[string]interface{}, len(fields))
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		properties[f.name] = f.schema
		names = append(names, f.name)
	}

	schema := map[string]interface{}{
		"type":             "object",
		"properties":       properties,
		"required":         names,
		"propertyOrdering": names,
	}
	if description != "" {
		schema["description"] = description
	}
	return schema
}

func text(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

// textOrNA describes a string field that carries "N/A" when there is no finding
func textOrNA(description string) map[string]interface{} {
	return text(description + ` If none, return "` + models.NotAvailable + `".`)
}

func number(description string) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": description}
}

func integer(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

func boolean(description string) map[string]interface{} {
	return map[string]interface{}{"type": "boolean", "description": description}
}

func enum(description string, values []string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description, "enum": values}
}

func signal(indicator string) field {
	return field{"signal", enum("The trading signal derived from the "+indicator+".", models.IndicatorSignals())}
}

func interpretation(indicator string) field {
	return field{"interpretation", text("A short explanation of what the " + indicator + " reading means for this chart.")}
}

func movingAverage(label string) map[string]interface{} {
	return object("The "+label+" moving average.",
		field{"period", integer("The moving average period, e.g. 20 or 50.")},
		field{"value", number("The current value of the moving average.")},
	)
}

// ResponseSchema declares every AnalysisResult field, its type and its legal values.
// The returned map is freshly built on each call and may be modified by the caller.
func ResponseSchema() map[string]interface{} {
	return object("",
		field{"isChart", boolean("True if the image is a financial trading chart, otherwise false.")},
		field{"trend", enum("The overall market trend identified from the chart.", models.Trends())},
		field{"action", enum("The recommended trading action based on the analysis.", models.TradeActions())},
		field{"confidence", number("A confidence score from 0 to 100 for the recommended action.")},
		field{"summary", text("A concise, one-sentence summary of the chart analysis.")},
		field{"detailedAnalysis", text("A multi-sentence, in-depth analysis explaining the reasoning, identifying patterns, indicators, and potential price movements.")},
		field{"keyPatterns", textOrNA(`Identified chart patterns (e.g., "Head and Shoulders, Bullish Engulfing").`)},
		field{"supportLevel", textOrNA("The key support price level identified.")},
		field{"resistanceLevel", textOrNA("The key resistance price level identified.")},
		field{"swingPoints", textOrNA("Key swing high and swing low price levels identified.")},
		field{"candlestickAnalysis", textOrNA(`Analysis of recent significant candlestick patterns and what they indicate (e.g., "Doji suggests indecision").`)},
		field{"priceTarget", textOrNA("The projected price target for the recommended action.")},
		field{"stopLoss", textOrNA("The suggested stop-loss price level.")},
		field{"volatility", enum("The current volatility of the instrument.", models.Volatilities())},
		field{"rsi", object("Relative Strength Index analysis.",
			field{"value", number("The current RSI value.")},
			signal("RSI"),
			interpretation("RSI"),
		)},
		field{"macd", object("Moving Average Convergence Divergence analysis.",
			field{"macdLine", number("The current MACD line value.")},
			field{"signalLine", number("The current signal line value.")},
			field{"histogram", number("The current histogram value.")},
			signal("MACD"),
			interpretation("MACD"),
		)},
		field{"movingAverages", object("Short and long term moving average analysis.",
			field{"shortTerm", movingAverage("short term")},
			field{"longTerm", movingAverage("long term")},
			signal("moving averages"),
			interpretation("moving averages"),
		)},
		field{"bollingerBands", object("Bollinger Bands analysis.",
			field{"upperBand", number("The upper band value.")},
			field{"middleBand", number("The middle band value.")},
			field{"lowerBand", number("The lower band value.")},
			signal("Bollinger Bands"),
			interpretation("Bollinger Bands"),
		)},
		field{"volumeAnalysis", textOrNA("What the traded volume says about the strength of the move.")},
		field{"marketSentiment", textOrNA("The overall market sentiment suggested by the chart.")},
		field{"riskRewardRatio", textOrNA(`The risk/reward ratio of the suggested trade (e.g., "1:3").`)},
		field{"alternativeScenario", object("What would invalidate the primary analysis.",
			field{"bullish", text("The scenario and trigger for a bullish outcome.")},
			field{"bearish", text("The scenario and trigger for a bearish outcome.")},
		)},
		field{"educationalInsight", textOrNA("One concept from this chart worth learning, explained simply.")},
		field{"elliottWave", object("Elliott Wave analysis.",
			field{"currentWave", textOrNA("The wave the market is most likely in.")},
			interpretation("Elliott Wave count"),
		)},
		field{"fibonacciAnalysis", object("Fibonacci retracement and extension analysis.",
			field{"keyRetracementLevels", textOrNA("The key Fibonacci retracement levels.")},
			field{"keyExtensionLevels", textOrNA("The key Fibonacci extension levels.")},
			interpretation("Fibonacci levels"),
		)},
		field{"ichimokuCloud", object("Ichimoku Cloud analysis.",
			signal("Ichimoku Cloud"),
			interpretation("Ichimoku Cloud"),
		)},
		field{"tradeSetup", object("A concrete trade setup.",
			field{"entryStrategy", textOrNA("How and where to enter the trade.")},
			field{"profitTargets", textOrNA("The profit target levels.")},
			field{"stopLossStrategy", textOrNA("Where to place and how to manage the stop-loss.")},
			field{"rationale", text("Why this setup fits the analysis and the user's context.")},
		)},
		field{"confluenceFactors", textOrNA("Signals from different tools that agree with each other.")},
	)
}
