package models

// AIPersonality controls the tone and depth of the generated analysis
type AIPersonality string

const (
	PersonalityConcise     AIPersonality = "Concise"
	PersonalityDetailed    AIPersonality = "Detailed"
	PersonalityEducational AIPersonality = "Educational"
)

// UIDensity is a presentation preference stored alongside the trading settings
type UIDensity string

const (
	DensityComfortable UIDensity = "Comfortable"
	DensityCompact     UIDensity = "Compact"
)

// NotSpecified is the default for every free-text preference
const NotSpecified = "Not Specified"

// UserPreferences describes how the user trades
type UserPreferences struct {
	TradingStyle      string   `json:"tradingStyle" validate:"max=200"`
	PrimaryGoal       string   `json:"primaryGoal" validate:"max=200"`
	RiskTolerance     string   `json:"riskTolerance" validate:"max=200"`
	InvestmentHorizon string   `json:"investmentHorizon" validate:"max=200"`
	TradeStrategies   []string `json:"tradeStrategies" validate:"max=50,dive,max=200"`
	TradeBudget       string   `json:"tradeBudget" validate:"max=200"`
	PortfolioExposure string   `json:"portfolioExposure" validate:"max=200"`
}

// UserSettings is the persisted per-user settings object. A copy of it is the
// settings snapshot passed to each analysis call.
type UserSettings struct {
	UserPreferences
	AIPersonality          AIPersonality `json:"aiPersonality" validate:"required,oneof=Concise Detailed Educational"`
	DefaultLanguage        string        `json:"defaultLanguage" validate:"required,max=64"`
	DefaultTimeFrame       string        `json:"defaultTimeFrame" validate:"max=64"`
	AccentColor            string        `json:"accentColor" validate:"omitempty,hexcolor"`
	UIDensity              UIDensity     `json:"uiDensity" validate:"required,oneof=Comfortable Compact"`
	HistoryTrackingEnabled bool          `json:"historyTrackingEnabled"`
}

// DefaultUserSettings returns the settings used for users who never saved any
func DefaultUserSettings() UserSettings {
	return UserSettings{
		UserPreferences: UserPreferences{
			TradingStyle:      NotSpecified,
			PrimaryGoal:       NotSpecified,
			RiskTolerance:     NotSpecified,
			InvestmentHorizon: NotSpecified,
			TradeStrategies:   []string{},
			TradeBudget:       NotSpecified,
			PortfolioExposure: NotSpecified,
		},
		AIPersonality:          PersonalityDetailed,
		DefaultLanguage:        "English",
		DefaultTimeFrame:       NotSpecified,
		AccentColor:            "#2dd4bf",
		UIDensity:              DensityComfortable,
		HistoryTrackingEnabled: true,
	}
}

// Clone returns a deep copy so callers can hand out snapshots safely
func (s UserSettings) Clone() UserSettings {
	clone := s
	clone.TradeStrategies = append([]string{}, s.TradeStrategies...)
	return clone
}
