package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the effective setup
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("GreatTrades", "Chart analysis service "+GetVersion())

	model := config.Gemini.Model
	if config.LLM.DefaultProvider == LLMProviderClaude {
		model = config.Claude.Model
	}

	logger.Info().
		Str("version", GetFullVersion()).
		Str("environment", config.Environment).
		Str("provider", string(config.LLM.DefaultProvider)).
		Str("model", model).
		Str("storage", config.Storage.Badger.Path).
		Msg("GreatTrades starting")
}
