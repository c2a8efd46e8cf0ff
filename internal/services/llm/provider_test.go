package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/greattrades/internal/common"
)

func newTestFactory(provider common.LLMProvider) *ProviderFactory {
	config := common.NewDefaultConfig()
	config.LLM.DefaultProvider = provider
	return NewProviderFactory(&config.Gemini, &config.Claude, &config.LLM, nil, arbor.NewLogger())
}

func TestDetectProvider(t *testing.T) {
	factory := newTestFactory(common.LLMProviderGemini)

	assert.Equal(t, ProviderClaude, factory.DetectProvider("claude-sonnet-4-20250514"))
	assert.Equal(t, ProviderClaude, factory.DetectProvider("anthropic/claude-sonnet-4-20250514"))
	assert.Equal(t, ProviderGemini, factory.DetectProvider("gemini-2.5-flash"))
	assert.Equal(t, ProviderGemini, factory.DetectProvider("google/gemini-2.5-flash"))
	assert.Equal(t, ProviderGemini, factory.DetectProvider(""))

	claudeDefault := newTestFactory(common.LLMProviderClaude)
	assert.Equal(t, ProviderClaude, claudeDefault.DetectProvider("custom-model"))
	assert.Equal(t, claudeDefault.claudeConfig.Model, claudeDefault.DefaultModel())
}

func TestNormalizeModel(t *testing.T) {
	factory := newTestFactory(common.LLMProviderGemini)

	assert.Equal(t, "gemini-2.5-flash", factory.NormalizeModel("gemini/gemini-2.5-flash"))
	assert.Equal(t, "claude-sonnet-4-20250514", factory.NormalizeModel("Claude/claude-sonnet-4-20250514"))
	assert.Equal(t, "gemini-2.5-flash", factory.NormalizeModel("gemini-2.5-flash"))
}

func TestGenerateContent_MissingAPIKey(t *testing.T) {
	for _, env := range []string{"GREATTRADES_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY"} {
		t.Setenv(env, "")
	}
	factory := newTestFactory(common.LLMProviderGemini)

	err := factory.CheckCredentials(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = factory.GenerateContent(context.Background(), &ContentRequest{Instruction: "hello"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, newLimiter(""))
	assert.Nil(t, newLimiter("bogus"))
	assert.NotNil(t, newLimiter("2s"))
}

func TestConvertToGenaiSchema(t *testing.T) {
	schemaMap := map[string]interface{}{
		"type":             "object",
		"propertyOrdering": []string{"trend", "confidence"},
		"required":         []string{"trend"},
		"properties": map[string]interface{}{
			"trend": map[string]interface{}{
				"type": "string",
				"enum": []string{"Bullish", "Bearish", "Neutral"},
			},
			"confidence": map[string]interface{}{
				"type":    "number",
				"minimum": 0,
				"maximum": 100.0,
			},
			"levels": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "number"},
			},
		},
	}

	schema, err := convertToGenaiSchema(schemaMap)
	require.NoError(t, err)

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, []string{"trend", "confidence"}, schema.PropertyOrdering)
	assert.Equal(t, []string{"Bullish", "Bearish", "Neutral"}, schema.Properties["trend"].Enum)
	require.NotNil(t, schema.Properties["confidence"].Minimum)
	assert.Equal(t, 0.0, *schema.Properties["confidence"].Minimum)
	assert.Equal(t, 100.0, *schema.Properties["confidence"].Maximum)
	assert.Equal(t, genai.TypeNumber, schema.Properties["levels"].Items.Type)
}

func TestConvertToGenaiSchema_UnsupportedType(t *testing.T) {
	_, err := convertToGenaiSchema(map[string]interface{}{"type": "tuple"})
	assert.Error(t, err)
}

func TestRenderSchemaForPrompt(t *testing.T) {
	text, err := renderSchemaForPrompt(map[string]interface{}{"type": "object"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object"}`, text)
}
