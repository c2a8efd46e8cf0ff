package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/ternarybob/greattrades/internal/common"
	"github.com/ternarybob/greattrades/internal/interfaces"
	"github.com/ternarybob/greattrades/internal/models"
)

// ErrMissingAPIKey is returned before any network call when no credential is configured
var ErrMissingAPIKey = errors.New("API key not configured")

// ErrEmptyResponse is returned when the model answers without any text
var ErrEmptyResponse = errors.New("empty response from model")

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
)

// ContentRequest is a provider-agnostic single-image generation request
type ContentRequest struct {
	Model             string
	Temperature       float32
	MaxTokens         int
	Instruction       string
	Image             *models.EncodedImage
	SystemInstruction string
	OutputSchema      map[string]interface{} // JSON schema the model must follow
}

// ContentResponse is the raw text returned by a provider
type ContentResponse struct {
	Text     string
	Provider ProviderType
	Model    string
}

// ProviderFactory creates provider clients on first use and routes requests to them.
// It is safe for concurrent use.
type ProviderFactory struct {
	geminiConfig *common.GeminiConfig
	claudeConfig *common.ClaudeConfig
	llmConfig    *common.LLMConfig
	kvStorage    interfaces.KeyValueStorage
	logger       arbor.ILogger

	mu           sync.Mutex
	geminiClient *genai.Client
	claudeClient *anthropic.Client

	geminiLimiter *rate.Limiter
	claudeLimiter *rate.Limiter
}

// NewProviderFactory creates a new provider factory. kvStorage may be nil.
func NewProviderFactory(
	geminiConfig *common.GeminiConfig,
	claudeConfig *common.ClaudeConfig,
	llmConfig *common.LLMConfig,
	kvStorage interfaces.KeyValueStorage,
	logger arbor.ILogger,
) *ProviderFactory {
	return &ProviderFactory{
		geminiConfig:  geminiConfig,
		claudeConfig:  claudeConfig,
		llmConfig:     llmConfig,
		kvStorage:     kvStorage,
		logger:        logger,
		geminiLimiter: newLimiter(geminiConfig.RateLimit),
		claudeLimiter: newLimiter(claudeConfig.RateLimit),
	}
}

// newLimiter returns nil when no interval is configured
func newLimiter(interval string) *rate.Limiter {
	d, err := common.ParseOptionalDuration(interval)
	if err != nil || d <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// DetectProvider determines the provider type from a model string.
//   - "claude-sonnet-4-20250514" or "claude/..." -> Claude
//   - "gemini-2.5-flash" or "gemini/..." -> Gemini
//   - empty or unknown -> default provider from config
func (f *ProviderFactory) DetectProvider(model string) ProviderType {
	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "claude/"), strings.HasPrefix(model, "anthropic/"), strings.HasPrefix(model, "claude-"):
		return ProviderClaude
	case strings.HasPrefix(model, "gemini/"), strings.HasPrefix(model, "google/"), strings.HasPrefix(model, "gemini-"):
		return ProviderGemini
	}

	return ProviderType(f.llmConfig.DefaultProvider)
}

// NormalizeModel removes provider prefix from model name if present
func (f *ProviderFactory) NormalizeModel(model string) string {
	for _, prefix := range []string{"claude/", "anthropic/", "gemini/", "google/"} {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// DefaultModel returns the configured model for the default provider
func (f *ProviderFactory) DefaultModel() string {
	if ProviderType(f.llmConfig.DefaultProvider) == ProviderClaude {
		return f.claudeConfig.Model
	}
	return f.geminiConfig.Model
}

// CheckCredentials resolves the API key for the provider serving model without
// creating a client. It returns an error wrapping ErrMissingAPIKey if none is set.
func (f *ProviderFactory) CheckCredentials(ctx context.Context, model string) error {
	var err error
	if f.DetectProvider(model) == ProviderClaude {
		_, err = common.ResolveAPIKey(ctx, f.kvStorage, "anthropic_api_key", f.claudeConfig.APIKey)
	} else {
		_, err = common.ResolveAPIKey(ctx, f.kvStorage, "gemini_api_key", f.geminiConfig.APIKey)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMissingAPIKey, err)
	}
	return nil
}

// geminiClientFor returns a Gemini client, creating one if necessary
func (f *ProviderFactory) geminiClientFor(ctx context.Context) (*genai.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.geminiClient != nil {
		return f.geminiClient, nil
	}

	apiKey, err := common.ResolveAPIKey(ctx, f.kvStorage, "gemini_api_key", f.geminiConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingAPIKey, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	f.geminiClient = client
	return client, nil
}

// claudeClientFor returns a Claude client, creating one if necessary
func (f *ProviderFactory) claudeClientFor(ctx context.Context) (*anthropic.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.claudeClient != nil {
		return f.claudeClient, nil
	}

	apiKey, err := common.ResolveAPIKey(ctx, f.kvStorage, "anthropic_api_key", f.claudeConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingAPIKey, err)
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	f.claudeClient = &client
	return f.claudeClient, nil
}

// GenerateContent sends one request to the provider serving request.Model.
// Exactly one round trip is made; failures are returned as is.
func (f *ProviderFactory) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	provider := f.DetectProvider(request.Model)
	model := f.NormalizeModel(request.Model)

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Bool("has_image", request.Image != nil).
		Msg("Generating content with provider")

	if provider == ProviderClaude {
		return f.generateWithClaude(ctx, request, model)
	}
	return f.generateWithGemini(ctx, request, model)
}

// prepareCall applies the optional per-call timeout and waits for the rate limiter
func prepareCall(ctx context.Context, limiter *rate.Limiter, timeout string) (context.Context, context.CancelFunc, error) {
	cancel := context.CancelFunc(func() {})
	if d, _ := common.ParseOptionalDuration(timeout); d > 0 {
		ctx, cancel = context.WithTimeout(ctx, d)
	}
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			cancel()
			return nil, nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}
	return ctx, cancel, nil
}

// generateWithGemini generates content using Gemini API
func (f *ProviderFactory) generateWithGemini(ctx context.Context, request *ContentRequest, model string) (*ContentResponse, error) {
	client, err := f.geminiClientFor(ctx)
	if err != nil {
		return nil, err
	}

	if model == "" {
		model = f.geminiConfig.Model
	}

	parts := []*genai.Part{}
	if request.Image != nil {
		data, err := request.Image.Bytes()
		if err != nil {
			return nil, err
		}
		parts = append(parts, genai.NewPartFromBytes(data, request.Image.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(request.Instruction))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{}

	temp := request.Temperature
	if temp <= 0 {
		temp = f.geminiConfig.Temperature
	}
	if temp > 0 {
		config.Temperature = genai.Ptr(temp)
	}

	if request.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(request.SystemInstruction, genai.RoleUser)
	}

	if len(request.OutputSchema) > 0 {
		genaiSchema, err := convertToGenaiSchema(request.OutputSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to convert output schema: %w", err)
		}
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = genaiSchema
	}

	callCtx, cancel, err := prepareCall(ctx, f.geminiLimiter, f.geminiConfig.Timeout)
	if err != nil {
		return nil, err
	}
	defer cancel()

	start := time.Now()
	resp, err := client.Models.GenerateContent(callCtx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("Gemini returned no candidates: %w", ErrEmptyResponse)
	}

	responseText := resp.Text()
	if responseText == "" {
		return nil, fmt.Errorf("Gemini returned no text: %w", ErrEmptyResponse)
	}

	f.logger.Debug().
		Str("model", model).
		Dur("duration", time.Since(start)).
		Int("response_length", len(responseText)).
		Msg("Gemini response received")

	return &ContentResponse{
		Text:     responseText,
		Provider: ProviderGemini,
		Model:    model,
	}, nil
}

// generateWithClaude generates content using Claude API.
// Claude has no response schema parameter, so the schema is appended to the system prompt.
func (f *ProviderFactory) generateWithClaude(ctx context.Context, request *ContentRequest, model string) (*ContentResponse, error) {
	client, err := f.claudeClientFor(ctx)
	if err != nil {
		return nil, err
	}

	if model == "" {
		model = f.claudeConfig.Model
	}

	blocks := []anthropic.ContentBlockParamUnion{}
	if request.Image != nil {
		blocks = append(blocks, anthropic.NewImageBlockBase64(request.Image.MIMEType, request.Image.Base64Data))
	}
	blocks = append(blocks, anthropic.NewTextBlock(request.Instruction))

	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = f.claudeConfig.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = f.claudeConfig.Temperature
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}

	systemText := request.SystemInstruction
	if len(request.OutputSchema) > 0 {
		schemaText, err := renderSchemaForPrompt(request.OutputSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to render output schema: %w", err)
		}
		systemText += "\n\nRespond with a single JSON object and nothing else. It must match this JSON schema:\n" + schemaText
	}
	if systemText != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemText}}
	}

	callCtx, cancel, err := prepareCall(ctx, f.claudeLimiter, f.claudeConfig.Timeout)
	if err != nil {
		return nil, err
	}
	defer cancel()

	start := time.Now()
	resp, err := client.Messages.New(callCtx, params)
	if err != nil {
		return nil, fmt.Errorf("Claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return nil, fmt.Errorf("Claude returned no text: %w", ErrEmptyResponse)
	}

	f.logger.Debug().
		Str("model", model).
		Dur("duration", time.Since(start)).
		Int("response_length", text.Len()).
		Msg("Claude response received")

	return &ContentResponse{
		Text:     text.String(),
		Provider: ProviderClaude,
		Model:    model,
	}, nil
}

// Close drops the cached provider clients
func (f *ProviderFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geminiClient = nil
	f.claudeClient = nil
	return nil
}
