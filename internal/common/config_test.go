package common

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "gemini-2.5-flash", config.Gemini.Model)
	assert.Equal(t, LLMProviderGemini, config.LLM.DefaultProvider)
	assert.Equal(t, 100, config.Analysis.ThumbnailMaxDimension)
	assert.Equal(t, 80, config.Analysis.ThumbnailQuality)
	assert.Equal(t, int64(40_000_000), config.Analysis.MaxImagePixels)
	assert.Empty(t, config.Gemini.Timeout, "no per-call timeout by default")
	assert.NoError(t, config.Validate())
}

func TestLoadFromFiles_LaterFileOverrides(t *testing.T) {
	base := writeConfigFile(t, "base.toml", `
[server]
port = 9000

[gemini]
model = "gemini-2.0-flash"
`)
	override := writeConfigFile(t, "override.toml", `
[gemini]
model = "gemini-2.5-pro"

[analysis]
max_concurrency = 4
`)

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "gemini-2.5-pro", config.Gemini.Model)
	assert.Equal(t, 4, config.Analysis.MaxConcurrency)
	assert.Equal(t, 100, config.Analysis.ThumbnailMaxDimension, "unset keys keep defaults")
}

func TestLoadFromFiles_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "config.toml", `
[server]
port = 9000
`)
	t.Setenv("GREATTRADES_SERVER_PORT", "9100")
	t.Setenv("GREATTRADES_LOG_OUTPUT", "stdout, file ,")

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, []string{"stdout", "file"}, config.Logging.Output)
}

func TestLoadFromFiles_InvalidProvider(t *testing.T) {
	path := writeConfigFile(t, "config.toml", `
[llm]
default_provider = "openai"
`)

	_, err := LoadFromFiles(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_provider")
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()
	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 8080, config.Server.Port)

	ApplyFlagOverrides(config, 7070, "0.0.0.0")
	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}

func TestResolveAPIKey_Priority(t *testing.T) {
	ctx := context.Background()
	t.Setenv("GREATTRADES_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	key, err := ResolveAPIKey(ctx, nil, "gemini_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", key)

	t.Setenv("API_KEY", "from-env")
	key, err = ResolveAPIKey(ctx, nil, "gemini_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
}

func TestResolveAPIKey_Missing(t *testing.T) {
	t.Setenv("GREATTRADES_CLAUDE_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := ResolveAPIKey(context.Background(), nil, "claude_api_key", "")
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeConfigFile(t, ".env", "GREATTRADES_TEST_DOTENV=loaded\n")
	t.Setenv("GREATTRADES_TEST_DOTENV", "")
	os.Unsetenv("GREATTRADES_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "loaded", os.Getenv("GREATTRADES_TEST_DOTENV"))
}

func TestParseOptionalDuration(t *testing.T) {
	d, err := ParseOptionalDuration("")
	require.NoError(t, err)
	assert.Zero(t, d)

	_, err = ParseOptionalDuration("soon")
	assert.Error(t, err)
}
