// internal/config/config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable the loader reads so ambient values do not leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"MUX_TOKEN_ID", "MUX_TOKEN_SECRET", "MUX_MCP_COMMAND", "MUX_MCP_ARGS",
		"MUXMCP_CONNECT_TIMEOUT", "MUXMCP_CALL_TIMEOUT", "MUXMCP_TOOLSET", "MUXMCP_CACHE_PER_EPOCH",
		"MUXMCP_USE_KEYRING", "MUXMCP_CREDENTIALS_PATH", "MUXMCP_LOG_LEVEL", "MUXMCP_LOG_FORMAT",
		"MUXMCP_MEMORY_DB", "LLM_PROVIDER", "LLM_MAX_TOKENS",
		"ANTHROPIC_API_KEY", "ANTHROPIC_BASE_URL", "ANTHROPIC_MODEL",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL",
		"OLLAMA_API_KEY", "OLLAMA_BASE_URL", "OLLAMA_MODEL",
		"LMSTUDIO_API_KEY", "LMSTUDIO_BASE_URL", "LMSTUDIO_MODEL",
	} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600), "Failed to write test file.")
	return path
}

func TestDefaultConfig(t *testing.T) {
	clearEnv(t)
	cfg := DefaultConfig()

	assert.Equal(t, "npx", cfg.MCP.Command)
	assert.Equal(t, DefaultArgs, cfg.MCP.Args)
	assert.Equal(t, 30*time.Second, cfg.MCP.ConnectTimeout)
	assert.Equal(t, 2*time.Minute, cfg.MCP.CallTimeout)
	assert.Equal(t, "mux", cfg.Catalog.Toolset)
	assert.False(t, cfg.Catalog.CachePerEpoch, "Per-epoch caching is off by default.")
	assert.Equal(t, ProviderAnthropic, cfg.Provider.Name)
	assert.Empty(t, cfg.Mux.TokenID)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.yaml", `
mux:
  token_id: "file-id"
  token_secret: "file-secret"
mcp:
  command: "node"
  args: "server.js --tools=static"
  connect_timeout: 5s
catalog:
  toolset: "video"
  cache_per_epoch: true
provider:
  name: ollama
  ollama:
    model: "qwen2.5"
`)

	t.Setenv("MUX_TOKEN_SECRET", "env-secret")
	t.Setenv("MUXMCP_CALL_TIMEOUT", "45s")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "file-id", cfg.Mux.TokenID)
	assert.Equal(t, "env-secret", cfg.Mux.TokenSecret, "Environment must win over the file.")
	assert.Equal(t, "node", cfg.MCP.Command)
	assert.Equal(t, "server.js --tools=static", cfg.MCP.Args)
	assert.Equal(t, 5*time.Second, cfg.MCP.ConnectTimeout)
	assert.Equal(t, 45*time.Second, cfg.MCP.CallTimeout)
	assert.Equal(t, "video", cfg.Catalog.Toolset)
	assert.True(t, cfg.Catalog.CachePerEpoch)
	assert.Equal(t, ProviderOllama, cfg.Provider.Name)
	assert.Equal(t, "qwen2.5", cfg.Backend().Model)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Backend().BaseURL, "Unset backend fields keep defaults.")
}

func TestLoadFromFile_Errors(t *testing.T) {
	clearEnv(t)
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "Missing file should fail.")

	bad := writeFile(t, t.TempDir(), "bad.yaml", "mcp: [unclosed")
	_, err = LoadFromFile(bad)
	assert.Error(t, err, "Malformed YAML should fail.")
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", " OpenAI ")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Provider.Name)
	assert.Equal(t, "gpt-4o-mini", cfg.Backend().Model)
}

func TestEnvironmentOverrides_InvalidValuesIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("MUXMCP_CONNECT_TIMEOUT", "soon")
	t.Setenv("MUXMCP_CACHE_PER_EPOCH", "maybe")
	t.Setenv("LLM_MAX_TOKENS", "-3")

	cfg := DefaultConfig()
	assert.Equal(t, DefaultConnectTimeout, cfg.MCP.ConnectTimeout)
	assert.False(t, cfg.Catalog.CachePerEpoch)
	assert.Equal(t, 1024, cfg.Provider.MaxTokens)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty command", func(c *Config) { c.MCP.Command = " " }},
		{"zero connect timeout", func(c *Config) { c.MCP.ConnectTimeout = 0 }},
		{"negative call timeout", func(c *Config) { c.MCP.CallTimeout = -time.Second }},
		{"empty toolset", func(c *Config) { c.Catalog.Toolset = "" }},
		{"unknown provider", func(c *Config) { c.Provider.Name = "gemini" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "MUX_TOKEN_ID=dotenv-id\nMUX_TOKEN_SECRET=dotenv-secret\n")

	// Pre-set variables are never overwritten.
	t.Setenv("MUX_TOKEN_SECRET", "already-set")
	// godotenv treats an empty value as set, so unset it explicitly for this key.
	require.NoError(t, os.Unsetenv("MUX_TOKEN_ID"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "does-not-exist.env"), path))
	t.Cleanup(func() { _ = os.Unsetenv("MUX_TOKEN_ID") })

	assert.Equal(t, "dotenv-id", os.Getenv("MUX_TOKEN_ID"))
	assert.Equal(t, "already-set", os.Getenv("MUX_TOKEN_SECRET"))

	cfg := DefaultConfig()
	assert.Equal(t, "dotenv-id", cfg.Mux.TokenID)
}
