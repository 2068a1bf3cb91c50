// Package config handles loading, parsing, and validating application configuration.
// It defines the structure for configuration settings, provides default values,
// loads settings from YAML files and .env files, and applies overrides from environment variables.
// file: internal/config/config.go
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/muxmcp/internal/logging"
	"gopkg.in/yaml.v3"
)

// MuxConfig holds the two secrets the tool provider needs.
type MuxConfig struct {
	// TokenID is the Mux access token ID (MUX_TOKEN_ID). Required.
	TokenID string `yaml:"token_id"`
	// TokenSecret is the Mux access token secret (MUX_TOKEN_SECRET). Required.
	TokenSecret string `yaml:"token_secret"`
}

// MCPConfig describes how the tool-provider subprocess is started and bounded.
type MCPConfig struct {
	// Command is the executable launched for the tool provider.
	Command string `yaml:"command"`
	// Args is a comma or space separated argument string.
	Args string `yaml:"args"`
	// ConnectTimeout bounds spawn plus handshake.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// CallTimeout bounds a single tool invocation when the caller set no deadline.
	CallTimeout time.Duration `yaml:"call_timeout"`
	// ClientName is reported to the remote during the handshake.
	ClientName string `yaml:"client_name"`
}

// CatalogConfig controls tool catalog construction.
type CatalogConfig struct {
	// Toolset names the tool family in default descriptions.
	Toolset string `yaml:"toolset"`
	// CachePerEpoch reuses the operation list until the connection is re-established.
	CachePerEpoch bool `yaml:"cache_per_epoch"`
}

// AuthConfig contains settings related to credential storage.
type AuthConfig struct {
	// UseKeyring enables the OS keyring as a credential fallback.
	UseKeyring bool `yaml:"use_keyring"`
	// CredentialsPath is the file fallback used when the keyring is unavailable.
	// Supports '~' expansion for home directory.
	CredentialsPath string `yaml:"credentials_path"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json.
}

// BackendConfig holds the settings of one text-generation backend.
type BackendConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// ProviderConfig selects and configures the text-generation backend.
type ProviderConfig struct {
	// Name is one of anthropic, openai, ollama, lmstudio.
	Name      string        `yaml:"name"`
	MaxTokens int           `yaml:"max_tokens"`
	Anthropic BackendConfig `yaml:"anthropic"`
	OpenAI    BackendConfig `yaml:"openai"`
	Ollama    BackendConfig `yaml:"ollama"`
	LMStudio  BackendConfig `yaml:"lmstudio"`
}

// MemoryConfig records where the conversation-memory store lives. It is passed through, not used here.
type MemoryConfig struct {
	DBPath string `yaml:"db_path"`
}

// Config is the root configuration structure for muxmcp.
type Config struct {
	Mux      MuxConfig      `yaml:"mux"`
	MCP      MCPConfig      `yaml:"mcp"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
	Provider ProviderConfig `yaml:"provider"`
	Memory   MemoryConfig   `yaml:"memory"`
}

// Supported provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderLMStudio  = "lmstudio"
)

// Defaults.
const (
	DefaultCommand        = "npx"
	DefaultArgs           = "-y,@mux/mcp@latest,--tools=dynamic,--client=claude"
	DefaultConnectTimeout = 30 * time.Second
	DefaultCallTimeout    = 2 * time.Minute
	DefaultToolset        = "mux"
	DefaultClientName     = "muxmcp"
)

// DefaultConfig returns a configuration populated with default values,
// with environment overrides applied on top.
func DefaultConfig() *Config {
	credentialsPath := "muxmcp_credentials.json"
	if homeDir, err := os.UserHomeDir(); err == nil {
		credentialsPath = filepath.Join(homeDir, ".config", "muxmcp", "credentials.json")
	}

	cfg := &Config{
		MCP: MCPConfig{
			Command:        DefaultCommand,
			Args:           DefaultArgs,
			ConnectTimeout: DefaultConnectTimeout,
			CallTimeout:    DefaultCallTimeout,
			ClientName:     DefaultClientName,
		},
		Catalog: CatalogConfig{
			Toolset: DefaultToolset,
		},
		Auth: AuthConfig{
			UseKeyring:      true,
			CredentialsPath: credentialsPath,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Provider: ProviderConfig{
			Name:      ProviderAnthropic,
			MaxTokens: 1024,
			Anthropic: BackendConfig{BaseURL: "https://api.anthropic.com", Model: "claude-3-5-haiku-latest"},
			OpenAI:    BackendConfig{BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini"},
			Ollama:    BackendConfig{BaseURL: "http://localhost:11434/v1", Model: "llama3.1"},
			LMStudio:  BackendConfig{BaseURL: "http://localhost:1234/v1", Model: "local-model"},
		},
	}
	applyEnvironmentOverrides(cfg, logging.GetLogger("config_default"))
	return cfg
}

// Load returns DefaultConfig when path is empty and LoadFromFile otherwise.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFromFile(path)
}

// LoadFromFile loads configuration from the specified YAML file path.
// It starts with default values, merges the values from the YAML file,
// and finally applies any environment variable overrides.
// Supports '~' expansion in the file path.
func LoadFromFile(path string) (*Config, error) {
	expanded, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- Path comes from command-line flag, considered trusted input.
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file: %s", expanded)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file YAML: %s", expanded)
	}

	applyEnvironmentOverrides(config, logging.GetLogger("config_load"))
	if config.Auth.CredentialsPath, err = expandHome(config.Auth.CredentialsPath); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports configuration values that would make the client unusable.
// Missing Mux secrets are not an error here; they are reported when a connection is attempted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.MCP.Command) == "" {
		return errors.New("mcp.command must not be empty")
	}
	if c.MCP.ConnectTimeout <= 0 {
		return errors.Newf("mcp.connect_timeout must be positive, got %s", c.MCP.ConnectTimeout)
	}
	if c.MCP.CallTimeout <= 0 {
		return errors.Newf("mcp.call_timeout must be positive, got %s", c.MCP.CallTimeout)
	}
	if strings.TrimSpace(c.Catalog.Toolset) == "" {
		return errors.New("catalog.toolset must not be empty")
	}
	switch c.Provider.Name {
	case ProviderAnthropic, ProviderOpenAI, ProviderOllama, ProviderLMStudio:
	default:
		return errors.WithHint(
			errors.Newf("unknown provider %q", c.Provider.Name),
			"supported providers: anthropic, openai, ollama, lmstudio")
	}
	return nil
}

// Backend returns the settings of the selected provider.
func (c *Config) Backend() BackendConfig {
	switch c.Provider.Name {
	case ProviderOpenAI:
		return c.Provider.OpenAI
	case ProviderOllama:
		return c.Provider.Ollama
	case ProviderLMStudio:
		return c.Provider.LMStudio
	default:
		return c.Provider.Anthropic
	}
}

func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory to expand path")
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// applyEnvironmentOverrides applies configuration overrides from environment variables.
// Environment variables take precedence over values set in configuration files or defaults.
// Logs debug messages indicating the source of the Mux secrets.
func applyEnvironmentOverrides(config *Config, logger logging.Logger) {
	applySecret(&config.Mux.TokenID, "MUX_TOKEN_ID", logger)
	applySecret(&config.Mux.TokenSecret, "MUX_TOKEN_SECRET", logger)

	overrideString(&config.MCP.Command, "MUX_MCP_COMMAND", logger)
	overrideString(&config.MCP.Args, "MUX_MCP_ARGS", logger)
	overrideDuration(&config.MCP.ConnectTimeout, "MUXMCP_CONNECT_TIMEOUT", logger)
	overrideDuration(&config.MCP.CallTimeout, "MUXMCP_CALL_TIMEOUT", logger)
	overrideString(&config.Catalog.Toolset, "MUXMCP_TOOLSET", logger)
	overrideBool(&config.Catalog.CachePerEpoch, "MUXMCP_CACHE_PER_EPOCH", logger)
	overrideBool(&config.Auth.UseKeyring, "MUXMCP_USE_KEYRING", logger)
	overrideString(&config.Auth.CredentialsPath, "MUXMCP_CREDENTIALS_PATH", logger)
	overrideString(&config.Logging.Level, "MUXMCP_LOG_LEVEL", logger)
	overrideString(&config.Logging.Format, "MUXMCP_LOG_FORMAT", logger)
	overrideString(&config.Memory.DBPath, "MUXMCP_MEMORY_DB", logger)

	overrideString(&config.Provider.Name, "LLM_PROVIDER", logger)
	config.Provider.Name = strings.ToLower(strings.TrimSpace(config.Provider.Name))
	overrideInt(&config.Provider.MaxTokens, "LLM_MAX_TOKENS", logger)
	applyBackend(&config.Provider.Anthropic, "ANTHROPIC", logger)
	applyBackend(&config.Provider.OpenAI, "OPENAI", logger)
	applyBackend(&config.Provider.Ollama, "OLLAMA", logger)
	applyBackend(&config.Provider.LMStudio, "LMSTUDIO", logger)
}

func applySecret(target *string, envVar string, logger logging.Logger) {
	source := "default"
	if *target != "" {
		source = "config file"
	}
	if v := os.Getenv(envVar); v != "" {
		*target = v
		source = "environment variable"
	}
	logger.Debug("Secret source determined.", "name", envVar, "source", source)
	if *target == "" {
		logger.Warn("Required secret is missing (checked environment and config file); keyring will be consulted at connect time.", "name", envVar)
	}
}

func applyBackend(b *BackendConfig, prefix string, logger logging.Logger) {
	if v := os.Getenv(prefix + "_API_KEY"); v != "" {
		logger.Debug("Overriding backend API key from environment.", "envVar", prefix+"_API_KEY")
		b.APIKey = v
	}
	overrideString(&b.BaseURL, prefix+"_BASE_URL", logger)
	overrideString(&b.Model, prefix+"_MODEL", logger)
}

func overrideString(target *string, envVar string, logger logging.Logger) {
	if v := os.Getenv(envVar); v != "" {
		logger.Debug("Overriding value from environment.", "envVar", envVar, "value", v)
		*target = v
	}
}

func overrideDuration(target *time.Duration, envVar string, logger logging.Logger) {
	v := os.Getenv(envVar)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logger.Warn("Invalid duration in environment variable ignored.", "envVar", envVar, "value", v, "error", err)
		return
	}
	logger.Debug("Overriding duration from environment.", "envVar", envVar, "value", d)
	*target = d
}

func overrideBool(target *bool, envVar string, logger logging.Logger) {
	v := os.Getenv(envVar)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("Invalid boolean in environment variable ignored.", "envVar", envVar, "value", v, "error", err)
		return
	}
	*target = b
}

func overrideInt(target *int, envVar string, logger logging.Logger) {
	v := os.Getenv(envVar)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logger.Warn("Invalid integer in environment variable ignored.", "envVar", envVar, "value", v, "error", err)
		return
	}
	*target = n
}
