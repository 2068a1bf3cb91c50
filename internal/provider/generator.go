// Package provider talks to the text-generation backends used by `muxmcp ask`.
// file: internal/provider/generator.go
package provider

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/muxmcp/internal/config"
	"github.com/dkoosis/muxmcp/internal/logging"
	"github.com/dkoosis/muxmcp/pkg/util/stringutil"
)

// ErrMissingAPIKey is returned when a hosted backend has no API key configured.
var ErrMissingAPIKey = errors.New("missing API key")

// ErrBackend marks a non-success response from a backend.
var ErrBackend = errors.New("backend request failed")

const defaultHTTPTimeout = 120 * time.Second

// Request is one generation call.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Usage reports token consumption.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Response is the generated text plus usage.
type Response struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	// Provider names the backend.
	Provider() string
}

// Settings configures a Generator.
type Settings struct {
	Name      string
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
	Logger     logging.Logger
}

// SettingsFromConfig picks the selected backend out of cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	backend := cfg.Backend()
	return Settings{
		Name:      cfg.Provider.Name,
		APIKey:    backend.APIKey,
		BaseURL:   backend.BaseURL,
		Model:     backend.Model,
		MaxTokens: cfg.Provider.MaxTokens,
	}
}

// New returns the Generator for s.Name.
// Ollama and LM Studio speak the OpenAI chat-completions dialect and need no key.
func New(s Settings) (Generator, error) {
	s.Name = strings.ToLower(strings.TrimSpace(s.Name))
	if s.HTTPClient == nil {
		s.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if s.Logger == nil {
		s.Logger = logging.GetLogger("provider")
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = 1024
	}

	switch s.Name {
	case config.ProviderAnthropic:
		if s.APIKey == "" {
			return nil, keyError(s.Name, "ANTHROPIC_API_KEY")
		}
		return newAnthropic(s), nil
	case config.ProviderOpenAI:
		if s.APIKey == "" {
			return nil, keyError(s.Name, "OPENAI_API_KEY")
		}
		return newOpenAI(s), nil
	case config.ProviderOllama, config.ProviderLMStudio:
		return newOpenAI(s), nil
	default:
		return nil, errors.WithHint(
			errors.Newf("unknown provider %q", s.Name),
			"supported providers: anthropic, openai, ollama, lmstudio")
	}
}

func keyError(provider, envVar string) error {
	err := errors.Wrapf(ErrMissingAPIKey, "provider %s", provider)
	return errors.WithHintf(err, "set %s or configure provider.%s.api_key", envVar, provider)
}

// backendError reports a non-2xx reply, keeping a preview of the body.
func backendError(provider string, status int, body []byte) error {
	preview := stringutil.TruncateString(strings.TrimSpace(string(body)), 300)
	err := errors.Newf("%s: HTTP %d", provider, status)
	err = errors.WithDetailf(err, "response: %s", preview)
	return errors.Mark(err, ErrBackend)
}
