// file: internal/provider/openai.go
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	openAIChatPath   = "/v1/chat/completions"
	defaultOpenAIURL = "https://api.openai.com"
)

// openAIGenerator also serves Ollama and LM Studio through their compatible endpoints.
type openAIGenerator struct {
	settings Settings
}

func newOpenAI(s Settings) *openAIGenerator {
	return &openAIGenerator{settings: s}
}

func (g *openAIGenerator) Provider() string { return g.settings.Name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// chatURL appends only /chat/completions when base already ends in /v1.
func chatURL(base string) string {
	if base == "" {
		base = defaultOpenAIURL
	}
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + openAIChatPath
}

func (g *openAIGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	name := g.settings.Name
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = g.settings.MaxTokens
	}

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{Model: g.settings.Model, Messages: messages, MaxTokens: maxTokens})
	if err != nil {
		return nil, errors.Wrapf(err, "%s: marshal request", name)
	}

	url := chatURL(g.settings.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "%s: create request", name)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.settings.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.settings.APIKey)
	}

	g.settings.Logger.Debug("Sending generation request.", "provider", name, "model", g.settings.Model, "url", url)
	resp, err := g.settings.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: send request", name)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: read response", name)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backendError(name, resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrapf(err, "%s: decode response", name)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.Newf("%s: empty choices in response", name)
	}

	return &Response{
		Text:  parsed.Choices[0].Message.Content,
		Model: parsed.Model,
		Usage: Usage{InputTokens: parsed.Usage.PromptTokens, OutputTokens: parsed.Usage.CompletionTokens},
	}, nil
}
