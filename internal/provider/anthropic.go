// file: internal/provider/anthropic.go
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
	anthropicMessagesPath = "/v1/messages"
	anthropicVersion      = "2023-06-01"
	defaultAnthropicURL   = "https://api.anthropic.com"
)

type anthropicGenerator struct {
	settings Settings
}

func newAnthropic(s Settings) *anthropicGenerator {
	return &anthropicGenerator{settings: s}
}

func (g *anthropicGenerator) Provider() string { return "anthropic" }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (g *anthropicGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = g.settings.MaxTokens
	}
	body, err := json.Marshal(anthropicRequest{
		Model:     g.settings.Model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  []anthropicMessage{{Role: "user", Content: req.Prompt}},
	})
	if err != nil {
		return nil, errors.Wrap(err, "anthropic: marshal request")
	}

	base := g.settings.BaseURL
	if base == "" {
		base = defaultAnthropicURL
	}
	url := strings.TrimRight(base, "/") + anthropicMessagesPath

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "anthropic: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("x-api-key", g.settings.APIKey)

	g.settings.Logger.Debug("Sending generation request.", "provider", "anthropic", "model", g.settings.Model, "url", url)
	resp, err := g.settings.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "anthropic: send request")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "anthropic: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backendError("anthropic", resp.StatusCode, raw)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, "anthropic: decode response")
	}

	var parts []string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return nil, errors.New("anthropic: no text content in response")
	}

	return &Response{
		Text:  strings.Join(parts, "\n"),
		Model: parsed.Model,
		Usage: Usage{InputTokens: parsed.Usage.InputTokens, OutputTokens: parsed.Usage.OutputTokens},
	}, nil
}
