package advisors

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"llm-hedge-fund/internal/api"
)

const (
	claudeEndpoint   = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

// Claude completes prompts through the Anthropic Messages API.
type Claude struct {
	client   *api.Client
	endpoint string
	settings ModelSettings
}

func NewClaude(apiKey, endpoint string, s ModelSettings) *Claude {
	if endpoint == "" {
		endpoint = claudeEndpoint
	}
	if s.Timeout == 0 {
		s.Timeout = 60 * time.Second
	}
	client := api.NewClient(
		api.WithTimeout(s.Timeout),
		api.WithHeader("x-api-key", apiKey),
		api.WithHeader("anthropic-version", anthropicVersion),
		api.WithLogging(true),
	)
	return &Claude{client: client, endpoint: endpoint, settings: s}
}

func (c *Claude) Complete(ctx context.Context, system, user string) (string, error) {
	body := map[string]any{
		"model":       c.settings.Model,
		"system":      system,
		"messages":    []map[string]string{{"role": "user", "content": user}},
		"max_tokens":  c.settings.MaxTokens,
		"temperature": c.settings.Temperature,
	}
	req := api.NewRequest(http.MethodPost, c.endpoint).WithContext(ctx).WithBody(body)
	resp, err := c.client.DoWithRetry(req, c.settings.Retry)
	if err != nil {
		return "", err
	}

	var r struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := resp.ParseJSON(&r); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("no text content in response")
	}
	return strings.TrimSpace(sb.String()), nil
}
