package advisors

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"llm-hedge-fund/internal/api"
)

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

// ModelSettings are the request knobs shared by the model completers.
type ModelSettings struct {
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Retry       *api.RetryConfig
}

// OpenAI completes prompts through the Chat Completions API.
type OpenAI struct {
	client   *api.Client
	endpoint string
	settings ModelSettings
}

func NewOpenAI(apiKey, endpoint string, s ModelSettings) *OpenAI {
	if endpoint == "" {
		endpoint = openAIEndpoint
	}
	if s.Timeout == 0 {
		s.Timeout = 60 * time.Second
	}
	client := api.NewClient(
		api.WithTimeout(s.Timeout),
		api.WithHeader("Authorization", "Bearer "+apiKey),
		api.WithLogging(true),
	)
	return &OpenAI{client: client, endpoint: endpoint, settings: s}
}

func (o *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	body := map[string]any{
		"model": o.settings.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": o.settings.Temperature,
		"max_tokens":  o.settings.MaxTokens,
	}
	req := api.NewRequest(http.MethodPost, o.endpoint).WithContext(ctx).WithBody(body)
	resp, err := o.client.DoWithRetry(req, o.settings.Retry)
	if err != nil {
		return "", err
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := resp.ParseJSON(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}
