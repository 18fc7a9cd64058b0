package advisors

import (
	"context"
	"fmt"
	"os"
	"time"

	"llm-hedge-fund/internal/api"
	"llm-hedge-fund/internal/interfaces"
	"llm-hedge-fund/internal/logger"
	"llm-hedge-fund/internal/store"
	"llm-hedge-fund/internal/ta"
)

// IndicatorParams maps the indicator section of the config.
func IndicatorParams(cfg *store.Config) ta.IndicatorParams {
	return ta.IndicatorParams{
		SMAWindows: cfg.Indicators.SMAWindows,
		RSIPeriod:  cfg.Indicators.RSIPeriod,
		BBWindow:   cfg.Indicators.BBWindow,
		BBStdDev:   cfg.Indicators.BBStdDev,
		ATRPeriod:  cfg.Indicators.ATRPeriod,
	}
}

// FromConfig builds the configured advisor set in config order. An LLM advisor
// whose API key is not set degrades to Noop.
func FromConfig(ctx context.Context, cfg *store.Config) ([]interfaces.Advisor, error) {
	params := IndicatorParams(cfg)
	settings := ModelSettings{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Retry: &api.RetryConfig{
			MaxAttempts: cfg.LLM.MaxAttempts,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
		},
	}

	out := make([]interfaces.Advisor, 0, len(cfg.Advisors))
	for _, ac := range cfg.Advisors {
		switch ac.Kind {
		case "TECHNICAL":
			t, err := NewTechnical(ac.Name, ac.Strategy, params)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		case "LLM":
			c, ok := completer(ctx, ac, settings)
			if !ok {
				out = append(out, NewNoop(ac.Name))
				continue
			}
			system := SystemPrompt(ac.Persona, cfg.LLM.System)
			out = append(out, NewLLM(ac.Name, system, cfg.LLM.Schema, params, c))
		case "NOOP":
			out = append(out, NewNoop(ac.Name))
		default:
			return nil, fmt.Errorf("advisor %s: unknown kind %q", ac.Name, ac.Kind)
		}
	}
	return out, nil
}

func completer(ctx context.Context, ac store.AdvisorConfig, s ModelSettings) (Completer, bool) {
	switch ac.Provider {
	case "OPENAI":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			logger.Warn(ctx, "OPENAI_API_KEY missing - using Noop advisor", "advisor", ac.Name)
			return nil, false
		}
		return NewOpenAI(key, os.Getenv("OPENAI_API_ENDPOINT"), s), true
	case "CLAUDE":
		key := os.Getenv("CLAUDE_API_KEY")
		if key == "" {
			logger.Warn(ctx, "CLAUDE_API_KEY missing - using Noop advisor", "advisor", ac.Name)
			return nil, false
		}
		return NewClaude(key, os.Getenv("CLAUDE_API_ENDPOINT"), s), true
	default:
		logger.Warn(ctx, "No LLM provider configured - using Noop advisor", "advisor", ac.Name)
		return nil, false
	}
}
