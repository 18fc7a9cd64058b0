package store

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"llm-hedge-fund/internal/types"
)

const DateLayout = "2006-01-02"

type AdvisorConfig struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`     // TECHNICAL, LLM, NOOP
	Strategy string `yaml:"strategy"` // technical: trend, mean_reversion, bollinger
	Provider string `yaml:"provider"` // llm: OPENAI, CLAUDE
	Persona  string `yaml:"persona"`
}

type Config struct {
	Mode           string   `yaml:"mode"`
	DataSource     string   `yaml:"data_source"`
	DataDir        string   `yaml:"data_dir"`
	UniverseStatic []string `yaml:"universe_static"`
	Backtest       struct {
		StartDate    string  `yaml:"start_date"`
		EndDate      string  `yaml:"end_date"`
		InitialCash  float64 `yaml:"initial_cash"`
		RiskFreeRate float64 `yaml:"risk_free_rate"`
		Concurrency  int     `yaml:"concurrency"`
		WarmupDays   int     `yaml:"warmup_days"` // trading days loaded before start_date
	} `yaml:"backtest"`
	Risk struct {
		MaxPositionPct   float64 `yaml:"max_position_pct"`
		MinPositionPct   float64 `yaml:"min_position_pct"`
		LookbackDays     int     `yaml:"lookback_days"`
		VolatilityTarget float64 `yaml:"volatility_target"`
	} `yaml:"risk"`
	Margin struct {
		DefaultRatio float64            `yaml:"default_ratio"`
		PerSymbol    map[string]float64 `yaml:"per_symbol"`
	} `yaml:"margin"`
	Decision struct {
		ActionThreshold float64 `yaml:"action_threshold"`
		FullConfidence  float64 `yaml:"full_confidence"`
	} `yaml:"decision"`
	Indicators struct {
		SMAWindows []int   `yaml:"sma_windows"`
		RSIPeriod  int     `yaml:"rsi_period"`
		BBWindow   int     `yaml:"bb_window"`
		BBStdDev   float64 `yaml:"bb_stddev"`
		ATRPeriod  int     `yaml:"atr_period"`
	} `yaml:"indicators"`
	LLM struct {
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
		System      string  `yaml:"system"`
		Schema      string  `yaml:"schema"`
		TimeoutSec  int     `yaml:"timeout_sec"`
		MaxAttempts int     `yaml:"max_attempts"`
	} `yaml:"llm"`
	Advisors []AdvisorConfig `yaml:"advisors"`
	Kite     struct {
		APIKeyEnv      string         `yaml:"api_key_env"`
		AccessTokenEnv string         `yaml:"access_token_env"`
		Instruments    map[string]int `yaml:"instruments"`
	} `yaml:"kite"`
	Synthetic struct {
		Seed       int64   `yaml:"seed"`
		BasePrice  float64 `yaml:"base_price"`
		Drift      float64 `yaml:"drift"`
		Volatility float64 `yaml:"volatility"`
	} `yaml:"synthetic"`
	Report struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"report"`
}

// Start parses backtest.start_date.
func (c *Config) Start() (time.Time, error) {
	return time.Parse(DateLayout, c.Backtest.StartDate)
}

// End parses backtest.end_date.
func (c *Config) End() (time.Time, error) {
	return time.Parse(DateLayout, c.Backtest.EndDate)
}

// HistoryDays is the number of prior candles the risk lookback and the
// slowest indicator need on every simulated day.
func (c *Config) HistoryDays() int {
	need := []int{c.Risk.LookbackDays + 1, c.Indicators.RSIPeriod + 1, c.Indicators.BBWindow, c.Indicators.ATRPeriod + 1}
	need = append(need, c.Indicators.SMAWindows...)
	return slices.Max(need)
}

// LoadFrom is the first calendar day market data must cover so that the first
// simulated day already has its full history. Trading days are converted to
// calendar days with a 2x allowance for weekends and holidays.
func (c *Config) LoadFrom() (time.Time, error) {
	start, err := c.Start()
	if err != nil {
		return time.Time{}, err
	}
	days := max(c.Backtest.WarmupDays, c.HistoryDays())
	return start.AddDate(0, 0, -2*days), nil
}

// MarginRatio returns the per-symbol margin ratio, falling back to the default.
func (c *Config) MarginRatio(symbol string) float64 {
	if v, ok := c.Margin.PerSymbol[symbol]; ok {
		return v
	}
	return c.Margin.DefaultRatio
}

func configErr(field, format string, args ...any) error {
	return &types.ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks every value the simulation depends on and returns a
// *types.ConfigurationError describing the first problem.
func (c *Config) Validate() error {
	if c.DataSource != "CSV" && c.DataSource != "KITE" && c.DataSource != "SYNTHETIC" {
		return configErr("data_source", "must be 'CSV', 'KITE' or 'SYNTHETIC', got '%s'", c.DataSource)
	}
	if len(c.UniverseStatic) == 0 {
		return configErr("universe_static", "cannot be empty")
	}
	seen := map[string]bool{}
	for _, s := range c.UniverseStatic {
		if strings.TrimSpace(s) == "" {
			return configErr("universe_static", "contains an empty symbol")
		}
		if seen[s] {
			return configErr("universe_static", "duplicate symbol '%s'", s)
		}
		seen[s] = true
	}

	start, err := c.Start()
	if err != nil {
		return configErr("backtest.start_date", "expected YYYY-MM-DD, got '%s'", c.Backtest.StartDate)
	}
	end, err := c.End()
	if err != nil {
		return configErr("backtest.end_date", "expected YYYY-MM-DD, got '%s'", c.Backtest.EndDate)
	}
	if end.Before(start) {
		return configErr("backtest", "end_date %s is before start_date %s", c.Backtest.EndDate, c.Backtest.StartDate)
	}
	if c.Backtest.InitialCash <= 0 {
		return configErr("backtest.initial_cash", "must be positive, got %.2f", c.Backtest.InitialCash)
	}

	if c.Margin.DefaultRatio < 0 || c.Margin.DefaultRatio > 1 {
		return configErr("margin.default_ratio", "must be within [0,1], got %.2f", c.Margin.DefaultRatio)
	}
	for sym, r := range c.Margin.PerSymbol {
		if r < 0 || r > 1 {
			return configErr("margin.per_symbol."+sym, "must be within [0,1], got %.2f", r)
		}
	}

	if c.Risk.MaxPositionPct <= 0 || c.Risk.MaxPositionPct > 1 {
		return configErr("risk.max_position_pct", "must be within (0,1], got %.2f", c.Risk.MaxPositionPct)
	}
	if c.Risk.MinPositionPct < 0 || c.Risk.MinPositionPct > c.Risk.MaxPositionPct {
		return configErr("risk.min_position_pct", "must be within [0,max_position_pct], got %.2f", c.Risk.MinPositionPct)
	}
	if c.Risk.LookbackDays < 0 {
		return configErr("risk.lookback_days", "cannot be negative")
	}
	if c.Decision.ActionThreshold < 0 || c.Decision.ActionThreshold > 100 {
		return configErr("decision.action_threshold", "must be within [0,100], got %.2f", c.Decision.ActionThreshold)
	}
	if c.Decision.FullConfidence <= 0 || c.Decision.FullConfidence > 100 {
		return configErr("decision.full_confidence", "must be within (0,100], got %.2f", c.Decision.FullConfidence)
	}

	if c.Backtest.WarmupDays < 0 {
		return configErr("backtest.warmup_days", "cannot be negative")
	}
	if len(c.Indicators.SMAWindows) == 0 {
		return configErr("indicators.sma_windows", "cannot be empty")
	}
	for _, w := range c.Indicators.SMAWindows {
		if w <= 0 {
			return configErr("indicators.sma_windows", "windows must be positive, got %d", w)
		}
	}
	if c.Indicators.RSIPeriod <= 0 || c.Indicators.BBWindow <= 0 || c.Indicators.ATRPeriod <= 0 {
		return configErr("indicators", "rsi_period, bb_window and atr_period must be positive")
	}
	if c.Indicators.BBStdDev <= 0 {
		return configErr("indicators.bb_stddev", "must be positive, got %.2f", c.Indicators.BBStdDev)
	}

	for i, a := range c.Advisors {
		field := fmt.Sprintf("advisors[%d]", i)
		if a.Name == "" {
			return configErr(field+".name", "cannot be empty")
		}
		switch a.Kind {
		case "TECHNICAL":
			if a.Strategy != "trend" && a.Strategy != "mean_reversion" && a.Strategy != "bollinger" {
				return configErr(field+".strategy", "must be 'trend', 'mean_reversion' or 'bollinger', got '%s'", a.Strategy)
			}
		case "LLM":
			if a.Provider != "OPENAI" && a.Provider != "CLAUDE" {
				return configErr(field+".provider", "must be 'OPENAI' or 'CLAUDE', got '%s'", a.Provider)
			}
		case "NOOP":
		default:
			return configErr(field+".kind", "must be 'TECHNICAL', 'LLM' or 'NOOP', got '%s'", a.Kind)
		}
	}

	if c.DataSource == "KITE" {
		for _, s := range c.UniverseStatic {
			if _, ok := c.Kite.Instruments[s]; !ok {
				return configErr("kite.instruments", "missing instrument token for '%s'", s)
			}
		}
	}
	return nil
}

// defaultConfig is decoded over, so a key absent from the YAML keeps its
// default while an explicit zero is honoured.
func defaultConfig() Config {
	var c Config
	c.Mode = "BACKTEST"
	c.DataSource = "SYNTHETIC"
	c.DataDir = "data"
	c.Backtest.Concurrency = 4
	c.Backtest.WarmupDays = 60
	c.Risk.MaxPositionPct = 0.20
	c.Risk.MinPositionPct = 0.05
	c.Risk.LookbackDays = 20
	c.Decision.ActionThreshold = 50
	c.Decision.FullConfidence = 80
	c.Indicators.SMAWindows = []int{20, 50}
	c.Indicators.RSIPeriod = 14
	c.Indicators.BBWindow = 20
	c.Indicators.BBStdDev = 2
	c.Indicators.ATRPeriod = 14
	c.LLM.MaxTokens = 400
	c.LLM.TimeoutSec = 60
	c.LLM.MaxAttempts = 3
	c.Advisors = []AdvisorConfig{
		{Name: "trend", Kind: "TECHNICAL", Strategy: "trend"},
		{Name: "mean_reversion", Kind: "TECHNICAL", Strategy: "mean_reversion"},
	}
	c.Kite.APIKeyEnv = "KITE_API_KEY"
	c.Kite.AccessTokenEnv = "KITE_ACCESS_TOKEN"
	c.Synthetic.BasePrice = 100
	c.Synthetic.Volatility = 0.02
	c.Report.Dir = "reports"
	return c
}

// Parse decodes YAML config bytes, applies defaults and validates.
func Parse(b []byte) (*Config, error) {
	c := defaultConfig()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, &types.ConfigurationError{Field: "yaml", Reason: err.Error()}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}
