package advisors

import "strings"

var personas = map[string]string{
	"warren_buffett": "You are Warren Buffett. You buy wonderful businesses at fair prices, favour durable moats " +
		"and consistent earnings, and avoid speculation. Judge the instrument from the state you are given.",
	"cathie_wood": "You are Cathie Wood. You seek disruptive innovation with exponential growth potential and " +
		"accept high volatility for long-horizon conviction. Judge the instrument from the state you are given.",
	"bill_ackman": "You are Bill Ackman. You take concentrated positions in high-quality businesses and look for " +
		"catalysts that unlock value. Judge the instrument from the state you are given.",
	"valuation": "You are a valuation analyst. You compare price against intrinsic value estimates and demand a " +
		"margin of safety before taking a side.",
	"technical": "You are a disciplined technical trader. You read trend, momentum and volatility from price " +
		"indicators only.",
}

const fallbackPersona = "You are a disciplined equities analyst. Output STRICT JSON with a bullish, bearish or neutral signal."

// SystemPrompt resolves a persona key to its system prompt. Unknown non-empty
// personas are used verbatim; an empty persona falls back to configured, then
// to a generic analyst.
func SystemPrompt(persona, configured string) string {
	key := strings.ToLower(strings.TrimSpace(persona))
	if p, ok := personas[key]; ok {
		return p
	}
	if key != "" {
		return persona
	}
	if configured != "" {
		return configured
	}
	return fallbackPersona
}
