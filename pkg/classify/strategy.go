package classify

import (
	"context"
	"errors"
)

// Strategy tags recorded on every Outcome.
const (
	StrategyGemini  = "GEMINI"
	StrategyOpenAI  = "OPENAI"
	StrategyRules   = "REGLAS"
	StrategyDefault = "DEFECTO"
)

// Confidence per strategy tier. These are heuristics, not probabilities.
const (
	ConfidenceGemini  = 0.9
	ConfidenceOpenAI  = 0.8
	ConfidenceRules   = 0.5
	ConfidenceDefault = 0.1
	ConfidenceEmpty   = 0.0
)

var ErrNotConfigured = errors.New("strategy not configured")

// Strategy is one tier of the cascade. TryClassify returns the raw
// category mapping; the cascade sanitizes it before accepting it.
type Strategy interface {
	Name() string
	Confidence() float64
	TryClassify(ctx context.Context, text string) (map[string]any, error)
}
