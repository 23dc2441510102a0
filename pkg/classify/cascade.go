package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"clasificador/pkg/flight"
	"clasificador/pkg/inference"
	"clasificador/pkg/metrics"
	"clasificador/pkg/schema"
	"clasificador/pkg/utils"
)

// Outcome is the classification of one narrative together with the tier
// that produced it.
type Outcome struct {
	Result     schema.Result `json:"result"`
	Strategy   string        `json:"strategy"`
	ElapsedMS  int64         `json:"elapsed_ms"`
	Confidence float64       `json:"confidence"`
	Row        int           `json:"row"`
}

type verdict struct {
	result     schema.Result
	strategy   string
	confidence float64
}

type rowKey struct{}

// Cascade tries its strategies in order until one yields a result that
// survives sanitization, falling back to DefaultResult. It holds no mutable
// state besides the optional memo and is safe for concurrent use.
type Cascade struct {
	strategies []Strategy
	metrics    *metrics.CascadeMetrics
	memo       *flight.Cache[string, verdict]
}

type Option func(*Cascade)

func WithMetrics(m *metrics.CascadeMetrics) Option {
	return func(c *Cascade) { c.metrics = m }
}

// WithMemo remembers verdicts for identical narratives for ttl, so repeated
// rows only reach the remote models once. A shared run is not cut short when
// the caller that started it goes away.
func WithMemo(ttl time.Duration) Option {
	return func(c *Cascade) {
		c.memo = flight.NewCache(func(ctx context.Context, text string) (verdict, error) {
			return c.run(ctx, text), nil
		})
		c.memo.Expiry(ttl)
	}
}

func New(strategies []Strategy, opts ...Option) *Cascade {
	c := &Cascade{strategies: strategies}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Standard returns the Gemini, OpenAI and keyword tiers in cascade order.
// Pass an untyped nil for a provider without credentials.
func Standard(gemini, openAI inference.Inferencer, timeout time.Duration) []Strategy {
	return []Strategy{
		NewGemini(gemini, timeout),
		NewOpenAI(openAI, timeout),
		NewRules(),
	}
}

// Strategies lists the configured tiers by name.
func (c *Cascade) Strategies() []string {
	out := make([]string, 0, len(c.strategies)+1)
	for _, s := range c.strategies {
		out = append(out, s.Name())
	}
	return append(out, StrategyDefault)
}

// MemoStats reports memo lookups served from memory, lookups that ran the
// cascade and the number of remembered narratives. All zero without a memo.
func (c *Cascade) MemoStats() (hits, misses int64, entries int) {
	if c.memo == nil {
		return 0, 0, 0
	}
	hits, misses = c.memo.Stats()
	return hits, misses, c.memo.Len()
}

// Classify never fails: every path ends in a well-formed Outcome. row is only
// used for diagnostics.
func (c *Cascade) Classify(ctx context.Context, narrative string, row int) Outcome {
	start := time.Now()
	ctx = context.WithValue(ctx, rowKey{}, row)

	if strings.TrimSpace(narrative) == "" {
		return c.finish(start, row, verdict{
			result:     DefaultResult(),
			strategy:   StrategyDefault,
			confidence: ConfidenceEmpty,
		})
	}

	var v verdict
	if c.memo != nil {
		v, _ = c.memo.Get(ctx, narrative)
	}
	if v.strategy == "" {
		v = c.run(ctx, narrative)
	}
	return c.finish(start, row, v)
}

func (c *Cascade) run(ctx context.Context, text string) verdict {
	row, _ := ctx.Value(rowKey{}).(int)

	for _, s := range c.strategies {
		raw, err := c.attempt(ctx, s, text)
		if err == nil && raw == nil {
			err = inference.ErrEmptyResult
		}
		if err != nil {
			c.metrics.ObserveAttempt(s.Name(), "error")
			if errors.Is(err, ErrNotConfigured) {
				log.Debug("strategy skipped", "strategy", s.Name(), "row", row)
			} else {
				log.Warn("strategy failed", "strategy", s.Name(), "row", row, "error", err)
			}
			continue
		}

		res, ok := Sanitize(raw)
		if !ok || !res.Valid() {
			c.metrics.ObserveAttempt(s.Name(), "invalid")
			log.Warn("strategy result rejected", "strategy", s.Name(), "row", row)
			continue
		}

		c.metrics.ObserveAttempt(s.Name(), "ok")
		return verdict{result: *res, strategy: s.Name(), confidence: s.Confidence()}
	}

	return verdict{
		result:     DefaultResult(),
		strategy:   StrategyDefault,
		confidence: ConfidenceDefault,
	}
}

func (c *Cascade) attempt(ctx context.Context, s Strategy, text string) (raw map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", s.Name(), r)
		}
	}()
	return s.TryClassify(ctx, text)
}

func (c *Cascade) finish(start time.Time, row int, v verdict) Outcome {
	elapsed := time.Since(start)
	c.metrics.ObserveOutcome(v.strategy, elapsed.Seconds())
	log.Debug("narrative classified",
		"row", row,
		"strategy", v.strategy,
		"calificacion", v.result.Calificacion,
		"elapsed", elapsed,
	)
	return Outcome{
		Result:     v.result,
		Strategy:   v.strategy,
		ElapsedMS:  elapsed.Milliseconds(),
		Confidence: v.confidence,
		Row:        row,
	}
}

// Describe renders an outcome for logs.
func (o Outcome) Describe() string {
	return fmt.Sprintf("row %d: %s via %s (%.1f) %s", o.Row, o.Result.Calificacion, o.Strategy, o.Confidence, utils.LimitStr(o.Result.Observaciones, 40))
}
