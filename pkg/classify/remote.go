package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"

	"clasificador/pkg/inference"
	"clasificador/pkg/schema"
	"clasificador/pkg/utils"
)

const DefaultTimeout = 20 * time.Second

// Remote classifies through a hosted language model.
type Remote struct {
	name       string
	confidence float64
	inferencer inference.Inferencer
	timeout    time.Duration
}

// NewRemote wraps inf as a cascade tier. A nil inferencer yields a strategy
// that always reports ErrNotConfigured.
func NewRemote(name string, confidence float64, inf inference.Inferencer, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Remote{
		name:       name,
		confidence: confidence,
		inferencer: inf,
		timeout:    timeout,
	}
}

func NewGemini(inf inference.Inferencer, timeout time.Duration) *Remote {
	return NewRemote(StrategyGemini, ConfidenceGemini, inf, timeout)
}

func NewOpenAI(inf inference.Inferencer, timeout time.Duration) *Remote {
	return NewRemote(StrategyOpenAI, ConfidenceOpenAI, inf, timeout)
}

func (r *Remote) Name() string        { return r.name }
func (r *Remote) Confidence() float64 { return r.confidence }

func (r *Remote) TryClassify(ctx context.Context, text string) (map[string]any, error) {
	if r.inferencer == nil {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	system, user := SystemPrompt(), UserPrompt(text)
	if log.GetLevel() <= log.DebugLevel {
		if tokens, err := utils.NumTokensFromMessages(system + user); err == nil {
			log.Debug("remote classification", "strategy", r.name, "tokens", tokens)
		}
	}

	params := &openai.ChatCompletionNewParams{
		MaxCompletionTokens: openai.Int(1024),
		Temperature:         openai.Float(0.1),
		ResponseFormat:      schema.StructuredOutputsResponseFormat(),
	}
	out, err := r.inferencer.Infer(ctx, params, system, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.name, err)
	}
	if ok, err := r.inferencer.Verify(ctx, out); !ok {
		return nil, fmt.Errorf("%s: invalid response: %w", r.name, err)
	}

	obj, ok := utils.ExtractJSONObject(out)
	if !ok {
		return nil, fmt.Errorf("%s: %w", r.name, inference.ErrNoJSON)
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		log.Debug("unparseable model output", "strategy", r.name, "output", utils.LimitStr(out, 200))
		return nil, fmt.Errorf("%s: malformed response: %w", r.name, err)
	}
	if log.GetLevel() <= log.DebugLevel {
		log.Debug("model output", "strategy", r.name, "result", utils.PrettyJSON(raw))
	}
	return raw, nil
}
