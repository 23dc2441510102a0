package inference

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
)

var (
	ErrEmptyResult = errors.New("empty result")
	ErrNoJSON      = errors.New("no JSON object in result")
)

// Inferencer defines an interface for running model inference and verification.
type Inferencer interface {
	Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error)
	Verify(ctx context.Context, result string) (bool, error)
}
