package inference

import (
	"cmp"
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"clasificador/pkg/utils"
)

type GeminiInferencer struct {
	client *genai.Client
	apiKey string
	model  string
}

// NewGeminiInferencer creates a new inferencer instance using the Gemini API.
func NewGeminiInferencer(ctx context.Context, apiKey string, model string) (*GeminiInferencer, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiInferencer{
		client: client,
		apiKey: apiKey,
		model:  model,
	}, nil
}

// ChangeBaseURL points the client at a Gemini-compatible host.
func (o *GeminiInferencer) ChangeBaseURL(ctx context.Context, baseURL string) error {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      o.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}
	o.client = client
	return nil
}

func (o *GeminiInferencer) Model() string {
	return o.model
}

// Infer sends the prompt to Gemini requesting a JSON response and returns the raw text.
func (o *GeminiInferencer) Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error) {
	if params == nil {
		params = new(openai.ChatCompletionNewParams)
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		MaxOutputTokens:   int32(cmp.Or(params.MaxCompletionTokens.Value, 1024)),
	}
	if params.Temperature.Valid() {
		config.Temperature = genai.Ptr(float32(params.Temperature.Value))
	}
	if js := params.ResponseFormat.OfJSONSchema; js != nil {
		config.ResponseJsonSchema = js.JSONSchema.Schema
	}

	result, err := o.client.Models.GenerateContent(
		ctx,
		cmp.Or(params.Model, o.model),
		genai.Text(user),
		config,
	)
	if err != nil {
		return "", fmt.Errorf("gemini inference error: %w", err)
	}

	return result.Text(), nil
}

// Verify checks that the result is non-empty and carries a JSON object.
func (o *GeminiInferencer) Verify(ctx context.Context, result string) (bool, error) {
	return verifyJSON(result)
}

func verifyJSON(result string) (bool, error) {
	if result == "" {
		return false, ErrEmptyResult
	}
	if _, ok := utils.ExtractJSONObject(result); !ok {
		return false, ErrNoJSON
	}
	return true, nil
}
