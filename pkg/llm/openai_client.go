package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkoukk/tiktoken-go"

	"github.com/aj-geddes/tinaa-playwright-msp/pkg/logging"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o"

	// DefaultMaxPromptTokens bounds how much of a prompt is sent.
	DefaultMaxPromptTokens = 8000

	// fallbackEncoding covers the gpt-4 family when the model has no
	// registered encoding.
	fallbackEncoding = "cl100k_base"
)

// OpenAI is the Client implementation backed by an OpenAI-compatible
// chat completions API.
type OpenAI struct {
	client          openai.Client
	model           string
	maxPromptTokens int
	encoder         *tiktoken.Tiktoken
	log             *logging.Logger
}

// OpenAIOption configures an OpenAI client.
type OpenAIOption func(*OpenAI)

// WithModel overrides the completion model.
func WithModel(model string) OpenAIOption {
	return func(c *OpenAI) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxPromptTokens overrides the prompt token budget.
func WithMaxPromptTokens(n int) OpenAIOption {
	return func(c *OpenAI) {
		if n > 0 {
			c.maxPromptTokens = n
		}
	}
}

// NewOpenAI builds a client for the given API key. baseURL is optional
// and enables OpenAI-compatible endpoints.
func NewOpenAI(apiKey, baseURL string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(baseURL))
	}

	c := &OpenAI{
		client:          openai.NewClient(requestOpts...),
		model:           DefaultModel,
		maxPromptTokens: DefaultMaxPromptTokens,
		log:             logging.New("llm"),
	}
	for _, opt := range opts {
		opt(c)
	}

	encoder, err := tiktoken.EncodingForModel(c.model)
	if err != nil {
		encoder, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, fmt.Errorf("failed to load token encoding: %w", err)
		}
	}
	c.encoder = encoder

	return c, nil
}

// ChatCompletion sends prompt, truncated to the token budget, and
// returns the first completion choice.
func (c *OpenAI) ChatCompletion(ctx context.Context, prompt string) (string, error) {
	prompt = c.truncate(prompt)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// truncate cuts prompt down to the configured token budget, keeping
// the head of the prompt.
func (c *OpenAI) truncate(prompt string) string {
	tokens := c.encoder.Encode(prompt, nil, nil)
	if len(tokens) <= c.maxPromptTokens {
		return prompt
	}
	c.log.Warnw("truncating prompt", "tokens", len(tokens), "budget", c.maxPromptTokens)
	return c.encoder.Decode(tokens[:c.maxPromptTokens])
}
