package aiparse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const DefaultModel = "gpt-4o"

// Completer sends one prompt to a text-generation service and returns the reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ChatCompletionsService is the part of the OpenAI client the completer uses.
type ChatCompletionsService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

var _ Completer = (*OpenAICompleter)(nil)

type OpenAICompleter struct {
	completions ChatCompletionsService
	model       openai.ChatModel
}

func NewOpenAICompleter(apiKey, model string) (*OpenAICompleter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("OpenAI API key is required: set OPENAI_API_KEY")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return newOpenAICompleter(client.Chat.Completions, model), nil
}

func newOpenAICompleter(completions ChatCompletionsService, model string) *OpenAICompleter {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return &OpenAICompleter{completions: completions, model: openai.ChatModel(model)}
}

func (o *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		}),
		Model: openai.F(o.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion failed: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAICompleter) ModelName() string {
	return string(o.model)
}
