package aiparse

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	replies []string
	err     error
	prompts []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("no reply scripted")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{name: "json fence", reply: "```json\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "bare fence", reply: "  ```\n[1, 2]\n```  \n", want: "[1, 2]"},
		{name: "no fence", reply: `{"a": 1}`, want: `{"a": 1}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripFences(tc.reply))
		})
	}
}

func TestParserParse(t *testing.T) {
	completer := &stubCompleter{replies: []string{
		"```json\n{\"version\": 2, \"type\": \"lift\", \"date\": \"May 8, 2025, 11:13:00 AM\", \"data\": {\"duration\": 40}}\n```",
	}}
	parser := NewParser(LiftTemplate, completer)

	result := parser.Parse(context.Background(), "Thursday: rows 3x8")
	require.True(t, result.OK())
	assert.JSONEq(t, `{"version": 2, "type": "lift", "date": "May 8, 2025, 11:13:00 AM", "data": {"duration": 40}}`, string(result.Value))

	require.Len(t, completer.prompts, 1)
	assert.True(t, strings.HasPrefix(completer.prompts[0], "Thursday: rows 3x8\n"))
	assert.Contains(t, completer.prompts[0], `"type": "lift"`)
	assert.Contains(t, completer.prompts[0], "return nothing else")
}

func TestParserParseErrorIsAValue(t *testing.T) {
	parser := NewParser(LiftTemplate, &stubCompleter{replies: []string{"Sorry, I can't help with that."}})

	result := parser.Parse(context.Background(), "???")
	require.Error(t, result.Err)

	var parseErr *ParseError
	require.True(t, errors.As(result.Err, &parseErr))
	assert.Equal(t, "Sorry, I can't help with that.", parseErr.Reply)
	assert.NotEmpty(t, parseErr.Message)
	assert.Nil(t, result.Value)
}

func TestParserTransportErrorIsNotParseError(t *testing.T) {
	parser := NewParser(LiftTemplate, &stubCompleter{err: errors.New("connection refused")})

	result := parser.Parse(context.Background(), "bench 5x5")
	require.Error(t, result.Err)
	assert.False(t, IsParseError(result.Err))
}

type mockChatService struct {
	response *openai.ChatCompletion
	err      error
	params   []openai.ChatCompletionNewParams
}

func (m *mockChatService) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	m.params = append(m.params, params)
	return m.response, m.err
}

func TestOpenAICompleter(t *testing.T) {
	service := &mockChatService{response: &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "```json\n{}\n```"}},
		},
	}}
	completer := newOpenAICompleter(service, "")

	reply, err := completer.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "```json\n{}\n```", reply)
	assert.Equal(t, DefaultModel, completer.ModelName())
	require.Len(t, service.params, 1)
	assert.Equal(t, openai.ChatModel(DefaultModel), service.params[0].Model.Value)
	assert.Len(t, service.params[0].Messages.Value, 1)
}

func TestOpenAICompleterErrors(t *testing.T) {
	completer := newOpenAICompleter(&mockChatService{err: errors.New("401 unauthorized")}, "gpt-4o-mini")
	_, err := completer.Complete(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401 unauthorized")

	completer = newOpenAICompleter(&mockChatService{response: &openai.ChatCompletion{}}, "gpt-4o-mini")
	_, err = completer.Complete(context.Background(), "hello")
	require.Error(t, err)

	_, err = NewOpenAICompleter(" ", "")
	require.Error(t, err)
}
