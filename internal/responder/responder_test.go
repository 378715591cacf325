package responder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-chatbot/internal/apperr"
	"ai-chatbot/internal/config"
)

type stubCompleter struct {
	reply  string
	err    error
	prompt string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

func TestRuleMatch(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello there", "Hello! How can I assist you today?"},
		{"how ARE you?", "I'm just a bot, but I'm functioning as expected!"},
		{"please exit now", "Goodbye! Ending the chat session."},
		{"asdf", FallbackReply},
		{"", FallbackReply},
		// 多条命中时按表中顺序取第一条
		{"hello, how are you? exit", "Hello! How can I assist you today?"},
		{"how are you before I EXIT", "I'm just a bot, but I'm functioning as expected!"},
		{"SHELLO", "Hello! How can I assist you today?"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			reply, err := NewRule().Respond(context.Background(), tt.input, "ignored")
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply.Text)
			assert.False(t, reply.Remember)
		})
	}
}

func TestLLMRendersPrompt(t *testing.T) {
	stub := &stubCompleter{reply: "  4\n"}
	reply, err := NewLLM(stub).Respond(context.Background(), "What is 2+2?", "\nUser: hi\nAI: hello")
	require.NoError(t, err)

	assert.Equal(t, "4", reply.Text)
	assert.True(t, reply.Remember)
	assert.Equal(t, "what is 2+2?", reply.Question)
	assert.Equal(t,
		"Answer the question below.\nHere is the conversation history: \nUser: hi\nAI: hello\nQuestion: what is 2+2?\nAnswer:",
		stub.prompt)
}

func TestLLMFailures(t *testing.T) {
	backendErr := errors.New("connection refused")

	_, err := NewLLM(&stubCompleter{err: backendErr}).Respond(context.Background(), "hi", "")
	assert.ErrorIs(t, err, apperr.ErrInference)
	assert.ErrorIs(t, err, backendErr)

	_, err = NewLLM(&stubCompleter{reply: " \n\t"}).Respond(context.Background(), "hi", "")
	assert.ErrorIs(t, err, apperr.ErrInference)
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestNewSelectsStrategy(t *testing.T) {
	r, err := New(config.ResponderRule, nil)
	require.NoError(t, err)
	assert.IsType(t, &Rule{}, r)

	r, err = New(config.ResponderLLM, &stubCompleter{})
	require.NoError(t, err)
	assert.IsType(t, &LLM{}, r)

	_, err = New(config.ResponderLLM, nil)
	assert.ErrorIs(t, err, apperr.ErrInitialization)

	_, err = New("magic", nil)
	assert.ErrorIs(t, err, apperr.ErrInitialization)
}
