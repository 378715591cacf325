package responder

import (
	"context"
	"errors"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"ai-chatbot/internal/apperr"
)

// PromptTemplate 发送给大模型的提示词模板
const PromptTemplate = `Answer the question below.
Here is the conversation history: {{.context}}
Question: {{.question}}
Answer:`

// ErrEmptyReply 模型返回空内容
var ErrEmptyReply = errors.New("model returned an empty reply")

// LLM 基于大模型的回复策略
type LLM struct {
	completer Completer
	prompt    prompts.PromptTemplate
}

// NewLLM 创建大模型回复策略
func NewLLM(completer Completer) *LLM {
	return &LLM{
		completer: completer,
		prompt:    prompts.NewPromptTemplate(PromptTemplate, []string{"context", "question"}),
	}
}

// Respond 渲染提示词并调用补全后端
// 参数:
//   - ctx: 上下文
//   - question: 用户输入，会先转为小写
//   - history: 会话上下文
//
// 返回:
//   - Reply: 去掉首尾空白的回复，要求调用方记入上下文
//   - error: 推理错误，此时不能修改上下文
func (l *LLM) Respond(ctx context.Context, question, history string) (Reply, error) {
	normalized := strings.ToLower(question)

	text, err := l.prompt.Format(map[string]any{
		"context":  history,
		"question": normalized,
	})
	if err != nil {
		return Reply{}, apperr.Inference("responder.prompt", err)
	}

	answer, err := l.completer.Complete(ctx, text)
	if err != nil {
		return Reply{}, apperr.Inference("responder.complete", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return Reply{}, apperr.Inference("responder.complete", ErrEmptyReply)
	}

	return Reply{
		Text:     answer,
		Remember: true,
		Question: normalized,
	}, nil
}
