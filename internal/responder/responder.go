// Package responder 提供两种可替换的回复策略：规则匹配和大模型
package responder

import (
	"context"
	"fmt"

	"ai-chatbot/internal/apperr"
	"ai-chatbot/internal/config"
)

// Reply 一轮回复
type Reply struct {
	Text string // 展示并持久化的回复内容
	// Remember 为 true 时，调用方把 (Question, Text) 追加到会话上下文
	Remember bool
	Question string // 规范化后的问题
}

// Responder 根据用户输入和会话上下文计算回复
type Responder interface {
	Respond(ctx context.Context, question, history string) (Reply, error)
}

// Completer 文本补全后端
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// New 按配置选择回复策略，只在启动时调用一次
// 参数:
//   - kind: rule 或 llm
//   - completer: 大模型后端，kind 为 rule 时可以为 nil
func New(kind string, completer Completer) (Responder, error) {
	switch kind {
	case config.ResponderRule:
		return NewRule(), nil
	case config.ResponderLLM:
		if completer == nil {
			return nil, apperr.Initialization("responder.new", fmt.Errorf("responder %q requires an inference backend", kind))
		}
		return NewLLM(completer), nil
	default:
		return nil, apperr.Initialization("responder.new", fmt.Errorf("unknown responder kind %q", kind))
	}
}
