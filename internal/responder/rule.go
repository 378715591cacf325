package responder

import (
	"context"
	"strings"
)

// FallbackReply 没有规则命中时的回复
const FallbackReply = "I'm sorry, I don't understand that."

type rule struct {
	keyword string
	reply   string
}

// rules 按顺序匹配，第一个命中的生效
var rules = []rule{
	{keyword: "hello", reply: "Hello! How can I assist you today?"},
	{keyword: "how are you", reply: "I'm just a bot, but I'm functioning as expected!"},
	{keyword: "exit", reply: "Goodbye! Ending the chat session."},
}

// Rule 基于关键字的回复策略
// 忽略大小写做子串匹配，纯函数，不会失败，也不会写入上下文
type Rule struct{}

// NewRule 创建规则回复策略
func NewRule() *Rule {
	return &Rule{}
}

// Respond 返回第一条命中规则的回复
func (r *Rule) Respond(_ context.Context, question, _ string) (Reply, error) {
	return Reply{Text: Match(question)}, nil
}

// Match 在规则表中查找回复
func Match(input string) string {
	lowered := strings.ToLower(input)
	for _, r := range rules {
		if strings.Contains(lowered, r.keyword) {
			return r.reply
		}
	}
	return FallbackReply
}
