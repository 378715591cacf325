// Package session 管理当前活跃会话及其提示词上下文
package session

import (
	"context"
	"fmt"

	"ai-chatbot/internal/model"
)

// turnTemplate 每轮成功对话追加到上下文的格式
const turnTemplate = "\nUser: %s\nAI: %s"

// HistoryLoader 按会话读取历史消息
type HistoryLoader interface {
	ListBySessionID(ctx context.Context, sessionID int64) ([]model.ChatMessage, error)
}

// Manager 会话管理器
// 持有当前会话ID和发送给大模型的上下文字符串
// 只有一个交互用户驱动，不需要加锁
type Manager struct {
	store   HistoryLoader
	current int64
	context string
}

// NewManager 创建会话管理器
// 参数:
//   - store: 历史消息读取接口
//   - initialID: 初始会话ID，上下文为空
func NewManager(store HistoryLoader, initialID int64) *Manager {
	return &Manager{
		store:   store,
		current: initialID,
	}
}

// SwitchSession 切换到指定会话
// 先加载历史，成功后才修改当前会话并清空上下文
// 上下文不会根据历史重建，历史只用于展示
// 参数:
//   - ctx: 上下文
//   - sessionID: 目标会话ID
//
// 返回:
//   - []model.ChatMessage: 该会话的历史消息
//   - error: 持久化错误，此时管理器状态保持不变
func (m *Manager) SwitchSession(ctx context.Context, sessionID int64) ([]model.ChatMessage, error) {
	history, err := m.store.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	m.current = sessionID
	m.context = ""
	return history, nil
}

// AppendTurn 把一轮对话追加到上下文，不做持久化
func (m *Manager) AppendTurn(userText, botText string) {
	m.context += fmt.Sprintf(turnTemplate, userText, botText)
}

// CurrentContext 返回当前累积的上下文
func (m *Manager) CurrentContext() string {
	return m.context
}

// CurrentSessionID 返回当前会话ID
func (m *Manager) CurrentSessionID() int64 {
	return m.current
}
