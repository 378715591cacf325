// Package service 提供对话引擎：一轮对话的完整流程和会话操作
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ai-chatbot/internal/apperr"
	"ai-chatbot/internal/logger"
	"ai-chatbot/internal/model"
	"ai-chatbot/internal/responder"
	"ai-chatbot/internal/session"
)

// 展示用的发送者名称
const (
	DisplayUser   = "You"
	DisplayBot    = "Bot"
	DisplaySystem = "System"
)

// 展示样式标签
const (
	TagYou    = "you"
	TagBot    = "bot"
	TagSystem = "system"
)

// exitKeyword 输入中包含该词（忽略大小写）时结束会话
const exitKeyword = "exit"

// Presenter 展示层接口
type Presenter interface {
	Render(sender, text, tag string)
	NotifySessionSwitched(sessionID int64)
	NotifyFatalError(message string)
}

// MessageStore 消息存储接口
type MessageStore interface {
	Create(ctx context.Context, sender, message string, sessionID int64) (*model.ChatMessage, error)
	ListBySessionID(ctx context.Context, sessionID int64) ([]model.ChatMessage, error)
	DeleteBySessionID(ctx context.Context, sessionID int64) (int64, error)
	ListSessionIDs(ctx context.Context) ([]int64, error)
}

// ActiveSessionStore 记录最近活跃会话，跨进程保留
type ActiveSessionStore interface {
	SetActiveSession(ctx context.Context, sessionID int64) error
	GetActiveSession(ctx context.Context) (int64, error)
}

// ChatService 对话服务
// 串联存储、会话管理、回复策略和展示层
// 存储和推理的错误都在这里被转换为 System 消息，不会继续向上抛出
type ChatService struct {
	store     MessageStore
	sessions  *session.Manager
	responder responder.Responder
	presenter Presenter
	active    ActiveSessionStore // 可选
	log       *slog.Logger
	pending   *pendingTurn // 推理失败、用户消息已保存的一轮
}

// pendingTurn 等待重试的一轮对话
// 同一会话中再次提交相同内容时不再重复保存用户消息
type pendingTurn struct {
	sessionID int64
	text      string
}

// NewChatService 创建 ChatService 实例
func NewChatService(
	store MessageStore,
	resp responder.Responder,
	presenter Presenter,
	log *slog.Logger,
) *ChatService {
	if log == nil {
		log = logger.Discard().Logger
	}
	return &ChatService{
		store:     store,
		sessions:  session.NewManager(store, model.DefaultSessionID),
		responder: resp,
		presenter: presenter,
		log:       log,
	}
}

// SetActiveSessionStore 设置活跃会话存储
func (s *ChatService) SetActiveSessionStore(a ActiveSessionStore) {
	s.active = a
}

// Start 启动对话
// 先显示欢迎语（不持久化），再切换到启动会话并显示其历史
// 参数:
//   - ctx: 上下文
//   - modelName: 模型名称，用于欢迎语
//   - sessionID: 配置的会话ID
//   - pinned: 为 true 时直接使用 sessionID，否则优先使用记录的活跃会话
//
// 返回:
//   - error: 初始化错误
func (s *ChatService) Start(ctx context.Context, modelName string, sessionID int64, pinned bool) error {
	s.presenter.Render(DisplayBot, WelcomeMessage(modelName), TagBot)

	if !pinned {
		sessionID = s.startSessionID(ctx, sessionID)
	}
	if err := s.SwitchSession(ctx, sessionID); err != nil {
		return apperr.Initialization("service.start", err)
	}
	return nil
}

// WelcomeMessage 欢迎语
func WelcomeMessage(modelName string) string {
	return fmt.Sprintf("Welcome to the AI-ChatBot, powered by the %s model! How can I assist you today?", modelName)
}

func (s *ChatService) startSessionID(ctx context.Context, defaultSessionID int64) int64 {
	if s.active == nil {
		return defaultSessionID
	}
	id, err := s.active.GetActiveSession(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "read active session failed", "error", err)
		return defaultSessionID
	}
	if id <= 0 {
		return defaultSessionID
	}
	return id
}

// Submit 处理一次用户输入
// 流程: 显示 -> 保存用户消息 -> 计算回复 -> 显示并保存回复 -> 追加上下文
// 参数:
//   - ctx: 上下文
//   - text: 用户输入，空输入被忽略
//
// 返回:
//   - bool: 输入包含 exit 时返回 true，无论本轮是否成功
func (s *ChatService) Submit(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	start := time.Now()
	sessionID := s.sessions.CurrentSessionID()
	err := s.runTurn(ctx, sessionID, text)
	logger.LogTurn(ctx, s.log, sessionID, start, err)

	return strings.Contains(strings.ToLower(text), exitKeyword)
}

func (s *ChatService) runTurn(ctx context.Context, sessionID int64, text string) error {
	s.presenter.Render(DisplayUser, text, TagYou)

	// 重试上一轮失败的推理时，用户消息已经保存过
	retry := s.pending != nil && *s.pending == pendingTurn{sessionID: sessionID, text: text}
	s.pending = nil

	if !retry {
		// 用户消息写入失败时不再调用推理
		if _, err := s.store.Create(ctx, model.SenderUser, text, sessionID); err != nil {
			s.reportError("Error saving message", err)
			return err
		}
	}

	reply, err := s.responder.Respond(ctx, text, s.sessions.CurrentContext())
	if err != nil {
		s.pending = &pendingTurn{sessionID: sessionID, text: text}
		s.reportError("Error generating response", err)
		return err
	}

	s.presenter.Render(DisplayBot, reply.Text, TagBot)
	if _, err := s.store.Create(ctx, model.SenderBot, reply.Text, sessionID); err != nil {
		s.reportError("Error saving message", err)
		return err
	}

	if reply.Remember {
		s.sessions.AppendTurn(reply.Question, reply.Text)
	}
	return nil
}

// SwitchSession 切换会话并显示其历史
// 加载失败时保持当前会话不变
func (s *ChatService) SwitchSession(ctx context.Context, sessionID int64) error {
	history, err := s.sessions.SwitchSession(ctx, sessionID)
	if err != nil {
		s.log.ErrorContext(ctx, "switch session failed", "session_id", sessionID, "error", err)
		return err
	}

	s.presenter.NotifySessionSwitched(sessionID)
	for _, m := range history {
		tag := TagYou
		if m.Sender == model.SenderBot {
			tag = TagBot
		}
		s.presenter.Render(m.Sender, m.Message, tag)
	}

	if s.active != nil {
		if err := s.active.SetActiveSession(ctx, sessionID); err != nil {
			s.log.WarnContext(ctx, "remember active session failed", "session_id", sessionID, "error", err)
		}
	}
	return nil
}

// ClearSession 删除当前会话的所有消息
// 上下文保持不变
func (s *ChatService) ClearSession(ctx context.Context) (int64, error) {
	sessionID := s.sessions.CurrentSessionID()
	n, err := s.store.DeleteBySessionID(ctx, sessionID)
	if err != nil {
		s.log.ErrorContext(ctx, "clear session failed", "session_id", sessionID, "error", err)
		return 0, err
	}
	// 待重试的用户消息已被删除
	s.pending = nil
	s.log.InfoContext(ctx, "session cleared", "session_id", sessionID, "deleted", n)
	return n, nil
}

// Sessions 列出已有消息的会话ID
func (s *ChatService) Sessions(ctx context.Context) ([]int64, error) {
	return s.store.ListSessionIDs(ctx)
}

// CurrentSessionID 返回当前会话ID
func (s *ChatService) CurrentSessionID() int64 {
	return s.sessions.CurrentSessionID()
}

// CurrentContext 返回当前会话的上下文
func (s *ChatService) CurrentContext() string {
	return s.sessions.CurrentContext()
}

func (s *ChatService) reportError(prefix string, err error) {
	s.presenter.Render(DisplaySystem, fmt.Sprintf("%s: %v", prefix, err), TagSystem)
}
