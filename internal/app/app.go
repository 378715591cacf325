// Package app 负责组装各个组件并运行交互式聊天
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"ai-chatbot/internal/apperr"
	"ai-chatbot/internal/cache"
	"ai-chatbot/internal/config"
	"ai-chatbot/internal/database"
	"ai-chatbot/internal/llm"
	"ai-chatbot/internal/logger"
	"ai-chatbot/internal/repository"
	"ai-chatbot/internal/responder"
	"ai-chatbot/internal/service"
	"ai-chatbot/internal/terminal"
)

// App 应用状态
// 所有组件都挂在这里，不使用全局变量
type App struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *gorm.DB
	repo  *repository.MessageRepository
	cache *cache.RedisCache // 未配置 Redis 时为 nil
	term  *terminal.Terminal
	chat  *service.ChatService
}

// Run 启动交互式聊天
// 初始化失败时显示错误，等待 fatal_delay 后返回初始化错误
// 参数:
//   - ctx: 根上下文，收到退出信号时取消
//   - cfg: 配置
//   - in: 用户输入
//   - out: 终端输出
func Run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	term := terminal.New(in, out, cfg.App)
	term.Setup()

	a, err := New(ctx, cfg, term)
	if err != nil {
		fatal(term, cfg.App.FatalDelay, err)
		return err
	}
	defer a.Close()

	a.log.InfoContext(ctx, "chat started",
		"model", cfg.App.ModelName,
		"responder", cfg.Responder.Kind,
		"db_url", RedactURL(cfg.Database.URL),
	)

	if err := a.chat.Start(ctx, cfg.App.ModelName, cfg.Session.DefaultID, cfg.Session.Pinned); err != nil {
		a.log.ErrorContext(ctx, "start failed", "error", err)
		fatal(term, cfg.App.FatalDelay, err)
		return err
	}

	if err := term.Run(ctx, a.chat); err != nil {
		a.log.ErrorContext(ctx, "input loop failed", "error", err)
		return err
	}
	a.log.InfoContext(ctx, "chat ended", "session_id", a.chat.CurrentSessionID())
	return nil
}

// New 按顺序初始化组件: 日志 -> 存储 -> 缓存 -> 推理后端 -> 对话服务
// 任何一步失败都返回初始化错误，已创建的资源会被释放
func New(ctx context.Context, cfg *config.Config, term *terminal.Terminal) (*App, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, apperr.Initialization("app.logger", err)
	}
	a := &App{cfg: cfg, log: log, term: term}

	a.db, err = database.Open(cfg.Database, log.Gorm())
	if err != nil {
		log.ErrorContext(ctx, "open database failed", "error", err)
		a.Close()
		return nil, err
	}
	a.repo = repository.NewMessageRepository(a.db)

	// Redis 不可用时退化为使用 session.default_id
	if cfg.RedisEnabled() {
		a.cache, err = cache.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			log.WarnContext(ctx, "redis unavailable, active session will not be remembered", "addr", cfg.Redis.Addr, "error", err)
		}
	}

	resp, err := a.newResponder(ctx)
	if err != nil {
		log.ErrorContext(ctx, "init responder failed", "error", err)
		a.Close()
		return nil, err
	}

	a.chat = service.NewChatService(a.repo, resp, term, log.Logger)
	if a.cache != nil {
		a.chat.SetActiveSessionStore(a.cache)
	}
	return a, nil
}

func (a *App) newResponder(ctx context.Context) (responder.Responder, error) {
	if a.cfg.Responder.Kind != config.ResponderLLM {
		return responder.New(a.cfg.Responder.Kind, nil)
	}

	backend, err := llm.NewOllama(a.cfg.App.ModelName, a.cfg.LLM)
	if err != nil {
		return nil, err
	}
	if a.cfg.LLM.Probe {
		if err := backend.Ping(ctx); err != nil {
			return nil, err
		}
	}
	return responder.New(a.cfg.Responder.Kind, backend)
}

// Close 释放数据库、Redis 和日志文件
func (a *App) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("close redis failed", "error", err)
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.log.Warn("close database failed", "error", err)
		}
	}
	_ = a.log.Close()
}

// fatal 显示初始化错误并等待一段时间，让用户看到错误
func fatal(p service.Presenter, delay time.Duration, err error) {
	p.NotifyFatalError(fmt.Sprintf("Error initializing application: %v", err))
	if delay > 0 {
		time.Sleep(delay)
	}
}
