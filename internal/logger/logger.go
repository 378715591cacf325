// Package logger 提供结构化日志
// 日志写入文件而不是终端，避免干扰聊天界面
package logger

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	gormlogger "gorm.io/gorm/logger"

	"ai-chatbot/internal/config"
)

// Logger 应用日志
// Close 关闭底层日志文件
type Logger struct {
	*slog.Logger
	out   io.Writer
	close func() error
	runID string
}

// New 根据配置创建日志
// 每次进程启动生成一个 run_id，附加到所有日志记录上
func New(cfg config.LogConfig) (*Logger, error) {
	out, closeFn, err := openOutput(cfg.File)
	if err != nil {
		return nil, err
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		closeFn()
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	runID := uuid.New().String()
	return &Logger{
		Logger: slog.New(handler).With("run_id", runID),
		out:    out,
		close:  closeFn,
		runID:  runID,
	}, nil
}

// Discard 丢弃所有输出的日志，测试中使用
func Discard() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		out:    io.Discard,
		close:  func() error { return nil },
	}
}

// RunID 返回本次运行的标识
func (l *Logger) RunID() string {
	return l.runID
}

// Close 关闭日志文件
func (l *Logger) Close() error {
	return l.close()
}

// Gorm 返回写入同一输出的 GORM 日志器
// 只记录 Warn 以上和慢查询，找不到记录不算错误
func (l *Logger) Gorm() gormlogger.Interface {
	return gormlogger.New(
		log.New(l.out, "", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// ParseLevel 解析日志级别: debug/info/warn/error
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func openOutput(path string) (io.Writer, func() error, error) {
	switch path {
	case "", "stderr":
		return os.Stderr, func() error { return nil }, nil
	case "stdout":
		return os.Stdout, func() error { return nil }, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, f.Close, nil
}
