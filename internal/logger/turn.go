package logger

import (
	"context"
	"log/slog"
	"time"

	"ai-chatbot/internal/apperr"
)

// LogTurn 记录一轮对话的耗时和结果
// 根据结果选择日志级别:
//   - 成功: Info
//   - 推理失败: Warn（用户可以重试）
//   - 持久化失败或其他错误: Error
func LogTurn(ctx context.Context, l *slog.Logger, sessionID int64, start time.Time, err error) {
	latency := time.Since(start)
	attrs := []any{
		"session_id", sessionID,
		"latency", formatLatency(latency),
	}

	if err == nil {
		l.InfoContext(ctx, "turn completed", attrs...)
		return
	}

	kind := apperr.KindOf(err)
	attrs = append(attrs, "error", err)
	if kind != nil {
		attrs = append(attrs, "kind", kind)
	}
	if kind == apperr.ErrInference {
		l.WarnContext(ctx, "turn failed", attrs...)
		return
	}
	l.ErrorContext(ctx, "turn failed", attrs...)
}

// formatLatency 格式化耗时
// 小于 1ms 原样显示
// 小于 1s 截断到微秒
// 否则截断到毫秒
func formatLatency(latency time.Duration) string {
	switch {
	case latency < time.Millisecond:
		return latency.String()
	case latency < time.Second:
		return latency.Truncate(time.Microsecond).String()
	default:
		return latency.Truncate(time.Millisecond).String()
	}
}
