// Package repository 提供数据访问层的实现
package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"ai-chatbot/internal/apperr"
	"ai-chatbot/internal/model"
)

// 参数校验错误，会被包装为持久化错误返回
var (
	ErrEmptyMessage  = errors.New("message must not be empty")
	ErrInvalidSender = errors.New("sender must be User or Bot")
)

// MessageRepository 消息数据访问层
// 负责 chat_history 表的所有数据库操作
// 每个操作都在独立事务中执行：成功提交，失败回滚，连接在任何路径上都会归还连接池
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建 MessageRepository 实例
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create 追加一条消息
// 参数:
//   - ctx: 上下文
//   - sender: 发送者（User / Bot）
//   - message: 消息内容，不能为空
//   - sessionID: 会话ID
//
// 返回:
//   - *model.ChatMessage: 写入后的消息，ID 和 Timestamp 由存储层填充
//   - error: 持久化错误；出错时调用方不能假设消息已写入
func (r *MessageRepository) Create(ctx context.Context, sender, message string, sessionID int64) (*model.ChatMessage, error) {
	if !model.IsValidSender(sender) {
		return nil, apperr.Persistence("repository.create", ErrInvalidSender)
	}
	if strings.TrimSpace(message) == "" {
		return nil, apperr.Persistence("repository.create", ErrEmptyMessage)
	}

	row := &model.ChatMessage{
		Sender:    sender,
		Message:   message,
		SessionID: sessionID,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(row).Error
	})
	if err != nil {
		return nil, apperr.Persistence("repository.create", err)
	}
	return row, nil
}

// ListBySessionID 获取会话的所有消息
// 按 ID 正序排列，即插入顺序
// 参数:
//   - ctx: 上下文
//   - sessionID: 会话ID
//
// 返回:
//   - []model.ChatMessage: 消息列表，空会话返回空切片而不是错误
//   - error: 持久化错误
func (r *MessageRepository) ListBySessionID(ctx context.Context, sessionID int64) ([]model.ChatMessage, error) {
	messages := make([]model.ChatMessage, 0)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.
			Where("session_id = ?", sessionID).
			Order("id ASC").
			Find(&messages).Error
	})
	if err != nil {
		return nil, apperr.Persistence("repository.list", err)
	}
	return messages, nil
}

// GetLatestBySessionID 获取会话的最新 N 条消息
// 返回结果仍按 ID 正序排列
func (r *MessageRepository) GetLatestBySessionID(ctx context.Context, sessionID int64, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 {
		return r.ListBySessionID(ctx, sessionID)
	}

	messages := make([]model.ChatMessage, 0, limit)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.
			Where("session_id = ?", sessionID).
			Order("id DESC").
			Limit(limit).
			Find(&messages).Error
	})
	if err != nil {
		return nil, apperr.Persistence("repository.latest", err)
	}

	// 倒序取出后翻转为正序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// CountBySessionID 统计会话的消息数量
func (r *MessageRepository) CountBySessionID(ctx context.Context, sessionID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&model.ChatMessage{}).Where("session_id = ?", sessionID).Count(&count).Error
	})
	if err != nil {
		return 0, apperr.Persistence("repository.count", err)
	}
	return count, nil
}

// ListSessionIDs 列出库中出现过的所有会话ID（升序）
// 会话不是独立实体，只能从消息表中推导
func (r *MessageRepository) ListSessionIDs(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&model.ChatMessage{}).
			Distinct().
			Order("session_id ASC").
			Pluck("session_id", &ids).Error
	})
	if err != nil {
		return nil, apperr.Persistence("repository.sessions", err)
	}
	return ids, nil
}

// DeleteBySessionID 删除会话的所有消息
// 幂等：清空空会话或不存在的会话同样成功，影响行数为 0
// 参数:
//   - ctx: 上下文
//   - sessionID: 会话ID
//
// 返回:
//   - int64: 删除的行数
//   - error: 持久化错误
func (r *MessageRepository) DeleteBySessionID(ctx context.Context, sessionID int64) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("session_id = ?", sessionID).Delete(&model.ChatMessage{})
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, apperr.Persistence("repository.delete", err)
	}
	return affected, nil
}
