// Package model 定义了与数据库表对应的数据结构
package model

import (
	"time"
)

// 发送者常量
// 库中只会出现这两个值
const (
	SenderUser = "User" // 用户发送的消息
	SenderBot  = "Bot"  // 机器人的回复
)

// DefaultSessionID 单会话部署时使用的隐式会话
const DefaultSessionID int64 = 1

// ChatMessage 聊天消息模型
// 对应数据库表 chat_history
// 只追加的日志表：写入后不再修改，唯一的变更是按会话批量删除
type ChatMessage struct {
	// ID 消息唯一标识，自增主键
	// 全表唯一且严格递增（不是按会话递增），清空后也不会复用
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// Sender 发送者: User / Bot
	Sender string `gorm:"size:16;not null" json:"sender"`

	// Message 消息内容
	// 使用 TEXT 类型存储，可以存储较长的内容
	Message string `gorm:"type:text;not null" json:"message"`

	// Timestamp 写入时间（UTC），由存储层在插入时填充
	Timestamp time.Time `gorm:"column:timestamp;autoCreateTime;not null" json:"timestamp"`

	// SessionID 所属会话，仅作分区键，不是外键
	SessionID int64 `gorm:"index;not null;default:1" json:"session_id"`
}

// TableName 指定表名
func (ChatMessage) TableName() string {
	return "chat_history"
}

// IsValidSender 检查发送者是否合法
func IsValidSender(sender string) bool {
	return sender == SenderUser || sender == SenderBot
}
