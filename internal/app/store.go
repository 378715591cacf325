package app

import (
	"net/url"
	"strings"

	"gorm.io/gorm"

	"ai-chatbot/internal/config"
	"ai-chatbot/internal/database"
	"ai-chatbot/internal/logger"
	"ai-chatbot/internal/repository"
)

// Store 非交互命令使用的消息存储
type Store struct {
	*repository.MessageRepository
	db  *gorm.DB
	log *logger.Logger
}

// OpenStore 打开消息存储，供 history / clear / sessions 命令使用
func OpenStore(cfg *config.Config) (*Store, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(cfg.Database, log.Gorm())
	if err != nil {
		log.Error("open database failed", "db_url", RedactURL(cfg.Database.URL), "error", err)
		_ = log.Close()
		return nil, err
	}
	return &Store{
		MessageRepository: repository.NewMessageRepository(db),
		db:                db,
		log:               log,
	}, nil
}

// Logger 返回存储使用的日志
func (s *Store) Logger() *logger.Logger {
	return s.log
}

// Close 关闭数据库连接和日志
func (s *Store) Close() error {
	err := database.Close(s.db)
	_ = s.log.Close()
	return err
}

// RedactURL 隐藏连接串中的密码，用于日志和状态输出
func RedactURL(raw string) string {
	if strings.HasPrefix(raw, "sqlite") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		scheme, _, _ := strings.Cut(raw, "://")
		return scheme + "://<invalid>"
	}
	return u.Redacted()
}
