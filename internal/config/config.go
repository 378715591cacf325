// Package config 负责加载和管理应用程序的配置
// 使用 viper 库支持 YAML 配置文件、.env 文件、环境变量和命令行参数覆盖
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// 响应策略
const (
	ResponderRule = "rule" // 规则匹配
	ResponderLLM  = "llm"  // 本地大模型
)

// Config 是应用程序的根配置结构
// 包含所有子配置模块
type Config struct {
	App       AppConfig       `mapstructure:"app"`       // 应用 / 展示配置
	Database  DatabaseConfig  `mapstructure:"database"`  // 数据库配置
	Responder ResponderConfig `mapstructure:"responder"` // 响应策略配置
	LLM       LLMConfig       `mapstructure:"llm"`       // 推理后端配置
	Session   SessionConfig   `mapstructure:"session"`   // 会话配置
	Redis     RedisConfig     `mapstructure:"redis"`     // Redis 配置（可选）
	Log       LogConfig       `mapstructure:"log"`       // 日志配置
}

// AppConfig 应用配置
type AppConfig struct {
	ModelName   string        `mapstructure:"model_name"`   // 推理后端使用的模型
	WindowTitle string        `mapstructure:"window_title"` // 窗口标题（仅展示）
	WindowSize  string        `mapstructure:"window_size"`  // 窗口大小，格式 WxH（仅展示）
	FatalDelay  time.Duration `mapstructure:"fatal_delay"`  // 致命错误提示后到退出的等待时间
}

// DatabaseConfig 数据库连接配置
type DatabaseConfig struct {
	URL          string `mapstructure:"url"`            // 连接串，如 sqlite:///chat_history.db
	MaxIdleConns int    `mapstructure:"max_idle_conns"` // 最大空闲连接数
	MaxOpenConns int    `mapstructure:"max_open_conns"` // 最大打开连接数
	MaxLifetime  int    `mapstructure:"max_lifetime"`   // 连接最大生命周期（秒）
}

// ResponderConfig 响应策略配置
type ResponderConfig struct {
	Kind string `mapstructure:"kind"` // rule / llm
}

// LLMConfig 推理后端配置
type LLMConfig struct {
	ServerURL string        `mapstructure:"server_url"` // Ollama 服务地址
	Timeout   time.Duration `mapstructure:"timeout"`    // 单次推理超时
	Probe     bool          `mapstructure:"probe"`      // 启动时是否探测后端
}

// SessionConfig 会话配置
type SessionConfig struct {
	DefaultID int64 `mapstructure:"default_id"` // 启动时进入的会话
	Pinned    bool  `mapstructure:"-"`          // 命令行显式指定会话时为 true，不再使用记录的活跃会话
}

// RedisConfig Redis 连接配置
// Addr 为空时不启用
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`     // Redis 地址 host:port
	Password string `mapstructure:"password"` // Redis 密码
	DB       int    `mapstructure:"db"`       // 数据库索引 (0-15)
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug/info/warn/error
	Format string `mapstructure:"format"` // 日志格式: json/text
	File   string `mapstructure:"file"`   // 日志文件；"stderr" 输出到标准错误
}

// 命令行参数到配置项的映射
var flagBindings = map[string]string{
	"db-url":    "database.url",
	"model":     "app.model_name",
	"responder": "responder.kind",
	"session":   "session.default_id",
}

var windowSizePattern = regexp.MustCompile(`^(\d+)x(\d+)$`)

// Load 加载配置
// 优先级从高到低：命令行参数 > 环境变量（含 .env）> 配置文件 > 默认值
// 参数:
//   - configFile: 配置文件路径，为空时在默认目录中查找 config.yaml
//   - flags: 命令行参数集合，可以为 nil
//
// 返回:
//   - *Config: 配置对象
//   - error: 如果加载失败则返回错误
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	// .env 不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	// 创建新的 viper 实例
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.ai-chatbot")
	}

	// 启用环境变量
	// 例如: DATABASE_URL -> database.url
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVariables(v)
	setDefaults(v)

	if flags != nil {
		for name, key := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	// 读取配置文件（未显式指定且不存在时使用默认值和环境变量）
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// bindEnvVariables 绑定环境变量到配置项
func bindEnvVariables(v *viper.Viper) {
	v.BindEnv("app.model_name", "CHATBOT_MODEL")
	v.BindEnv("app.window_title", "CHATBOT_WINDOW_TITLE")
	v.BindEnv("app.window_size", "CHATBOT_WINDOW_SIZE")

	v.BindEnv("database.url", "CHATBOT_DB_URL")

	v.BindEnv("responder.kind", "CHATBOT_RESPONDER")

	v.BindEnv("llm.server_url", "OLLAMA_HOST")
	v.BindEnv("llm.timeout", "CHATBOT_LLM_TIMEOUT")

	v.BindEnv("session.default_id", "CHATBOT_SESSION")

	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")
	v.BindEnv("log.file", "LOG_FILE")
}

// setDefaults 设置配置项的默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.model_name", "llama3.1")
	v.SetDefault("app.window_title", "AI-ChatBot App")
	v.SetDefault("app.window_size", "500x400")
	v.SetDefault("app.fatal_delay", "1s")

	// SQLite 只允许一个写连接，连接池保持很小
	v.SetDefault("database.url", "sqlite:///chat_history.db")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_lifetime", 3600)

	v.SetDefault("responder.kind", ResponderLLM)

	v.SetDefault("llm.server_url", "http://localhost:11434")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.probe", true)

	v.SetDefault("session.default_id", 1)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "error")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "chatbot_app.log")
}

// Validate 校验配置
// 配置错误属于启动期错误，不应拖到某一轮对话里才暴露
func (c *Config) Validate() error {
	switch c.Responder.Kind {
	case ResponderRule, ResponderLLM:
	default:
		return fmt.Errorf("unknown responder kind %q (want %q or %q)", c.Responder.Kind, ResponderRule, ResponderLLM)
	}
	if c.Responder.Kind == ResponderLLM {
		if c.App.ModelName == "" {
			return errors.New("app.model_name is required for the llm responder")
		}
		if c.LLM.Timeout <= 0 {
			return fmt.Errorf("llm.timeout must be positive, got %s", c.LLM.Timeout)
		}
	}
	if _, _, err := c.App.WindowDimensions(); err != nil {
		return err
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Session.DefaultID <= 0 {
		return fmt.Errorf("session.default_id must be positive, got %d", c.Session.DefaultID)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// WindowDimensions 解析 WindowSize
func (a AppConfig) WindowDimensions() (width, height int, err error) {
	m := windowSizePattern.FindStringSubmatch(a.WindowSize)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid window size %q (want WxH)", a.WindowSize)
	}
	width, _ = strconv.Atoi(m[1])
	height, _ = strconv.Atoi(m[2])
	return width, height, nil
}

// RedisEnabled 是否配置了 Redis
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
