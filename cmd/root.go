// Package cmd 实现 CLI 命令
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ai-chatbot/internal/apperr"
	"ai-chatbot/internal/app"
	"ai-chatbot/internal/config"
)

// configFile --config 参数
var configFile string

var rootCmd = &cobra.Command{
	Use:   "chatbot",
	Short: "AI-ChatBot - 本地终端聊天机器人",
	Long: `AI-ChatBot 终端客户端

直接运行进入交互式聊天。回复来自规则匹配或本地 Ollama 模型，
所有消息按会话保存到数据库中。

聊天中可用的命令：/session <id>、/sessions、/clear、/help、/quit。
输入包含 exit 的消息会在回复后结束聊天。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runInteractive,
}

// Execute 执行根命令
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// 交互模式下初始化错误已经显示过
		if !isReported(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "配置文件路径 (默认在 ., ./configs, $HOME/.ai-chatbot 中查找 config.yaml)")
	flags.String("db-url", "", "数据库连接串，如 sqlite:///chat_history.db")
	flags.StringP("model", "m", "", "Ollama 模型名称 (默认: llama3.1)")
	flags.StringP("responder", "r", "", "回复策略: rule 或 llm (默认: llm)")
	flags.Int64P("session", "s", 0, "会话ID，指定后忽略上次活跃的会话 (默认: 1，或上次活跃的会话)")
}

// loadConfig 加载并校验配置
// 配置错误属于初始化错误
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, apperr.Initialization("config.load", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperr.Initialization("config.validate", err)
	}
	return cfg, nil
}

// runInteractive 交互式主流程
func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Session.Pinned = cmd.Flags().Changed("session")

	if err := app.Run(cmd.Context(), cfg, os.Stdin, os.Stdout); err != nil {
		// 初始化错误已经在终端中显示过
		if errors.Is(err, apperr.ErrInitialization) {
			return reported{err}
		}
		return err
	}
	return nil
}

// reported 已经在终端中显示过的错误
type reported struct{ error }

func (r reported) Unwrap() error { return r.error }

func isReported(err error) bool {
	_, ok := err.(reported)
	return ok
}
