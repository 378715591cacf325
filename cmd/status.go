// Package cmd 实现 CLI 命令
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ai-chatbot/internal/app"
	"ai-chatbot/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "显示当前生效的配置",
	Long: `显示合并配置文件、环境变量和命令行参数之后的配置。

包括：
- 模型和回复策略
- 数据库连接串（隐藏密码）
- Ollama 地址和超时
- Redis 和日志设置`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	printStatus(cmd, cfg)
	return nil
}

func printStatus(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "╔════════════════════════════════════════════════╗")
	fmt.Fprintln(out, "║             AI-ChatBot 配置信息                 ║")
	fmt.Fprintln(out, "╠════════════════════════════════════════════════╣")

	fmt.Fprintf(out, "║  模型: %s\n", cfg.App.ModelName)
	fmt.Fprintf(out, "║  回复策略: %s\n", cfg.Responder.Kind)
	fmt.Fprintf(out, "║  数据库: %s\n", app.RedactURL(cfg.Database.URL))
	if cfg.Responder.Kind == config.ResponderLLM {
		fmt.Fprintf(out, "║  Ollama: %s (超时 %s)\n", cfg.LLM.ServerURL, cfg.LLM.Timeout)
	}
	fmt.Fprintf(out, "║  默认会话: %d\n", cfg.Session.DefaultID)
	if cfg.RedisEnabled() {
		fmt.Fprintf(out, "║  Redis: %s (db %d)\n", cfg.Redis.Addr, cfg.Redis.DB)
	} else {
		fmt.Fprintln(out, "║  Redis: 未启用")
	}
	fmt.Fprintf(out, "║  日志: %s (%s, %s)\n", cfg.Log.File, cfg.Log.Level, cfg.Log.Format)

	fmt.Fprintln(out, "╚════════════════════════════════════════════════╝")
}
