// Package cmd 实现 CLI 命令
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ai-chatbot/internal/app"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "清空某个会话的聊天记录",
	Long: `删除指定会话（--session，默认会话 1）在数据库中的所有消息。

其他会话的消息不受影响。清空不存在或已经为空的会话同样成功。`,
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := app.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sessionID := cfg.Session.DefaultID
	n, err := store.DeleteBySessionID(cmd.Context(), sessionID)
	if err != nil {
		store.Logger().Error("clear session failed", "session_id", sessionID, "error", err)
		return fmt.Errorf("清空会话 #%d 失败: %w", sessionID, err)
	}

	store.Logger().Info("session cleared", "session_id", sessionID, "deleted", n)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ 已删除会话 #%d 的 %d 条消息\n", sessionID, n)
	return nil
}
