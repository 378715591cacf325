package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ai-chatbot/internal/app"
)

// historyLast history --last 参数
var historyLast int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "打印某个会话的聊天记录",
	Long: `按写入顺序打印指定会话（--session，默认会话 1）的消息。

使用 --last N 只显示最近 N 条。`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLast, "last", "n", 0, "只显示最近 N 条消息 (0 表示全部)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
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
	messages, err := store.GetLatestBySessionID(cmd.Context(), sessionID, historyLast)
	if err != nil {
		return fmt.Errorf("读取会话 #%d 失败: %w", sessionID, err)
	}

	out := cmd.OutOrStdout()
	if len(messages) == 0 {
		fmt.Fprintf(out, "会话 #%d 没有消息\n", sessionID)
		return nil
	}
	for _, m := range messages {
		fmt.Fprintf(out, "[%s] %s: %s\n", m.Timestamp.UTC().Format(time.DateTime), m.Sender, m.Message)
	}
	return nil
}
