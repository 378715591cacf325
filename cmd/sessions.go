package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ai-chatbot/internal/app"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "列出已有消息的会话",
	RunE:  runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := app.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ids, err := store.ListSessionIDs(cmd.Context())
	if err != nil {
		return fmt.Errorf("读取会话列表失败: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintln(out, "还没有任何会话")
		return nil
	}
	for _, id := range ids {
		n, err := store.CountBySessionID(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("统计会话 #%d 失败: %w", id, err)
		}
		fmt.Fprintf(out, "  #%-6d %d 条消息\n", id, n)
	}
	return nil
}
