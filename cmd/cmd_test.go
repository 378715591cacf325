package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-chatbot/internal/apperr"
	"ai-chatbot/internal/config"
	"ai-chatbot/internal/database"
	"ai-chatbot/internal/model"
	"ai-chatbot/internal/repository"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// seed 写入测试数据，返回 db_url
func seed(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("LOG_FILE", filepath.Join(t.TempDir(), "chatbot_app.log"))

	url := "sqlite:///" + filepath.Join(t.TempDir(), "chat.db")
	db, err := database.Open(config.DatabaseConfig{URL: url, MaxLifetime: 60}, nil)
	require.NoError(t, err)
	defer database.Close(db)

	repo := repository.NewMessageRepository(db)
	ctx := context.Background()
	for _, m := range []struct {
		sender, text string
		session      int64
	}{
		{model.SenderUser, "Hello", 1},
		{model.SenderBot, "Hello! How can I assist you today?", 1},
		{model.SenderUser, "What is 2+2?", 2},
		{model.SenderBot, "4", 2},
		{model.SenderUser, "thanks", 2},
	} {
		_, err := repo.Create(ctx, m.sender, m.text, m.session)
		require.NoError(t, err)
	}
	return url
}

func TestHistoryCommand(t *testing.T) {
	url := seed(t)

	out, err := execute(t, "history", "--db-url", url, "--session", "2", "--last", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "User: What is 2+2?")
	assert.Contains(t, out, "Bot: 4")
	assert.NotContains(t, out, "Hello")

	out, err = execute(t, "history", "--db-url", url, "--session", "2", "--last", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "User: thanks")
	assert.NotContains(t, out, "Bot: 4")
}

func TestSessionsAndClearCommands(t *testing.T) {
	url := seed(t)

	out, err := execute(t, "sessions", "--db-url", url, "--session", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "#1      2 条消息")
	assert.Contains(t, out, "#2      3 条消息")

	out, err = execute(t, "clear", "--db-url", url, "--session", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "已删除会话 #2 的 3 条消息")

	out, err = execute(t, "sessions", "--db-url", url, "--session", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "#1 ")
	assert.NotContains(t, out, "#2 ")
}

func TestStatusCommandRedactsPassword(t *testing.T) {
	seed(t)

	out, err := execute(t, "status", "--db-url", "mysql://chat:secret@db:3306/chat", "--session", "1", "--responder", "rule")
	require.NoError(t, err)
	assert.Contains(t, out, "mysql://chat:xxxxx@db:3306/chat")
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "回复策略: rule")
}

func TestInvalidConfigIsInitializationError(t *testing.T) {
	seed(t)

	_, err := execute(t, "status", "--responder", "magic", "--session", "1")
	assert.ErrorIs(t, err, apperr.ErrInitialization)
}
