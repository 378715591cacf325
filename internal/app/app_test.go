package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-chatbot/internal/apperr"
	"ai-chatbot/internal/config"
	"ai-chatbot/internal/model"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		App: config.AppConfig{
			ModelName:   "llama3.1",
			WindowTitle: "AI-ChatBot App",
			WindowSize:  "500x400",
		},
		Database: config.DatabaseConfig{
			URL:         "sqlite:///" + filepath.Join(dir, "chat.db"),
			MaxLifetime: 60,
		},
		Responder: config.ResponderConfig{Kind: config.ResponderRule},
		LLM:       config.LLMConfig{Timeout: time.Second},
		Session:   config.SessionConfig{DefaultID: 1},
		Log: config.LogConfig{
			Level:  "info",
			Format: "text",
			File:   filepath.Join(dir, "chatbot_app.log"),
		},
	}
}

func TestRunRuleChat(t *testing.T) {
	cfg := testConfig(t)
	out := &bytes.Buffer{}

	err := Run(context.Background(), cfg, strings.NewReader("Hello\nplease exit\n"), out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Bot: Welcome to the AI-ChatBot, powered by the llama3.1 model! How can I assist you today?")
	assert.Contains(t, text, "You: Hello\n")
	assert.Contains(t, text, "Bot: Hello! How can I assist you today?")
	assert.Contains(t, text, "Bot: Goodbye! Ending the chat session.")

	store, err := OpenStore(cfg)
	require.NoError(t, err)
	defer store.Close()

	rows, err := store.ListBySessionID(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, model.SenderUser, rows[0].Sender)
	assert.Equal(t, "please exit", rows[2].Message)

	logged, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	assert.Contains(t, string(logged), "turn completed")
	assert.Contains(t, string(logged), "run_id=")
}

func TestRunReloadsHistory(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, Run(context.Background(), cfg, strings.NewReader("Hello\n"), &bytes.Buffer{}))

	out := &bytes.Buffer{}
	require.NoError(t, Run(context.Background(), cfg, strings.NewReader(""), out))

	lines := strings.Split(out.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, lines[0], "Welcome to the AI-ChatBot")
	assert.Contains(t, lines[1], " session 1 ")
	assert.Equal(t, "User: Hello", lines[2])
	assert.Equal(t, "Bot: Hello! How can I assist you today?", lines[3])
}

func TestRunBadDatabaseIsFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.URL = "oracle://scott:tiger@db/orcl"
	out := &bytes.Buffer{}

	err := Run(context.Background(), cfg, strings.NewReader("Hello\n"), out)
	assert.ErrorIs(t, err, apperr.ErrInitialization)
	assert.Contains(t, out.String(), "System: Error initializing application:")
	assert.NotContains(t, out.String(), "Welcome")
}

func TestRunUnreachableBackendIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := testConfig(t)
	cfg.Responder.Kind = config.ResponderLLM
	cfg.LLM.ServerURL = url
	cfg.LLM.Probe = true
	out := &bytes.Buffer{}

	err := Run(context.Background(), cfg, strings.NewReader("Hello\n"), out)
	assert.ErrorIs(t, err, apperr.ErrInitialization)
	assert.Contains(t, out.String(), "ollama unreachable")
}

func TestRunRemembersActiveSession(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Redis.Addr = mr.Addr()

	require.NoError(t, Run(context.Background(), cfg, strings.NewReader("/session 3\nHello\n"), &bytes.Buffer{}))
	stored, err := mr.Get("chatbot:active_session")
	require.NoError(t, err)
	assert.Equal(t, "3", stored)

	out := &bytes.Buffer{}
	require.NoError(t, Run(context.Background(), cfg, strings.NewReader(""), out))
	assert.Contains(t, out.String(), " session 3 ")
	assert.Contains(t, out.String(), "User: Hello")
}

func TestRunWithoutRedisServerFallsBack(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.Redis.Addr = addr
	cfg.Session.DefaultID = 2
	out := &bytes.Buffer{}

	require.NoError(t, Run(context.Background(), cfg, strings.NewReader(""), out))
	assert.Contains(t, out.String(), " session 2 ")
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "sqlite:///chat_history.db", RedactURL("sqlite:///chat_history.db"))
	assert.Equal(t, "mysql://chat:xxxxx@db:3306/chat", RedactURL("mysql://chat:secret@db:3306/chat"))
}

func TestRunPinnedSessionOverridesRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("chatbot:active_session", "3"))

	cfg := testConfig(t)
	cfg.Redis.Addr = mr.Addr()
	cfg.Session.DefaultID = 5
	cfg.Session.Pinned = true
	out := &bytes.Buffer{}

	require.NoError(t, Run(context.Background(), cfg, strings.NewReader(""), out))
	assert.Contains(t, out.String(), " session 5 ")
	assert.NotContains(t, out.String(), " session 3 ")

	stored, err := mr.Get("chatbot:active_session")
	require.NoError(t, err)
	assert.Equal(t, "5", stored)
}
