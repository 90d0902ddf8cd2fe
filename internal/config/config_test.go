package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "CHAT_ALLOWED_ORIGINS", "CHAT_COMPLETION_MODE", "CHAT_COMPLETION_URL",
		"CHAT_COMPLETION_TOKEN", "CHAT_COMPLETION_TIMEOUT", "CHAT_SESSION_IDLE_MINUTES",
		"ASSISTANT_PROFILE", "ASSISTANT_ID", "LOG_LEVEL", "LOG_FORMAT",
		"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "Model", "AI_HISTORY_LIMIT",
		"ARK_TEMPERATURE", "ARK_TOP_P", "ARK_MAX_TOKENS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, ModeRemote, cfg.Completion.Mode)
	assert.Equal(t, "https://ai-personalised-chat-bot-backend.vercel.app/api/chat", cfg.Completion.Endpoint)
	assert.Equal(t, 30*time.Second, cfg.Completion.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, "mait", cfg.Assistant.ID)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10, cfg.AI.HistoryLimit)
	assert.False(t, cfg.AI.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("CHAT_ALLOWED_ORIGINS", "https://a.dev, https://b.dev")
	t.Setenv("CHAT_COMPLETION_MODE", "LOCAL")
	t.Setenv("CHAT_COMPLETION_TIMEOUT", "5")
	t.Setenv("CHAT_SESSION_IDLE_MINUTES", "2")
	t.Setenv("ARK_API_KEY", "key")
	t.Setenv("Model", "ep-123")
	t.Setenv("AI_HISTORY_LIMIT", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://a.dev", "https://b.dev"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, ModeLocal, cfg.Completion.Mode)
	assert.Equal(t, 5*time.Second, cfg.Completion.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
	assert.Equal(t, 1, cfg.AI.HistoryLimit)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":                    "80 80",
		"CHAT_COMPLETION_MODE":    "carrier-pigeon",
		"CHAT_COMPLETION_TIMEOUT": "soon",
		"ARK_TEMPERATURE":         "warm",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadClientIgnoresServerSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARK_TEMPERATURE", "warm")
	t.Setenv("CHAT_COMPLETION_URL", "http://localhost:9000/api/chat")
	t.Setenv("ASSISTANT_ID", "alt")

	_, err := Load()
	require.Error(t, err)

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/api/chat", cfg.Completion.Endpoint)
	assert.Equal(t, "alt", cfg.Assistant.ID)
}

func TestLoadClientRejectsBadCompletionSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAT_COMPLETION_TIMEOUT", "0")

	_, err := LoadClient()
	assert.Error(t, err)
}
