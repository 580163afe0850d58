package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv(t *testing.T) {
	clear := func(t *testing.T) {
		t.Helper()
		for _, key := range []string{
			"LLM_PROVIDER", "GEMINI_API_KEY", "GROQ_API_KEY", "PLAN_MAX_RETRIES",
			"PLAN_RETRY_BACKOFF", "TELEGRAM_ALLOWED_USER_IDS", "ADMIN_TELEGRAM_ID",
			"GENERATION_TIMEOUT", "PLAN_REQUEST_TIMEOUT", "DATABASE_PATH",
		} {
			t.Setenv(key, "")
		}
	}

	t.Run("Defaults", func(t *testing.T) {
		clear(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, ProviderGemini, cfg.LLMProvider)
		assert.Equal(t, "gemini_key", cfg.GeminiAPIKey)
		assert.Equal(t, 3, cfg.PlanMaxRetries)
		assert.Equal(t, time.Second, cfg.PlanRetryBackoff)
		assert.Equal(t, 60*time.Second, cfg.GenerationTimeout)
		assert.Equal(t, 4*time.Minute, cfg.PlanRequestTimeout)
		assert.Equal(t, "data/fitness.db", cfg.DatabasePath)
		assert.Equal(t, 4500, cfg.LLMMaxTokens)
	})

	t.Run("GroqProvider", func(t *testing.T) {
		clear(t)
		t.Setenv("LLM_PROVIDER", "GROQ")
		t.Setenv("GROQ_API_KEY", "groq_key")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, ProviderGroq, cfg.LLMProvider)
		assert.Equal(t, "groq_key", cfg.GroqAPIKey)
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		clear(t)

		_, err := NewFromEnv()
		require.EqualError(t, err, "GEMINI_API_KEY environment variable not set")
	})

	t.Run("MissingGroqAPIKey", func(t *testing.T) {
		clear(t)
		t.Setenv("LLM_PROVIDER", "groq")

		_, err := NewFromEnv()
		require.EqualError(t, err, "GROQ_API_KEY environment variable not set")
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		clear(t)
		t.Setenv("LLM_PROVIDER", "carrier-pigeon")

		_, err := NewFromEnv()
		require.Error(t, err)
	})

	t.Run("InvalidBackoff", func(t *testing.T) {
		clear(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("PLAN_RETRY_BACKOFF", "soon")

		_, err := NewFromEnv()
		require.Error(t, err)
	})

	t.Run("ZeroRetries", func(t *testing.T) {
		clear(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("PLAN_MAX_RETRIES", "0")

		_, err := NewFromEnv()
		require.Error(t, err)
	})

	t.Run("TelegramUsers", func(t *testing.T) {
		clear(t)
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "11, 22,,33")
		t.Setenv("ADMIN_TELEGRAM_ID", "99")

		cfg, err := NewFromEnv()
		require.NoError(t, err)
		assert.Equal(t, []int64{11, 22, 33}, cfg.TelegramAllowedUserIDs)
		assert.True(t, cfg.IsTelegramUserAllowed(22))
		assert.True(t, cfg.IsTelegramUserAllowed(99))
		assert.False(t, cfg.IsTelegramUserAllowed(44))
	})
}
