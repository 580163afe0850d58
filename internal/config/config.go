package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LLM providers understood by NewFromEnv.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// Config holds the configuration for the application.
type Config struct {
	LLMProvider    string
	GeminiAPIKey   string
	GeminiModel    string
	GroqAPIKey     string
	GroqBaseURL    string
	GroqModel      string
	LLMTemperature float32
	LLMMaxTokens   int

	DatabasePath string

	// Plan generation
	PlanMaxRetries     int
	PlanRetryBackoff   time.Duration
	GenerationTimeout  time.Duration
	PlanRequestTimeout time.Duration
	PlanLanguage       string

	LogLevel  string
	LogFormat string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
	Port                   string
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GroqBaseURL:        getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:          getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		DatabasePath:       getEnv("DATABASE_PATH", "data/fitness.db"),
		PlanLanguage:       getEnv("PLAN_LANGUAGE", "English"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "console"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
		Port:               getEnv("PORT", "8080"),
	}

	switch cfg.LLMProvider {
	case ProviderGemini:
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderGroq:
		cfg.GroqAPIKey = os.Getenv("GROQ_API_KEY")
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}

	var err error
	if cfg.LLMTemperature, err = getFloat32("LLM_TEMPERATURE", 0.7); err != nil {
		return nil, err
	}
	if cfg.LLMMaxTokens, err = getInt("LLM_MAX_TOKENS", 4500); err != nil {
		return nil, err
	}
	if cfg.PlanMaxRetries, err = getInt("PLAN_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.PlanMaxRetries < 1 {
		return nil, fmt.Errorf("PLAN_MAX_RETRIES must be at least 1, got %d", cfg.PlanMaxRetries)
	}
	if cfg.PlanRetryBackoff, err = getDuration("PLAN_RETRY_BACKOFF", time.Second); err != nil {
		return nil, err
	}
	if cfg.GenerationTimeout, err = getDuration("GENERATION_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.PlanRequestTimeout, err = getDuration("PLAN_REQUEST_TIMEOUT", 4*time.Minute); err != nil {
		return nil, err
	}

	// Telegram Config (Optional for CLI, required for Bot)
	if ids := os.Getenv("TELEGRAM_ALLOWED_USER_IDS"); ids != "" {
		for _, part := range strings.Split(ids, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", part, err)
			}
			cfg.TelegramAllowedUserIDs = append(cfg.TelegramAllowedUserIDs, id)
		}
	}
	if admin := os.Getenv("ADMIN_TELEGRAM_ID"); admin != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(admin, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	return cfg, nil
}

// IsTelegramUserAllowed reports whether the Telegram user may talk to the bot.
// The admin is always allowed.
func (c *Config) IsTelegramUserAllowed(id int64) bool {
	if c.AdminTelegramID != 0 && id == c.AdminTelegramID {
		return true
	}
	for _, allowed := range c.TelegramAllowedUserIDs {
		if allowed == id {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat32(key string, fallback float32) (float32, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return float32(f), nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
