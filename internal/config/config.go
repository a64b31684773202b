package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the configuration for the application.
type Config struct {
	CMSURL        string
	CMSContentKey string
	CMSAdminKey   string
	GeminiAPIKey  string
	GroqAPIKey    string

	DatabasePath       string
	FormulaArchivePath string
	EmbeddingCachePath string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	cmsURL := os.Getenv("CMS_API_URL")
	if cmsURL == "" {
		return nil, fmt.Errorf("CMS_API_URL environment variable not set")
	}

	cmsContentKey := os.Getenv("CMS_CONTENT_API_KEY")
	if cmsContentKey == "" {
		return nil, fmt.Errorf("CMS_CONTENT_API_KEY environment variable not set")
	}

	cmsAdminKey := os.Getenv("CMS_ADMIN_API_KEY")
	if cmsAdminKey == "" {
		// Fallback to content key if only one is provided
		cmsAdminKey = cmsContentKey
	}

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	groqAPIKey := os.Getenv("GROQ_API_KEY")
	if groqAPIKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
	}

	databasePath := os.Getenv("DATABASE_PATH")
	if databasePath == "" {
		databasePath = "data/supplement-coach.db"
	}

	archivePath := os.Getenv("FORMULA_ARCHIVE_PATH")
	if archivePath == "" {
		archivePath = "data/formula-archive"
	}

	embeddingCachePath := os.Getenv("EMBEDDING_CACHE_PATH")
	if embeddingCachePath == "" {
		embeddingCachePath = "data/embedding-cache.json"
	}

	cfg := &Config{
		CMSURL:             cmsURL,
		CMSContentKey:      cmsContentKey,
		CMSAdminKey:        cmsAdminKey,
		GeminiAPIKey:       geminiAPIKey,
		GroqAPIKey:         groqAPIKey,
		DatabasePath:       databasePath,
		FormulaArchivePath: archivePath,
		EmbeddingCachePath: embeddingCachePath,

		// Telegram Config (Optional for CLI, required for Bot)
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
	}

	for _, part := range strings.Split(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"), ",") {
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

	return cfg, nil
}

// AllowsTelegramUser reports whether the given Telegram user may talk to the bot.
// An empty allow list means the bot is open to everyone.
func (c *Config) AllowsTelegramUser(id int64) bool {
	if len(c.TelegramAllowedUserIDs) == 0 {
		return true
	}
	for _, allowed := range c.TelegramAllowedUserIDs {
		if allowed == id {
			return true
		}
	}
	return false
}
