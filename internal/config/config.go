package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Telegram
	TelegramToken string
	OwnerIDs      []int64
	BotMode       string
	WebhookURL    string
	WebhookPath   string

	// refuse webhook calls from outside Telegram's address ranges
	WebhookStrictSource bool

	// HTTP Server (webhook and health)
	Port string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Parsing
	SignPolicy     string
	CategoriesFile string

	// Worker
	SyncBatchSize int
	SyncInterval  time.Duration

	LogLevel string

	// problems found while reading the environment, reported by Validate
	loadErrors []string
}

func Load() *Config {
	cfg := &Config{
		TelegramToken: getEnv("TELEGRAM_TOKEN", ""),
		BotMode:       strings.ToLower(getEnv("BOT_MODE", "polling")),
		WebhookURL:    getEnv("WEBHOOK_URL", ""),
		WebhookPath:   getEnv("WEBHOOK_PATH", "/telegram/webhook"),

		WebhookStrictSource: strings.EqualFold(getEnv("WEBHOOK_STRICT_SOURCE", "false"), "true"),

		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/hisob.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "hisob"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_transactions"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Hisob"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		SignPolicy:     strings.ToLower(getEnv("SIGN_POLICY", "expense")),
		CategoriesFile: getEnv("CATEGORIES_FILE", ""),

		SyncBatchSize: getEnvInt("SYNC_BATCH_SIZE", 10),
		SyncInterval:  getEnvDuration("SYNC_INTERVAL", 30*time.Second),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	ids, errs := parseOwnerIDs(os.Getenv("OWNER_IDS"))
	cfg.OwnerIDs = ids
	cfg.loadErrors = errs
	return cfg
}

// Validate checks settings shared by every binary.
func (c *Config) Validate() error {
	errors := append([]string(nil), c.loadErrors...)

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sheets", "sqlite"}
	if !oneOf(c.DataBackend, validBackends) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.DataBackend == "sheets" {
		errors = append(errors, c.sheetsErrors("sheets backend")...)
	}

	validPolicies := []string{"expense", "verbs"}
	if !oneOf(c.SignPolicy, validPolicies) {
		errors = append(errors, fmt.Sprintf("invalid sign policy '%s': must be one of %v", c.SignPolicy, validPolicies))
	}

	if c.CategoriesFile != "" {
		if _, err := os.Stat(c.CategoriesFile); err != nil {
			errors = append(errors, fmt.Sprintf("categories file is not readable: %s", c.CategoriesFile))
		}
	}

	if c.SyncBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !oneOf(c.LogLevel, validLevels) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	return joinErrors(errors)
}

// ValidateBot adds the requirements of the chat bot binary.
func (c *Config) ValidateBot() error {
	var errors []string
	if err := c.Validate(); err != nil {
		return err
	}
	if c.TelegramToken == "" {
		errors = append(errors, "TELEGRAM_TOKEN is required")
	}
	if len(c.OwnerIDs) == 0 {
		errors = append(errors, "OWNER_IDS must list at least one Telegram user id")
	}
	switch c.BotMode {
	case "polling":
	case "webhook":
		if u, err := url.Parse(c.WebhookURL); err != nil || u.Scheme != "https" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid webhook URL '%s': must be an absolute https URL", c.WebhookURL))
		}
		if !strings.HasPrefix(c.WebhookPath, "/") {
			errors = append(errors, fmt.Sprintf("invalid webhook path '%s': must start with /", c.WebhookPath))
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid bot mode '%s': must be one of [polling webhook]", c.BotMode))
	}
	return joinErrors(errors)
}

// ValidateWorker adds the requirements of the sheet mirror worker.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the sync worker")
	}
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLITE_DB_PATH is required for the sync worker")
	}
	errors = append(errors, c.sheetsErrors("sync worker")...)
	return joinErrors(errors)
}

func (c *Config) sheetsErrors(who string) []string {
	var errors []string
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, fmt.Sprintf("Google Spreadsheet ID is required for the %s", who))
	}
	if c.GoogleSheetName == "" {
		errors = append(errors, fmt.Sprintf("Google Sheet name is required for the %s", who))
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		errors = append(errors, fmt.Sprintf("either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for the %s", who))
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	return errors
}

// IsOwner reports whether id is on the allow-list.
func (c *Config) IsOwner(id int64) bool {
	for _, o := range c.OwnerIDs {
		if o == id {
			return true
		}
	}
	return false
}

func parseOwnerIDs(raw string) ([]int64, []string) {
	var (
		ids  []int64
		errs []string
	)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid owner id '%s': must be an integer", part))
			continue
		}
		ids = append(ids, id)
	}
	return ids, errs
}

func joinErrors(errors []string) error {
	if len(errors) == 0 {
		return nil
	}
	return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
