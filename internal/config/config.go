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
	// HTTP Server
	Port string

	// Transaction store
	StoreBackend string
	StoreBaseURL string
	StoreToken   string
	StoreTimeout time.Duration

	// Commit journal
	JournalDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets audit export
	GoogleSpreadsheetID string
	GoogleAuditSheet    string

	// Wizard sessions
	SessionTTL     time.Duration
	MaxSessions    int
	AllocationMode string

	// Journal worker
	WorkerPollInterval time.Duration
	WorkerBatchSize    int
	WorkerMaxRetries   int
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		StoreBackend: getEnv("STORE_BACKEND", "memory"),
		StoreBaseURL: getEnv("STORE_BASE_URL", ""),
		StoreToken:   getEnv("STORE_TOKEN", ""),
		StoreTimeout: getEnvDuration("STORE_TIMEOUT", 30*time.Second),

		JournalDBPath: getEnv("JOURNAL_DB_PATH", "./data/fintrack.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "commit_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleAuditSheet:    getEnv("GOOGLE_AUDIT_SHEET_NAME", "Commits"),

		SessionTTL:     getEnvDuration("SESSION_TTL", 30*time.Minute),
		MaxSessions:    getEnvInt("MAX_SESSIONS", 1000),
		AllocationMode: getEnv("ALLOCATION_MODE", "strict"),

		WorkerPollInterval: getEnvDuration("WORKER_POLL_INTERVAL", 10*time.Second),
		WorkerBatchSize:    getEnvInt("WORKER_BATCH_SIZE", 10),
		WorkerMaxRetries:   getEnvInt("WORKER_MAX_RETRIES", 3),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate store backend
	validBackends := []string{"memory", "rest"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.StoreBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid store backend '%s': must be one of %v", c.StoreBackend, validBackends))
	}

	// Validate REST store configuration if backend is rest
	if c.StoreBackend == "rest" {
		if c.StoreBaseURL == "" {
			errors = append(errors, "store base URL is required when using rest backend")
		} else if parsedURL, err := url.Parse(c.StoreBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid store base URL '%s': %v", c.StoreBaseURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid store base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}

	// Validate journal database path
	if c.JournalDBPath == "" {
		errors = append(errors, "journal database path cannot be empty")
	} else {
		dir := filepath.Dir(c.JournalDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create journal database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate AMQP URL if provided
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

	// Validate session configuration
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}
	if c.MaxSessions < 1 {
		errors = append(errors, fmt.Sprintf("invalid max sessions %d: must be at least 1", c.MaxSessions))
	}
	if c.AllocationMode != "strict" && c.AllocationMode != "permissive" {
		errors = append(errors, fmt.Sprintf("invalid allocation mode '%s': must be 'strict' or 'permissive'", c.AllocationMode))
	}

	// Validate worker configuration
	if c.WorkerBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid worker batch size %d: must be at least 1", c.WorkerBatchSize))
	} else if c.WorkerBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid worker batch size %d: must be at most 1000", c.WorkerBatchSize))
	}

	if c.WorkerPollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid worker poll interval %v: must be at least 1 second", c.WorkerPollInterval))
	} else if c.WorkerPollInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid worker poll interval %v: must be at most 24 hours", c.WorkerPollInterval))
	}

	if c.WorkerMaxRetries < 1 {
		errors = append(errors, fmt.Sprintf("invalid worker max retries %d: must be at least 1", c.WorkerMaxRetries))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
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
