package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds every environment-sourced setting, validated once at startup.
type Config struct {
	// ListenAddr is the address the webhook server binds to.
	ListenAddr string
	// FolderListURL is the Bitrix24 Drive folder-listing endpoint.
	FolderListURL string
	// IncomingURL is the Bitrix24 incoming-webhook base for imbot calls.
	IncomingURL string
	// FileName is the exact name of the workbook inside the Drive folder.
	FileName string
	// FolderID is the Drive folder to list.
	FolderID string
	// BotKey is the bot id segment of the data[BOT][<id>][BOT_ID] form field.
	BotKey string
}

// LoadConfig reads all settings from the environment, exiting the process
// when a required value is missing.
func LoadConfig() Config {
	cfg := Config{
		ListenAddr:    GetEnvWithDefault("LISTEN_ADDR", "localhost:5000"),
		FolderListURL: GetRequiredEnv("URL"),
		IncomingURL:   GetRequiredEnv("INCOMING_URL"),
		FileName:      GetRequiredEnv("FILE_NAME"),
		FolderID:      GetRequiredEnv("ID"),
		BotKey:        GetEnvWithDefault("BOT_KEY", "5732"),
	}

	log.Debug().
		Str("listen_addr", cfg.ListenAddr).
		Str("file_name", cfg.FileName).
		Str("folder_id", cfg.FolderID).
		Str("bot_key", cfg.BotKey).
		Msg("Loaded configuration")

	return cfg
}

// SetupEnvironment loads .env file and configures zerolog output and log level.
func SetupEnvironment() {
	// Load .env file if it exists
	err := godotenv.Load()

	// Configure logging
	if os.Getenv("ENV") == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	levelStr := strings.ToLower(os.Getenv("LOGLEVEL"))
	switch levelStr {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case "":
		// Default based on environment
		if os.Getenv("ENV") == "production" {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
}

// GetRequiredEnv fetches a required environment variable or exits if not set.
func GetRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatal().Msgf("%s environment variable is required", key)
	}
	return value
}

// GetEnvWithDefault fetches an environment variable with a default fallback.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
