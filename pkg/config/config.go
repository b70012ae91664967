package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     int
	Timezone string

	// LINE
	ChannelSecret      string
	ChannelAccessToken string

	// Google Sheets
	GoogleCredentialsFile string
	SpreadsheetID         string

	// Optional delivery audit database
	DatabaseURL string

	SummaryEnabled bool
	PromptCard     bool
}

func FromEnv() Config {
	return Config{
		Port:     intFromEnv("PORT", 8080),
		Timezone: strFromEnv("TIMEZONE", "Asia/Taipei"),

		ChannelSecret:      os.Getenv("LINE_CHANNEL_SECRET"),
		ChannelAccessToken: os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),

		GoogleCredentialsFile: strFromEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
		SpreadsheetID:         os.Getenv("SPREADSHEET_ID"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		SummaryEnabled: boolFromEnv("SUMMARY_ENABLED", true),
		PromptCard:     boolFromEnv("PROMPT_CARD", true),
	}
}

// Validate fails fast on anything the bot cannot start without.
func (c Config) Validate() error {
	var missing []string
	if c.ChannelSecret == "" {
		missing = append(missing, "LINE_CHANNEL_SECRET")
	}
	if c.ChannelAccessToken == "" {
		missing = append(missing, "LINE_CHANNEL_ACCESS_TOKEN")
	}
	if c.SpreadsheetID == "" {
		missing = append(missing, "SPREADSHEET_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func intFromEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

func strFromEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func boolFromEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "t", "true", "yes", "y", "on":
		return true
	case "0", "f", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
