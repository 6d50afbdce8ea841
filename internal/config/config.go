package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Global
		Database
		Telegram
		Query
		Export
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path   string
		LogSQL bool
	}
	Telegram struct {
		Token       string
		Debug       bool
		PollTimeout int // Long-polling timeout in seconds
	}
	Query struct {
		DefaultTopLimit int
	}
	Export struct {
		Dir             string // Directory for markdown exports
		ScheduleEnabled bool
		Schedule        string // Cron format: "0 * * * *" = hourly
	}
)

// ShutdownTimeout returns the graceful shutdown budget as a duration.
func (g Global) ShutdownTimeout() time.Duration {
	return time.Duration(g.ShutdownTimeoutInSeconds) * time.Second
}

// loadDotEnv reads a .env file into the process environment without
// overriding variables that are already set.
func loadDotEnv() {
	path := os.Getenv("BOOKSHELF_ENV_FILE")
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		log.Printf("WARNING: failed to load %s: %v", path, err)
	}
}

func NewConfig() *Config {
	loadDotEnv()
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("log_sql", false)
	v.SetDefault("telegram_token", "")
	v.SetDefault("telegram_debug", false)
	v.SetDefault("telegram_poll_timeout", 60)
	v.SetDefault("top_default_limit", DefaultTopLimit)
	v.SetDefault("export_dir", "")
	v.SetDefault("export_schedule_enabled", false)
	v.SetDefault("export_schedule", DefaultExportSchedule) // Hourly at :00
	return v
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path:   v.GetString("DATABASE_PATH"),
			LogSQL: v.GetBool("LOG_SQL"),
		},
		Telegram: Telegram{
			Token:       strings.TrimSpace(v.GetString("TELEGRAM_TOKEN")),
			Debug:       v.GetBool("TELEGRAM_DEBUG"),
			PollTimeout: v.GetInt("TELEGRAM_POLL_TIMEOUT"),
		},
		Query: Query{
			DefaultTopLimit: v.GetInt("TOP_DEFAULT_LIMIT"),
		},
		Export: Export{
			Dir:             v.GetString("EXPORT_DIR"),
			ScheduleEnabled: v.GetBool("EXPORT_SCHEDULE_ENABLED"),
			Schedule:        v.GetString("EXPORT_SCHEDULE"),
		},
	}
}
