package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables (prefix EVENTD_) and an
// optional config.yaml in the working directory. Environment variables take
// precedence over values from the config file. A local .env file, if present,
// is loaded first without overriding already-set variables.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("EVENTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// The IANA zone name must resolve: every civil-calendar decision the
	// scheduler makes depends on it.
	if _, err := time.LoadLocation(cfg.Association.TimeZone); err != nil {
		return nil, fmt.Errorf("invalid association time zone %q: %w", cfg.Association.TimeZone, err)
	}

	return &cfg, nil
}

// setDefaults registers a default for every key so AutomaticEnv can bind
// EVENTD_* variables during Unmarshal. Fire times and grace periods default
// to the association's long-standing schedule: reminders daily at 09:00 with
// one hour of grace, log cleanup on the 1st at 02:00 with a day of grace.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.url", "")

	v.SetDefault("association.time_zone", "Europe/Stockholm")
	v.SetDefault("association.admin_email", "")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 465)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")

	v.SetDefault("notify.queue_size", 100)
	v.SetDefault("notify.workers", 2)
	v.SetDefault("notify.send_timeout", 10*time.Second)

	v.SetDefault("scheduler.poll_interval", 30*time.Second)
	v.SetDefault("scheduler.drain_timeout", 30*time.Second)

	v.SetDefault("reminder.hour", 9)
	v.SetDefault("reminder.minute", 0)
	v.SetDefault("reminder.misfire_grace", time.Hour)

	v.SetDefault("retention.day", 1)
	v.SetDefault("retention.hour", 2)
	v.SetDefault("retention.minute", 0)
	v.SetDefault("retention.misfire_grace", 24*time.Hour)
	v.SetDefault("retention.days", 365)
}
