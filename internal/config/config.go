// Package config defines and loads the application configuration.
package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"      validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database"    validate:"required"`
	Association AssociationConfig `mapstructure:"association" validate:"required"`
	SMTP        SMTPConfig        `mapstructure:"smtp"`
	Notify      NotifyConfig      `mapstructure:"notify"      validate:"required"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"   validate:"required"`
	Reminder    ReminderConfig    `mapstructure:"reminder"    validate:"required"`
	Retention   RetentionConfig   `mapstructure:"retention"   validate:"required"`
}

// ServerConfig contains the operational HTTP endpoint settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AssociationConfig carries the association-wide settings: the civil time
// zone every calendar decision ("tomorrow", "1st of the month") is made in,
// and the admin address that receives participation notices.
type AssociationConfig struct {
	TimeZone   string `mapstructure:"time_zone"   validate:"required"`
	AdminEmail string `mapstructure:"admin_email" validate:"required,email"`
}

// SMTPConfig contains the outbound mail gateway settings.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// NotifyConfig sizes the fire-and-forget notification dispatcher.
type NotifyConfig struct {
	QueueSize   int           `mapstructure:"queue_size"   validate:"required,gt=0"`
	Workers     int           `mapstructure:"workers"      validate:"required,gt=0"`
	SendTimeout time.Duration `mapstructure:"send_timeout" validate:"required"`
}

// SchedulerConfig controls the trigger-polling loop and shutdown drain.
type SchedulerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"required"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout" validate:"required"`
}

// ReminderConfig schedules the daily event reminder job.
type ReminderConfig struct {
	Hour         int           `mapstructure:"hour"          validate:"min=0,max=23"`
	Minute       int           `mapstructure:"minute"        validate:"min=0,max=59"`
	MisfireGrace time.Duration `mapstructure:"misfire_grace" validate:"required"`
}

// RetentionConfig schedules the monthly activity-log purge and sets the
// retention window.
type RetentionConfig struct {
	Day          int           `mapstructure:"day"           validate:"min=1,max=31"`
	Hour         int           `mapstructure:"hour"          validate:"min=0,max=23"`
	Minute       int           `mapstructure:"minute"        validate:"min=0,max=59"`
	MisfireGrace time.Duration `mapstructure:"misfire_grace" validate:"required"`
	Days         int           `mapstructure:"days"          validate:"required,gt=0"`
}
