package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Tasks    TasksConfig    `mapstructure:"tasks" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL            string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns   int    `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns   int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	MigrateOnStart bool   `mapstructure:"migrate_on_start"`
}

// AuthConfig contains the settings used to verify actor tokens issued by the
// external auth layer.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	Issuer        string        `mapstructure:"issuer"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime" validate:"gt=0"`
}

// TasksConfig holds the feature flags and timings of the task engine.
type TasksConfig struct {
	// GSRToTaskPipeline enables spawning a Task from each new guest request.
	GSRToTaskPipeline bool `mapstructure:"gsr_to_task_pipeline"`

	// GSRAllCancelledCancelsGSR lets reverse sync cancel a request once every
	// spawned task is cancelled.
	GSRAllCancelledCancelsGSR bool `mapstructure:"gsr_all_cancelled_cancels_gsr"`

	StalenessThreshold   time.Duration `mapstructure:"staleness_threshold" validate:"gt=0"`
	SchedulerInterval    time.Duration `mapstructure:"scheduler_interval" validate:"gt=0"`
	DowngradeGracePeriod time.Duration `mapstructure:"downgrade_grace_period" validate:"gte=0"`
	AllowTerminalSwap    bool          `mapstructure:"allow_terminal_swap"`
	SchedulerWorkers     int           `mapstructure:"scheduler_workers" validate:"gt=0"`
	SchedulerBatchSize   int           `mapstructure:"scheduler_batch_size" validate:"gt=0"`
	SelectionStrategy    string        `mapstructure:"selection_strategy" validate:"oneof=random round_robin least_loaded"`

	// HistoryLimit caps the embedded status and assignment logs per task.
	// Zero keeps every entry.
	HistoryLimit int `mapstructure:"history_limit" validate:"gte=0"`
}
