package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "HOTELOPS"

// bareEnvBindings maps config keys to unprefixed environment variables kept
// for compatibility with existing deployments.
var bareEnvBindings = map[string]string{
	"tasks.gsr_to_task_pipeline":          "GSR_TO_TASK_PIPELINE",
	"tasks.gsr_all_cancelled_cancels_gsr": "GSR_ALL_CANCELLED_CANCELS_GSR",
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so every
	// required key without a default is bound explicitly.
	for _, key := range []string{"database.url", "auth.jwt_secret", "auth.issuer"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	for key, env := range bareEnvBindings {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate runs struct validation over cfg.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.migrate_on_start", false)

	v.SetDefault("auth.token_lifetime", time.Hour)

	v.SetDefault("tasks.gsr_to_task_pipeline", false)
	v.SetDefault("tasks.gsr_all_cancelled_cancels_gsr", false)
	v.SetDefault("tasks.staleness_threshold", 5*time.Minute)
	v.SetDefault("tasks.scheduler_interval", 60*time.Second)
	v.SetDefault("tasks.downgrade_grace_period", 5*time.Minute)
	v.SetDefault("tasks.allow_terminal_swap", true)
	v.SetDefault("tasks.scheduler_workers", 2)
	v.SetDefault("tasks.scheduler_batch_size", 100)
	v.SetDefault("tasks.selection_strategy", "random")
	v.SetDefault("tasks.history_limit", 0)
}
