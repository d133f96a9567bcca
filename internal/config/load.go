package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TODO"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateRemote, RemoteConfig{})
	return v
}

// validateRemote requires the settings of the selected backend.
func validateRemote(sl validator.StructLevel) {
	rc := sl.Current().Interface().(RemoteConfig)
	switch rc.Backend {
	case BackendRedis:
		if rc.Redis.Addr == "" {
			sl.ReportError(rc.Redis.Addr, "Redis.Addr", "Addr", "required_with_backend", rc.Backend)
		}
	case BackendGoogleTasks:
		if rc.Google.ListID == "" {
			sl.ReportError(rc.Google.ListID, "Google.ListID", "ListID", "required_with_backend", rc.Backend)
		}
	case BackendAzureTables:
		if rc.Azure.ConnectionString == "" {
			sl.ReportError(rc.Azure.ConnectionString, "Azure.ConnectionString", "ConnectionString", "required_with_backend", rc.Backend)
		}
		if rc.Azure.Table == "" {
			sl.ReportError(rc.Azure.Table, "Azure.Table", "Table", "required_with_backend", rc.Backend)
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")

	v.SetDefault("database.url", "postgres://localhost:5432/todo?sslmode=disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("remote.backend", BackendMemory)
	v.SetDefault("remote.latency", 200*time.Millisecond)
	v.SetDefault("remote.redis.addr", "localhost:6379")
	v.SetDefault("remote.redis.password", "")
	v.SetDefault("remote.redis.db", 0)
	v.SetDefault("remote.redis.prefix", AppName)
	v.SetDefault("remote.google.list_id", "@default")
	v.SetDefault("remote.azure.connection_string", "")
	v.SetDefault("remote.azure.table", "tasks")

	v.SetDefault("server.addr", "localhost:8080")
}

// Load creates a Config for configDir and populates its Settings from
// defaults, the optional config.yaml in that directory and TODO_* environment
// variables, in increasing order of precedence.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if _, err := os.Stat(cfg.SettingsPath()); err == nil {
		v.SetConfigFile(cfg.SettingsPath())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read %s: %w", cfg.SettingsPath(), err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings against their validation tags.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
