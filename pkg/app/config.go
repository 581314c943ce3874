package app

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the application specific configuration passed to App.Init
type Config map[string]interface{}

// BaseConfig contains the process configuration, as well as the
// application's own configuration under the app key.
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	// ListenAddress serves gRPC health checks
	ListenAddress      string `mapstructure:"listen_address"`
	DebugListenAddress string `mapstructure:"debug_listen_address"`

	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`

	EnablePprof   bool `mapstructure:"enable_pprof"`
	EnableExpvar  bool `mapstructure:"enable_expvar"`
	EnableMetrics bool `mapstructure:"enable_metrics"`

	// Periodically restart the process
	EnableRestartCron   bool   `mapstructure:"enable_restart_cron"`
	RestartCronSchedule string `mapstructure:"restart_cron_schedule"`

	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	// Users should use mapstructure.Decode for AppConfig
	AppConfig Config `mapstructure:"app"`
}

var defaultConfig = BaseConfig{
	LogLevel: "info",

	ListenAddress:      "localhost:8086",
	DebugListenAddress: ":8123",

	ShutdownGracePeriod: 30 * time.Second,

	EnablePprof:   true,
	EnableExpvar:  true,
	EnableMetrics: true,

	EnableRestartCron:   false,
	RestartCronSchedule: "0 5 * * *",
}

var envBindings = map[string]string{
	"log_level":             "LOG_LEVEL",
	"app_name":              "APP_NAME",
	"listen_address":        "LISTEN_ADDRESS",
	"debug_listen_address":  "DEBUG_LISTEN_ADDRESS",
	"shutdown_grace_period": "SHUTDOWN_GRACE_PERIOD",
	"enable_pprof":          "ENABLE_PPROF",
	"enable_expvar":         "ENABLE_EXPVAR",
	"enable_metrics":        "ENABLE_METRICS",
	"enable_restart_cron":   "ENABLE_RESTART_CRON",
	"restart_cron_schedule": "RESTART_CRON_SCHEDULE",
	"new_relic_license_key": "NEW_RELIC_LICENSE_KEY",
}

// loadConfig reads the optional config file at path, overlays environment
// variables and applies defaults
func loadConfig(path string) (BaseConfig, error) {
	v := viper.New()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return BaseConfig{}, err
		}
	}

	// An explicitly set file that doesn't exist isn't reported by viper as
	// ConfigFileNotFoundError, so only set it when present.
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return BaseConfig{}, errors.Wrap(err, "failed to load config")
		}
	} else if !os.IsNotExist(err) {
		return BaseConfig{}, errors.Wrap(err, "failed to check if config exists")
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return BaseConfig{}, errors.Wrap(err, "failed to unmarshal config")
	}

	if len(config.AppName) == 0 {
		return BaseConfig{}, errors.New("must specify an application name")
	}
	return config, nil
}
