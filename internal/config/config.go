package config

import (
	"github.com/spf13/viper"

	"github.com/flashware/flashcheck/internal/compat"
	"github.com/flashware/flashcheck/pkg/logger"
)

// Config holds all application configuration
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Device    DeviceConfig    `mapstructure:"device"`
	Installer InstallerConfig `mapstructure:"installer"`
	Output    OutputConfig    `mapstructure:"output"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// DeviceConfig overrides the detected device environment. Zero values mean
// "use whatever detection found".
type DeviceConfig struct {
	APILevel int    `mapstructure:"api_level"`
	Arch     string `mapstructure:"arch"`
}

// InstallerConfig describes the installer modules are evaluated against.
type InstallerConfig struct {
	Version          string   `mapstructure:"version"`
	Features         []string `mapstructure:"features"`
	MinModuleVersion string   `mapstructure:"min_module_version"`
}

// OutputConfig holds report output configuration
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// FeatureSet returns the configured installer capabilities as a set.
func (c *InstallerConfig) FeatureSet() map[string]struct{} {
	features := make(map[string]struct{}, len(c.Features))
	for _, name := range c.Features {
		features[name] = struct{}{}
	}
	return features
}

// LoadConfig loads configuration from file and initializes the logger
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("flashcheck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.flashcheck")
		v.AddConfigPath("/etc/flashcheck")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("FLASHCHECK")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := initLogger(&config.Logging); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_age", 14)
	v.SetDefault("logging.max_backups", 3)

	v.SetDefault("installer.version", "unknown")
	v.SetDefault("installer.features", []string{compat.FeatureFBEAware})

	v.SetDefault("output.format", "text")
}

// initLogger initializes the logger with the provided configuration
func initLogger(cfg *LoggingConfig) error {
	return logger.Init(logger.Config{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Module:     "main",
		File:       cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	})
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Installer: InstallerConfig{
			Version:  "unknown",
			Features: []string{compat.FeatureFBEAware},
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}
