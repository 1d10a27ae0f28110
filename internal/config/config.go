package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/breeze-rmm/app-inventory/internal/collectors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. APPINV_LOG_LEVEL.
const EnvPrefix = "APPINV"

type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	OutputFormat string `mapstructure:"output_format"`

	// Metadata collector
	MetadataDirectory     string `mapstructure:"metadata_directory"`
	ListCommand           string `mapstructure:"list_command"`
	MetadataCommand       string `mapstructure:"metadata_command"`
	CommandTimeoutSeconds int    `mapstructure:"command_timeout_seconds"`

	// Bundle collector; empty means /Applications and ~/Applications
	BundleDirectories []string `mapstructure:"bundle_directories"`
	MaxManifestBytes  int64    `mapstructure:"max_manifest_bytes"`
}

func Default() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		OutputFormat:      "json",
		MetadataDirectory: collectors.SystemApplicationsDir,
		ListCommand:       collectors.DefaultListCommand,
		MetadataCommand:   collectors.DefaultMetadataCommand,
		MaxManifestBytes:  collectors.DefaultMaxManifestBytes,
	}
}

// Load reads cfgFile, or app-inventory.yaml from the platform config
// directory or the working directory. A missing default file is not an error.
func Load(cfgFile string) (*Config, error) {
	return LoadWith(viper.New(), cfgFile)
}

// LoadWith is Load on a caller-supplied viper instance, so command-line flags
// bound to v take precedence over the file.
func LoadWith(v *viper.Viper, cfgFile string) (*Config, error) {
	cfg := Default()

	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("output_format", cfg.OutputFormat)
	v.SetDefault("metadata_directory", cfg.MetadataDirectory)
	v.SetDefault("list_command", cfg.ListCommand)
	v.SetDefault("metadata_command", cfg.MetadataCommand)
	v.SetDefault("command_timeout_seconds", cfg.CommandTimeoutSeconds)
	v.SetDefault("bundle_directories", cfg.BundleDirectories)
	v.SetDefault("max_manifest_bytes", cfg.MaxManifestBytes)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("app-inventory")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	// Only the default search may come up empty; an explicit file must exist.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// CommandTimeout returns the per-command timeout, zero meaning none.
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSeconds) * time.Second
}

// BundleRoots returns the configured bundle directories, or nil to let the
// collector use its defaults.
func (c *Config) BundleRoots() []string {
	if len(c.BundleDirectories) == 0 {
		return nil
	}
	roots := make([]string, 0, len(c.BundleDirectories))
	for _, dir := range c.BundleDirectories {
		roots = append(roots, expandHome(dir))
	}
	return roots
}

func expandHome(dir string) string {
	if dir == "~" || (len(dir) > 1 && dir[:2] == "~/") {
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, dir[1:])
		}
	}
	return dir
}

func configDir() string {
	switch runtime.GOOS {
	case "darwin":
		return "/Library/Application Support/Breeze"
	case "windows":
		return filepath.Join(os.Getenv("ProgramData"), "Breeze")
	default:
		return "/etc/breeze"
	}
}
