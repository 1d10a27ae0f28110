package config

import (
	"fmt"
	"log/slog"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

var validFormats = map[string]bool{
	"json": true,
	"yaml": true,
}

const (
	maxCommandTimeoutSeconds = 3600
	minManifestBytes         = 1024
	maxManifestBytes         = 100 * 1024 * 1024
)

// Validate checks the config and returns every problem found. Out-of-range
// numbers are clamped and unusable values reset to defaults, so the returned
// errors are warnings; they are also logged.
func (c *Config) Validate() []error {
	var errs []error
	def := Default()

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	c.OutputFormat = strings.ToLower(strings.TrimSpace(c.OutputFormat))
	if !validFormats[c.OutputFormat] {
		errs = append(errs, fmt.Errorf("output_format %q is not valid (use json or yaml), using %s", c.OutputFormat, def.OutputFormat))
		c.OutputFormat = def.OutputFormat
	}

	if strings.TrimSpace(c.MetadataDirectory) == "" {
		errs = append(errs, fmt.Errorf("metadata_directory is empty, using %s", def.MetadataDirectory))
		c.MetadataDirectory = def.MetadataDirectory
	}

	if strings.TrimSpace(c.ListCommand) == "" {
		errs = append(errs, fmt.Errorf("list_command is empty, using %s", def.ListCommand))
		c.ListCommand = def.ListCommand
	}
	if strings.TrimSpace(c.MetadataCommand) == "" {
		errs = append(errs, fmt.Errorf("metadata_command is empty, using %s", def.MetadataCommand))
		c.MetadataCommand = def.MetadataCommand
	}

	if c.CommandTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("command_timeout_seconds %d is negative, disabling timeout", c.CommandTimeoutSeconds))
		c.CommandTimeoutSeconds = 0
	} else if c.CommandTimeoutSeconds > maxCommandTimeoutSeconds {
		errs = append(errs, fmt.Errorf("command_timeout_seconds %d exceeds maximum %d, clamping", c.CommandTimeoutSeconds, maxCommandTimeoutSeconds))
		c.CommandTimeoutSeconds = maxCommandTimeoutSeconds
	}

	// Zero disables the manifest size check.
	if c.MaxManifestBytes < 0 {
		errs = append(errs, fmt.Errorf("max_manifest_bytes %d is negative, disabling size check", c.MaxManifestBytes))
		c.MaxManifestBytes = 0
	} else if c.MaxManifestBytes > 0 && c.MaxManifestBytes < minManifestBytes {
		errs = append(errs, fmt.Errorf("max_manifest_bytes %d is below minimum %d, clamping", c.MaxManifestBytes, minManifestBytes))
		c.MaxManifestBytes = minManifestBytes
	} else if c.MaxManifestBytes > maxManifestBytes {
		errs = append(errs, fmt.Errorf("max_manifest_bytes %d exceeds maximum %d, clamping", c.MaxManifestBytes, maxManifestBytes))
		c.MaxManifestBytes = maxManifestBytes
	}

	for _, dir := range c.BundleDirectories {
		if strings.TrimSpace(dir) == "" {
			errs = append(errs, fmt.Errorf("bundle_directories contains an empty entry"))
			break
		}
	}

	for _, err := range errs {
		slog.Warn("config validation", "error", err)
	}

	return errs
}
