package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.yaml")
	data := []byte(`log_level: debug
output_format: yaml
metadata_directory: /System/Applications
command_timeout_seconds: 30
bundle_directories:
  - /Applications
  - /Applications/Utilities
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Default()
	want.LogLevel = "debug"
	want.OutputFormat = "yaml"
	want.MetadataDirectory = "/System/Applications"
	want.CommandTimeoutSeconds = 30
	want.BundleDirectories = []string{"/Applications", "/Applications/Utilities"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if cfg.CommandTimeout() != 30*time.Second {
		t.Errorf("CommandTimeout() = %v, want 30s", cfg.CommandTimeout())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APPINV_METADATA_COMMAND", "/usr/bin/mdls")
	t.Setenv("APPINV_LOG_FORMAT", "json")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MetadataCommand != "/usr/bin/mdls" {
		t.Errorf("MetadataCommand = %q, want /usr/bin/mdls", cfg.MetadataCommand)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
}

func TestLoadWithBoundOverride(t *testing.T) {
	t.Chdir(t.TempDir())

	v := viper.New()
	v.Set("output_format", "yaml")

	cfg, err := LoadWith(v, "")
	if err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	if cfg.OutputFormat != "yaml" {
		t.Errorf("OutputFormat = %q, want yaml", cfg.OutputFormat)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("log_level: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestBundleRoots(t *testing.T) {
	t.Setenv("HOME", "/Users/carol")

	cfg := Default()
	if cfg.BundleRoots() != nil {
		t.Fatalf("BundleRoots() = %v, want nil for defaults", cfg.BundleRoots())
	}

	cfg.BundleDirectories = []string{"/Applications", "~/Applications", "~", "~other/Apps"}
	want := []string{
		"/Applications",
		filepath.Join("/Users/carol", "Applications"),
		"/Users/carol",
		"~other/Apps",
	}
	if diff := cmp.Diff(want, cfg.BundleRoots()); diff != "" {
		t.Errorf("BundleRoots() mismatch (-want +got):\n%s", diff)
	}
}
