package config

import (
	"strings"
	"testing"
)

func TestValidateDefaultsClean(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Fatalf("default config should validate cleanly, got %v", errs)
	}
}

func TestValidateInvalidLogSettings(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	cfg.LogFormat = "xml"

	errs := cfg.Validate()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Error(), "log_level") {
		t.Errorf("unexpected first error: %v", errs[0])
	}
	if !strings.Contains(errs[1].Error(), "log_format") {
		t.Errorf("unexpected second error: %v", errs[1])
	}
}

func TestValidateOutputFormat(t *testing.T) {
	cfg := Default()
	cfg.OutputFormat = " YAML "
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if cfg.OutputFormat != "yaml" {
		t.Fatalf("OutputFormat = %q, want normalized yaml", cfg.OutputFormat)
	}

	cfg.OutputFormat = "csv"
	if errs := cfg.Validate(); len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if cfg.OutputFormat != "json" {
		t.Fatalf("OutputFormat = %q, want json fallback", cfg.OutputFormat)
	}
}

func TestValidateResetsEmptyCommands(t *testing.T) {
	cfg := Default()
	cfg.MetadataDirectory = " "
	cfg.ListCommand = ""
	cfg.MetadataCommand = ""

	if errs := cfg.Validate(); len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %v", errs)
	}
	def := Default()
	if cfg.MetadataDirectory != def.MetadataDirectory || cfg.ListCommand != def.ListCommand || cfg.MetadataCommand != def.MetadataCommand {
		t.Fatalf("values not reset to defaults: %+v", cfg)
	}
}

func TestValidateClampsTimeout(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
		errs int
	}{
		{"disabled", 0, 0, 0},
		{"in range", 120, 120, 0},
		{"negative", -5, 0, 1},
		{"too large", 99999, maxCommandTimeoutSeconds, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.CommandTimeoutSeconds = tt.in
			errs := cfg.Validate()
			if len(errs) != tt.errs {
				t.Fatalf("got %d errors, want %d: %v", len(errs), tt.errs, errs)
			}
			if cfg.CommandTimeoutSeconds != tt.want {
				t.Fatalf("CommandTimeoutSeconds = %d, want %d", cfg.CommandTimeoutSeconds, tt.want)
			}
		})
	}
}

func TestValidateClampsManifestSize(t *testing.T) {
	cfg := Default()
	cfg.MaxManifestBytes = 10
	cfg.Validate()
	if cfg.MaxManifestBytes != minManifestBytes {
		t.Fatalf("MaxManifestBytes = %d, want %d", cfg.MaxManifestBytes, minManifestBytes)
	}

	cfg.MaxManifestBytes = maxManifestBytes + 1
	cfg.Validate()
	if cfg.MaxManifestBytes != maxManifestBytes {
		t.Fatalf("MaxManifestBytes = %d, want %d", cfg.MaxManifestBytes, maxManifestBytes)
	}
}

func TestValidateZeroManifestSizeDisablesLimit(t *testing.T) {
	cfg := Default()
	cfg.MaxManifestBytes = 0
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Fatalf("zero max_manifest_bytes should be accepted, got %v", errs)
	}
	if cfg.MaxManifestBytes != 0 {
		t.Fatalf("MaxManifestBytes = %d, want 0", cfg.MaxManifestBytes)
	}

	cfg.MaxManifestBytes = -5
	if errs := cfg.Validate(); len(errs) != 1 {
		t.Fatalf("expected one warning for negative size, got %v", errs)
	}
	if cfg.MaxManifestBytes != 0 {
		t.Fatalf("MaxManifestBytes = %d, want 0", cfg.MaxManifestBytes)
	}
}

func TestValidateEmptyBundleDirectory(t *testing.T) {
	cfg := Default()
	cfg.BundleDirectories = []string{"/Applications", "", "  "}
	errs := cfg.Validate()
	if len(errs) != 1 {
		t.Fatalf("expected a single error, got %v", errs)
	}
}
