// Package report wraps collected applications with host details and encodes
// them for output.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/host"
	"gopkg.in/yaml.v3"

	"github.com/breeze-rmm/app-inventory/internal/logging"
	"github.com/breeze-rmm/app-inventory/pkg/models"
)

var log = logging.L("report")

// Report sources.
const (
	SourceMetadata = "metadata"
	SourceBundles  = "bundles"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// hostInfo is swapped in tests.
var hostInfo = host.Info

// CollectHostInfo describes the local machine. Missing gopsutil data falls
// back to os.Hostname and runtime.GOOS.
func CollectHostInfo() models.HostInfo {
	info := models.HostInfo{OS: runtime.GOOS}

	hi, err := hostInfo()
	if err != nil || hi == nil {
		log.Debug("host info unavailable", logging.KeyError, err)
		if name, herr := os.Hostname(); herr == nil {
			info.Hostname = name
		}
		return info
	}

	info.Hostname = hi.Hostname
	if hi.OS != "" {
		info.OS = hi.OS
	}
	info.Platform = hi.Platform
	info.PlatformVersion = hi.PlatformVersion
	info.KernelArch = hi.KernelArch
	return info
}

// New builds a report for apps gathered from source.
func New(source string, apps []models.Application) *models.InventoryReport {
	if apps == nil {
		apps = []models.Application{}
	}
	return &models.InventoryReport{
		ID:           uuid.NewString(),
		Source:       source,
		GeneratedAt:  time.Now().UTC(),
		Host:         CollectHostInfo(),
		Applications: apps,
	}
}

// Encode writes r to w as JSON or YAML.
func Encode(w io.Writer, r *models.InventoryReport, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}

	log.Debug("report written", "source", r.Source, logging.KeyCount, len(r.Applications))
	return nil
}
