package collectors

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/breeze-rmm/app-inventory/internal/logging"
	"github.com/breeze-rmm/app-inventory/pkg/models"
)

// BundleSuffix identifies application bundles.
const BundleSuffix = ".app"

// SystemApplicationsDir is the primary system applications directory.
const SystemApplicationsDir = "/Applications"

// DefaultBundleRoots returns the system applications directory followed by
// the per-user one under $HOME. The per-user root is omitted when HOME is
// unset.
func DefaultBundleRoots() []string {
	roots := []string{SystemApplicationsDir}
	if home := os.Getenv("HOME"); home != "" {
		roots = append(roots, filepath.Join(home, "Applications"))
	}
	return roots
}

// BundleCollector scans application directories for .app bundles and reads
// each bundle's Info.plist. It never fails: missing directories and broken
// manifests only leave fields empty.
type BundleCollector struct {
	roots            []string
	maxManifestBytes int64
}

// NewBundleCollector creates a bundle collector over roots, scanned in
// order. Nil roots means DefaultBundleRoots.
func NewBundleCollector(roots []string, maxManifestBytes int64) *BundleCollector {
	if roots == nil {
		roots = DefaultBundleRoots()
	}
	return &BundleCollector{
		roots:            roots,
		maxManifestBytes: maxManifestBytes,
	}
}

// Roots returns the directories scanned, in order.
func (c *BundleCollector) Roots() []string {
	return append([]string(nil), c.roots...)
}

// Collect returns one application per bundle found under the roots.
// Directories are visited in configured order and entries in directory read
// order.
func (c *BundleCollector) Collect(ctx context.Context) []models.Application {
	log := logging.FromContext(ctx)
	apps := []models.Application{}

	for _, root := range c.roots {
		if ctx.Err() != nil {
			log.Warn("bundle scan interrupted", logging.KeyError, ctx.Err())
			break
		}

		names, err := readDirNames(root)
		if err != nil {
			continue
		}

		for _, name := range names {
			if !strings.HasSuffix(name, BundleSuffix) {
				continue
			}
			apps = append(apps, c.buildApplication(root, name))
		}
	}

	log.Debug("bundle collection completed", logging.KeyCount, len(apps))
	return apps
}

// readDirNames lists dir in the order the filesystem returns entries.
// os.ReadDir would sort them by name.
func readDirNames(dir string) ([]string, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Readdirnames(-1)
}

func (c *BundleCollector) buildApplication(root, entryName string) models.Application {
	bundlePath := filepath.Join(root, entryName)
	app := models.Application{
		Name: strings.TrimSuffix(entryName, BundleSuffix),
		Path: bundlePath,
	}

	// A missing or broken manifest leaves Publisher empty and the scan goes on.
	manifest, err := ReadManifest(bundlePath, c.maxManifestBytes)
	if err != nil {
		return app
	}

	app.Publisher = manifest.Publisher()
	app.Version = manifest.Version()
	return app
}
