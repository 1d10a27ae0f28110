package collectors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/breeze-rmm/app-inventory/internal/logging"
	"github.com/breeze-rmm/app-inventory/internal/shell"
	"github.com/breeze-rmm/app-inventory/pkg/models"
)

// Default external commands used by the metadata collector.
const (
	DefaultListCommand     = "ls"
	DefaultMetadataCommand = "mdls"
)

// recordMarker appears exactly once per application in mdls output and
// starts each record.
const recordMarker = "_kMDItemDisplayNameWithExtensions"

// Keys promoted to named fields. Matching is by substring, so
// "_kMDItemDisplayNameWithExtensions" also sets Name until a later
// "kMDItemDisplayName" line overwrites it.
const (
	keyDisplayName      = "kMDItemDisplayName"
	keyVersion          = "kMDItemVersion"
	keyDateAdded        = "kMDItemDateAdded"
	keyBundleIdentifier = "kMDItemCFBundleIdentifier"
)

// MetadataCollector lists a directory with ls and describes every entry with
// one batched mdls call. Any command failure fails the whole collection.
type MetadataCollector struct {
	runner          shell.Runner
	listCommand     string
	metadataCommand string
}

// MetadataOption customizes a MetadataCollector.
type MetadataOption func(*MetadataCollector)

// WithListCommand overrides the directory listing command.
func WithListCommand(name string) MetadataOption {
	return func(c *MetadataCollector) {
		if name != "" {
			c.listCommand = name
		}
	}
}

// WithMetadataCommand overrides the metadata query command.
func WithMetadataCommand(name string) MetadataOption {
	return func(c *MetadataCollector) {
		if name != "" {
			c.metadataCommand = name
		}
	}
}

// NewMetadataCollector creates a metadata collector that runs commands
// through runner.
func NewMetadataCollector(runner shell.Runner, opts ...MetadataOption) *MetadataCollector {
	c := &MetadataCollector{
		runner:          runner,
		listCommand:     DefaultListCommand,
		metadataCommand: DefaultMetadataCommand,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect returns every application under directory that has a display name.
func (c *MetadataCollector) Collect(ctx context.Context, directory string) ([]models.Application, error) {
	log := logging.FromContext(ctx).With(logging.KeyDirectory, directory)
	start := time.Now()

	paths, err := c.ListDirectory(ctx, directory)
	if err != nil {
		return nil, err
	}

	stdout, err := c.FetchMetadata(ctx, paths)
	if err != nil {
		return nil, err
	}

	apps := make([]models.Application, 0, len(paths))
	for _, record := range PartitionMetadata(stdout) {
		app := ParseMetadataRecord(record)
		if app.Name == "" {
			continue
		}
		apps = append(apps, app)
	}

	log.Debug("metadata collection completed",
		"entries", len(paths),
		logging.KeyCount, len(apps),
		logging.KeyDurationMs, time.Since(start).Milliseconds(),
	)
	return apps, nil
}

// ListDirectory runs the listing command on directory and returns the
// absolute path of every entry. The directory is not checked beforehand.
func (c *MetadataCollector) ListDirectory(ctx context.Context, directory string) ([]string, error) {
	out, err := c.runner.Run(ctx, c.listCommand, directory)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", directory, asCommandError(c.listCommand, []string{directory}, err))
	}
	return SplitDirectoryListing(string(out), directory), nil
}

// FetchMetadata runs a single metadata query across all paths and returns
// its combined output.
func (c *MetadataCollector) FetchMetadata(ctx context.Context, paths []string) (string, error) {
	if len(paths) == 0 {
		return "", nil
	}
	out, err := c.runner.Run(ctx, c.metadataCommand, paths...)
	if err != nil {
		return "", fmt.Errorf("query metadata for %d paths: %w", len(paths), asCommandError(c.metadataCommand, paths, err))
	}
	return string(out), nil
}

// SplitDirectoryListing turns listing output into directory + "/" + entry
// paths. Blank lines are dropped.
func SplitDirectoryListing(stdout, directory string) []string {
	entries := splitLines(stdout)
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		paths = append(paths, directory+"/"+entry)
	}
	return paths
}

// PartitionMetadata splits metadata output into one line slice per
// application. A record runs from a marker line up to the next marker or the
// end of the output; lines before the first marker are dropped.
func PartitionMetadata(stdout string) [][]string {
	lines := splitLines(stdout)

	var starts []int
	for i, line := range lines {
		if strings.Contains(line, recordMarker) {
			starts = append(starts, i)
		}
	}

	records := make([][]string, 0, len(starts))
	for j, start := range starts {
		end := len(lines)
		if j+1 < len(starts) {
			end = starts[j+1]
		}
		records = append(records, lines[start:end])
	}
	return records
}

// ParseMetadataRecord builds an application from one record's lines.
// Every key with a non-empty value lands in Attributes. Keys containing one
// of the promoted key names set the matching field, even to an empty value,
// and later lines win.
func ParseMetadataRecord(lines []string) models.Application {
	app := models.Application{Attributes: make(map[string]string)}

	for _, line := range lines {
		if line == "" {
			continue
		}
		key, value := splitKeyValue(line)
		if value != "" {
			app.Attributes[key] = value
		}

		if strings.Contains(key, keyDisplayName) {
			app.Name = value
		}
		if strings.Contains(key, keyVersion) {
			app.Version = value
		}
		if strings.Contains(key, keyDateAdded) {
			app.InstallDate = value
		}
		if strings.Contains(key, keyBundleIdentifier) {
			app.Identifier = value
		}
	}

	return app
}

// splitKeyValue splits on the first "=" and strips whitespace and every
// double quote from both sides.
func splitKeyValue(line string) (key, value string) {
	k, v, found := strings.Cut(line, "=")
	key = stripQuotes(k)
	if found {
		value = stripQuotes(v)
	}
	return key, value
}

func stripQuotes(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), `"`, "")
}

// splitLines splits on any run of carriage returns and newlines.
func splitLines(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '\r' || r == '\n'
	})
}

// asCommandError guarantees callers always see a *shell.CommandExecutionError,
// even from runners that return plain errors.
func asCommandError(name string, args []string, err error) error {
	if shell.IsCommandExecutionError(err) {
		return err
	}
	return &shell.CommandExecutionError{Command: name, Args: args, Err: err}
}
