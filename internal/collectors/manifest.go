package collectors

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/micromdm/plist"
)

// DefaultMaxManifestBytes bounds how large an Info.plist may be before it is
// skipped.
const DefaultMaxManifestBytes int64 = 10 * 1024 * 1024

var binaryPlistHeader = []byte("bplist00")

// ErrManifestTooLarge is returned when Info.plist exceeds the size limit.
var ErrManifestTooLarge = errors.New("manifest exceeds size limit")

// Manifest holds the Info.plist keys the collectors use.
type Manifest struct {
	CFBundleIdentifier         string `plist:"CFBundleIdentifier"`
	CFBundleName               string `plist:"CFBundleName"`
	CFBundleDisplayName        string `plist:"CFBundleDisplayName"`
	CFBundleShortVersionString string `plist:"CFBundleShortVersionString"`
	CFBundleVersion            string `plist:"CFBundleVersion"`
}

// Publisher returns the bundle identifier, falling back to the bundle name.
func (m *Manifest) Publisher() string {
	if m.CFBundleIdentifier != "" {
		return m.CFBundleIdentifier
	}
	return m.CFBundleName
}

// Version returns the marketing version, falling back to the build number.
func (m *Manifest) Version() string {
	if m.CFBundleShortVersionString != "" {
		return m.CFBundleShortVersionString
	}
	return m.CFBundleVersion
}

// ManifestPath returns the location of Info.plist inside a bundle.
func ManifestPath(bundlePath string) string {
	return filepath.Join(bundlePath, "Contents", "Info.plist")
}

// ReadManifest decodes the bundle's Info.plist, binary or XML. A
// maxBytes of zero or less disables the size check.
func ReadManifest(bundlePath string, maxBytes int64) (*Manifest, error) {
	path := ManifestPath(bundlePath)

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, fmt.Errorf("%s is %d bytes: %w", path, info.Size(), ErrManifestTooLarge)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	m, err := DecodeManifest(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return m, nil
}

// DecodeManifest decodes a property list from rs, detecting the binary
// format by its header.
func DecodeManifest(rs io.ReadSeeker) (*Manifest, error) {
	header := make([]byte, len(binaryPlistHeader))
	n, err := io.ReadFull(rs, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("error reading plist header: %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error seeking to beginning of file: %w", err)
	}

	var m Manifest
	if bytes.Equal(header[:n], binaryPlistHeader) {
		if err := plist.NewBinaryDecoder(rs).Decode(&m); err != nil {
			return nil, fmt.Errorf("error decoding binary plist: %w", err)
		}
	} else {
		if err := plist.NewXMLDecoder(rs).Decode(&m); err != nil {
			return nil, fmt.Errorf("error decoding XML plist: %w", err)
		}
	}
	return &m, nil
}
