package models

import "time"

// Application is one installed application. The metadata collector fills
// Name, Version, InstallDate, Identifier and Attributes; the bundle collector
// fills Name, Publisher, Version and Path. Empty fields mean the source did
// not provide them.
type Application struct {
	Name        string            `json:"name" yaml:"name"`
	Version     string            `json:"version,omitempty" yaml:"version,omitempty"`
	InstallDate string            `json:"installDate,omitempty" yaml:"installDate,omitempty"` // as printed by mdls
	Identifier  string            `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Publisher   string            `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Path        string            `json:"path,omitempty" yaml:"path,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// HostInfo identifies the machine an inventory was taken on
type HostInfo struct {
	Hostname        string `json:"hostname" yaml:"hostname"`
	OS              string `json:"os" yaml:"os"`
	Platform        string `json:"platform,omitempty" yaml:"platform,omitempty"`
	PlatformVersion string `json:"platformVersion,omitempty" yaml:"platformVersion,omitempty"`
	KernelArch      string `json:"kernelArch,omitempty" yaml:"kernelArch,omitempty"`
}

// InventoryReport wraps the applications returned by one collector run
type InventoryReport struct {
	ID           string        `json:"id" yaml:"id"`
	Source       string        `json:"source" yaml:"source"` // metadata, bundles
	GeneratedAt  time.Time     `json:"generatedAt" yaml:"generatedAt"`
	Host         HostInfo      `json:"host" yaml:"host"`
	Applications []Application `json:"applications" yaml:"applications"`
}
