package models

import "time"

// HostInfo describes the machine the filesystems belong to
type HostInfo struct {
	Hostname        string `json:"hostname"`
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	KernelVersion   string `json:"kernel_version"`
}

// SystemStatus combines host details with the rendered filesystems
type SystemStatus struct {
	Host        *HostInfo        `json:"host,omitempty"`
	Display     DisplaySettings  `json:"display"`
	Filesystems []FilesystemView `json:"filesystems"`
	Timestamp   time.Time        `json:"timestamp"`
}
