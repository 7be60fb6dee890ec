package models

import "time"

// FilesystemSample is a single usage observation of one device
type FilesystemSample struct {
	Timestamp     time.Time `json:"timestamp"`
	UsedBytes     uint64    `json:"used_bytes"`
	CapacityBytes uint64    `json:"capacity_bytes"`
}

// FilesystemHistory holds time-series data for one device
type FilesystemHistory struct {
	Device    string             `json:"device"`
	MountPath string             `json:"mount_path"`
	Samples   []FilesystemSample `json:"samples"`

	// AxisMax is a rounded chart maximum covering every sample
	AxisMax float64 `json:"axis_max"`
}
