package models

import "math"

// Filesystem represents one device-backed volume as reported by df
type Filesystem struct {
	Device        string `json:"device"`
	CapacityBytes uint64 `json:"capacity_bytes"`
	UsedBytes     uint64 `json:"used_bytes"`
	MountPath     string `json:"mount_path"`
	Fstype        string `json:"fstype,omitempty"`
}

// UsagePercent returns used/capacity as a rounded percentage.
// ok is false when the capacity is zero.
func (f Filesystem) UsagePercent() (percent int, ok bool) {
	if f.CapacityBytes == 0 {
		return 0, false
	}
	return int(math.Round(float64(f.UsedBytes) / float64(f.CapacityBytes) * 100)), true
}

// FreeBytes returns capacity minus used, floored at zero
func (f Filesystem) FreeBytes() uint64 {
	if f.UsedBytes > f.CapacityBytes {
		return 0
	}
	return f.CapacityBytes - f.UsedBytes
}

// FilesystemView is a filesystem with its sizes rendered for display
type FilesystemView struct {
	Filesystem
	Capacity    string `json:"capacity"`
	Used        string `json:"used"`
	Free        string `json:"free"`
	Usage       string `json:"usage"`
	Percent     *int   `json:"usage_percent"`
	ShowChart   bool   `json:"show_chart"`
	ShowNumeric bool   `json:"show_numeric"`
}
