package services

import (
	"sort"
	"sync"
	"time"

	"diskwarden/internal/models"
)

// DefaultHistoryPoints is the number of samples kept per device
const DefaultHistoryPoints = 120

// HistoryCollector keeps a bounded usage series per device
type HistoryCollector struct {
	mu            sync.RWMutex
	samples       map[string][]models.FilesystemSample
	mounts        map[string]string
	maxDataPoints int
}

var historyCollector = newHistoryCollector(DefaultHistoryPoints)

func newHistoryCollector(maxDataPoints int) *HistoryCollector {
	return &HistoryCollector{
		samples:       make(map[string][]models.FilesystemSample),
		mounts:        make(map[string]string),
		maxDataPoints: maxDataPoints,
	}
}

// SetHistoryMaxPoints changes the per-device sample limit, trimming existing series
func SetHistoryMaxPoints(n int) {
	if n < 1 {
		n = 1
	}

	historyCollector.mu.Lock()
	defer historyCollector.mu.Unlock()

	historyCollector.maxDataPoints = n
	for device, series := range historyCollector.samples {
		if len(series) > n {
			historyCollector.samples[device] = series[len(series)-n:]
		}
	}
}

// RecordFilesystems appends one sample per filesystem
func RecordFilesystems(now time.Time, filesystems []models.Filesystem) {
	historyCollector.record(now, filesystems)
}

func (hc *HistoryCollector) record(now time.Time, filesystems []models.Filesystem) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	for _, fs := range filesystems {
		series := append(hc.samples[fs.Device], models.FilesystemSample{
			Timestamp:     now,
			UsedBytes:     fs.UsedBytes,
			CapacityBytes: fs.CapacityBytes,
		})
		if len(series) > hc.maxDataPoints {
			series = series[len(series)-hc.maxDataPoints:]
		}
		hc.samples[fs.Device] = series
		hc.mounts[fs.Device] = fs.MountPath
	}
}

// GetFilesystemHistory returns the samples of one device newer than duration
func GetFilesystemHistory(device string, duration time.Duration) (*models.FilesystemHistory, bool) {
	historyCollector.mu.RLock()
	defer historyCollector.mu.RUnlock()

	if _, ok := historyCollector.samples[device]; !ok {
		return nil, false
	}
	h := historyCollector.window(device, time.Now().Add(-duration))
	return &h, true
}

// GetAllFilesystemHistory returns every device's samples newer than duration, ordered by device
func GetAllFilesystemHistory(duration time.Duration) []models.FilesystemHistory {
	historyCollector.mu.RLock()
	defer historyCollector.mu.RUnlock()

	cutoffTime := time.Now().Add(-duration)

	devices := make([]string, 0, len(historyCollector.samples))
	for device := range historyCollector.samples {
		devices = append(devices, device)
	}
	sort.Strings(devices)

	result := make([]models.FilesystemHistory, 0, len(devices))
	for _, device := range devices {
		result = append(result, historyCollector.window(device, cutoffTime))
	}
	return result
}

// window must be called with hc.mu held
func (hc *HistoryCollector) window(device string, cutoffTime time.Time) models.FilesystemHistory {
	h := models.FilesystemHistory{
		Device:    device,
		MountPath: hc.mounts[device],
		Samples:   []models.FilesystemSample{},
	}

	var maxUsed uint64
	for _, s := range hc.samples[device] {
		if s.Timestamp.After(cutoffTime) {
			h.Samples = append(h.Samples, s)
			if s.UsedBytes > maxUsed {
				maxUsed = s.UsedBytes
			}
		}
	}
	h.AxisMax = RoundMax(float64(maxUsed))
	return h
}

// ResetHistory drops every recorded sample
func ResetHistory() {
	historyCollector.mu.Lock()
	defer historyCollector.mu.Unlock()
	historyCollector.samples = make(map[string][]models.FilesystemSample)
	historyCollector.mounts = make(map[string]string)
}
