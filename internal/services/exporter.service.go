package services

import (
	"net/http"

	"diskwarden/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	capacityGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "diskwarden",
		Name:      "filesystem_capacity_bytes",
		Help:      "Total capacity of a device-backed filesystem.",
	}, []string{"device", "mount_path"})

	usedGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "diskwarden",
		Name:      "filesystem_used_bytes",
		Help:      "Bytes used on a device-backed filesystem.",
	}, []string{"device", "mount_path"})

	discoveryFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "diskwarden",
		Name:      "discovery_failures_total",
		Help:      "Number of failed df invocations.",
	})
)

func init() {
	registry.MustRegister(capacityGauge, usedGauge, discoveryFailures)
}

// UpdateFilesystemGauges replaces the exported series with the given filesystems
func UpdateFilesystemGauges(filesystems []models.Filesystem) {
	capacityGauge.Reset()
	usedGauge.Reset()
	for _, fs := range filesystems {
		capacityGauge.WithLabelValues(fs.Device, fs.MountPath).Set(float64(fs.CapacityBytes))
		usedGauge.WithLabelValues(fs.Device, fs.MountPath).Set(float64(fs.UsedBytes))
	}
}

// RecordDiscoveryFailure counts a failed discovery
func RecordDiscoveryFailure() {
	discoveryFailures.Inc()
}

// PrometheusHandler serves the filesystem gauges in the Prometheus text format
func PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
