package services

import (
	"sort"
	"strconv"

	"diskwarden/internal/models"
)

// RenderFilesystem formats the sizes of fs according to the display settings.
// Percentage and the decimal units use K/M/G/T, the binary units Ki/Mi/Gi/Ti.
func RenderFilesystem(fs models.Filesystem, settings models.DisplaySettings) models.FilesystemView {
	format := FormatDecimal
	if settings.Unit.Binary() {
		format = FormatBinary
	}

	view := models.FilesystemView{
		Filesystem:  fs,
		Capacity:    format(float64(fs.CapacityBytes), Bytes, false),
		Used:        format(float64(fs.UsedBytes), Bytes, false),
		Free:        format(float64(fs.FreeBytes()), Bytes, false),
		ShowChart:   settings.Type != models.DisplayNumeric,
		ShowNumeric: settings.Type != models.DisplayChart,
	}

	percent, ok := fs.UsagePercent()
	if ok {
		view.Percent = &percent
	}

	switch {
	case settings.Unit != models.UnitPercentage:
		view.Usage = view.Used
	case ok:
		view.Usage = strconv.Itoa(percent) + "%"
	default:
		view.Usage = "n/a"
	}

	return view
}

// RenderFilesystems renders every filesystem, ordered by mount path
func RenderFilesystems(filesystems []models.Filesystem, settings models.DisplaySettings) []models.FilesystemView {
	views := make([]models.FilesystemView, 0, len(filesystems))
	for _, fs := range filesystems {
		views = append(views, RenderFilesystem(fs, settings))
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].MountPath == views[j].MountPath {
			return views[i].Device < views[j].Device
		}
		return views[i].MountPath < views[j].MountPath
	})
	return views
}
