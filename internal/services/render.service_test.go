package services

import (
	"testing"

	"diskwarden/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderFilesystemPercentage(t *testing.T) {
	fs := models.Filesystem{Device: "/dev/sda1", CapacityBytes: 4_000_000_000, UsedBytes: 1_000_000_000, MountPath: "/"}
	view := RenderFilesystem(fs, models.DisplaySettings{Type: models.DisplayBoth, Unit: models.UnitPercentage})

	assert.Equal(t, "4.0 GB", view.Capacity)
	assert.Equal(t, "1.0 GB", view.Used)
	assert.Equal(t, "3.0 GB", view.Free)
	assert.Equal(t, "25%", view.Usage)
	require.NotNil(t, view.Percent)
	assert.Equal(t, 25, *view.Percent)
	assert.True(t, view.ShowChart)
	assert.True(t, view.ShowNumeric)
}

func TestRenderFilesystemBinaryUnit(t *testing.T) {
	fs := models.Filesystem{Device: "/dev/sda1", CapacityBytes: 8 * OneGiB, UsedBytes: 2 * OneGiB, MountPath: "/"}
	view := RenderFilesystem(fs, models.DisplaySettings{Type: models.DisplayNumeric, Unit: models.UnitGibibytes})

	assert.Equal(t, "8.0 GiB", view.Capacity)
	assert.Equal(t, "2.0 GiB", view.Usage)
	assert.False(t, view.ShowChart)
	assert.True(t, view.ShowNumeric)
}

func TestRenderFilesystemZeroCapacity(t *testing.T) {
	view := RenderFilesystem(models.Filesystem{Device: "/dev/loop0", MountPath: "/snap/core"},
		models.DisplaySettings{Type: models.DisplayChart, Unit: models.UnitPercentage})

	assert.Nil(t, view.Percent)
	assert.Equal(t, "n/a", view.Usage)
	assert.Equal(t, "0 KB", view.Capacity)
	assert.True(t, view.ShowChart)
	assert.False(t, view.ShowNumeric)
}

func TestRenderFilesystemsSorted(t *testing.T) {
	views := RenderFilesystems([]models.Filesystem{
		{Device: "/dev/sdb1", MountPath: "/srv"},
		{Device: "/dev/sda2", MountPath: "/"},
		{Device: "/dev/sda1", MountPath: "/boot"},
	}, models.DisplaySettings{})

	require.Len(t, views, 3)
	assert.Equal(t, "/", views[0].MountPath)
	assert.Equal(t, "/boot", views[1].MountPath)
	assert.Equal(t, "/srv", views[2].MountPath)
}
