package services

import (
	"diskwarden/internal/models"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
)

// listPartitions is swapped out in tests
var listPartitions = func() ([]disk.PartitionStat, error) {
	return disk.Partitions(false)
}

// GetHostInfo returns hostname and platform details
func GetHostInfo() (*models.HostInfo, error) {
	info, err := host.Info()
	if err != nil {
		return nil, err
	}

	return &models.HostInfo{
		Hostname:        info.Hostname,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
	}, nil
}

// AnnotateFstypes fills in the filesystem type of each record from the
// partition table. Records keep an empty type when no partition matches.
func AnnotateFstypes(filesystems []models.Filesystem) []models.Filesystem {
	partitions, err := listPartitions()
	if err != nil {
		log.WithError(err).Debug("Could not list partitions for fstype lookup")
		return filesystems
	}
	return annotateWithPartitions(filesystems, partitions)
}

func annotateWithPartitions(filesystems []models.Filesystem, partitions []disk.PartitionStat) []models.Filesystem {
	byMount := make(map[string]string, len(partitions))
	byDevice := make(map[string]string, len(partitions))
	for _, p := range partitions {
		byMount[p.Device+"\x00"+p.Mountpoint] = p.Fstype
		if _, ok := byDevice[p.Device]; !ok {
			byDevice[p.Device] = p.Fstype
		}
	}

	annotated := make([]models.Filesystem, len(filesystems))
	for i, fs := range filesystems {
		if fstype, ok := byMount[fs.Device+"\x00"+fs.MountPath]; ok {
			fs.Fstype = fstype
		} else if fstype, ok := byDevice[fs.Device]; ok {
			fs.Fstype = fstype
		}
		annotated[i] = fs
	}
	return annotated
}
