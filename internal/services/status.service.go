package services

import (
	"context"
	"time"

	"diskwarden/internal/models"
)

// GetSystemStatus returns host details and the rendered filesystems
func GetSystemStatus(ctx context.Context) (*models.SystemStatus, error) {
	filesystems, err := GetCachedFilesystems(ctx)
	if err != nil {
		return nil, err
	}

	hostInfo, err := GetHostInfo()
	if err != nil {
		log.WithError(err).Warn("Could not get host info")
		hostInfo = nil
	}

	settings := CurrentDisplaySettings()
	return &models.SystemStatus{
		Host:        hostInfo,
		Display:     settings,
		Filesystems: RenderFilesystems(AnnotateFstypes(filesystems), settings),
		Timestamp:   time.Now(),
	}, nil
}
