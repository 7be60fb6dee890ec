package services

import (
	"sync"

	"diskwarden/internal/models"
)

// Setting keys read from the settings store
const (
	SettingDisplayType = "display.type"
	SettingDisplayUnit = "display.unit"
)

// SettingsStore is a key/value settings lookup (viper satisfies it)
type SettingsStore interface {
	GetString(key string) string
}

// LoadDisplaySettings decodes the display preferences from the store.
// Unknown or missing values fall back to "both" and "percentage".
func LoadDisplaySettings(store SettingsStore) models.DisplaySettings {
	if store == nil {
		return models.DisplaySettings{Type: models.DisplayBoth, Unit: models.UnitPercentage}
	}
	return models.DisplaySettings{
		Type: models.ParseDisplayType(store.GetString(SettingDisplayType)),
		Unit: models.ParseDisplayUnit(store.GetString(SettingDisplayUnit)),
	}
}

var (
	settingsMu    sync.RWMutex
	settingsStore SettingsStore
)

// SetSettingsStore installs the store consulted by CurrentDisplaySettings
func SetSettingsStore(store SettingsStore) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	settingsStore = store
}

// CurrentDisplaySettings decodes the display preferences on every call so
// that edits to the store take effect without a restart
func CurrentDisplaySettings() models.DisplaySettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return LoadDisplaySettings(settingsStore)
}
