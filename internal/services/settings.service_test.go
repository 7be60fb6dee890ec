package services

import (
	"testing"

	"diskwarden/internal/models"

	"github.com/stretchr/testify/assert"
)

type mapStore map[string]string

func (m mapStore) GetString(key string) string { return m[key] }

func TestLoadDisplaySettings(t *testing.T) {
	settings := LoadDisplaySettings(mapStore{
		SettingDisplayType: "chart",
		SettingDisplayUnit: "gibibytes",
	})
	assert.Equal(t, models.DisplayChart, settings.Type)
	assert.Equal(t, models.UnitGibibytes, settings.Unit)
}

func TestLoadDisplaySettingsDefaults(t *testing.T) {
	settings := LoadDisplaySettings(mapStore{
		SettingDisplayType: "sparkline",
		SettingDisplayUnit: "GB",
	})
	assert.Equal(t, models.DisplayBoth, settings.Type)
	assert.Equal(t, models.UnitPercentage, settings.Unit)

	settings = LoadDisplaySettings(mapStore{})
	assert.Equal(t, models.DisplayBoth, settings.Type)
	assert.Equal(t, models.UnitPercentage, settings.Unit)

	settings = LoadDisplaySettings(nil)
	assert.Equal(t, models.DisplayBoth, settings.Type)
	assert.Equal(t, models.UnitPercentage, settings.Unit)
}

func TestCurrentDisplaySettingsFollowsStore(t *testing.T) {
	store := mapStore{SettingDisplayUnit: "megabytes"}
	SetSettingsStore(store)
	defer SetSettingsStore(nil)

	assert.Equal(t, models.UnitMegabytes, CurrentDisplaySettings().Unit)

	store[SettingDisplayUnit] = "mebibytes"
	assert.Equal(t, models.UnitMebibytes, CurrentDisplaySettings().Unit)
}
