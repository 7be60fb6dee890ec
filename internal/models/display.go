package models

// DisplayType selects how a filesystem is presented
type DisplayType int

const (
	DisplayBoth DisplayType = iota
	DisplayChart
	DisplayNumeric
)

// DisplayUnit selects which quantity accompanies a filesystem
type DisplayUnit int

const (
	UnitPercentage DisplayUnit = iota
	UnitMegabytes
	UnitGigabytes
	UnitMebibytes
	UnitGibibytes
)

var displayTypeNames = map[DisplayType]string{
	DisplayChart:   "chart",
	DisplayNumeric: "numeric",
	DisplayBoth:    "both",
}

var displayUnitNames = map[DisplayUnit]string{
	UnitPercentage: "percentage",
	UnitMegabytes:  "megabytes",
	UnitGigabytes:  "gigabytes",
	UnitMebibytes:  "mebibytes",
	UnitGibibytes:  "gibibytes",
}

// ParseDisplayType decodes a stored setting. Unknown values fall back to DisplayBoth.
func ParseDisplayType(s string) DisplayType {
	for t, name := range displayTypeNames {
		if name == s {
			return t
		}
	}
	return DisplayBoth
}

// ParseDisplayUnit decodes a stored setting. Unknown values fall back to UnitPercentage.
func ParseDisplayUnit(s string) DisplayUnit {
	for u, name := range displayUnitNames {
		if name == s {
			return u
		}
	}
	return UnitPercentage
}

func (t DisplayType) String() string {
	if name, ok := displayTypeNames[t]; ok {
		return name
	}
	return displayTypeNames[DisplayBoth]
}

func (u DisplayUnit) String() string {
	if name, ok := displayUnitNames[u]; ok {
		return name
	}
	return displayUnitNames[UnitPercentage]
}

// MarshalText lets display settings travel as their setting strings in JSON
func (t DisplayType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (u DisplayUnit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (t *DisplayType) UnmarshalText(text []byte) error {
	*t = ParseDisplayType(string(text))
	return nil
}

func (u *DisplayUnit) UnmarshalText(text []byte) error {
	*u = ParseDisplayUnit(string(text))
	return nil
}

// Binary reports whether the unit uses base-1024 prefixes
func (u DisplayUnit) Binary() bool {
	return u == UnitMebibytes || u == UnitGibibytes
}

// DisplaySettings holds the decoded display preferences
type DisplaySettings struct {
	Type DisplayType `json:"type"`
	Unit DisplayUnit `json:"unit"`
}
