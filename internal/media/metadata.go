package media

import "time"

// Metadata holds everything we could read out of an uploaded file's container.
// Every field is optional: a file with no GPS or creation tags is a normal
// upload, not an error.
type Metadata struct {
	RecordedAt      *time.Time
	Latitude        *float64
	Longitude       *float64
	LocationCity    string
	LocationState   string
	LocationCountry string
	DeviceMake      string
	DeviceModel     string
	DurationSeconds int
	Width           int
	Height          int
}

// HasGeoTime reports whether the fields needed for concert resolution are all
// present.
func (m *Metadata) HasGeoTime() bool {
	return m.RecordedAt != nil && m.Latitude != nil && m.Longitude != nil
}
