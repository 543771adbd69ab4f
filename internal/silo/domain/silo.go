package domain

import "time"

// Silo is a monitored grain silo belonging to an organization. The min/max
// bounds are operator-configured alerting thresholds; nil means unbounded.
type Silo struct {
	ID             string
	OrgID          string
	Name           string
	Description    string
	Grain          string
	InUse          bool
	MaxTemperature *float64
	MinTemperature *float64
	MaxHumidity    *float64
	MinHumidity    *float64
	MaxAirQuality  *float64
	MinAirQuality  *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
