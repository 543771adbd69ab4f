package domain

import "time"

// DataProcess is an aggregated processing result for a silo over a period
// (computed by the external analytics pipeline and submitted via the API).
type DataProcess struct {
	ID                 string
	SiloID             string
	PeriodStart        time.Time
	PeriodEnd          time.Time
	AverageTemperature *float64
	AverageHumidity    *float64
	AverageAirQuality  *float64
	EnvironmentScore   *float64
	CreatedAt          time.Time
}
