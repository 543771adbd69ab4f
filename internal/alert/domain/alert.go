package domain

import "time"

// Type is the monitored quantity that triggered the alert.
type Type string

const (
	TypeTemperature Type = "temperature"
	TypeHumidity    Type = "humidity"
	TypeAirQuality  Type = "airQuality"
)

// Level is the alert severity.
type Level string

const (
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// Alert is a threshold violation recorded for a silo.
type Alert struct {
	ID           string
	SiloID       string
	Type         Type
	Level        Level
	CurrentValue *float64
	Message      string
	CreatedAt    time.Time
}
