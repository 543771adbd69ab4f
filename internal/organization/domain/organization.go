package domain

import "time"

// Organization is the tenant boundary: silos, devices (through silos), and
// users all belong to exactly one organization, and all realtime delivery and
// query isolation is enforced at this boundary.
type Organization struct {
	ID          string
	Name        string
	TaxID       string
	Description string
	Address     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
