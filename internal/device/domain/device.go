package domain

import "time"

// Device is a registered sensor device mounted on a silo.
//
// IsOnline is eventually consistent with actual device behavior: it is set by
// the ingestion bridge on hello and cleared by the liveness monitor on sweep.
// IsOnline=true implies LastSeenAt was within the liveness threshold the last
// time it was evaluated.
type Device struct {
	ID         string
	Name       string
	SiloID     *string // nil when not mounted on a silo
	IsOnline   bool
	LastSeenAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
