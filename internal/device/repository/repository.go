// Package repository defines persistence for the device registry.
package repository

import (
	"context"
	"time"

	"silowatch/internal/device/domain"
)

// Repository is the device registry contract. Implementations return nil (not
// an error) for missing rows.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Device, error)
	List(ctx context.Context) ([]*domain.Device, error)
	ListOnlineBySilo(ctx context.Context, siloID string) ([]*domain.Device, error)
	Create(ctx context.Context, d *domain.Device) error
	Update(ctx context.Context, d *domain.Device) error
	Delete(ctx context.Context, id string) error

	// SetOnline marks the device online and updates last_seen_at. Used by the
	// ingestion bridge on hello.
	SetOnline(ctx context.Context, id string, at time.Time) error
	// FindStale returns devices with is_online=true whose last_seen_at is older
	// than the cutoff. Used by the liveness monitor.
	FindStale(ctx context.Context, cutoff time.Time) ([]*domain.Device, error)
	// MarkOfflineIfUnseen flips is_online to false only if last_seen_at still
	// equals seenAt, so a hello racing the sweep is never clobbered. Returns
	// whether a row was updated.
	MarkOfflineIfUnseen(ctx context.Context, id string, seenAt time.Time) (bool, error)
	// OrgID resolves the owning organization through the device's silo.
	// Returns "" when the device is unknown or not mounted on a silo.
	OrgID(ctx context.Context, deviceID string) (string, error)
}
