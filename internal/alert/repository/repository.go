// Package repository defines persistence for alerts.
package repository

import (
	"context"

	"silowatch/internal/alert/domain"
)

// Repository is the alert store. Implementations return nil for missing rows.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Alert, error)
	ListBySilo(ctx context.Context, siloID string) ([]*domain.Alert, error)
	Create(ctx context.Context, a *domain.Alert) error
	Delete(ctx context.Context, id string) error
}
