// Package repository defines persistence for data-process results.
package repository

import (
	"context"

	"silowatch/internal/dataprocess/domain"
)

// Repository is the data-process store. Implementations return nil for missing rows.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.DataProcess, error)
	ListBySilo(ctx context.Context, siloID string) ([]*domain.DataProcess, error)
	Create(ctx context.Context, d *domain.DataProcess) error
	Delete(ctx context.Context, id string) error
}
