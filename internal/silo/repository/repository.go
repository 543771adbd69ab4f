// Package repository defines persistence for silos.
package repository

import (
	"context"

	"silowatch/internal/silo/domain"
)

// Repository is the silo store. Implementations return nil for missing rows.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Silo, error)
	List(ctx context.Context) ([]*domain.Silo, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Silo, error)
	Create(ctx context.Context, s *domain.Silo) error
	Update(ctx context.Context, s *domain.Silo) error
	Delete(ctx context.Context, id string) error
}
