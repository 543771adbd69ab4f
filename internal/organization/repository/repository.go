// Package repository defines persistence for organizations.
package repository

import (
	"context"

	"silowatch/internal/organization/domain"
)

// Repository is the organization store. Implementations return nil for missing rows.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	List(ctx context.Context) ([]*domain.Organization, error)
	Create(ctx context.Context, o *domain.Organization) error
	Update(ctx context.Context, o *domain.Organization) error
	Delete(ctx context.Context, id string) error
}
