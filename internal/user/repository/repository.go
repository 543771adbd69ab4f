// Package repository defines persistence for users.
package repository

import (
	"context"

	"silowatch/internal/user/domain"
)

// Repository is the user store. Implementations return nil for missing rows.
// The realtime dispatcher uses GetByID to resolve an authenticated identity to
// its organization scope.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
}
