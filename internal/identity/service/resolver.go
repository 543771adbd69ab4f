package service

import (
	"context"

	"silowatch/internal/realtime"
	"silowatch/internal/security"
)

// Resolver verifies a bearer credential and resolves the identity to its
// owning organization. It backs viewer authentication for the realtime
// surfaces and the HTTP middleware.
type Resolver struct {
	tokens *security.TokenProvider
	users  UserRepo
}

// NewResolver returns a credential resolver.
func NewResolver(tokens *security.TokenProvider, users UserRepo) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve validates the credential and returns the user and organization it
// belongs to. Expired, malformed, or unknown-subject credentials fail with
// realtime.ErrUnauthorized; orgID is empty for users with no organization.
func (r *Resolver) Resolve(ctx context.Context, credential string) (string, string, error) {
	userID, err := r.tokens.ValidateAccess(credential)
	if err != nil {
		return "", "", realtime.ErrUnauthorized
	}
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	if user == nil {
		return "", "", realtime.ErrUnauthorized
	}
	orgID := ""
	if user.OrgID != nil {
		orgID = *user.OrgID
	}
	return user.ID, orgID, nil
}
