// Package service implements password login and bearer-credential resolution.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"silowatch/internal/security"
	userdomain "silowatch/internal/user/domain"
)

// ErrInvalidCredentials is returned for a failed login. The handler maps it to
// a 401 without distinguishing unknown email from wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthResult holds the outcome of a successful login.
type AuthResult struct {
	AccessToken string
	ExpiresAt   time.Time
	UserID      string
	OrgID       string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// AuthService implements password login.
type AuthService struct {
	users  UserRepo
	hasher *security.Hasher
	tokens *security.TokenProvider
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(users UserRepo, hasher *security.Hasher, tokens *security.TokenProvider) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens}
}

// Login authenticates with email/password and returns an access token bound to
// the user's organization.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	orgID := ""
	if user.OrgID != nil {
		orgID = *user.OrgID
	}
	token, expiresAt, err := s.tokens.IssueAccess(user.ID, orgID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		UserID:      user.ID,
		OrgID:       orgID,
	}, nil
}
