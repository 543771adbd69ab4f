package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"silowatch/internal/realtime"
	"silowatch/internal/security"
	userdomain "silowatch/internal/user/domain"
)

type fakeUserRepo struct {
	byEmail map[string]*userdomain.User
	byID    map[string]*userdomain.User
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	return f.byID[id], nil
}

func testTokens(t *testing.T, ttl time.Duration) *security.TokenProvider {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return security.NewTokenProvider(key, key.Public(), "silowatch", "silowatch-viewers", ttl)
}

func seededRepo(t *testing.T, hasher *security.Hasher) *fakeUserRepo {
	t.Helper()
	hash, err := hasher.Hash([]byte("correct horse battery"))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	org := "org-1"
	u := &userdomain.User{ID: "user-1", OrgID: &org, Email: "op@example.com", PasswordHash: hash}
	return &fakeUserRepo{
		byEmail: map[string]*userdomain.User{"op@example.com": u},
		byID:    map[string]*userdomain.User{"user-1": u},
	}
}

func TestLoginAndResolve(t *testing.T) {
	hasher := security.NewHasher(4)
	tokens := testTokens(t, time.Hour)
	users := seededRepo(t, hasher)
	auth := NewAuthService(users, hasher, tokens)

	res, err := auth.Login(context.Background(), "Op@Example.com ", "correct horse battery")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.OrgID != "org-1" || res.UserID != "user-1" || res.AccessToken == "" {
		t.Errorf("unexpected result %+v", res)
	}

	resolver := NewResolver(tokens, users)
	userID, orgID, err := resolver.Resolve(context.Background(), res.AccessToken)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if userID != "user-1" || orgID != "org-1" {
		t.Errorf("Resolve = (%q, %q)", userID, orgID)
	}
}

func TestLogin_BadPassword(t *testing.T) {
	hasher := security.NewHasher(4)
	auth := NewAuthService(seededRepo(t, hasher), hasher, testTokens(t, time.Hour))

	if _, err := auth.Login(context.Background(), "op@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, err := auth.Login(context.Background(), "nobody@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v", err)
	}
}

func TestResolve_ExpiredCredentialRejected(t *testing.T) {
	hasher := security.NewHasher(4)
	tokens := testTokens(t, -time.Minute)
	users := seededRepo(t, hasher)

	expired, _, err := tokens.IssueAccess("user-1", "org-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	resolver := NewResolver(tokens, users)
	if _, _, err := resolver.Resolve(context.Background(), expired); !errors.Is(err, realtime.ErrUnauthorized) {
		t.Errorf("expired credential: got %v, want ErrUnauthorized", err)
	}
}

func TestResolve_UnknownSubjectRejected(t *testing.T) {
	hasher := security.NewHasher(4)
	tokens := testTokens(t, time.Hour)

	token, _, err := tokens.IssueAccess("deleted-user", "org-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	resolver := NewResolver(tokens, seededRepo(t, hasher))
	if _, _, err := resolver.Resolve(context.Background(), token); !errors.Is(err, realtime.ErrUnauthorized) {
		t.Errorf("unknown subject: got %v, want ErrUnauthorized", err)
	}
}
