// Package security provides JWT verification for viewer credentials, PEM key
// loading, and password hashing for seeded users.
package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is missing, malformed, expired, or
	// signed with the wrong key.
	ErrInvalidToken = errors.New("invalid token")
)

// AccessClaims holds JWT claims for a viewer access token. Subject is the user id.
type AccessClaims struct {
	jwt.RegisteredClaims
	OrgID string `json:"org_id,omitempty"`
}

// TokenProvider verifies viewer access tokens using RS256 or ES256. When a
// private key is configured it can also issue tokens (seed and development use).
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	accessTTL  time.Duration
}

// NewTokenProvider returns a TokenProvider. privateKey may be nil for
// verify-only use (the realtime dispatcher only ever verifies).
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, accessTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
	}
}

// IssueAccess issues a short-lived access JWT for the given user and org.
// Returns ErrInvalidToken if no private key is configured.
func (p *TokenProvider) IssueAccess(userID, orgID string) (token string, expiresAt time.Time, err error) {
	if p.privateKey == nil {
		return "", time.Time{}, ErrInvalidToken
	}
	now := time.Now().UTC()
	expiresAt = now.Add(p.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		OrgID: orgID,
	}
	var method jwt.SigningMethod
	switch p.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", time.Time{}, ErrInvalidToken
	}
	token, err = jwt.NewWithClaims(method, claims).SignedString(p.privateKey)
	return token, expiresAt, err
}

// ValidateAccess verifies the token signature, issuer, audience, and expiry,
// and returns the user id (sub claim). Returns ErrInvalidToken on any failure.
func (p *TokenProvider) ValidateAccess(token string) (userID string, err error) {
	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			switch t.Method.(type) {
			case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
				return p.publicKey, nil
			default:
				return nil, ErrInvalidToken
			}
		},
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
