// Package auth issues and verifies the bearer tokens that authorise manual
// and scheduler-initiated runs on the worker's trigger endpoint.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token defaults.
const (
	// DefaultIssuer is the iss claim of trigger tokens.
	DefaultIssuer = "sunsetbot"

	// DefaultAudience is the aud claim of trigger tokens.
	DefaultAudience = "sunsetbot-trigger"

	// DefaultTokenTTL is how long a minted trigger token is valid.
	DefaultTokenTTL = 24 * time.Hour
)

// Predefined token errors.
var (
	ErrInvalidToken = errors.New("invalid trigger token")
	ErrTokenExpired = errors.New("trigger token has expired")
	ErrNoSigningKey = errors.New("no signing key configured")
)

// TriggerClaims are the claims of a trigger token.
type TriggerClaims struct {
	jwt.RegisteredClaims
}

// TokenConfig holds configuration for the token service.
type TokenConfig struct {
	// SigningKey is the HS256 secret (required).
	SigningKey string

	// Issuer defaults to DefaultIssuer.
	Issuer string

	// Audience defaults to DefaultAudience.
	Audience string

	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// TokenService mints and validates trigger tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	audience   string
	now        func() time.Time
}

// NewTokenService creates a token service.
func NewTokenService(cfg TokenConfig) *TokenService {
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}
	audience := cfg.Audience
	if audience == "" {
		audience = DefaultAudience
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &TokenService{
		signingKey: []byte(cfg.SigningKey),
		issuer:     issuer,
		audience:   audience,
		now:        now,
	}
}

// Generate mints a token for subject valid for ttl.
func (s *TokenService) Generate(subject string, ttl time.Duration) (string, time.Time, error) {
	if len(s.signingKey) == 0 {
		return "", time.Time{}, ErrNoSigningKey
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := s.now()
	expiresAt := now.Add(ttl)

	claims := TriggerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateTokenID(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing trigger token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Validate verifies a token's signature, issuer, audience and expiry.
func (s *TokenService) Validate(tokenString string) (*TriggerClaims, error) {
	if len(s.signingKey) == 0 {
		return nil, ErrNoSigningKey
	}

	token, err := jwt.ParseWithClaims(tokenString, &TriggerClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*TriggerClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// generateTokenID generates a unique token ID.
func generateTokenID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
