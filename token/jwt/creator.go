package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"

	DefaultAccessTokenExpiry  = 15 * time.Minute
	DefaultRefreshTokenExpiry = 7 * 24 * time.Hour
)

// Creator mints HS256 tokens carrying the same claims as the API's (sub, type, iat, exp, jti).
// The portal never signs tokens itself; stand-in APIs use it to hand out realistic ones.
type Creator struct {
	key           []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

type CreatorOption func(*Creator)

func WithExpiries(access, refresh time.Duration) CreatorOption {
	return func(c *Creator) {
		c.accessExpiry = access
		c.refreshExpiry = refresh
	}
}

// NewCreator creates a new JWT creator
func NewCreator(key []byte, options ...CreatorOption) *Creator {
	c := &Creator{
		key:           key,
		accessExpiry:  DefaultAccessTokenExpiry,
		refreshExpiry: DefaultRefreshTokenExpiry,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Creator) CreateAccessToken(sub string) (string, error) {
	return c.create(sub, TypeAccess, c.accessExpiry)
}

func (c *Creator) CreateRefreshToken(sub string) (string, error) {
	return c.create(sub, TypeRefresh, c.refreshExpiry)
}

// CreatePair returns an access and a refresh token for sub
func (c *Creator) CreatePair(sub string) (access, refresh string, err error) {
	if access, err = c.CreateAccessToken(sub); err != nil {
		return "", "", err
	}
	if refresh, err = c.CreateRefreshToken(sub); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (c *Creator) create(sub, tokenType string, expiry time.Duration) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"sub":  sub,                    // The user the token was issued to
		"type": tokenType,              // "access" or "refresh"
		"iat":  now.Unix(),             // Issued At
		"exp":  now.Add(expiry).Unix(), // Expiry
		"jti":  uuid.New().String(),    // Unique token ID, keeps two tokens minted in the same second apart
	}

	signedToken, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signedToken, nil
}
