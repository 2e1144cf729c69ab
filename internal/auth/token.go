package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DriverClaims is the payload of a driver bearer token: the driver ID plus
// registered expiry. Tokens are stateless; expiry is the only invalidation.
type DriverClaims struct {
	DriverID string `json:"driverId"`
	jwt.RegisteredClaims
}

// TokenManager mints and verifies HS256 driver tokens with a shared secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("auth: empty token secret")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

// Mint issues a signed token for the driver.
func (m *TokenManager) Mint(driverID string) (string, error) {
	now := time.Now()
	claims := &DriverClaims{
		DriverID: driverID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify validates signature and expiry and returns the embedded driver ID.
func (m *TokenManager) Verify(token string) (string, error) {
	claims := &DriverClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.DriverID == "" {
		return "", errors.New("invalid token claims")
	}
	return claims.DriverID, nil
}
