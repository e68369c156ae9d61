package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// jwtKey signs session tokens. The store is process-local, so the key
// only has to be stable for the process lifetime.
var jwtKey = []byte("chathub_local_session_signing_key")

// SessionClaims is the data carried inside a session token.
type SessionClaims struct {
	Handle string `json:"handle"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed session token for a handle.
func GenerateToken(handle string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		Handle: handle,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "chathub",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// ValidateToken parses a token and verifies its signature and expiry.
func ValidateToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(*jwt.Token) (interface{}, error) {
		return jwtKey, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
