package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hivecraft/portal/config"
)

// SessionClaims are the claims carried in a portal session token. The role
// is embedded so the websocket layer can authenticate a connection without
// a storage round trip.
type SessionClaims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// IssueSessionToken creates a signed session token for the given user.
func IssueSessionToken(cfg *config.Config, userId, role, name string) (string, error) {
	if cfg.AuthConfig.JWTSecret == "" {
		return "", fmt.Errorf("no jwt secret configured")
	}
	now := time.Now()
	claims := SessionClaims{
		Role: role,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userId,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AuthConfig.SessionTTL())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.AuthConfig.JWTSecret))
}

// VerifySessionToken validates a session token and returns its claims.
func VerifySessionToken(cfg *config.Config, tokenString string) (*SessionClaims, error) {
	claims := SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.AuthConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return &claims, nil
}
