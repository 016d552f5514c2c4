package utils

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims are the claims carried by the identity provider's session
// tokens. The subject is the stable user id; sid identifies the session.
type IdentityClaims struct {
	SessionID string `json:"sid"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// UserID returns the stable user identifier from the token subject.
func (c *IdentityClaims) UserID() string {
	return c.Subject
}

// ValidateIdentityToken parses and validates a session token issued by the
// identity provider, signed HS256 with the shared secret.
func ValidateIdentityToken(tokenString, secret string) (*IdentityClaims, error) {
	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return claims, nil
}
