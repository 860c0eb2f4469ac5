// Package auth resolves caller identity from bearer credentials and
// decides owner-or-admin permission for mutating operations.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/citypulse/incident-api/internal/apperr"
)

const tokenTTL = 72 * time.Hour

// Claims is the resolved caller identity carried by a token.
type Claims struct {
	UserID  int  `json:"user_id"`
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// Issue returns a signed token for the given user.
func (t *TokenIssuer) Issue(userID int, isAdmin bool) (string, error) {
	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies a token string and returns its claims.
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorized("invalid or expired token")
	}
	return claims, nil
}

// RequireOwnerOrAdmin fails with Forbidden unless the caller owns the
// entity or has the admin capability.
func RequireOwnerOrAdmin(ownerID, callerID int, isAdmin bool) error {
	if callerID == ownerID || isAdmin {
		return nil
	}
	return apperr.Forbidden("you do not have permission to modify this resource")
}
