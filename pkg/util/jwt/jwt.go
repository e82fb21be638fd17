// Package jwt wraps token parsing and issuance. Identity itself is owned by
// an external component; this package only lets the API layer resolve the
// authenticated user id from a bearer token.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type config struct {
	secret            string
	accessTokenExpiry time.Duration
}

var jwtConfig *config

// Init configures the signing secret and access-token lifetime.
func Init(secret string, accessExpiryMinutes int) {
	jwtConfig = &config{
		secret:            secret,
		accessTokenExpiry: time.Duration(accessExpiryMinutes) * time.Minute,
	}
}

// Claims carries the authenticated user id.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateAccessToken issues a short-lived access token for userID.
func GenerateAccessToken(userID string) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(jwtConfig.accessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "ripple_chat",
			Subject:   "access_token",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtConfig.secret))
}

// ParseToken validates tokenString and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtConfig.secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
