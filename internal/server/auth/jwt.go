// Package auth implements the token issuer: HS256 access tokens carrying
// identity claims, opaque refresh identifiers, and password hashing.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmaltsev/tasklist/internal/common"
	"github.com/dmaltsev/tasklist/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access-token claim set: registered claims (sub=email, iat,
// exp) plus the user number and role.
type Claims struct {
	jwt.RegisteredClaims
	UserNo int64  `json:"userNo"`
	Role   string `json:"role"`
}

// Identity is what a valid access token proves about its bearer.
type Identity struct {
	UserNo int64
	Email  string
	Role   models.Role
}

// GenerateAccessToken mints a signed access token with expiry now+validity.
func GenerateAccessToken(userNo int64, email string, role models.Role, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserNo: userNo,
		Role:   string(role),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseAccessToken verifies signature and expiry and returns the identity
// claims. Expired tokens yield common.ErrTokenExpired; every other failure
// (malformed, wrong signature, unexpected algorithm) is reported as
// common.ErrInvalidToken with the cause attached for logging.
func ParseAccessToken(tokenString string, secretKey []byte) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return &Identity{
		UserNo: claims.UserNo,
		Email:  claims.Subject,
		Role:   models.Role(claims.Role),
	}, nil
}

// NewRefreshToken returns a fresh opaque refresh identifier: 32 random
// bytes hex-encoded, 256 bits of entropy.
func NewRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}
