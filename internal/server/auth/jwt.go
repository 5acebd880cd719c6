// Package auth implements the credential primitives of the server:
// the JWT token codec and the password hasher.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the registered claims plus the account role. The subject
// claim holds the username.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenInfo is the identity recovered from a valid token.
type TokenInfo struct {
	UserName string
	Role     string
}

// GenerateToken mints a signed HS256 token bound to the given username and
// role, valid for validityDuration from now. Every token gets a distinct
// ID claim, so a future denylist could key on it without a format change.
func GenerateToken(userName string, role string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userName,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Role: role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies signature and expiry and extracts the identity claims.
// Failures map to common.ErrTokenExpired, common.ErrTokenSignature, or
// common.ErrTokenMalformed; callers treat all three as unauthenticated.
func ParseToken(tokenString string, secretKey []byte) (*TokenInfo, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, common.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, common.ErrTokenSignature
		default:
			return nil, common.ErrTokenMalformed
		}
	}

	if !token.Valid {
		return nil, common.ErrTokenMalformed
	}

	return &TokenInfo{UserName: claims.Subject, Role: claims.Role}, nil
}
