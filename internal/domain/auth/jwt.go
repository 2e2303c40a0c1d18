// Package auth provides JWT validation for the request pipeline. Token
// issuance and user registration live outside this service.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"pricedesk/internal/core/appctx"
)

// JWTConfig holds JWT validation configuration.
type JWTConfig struct {
	Secret string
	Issuer string
}

// Claims represents JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	Account string   `json:"account"`
	Phone   string   `json:"phone,omitempty"`
	Roles   []string `json:"roles,omitempty"`
}

// JWTService validates bearer tokens issued by the identity provider.
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config}
}

// ValidateToken validates a JWT and returns the caller context.
func (s *JWTService) ValidateToken(tokenString string) (*appctx.CallerContext, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if s.config.Issuer != "" && claims.Issuer != s.config.Issuer {
		return nil, fmt.Errorf("unexpected issuer")
	}

	account := claims.Account
	if account == "" {
		account = claims.Subject
	}

	return &appctx.CallerContext{
		Account: account,
		Phone:   claims.Phone,
		Roles:   claims.Roles,
	}, nil
}
