package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wagerpool-backend/internal/config"
)

// JWTService issues and validates principal tokens. The subject claim
// is the caller principal used for every authorization decision.
type JWTService struct {
	secret []byte
}

type PrincipalClaims struct {
	Principal string `json:"principal"`
	jwt.RegisteredClaims
}

func NewJWTService(cfg *config.Config) *JWTService {
	return &JWTService{secret: []byte(cfg.JWTSecret)}
}

func (s *JWTService) IssueToken(principal string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &PrincipalClaims{
		Principal: principal,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) ValidateToken(tokenString string) (*PrincipalClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PrincipalClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*PrincipalClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Principal == "" {
		claims.Principal = claims.Subject
	}
	return claims, nil
}
