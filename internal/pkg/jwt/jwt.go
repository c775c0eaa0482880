// Package jwt verifies bearer tokens issued by the identity service.
// Tokens are HS256 JWTs signed with the project's JWT secret.
package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

const (
	RoleAdmin   = "admin"
	RoleScanner = "scanner"

	audienceAuthenticated = "authenticated"
)

// AppMetadata is the operator-controlled part of the token.
type AppMetadata struct {
	Role string `json:"role,omitempty"`
}

// Claims mirrors the identity service's access token.
type Claims struct {
	Email       string      `json:"email,omitempty"`
	Role        string      `json:"role,omitempty"`
	AppMetadata AppMetadata `json:"app_metadata"`
	jwt.RegisteredClaims
}

// Identity is the authenticated operator behind a request.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
}

// AppRole returns the role used for authorization. Operators without an
// explicit app role are administrators.
func AppRole(appRole string) string {
	if appRole == "" {
		return RoleAdmin
	}
	return appRole
}

// Service handles JWT operations
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates JWT service
func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl}
}

// GenerateAccessToken signs a token the way the identity service does.
// Used by tooling and tests.
func (s *Service) GenerateAccessToken(userID, email, appRole string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:       email,
		Role:        audienceAuthenticated,
		AppMetadata: AppMetadata{Role: appRole},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{audienceAuthenticated},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateAccessToken validates and parses access token
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithAudience(audienceAuthenticated))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Verify implements the middleware's token verifier.
func (s *Service) Verify(_ context.Context, tokenString string) (*Identity, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   AppRole(claims.AppMetadata.Role),
	}, nil
}
