package service

import (
	"time"

	"typerace/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail signature, method or expiry checks
var ErrInvalidToken = &model.Error{Kind: model.KindUnauthenticated, Code: "unauthenticated", Message: "invalid or expired token"}

// AuthService issues and validates the bearer tokens shared by all services
type AuthService struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewAuthService creates a token service. A zero ttl issues tokens without expiry.
func NewAuthService(secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		jwtSecret: []byte(secret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// IssueToken signs a token for the user
func (s *AuthService) IssueToken(user model.UserInfo) (string, error) {
	now := s.now()
	claims := &model.UserClaims{
		ID:       user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  user.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken parses a token and returns its claims
func (s *AuthService) ValidateToken(tokenString string) (*model.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.UserClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
