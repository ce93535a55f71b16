// Package token issues and verifies the two bearer token kinds of the guest
// workflow: long-lived session access tokens and short-lived magic tokens.
// Both are HS256 JWTs; the magic token is additionally persisted on the guest
// row by the caller to enforce single use.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TypeAccess = "access"
	TypeMagic  = "magic"
)

// Claims is the payload carried by both token kinds. Subject is the guest
// code; Email is set on magic tokens only.
type Claims struct {
	jwt.RegisteredClaims
	Type  string `json:"type"`
	Email string `json:"email,omitempty"`
}

// Service signs and verifies guest tokens.
type Service struct {
	secret       []byte
	accessExpire time.Duration
	magicExpire  time.Duration

	// Now is swappable in tests.
	Now func() time.Time
}

func NewService(secret string, accessExpire, magicExpire time.Duration) *Service {
	return &Service{
		secret:       []byte(secret),
		accessExpire: accessExpire,
		magicExpire:  magicExpire,
		Now:          time.Now,
	}
}

// CreateAccess signs a session token for the given guest code.
func (s *Service) CreateAccess(subject string) (string, error) {
	return s.sign(subject, TypeAccess, "", s.accessExpire)
}

// CreateMagic signs a short-lived magic token bound to the email it will be
// sent to.
func (s *Service) CreateMagic(subject, email string) (string, error) {
	return s.sign(subject, TypeMagic, email, s.magicExpire)
}

// VerifyAccess validates signature, expiry and token type. It returns nil on
// any failure without distinguishing why, so callers cannot be used as an
// oracle for what went wrong.
func (s *Service) VerifyAccess(tokenString string) *Claims {
	claims, err := s.parse(tokenString)
	if err != nil || claims.Type != TypeAccess {
		return nil
	}
	return claims
}

// DecodeMagic validates signature, expiry and token type of a magic token.
// Unlike VerifyAccess it returns the error: the endpoint logs decode failures
// differently from already-consumed tokens, even though both end up as 401s.
func (s *Service) DecodeMagic(tokenString string) (*Claims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != TypeMagic {
		return nil, fmt.Errorf("unexpected token type %q", claims.Type)
	}
	return claims, nil
}

func (s *Service) sign(subject, typ, email string, expire time.Duration) (string, error) {
	now := s.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
		},
		Type:  typ,
		Email: email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", typ, err)
	}
	return signed, nil
}

func (s *Service) parse(tokenString string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return s.Now().UTC() }),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	return &claims, nil
}
