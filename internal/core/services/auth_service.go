package services

import (
	"context"
	"errors"
	"time"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformedToken     = errors.New("malformed token")
	ErrExpiredToken       = errors.New("token expired")
	ErrUnknownSubject     = errors.New("unknown subject")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Claims struct {
	jwt.RegisteredClaims
}

// AuthService verifies bearer credentials and resolves them to principals.
// The token only carries the subject id and validity window; role and team
// are always read from the account store so permission changes apply
// immediately.
type AuthService struct {
	jwtSecret       []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	accounts        ports.AccountRepository
}

func NewAuthService(
	jwtSecret string,
	accessTokenTTL time.Duration,
	refreshTokenTTL time.Duration,
	accounts ports.AccountRepository,
) *AuthService {
	return &AuthService{
		jwtSecret:       []byte(jwtSecret),
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
		accounts:        accounts,
	}
}

func (s *AuthService) GenerateToken(userID domain.UserID) (string, error) {
	return s.signToken(userID, s.accessTokenTTL)
}

func (s *AuthService) GenerateRefreshToken(userID domain.UserID) (string, error) {
	return s.signToken(userID, s.refreshTokenTTL)
}

func (s *AuthService) signToken(userID domain.UserID, ttl time.Duration) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(userID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// Verify validates the bearer credential cryptographically, then resolves
// the subject against the account store. One read-only lookup, safe for
// concurrent use.
func (s *AuthService) Verify(ctx context.Context, bearer string) (*domain.Principal, error) {
	userID, err := s.parseSubject(bearer)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, ErrUnknownSubject
		}
		return nil, err
	}
	if !account.Active {
		return nil, ErrAccountDeactivated
	}

	return account.Principal(), nil
}

// VerifyOptional returns nil for a missing credential and downgrades every
// verification failure to nil. Endpoints that merely behave differently for
// anonymous callers use this instead of Verify.
func (s *AuthService) VerifyOptional(ctx context.Context, bearer string) *domain.Principal {
	if bearer == "" {
		return nil
	}
	principal, err := s.Verify(ctx, bearer)
	if err != nil {
		return nil
	}
	return principal
}

func (s *AuthService) parseSubject(bearer string) (domain.UserID, error) {
	token, err := jwt.ParseWithClaims(bearer, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrMalformedToken
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrMalformedToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrMalformedToken
	}

	return domain.UserID(claims.Subject), nil
}
