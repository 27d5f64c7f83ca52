package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/ghoulgame/internal/dependencies/clock"
	"github.com/mcoot/ghoulgame/internal/model"
)

// Errors
var (
	ErrInvalidToken = errors.New("invalid or expired token")
)

const tokenIssuer = "ghoulgame"

// Grant is a signed token binding a bearer to one connection
type Grant struct {
	Token        string
	ConnectionID model.ConnectionID
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

type connectionClaims struct {
	jwt.RegisteredClaims
}

// Service issues connection tokens and checks session passwords
type Service struct {
	clock  clock.Clock
	secret []byte
	ttl    time.Duration

	mu      sync.RWMutex
	revoked map[string]time.Time // token id -> expiry
}

// Config holds configuration for the auth service
type Config struct {
	// Secret signs connection tokens. A random secret is generated when empty,
	// which invalidates outstanding tokens on restart.
	Secret   string
	TokenTTL time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		TokenTTL: 12 * time.Hour,
	}
}

// New creates a new AuthService
func New(clock clock.Clock, cfg Config) *Service {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = DefaultConfig().TokenTTL
	}
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
	}
	return &Service{
		clock:   clock,
		secret:  secret,
		ttl:     cfg.TokenTTL,
		revoked: make(map[string]time.Time),
	}
}

// IssueToken signs a token for the connection
func (s *Service) IssueToken(conn model.ConnectionID) (*Grant, error) {
	now := s.clock.Now()
	expires := now.Add(s.ttl)

	claims := connectionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			Subject:   string(conn),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign connection token: %w", err)
	}

	return &Grant{
		Token:        signed,
		ConnectionID: conn,
		IssuedAt:     now,
		ExpiresAt:    expires,
	}, nil
}

// ValidateToken checks the token's signature, expiry and revocation and returns its connection
func (s *Service) ValidateToken(token string) (model.ConnectionID, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	_, revoked := s.revoked[claims.ID]
	s.mu.RUnlock()
	if revoked {
		return "", ErrInvalidToken
	}

	return model.ConnectionID(claims.Subject), nil
}

// RevokeToken invalidates a token before its expiry
func (s *Service) RevokeToken(token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.revoked[claims.ID] = claims.ExpiresAt.Time
	s.mu.Unlock()
	return nil
}

// CleanExpiredRevocations forgets revocations for tokens that have expired anyway (call periodically)
func (s *Service) CleanExpiredRevocations() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, expires := range s.revoked {
		if now.After(expires) {
			delete(s.revoked, id)
		}
	}
}

func (s *Service) parse(token string) (*connectionClaims, error) {
	var claims connectionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil || claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// HashPassword hashes a session password for storage
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a join attempt against a session's password hash.
// An empty hash means the session is open to everyone.
func (s *Service) CheckPassword(hash, password string) error {
	if hash == "" {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return model.ErrWrongPassword
	}
	return nil
}
