package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for tokens that fail signature or expiry checks
var ErrInvalidToken = errors.New("invalid session token")

const issuer = "webgis-dashboard"

// Signer issues and verifies signed session tokens. A token only names a
// session; it grants no other access.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a HS256 signer
func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a new session id and its token
func (s *Signer) Issue() (id string, token string, err error) {
	id = uuid.NewString()
	token, err = s.Sign(id)
	return id, token, err
}

// Sign creates a token for an existing session id
func (s *Signer) Sign(id string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        id,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

// Parse verifies a token and returns its session id
func (s *Signer) Parse(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}
	return claims.ID, nil
}

// Renew re-signs id when expiresAt is less than half the TTL away and
// reports whether it did
func (s *Signer) Renew(id string, expiresAt time.Time) (string, bool, error) {
	if expiresAt.Sub(s.now()) >= s.ttl/2 {
		return "", false, nil
	}
	token, err := s.Sign(id)
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

func (s *Signer) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing session id", ErrInvalidToken)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}
	return claims, nil
}
