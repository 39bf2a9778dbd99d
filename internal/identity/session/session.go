// Package session issues and verifies signed session tokens for
// authenticated users, so views carry a verifiable identity instead of a
// persisted "current user" record.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"carebook/internal/identity/models"
	id "carebook/pkg/domain"
	dErrors "carebook/pkg/domain-errors"
)

const issuer = "carebook"

// Claims identify the session holder.
type Claims struct {
	UserID id.UserID `json:"user_id"`
	Role   id.Role   `json:"role"`
	jwt.RegisteredClaims
}

type Issuer struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

type Option func(*Issuer)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

func NewIssuer(signingKey string, ttl time.Duration, opts ...Option) *Issuer {
	i := &Issuer{signingKey: []byte(signingKey), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue signs an HS256 token for user.
func (i *Issuer) Issue(user *models.User) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: user.ID,
		Role:   user.Role(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign session token")
	}
	return signed, nil
}

// Verify checks signature, issuer and expiry and returns the claims.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return i.signingKey, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || !claims.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session claims")
	}
	return claims, nil
}
