package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/prefect-field/jobtrack/internal/db/models"
	"github.com/prefect-field/jobtrack/internal/workflow"
)

// ErrInvalidToken is returned for missing, malformed, expired or wrongly signed tokens
var ErrInvalidToken = errors.New("invalid session token")

const tokenIssuer = "jobtrack"

// Claims is the session token body
type Claims struct {
	Role     string `json:"role"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Auth issues and verifies HS256 session tokens
type Auth struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService creates an Auth with the shared signing secret
func NewAuthService(secret string, ttl time.Duration) *Auth {
	return &Auth{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for user. The subject is the user id, which is what jobs are assigned to.
func (a *Auth) Issue(user *models.User) (string, time.Time, error) {
	now := a.now().UTC()
	expires := now.Add(a.ttl)
	claims := Claims{
		Role:     user.Role.String(),
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.UserID(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses a token and returns the actor it was issued to
func (a *Auth) Verify(token string) (workflow.Actor, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return workflow.Actor{}, errors.Join(ErrInvalidToken, err)
	}

	role, err := models.ParseUserRole(claims.Role)
	if err != nil {
		return workflow.Actor{}, errors.Join(ErrInvalidToken, err)
	}
	if _, err := strconv.ParseUint(claims.Subject, 10, 64); err != nil {
		return workflow.Actor{}, errors.Join(ErrInvalidToken, fmt.Errorf("bad subject %q", claims.Subject))
	}
	return workflow.Actor{UserID: claims.Subject, Role: role}, nil
}
