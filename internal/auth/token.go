package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chetan-code/concentraction/internal/apperrors"
	"github.com/chetan-code/concentraction/internal/models"
)

// TokenCodec signs and verifies identity tokens with a process-wide HS256 secret.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec builds a codec. A zero ttl issues tokens without expiry.
func NewTokenCodec(secret []byte, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock overrides the clock used for iat/exp.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	if now != nil {
		c.now = now
	}
	return c
}

// Sign binds accountID into a compact signed token.
func (c *TokenCodec) Sign(accountID string) (string, error) {
	if len(c.secret) == 0 {
		return "", errors.New("token secret is not configured")
	}
	issued := c.now()
	claims := &models.Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(issued),
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(issued.Add(c.ttl))
	}

	//create the token using hs256 algo
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the account id bound in token, or a CodeInvalidToken error.
func (c *TokenCodec) Verify(tokenString string) (string, error) {
	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInvalidToken, "invalid token", err)
	}
	if !token.Valid || claims.AccountID == "" {
		return "", apperrors.New(apperrors.CodeInvalidToken, "invalid token")
	}

	return claims.AccountID, nil
}
