package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ScopeRoomsRead is the scope an operator token needs for room introspection
const ScopeRoomsRead = "rooms:read"

var ErrScope = errors.New("token lacks required scope")

type ctxKey int

const subjectKey ctxKey = 1

// WithSubject adds the token subject to the context
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey, sub)
}

// Subject extracts the token subject, "" when the request was not authenticated
func Subject(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey).(string)
	return sub
}

// JWT wraps a signing secret for issuing/verifying operator tokens
type JWT struct{ secret []byte }

// New creates a new JWT signer/verifier.
func New(secret string) *JWT { return &JWT{secret: []byte(secret)} }

// Verify checks signature, expiry and scope; it returns the sub claim
func (j *JWT) Verify(tok, scope string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("no sub")
	}
	if s, _ := claims["scope"].(string); s != scope {
		return "", ErrScope
	}
	return sub, nil
}

// Sign creates a token for sub carrying scope, valid for ttl
func (j *JWT) Sign(sub, scope string, ttl time.Duration) (string, error) {
	if sub == "" {
		return "", errors.New("empty sub")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   sub,
		"scope": scope,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(j.secret)
}
