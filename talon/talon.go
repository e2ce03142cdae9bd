// Package talon verifies caller identities using signed bearer tokens.
package talon

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/256dpi/xo"
	"github.com/golang-jwt/jwt/v4"

	"github.com/hootbox/hootbox/roost"
)

// ErrInvalidToken is returned if a token is in some way invalid.
var ErrInvalidToken = xo.F("invalid token")

// ErrExpiredToken is returned if a token is expired but otherwise valid.
var ErrExpiredToken = xo.F("expired token")

var signingMethod = jwt.SigningMethodHS256

var parser = jwt.NewParser(jwt.WithValidMethods([]string{signingMethod.Name}))

// Identity describes a verified user.
type Identity struct {
	ID   roost.ID
	Name string
}

type claims struct {
	jwt.RegisteredClaims
	Name string `json:"nam,omitempty"`
}

// Notary issues and verifies identity tokens.
type Notary struct {
	issuer string
	secret []byte
}

// NewNotary creates a new notary with the specified issuer and secret. It
// will panic if the issuer is missing or the secret is shorter than 16 bytes.
func NewNotary(issuer string, secret []byte) *Notary {
	// check issuer
	if issuer == "" {
		panic("talon: missing issuer")
	}

	// check secret
	if len(secret) < 16 {
		panic("talon: secret too small")
	}

	return &Notary{
		issuer: issuer,
		secret: secret,
	}
}

// Issue will sign a token carrying the specified identity.
func (n *Notary) Issue(identity Identity, expiry time.Duration) (string, error) {
	// check id
	if identity.ID.IsZero() {
		return "", xo.F("missing id")
	}

	// get time
	now := time.Now()

	// create token
	token := jwt.NewWithClaims(signingMethod, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    n.issuer,
			Subject:   identity.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Name: identity.Name,
	})

	// sign token
	str, err := token.SignedString(n.secret)
	if err != nil {
		return "", xo.W(err)
	}

	return str, nil
}

// Verify will verify the provided token and return the identity it carries.
func (n *Notary) Verify(str string) (Identity, error) {
	// parse token
	var c claims
	token, err := parser.ParseWithClaims(str, &c, func(_ *jwt.Token) (interface{}, error) {
		return n.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, ErrInvalidToken
	} else if !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	// check issuer
	if c.Issuer != n.issuer {
		return Identity{}, ErrInvalidToken
	}

	// get id
	id, err := roost.FromHex(c.Subject)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		ID:   id,
		Name: c.Name,
	}, nil
}

type contextKey struct{}

var identityKey = contextKey{}

// Protect returns a middleware that verifies bearer tokens using the notary
// and stores the carried identity in the request context. Requests without a
// valid token are rejected before the next handler runs.
func Protect(notary *Notary) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// get authorization header
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				deny(w)
				return
			}

			// verify token
			identity, err := notary.Verify(strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				deny(w)
				return
			}

			// store identity
			ctx := context.WithValue(r.Context(), identityKey, identity)

			// call next handler
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Use will return the identity stored in the context.
func Use(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

func deny(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthenticated"}` + "\n"))
}
