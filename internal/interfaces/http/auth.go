package httpinterface

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nftswap/swapd/internal/core/domain"
)

type contextKey string

const callerKey contextKey = "caller"

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid token")
)

// NewPartyToken returns an HS256 token identifying the given wallet address.
// A non positive ttl makes the token never expire.
func NewPartyToken(secret []byte, address string, ttl time.Duration) (string, error) {
	addr, err := domain.NormalizeAddress(address)
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  addr,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// parsePartyToken verifies the token and returns the wallet address of its
// subject.
func parsePartyToken(secret []byte, raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(
		raw, claims,
		func(*jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}
	address, err := domain.NormalizeAddress(claims.Subject)
	if err != nil {
		return "", fmt.Errorf("%w: bad subject", errInvalidToken)
	}
	return address, nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// authenticate makes the wallet address of the token's subject available to
// the handlers as the caller.
func (s *server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, errMissingToken)
			return
		}
		address, err := parsePartyToken(s.opts.JWTSecret, raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		ctx := context.WithValue(r.Context(), callerKey, address)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireOperator guards the operator endpoints with the static operator
// token. Without a configured token the endpoints are disabled.
func (s *server) requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, errMissingToken)
			return
		}
		expected := s.opts.OperatorToken
		if expected == "" ||
			subtle.ConstantTimeCompare([]byte(raw), []byte(expected)) != 1 {
			writeError(w, http.StatusUnauthorized, errInvalidToken)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerFromContext(ctx context.Context) string {
	caller, _ := ctx.Value(callerKey).(string)
	return caller
}
