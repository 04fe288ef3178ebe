package http

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/broseidonlordofthebrocean/hedge/internal/config"
)

// authMiddleware validates the bearer token's signature, issuer, and
// expiry on every /api/v1 route. Issuing tokens and subscription tiers are
// out of scope — this only enforces the 401/403 boundary spec.md's REST
// surface implies.
type authMiddleware struct {
	publicKey *rsa.PublicKey
	issuer    string
}

func newAuthMiddleware(cfg config.AuthConfig) (*authMiddleware, error) {
	keyPEM := os.Getenv(cfg.JWTPublicKeyEnv)
	if keyPEM == "" {
		log.Warn().Str("env", cfg.JWTPublicKeyEnv).Msg("JWT public key not set, auth middleware will reject all requests")
		return &authMiddleware{issuer: cfg.Issuer}, nil
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(keyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse JWT public key from %s: %w", cfg.JWTPublicKeyEnv, err)
	}
	return &authMiddleware{publicKey: key, issuer: cfg.Issuer}, nil
}

type subjectContextKey struct{}

func (a *authMiddleware) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.publicKey == nil {
			writeAuthError(w, r, "auth not configured")
			return
		}

		header := r.Header.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			writeAuthError(w, r, "missing bearer token")
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Method.Alg())
			}
			return a.publicKey, nil
		}, jwt.WithIssuer(a.issuer))
		if err != nil || !token.Valid {
			writeAuthError(w, r, "invalid or expired token")
			return
		}

		subject, _ := claims.GetSubject()
		ctx := context.WithValue(r.Context(), subjectContextKey{}, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeAuthError(w http.ResponseWriter, r *http.Request, reason string) {
	requestID, _ := r.Context().Value("request_id").(string)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":"unauthorized","message":%q,"request_id":%q}`, reason, requestID)
}
