package http

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/broseidonlordofthebrocean/hedge/internal/config"
)

func generateTestKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return priv, string(pemBytes)
}

func signTestToken(t *testing.T, priv *rsa.PrivateKey, issuer string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": "user-1",
		"iss": issuer,
		"exp": expiresAt.Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := tok.SignedString(priv)
	require.NoError(t, err)
	return signed
}

func passthrough() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_MissingEnvRejectsEverything(t *testing.T) {
	auth, err := newAuthMiddleware(config.AuthConfig{JWTPublicKeyEnv: "HEDGE_JWT_PUBLIC_KEY_UNSET", Issuer: "hedge"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	auth.middleware(passthrough()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_MissingBearerHeaderRejected(t *testing.T) {
	priv, pemKey := generateTestKeyPair(t)
	_ = priv
	t.Setenv("HEDGE_JWT_PUBLIC_KEY", pemKey)

	auth, err := newAuthMiddleware(config.AuthConfig{JWTPublicKeyEnv: "HEDGE_JWT_PUBLIC_KEY", Issuer: "hedge"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	rec := httptest.NewRecorder()
	auth.middleware(passthrough()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_ValidTokenPassesThrough(t *testing.T) {
	priv, pemKey := generateTestKeyPair(t)
	t.Setenv("HEDGE_JWT_PUBLIC_KEY", pemKey)

	auth, err := newAuthMiddleware(config.AuthConfig{JWTPublicKeyEnv: "HEDGE_JWT_PUBLIC_KEY", Issuer: "hedge"})
	require.NoError(t, err)

	token := signTestToken(t, priv, "hedge", time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	auth.middleware(passthrough()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_ExpiredTokenRejected(t *testing.T) {
	priv, pemKey := generateTestKeyPair(t)
	t.Setenv("HEDGE_JWT_PUBLIC_KEY", pemKey)

	auth, err := newAuthMiddleware(config.AuthConfig{JWTPublicKeyEnv: "HEDGE_JWT_PUBLIC_KEY", Issuer: "hedge"})
	require.NoError(t, err)

	token := signTestToken(t, priv, "hedge", time.Now().Add(-time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	auth.middleware(passthrough()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_WrongIssuerRejected(t *testing.T) {
	priv, pemKey := generateTestKeyPair(t)
	t.Setenv("HEDGE_JWT_PUBLIC_KEY", pemKey)

	auth, err := newAuthMiddleware(config.AuthConfig{JWTPublicKeyEnv: "HEDGE_JWT_PUBLIC_KEY", Issuer: "hedge"})
	require.NoError(t, err)

	token := signTestToken(t, priv, "someone-else", time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	auth.middleware(passthrough()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_WrongKeyRejected(t *testing.T) {
	_, pemKey := generateTestKeyPair(t)
	otherPriv, _ := generateTestKeyPair(t)
	t.Setenv("HEDGE_JWT_PUBLIC_KEY", pemKey)

	auth, err := newAuthMiddleware(config.AuthConfig{JWTPublicKeyEnv: "HEDGE_JWT_PUBLIC_KEY", Issuer: "hedge"})
	require.NoError(t, err)

	token := signTestToken(t, otherPriv, "hedge", time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/companies", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	auth.middleware(passthrough()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
