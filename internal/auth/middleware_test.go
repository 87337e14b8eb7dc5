package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/yottapay-acquirer/internal/auth"
	"github.com/noah-isme/yottapay-acquirer/internal/common"
)

const testSecret = "test-secret-test-secret-12345678"

func signedToken(t *testing.T, subject string, expiresIn time.Duration) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Subject(subject).
		Issuer("shop-backend").
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(expiresIn)).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(testSecret)))
	require.NoError(t, err)
	return string(signed)
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	verifier, err := auth.NewTokenVerifier(testSecret, "shop-backend", "", time.Minute)
	require.NoError(t, err)
	mw := auth.Middleware{Verifier: verifier}

	var gotSubject string
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = common.Subject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/ORD-1", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "merchant-1", time.Hour))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "merchant-1", gotSubject)
}

func TestRequireAuthRejections(t *testing.T) {
	t.Parallel()

	verifier, err := auth.NewTokenVerifier(testSecret, "shop-backend", "", 0)
	require.NoError(t, err)
	mw := auth.Middleware{Verifier: verifier}
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := map[string]string{
		"no header":     "",
		"not bearer":    "Basic abc",
		"garbage token": "Bearer not.a.token",
		"expired":       "Bearer " + signedToken(t, "merchant-1", -time.Hour),
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/ORD-1", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusUnauthorized, rr.Code, name)
	}
}
