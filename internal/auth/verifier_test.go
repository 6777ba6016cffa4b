package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/marketplace-discounts/internal/auth"
	"github.com/noah-isme/marketplace-discounts/internal/common"
)

func signToken(t *testing.T, secret string, subject string, expiresIn time.Duration) string {
	t.Helper()
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Subject(subject).
		IssuedAt(now).
		Expiration(now.Add(expiresIn)).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(secret)))
	require.NoError(t, err)
	return string(signed)
}

func TestParseAccessToken(t *testing.T) {
	t.Parallel()
	verifier := auth.NewVerifier("secret-key")

	subject, err := verifier.ParseAccessToken(signToken(t, "secret-key", "42", time.Hour))
	require.NoError(t, err)
	require.Equal(t, "42", subject)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	t.Parallel()
	verifier := auth.NewVerifier("secret-key")

	_, err := verifier.ParseAccessToken(signToken(t, "secret-key", "42", -time.Hour))
	require.Error(t, err)
	require.True(t, common.IsAppError(err))
}

func TestParseAccessTokenRejectsWrongKey(t *testing.T) {
	t.Parallel()
	verifier := auth.NewVerifier("secret-key")

	_, err := verifier.ParseAccessToken(signToken(t, "other-key", "42", time.Hour))
	require.Error(t, err)
}

func TestRequireAuthMissingToken(t *testing.T) {
	t.Parallel()
	mw := auth.Middleware{Verifier: auth.NewVerifier("secret-key")}
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAuthAttachesUserID(t *testing.T) {
	t.Parallel()
	mw := auth.Middleware{Verifier: auth.NewVerifier("secret-key")}
	var gotUser string
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = common.UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "secret-key", "77", time.Hour))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "77", gotUser)
}
