package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	jwtSecret = "test-jwt-secret"
	jwtIssuer = "artfolio-auth"
)

func mintToken(t *testing.T, secret, issuer, uid string, ttl time.Duration) string {
	t.Helper()
	claims := &Claims{
		UserID: uid,
		Role:   "user",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func identityEcho() (http.Handler, *string) {
	var got string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserID(r)
		w.WriteHeader(http.StatusNoContent)
	})
	return h, &got
}

func TestIdentity_AnonymousPassesThrough(t *testing.T) {
	echo, got := identityEcho()
	h := NewAuth(jwtSecret, jwtIssuer).Identity(echo)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, *got)
}

func TestIdentity_ValidTokenAttachesUser(t *testing.T) {
	echo, got := identityEcho()
	h := NewAuth(jwtSecret, jwtIssuer).Identity(echo)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+mintToken(t, jwtSecret, jwtIssuer, "user_1", time.Hour))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "user_1", *got)
}

func TestIdentity_BadTokenRejected(t *testing.T) {
	cases := map[string]string{
		"wrong secret": mintToken(t, "other-secret", jwtIssuer, "user_1", time.Hour),
		"wrong issuer": mintToken(t, jwtSecret, "someone-else", "user_1", time.Hour),
		"expired":      mintToken(t, jwtSecret, jwtIssuer, "user_1", -time.Hour),
		"garbage":      "not.a.jwt",
	}
	for name, tok := range cases {
		echo, _ := identityEcho()
		h := NewAuth(jwtSecret, jwtIssuer).Identity(echo)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
	}
}

func TestInternalAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := InternalAuth("s3cret")(next)

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set(HeaderInternalSecret, "s3cret")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// empty configured secret closes the surface
	closed := InternalAuth("")(next)
	r = httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set(HeaderInternalSecret, "")
	w = httptest.NewRecorder()
	closed.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
