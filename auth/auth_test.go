package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_RoundTrip(t *testing.T) {
	s := NewSessions("secret", time.Hour, nil)
	tok, err := s.Token(42)
	require.NoError(t, err)

	uid, err := s.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), uid)

	other := NewSessions("other-secret", time.Hour, nil)
	_, err = other.ParseToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestToken_Expired(t *testing.T) {
	s := NewSessions("secret", time.Minute, nil)
	start := time.Now()
	s.now = func() time.Time { return start }
	tok, err := s.Token(1)
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = s.ParseToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware_CookieAndBearer(t *testing.T) {
	s := NewSessions("secret", time.Hour, nil)
	var seen uint
	h := s.Middleware(s.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
	})))

	rec := httptest.NewRecorder()
	tok, err := s.CreateSession(rec, 7)
	require.NoError(t, err)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(7), seen)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_VerifierRejectsDeletedUser(t *testing.T) {
	s := NewSessions("secret", time.Hour, func(context.Context, uint) bool { return false })
	h := s.Middleware(s.RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler must not run")
	})))
	tok, err := s.Token(3)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
