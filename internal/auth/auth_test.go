package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RussellAbraham/tinyapp/internal/logger"
	"github.com/RussellAbraham/tinyapp/internal/user"
)

type stubUserGetter struct {
	users map[string]*user.User
}

func (s *stubUserGetter) GetUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	usr, found := s.users[userID]
	return usr, found, nil
}

func newTestAuth(t *testing.T, sessionTTL time.Duration) *Auth {
	t.Helper()
	require.NoError(t, logger.Init("error"))

	db := &stubUserGetter{
		users: map[string]*user.User{
			"user1": {ID: "user1", Email: "user@example.com"},
		},
	}

	return New(db, "tinyapp_session", []byte("test-secret"), sessionTTL)
}

func sessionCookie(t *testing.T, recorder *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == "tinyapp_session" {
			return cookie
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func resolvedUser(a *Auth, cookie *http.Cookie) *user.User {
	var resolved *user.User
	handler := a.ResolveUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved, _ = UserFromContext(r.Context())
	}))

	request := httptest.NewRequest(http.MethodGet, "/urls", nil)
	if cookie != nil {
		request.AddCookie(cookie)
	}
	handler.ServeHTTP(httptest.NewRecorder(), request)

	return resolved
}

func TestSessionRoundTrip(t *testing.T) {
	a := newTestAuth(t, time.Hour)

	recorder := httptest.NewRecorder()
	require.NoError(t, a.EstablishSession(recorder, "user1"))

	cookie := sessionCookie(t, recorder)
	assert.True(t, cookie.HttpOnly)

	resolved := resolvedUser(a, cookie)
	require.NotNil(t, resolved)
	assert.Equal(t, "user1", resolved.ID)
	assert.Equal(t, "user@example.com", resolved.Email)
}

func TestExpiredSessionIsAnonymous(t *testing.T) {
	a := newTestAuth(t, -time.Hour)

	recorder := httptest.NewRecorder()
	require.NoError(t, a.EstablishSession(recorder, "user1"))

	assert.Nil(t, resolvedUser(a, sessionCookie(t, recorder)))
}

func TestTamperedSessionIsAnonymous(t *testing.T) {
	a := newTestAuth(t, time.Hour)

	recorder := httptest.NewRecorder()
	require.NoError(t, a.EstablishSession(recorder, "user1"))

	cookie := sessionCookie(t, recorder)
	cookie.Value += "tampered"

	assert.Nil(t, resolvedUser(a, cookie))
}

func TestUnknownUserCookieIsAnonymous(t *testing.T) {
	a := newTestAuth(t, time.Hour)

	recorder := httptest.NewRecorder()
	require.NoError(t, a.EstablishSession(recorder, "ghost"))

	assert.Nil(t, resolvedUser(a, sessionCookie(t, recorder)))
}

func TestMissingCookieIsAnonymous(t *testing.T) {
	a := newTestAuth(t, time.Hour)

	assert.Nil(t, resolvedUser(a, nil))
}

func TestClearSession(t *testing.T) {
	a := newTestAuth(t, time.Hour)

	recorder := httptest.NewRecorder()
	a.ClearSession(recorder)

	cookie := sessionCookie(t, recorder)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestAnonymousRequestPassesThrough(t *testing.T) {
	a := newTestAuth(t, time.Hour)

	handler := a.ResolveUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "hello")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/urls", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "hello", recorder.Body.String())
}
