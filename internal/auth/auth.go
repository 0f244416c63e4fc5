// Package auth manages browser sessions. A session is a signed JWT carried
// in a cookie and holding nothing but the authenticated user's ID; an
// absent, invalid or expired cookie means the request is anonymous.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RussellAbraham/tinyapp/internal/logger"
	"github.com/RussellAbraham/tinyapp/internal/user"
)

type userGetter interface {
	GetUserByID(ctx context.Context, userID string) (*user.User, bool, error)
}

// Auth issues, clears and resolves session cookies.
type Auth struct {
	db userGetter

	// authCookieName is the name of the cookie used to store the JWT.
	authCookieName string

	// authCookieSigningSecretKey is the key used to sign JWTs.
	authCookieSigningSecretKey []byte

	// sessionTTL is how long an issued session stays valid.
	sessionTTL time.Duration
}

// Claims are the JWT claims of a session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserKey is the context key under which the resolved user is stored.
const UserKey ContextKey = "currentUser"

// New creates an Auth with the given user lookup, cookie name, signing key
// and session lifetime.
func New(
	db userGetter,
	authCookieName string,
	authCookieSigningSecretKey []byte,
	sessionTTL time.Duration,
) *Auth {
	return &Auth{
		db:                         db,
		authCookieName:             authCookieName,
		authCookieSigningSecretKey: authCookieSigningSecretKey,
		sessionTTL:                 sessionTTL,
	}
}

// EstablishSession sets a signed session cookie identifying userID.
func (a *Auth) EstablishSession(response http.ResponseWriter, userID string) error {
	now := time.Now()
	expiresAt := now.Add(a.sessionTTL)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.authCookieSigningSecretKey)
	if err != nil {
		return err
	}

	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.authCookieName,
			Value:    tokenString,
			Path:     "/",
			Expires:  expiresAt,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	)

	return nil
}

// ClearSession removes the session cookie from the client.
func (a *Auth) ClearSession(response http.ResponseWriter) {
	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.authCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	)
}

// sessionUserID extracts the user ID from the session cookie. Any parse or
// signature failure, including expiry, degrades to an anonymous request.
func (a *Auth) sessionUserID(request *http.Request) string {
	cookie, err := request.Cookie(a.authCookieName)
	if err != nil {
		return ""
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		cookie.Value,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.authCookieSigningSecretKey, nil
		},
	)
	if err != nil || !token.Valid {
		return ""
	}

	return claims.UserID
}

// ResolveUser is an HTTP middleware that resolves the session cookie to a
// user and stores it in the request context. Requests without a valid
// session pass through anonymously.
func (a *Auth) ResolveUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		userID := a.sessionUserID(request)
		if userID == "" {
			h.ServeHTTP(response, request)
			return
		}

		usr, found, err := a.db.GetUserByID(request.Context(), userID)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.db.GetUserByID()`: ", zap.Error(err))
			response.WriteHeader(http.StatusInternalServerError)
			return
		}
		if !found {
			// Stale cookie referencing a user lost on restart.
			h.ServeHTTP(response, request)
			return
		}

		ctx := context.WithValue(request.Context(), UserKey, usr)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// UserFromContext returns the user resolved by the middleware, if any.
func UserFromContext(ctx context.Context) (*user.User, bool) {
	usr, ok := ctx.Value(UserKey).(*user.User)

	return usr, ok
}
