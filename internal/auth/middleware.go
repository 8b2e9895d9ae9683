package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. A plain string key like "userID"
// can be read or shadowed by any package that knows the string. Only this
// package can create a contextKey, so only this package can read or write the
// caller's id.
type contextKey string

const userIDKey contextKey = "userID"

// WithCurrentUser is a middleware that puts a fixed caller id into every
// request context.
//
// There is no authentication layer: the service acts on behalf of one
// configured user (CURRENT_USER_ID). Handlers never read that setting
// directly. They ask UserIDFromContext, so swapping this middleware for a
// real one (a session cookie, a bearer token) changes nothing downstream.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware takes an http.Handler and returns a new http.Handler that
// wraps it. Chi applies them in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func WithCurrentUser(userID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

// ContextWithUserID returns a copy of ctx carrying the caller's id.
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the caller's id from the request context.
//
// Returns (0, false) when no identity was attached, which handlers treat as
// a forbidden request.
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // no caller identity
//	}
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}
