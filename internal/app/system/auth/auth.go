// Package auth manages cookie-backed login sessions and exposes the
// authenticated user to handlers through the request context.
package auth

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - UUID / uuid: The stable public identifier reported in logs and error reports

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/strataboot/internal/app/system/jsonutil"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultSessionName is the cookie name used when none is configured.
const DefaultSessionName = "strataboot-session"

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
)

// Session error classification for logging.
type sessionErrorType int

const (
	sessionErrUnknown   sessionErrorType = iota
	sessionErrExpired                    // timestamp expired - normal
	sessionErrTampered                   // MAC invalid - potential attack
	sessionErrCorrupted                  // decode failed - corruption or key rotation
	sessionErrBackend                    // store failure
)

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager wraps the cookie store and loads the session user on
// every request.
type SessionManager struct {
	store       *sessions.CookieStore
	logger      *zap.Logger
	name        string
	userFetcher UserFetcher
}

// SessionConfigError is returned when session configuration is invalid.
type SessionConfigError struct {
	Message string
}

func (e *SessionConfigError) Error() string {
	return e.Message
}

// NewSessionManager creates a SessionManager.
//
// sessionKey signs the cookies and must be at least 32 characters and not a
// placeholder when secure is true. With secure false a weak key only logs a
// warning so local development works out of the box.
func NewSessionManager(sessionKey, name string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, &SessionConfigError{Message: "session key is empty; provide ≥32 random chars"}
	}

	weak := len(sessionKey) < 32 || isDefaultKey(sessionKey)
	if weak && secure {
		return nil, &SessionConfigError{
			Message: "session key is too weak for production; provide ≥32 random chars (not the default dev key)",
		}
	}
	if weak {
		logger.Warn("session key is weak; 32+ random chars required in production",
			zap.Int("length", len(sessionKey)))
	}

	if name == "" {
		name = DefaultSessionName
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionManager{store: store, logger: logger, name: name}, nil
}

// SessionName returns the configured session cookie name.
func (sm *SessionManager) SessionName() string {
	return sm.name
}

// SetUserFetcher sets the UserFetcher used by LoadSessionUser.
func (sm *SessionManager) SetUserFetcher(uf UserFetcher) {
	sm.userFetcher = uf
}

// UserFetcher loads fresh user data for a session. It returns nil when the
// user is missing or inactive, which ends the session.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current user                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the authenticated user carried in the request context.
type SessionUser struct {
	ID    string
	UUID  string
	Name  string
	Email string
	Roles []string
}

// UserID returns the user's ID as an ObjectID, or NilObjectID if malformed.
func (u *SessionUser) UserID() primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// HasRole reports whether the user carries one of the given roles.
func (u *SessionUser) HasRole(roles ...string) bool {
	for _, have := range u.Roles {
		for _, want := range roles {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag from the request context.
// A nil request has no user.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	if r == nil {
		return nil, false
	}
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser injects a SessionUser into the request context for testing.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadSessionUser injects the session user into the request context when
// the request carries an authenticated session.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			sm.logSessionError(r, err)
		}

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth && sm.userFetcher != nil {
			userID, _ := sess.Values[userIDKey].(string)
			if u := sm.userFetcher.FetchUser(r.Context(), userID); u != nil {
				r = withUser(r, u)
			} else {
				sm.logger.Info("session invalidated: user not found or inactive",
					zap.String("user_id", userID),
					zap.String("path", r.URL.Path))
				sess.Values[isAuthKey] = false
				delete(sess.Values, userIDKey)
				_ = sess.Save(r, w)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn redirects browsers to /login and answers a JSON 401
// otherwise when no user is in context. It relies on LoadSessionUser having
// run earlier in the chain.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		if wantsHTML(r) {
			http.Redirect(w, r, "/login?return="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		jsonutil.Error(w, http.StatusUnauthorized, "unauthorized")
	})
}

// RequireRole is RequireSignedIn plus a JSON 403 for users without any of
// the allowed roles.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, _ := CurrentUser(r)
			if !u.HasRole(allowed...) {
				jsonutil.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session lifecycle                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// CreateSession marks the session as authenticated for userID.
func (sm *SessionManager) CreateSession(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) error {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		sess, _ = sm.store.New(r, sm.name)
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID.Hex()
	return sess.Save(r, w)
}

// DestroySession ends the session and expires its cookie.
func (sm *SessionManager) DestroySession(w http.ResponseWriter, r *http.Request) {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		return
	}
	sess.Values[isAuthKey] = false
	delete(sess.Values, userIDKey)
	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (sm *SessionManager) logSessionError(r *http.Request, err error) {
	errType, category := classifySessionError(err)
	fields := []zap.Field{zap.String("category", category), zap.String("path", r.URL.Path)}
	switch errType {
	case sessionErrExpired:
		sm.logger.Debug("session expired, starting fresh session", fields...)
	case sessionErrTampered:
		sm.logger.Warn("session MAC validation failed (possible tampering)",
			append(fields, zap.String("remote_addr", r.RemoteAddr))...)
	case sessionErrCorrupted:
		sm.logger.Info("session decode failed, starting fresh session", fields...)
	default:
		sm.logger.Error("session store error, starting fresh session", append(fields, zap.Error(err))...)
	}
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// isDefaultKey checks if the session key looks like a placeholder value.
func isDefaultKey(key string) bool {
	lower := strings.ToLower(key)
	for _, p := range []string{"dev-only", "change-me", "placeholder", "default", "example", "insecure", "test-key", "password"} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// classifySessionError categorizes a cookie decode error.
func classifySessionError(err error) (sessionErrorType, string) {
	if err == nil {
		return sessionErrUnknown, "none"
	}

	scErr, ok := err.(securecookie.Error)
	if !ok || !scErr.IsDecode() {
		return sessionErrBackend, "backend"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "expired timestamp"):
		return sessionErrExpired, "expired"
	case strings.Contains(msg, "mac") || strings.Contains(msg, "hash"):
		return sessionErrTampered, "mac_invalid"
	default:
		return sessionErrCorrupted, "decode_failed"
	}
}
