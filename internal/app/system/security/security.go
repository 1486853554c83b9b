// Package security binds the identity stores and installs the session and
// CSRF layers around the application handler.
package security

import (
	"errors"
	"net/http"
	"time"

	groupstore "github.com/dalemusser/strataboot/internal/app/store/groups"
	rolestore "github.com/dalemusser/strataboot/internal/app/store/roles"
	userstore "github.com/dalemusser/strataboot/internal/app/store/users"
	"github.com/dalemusser/strataboot/internal/app/system/auth"
	"github.com/gorilla/csrf"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// CSRFCookieName is distinct from the session cookie so both can share a domain.
const CSRFCookieName = "strataboot_csrf"

// CSRFFieldName is the hidden form field carrying the token.
const CSRFFieldName = "csrf_token"

// Origins trusted for CSRF checks when cookies are not secure (local development).
var devTrustedOrigins = []string{
	"localhost:8080",
	"localhost:3000",
	"127.0.0.1:8080",
	"127.0.0.1:3000",
}

// Config holds the session and CSRF settings.
type Config struct {
	SessionKey    string
	SessionName   string
	SessionMaxAge time.Duration
	CSRFKey       string
	Secure        bool // production: secure cookies and strong keys required
}

// Datastore is the identity persistence bound at startup.
type Datastore struct {
	Users  *userstore.Store
	Groups *groupstore.Store
	Roles  *rolestore.Store
}

// Manager owns the session manager and the CSRF middleware.
type Manager struct {
	Datastore Datastore
	Sessions  *auth.SessionManager
	csrf      func(http.Handler) http.Handler
	logger    *zap.Logger
}

var errCSRFKey = errors.New("csrf key is empty")

// Init binds the users, groups and roles stores on db and builds the session
// and CSRF layers. Sessions load fresh user data through the users store.
func Init(db *mongo.Database, cfg Config, logger *zap.Logger) (*Manager, error) {
	m, err := newManager(cfg, logger)
	if err != nil {
		return nil, err
	}
	m.Datastore = Datastore{
		Users:  userstore.New(db),
		Groups: groupstore.New(db),
		Roles:  rolestore.New(db),
	}
	m.Sessions.SetUserFetcher(userstore.NewFetcher(db, logger))
	logger.Info("security initialized",
		zap.String("session_cookie", m.Sessions.SessionName()),
		zap.Bool("secure", cfg.Secure))
	return m, nil
}

func newManager(cfg Config, logger *zap.Logger) (*Manager, error) {
	sm, err := auth.NewSessionManager(cfg.SessionKey, cfg.SessionName, cfg.SessionMaxAge, cfg.Secure, logger)
	if err != nil {
		return nil, err
	}
	if cfg.CSRFKey == "" {
		return nil, errCSRFKey
	}
	if cfg.Secure && len(cfg.CSRFKey) < 32 {
		return nil, &auth.SessionConfigError{Message: "csrf key is too weak for production; provide ≥32 random chars"}
	}
	return &Manager{
		Sessions: sm,
		csrf:     csrfMiddleware(cfg, logger),
		logger:   logger,
	}, nil
}

func csrfMiddleware(cfg Config, logger *zap.Logger) func(http.Handler) http.Handler {
	opts := []csrf.Option{
		csrf.Secure(cfg.Secure),
		csrf.Path("/"),
		csrf.CookieName(CSRFCookieName),
		csrf.FieldName(CSRFFieldName),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
				zap.String("reason", csrf.FailureReason(r).Error()),
			)
			http.Error(w, "CSRF token invalid or missing", http.StatusForbidden)
		})),
	}
	if !cfg.Secure {
		opts = append(opts, csrf.TrustedOrigins(devTrustedOrigins))
	}
	protect := csrf.Protect([]byte(cfg.CSRFKey), opts...)

	if cfg.Secure {
		return protect
	}
	// Plain-HTTP development servers must say so, or the referer check
	// assumes HTTPS and rejects every form post.
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			h.ServeHTTP(w, r)
		})
	}
}

// Wrap installs CSRF protection and session loading around next.
func (m *Manager) Wrap(next http.Handler) http.Handler {
	return m.csrf(m.Sessions.LoadSessionUser(next))
}
