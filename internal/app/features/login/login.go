// internal/app/features/login/login.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/strataboot/internal/app/system/authutil"
	"github.com/dalemusser/strataboot/internal/app/system/errreport"
	"github.com/dalemusser/strataboot/internal/app/system/network"
	"github.com/dalemusser/strataboot/internal/app/system/timeouts"
	"github.com/dalemusser/strataboot/internal/app/system/viewdata"
	"github.com/dalemusser/strataboot/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Shown for every failed sign-in so the form does not reveal which emails exist.
const invalidCredentials = "Invalid email or password."

// Users looks up accounts by email. Not found is mongo.ErrNoDocuments.
type Users interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Sessions creates and destroys signed-in sessions.
type Sessions interface {
	CreateSession(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) error
	DestroySession(w http.ResponseWriter, r *http.Request)
}

// SessionSource returns the session layer, or nil while it is not yet
// initialized. Routes are registered before security, so handlers resolve
// it per request.
type SessionSource func() Sessions

type renderFunc func(w http.ResponseWriter, r *http.Request, name string, data any)

// Handler provides the sign-in form and sign-out.
type Handler struct {
	users    Users
	sessions SessionSource
	reporter *errreport.Reporter
	render   renderFunc
	logger   *zap.Logger
}

// NewHandler creates a new login Handler.
func NewHandler(users Users, sessions SessionSource, reporter *errreport.Reporter, logger *zap.Logger) *Handler {
	return &Handler{
		users:    users,
		sessions: sessions,
		reporter: reporter,
		render:   func(w http.ResponseWriter, r *http.Request, name string, data any) { templates.Render(w, r, name, data) },
		logger:   logger,
	}
}

// LoginVM is the view model for the login page.
type LoginVM struct {
	viewdata.BaseVM
	Error     string
	Email     string
	ReturnURL string
}

// Routes returns a chi.Router with GET and POST / mounted (serve it at /login).
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.showLogin)
	r.Post("/", h.reporter.Handle(h.handleLogin))
	return r
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, LoginVM{ReturnURL: r.URL.Query().Get("return")})
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, vm LoginVM) {
	vm.BaseVM = viewdata.NewTitled(r, "Sign in")
	h.render(w, r, "login/index", vm)
}

// handleLogin checks the password against the stored bcrypt hash and starts
// a session. Lookup and session failures are returned to the error reporter.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return nil
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	returnURL := r.PostFormValue("return")

	if email == "" || password == "" {
		h.renderForm(w, r, LoginVM{Error: "Please enter your email and password.", Email: email, ReturnURL: returnURL})
		return nil
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.logger, "login lookup")
	defer cancel()

	user, err := h.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.logger.Info("login failed: unknown email", zap.String("ip", network.ClientIP(r)))
		h.renderForm(w, r, LoginVM{Error: invalidCredentials, Email: email, ReturnURL: returnURL})
		return nil
	case err != nil:
		return errreport.WrapAs("Service Unavailable", "Sign-in is temporarily unavailable. Please try again.", err)
	}

	if !user.Active || !authutil.CheckPassword(password, user.PasswordHash) {
		h.logger.Info("login failed: bad password or inactive account",
			zap.String("user_uuid", user.UUID),
			zap.String("ip", network.ClientIP(r)))
		h.renderForm(w, r, LoginVM{Error: invalidCredentials, Email: email, ReturnURL: returnURL})
		return nil
	}

	sessions := h.sessions()
	if sessions == nil {
		return errreport.Wrap(errors.New("session layer not initialized"))
	}
	if err := sessions.CreateSession(w, r, user.ID); err != nil {
		return errreport.Wrap(err)
	}

	h.logger.Info("user signed in", zap.String("user_uuid", user.UUID))
	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/"), http.StatusSeeOther)
	return nil
}

// Logout ends the session and redirects home. Signed-out requests are
// redirected too.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessions := h.sessions(); sessions != nil {
		sessions.DestroySession(w, r)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
