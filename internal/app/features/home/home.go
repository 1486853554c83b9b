// internal/app/features/home/home.go
package home

import (
	"html/template"
	"net/http"
	"time"

	"github.com/dalemusser/strataboot/internal/app/system/htmlsanitize"
	"github.com/dalemusser/strataboot/internal/app/system/jsonutil"
	"github.com/dalemusser/strataboot/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DefaultIntro is shown on the home page when no intro is configured.
const DefaultIntro = "The application is running."

// Handler provides the home page and the server clock endpoint.
type Handler struct {
	intro  template.HTML
	now    func() time.Time
	logger *zap.Logger
}

// NewHandler creates a new home Handler. introHTML is sanitized once here;
// plain text is escaped and its line breaks kept.
func NewHandler(introHTML string, logger *zap.Logger) *Handler {
	if introHTML == "" {
		introHTML = DefaultIntro
	}
	return &Handler{
		intro:  htmlsanitize.PrepareForDisplay(introHTML),
		now:    time.Now,
		logger: logger,
	}
}

// HomeVM is the view model for the home page.
type HomeVM struct {
	viewdata.BaseVM
	Intro template.HTML
}

// TimeResponse is the body of GET /time.
type TimeResponse struct {
	Time float64 `json:"time"` // seconds since the Unix epoch
}

// Routes returns a chi.Router with home routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	Mount(r, h)
	return r
}

// Mount registers GET / and GET /time on r.
func Mount(r chi.Router, h *Handler) {
	r.Get("/", h.Index)
	r.Get("/time", h.Time)
}

// Index renders the home page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	vm := HomeVM{
		BaseVM: viewdata.NewTitled(r, "Home"),
		Intro:  h.intro,
	}
	templates.Render(w, r, "home/index", vm)
}

// Time reports the server clock as fractional epoch seconds.
func (h *Handler) Time(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, TimeResponse{Time: epochSeconds(h.now())})
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
