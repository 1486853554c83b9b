package errreport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/strataboot/internal/app/system/auth"
	"github.com/dalemusser/strataboot/internal/app/system/jsonutil"
	"github.com/dalemusser/strataboot/internal/app/system/metrics"
	"github.com/dalemusser/strataboot/internal/app/system/network"
	"go.uber.org/zap"
)

// Unknown replaces any request detail that is not available.
const Unknown = "Unknown"

// HandledMessage is the response body for errors without a cause.
const HandledMessage = "The error has already been handled"

// Reporter writes 500 responses and logs their diagnostics.
type Reporter struct {
	logger *zap.Logger
}

// New creates a Reporter logging to logger. The logger should carry every
// active diagnostic sink.
func New(logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reporter{logger: logger}
}

// Report handles err for request r. Errors with a cause are logged at
// error level with the admin message; every error answers HTTP 500 with
// the user message, as a JSON string for POST and plain text otherwise.
// r may be nil, in which case the response is plain text.
func (rp *Reporter) Report(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	var e *Error
	if !errors.As(err, &e) {
		e = Wrap(err)
	}

	if e.HasCause() {
		rp.logger.Error(AdminMessage(r, e),
			zap.String("error_name", e.Name),
			zap.String("error_type", fmt.Sprintf("%T", e.Cause)),
			zap.Error(e.Cause))
	}
	metrics.RecordServerError(!e.HasCause())

	if w == nil {
		return
	}
	msg := UserMessage(e)
	if r != nil && r.Method == http.MethodPost {
		jsonutil.String(w, http.StatusInternalServerError, msg)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(msg))
}

// UserMessage is the client-facing text for e.
func UserMessage(e *Error) string {
	if !e.HasCause() {
		return HandledMessage
	}
	return fmt.Sprintf("An exception of type %s occurred. Description:\n%s", e.Name, e.Description)
}

// AdminMessage is the log text for e raised while serving r.
func AdminMessage(r *http.Request, e *Error) string {
	uuid, ip, url := Unknown, Unknown, Unknown
	if r != nil {
		if u, ok := auth.CurrentUser(r); ok && u.UUID != "" {
			uuid = u.UUID
		}
		ip = orUnknown(network.ClientIP(r))
		url = orUnknown(network.RequestURL(r))
	}

	trace := Unknown
	if e != nil && e.Cause != nil {
		trace = fmt.Sprintf("%T: %v", e.Cause, e.Cause)
		if e.Stack != "" {
			trace += "\n" + e.Stack
		}
	}
	return fmt.Sprintf("User uuid:%s\nIP:%s\nRequested URL:%s\nTraceback:%s", uuid, ip, url, trace)
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}

// Middleware recovers panics in next and reports them.
func (rp *Reporter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				rp.Report(w, r, FromPanic(v))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// HandlerFunc is an http handler that may fail.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts fn to http.HandlerFunc, reporting any returned error.
func (rp *Reporter) Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			rp.Report(w, r, err)
		}
	}
}
