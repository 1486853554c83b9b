// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"html/template"
	"net/http"
	"sync"

	"github.com/dalemusser/strataboot/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// DefaultSiteName is used until Init is called with a configured name.
const DefaultSiteName = "Strataboot"

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{BaseVM: viewdata.New(r)}
type BaseVM struct {
	SiteName string

	// User context (from session middleware)
	IsLoggedIn bool
	UserUUID   string
	UserName   string

	// Page context
	Title       string
	CurrentPath string

	// Security
	CSRFToken string
	CSRFField template.HTML // hidden <input> carrying the token
}

var (
	mu       sync.RWMutex
	siteName = DefaultSiteName
)

// Init sets the site name shown in every page header.
// Call this once at startup from bootstrap. An empty name keeps the default.
func Init(name string) {
	mu.Lock()
	defer mu.Unlock()
	if name == "" {
		name = DefaultSiteName
	}
	siteName = name
}

// SiteName returns the configured site name.
func SiteName() string {
	mu.RLock()
	defer mu.RUnlock()
	return siteName
}

// New creates a BaseVM for the current request.
func New(r *http.Request) BaseVM {
	vm := BaseVM{
		SiteName:    SiteName(),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
		CSRFField:   csrf.TemplateField(r),
	}
	if u, ok := auth.CurrentUser(r); ok {
		vm.IsLoggedIn = true
		vm.UserUUID = u.UUID
		vm.UserName = u.Name
	}
	return vm
}

// NewTitled is New with the page title set.
func NewTitled(r *http.Request, title string) BaseVM {
	vm := New(r)
	vm.Title = title
	return vm
}
