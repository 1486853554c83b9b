// internal/app/resources/resources.go
package resources

import (
	"embed"
	"io/fs"
	"net/http"
	"sync"

	"github.com/dalemusser/waffle/pantry/templates"
)

// Shared page partials ("shared/head", "shared/foot").
//
//go:embed templates/*.gohtml
var sharedFS embed.FS

//go:embed assets/css/*.css assets/js/*.js
var assetsFS embed.FS

var registerOnce sync.Once

// LoadSharedTemplates registers the shared partials with the waffle template
// engine. It must run before the engine boots.
func LoadSharedTemplates() {
	registerOnce.Do(func() {
		templates.Register(templates.Set{
			Name:     "shared",
			FS:       sharedFS,
			Patterns: []string{"templates/*.gohtml"},
		})
	})
}

// Assets returns the embedded assets filesystem rooted at assets/.
func Assets() (fs.FS, error) {
	return fs.Sub(assetsFS, "assets")
}

// AssetsHandler serves the embedded assets with prefix stripped from the
// request path, e.g. AssetsHandler("/assets") serves /assets/css/app.css.
func AssetsHandler(prefix string) (http.Handler, error) {
	sub, err := Assets()
	if err != nil {
		return nil, err
	}
	return http.StripPrefix(prefix, http.FileServer(http.FS(sub))), nil
}
