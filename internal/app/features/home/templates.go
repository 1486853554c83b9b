// internal/app/features/home/templates.go
package home

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

// FS holds the "home/index" page, which includes the shared partials.
//
//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{Name: "home", FS: FS, Patterns: []string{"templates/*.gohtml"}})
}
