// internal/app/features/login/templates.go
package login

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

// FS holds the "login/index" sign-in form.
//
//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{Name: "login", FS: FS, Patterns: []string{"templates/*.gohtml"}})
}
