// Package views renders the server-side HTML pages. Templates and static
// assets are embedded into the binary.
package views

import (
	"embed"
	"html/template"
	"io"
	"io/fs"

	"github.com/patric-chuzhbe/linktrack/internal/models"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.gohtml"))

// UserPageData feeds the per-user page template.
type UserPageData struct {
	User  *models.User
	Links []models.Link
}

// AllStatsPageData feeds the aggregate stats page template.
type AllStatsPageData struct {
	Stats []models.LinkStats
}

// RenderIndex writes the registration page.
func RenderIndex(w io.Writer) error {
	return pages.ExecuteTemplate(w, "index.gohtml", nil)
}

// RenderUser writes the per-user page with the link list and add-link form.
func RenderUser(w io.Writer, data UserPageData) error {
	return pages.ExecuteTemplate(w, "user.gohtml", data)
}

// RenderAllStats writes the aggregate stats page.
func RenderAllStats(w io.Writer, data AllStatsPageData) error {
	return pages.ExecuteTemplate(w, "allstats.gohtml", data)
}

// StaticFS exposes the embedded static assets rooted at the static
// directory itself.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
