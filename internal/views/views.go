// Package views holds the page shells rendered for each route and the
// application's route table.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"guffcircle/internal/route"
	"guffcircle/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Route names.
const (
	Register      = "Register"
	Login         = "Login"
	Feed          = "Feed"
	Profile       = "Profile"
	SearchResults = "SearchResults"
	VisitProfile  = "VisitProfile"
	CreateCircle  = "CreateCircle"
)

// Page is the data every view renders.
type Page struct {
	Title   string
	Route   string
	Base    string
	Params  map[string]string
	Props   map[string]string
	Session session.Session
}

// View is a parsed page shell.
type View struct {
	name  string
	title string
	tmpl  *template.Template
}

func (v *View) Name() string  { return v.name }
func (v *View) Title() string { return v.title }

// Render writes the page.
func (v *View) Render(w io.Writer, p Page) error {
	if p.Title == "" {
		p.Title = v.title
	}
	if p.Route == "" {
		p.Route = v.name
	}
	return v.tmpl.ExecuteTemplate(w, "layout.html", p)
}

// Loader returns a loader that parses the layout and file from fsys when
// first called.
func Loader(fsys fs.FS, name, title, file string) route.Loader[*View] {
	return func(ctx context.Context) (*View, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tmpl, err := template.ParseFS(fsys, "templates/layout.html", "templates/"+file)
		if err != nil {
			return nil, fmt.Errorf("views: load %s: %w", name, err)
		}
		return &View{name: name, title: title, tmpl: tmpl}, nil
	}
}

func page(fsys fs.FS, path, name, title, file string, props bool) route.Route[*View] {
	return route.Route[*View]{
		Path:      path,
		Name:      name,
		Component: route.NewLazy(name, Loader(fsys, name, title, file)),
		Props:     props,
	}
}

// Table returns the Guff Circle route table served under base.
func Table(base string) (*route.Table[*View], error) {
	return TableFS(base, templateFS)
}

// TableFS is Table with templates read from fsys.
func TableFS(base string, fsys fs.FS) (*route.Table[*View], error) {
	return route.New(base,
		page(fsys, "/register", Register, "Register", "register.html", false),
		page(fsys, "/login", Login, "Sign in", "login.html", false),
		page(fsys, "/feed", Feed, "Feed", "feed.html", false),
		page(fsys, "/profile", Profile, "Profile", "profile.html", false),
		page(fsys, "/search-results", SearchResults, "Search results", "search_results.html", false),
		page(fsys, "/visit-profile/{userId}", VisitProfile, "Profile", "visit_profile.html", true),
		page(fsys, "/create-circle/{currentUserId}", CreateCircle, "Create a circle", "create_circle.html", false),
		route.Route[*View]{Path: "/", Redirect: "/login"},
	)
}
