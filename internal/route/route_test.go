package route

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func component(name string) *Lazy[string] {
	return NewLazy(name, func(context.Context) (string, error) { return name, nil })
}

func testRoutes() []Route[string] {
	return []Route[string]{
		{Path: "/login", Name: "Login", Component: component("Login")},
		{Path: "/feed", Name: "Feed", Component: component("Feed")},
		{Path: "/visit-profile/{userId}", Name: "VisitProfile", Component: component("VisitProfile"), Props: true},
		{Path: "/create-circle/{currentUserId}", Name: "CreateCircle", Component: component("CreateCircle")},
		{Path: "/", Redirect: "/login"},
	}
}

func testTable(t *testing.T, base string) *Table[string] {
	t.Helper()
	tbl, err := New(base, testRoutes()...)
	require.NoError(t, err)
	return tbl
}

func TestResolveStaticRoutes(t *testing.T) {
	tbl := testTable(t, "/")
	for _, r := range tbl.Routes() {
		if r.Redirect != "" || r.Props || r.Name == "CreateCircle" {
			continue
		}
		m, err := tbl.Resolve(r.Path)
		require.NoError(t, err, r.Path)
		assert.Same(t, r.Component, m.Route.Component)
		assert.Equal(t, r.Name, m.Route.Name)
	}
}

func TestResolveRootRedirectsToLogin(t *testing.T) {
	tbl := testTable(t, "/")
	root, err := tbl.Resolve("/")
	require.NoError(t, err)
	login, err := tbl.Resolve("/login")
	require.NoError(t, err)

	assert.Same(t, login.Route, root.Route)
	assert.Equal(t, login.Path, root.Path)
	assert.Equal(t, "/", root.RedirectedFrom)
	assert.Empty(t, login.RedirectedFrom)
}

func TestResolveForwardsProps(t *testing.T) {
	tbl := testTable(t, "/")
	m, err := tbl.Resolve("/visit-profile/abc%20123")
	require.NoError(t, err)
	assert.Equal(t, "VisitProfile", m.Route.Name)
	assert.Equal(t, map[string]string{"userId": "abc 123"}, m.Params)
	assert.Equal(t, map[string]string{"userId": "abc 123"}, m.Props)
}

func TestResolveParamsWithoutProps(t *testing.T) {
	tbl := testTable(t, "/")
	m, err := tbl.Resolve("/create-circle/u9")
	require.NoError(t, err)
	assert.Equal(t, "u9", m.Params["currentUserId"])
	assert.Nil(t, m.Props)
}

func TestResolveTrailingSlashAndCase(t *testing.T) {
	tbl := testTable(t, "/")
	m, err := tbl.Resolve("/Feed/")
	require.NoError(t, err)
	assert.Equal(t, "Feed", m.Route.Name)
}

func TestResolveUnmatched(t *testing.T) {
	tbl := testTable(t, "/")
	for _, p := range []string{"/nope", "/visit-profile", "/visit-profile/a/b", "/feed/extra"} {
		_, err := tbl.Resolve(p)
		assert.True(t, errors.Is(err, ErrNoRoute), p)
	}
}

func TestResolveUnderBase(t *testing.T) {
	tbl := testTable(t, "/app")
	assert.Equal(t, "/app/", tbl.Base())

	m, err := tbl.Resolve("/app/feed")
	require.NoError(t, err)
	assert.Equal(t, "Feed", m.Route.Name)

	m, err = tbl.Resolve("/app")
	require.NoError(t, err)
	assert.Equal(t, "Login", m.Route.Name)

	_, err = tbl.Resolve("/feed")
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestPathBuildsNamedRoutes(t *testing.T) {
	tbl := testTable(t, "/app/")

	p, err := tbl.Path("VisitProfile", map[string]string{"userId": "a/b"})
	require.NoError(t, err)
	assert.Equal(t, "/app/visit-profile/a%2Fb", p)

	m, err := tbl.Resolve(p)
	require.NoError(t, err)
	assert.Equal(t, "a/b", m.Props["userId"])

	_, err = tbl.Path("VisitProfile", nil)
	assert.ErrorIs(t, err, ErrMissingParam)

	_, err = tbl.Path("Nope", nil)
	assert.ErrorIs(t, err, ErrUnknownName)
}

func TestLookup(t *testing.T) {
	tbl := testTable(t, "/")
	r, ok := tbl.Lookup("Feed")
	require.True(t, ok)
	assert.Equal(t, "/feed", r.Path)
	_, ok = tbl.Lookup("Missing")
	assert.False(t, ok)
}

func TestNewRejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name   string
		routes []Route[string]
		want   error
	}{
		{
			name: "duplicate name",
			routes: []Route[string]{
				{Path: "/a", Name: "A", Component: component("A")},
				{Path: "/b", Name: "A", Component: component("B")},
			},
			want: ErrDuplicateName,
		},
		{
			name: "duplicate pattern",
			routes: []Route[string]{
				{Path: "/u/{id}", Name: "A", Component: component("A")},
				{Path: "/U/{other}", Name: "B", Component: component("B")},
			},
			want: ErrDuplicatePath,
		},
		{
			name:   "component and redirect",
			routes: []Route[string]{{Path: "/a", Name: "A", Component: component("A"), Redirect: "/a"}},
			want:   ErrInvalidRoute,
		},
		{
			name:   "neither component nor redirect",
			routes: []Route[string]{{Path: "/a", Name: "A"}},
			want:   ErrInvalidRoute,
		},
		{
			name:   "unnamed component",
			routes: []Route[string]{{Path: "/a", Component: component("A")}},
			want:   ErrInvalidRoute,
		},
		{
			name:   "relative path",
			routes: []Route[string]{{Path: "a", Name: "A", Component: component("A")}},
			want:   ErrInvalidRoute,
		},
		{
			name:   "repeated param",
			routes: []Route[string]{{Path: "/{x}/{x}", Name: "A", Component: component("A")}},
			want:   ErrInvalidRoute,
		},
		{
			name:   "redirect to nowhere",
			routes: []Route[string]{{Path: "/", Redirect: "/missing"}},
			want:   ErrInvalidRoute,
		},
		{
			name: "redirect loop",
			routes: []Route[string]{
				{Path: "/a", Redirect: "/b"},
				{Path: "/b", Redirect: "/a"},
			},
			want: ErrInvalidRoute,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("/", tt.routes...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
