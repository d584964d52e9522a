package views

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guffcircle/internal/route"
	"guffcircle/internal/session"
)

func TestTableDeclaresEveryRoute(t *testing.T) {
	tbl, err := Table("/")
	require.NoError(t, err)

	want := map[string]string{
		Register:      "/register",
		Login:         "/login",
		Feed:          "/feed",
		Profile:       "/profile",
		SearchResults: "/search-results",
		VisitProfile:  "/visit-profile/{userId}",
		CreateCircle:  "/create-circle/{currentUserId}",
	}
	names := map[string]bool{}
	for _, r := range tbl.Routes() {
		if r.Redirect != "" {
			assert.Equal(t, "/", r.Path)
			assert.Equal(t, "/login", r.Redirect)
			continue
		}
		assert.False(t, names[r.Name], "duplicate name %s", r.Name)
		names[r.Name] = true
		assert.Equal(t, want[r.Name], r.Path)
		assert.False(t, r.Component.Loaded(), "%s loaded eagerly", r.Name)
	}
	assert.Len(t, names, len(want))
}

func TestRootResolvesLikeLogin(t *testing.T) {
	tbl, err := Table("/")
	require.NoError(t, err)

	root, err := tbl.Resolve("/")
	require.NoError(t, err)
	login, err := tbl.Resolve("/login")
	require.NoError(t, err)
	assert.Same(t, login.Route.Component, root.Route.Component)
}

func TestVisitProfileForwardsUserID(t *testing.T) {
	tbl, err := Table("/")
	require.NoError(t, err)

	m, err := tbl.Resolve("/visit-profile/u-123")
	require.NoError(t, err)
	assert.Equal(t, "u-123", m.Props["userId"])

	v, err := m.Route.Component.Load(context.Background())
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, v.Render(&b, Page{Base: "/", Props: m.Props, Params: m.Params}))
	assert.Contains(t, b.String(), `data-user-id="u-123"`)
	assert.Contains(t, b.String(), `data-route="VisitProfile"`)
}

func TestEveryViewRenders(t *testing.T) {
	tbl, err := Table("/")
	require.NoError(t, err)

	sess := session.Session{UID: "u1", Email: "me@example.com"}
	for _, r := range tbl.Routes() {
		if r.Component == nil {
			continue
		}
		v, err := r.Component.Load(context.Background())
		require.NoError(t, err, r.Name)
		assert.Equal(t, r.Name, v.Name())

		var b strings.Builder
		require.NoError(t, v.Render(&b, Page{Base: "/", Session: sess}), r.Name)
		assert.Contains(t, b.String(), "me@example.com")
		assert.Contains(t, b.String(), v.Title())
	}
}

func TestLoaderReportsMissingTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/layout.html": {Data: []byte(`{{template "content" .}}`)},
	}
	tbl, err := TableFS("/", fsys)
	require.NoError(t, err)

	r, ok := tbl.Lookup(Feed)
	require.True(t, ok)
	_, err = r.Component.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "views: load Feed")
	assert.False(t, r.Component.Loaded())
}

func TestLoaderHonoursCancelledContext(t *testing.T) {
	load := Loader(templateFS, Feed, "Feed", "feed.html")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := load(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTableUnderBase(t *testing.T) {
	tbl, err := Table("/guff/")
	require.NoError(t, err)
	p, err := tbl.Path(CreateCircle, map[string]string{"currentUserId": "u1"})
	require.NoError(t, err)
	assert.Equal(t, "/guff/create-circle/u1", p)

	_, err = tbl.Resolve("/login")
	assert.ErrorIs(t, err, route.ErrNoRoute)
}
