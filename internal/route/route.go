// Package route declares the mapping from URL paths to lazily loaded view
// components and resolves request paths against it.
package route

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrNoRoute       = errors.New("route: no route matches path")
	ErrDuplicateName = errors.New("route: duplicate route name")
	ErrDuplicatePath = errors.New("route: duplicate route path")
	ErrInvalidRoute  = errors.New("route: invalid route")
	ErrUnknownName   = errors.New("route: unknown route name")
	ErrMissingParam  = errors.New("route: missing path parameter")
	ErrRedirectLoop  = errors.New("route: redirect loop")
)

const maxRedirectFollow = 8

// Route maps a path pattern to either a component or a redirect target.
// Pattern segments of the form {name} capture a path parameter.
type Route[V any] struct {
	Path      string
	Name      string
	Component *Lazy[V]
	Redirect  string
	// Props forwards path parameters to the component as named inputs.
	Props bool

	segments []segment
}

type segment struct {
	literal string
	param   string
}

// Match is the outcome of resolving a path.
type Match[V any] struct {
	Route  *Route[V]
	Path   string
	Params map[string]string
	// Props holds the parameters forwarded to the component; nil unless the
	// route sets Props.
	Props          map[string]string
	RedirectedFrom string
}

// Table is an immutable, validated set of routes served under a base path.
type Table[V any] struct {
	base   string
	routes []*Route[V]
	byName map[string]*Route[V]
}

// New validates routes and builds a table served under base ("/" for root).
func New[V any](base string, routes ...Route[V]) (*Table[V], error) {
	t := &Table[V]{
		base:   normalizeBase(base),
		byName: make(map[string]*Route[V], len(routes)),
	}
	byPath := make(map[string]bool, len(routes))

	for i := range routes {
		r := routes[i]
		segs, err := parsePattern(r.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRoute, r.Path, err)
		}
		r.segments = segs
		canonical := patternKey(segs)

		if (r.Component == nil) == (r.Redirect == "") {
			return nil, fmt.Errorf("%w: %q needs exactly one of component or redirect", ErrInvalidRoute, r.Path)
		}
		if r.Name != "" {
			if _, dup := t.byName[r.Name]; dup {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateName, r.Name)
			}
		} else if r.Component != nil {
			return nil, fmt.Errorf("%w: %q has no name", ErrInvalidRoute, r.Path)
		}
		if byPath[canonical] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePath, r.Path)
		}
		byPath[canonical] = true

		rp := &r
		t.routes = append(t.routes, rp)
		if r.Name != "" {
			t.byName[r.Name] = rp
		}
	}

	for _, r := range t.routes {
		if r.Redirect == "" {
			continue
		}
		if _, err := t.resolve(r.Redirect); err != nil {
			return nil, fmt.Errorf("%w: redirect %q -> %q: %v", ErrInvalidRoute, r.Path, r.Redirect, err)
		}
	}
	return t, nil
}

// Base returns the history base the table is served under.
func (t *Table[V]) Base() string {
	return t.base
}

// Routes returns the routes in declaration order.
func (t *Table[V]) Routes() []Route[V] {
	out := make([]Route[V], 0, len(t.routes))
	for _, r := range t.routes {
		out = append(out, *r)
	}
	return out
}

// Lookup returns the named route.
func (t *Table[V]) Lookup(name string) (*Route[V], bool) {
	r, ok := t.byName[name]
	return r, ok
}

// Path builds the URL for the named route, including the base.
func (t *Table[V]) Path(name string, params map[string]string) (string, error) {
	r, ok := t.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	parts := make([]string, 0, len(r.segments))
	for _, s := range r.segments {
		if s.param == "" {
			parts = append(parts, s.literal)
			continue
		}
		v := params[s.param]
		if v == "" {
			return "", fmt.Errorf("%w: %q for route %q", ErrMissingParam, s.param, name)
		}
		parts = append(parts, url.PathEscape(v))
	}
	return strings.TrimSuffix(t.base, "/") + "/" + strings.Join(parts, "/"), nil
}

// Resolve matches a request path (including the base) against the table and
// follows redirects.
func (t *Table[V]) Resolve(path string) (Match[V], error) {
	rel, ok := t.stripBase(path)
	if !ok {
		return Match[V]{}, fmt.Errorf("%w: %q", ErrNoRoute, path)
	}
	return t.resolve(rel)
}

func (t *Table[V]) resolve(rel string) (Match[V], error) {
	from := ""
	for hops := 0; hops <= maxRedirectFollow; hops++ {
		m, err := t.match(rel)
		if err != nil {
			return Match[V]{}, err
		}
		if m.Route.Redirect == "" {
			m.RedirectedFrom = from
			return m, nil
		}
		if from == "" {
			from = m.Path
		}
		rel = m.Route.Redirect
	}
	return Match[V]{}, fmt.Errorf("%w: from %q", ErrRedirectLoop, from)
}

func (t *Table[V]) match(rel string) (Match[V], error) {
	parts := splitPath(rel)
	for _, r := range t.routes {
		params, ok := matchSegments(r.segments, parts)
		if !ok {
			continue
		}
		m := Match[V]{Route: r, Path: "/" + strings.Join(parts, "/"), Params: params}
		if r.Props {
			m.Props = make(map[string]string, len(params))
			for k, v := range params {
				m.Props[k] = v
			}
		}
		return m, nil
	}
	return Match[V]{}, fmt.Errorf("%w: %q", ErrNoRoute, rel)
}

func (t *Table[V]) stripBase(path string) (string, bool) {
	if t.base == "/" {
		return path, true
	}
	if path == strings.TrimSuffix(t.base, "/") {
		return "/", true
	}
	if !strings.HasPrefix(path, t.base) {
		return "", false
	}
	return "/" + strings.TrimPrefix(path, t.base), true
}

func matchSegments(segs []segment, parts []string) (map[string]string, bool) {
	if len(segs) != len(parts) {
		return nil, false
	}
	params := map[string]string{}
	for i, s := range segs {
		if s.param == "" {
			if !strings.EqualFold(s.literal, parts[i]) {
				return nil, false
			}
			continue
		}
		v, err := url.PathUnescape(parts[i])
		if err != nil || v == "" {
			return nil, false
		}
		params[s.param] = v
	}
	return params, true
}

func parsePattern(p string) ([]segment, error) {
	if !strings.HasPrefix(p, "/") {
		return nil, errors.New("path must start with /")
	}
	seen := map[string]bool{}
	var segs []segment
	for _, part := range splitPath(p) {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			name := part[1 : len(part)-1]
			if name == "" || strings.ContainsAny(name, "{}/") {
				return nil, fmt.Errorf("bad parameter %q", part)
			}
			if seen[name] {
				return nil, fmt.Errorf("parameter %q repeated", name)
			}
			seen[name] = true
			segs = append(segs, segment{param: name})
			continue
		}
		if strings.ContainsAny(part, "{}") {
			return nil, fmt.Errorf("bad segment %q", part)
		}
		segs = append(segs, segment{literal: part})
	}
	return segs, nil
}

// patternKey identifies patterns that would match the same paths.
func patternKey(segs []segment) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		if s.param != "" {
			parts[i] = "{}"
		} else {
			parts[i] = strings.ToLower(s.literal)
		}
	}
	return "/" + strings.Join(parts, "/")
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func normalizeBase(base string) string {
	base = strings.Trim(strings.TrimSpace(base), "/")
	if base == "" {
		return "/"
	}
	return "/" + base + "/"
}
