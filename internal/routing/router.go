package routing

import (
	"net/url"
	"strings"
)

// Prefix is the first path segment of every viewer route.
const Prefix = "mediaviewer"

// Route points at one file. An empty FileTitle is the bare viewer route.
type Route struct {
	FileTitle string
}

// Router converts between locations and routes.
type Router struct{}

// NewRouter creates a router.
func NewRouter() *Router {
	return &Router{}
}

// ParseLocation parses a full URL, a fragment ("#mediaviewer/File:Foo.jpg")
// or a bare hash ("mediaviewer/File:Foo.jpg"). It returns false when the
// location is not a viewer route.
func (r *Router) ParseLocation(location string) (Route, bool) {
	hash := location
	if idx := strings.Index(location, "#"); idx != -1 {
		hash = location[idx+1:]
	} else if strings.Contains(location, "://") {
		return Route{}, false
	}
	return r.ParseHash(hash)
}

// ParseHash parses the part after "#".
func (r *Router) ParseHash(hash string) (Route, bool) {
	hash = strings.TrimPrefix(hash, "#")
	if hash == Prefix {
		return Route{}, true
	}
	rest, ok := strings.CutPrefix(hash, Prefix+"/")
	if !ok {
		return Route{}, false
	}

	title, err := url.PathUnescape(rest)
	if err != nil {
		return Route{}, false
	}
	title = strings.ReplaceAll(title, "_", " ")
	if strings.TrimSpace(title) == "" {
		return Route{}, true
	}
	return Route{FileTitle: title}, true
}

// CreateHash returns the fragment for a route, including the leading "#".
func (r *Router) CreateHash(route Route) string {
	if route.FileTitle == "" {
		return "#" + Prefix
	}
	title := strings.ReplaceAll(route.FileTitle, " ", "_")
	return "#" + Prefix + "/" + escapeTitle(title)
}

// escapeTitle percent-encodes a title the way wiki page names are encoded:
// colons and slashes stay readable.
func escapeTitle(title string) string {
	escaped := url.PathEscape(title)
	return strings.NewReplacer("%3A", ":", "%2F", "/").Replace(escaped)
}
