package classify

import (
	"path"
	"path/filepath"
	"strings"
)

// Action is the branch the static server takes for a request path.
type Action int

const (
	// ActionFile reads a file from disk.
	ActionFile Action = iota
	// ActionListing renders the generated page listing.
	ActionListing
	// ActionIgnore answers without a body.
	ActionIgnore
)

// String returns the string representation of the Action
func (a Action) String() string {
	switch a {
	case ActionFile:
		return "file"
	case ActionListing:
		return "listing"
	case ActionIgnore:
		return "ignore"
	default:
		return "unknown"
	}
}

// Router maps request paths to routes. The zero value is not usable; build
// one with NewRouter.
type Router struct {
	defaultDocument string
	listingPath     string
	pagesDir        string
	scriptsDir      string
}

// RouterOptions configures a Router.
type RouterOptions struct {
	// DefaultDocument replaces "/" and any path ending in a slash.
	DefaultDocument string
	// ListingPath is the reserved route for the generated listing.
	ListingPath string
	// PagesDir prefixes the on-disk location of page documents.
	PagesDir string
	// ScriptsDir prefixes the on-disk location of script bundles.
	ScriptsDir string
}

// NewRouter creates a router, filling unset options with defaults.
func NewRouter(opts RouterOptions) *Router {
	if opts.DefaultDocument == "" {
		opts.DefaultDocument = "index.html"
	}
	if opts.ListingPath == "" {
		opts.ListingPath = "/_listing"
	}

	return &Router{
		defaultDocument: opts.DefaultDocument,
		listingPath:     opts.ListingPath,
		pagesDir:        filepath.Clean(opts.PagesDir),
		scriptsDir:      filepath.Clean(opts.ScriptsDir),
	}
}

// Route is the resolved intent for a request.
type Route struct {
	Action Action
	// URLPath is the normalized request path.
	URLPath string
	// FilePath is relative to the server root, in OS form. Only set for ActionFile.
	FilePath    string
	Kind        Kind
	ContentType string
}

// Resolve maps a request path to a route. The path never resolves outside
// the server root.
func (r *Router) Resolve(urlPath string) Route {
	if urlPath == "" || urlPath[0] != '/' {
		urlPath = "/" + urlPath
	}

	if urlPath == r.listingPath {
		return Route{Action: ActionListing, URLPath: urlPath, Kind: KindPage, ContentType: "text/html"}
	}

	if strings.HasSuffix(urlPath, "/") {
		urlPath += r.defaultDocument
	}

	// Cleaning a rooted path drops any ".." that would climb above "/".
	clean := path.Clean(urlPath)
	kind := KindOf(clean)

	if kind == KindIcon {
		return Route{Action: ActionIgnore, URLPath: clean, Kind: kind, ContentType: ContentType(clean)}
	}

	rel := filepath.FromSlash(strings.TrimPrefix(clean, "/"))
	switch kind {
	case KindPage:
		rel = filepath.Join(r.pagesDir, rel)
	case KindScript:
		rel = filepath.Join(r.scriptsDir, rel)
	}

	return Route{
		Action:      ActionFile,
		URLPath:     clean,
		FilePath:    rel,
		Kind:        kind,
		ContentType: ContentType(clean),
	}
}

// ListingPath returns the reserved listing route.
func (r *Router) ListingPath() string {
	return r.listingPath
}

// PagesDir returns the page subdirectory relative to the server root.
func (r *Router) PagesDir() string {
	return r.pagesDir
}
