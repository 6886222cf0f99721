package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/conneroisu/pagewatch/internal/classify"
	pwerrors "github.com/conneroisu/pagewatch/internal/errors"
	"github.com/conneroisu/pagewatch/internal/index"
	"github.com/conneroisu/pagewatch/internal/logging"
)

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	// Root is the directory every request resolves under. Required.
	Root   string
	Router classify.RouterOptions
	// StrictNotFound answers missing files with 404 instead of 200. The
	// listing body is the same either way.
	StrictNotFound bool
	// Generator renders the listing route and not-found fallback.
	Generator *index.Generator
	Logger    logging.Logger
}

// Handler maps request paths to files under a fixed root.
type Handler struct {
	root      string
	router    *classify.Router
	strict    bool
	generator *index.Generator
	logger    logging.Logger
}

// NewHandler creates a handler. The root must be an existing directory.
func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Root == "" {
		return nil, pwerrors.NewConfigError(pwerrors.CodeInvalidConfig, "server root is required")
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, pwerrors.NewIOError(pwerrors.CodeReadDir, "cannot resolve server root", err).WithPath(opts.Root)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, pwerrors.NewIOError(pwerrors.CodeReadDir, "cannot open server root", err).WithPath(root)
	}
	if !info.IsDir() {
		return nil, pwerrors.NewConfigError(pwerrors.CodeInvalidConfig, "server root is not a directory").WithPath(root)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	generator := opts.Generator
	if generator == nil {
		generator = index.NewGenerator(index.Options{Output: opts.Router.DefaultDocument})
	}

	return &Handler{
		root:      root,
		router:    classify.NewRouter(opts.Router),
		strict:    opts.StrictNotFound,
		generator: generator,
		logger:    logger.WithComponent("server"),
	}, nil
}

// Root returns the absolute directory requests resolve under.
func (h *Handler) Root() string {
	return h.root
}

// ServeHTTP answers every request with exactly one of: file contents, a
// listing page, or an error page. The method is not distinguished.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	route := h.router.Resolve(r.URL.Path)

	switch route.Action {
	case classify.ActionListing:
		h.serveListing(ctx, w, route, http.StatusOK, "")
	case classify.ActionIgnore:
		h.logger.Debug(ctx, "request ignored", "path", route.URLPath, "branch", "ignore")
		w.WriteHeader(http.StatusNoContent)
	default:
		h.serveFile(ctx, w, route)
	}
}

func (h *Handler) serveFile(ctx context.Context, w http.ResponseWriter, route classify.Route) {
	full := filepath.Join(h.root, route.FilePath)

	data, err := os.ReadFile(full)
	switch {
	case err == nil:
		h.logger.Debug(ctx, "request served", "path", route.URLPath, "branch", "file", "file", full)
		w.Header().Set("Content-Type", route.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)

	case pwerrors.IsNotFound(err):
		status := http.StatusOK
		if h.strict {
			status = http.StatusNotFound
		}
		message := fmt.Sprintf("Nothing found at %s. Available pages are listed below.", route.URLPath)
		h.serveListing(ctx, w, route, status, message)

	default:
		h.serveError(ctx, w, route, pwerrors.NewIOError(pwerrors.CodeReadFile, "cannot read file", err).WithPath(full))
	}
}

func (h *Handler) serveListing(ctx context.Context, w http.ResponseWriter, route classify.Route, status int, message string) {
	dir := filepath.Join(h.root, h.router.PagesDir())

	page, err := h.generator.ListingPage(dir, message)
	if err != nil {
		h.serveError(ctx, w, route, err)
		return
	}

	var buf bytes.Buffer
	if err := h.generator.Render(ctx, &buf, page); err != nil {
		h.serveError(ctx, w, route, err)
		return
	}

	branch := "listing"
	if message != "" {
		branch = "fallback"
	}
	h.logger.Debug(ctx, "request served", "path", route.URLPath, "branch", branch, "status", status)

	w.Header().Set("Content-Type", classify.ContentType(".html"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// serveError answers 500 with the symbolic errno in the body.
func (h *Handler) serveError(ctx context.Context, w http.ResponseWriter, route classify.Route, err error) {
	code := pwerrors.ErrnoCode(err)
	h.logger.Error(ctx, err, "request failed", "path", route.URLPath, "branch", "error", "code", code)

	w.Header().Set("Content-Type", classify.DefaultContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = fmt.Fprintf(w, "%d %s\n", http.StatusInternalServerError, code)
}
