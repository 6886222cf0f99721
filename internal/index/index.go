// Package index scans a directory for page files and renders an HTML
// listing of them, partitioned into named groups.
package index

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	pwerrors "github.com/conneroisu/pagewatch/internal/errors"
)

const (
	// DefaultOutput is the file name the generator writes and never lists.
	DefaultOutput = "index.html"
	// DefaultTitle heads generated pages.
	DefaultTitle = "Components"
	// UncategorizedGroup collects pages no classifier claimed.
	UncategorizedGroup = "uncategorized"

	pageExtension = ".html"
)

// PageEntry is one listed page, derived from its file name.
type PageEntry struct {
	FileName     string
	DisplayTitle string
	Group        string
}

// Group is a titled section of a listing.
type Group struct {
	Name    string
	Title   string
	Entries []PageEntry
}

// Page is everything a rendered listing needs.
type Page struct {
	Title      string
	Stylesheet string
	// Message is shown above the groups, e.g. why a fallback was served.
	Message string
	Groups  []Group
}

// Classifier maps a page file name to a group name. An empty result means
// the page is uncategorized.
type Classifier func(fileName string) string

// Options configures a Generator.
type Options struct {
	// Output is the generator's own file name, excluded from scans.
	Output     string
	Title      string
	Stylesheet string
	// Groups are the named sections of the standalone index, in order.
	Groups []GroupDef
	// Classifier assigns pages to Groups. When nil, membership listed in
	// Groups is used.
	Classifier Classifier
}

// Generator produces page listings.
type Generator struct {
	opts       Options
	classifier Classifier
}

// NewGenerator creates a generator, filling unset options with defaults.
func NewGenerator(opts Options) *Generator {
	if opts.Output == "" {
		opts.Output = DefaultOutput
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}

	classifier := opts.Classifier
	if classifier == nil {
		classifier = ClassifierFromGroups(opts.Groups)
	}

	return &Generator{
		opts:       opts,
		classifier: classifier,
	}
}

// Options returns the effective options.
func (g *Generator) Options() Options {
	return g.opts
}

// Scan lists the page files in dir, sorted by name, excluding the
// generator's own output.
func (g *Generator) Scan(dir string) ([]PageEntry, error) {
	return g.scan(dir, g.opts.Output)
}

func (g *Generator) scan(dir string, exclude ...string) ([]PageEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pwerrors.NewIOError(pwerrors.CodeReadDir, "cannot list pages", err).WithPath(dir)
	}

	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}

	pages := make([]PageEntry, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || skip[name] || !strings.HasSuffix(name, pageExtension) {
			continue
		}

		pages = append(pages, PageEntry{
			FileName:     name,
			DisplayTitle: DisplayTitle(name),
		})
	}

	return pages, nil
}

// DisplayTitle derives a human title from a page file name: the extension
// is dropped, the first hyphen becomes a space, and the first letter of
// each whitespace-separated word is upper-cased. The rest of each word,
// including any later hyphens, is left as is.
func DisplayTitle(fileName string) string {
	// Casers are stateful; one per call keeps this safe for concurrent use.
	upper := cases.Upper(language.English)

	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	stem = strings.Replace(stem, "-", " ", 1)

	words := strings.Fields(stem)
	for i, word := range words {
		_, size := utf8.DecodeRuneInString(word)
		words[i] = upper.String(word[:size]) + word[size:]
	}

	return strings.Join(words, " ")
}

// ListingPage builds the live fallback model: one flat group of every
// page in dir, with an optional message.
func (g *Generator) ListingPage(dir, message string) (Page, error) {
	pages, err := g.Scan(dir)
	if err != nil {
		return Page{}, err
	}

	return Page{
		Title:      g.opts.Title,
		Stylesheet: g.opts.Stylesheet,
		Message:    message,
		Groups: []Group{{
			Name:    "pages",
			Title:   "Pages",
			Entries: pages,
		}},
	}, nil
}

// GenerateListing renders the live fallback listing for dir.
func (g *Generator) GenerateListing(ctx context.Context, dir string) ([]byte, error) {
	page, err := g.ListingPage(dir, "")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := g.Render(ctx, &buf, page); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// GroupedPage builds the standalone model: every configured group in order
// (empty ones kept as placeholders) followed by uncategorized.
func (g *Generator) GroupedPage(dir string, exclude ...string) (Page, error) {
	pages, err := g.scan(dir, append([]string{g.opts.Output}, exclude...)...)
	if err != nil {
		return Page{}, err
	}

	groups := make([]Group, 0, len(g.opts.Groups)+1)
	position := make(map[string]int, len(g.opts.Groups))
	for _, def := range g.opts.Groups {
		position[def.Name] = len(groups)
		groups = append(groups, Group{Name: def.Name, Title: def.displayTitle()})
	}
	uncategorized, ok := position[UncategorizedGroup]
	if !ok {
		uncategorized = len(groups)
		groups = append(groups, Group{Name: UncategorizedGroup, Title: "Uncategorized"})
	}

	for _, page := range pages {
		idx, ok := position[g.classifier(page.FileName)]
		if !ok {
			idx = uncategorized
		}
		page.Group = groups[idx].Name
		groups[idx].Entries = append(groups[idx].Entries, page)
	}

	return Page{
		Title:      g.opts.Title,
		Stylesheet: g.opts.Stylesheet,
		Groups:     groups,
	}, nil
}

// WriteIndexFile renders the grouped listing of dir to outputPath. The
// output file itself is never listed.
func (g *Generator) WriteIndexFile(ctx context.Context, dir, outputPath string) error {
	page, err := g.GroupedPage(dir, filepath.Base(outputPath))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := g.Render(ctx, &buf, page); err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		return pwerrors.NewIOError(pwerrors.CodeWriteFile, "cannot write index", err).WithPath(outputPath)
	}

	return nil
}
