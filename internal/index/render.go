package index

import (
	"context"
	"io"

	"github.com/a-h/templ"

	pwerrors "github.com/conneroisu/pagewatch/internal/errors"
)

// Render writes page as a complete HTML document.
func (g *Generator) Render(ctx context.Context, w io.Writer, page Page) error {
	if err := listingDocument(page).Render(ctx, w); err != nil {
		return pwerrors.NewInternalError(pwerrors.CodeRender, "cannot render listing", err)
	}

	return nil
}

// htmlWriter stops writing after the first error and remembers it.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (hw *htmlWriter) raw(parts ...string) {
	for _, part := range parts {
		if hw.err != nil {
			return
		}
		_, hw.err = io.WriteString(hw.w, part)
	}
}

func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

func (hw *htmlWriter) component(ctx context.Context, c templ.Component) {
	if hw.err != nil {
		return
	}
	hw.err = c.Render(ctx, hw.w)
}

func listingDocument(page Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}

		hw.raw("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>")
		hw.text(page.Title)
		hw.raw("</title>\n")
		if page.Stylesheet != "" {
			hw.raw("<link rel=\"stylesheet\" href=\"")
			hw.text(page.Stylesheet)
			hw.raw("\">\n")
		}
		hw.raw("</head>\n<body>\n<h1>")
		hw.text(page.Title)
		hw.raw("</h1>\n")

		if page.Message != "" {
			hw.raw("<p class=\"message\">")
			hw.text(page.Message)
			hw.raw("</p>\n")
		}

		for _, group := range page.Groups {
			hw.component(ctx, groupSection(group))
		}

		hw.raw("</body>\n</html>\n")

		return hw.err
	})
}

func groupSection(group Group) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}

		hw.raw("<section id=\"")
		hw.text(group.Name)
		hw.raw("\">\n<h2>")
		hw.text(group.Title)
		hw.raw("</h2>\n")

		if len(group.Entries) == 0 {
			hw.raw("<p class=\"empty\">No pages yet.</p>\n</section>\n")
			return hw.err
		}

		hw.raw("<ul>\n")
		for _, entry := range group.Entries {
			hw.raw("<li>")
			hw.component(ctx, pageLink(entry))
			hw.raw("</li>\n")
		}
		hw.raw("</ul>\n</section>\n")

		return hw.err
	})
}

// pageLink renders <a href="{filename}">{title}</a>.
func pageLink(entry PageEntry) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw("<a href=\"")
		hw.text(entry.FileName)
		hw.raw("\">")
		hw.text(entry.DisplayTitle)
		hw.raw("</a>")

		return hw.err
	})
}
