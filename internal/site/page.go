package site

import (
	"bytes"
	"context"

	"golang.org/x/net/html/atom"

	"github.com/conneroisu/facet/internal/cache"
	"github.com/conneroisu/facet/internal/errors"
	"github.com/conneroisu/facet/internal/logging"
	"github.com/conneroisu/facet/internal/markup"
	"github.com/conneroisu/facet/internal/request"
	"github.com/conneroisu/facet/internal/view"
)

const (
	htmlContentType = "text/html; charset=utf-8"
	textContentType = "text/plain; charset=utf-8"
)

// Page is a resolved request, ready to render.
type Page struct {
	site    *Site
	req     request.ProcessedRequest
	path    []view.PathComponent
	dest    *Destination
	sitemap bool
}

// Request is the canonical request the page was resolved for.
func (p *Page) Request() request.ProcessedRequest { return p.req }

// IsSitemap reports whether the page is the sitemap.
func (p *Page) IsSitemap() bool { return p.sitemap }

// Path is the navigation path from the root to the page.
func (p *Page) Path() []view.PathComponent { return append([]view.PathComponent(nil), p.path...) }

// Produce renders the page. A panic during rendering fails this page only
// and is returned as an internal error; render errors raised by views are
// attributed to the page path.
func (p *Page) Produce(ctx context.Context) (entry cache.Entry, err error) {
	defer func() {
		if errors.IsRenderError(err) {
			err = errors.ErrRenderFailed(p.req.EncodedPath(), err).WithComponent("site")
		}
	}()
	defer errors.Recover(&err)

	if p.sitemap {
		return cache.NewEntry(p.site.Sitemap(), textContentType), nil
	}

	perf := logging.StartOperation(p.site.logger, "render")
	body := p.document(ctx)
	if p.site.minifier != nil {
		if compact, merr := p.site.minifier.Bytes("text/html", body); merr == nil {
			body = compact
		} else {
			p.site.logger.Warn(ctx, merr, "HTML minification failed, serving unminified", "path", p.req.EncodedPath())
		}
	}
	perf.End(ctx, "path", p.req.EncodedPath(), "tag", p.req.Representation.Tag, "bytes", len(body))
	return cache.NewEntry(body, htmlContentType), nil
}

// document renders the body first, so that every asset the views require
// is registered, and only then composes the head.
func (p *Page) document(ctx context.Context) []byte {
	s := p.site
	vctx := view.NewContext(ctx, view.Options{
		Environment:    s.env,
		Assets:         s.assets.Fork(),
		Path:           p.path,
		Localization:   s.loc,
		Representation: p.req.Representation,
		Linker:         s,
	})

	body := markup.NewContainer(atom.Body, markup.Attributes{}, p.dest.View.Render(vctx))
	head := markup.NewContainer(atom.Head, markup.Attributes{}, p.head(vctx))

	var htmlAttrs markup.Attributes
	if tag := p.req.Representation.Tag; tag != "" {
		htmlAttrs.SetAttr("lang", tag)
	}
	doc := markup.Fragment{
		markup.Raw("<!DOCTYPE html>"),
		markup.NewContainer(atom.Html, htmlAttrs, markup.Fragment{head, body}),
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		panic(errors.NewRenderError(errors.ErrCodeRenderFailed, "serializing document", err))
	}
	return buf.Bytes()
}

func element(tag atom.Atom, attrs ...string) *markup.Element {
	var a markup.Attributes
	for i := 0; i+1 < len(attrs); i += 2 {
		a.SetAttr(attrs[i], attrs[i+1])
	}
	return markup.NewElement(tag, a)
}

func (p *Page) head(vctx view.Context) markup.Fragment {
	s := p.site
	head := markup.Fragment{
		element(atom.Meta, "charset", "utf-8"),
		element(atom.Meta, "name", "viewport", "content", "width=device-width, initial-scale=1"),
	}

	title := vctx.Localize(vctx.Title())
	if title == "" {
		title = s.name
	}
	if title != "" {
		head = append(head, markup.NewElement(atom.Title, markup.Attributes{}, markup.Text(title)))
	}
	if s.author != "" {
		head = append(head, element(atom.Meta, "name", "author", "content", s.author))
	}

	for _, a := range vctx.Assets().Assets() {
		switch a.Kind {
		case view.AssetStylesheet:
			head = append(head, element(atom.Link, "rel", "stylesheet", "href", a.Href))
		case view.AssetIcon:
			if a.Type != "" {
				head = append(head, element(atom.Link, "rel", "icon", "href", a.Href, "type", a.Type))
			} else {
				head = append(head, element(atom.Link, "rel", "icon", "href", a.Href))
			}
		case view.AssetScript:
			head = append(head, element(atom.Script, "src", a.Href, "defer", ""))
		}
	}

	canonical := p.req.WithRepresentation(request.Representation{})
	for _, alt := range s.Alternates(canonical) {
		head = append(head, element(atom.Link, "rel", "alternate", "hreflang", alt.Tag, "href", alt.URL))
	}
	return head
}
