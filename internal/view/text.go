package view

import (
	"net/url"
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/conneroisu/facet/internal/environment"
	"github.com/conneroisu/facet/internal/markup"
	"github.com/conneroisu/facet/internal/request"
)

// AssetPrefix is the path assets are served under.
const AssetPrefix = "/assets/"

// AssetHref returns the href of a served asset.
func AssetHref(name string) string { return AssetPrefix + url.PathEscape(name) }

type text struct {
	content   string
	localized bool
}

// Text renders a run of text. The element is chosen by the environment
// font: titles become headings, body text a paragraph.
func Text(s string) View { return text{content: s} }

// LocalizedText renders the string stored under key for the negotiated
// language.
func LocalizedText(key string) View { return text{content: key, localized: true} }

func (t text) Render(ctx Context) markup.Fragment {
	s := t.content
	if t.localized {
		s = ctx.Localize(s)
	}

	var attrs markup.Attributes
	tag := atom.P
	switch environment.Get(ctx.Environment(), FontKey) {
	case FontLargeTitle:
		tag = atom.H1
	case FontTitle:
		tag = atom.H2
	case FontHeadline:
		tag = atom.H3
	case FontSubheadline:
		tag = atom.H4
	case FontCaption:
		attrs.SetStyle("font-size", "0.75em")
	case FontMonospaced:
		attrs.SetStyle("font-family", "ui-monospace,monospace")
	}
	return markup.Fragment{markup.NewElement(tag, attrs, markup.Text(s))}
}

type image struct {
	src, alt string
}

// Image renders an <img>. A src without a slash names a served asset.
func Image(src, alt string) View { return image{src: src, alt: alt} }

func (i image) Render(Context) markup.Fragment {
	src := i.src
	if !strings.Contains(src, "/") {
		src = AssetHref(src)
	}
	var attrs markup.Attributes
	attrs.SetAttr("src", src).SetAttr("alt", i.alt)
	return markup.Fragment{markup.NewElement(atom.Img, attrs)}
}

type rectangle struct{}

// Rectangle is a box filled with the environment foreground color. Inside
// stacks it grows to fill the free space.
func Rectangle() View { return rectangle{} }

func (rectangle) Render(ctx Context) markup.Fragment {
	var attrs markup.Attributes
	switch ctx.Container() {
	case ContainerRow, ContainerColumn:
		attrs.SetStyle("flex-grow", "1").SetStyle("align-self", "stretch")
	default:
		attrs.SetStyle("min-height", "1em")
	}
	fill := environment.Get(ctx.Environment(), ForegroundKey)
	return markup.Apply(
		markup.Fragment{markup.NewElement(atom.Div, attrs)},
		markup.WithStyle(markup.PhaseBackground, "background-color", fill.String()),
	)
}

type spacer struct{}

// Spacer takes the free space along the axis of the enclosing stack. It
// renders nothing outside stacks.
func Spacer() View { return spacer{} }

func (spacer) Render(ctx Context) markup.Fragment {
	switch ctx.Container() {
	case ContainerRow, ContainerColumn:
		var attrs markup.Attributes
		attrs.SetStyle("flex-grow", "1")
		return markup.Fragment{markup.NewElement(atom.Div, attrs)}
	default:
		return nil
	}
}

type divider struct{}

// Divider draws a rule across the enclosing stack's axis.
func Divider() View { return divider{} }

func (divider) Render(ctx Context) markup.Fragment {
	var attrs markup.Attributes
	if ctx.Container() == ContainerRow {
		attrs.SetStyle("margin", "0").
			SetStyle("align-self", "stretch").
			SetStyle("border-width", markup.Shorthand("0", "1px", "0", "0"))
	}
	return markup.Fragment{markup.NewElement(atom.Hr, attrs)}
}

type link struct {
	href  string
	label View
}

// Link renders label as a hyperlink. Site paths, which start with a slash,
// are composed through the context so they follow the site's base path.
func Link(href string, label View) View { return link{href: href, label: label} }

func (l link) Render(ctx Context) markup.Fragment {
	href := l.href
	if strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//") {
		href = ctx.Href(request.SplitPath(href))
	}
	var attrs markup.Attributes
	attrs.SetAttr("href", href)
	var label markup.Fragment
	if l.label != nil {
		label = l.label.Render(ctx)
	}
	return markup.Fragment{markup.NewElement(atom.A, attrs, label...)}
}

type breadcrumbs struct{}

// Breadcrumbs renders the navigation path as a trail of links. The last
// component is the current page and is not linked.
func Breadcrumbs() View { return breadcrumbs{} }

func (breadcrumbs) Render(ctx Context) markup.Fragment {
	path := ctx.Path()
	if len(path) == 0 {
		return nil
	}

	var (
		items    markup.Fragment
		segments []string
	)
	for i, c := range path {
		if c.Segment != "" {
			segments = append(segments, c.Segment)
		}
		title := c.Title
		if title == "" {
			title = c.Segment
		}

		if i > 0 {
			var sep markup.Attributes
			sep.SetAttr("aria-hidden", "true")
			items = append(items, markup.NewElement(atom.Li, sep, markup.Text("›")))
		}

		var entry markup.Node
		if i == len(path)-1 {
			var current markup.Attributes
			current.SetAttr("aria-current", "page")
			entry = markup.NewElement(atom.Span, current, markup.Text(title))
		} else {
			var a markup.Attributes
			a.SetAttr("href", ctx.Href(append([]string(nil), segments...)))
			entry = markup.NewElement(atom.A, a, markup.Text(title))
		}
		items = append(items, markup.NewElement(atom.Li, markup.Attributes{}, entry))
	}

	var listAttrs markup.Attributes
	listAttrs.SetStyle("display", "flex")
	if gap := environment.Get(ctx.Environment(), SpacingKey); gap != "" && gap != "0" {
		listAttrs.SetStyle("gap", gap)
	}
	listAttrs.SetStyle("list-style", "none").
		SetStyle("padding", "0")
	var navAttrs markup.Attributes
	navAttrs.SetAttr("aria-label", "breadcrumb")

	list := markup.NewContainer(atom.Ol, listAttrs, items)
	return markup.Fragment{markup.NewContainer(atom.Nav, navAttrs, markup.Fragment{list})}
}

type headAsset struct {
	asset Asset
}

// Stylesheet registers a stylesheet with the document head.
func Stylesheet(href string) View {
	return headAsset{asset: Asset{Kind: AssetStylesheet, Href: href}}
}

// FavIcon registers the page icon.
func FavIcon(href, mimeType string) View {
	return headAsset{asset: Asset{Kind: AssetIcon, Href: href, Type: mimeType}}
}

func (h headAsset) Render(ctx Context) markup.Fragment {
	ctx.Assets().Require(h.asset)
	return nil
}
