// Package site binds a destination tree to the rendering pipeline: it
// resolves request paths to pages, wraps rendered views in the document
// shell and enumerates the sitemap.
package site

import (
	"net/url"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/facet/internal/environment"
	"github.com/conneroisu/facet/internal/errors"
	"github.com/conneroisu/facet/internal/localization"
	"github.com/conneroisu/facet/internal/logging"
	"github.com/conneroisu/facet/internal/request"
	"github.com/conneroisu/facet/internal/view"
)

// DefaultSitemapFileName is the path the sitemap is served under.
const DefaultSitemapFileName = "sitemap.txt"

// Resolver produces a dynamic child for a path segment.
type Resolver func(segment string) (*Destination, bool)

// Destination is one node of the navigation tree.
type Destination struct {
	// Segment is the path component leading here; empty for the root.
	Segment string
	// Title defaults to the segment in title case. It is looked up in the
	// string table of the negotiated language.
	Title string
	View  view.View
	// Data is passed through to the navigation path.
	Data     any
	Children []*Destination
	// Resolve handles segments no static child matches. Destinations it
	// returns are not part of the sitemap.
	Resolve Resolver
}

func (d *Destination) child(segment string) (*Destination, bool) {
	for _, c := range d.Children {
		if c.Segment == segment {
			return c, true
		}
	}
	if d.Resolve != nil {
		return d.Resolve(segment)
	}
	return nil, false
}

func defaultTitle(segment string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(segment, "-", " "))
}

func (d *Destination) component() view.PathComponent {
	title := d.Title
	if title == "" && d.Segment != "" {
		title = defaultTitle(d.Segment)
	}
	return view.PathComponent{Segment: d.Segment, Title: title, Data: d.Data}
}

// Config configures a Site.
type Config struct {
	Name string
	// BaseURL prefixes absolute URLs in the sitemap and the alternates.
	// Empty yields root-relative URLs.
	BaseURL         string
	Author          string
	Root            *Destination
	Localization    *localization.Context
	LanguageParam   string
	SitemapFileName string
	// SitemapMaxBytes truncates the sitemap; zero means unbounded.
	SitemapMaxBytes int
	// Assets are registered with every page, typically stylesheets and the
	// icon.
	Assets      *view.AssetRegistry
	Environment *environment.Node
	// Minify compacts page markup.
	Minify bool
	Logger logging.Logger
}

// Site serves a destination tree.
type Site struct {
	name            string
	base            *url.URL
	author          string
	root            *Destination
	loc             *localization.Context
	langParam       string
	sitemapFileName string
	sitemapMaxBytes int
	assets          *view.AssetRegistry
	env             *environment.Node
	minifier        *minify.M
	logger          logging.Logger
}

// New validates cfg and builds a Site.
func New(cfg Config) (*Site, error) {
	if cfg.Root == nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "site has no root destination")
	}

	var base *url.URL
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "base URL must be absolute: "+cfg.BaseURL)
		}
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = ""
		u.RawQuery, u.Fragment = "", ""
		base = u
	}

	s := &Site{
		name:            cfg.Name,
		base:            base,
		author:          cfg.Author,
		root:            cfg.Root,
		loc:             cfg.Localization,
		langParam:       cfg.LanguageParam,
		sitemapFileName: cfg.SitemapFileName,
		sitemapMaxBytes: cfg.SitemapMaxBytes,
		assets:          cfg.Assets,
		env:             cfg.Environment,
		logger:          cfg.Logger,
	}
	if s.langParam == "" {
		s.langParam = request.DefaultLanguageParameter
	}
	if s.sitemapFileName == "" {
		s.sitemapFileName = DefaultSitemapFileName
	}
	if s.assets == nil {
		s.assets = view.NewAssetRegistry()
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	s.logger = s.logger.WithComponent("site")
	if cfg.Minify {
		s.minifier = minify.New()
		s.minifier.AddFunc("text/html", html.Minify)
		s.minifier.AddFunc("text/css", css.Minify)
	}
	return s, nil
}

// Name is the site name.
func (s *Site) Name() string { return s.name }

// Localization is the bound localization context, nil when unlocalized.
func (s *Site) Localization() *localization.Context { return s.loc }

// LanguageParameter is the query item carrying an explicit language.
func (s *Site) LanguageParameter() string { return s.langParam }

// SitemapFileName is the root path segment of the sitemap.
func (s *Site) SitemapFileName() string { return s.sitemapFileName }

// Resolve finds the page for req. It reports false when the path matches
// no destination.
func (s *Site) Resolve(req request.ProcessedRequest) (*Page, bool) {
	if len(req.Path) == 1 && req.Path[0] == s.sitemapFileName {
		return &Page{site: s, req: req, sitemap: true}, true
	}

	dest := s.root
	path := []view.PathComponent{dest.component()}
	for _, segment := range req.Path {
		next, ok := dest.child(segment)
		if !ok || next == nil {
			return nil, false
		}
		dest = next
		if dest.Segment == "" {
			dest = withSegment(dest, segment)
		}
		path = append(path, dest.component())
	}
	if dest.View == nil {
		return nil, false
	}
	return &Page{site: s, req: req, path: path, dest: dest}, true
}

// withSegment fills in the segment of a dynamic destination.
func withSegment(d *Destination, segment string) *Destination {
	c := *d
	c.Segment = segment
	return &c
}

// Href implements view.Linker. Links are root-relative and carry the path
// of the base URL.
func (s *Site) Href(path []string) string {
	p := request.ProcessedRequest{Path: path}.EncodedPath()
	if s.base == nil || s.base.Path == "" {
		return p
	}
	if p == "/" {
		return s.base.EscapedPath() + "/"
	}
	return s.base.EscapedPath() + p
}

var _ view.Linker = (*Site)(nil)
