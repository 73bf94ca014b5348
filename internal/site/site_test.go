package site

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/conneroisu/facet/internal/errors"
	"github.com/conneroisu/facet/internal/localization"
	"github.com/conneroisu/facet/internal/request"
	"github.com/conneroisu/facet/internal/view"
)

func testTree() *Destination {
	return &Destination{
		Title: "Home",
		View:  view.Text("home"),
		Children: []*Destination{
			{
				Segment: "docs",
				View:    view.Group(view.Breadcrumbs(), view.Text("docs")),
				Children: []*Destination{
					{Segment: "getting-started", View: view.Text("gs")},
				},
			},
			{
				Segment: "users",
				Resolve: func(segment string) (*Destination, bool) {
					if segment == "nobody" {
						return nil, false
					}
					return &Destination{
						Data: segment,
						View: view.Func(func(ctx view.Context) view.View {
							path := ctx.Path()
							return view.Text("user " + path[len(path)-1].Data.(string))
						}),
					}, true
				},
			},
		},
	}
}

func newSite(t *testing.T, cfg Config) *Site {
	t.Helper()
	if cfg.Root == nil {
		cfg.Root = testTree()
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func req(path ...string) request.ProcessedRequest {
	return request.ProcessedRequest{Path: path}
}

func TestResolve(t *testing.T) {
	s := newSite(t, Config{})

	page, ok := s.Resolve(req("docs", "getting-started"))
	require.True(t, ok)
	path := page.Path()
	require.Len(t, path, 3)
	assert.Equal(t, "Home", path[0].Title)
	assert.Equal(t, "Docs", path[1].Title)
	assert.Equal(t, "Getting Started", path[2].Title)

	page, ok = s.Resolve(req("users", "ada"))
	require.True(t, ok)
	assert.Equal(t, "ada", page.Path()[2].Data)
	assert.Equal(t, "Ada", page.Path()[2].Title)

	for _, missing := range [][]string{{"nope"}, {"docs", "nope"}, {"users"}, {"users", "nobody"}} {
		page, ok := s.Resolve(req(missing...))
		assert.False(t, ok, missing)
		assert.Nil(t, page)
	}
}

func TestDocumentShell(t *testing.T) {
	s := newSite(t, Config{
		Name:   "Facet",
		Author: "Ada",
		Root:   &Destination{Title: "Home", View: view.Text("hi")},
	})

	page, ok := s.Resolve(req())
	require.True(t, ok)
	entry, err := page.Produce(context.Background())
	require.NoError(t, err)

	want := `<!DOCTYPE html><html><head><meta charset="utf-8">` +
		`<meta name="viewport" content="width=device-width, initial-scale=1">` +
		`<title>Home</title><meta name="author" content="Ada"></head>` +
		`<body><p>hi</p></body></html>`
	assert.Equal(t, want, string(entry.Body))
	assert.Equal(t, "text/html; charset=utf-8", entry.ContentType)
	assert.Len(t, entry.ETag, 64)
}

func TestDocumentCollectsAssetsAndAlternates(t *testing.T) {
	loc, err := localization.NewContext(localization.Bundle{
		Tags:       []string{"en", "zh-Hant"},
		DefaultTag: "en",
		Strings: map[string]map[string]string{
			"zh-Hant": {"Docs": "文件"},
		},
	})
	require.NoError(t, err)

	assets := view.NewAssetRegistry()
	assets.Require(view.Asset{Kind: view.AssetStylesheet, Href: "/assets/site.css"})

	s := newSite(t, Config{
		BaseURL:      "https://example.com",
		Localization: loc,
		Assets:       assets,
		Root: &Destination{
			Title: "Home",
			View:  view.Text("home"),
			Children: []*Destination{{
				Segment: "docs",
				View:    view.Group(view.FavIcon("/assets/icon.png", "image/png"), view.Text("docs")),
			}},
		},
	})

	page, ok := s.Resolve(req("docs").WithRepresentation(request.Representation{Tag: "zh-Hant"}))
	require.True(t, ok)
	entry, err := page.Produce(context.Background())
	require.NoError(t, err)
	out := string(entry.Body)

	assert.True(t, strings.HasPrefix(out, `<!DOCTYPE html><html lang="zh-Hant"><head>`), out)
	assert.Contains(t, out, `<title>文件</title>`)
	assert.Contains(t, out, `<link rel="stylesheet" href="/assets/site.css"><link rel="icon" href="/assets/icon.png" type="image/png">`)
	assert.Contains(t, out, `<link rel="alternate" hreflang="en" href="https://example.com/docs?lang=en">`)
	assert.Contains(t, out, `<link rel="alternate" hreflang="zh-Hant" href="https://example.com/docs?lang=zh-Hant">`)
	assert.Equal(t, 1, assets.Len(), "page assets do not leak into the site registry")

	_, err = html.Parse(strings.NewReader(out))
	assert.NoError(t, err)
}

func TestAlternatesAndLinkHeader(t *testing.T) {
	loc, err := localization.NewContext(localization.Bundle{Tags: []string{"en", "fr"}})
	require.NoError(t, err)
	s := newSite(t, Config{BaseURL: "https://example.com/", Localization: loc})

	r := request.ProcessedRequest{
		Path:  []string{"docs"},
		Query: []request.QueryItem{{Name: "a", Value: "1", HasValue: true}},
	}
	alts := s.Alternates(r)
	assert.Equal(t, []Alternate{
		{Tag: "en", URL: "https://example.com/docs?a=1&lang=en"},
		{Tag: "fr", URL: "https://example.com/docs?a=1&lang=fr"},
	}, alts)
	assert.Equal(t,
		`<https://example.com/docs?a=1&lang=en>; rel="alternate"; hreflang="en", <https://example.com/docs?a=1&lang=fr>; rel="alternate"; hreflang="fr"`,
		LinkHeader(alts))

	unlocalized := newSite(t, Config{})
	assert.Empty(t, unlocalized.Alternates(r))
	assert.Equal(t, "/docs?a=1", unlocalized.URL(r, ""))
}

func TestBasePath(t *testing.T) {
	s := newSite(t, Config{BaseURL: "https://example.com/blog/"})
	assert.Equal(t, "/blog/docs", s.Href([]string{"docs"}))
	assert.Equal(t, "/blog/", s.Href(nil))
	assert.Equal(t, "https://example.com/blog/a%20b", s.URL(req("a b"), ""))

	page, ok := s.Resolve(req("docs"))
	require.True(t, ok)
	entry, err := page.Produce(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(entry.Body), `<a href="/blog/">Home</a>`)
}

func TestSitemap(t *testing.T) {
	s := newSite(t, Config{BaseURL: "https://example.com"})
	assert.Equal(t,
		"https://example.com/\nhttps://example.com/docs\nhttps://example.com/docs/getting-started\n",
		string(s.Sitemap()))

	truncated := newSite(t, Config{BaseURL: "https://example.com", SitemapMaxBytes: 50})
	assert.Equal(t, "https://example.com/\nhttps://example.com/docs\n", string(truncated.Sitemap()))

	page, ok := s.Resolve(req("sitemap.txt"))
	require.True(t, ok)
	assert.True(t, page.IsSitemap())
	entry, err := page.Produce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", entry.ContentType)
	assert.Equal(t, s.Sitemap(), entry.Body)
}

func TestRenderPanicFailsOnlyThePage(t *testing.T) {
	s := newSite(t, Config{Root: &Destination{
		View: view.Func(func(view.Context) view.View {
			errors.Invariant(errors.ErrCodeInvariant, "broken view")
			return nil
		}),
	}})

	page, ok := s.Resolve(req())
	require.True(t, ok)
	entry, err := page.Produce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsInternal(err))
	assert.Empty(t, entry.Body)
}

func TestRenderErrorNamesThePage(t *testing.T) {
	broken := templ.ComponentFunc(func(context.Context, io.Writer) error { return stderrors.New("broken") })
	s := newSite(t, Config{Root: &Destination{
		View: view.Text("home"),
		Children: []*Destination{
			{Segment: "docs", View: view.Templ(broken)},
		},
	}})

	page, ok := s.Resolve(req("docs"))
	require.True(t, ok)
	_, err := page.Produce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsRenderError(err))
	assert.ErrorIs(t, err, errors.ErrRenderFailed("", nil))
	assert.Contains(t, err.Error(), "render failed for /docs")
	assert.Contains(t, err.Error(), "broken")
}

func TestMinify(t *testing.T) {
	plain := newSite(t, Config{})
	minified := newSite(t, Config{Minify: true})

	render := func(s *Site) string {
		page, ok := s.Resolve(req("docs"))
		require.True(t, ok)
		entry, err := page.Produce(context.Background())
		require.NoError(t, err)
		return string(entry.Body)
	}

	full, compact := render(plain), render(minified)
	assert.Less(t, len(compact), len(full))
	assert.Contains(t, compact, "docs")
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Root: testTree(), BaseURL: "example.com/no-scheme"})
	assert.Error(t, err)
}

func TestCompositionFailure(t *testing.T) {
	s := newSite(t, Config{})
	if debugAssertions {
		assert.Panics(t, func() { s.compositionFailed("x", assert.AnError) })
		return
	}
	assert.Equal(t, "", s.compositionFailed("x", assert.AnError))
}
