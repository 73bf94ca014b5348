package demo

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/conneroisu/facet/internal/localization"
	"github.com/conneroisu/facet/internal/request"
	"github.com/conneroisu/facet/internal/site"
)

func demoSite(t *testing.T) *site.Site {
	t.Helper()
	b, err := Bundle()
	require.NoError(t, err)
	loc, err := localization.NewContext(b)
	require.NoError(t, err)
	s, err := site.New(site.Config{Name: "demo", Root: Root(), Localization: loc})
	require.NoError(t, err)
	return s
}

func render(t *testing.T, s *site.Site, tag string, path ...string) string {
	t.Helper()
	req := request.ProcessedRequest{Path: path, Representation: request.Representation{Tag: tag}}
	page, ok := s.Resolve(req)
	require.True(t, ok, path)
	entry, err := page.Produce(context.Background())
	require.NoError(t, err, path)
	out := string(entry.Body)
	_, err = html.Parse(strings.NewReader(out))
	require.NoError(t, err)
	return out
}

func TestBundle(t *testing.T) {
	b, err := Bundle()
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "zh-Hant"}, b.Tags)
	assert.Equal(t, "en", b.DefaultTag)
}

func TestEveryDestinationRenders(t *testing.T) {
	s := demoSite(t)
	paths := s.Destinations()
	require.Len(t, paths, 4)

	for _, path := range paths {
		for _, tag := range []string{"en", "zh-Hant"} {
			out := render(t, s, tag, path...)
			assert.Contains(t, out, `<html lang="`+tag+`">`)
		}
	}
}

func TestLocalizedHome(t *testing.T) {
	s := demoSite(t)

	en := render(t, s, "en")
	assert.Contains(t, en, "<title>Home</title>")
	assert.Contains(t, en, "A small site rendered by facet.")

	zh := render(t, s, "zh-Hant")
	assert.Contains(t, zh, "<title>首頁</title>")
	assert.Contains(t, zh, "由 facet 產生的小型網站。")
}

func TestPeople(t *testing.T) {
	s := demoSite(t)

	out := render(t, s, "en", "people", "grace")
	assert.Contains(t, out, "Grace Hopper")
	assert.Contains(t, out, `aria-current="page"`)

	_, ok := s.Resolve(request.ProcessedRequest{Path: []string{"people", "nobody"}})
	assert.False(t, ok)

	list := render(t, s, "en", "people")
	assert.Less(t, strings.Index(list, "Ada Lovelace"), strings.Index(list, "Alan Turing"))
	assert.Less(t, strings.Index(list, "Alan Turing"), strings.Index(list, "Grace Hopper"))
}
