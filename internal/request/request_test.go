package request

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"/", nil},
		{"", nil},
		{"/docs/intro", []string{"docs", "intro"}},
		{"//docs///intro/", []string{"docs", "intro"}},
		{"/a%20b/c", []string{"a b", "c"}},
		{"/a%2Fb", []string{"a/b"}},
		{"/%2541", []string{"%41"}},
		{"/bad%zz", []string{"bad%zz"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitPath(tt.raw))
		})
	}
}

func TestParseQuery(t *testing.T) {
	items := ParseQuery("b=2&a&c=&a=9&&d=x%20y")
	assert.Equal(t, []QueryItem{
		{Name: "b", Value: "2", HasValue: true},
		{Name: "a"},
		{Name: "c", HasValue: true},
		{Name: "a", Value: "9", HasValue: true},
		{Name: "d", Value: "x y", HasValue: true},
	}, items)
	assert.Nil(t, ParseQuery(""))
}

func TestCanonicalizeDedupesSortsAndFoldsLanguage(t *testing.T) {
	c := NewCanonicalizer("lang", DefaultIgnoredQuery)

	req, explicit := c.Canonicalize("/docs", ParseQuery("z=1&lang=fr&a=2&z=3&utm_source=x&lang=de&fbclid=y"))
	assert.Equal(t, "fr", explicit)
	assert.Equal(t, []string{"docs"}, req.Path)
	assert.Equal(t, []QueryItem{
		{Name: "a", Value: "2", HasValue: true},
		{Name: "z", Value: "1", HasValue: true},
	}, req.Query)
	assert.Empty(t, req.Representation.Tag)
}

func TestCanonicalizeOrderInsensitive(t *testing.T) {
	c := NewCanonicalizer("", nil)

	a, _ := c.Canonicalize("/p", ParseQuery("x=1&y=2"))
	b, _ := c.Canonicalize("/p/", ParseQuery("y=2&x=1&x=1"))
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())

	d, _ := c.Canonicalize("/p", ParseQuery("x=2&y=2"))
	assert.False(t, a.Equal(d))
}

func TestKeyDependsOnRepresentationOnly(t *testing.T) {
	c := NewCanonicalizer("lang", nil)

	explicitReq, explicit := c.Canonicalize("/", ParseQuery("lang=en"))
	inferredReq, _ := c.Canonicalize("/", nil)
	require.Equal(t, "en", explicit)

	rep := Representation{Tag: "en"}
	assert.Equal(t, explicitReq.WithRepresentation(rep).Key(), inferredReq.WithRepresentation(rep).Key())
	assert.NotEqual(t, inferredReq.WithRepresentation(rep).Key(),
		inferredReq.WithRepresentation(Representation{Tag: "fr"}).Key())
}

func TestKeyDistinguishesValuePresence(t *testing.T) {
	c := NewCanonicalizer("lang", nil)
	a, _ := c.Canonicalize("/", ParseQuery("q"))
	b, _ := c.Canonicalize("/", ParseQuery("q="))
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestKeyDistinguishesComponentBoundaries(t *testing.T) {
	c := NewCanonicalizer("lang", nil)
	a, _ := c.Canonicalize("/a%2Fb", nil)
	b, _ := c.Canonicalize("/a/b", nil)
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestIgnoredPatterns(t *testing.T) {
	c := NewCanonicalizer("lang", []string{"utm_*", "ref"})
	assert.True(t, c.isIgnored("utm_campaign"))
	assert.True(t, c.isIgnored("ref"))
	assert.False(t, c.isIgnored("referrer"))
	assert.False(t, c.isIgnored("page"))
}

func TestEncoding(t *testing.T) {
	c := NewCanonicalizer("lang", nil)
	u, err := url.Parse("/a%20b/c?z=1&a=x%26y&flag&lang=zh-Hant")
	require.NoError(t, err)

	req, explicit := c.FromURL(u)
	assert.Equal(t, "zh-Hant", explicit)
	assert.Equal(t, "/a%20b/c", req.EncodedPath())
	assert.Equal(t, "a=x%26y&flag&z=1", req.EncodedQuery())
	assert.Equal(t, "a=x%26y&flag&z=1&lang=en", req.EncodedQuery(QueryItem{Name: "lang", Value: "en", HasValue: true}))
	assert.Equal(t, "/a%20b/c?a=x%26y&flag&z=1#en", req.WithRepresentation(Representation{Tag: "en"}).String())

	root, _ := c.Canonicalize("", nil)
	assert.Equal(t, "/", root.EncodedPath())
	assert.Equal(t, "/", root.String())
}
