package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/facet/internal/assets"
	"github.com/conneroisu/facet/internal/cache"
	"github.com/conneroisu/facet/internal/localization"
	"github.com/conneroisu/facet/internal/site"
	"github.com/conneroisu/facet/internal/view"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testSite(t *testing.T, localized bool) *site.Site {
	t.Helper()
	cfg := site.Config{
		Name:    "Facet",
		BaseURL: "https://example.com",
		Root: &site.Destination{
			Title: "Home",
			View:  view.Text("home"),
			Children: []*site.Destination{
				{Segment: "docs", Title: "Docs", View: view.LocalizedText("Docs")},
				{Segment: "broken", View: view.Func(func(view.Context) view.View { panic("boom") })},
			},
		},
	}
	if localized {
		loc, err := localization.NewContext(localization.Bundle{
			Tags:       []string{"en", "zh-Hant"},
			DefaultTag: "en",
			Strings:    map[string]map[string]string{"zh-Hant": {"Docs": "文件"}},
		})
		require.NoError(t, err)
		cfg.Localization = loc
	}
	s, err := site.New(cfg)
	require.NoError(t, err)
	return s
}

func newServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Site == nil {
		cfg.Site = testSite(t, true)
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.New(cache.Config{MaxBytes: 1 << 20})
	}
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func get(t *testing.T, h http.Handler, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNegotiatedPage(t *testing.T) {
	for _, engine := range []string{EngineStdlib, EngineGin} {
		t.Run(engine, func(t *testing.T) {
			s := newServer(t, Config{Engine: engine})

			rec := get(t, s.Handler(), "/docs", "Accept-Language", "zh-Hans,zh;q=0.5")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal(t, "zh-Hant", rec.Header().Get("Content-Language"))
			assert.Equal(t, "Accept-Language", rec.Header().Get("Vary"))
			assert.Equal(t,
				`<https://example.com/docs?lang=en>; rel="alternate"; hreflang="en", `+
					`<https://example.com/docs?lang=zh-Hant>; rel="alternate"; hreflang="zh-Hant"`,
				rec.Header().Get("Link"))

			body := rec.Body.String()
			assert.Contains(t, body, `<html lang="zh-Hant">`)
			assert.Contains(t, body, "<p>文件</p>")
		})
	}
}

func TestCacheReuse(t *testing.T) {
	s := newServer(t, Config{})

	first := get(t, s.Handler(), "/docs?b=2&a=1&utm_source=x")
	second := get(t, s.Handler(), "/docs?a=1&b=2&a=3")
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())

	st := s.Cache().Stats()
	assert.EqualValues(t, 1, st.Misses)
	assert.EqualValues(t, 1, st.Hits)
	assert.Equal(t, 1, st.Entries)

	get(t, s.Handler(), "/docs", "Accept-Language", "zh-Hant")
	assert.Equal(t, 2, s.Cache().Stats().Entries, "another language is another entry")
}

func TestExplicitLanguage(t *testing.T) {
	s := newServer(t, Config{})

	rec := get(t, s.Handler(), "/docs?lang=zh-Hant", "Accept-Language", "en")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "zh-Hant", rec.Header().Get("Content-Language"))

	tests := []struct {
		name   string
		target string
		accept string
		want   string
	}{
		{"same as inferred", "/docs?lang=en", "en", "https://example.com/docs"},
		{"unsupported", "/docs?lang=fr&x=1", "en", "https://example.com/docs?x=1"},
		{"case folded", "/docs?lang=ZH-hant", "zh-Hant", "https://example.com/docs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s.Handler(), tt.target, "Accept-Language", tt.accept)
			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Location"))
		})
	}
}

func TestUnlocalizedSite(t *testing.T) {
	s := newServer(t, Config{Site: testSite(t, false)})

	rec := get(t, s.Handler(), "/docs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Vary"))
	assert.Empty(t, rec.Header().Get("Link"))
	assert.Contains(t, rec.Body.String(), "<html><head>")

	rec = get(t, s.Handler(), "/docs?lang=en")
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestConditionalRequests(t *testing.T) {
	s := newServer(t, Config{})

	rec := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	rec = get(t, s.Handler(), "/", "If-None-Match", `"other", `+etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = get(t, s.Handler(), "/", "If-None-Match", `"other"`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEtagMatches(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"x", "abc"`, true},
		{"*", true},
		{`"abcd"`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, etagMatches(tt.header, `"abc"`), tt.header)
	}
}

func TestErrors(t *testing.T) {
	for _, engine := range []string{EngineStdlib, EngineGin} {
		t.Run(engine, func(t *testing.T) {
			s := newServer(t, Config{Engine: engine})

			assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/missing").Code)
			assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/docs/deeper").Code)

			rec := get(t, s.Handler(), "/broken")
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.NotContains(t, rec.Body.String(), "<html")
			assert.Equal(t, 0, s.Cache().Len(), "failures are not cached")

			assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/docs").Code, "one failed page leaves the rest")

			req := httptest.NewRequest(http.MethodPost, "/docs", nil)
			post := httptest.NewRecorder()
			s.Handler().ServeHTTP(post, req)
			assert.Equal(t, http.StatusMethodNotAllowed, post.Code)
		})
	}
}

func TestHead(t *testing.T) {
	s := newServer(t, Config{})
	req := httptest.NewRequest(http.MethodHead, "/docs", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.NotEqual(t, "0", rec.Header().Get("Content-Length"))
}

func TestSitemap(t *testing.T) {
	s := newServer(t, Config{})
	rec := get(t, s.Handler(), "/sitemap.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "https://example.com/\nhttps://example.com/docs\nhttps://example.com/broken\n", rec.Body.String())
	assert.Empty(t, rec.Header().Get("Link"))
}

func TestAssets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.css"), []byte("p{color:red}"), 0o644))
	store, err := assets.NewStore(dir, assets.Options{})
	require.NoError(t, err)

	for _, engine := range []string{EngineStdlib, EngineGin} {
		t.Run(engine, func(t *testing.T) {
			s := newServer(t, Config{Engine: engine, Assets: store})

			rec := get(t, s.Handler(), "/assets/site.css")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "p{color:red}", rec.Body.String())
			assert.Equal(t, "text/css; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Equal(t, assetCacheControl, rec.Header().Get("Cache-Control"))

			rec = get(t, s.Handler(), "/assets/site.css", "If-None-Match", rec.Header().Get("ETag"))
			assert.Equal(t, http.StatusNotModified, rec.Code)

			assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/assets/missing.css").Code)
		})
	}
}

func TestHealth(t *testing.T) {
	for _, engine := range []string{EngineStdlib, EngineGin} {
		t.Run(engine, func(t *testing.T) {
			s := newServer(t, Config{Engine: engine})
			get(t, s.Handler(), "/docs")

			rec := get(t, s.Handler(), "/health")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var health HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
			assert.Equal(t, "healthy", health.Status)
			assert.Equal(t, "Facet", health.Site)
			assert.Equal(t, []string{"en", "zh-Hant"}, health.Languages)
			assert.Equal(t, 1, health.Cache.Entries)
			assert.NotEmpty(t, health.Version)
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newServer(t, Config{})
	rec := get(t, s.Handler(), "/")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	csp := rec.Header().Get("Content-Security-Policy")
	assert.True(t, strings.HasPrefix(csp, "default-src 'self'; "), csp)
	assert.Contains(t, csp, "style-src 'self' 'unsafe-inline'")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"), "plain HTTP gets no HSTS")
}

func TestRateLimitMiddleware(t *testing.T) {
	sec := DefaultSecurityConfig()
	sec.RateLimiting = &RateLimitConfig{RequestsPerMinute: 1, BurstSize: 2, Enabled: true}
	s := newServer(t, Config{Security: sec})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, get(t, s.Handler(), "/").Code)
	}
	rec := get(t, s.Handler(), "/")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	other := get(t, s.Handler(), "/", "X-Forwarded-For", "10.0.0.9")
	assert.Equal(t, http.StatusOK, other.Code, "buckets are per client")
}

func TestTokenBucketRefill(t *testing.T) {
	rl := NewRateLimiter(&RateLimitConfig{RequestsPerMinute: 60, BurstSize: 1, Enabled: true}, nil)
	defer rl.Stop()

	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Check("a").Allowed)
	denied := rl.Check("a")
	assert.False(t, denied.Allowed)
	assert.Equal(t, time.Second, denied.RetryAfter)

	now = now.Add(time.Second)
	assert.True(t, rl.Check("a").Allowed)

	now = now.Add(bucketExpiry + time.Second)
	rl.performCleanup()
	assert.Empty(t, rl.buckets)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", getClientIP(req))
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Site: testSite(t, false), Engine: "fasthttp"})
	assert.Error(t, err)
}

func TestWarm(t *testing.T) {
	s := newServer(t, Config{})
	err := s.Warm(context.Background())
	assert.Error(t, err, "the broken page fails to warm")
	assert.Equal(t, 2, s.Cache().Len())

	rec := get(t, s.Handler(), "/docs", "Accept-Language", "en")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, s.Cache().Stats().Hits)
}

func TestStartAndShutdown(t *testing.T) {
	s := newServer(t, Config{Host: "127.0.0.1", Port: 0})
	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		s.serverMutex.RLock()
		defer s.serverMutex.RUnlock()
		return s.httpServer != nil
	}, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-done)
}
