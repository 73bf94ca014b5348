package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/conneroisu/facet/internal/cache"
	"github.com/conneroisu/facet/internal/errors"
	"github.com/conneroisu/facet/internal/localization"
	"github.com/conneroisu/facet/internal/request"
	"github.com/conneroisu/facet/internal/site"
	"github.com/conneroisu/facet/internal/version"
	"github.com/conneroisu/facet/internal/view"
)

const assetCacheControl = "public, max-age=3600"

func allowRead(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

// negotiate resolves the representation. Unlocalized sites have nothing
// to choose, so any explicit value is redundant.
func (s *Server) negotiate(explicit, acceptLanguage string) localization.Resolution {
	loc := s.site.Localization()
	if loc == nil {
		return localization.Resolution{Redundant: explicit != ""}
	}
	return loc.Negotiate(explicit, acceptLanguage)
}

// handlePage serves a destination of the site.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	ctx := r.Context()

	req, explicit := s.canon.FromURL(r.URL)
	res := s.negotiate(explicit, r.Header.Get("Accept-Language"))
	if explicit != "" && res.Redundant {
		// The explicit value changes nothing; send the client to the URL
		// without it so that both spellings share one cache entry.
		if target := s.site.URL(req, ""); target != "" {
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
	}
	req = req.WithRepresentation(request.Representation{Tag: res.Tag})

	page, ok := s.site.Resolve(req)
	if !ok {
		http.NotFound(w, r)
		return
	}

	entry, err := s.cache.GetOrCompute(ctx, req.Key(), page.Produce)
	if err != nil {
		if ctx.Err() != nil {
			// Client went away; nothing to answer.
			return
		}
		s.errHandler.Handle(ctx, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h := w.Header()
	if s.site.Localization() != nil && !page.IsSitemap() {
		h.Add("Vary", "Accept-Language")
		h.Set("Content-Language", res.Tag)
		if link := site.LinkHeader(s.site.Alternates(req.WithRepresentation(request.Representation{}))); link != "" {
			h.Set("Link", link)
		}
	}
	h.Set("Cache-Control", "no-cache")
	writeEntry(w, r, entry.Body, entry.ContentType, entry.ETag)
}

// handleAsset serves a file of the asset store.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	if s.assets == nil {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, view.AssetPrefix)
	f, ok := s.assets.Get(name)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", assetCacheControl)
	w.Header().Set("Last-Modified", f.ModTime.UTC().Format(http.TimeFormat))
	writeEntry(w, r, f.Body, f.ContentType, f.ETag)
}

// writeEntry writes body with its validators and answers conditional
// requests with 304.
func writeEntry(w http.ResponseWriter, r *http.Request, body []byte, contentType, etag string) {
	h := w.Header()
	quoted := `"` + etag + `"`
	h.Set("ETag", quoted)
	if etagMatches(r.Header.Get("If-None-Match"), quoted) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}

// etagMatches applies the weak comparison of If-None-Match.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    string             `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
	Uptime    string             `json:"uptime"`
	Version   string             `json:"version"`
	BuildInfo *version.BuildInfo `json:"build_info"`
	Site      string             `json:"site,omitempty"`
	Languages []string           `json:"languages,omitempty"`
	Assets    int                `json:"assets"`
	Cache     HealthCache        `json:"cache"`
}

// HealthCache reports response cache counters.
type HealthCache struct {
	Entries   int     `json:"entries"`
	Bytes     int64   `json:"bytes"`
	MaxBytes  int64   `json:"max_bytes"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

func healthCache(st cache.Stats) HealthCache {
	return HealthCache{
		Entries:   st.Entries,
		Bytes:     st.Bytes,
		MaxBytes:  st.MaxBytes,
		Hits:      st.Hits,
		Misses:    st.Misses,
		Evictions: st.Evictions,
		HitRate:   st.HitRate(),
	}
}

// handleHealth returns the server health status for health checks
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Version:   version.GetShortVersion(),
		BuildInfo: version.GetBuildInfo(),
		Site:      s.site.Name(),
		Cache:     healthCache(s.cache.Stats()),
	}
	if loc := s.site.Localization(); loc != nil {
		health.Languages = loc.Tags()
	}
	if s.assets != nil {
		health.Assets = len(s.assets.Names())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Warn(r.Context(), err, "Failed to encode health response")
	}
}

// Warm renders every static destination in the default representation so
// that the first visitors hit the cache.
func (s *Server) Warm(ctx context.Context) error {
	tag := ""
	if loc := s.site.Localization(); loc != nil {
		tag = loc.DefaultTag()
	}
	var failed int
	for _, path := range s.site.Destinations() {
		req := request.ProcessedRequest{Path: path, Representation: request.Representation{Tag: tag}}
		page, ok := s.site.Resolve(req)
		if !ok {
			continue
		}
		if _, err := s.cache.GetOrCompute(ctx, req.Key(), page.Produce); err != nil {
			failed++
			s.errHandler.Handle(ctx, err)
		}
	}
	if failed > 0 {
		return errors.NewRenderError(errors.ErrCodeRenderFailed,
			strconv.Itoa(failed)+" pages failed to render while warming", nil).WithComponent("server")
	}
	return nil
}
