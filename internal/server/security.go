package server

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/conneroisu/facet/internal/errors"
)

// SecurityConfig holds security configuration
type SecurityConfig struct {
	CSP                 *CSPConfig
	HSTS                *HSTSConfig
	XFrameOptions       string
	XContentTypeNoSniff bool
	ReferrerPolicy      string
	RateLimiting        *RateLimitConfig
}

// CSPConfig holds Content Security Policy configuration
type CSPConfig struct {
	DefaultSrc     []string
	ScriptSrc      []string
	StyleSrc       []string
	ImgSrc         []string
	FontSrc        []string
	ObjectSrc      []string
	FrameAncestors []string
	BaseURI        []string
	FormAction     []string
}

// HSTSConfig holds HTTP Strict Transport Security configuration
type HSTSConfig struct {
	MaxAge            int
	IncludeSubDomains bool
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int
	Enabled           bool
}

// DefaultSecurityConfig suits rendered pages: inline style attributes are
// allowed, everything else comes from the site itself.
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		CSP: &CSPConfig{
			DefaultSrc:     []string{"'self'"},
			ScriptSrc:      []string{"'self'"},
			StyleSrc:       []string{"'self'", "'unsafe-inline'"},
			ImgSrc:         []string{"'self'", "data:"},
			FontSrc:        []string{"'self'"},
			ObjectSrc:      []string{"'none'"},
			FrameAncestors: []string{"'none'"},
			BaseURI:        []string{"'self'"},
			FormAction:     []string{"'self'"},
		},
		HSTS:                &HSTSConfig{MaxAge: 31536000, IncludeSubDomains: true},
		XFrameOptions:       "DENY",
		XContentTypeNoSniff: true,
		ReferrerPolicy:      "strict-origin-when-cross-origin",
	}
}

// SecurityMiddleware sets the configured security headers.
func SecurityMiddleware(secConfig *SecurityConfig) func(http.Handler) http.Handler {
	if secConfig == nil {
		secConfig = DefaultSecurityConfig()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			applySecurityHeaders(w, r, secConfig)
			next.ServeHTTP(w, r)
		})
	}
}

func applySecurityHeaders(w http.ResponseWriter, r *http.Request, config *SecurityConfig) {
	h := w.Header()
	if config.CSP != nil {
		h.Set("Content-Security-Policy", buildCSPHeader(config.CSP))
	}
	if config.HSTS != nil && r.TLS != nil {
		h.Set("Strict-Transport-Security", buildHSTSHeader(config.HSTS))
	}
	if config.XFrameOptions != "" {
		h.Set("X-Frame-Options", config.XFrameOptions)
	}
	if config.XContentTypeNoSniff {
		h.Set("X-Content-Type-Options", "nosniff")
	}
	if config.ReferrerPolicy != "" {
		h.Set("Referrer-Policy", config.ReferrerPolicy)
	}
}

func buildCSPHeader(csp *CSPConfig) string {
	var directives []string
	addDirective := func(name string, values []string) {
		if len(values) > 0 {
			directives = append(directives, fmt.Sprintf("%s %s", name, strings.Join(values, " ")))
		}
	}

	addDirective("default-src", csp.DefaultSrc)
	addDirective("script-src", csp.ScriptSrc)
	addDirective("style-src", csp.StyleSrc)
	addDirective("img-src", csp.ImgSrc)
	addDirective("font-src", csp.FontSrc)
	addDirective("object-src", csp.ObjectSrc)
	addDirective("frame-ancestors", csp.FrameAncestors)
	addDirective("base-uri", csp.BaseURI)
	addDirective("form-action", csp.FormAction)

	return strings.Join(directives, "; ")
}

func buildHSTSHeader(hsts *HSTSConfig) string {
	header := fmt.Sprintf("max-age=%d", hsts.MaxAge)
	if hsts.IncludeSubDomains {
		header += "; includeSubDomains"
	}
	return header
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// addMiddleware wraps handler with panic recovery, request logging,
// security headers and, when enabled, rate limiting.
func (s *Server) addMiddleware(handler http.Handler) http.Handler {
	handler = SecurityMiddleware(s.cfg.Security)(handler)
	if s.limiter != nil {
		handler = RateLimitMiddleware(s.limiter)(handler)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				err, ok := v.(error)
				if !ok {
					err = fmt.Errorf("%v", v)
				}
				s.errHandler.Handle(r.Context(),
					errors.NewInternalError(errors.ErrCodeInternalError, "handler panic", err).WithComponent("server"))
				if rec.status == 0 {
					http.Error(rec, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}
			s.logger.Debug(r.Context(), "Request served",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"bytes", rec.bytes,
				"duration", time.Since(start))
		}()
		handler.ServeHTTP(rec, r)
	})
}
