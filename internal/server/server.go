// Package server exposes a site over HTTP: language negotiation, the
// response cache, conditional requests and asset serving.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/conneroisu/facet/internal/assets"
	"github.com/conneroisu/facet/internal/cache"
	"github.com/conneroisu/facet/internal/errors"
	"github.com/conneroisu/facet/internal/logging"
	"github.com/conneroisu/facet/internal/request"
	"github.com/conneroisu/facet/internal/site"
	"github.com/conneroisu/facet/internal/view"
	"github.com/conneroisu/facet/internal/watcher"
)

// Engines accepted by Config.Engine.
const (
	EngineStdlib = "stdlib"
	EngineGin    = "gin"
)

// Config configures a Server.
type Config struct {
	Host   string
	Port   int
	Engine string

	Site          *site.Site
	Cache         *cache.Cache
	Assets        *assets.Store
	Canonicalizer *request.Canonicalizer

	// WatchAssets reloads the asset store and purges the cache when the
	// asset directory changes.
	WatchAssets bool
	Security    *SecurityConfig
	Logger      logging.Logger
}

// Server serves one site.
type Server struct {
	cfg        Config
	site       *site.Site
	cache      *cache.Cache
	assets     *assets.Store
	canon      *request.Canonicalizer
	logger     logging.Logger
	errHandler *errors.ErrorHandler
	limiter    *RateLimiter
	handler    http.Handler
	started    time.Time

	serverMutex  sync.RWMutex
	httpServer   *http.Server
	watcher      *watcher.FileWatcher
	shutdownOnce sync.Once
}

// New validates cfg and builds the handler chain.
func New(cfg Config) (*Server, error) {
	if cfg.Site == nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "server needs a site")
	}
	switch cfg.Engine {
	case "":
		cfg.Engine = EngineStdlib
	case EngineStdlib, EngineGin:
	default:
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown server engine %q", cfg.Engine))
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.New(cache.Config{MaxBytes: cache.DefaultMaxBytes, Logger: cfg.Logger})
	}
	if cfg.Canonicalizer == nil {
		cfg.Canonicalizer = request.NewCanonicalizer(cfg.Site.LanguageParameter(), request.DefaultIgnoredQuery)
	}
	if cfg.Security == nil {
		cfg.Security = DefaultSecurityConfig()
	}

	logger := cfg.Logger.WithComponent("server")
	s := &Server{
		cfg:        cfg,
		site:       cfg.Site,
		cache:      cfg.Cache,
		assets:     cfg.Assets,
		canon:      cfg.Canonicalizer,
		logger:     logger,
		errHandler: errors.NewErrorHandler(logger),
		started:    time.Now(),
	}
	if rl := cfg.Security.RateLimiting; rl != nil && rl.Enabled {
		s.limiter = NewRateLimiter(rl, logger)
	}
	s.handler = s.addMiddleware(s.routes())
	return s, nil
}

// Handler is the complete handler chain, middleware included.
func (s *Server) Handler() http.Handler { return s.handler }

// Cache is the response cache.
func (s *Server) Cache() *cache.Cache { return s.cache }

func (s *Server) routes() http.Handler {
	if s.cfg.Engine == EngineGin {
		return s.ginEngine()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc(view.AssetPrefix, s.handleAsset)
	mux.HandleFunc("/", s.handlePage)
	return mux
}

func (s *Server) ginEngine() *gin.Engine {
	engine := gin.New()
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false
	engine.HandleMethodNotAllowed = false

	engine.GET("/health", gin.WrapF(s.handleHealth))
	engine.GET(view.AssetPrefix+"*name", gin.WrapF(s.handleAsset))
	engine.HEAD(view.AssetPrefix+"*name", gin.WrapF(s.handleAsset))
	// Pages live in the destination tree, not in gin's router.
	engine.NoRoute(gin.WrapF(s.handlePage))
	return engine
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
}

// Start listens and serves until Shutdown. It starts the asset watcher when
// configured.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.WatchAssets && s.assets != nil && s.assets.Dir() != "" {
		fw, err := watcher.WatchAssets(ctx, s.assets.Dir(), s.assets, s.cache, s.logger)
		if err != nil {
			s.logger.Warn(ctx, err, "Asset watcher disabled", "dir", s.assets.Dir())
		} else {
			s.serverMutex.Lock()
			s.watcher = fw
			s.serverMutex.Unlock()
		}
	}

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Serving site", "addr", server.Addr, "engine", s.cfg.Engine, "site", s.site.Name())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.NewIOError(errors.ErrCodeInternalError, "listening on "+server.Addr, err).
			WithComponent("server")
	}
	return nil
}

// Shutdown stops the watcher and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")

		s.serverMutex.RLock()
		fw, server := s.watcher, s.httpServer
		s.serverMutex.RUnlock()

		if fw != nil {
			if err := fw.Stop(); err != nil {
				s.logger.Warn(ctx, err, "Stopping asset watcher failed")
			}
		}
		if s.limiter != nil {
			s.limiter.Stop()
		}
		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}
