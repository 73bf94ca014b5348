package cmd

import (
	"io"

	"github.com/conneroisu/facet/internal/assets"
	"github.com/conneroisu/facet/internal/cache"
	"github.com/conneroisu/facet/internal/config"
	"github.com/conneroisu/facet/internal/demo"
	"github.com/conneroisu/facet/internal/localization"
	"github.com/conneroisu/facet/internal/logging"
	"github.com/conneroisu/facet/internal/request"
	"github.com/conneroisu/facet/internal/server"
	"github.com/conneroisu/facet/internal/site"
	"github.com/conneroisu/facet/internal/view"
)

// app is everything built from one configuration.
type app struct {
	cfg    *config.Config
	logger logging.Logger
	site   *site.Site
	assets *assets.Store
	canon  *request.Canonicalizer
}

func newLogger(cfg config.LogConfig, out io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Format,
		Output: out,
	}), nil
}

func loadBundle(cfg config.LocalizationConfig) (*localization.Context, error) {
	var (
		b   localization.Bundle
		err error
	)
	if cfg.Bundle != "" {
		b, err = localization.LoadBundle(cfg.Bundle)
	} else {
		b, err = demo.Bundle()
	}
	if err != nil {
		return nil, err
	}
	if cfg.DefaultTag != "" {
		b.DefaultTag = cfg.DefaultTag
	}
	return localization.NewContext(b)
}

// buildApp wires the demo site from cfg. Logs go to logOut.
func buildApp(cfg *config.Config, logOut io.Writer) (*app, error) {
	logger, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}

	loc, err := loadBundle(cfg.Localization)
	if err != nil {
		return nil, err
	}

	store, err := assets.NewStore(cfg.Site.AssetsDir, assets.Options{
		Minify: cfg.Site.Minify,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	registry := view.NewAssetRegistry()
	store.Register(registry)

	s, err := site.New(site.Config{
		Name:            cfg.Site.Name,
		BaseURL:         cfg.Server.BaseURL,
		Author:          cfg.Site.Author,
		Root:            demo.Root(),
		Localization:    loc,
		LanguageParam:   cfg.Localization.QueryParameter,
		SitemapFileName: cfg.Sitemap.FileName,
		SitemapMaxBytes: cfg.Sitemap.MaxBytes,
		Assets:          registry,
		Minify:          cfg.Site.Minify,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		site:   s,
		assets: store,
		canon:  request.NewCanonicalizer(cfg.Localization.QueryParameter, cfg.Site.IgnoredQuery),
	}, nil
}

// newServer builds the HTTP server and its response cache.
func (a *app) newServer() (*server.Server, error) {
	c := cache.New(cache.Config{
		MaxBytes: a.cfg.Cache.CacheBytes(nil),
		Shards:   a.cfg.Cache.Shards,
		TTL:      a.cfg.Cache.TTL,
		Logger:   a.logger,
	})

	security := server.DefaultSecurityConfig()
	if rl := a.cfg.Server.RateLimit; rl.Enabled {
		security.RateLimiting = &server.RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: rl.RequestsPerMinute,
			BurstSize:         rl.Burst,
		}
	}

	return server.New(server.Config{
		Host:          a.cfg.Server.Host,
		Port:          a.cfg.Server.Port,
		Engine:        a.cfg.Server.Engine,
		Site:          a.site,
		Cache:         c,
		Assets:        a.assets,
		Canonicalizer: a.canon,
		WatchAssets:   a.cfg.Site.WatchAssets,
		Security:      security,
		Logger:        a.logger,
	})
}
