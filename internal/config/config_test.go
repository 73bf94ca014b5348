package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/facet/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "stdlib", cfg.Server.Engine)
	assert.False(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, int64(0), cfg.Cache.MaxBytes)
	assert.InDelta(t, 0.1, cfg.Cache.MemoryFraction, 1e-9)
	assert.Equal(t, 16, cfg.Cache.Shards)
	assert.Equal(t, time.Duration(0), cfg.Cache.TTL)
	assert.Equal(t, "lang", cfg.Localization.QueryParameter)
	assert.Equal(t, "sitemap.txt", cfg.Sitemap.FileName)
	assert.Equal(t, []string{"utm_*", "fbclid", "gclid"}, cfg.Site.IgnoredQuery)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".facet.yml")
	require.NoError(t, os.WriteFile(file, []byte(`
server:
  port: 9000
  engine: GIN
  base_url: https://example.com/
cache:
  max_bytes: 1048576
  ttl: 5m
localization:
  bundle: bundle.yml
  query_parameter: hl
site:
  author: Ada
  assets_dir: assets
  minify: true
  ignored_query: [ref, "utm_*"]
log:
  format: json
`), 0o644))

	v := viper.New()
	v.SetConfigFile(file)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "gin", cfg.Server.Engine)
	assert.Equal(t, "https://example.com", cfg.Server.BaseURL)
	assert.Equal(t, int64(1<<20), cfg.Cache.MaxBytes)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "bundle.yml", cfg.Localization.Bundle)
	assert.Equal(t, "hl", cfg.Localization.QueryParameter)
	assert.Equal(t, "Ada", cfg.Site.Author)
	assert.True(t, cfg.Site.Minify)
	assert.Equal(t, []string{"ref", "utm_*"}, cfg.Site.IgnoredQuery)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("FACET_SERVER_PORT", "7000")
	t.Setenv("FACET_SITE_IGNORED_QUERY", "ref,src")
	t.Setenv("FACET_LOCALIZATION_DEFAULT_TAG", "zh-Hant")

	v := viper.New()
	v.SetEnvPrefix("FACET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, []string{"ref", "src"}, cfg.Site.IgnoredQuery)
	assert.Equal(t, "zh-Hant", cfg.Localization.DefaultTag)
}

func TestLoadGlobal(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("server.port", 3000)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"port too large", "server.port", 70000},
		{"port not a number", "server.port", "invalid_port"},
		{"dangerous host", "server.host", "localhost;rm"},
		{"unknown engine", "server.engine", "fasthttp"},
		{"relative base url", "server.base_url", "example.com"},
		{"base url with query", "server.base_url", "https://example.com/?a=1"},
		{"negative cache", "cache.max_bytes", -1},
		{"fraction above one", "cache.memory_fraction", 1.5},
		{"negative ttl", "cache.ttl", "-1s"},
		{"bundle traversal", "localization.bundle", "../secret.yml"},
		{"empty query parameter", "localization.query_parameter", ""},
		{"reserved query parameter", "localization.query_parameter", "a=b"},
		{"nested sitemap", "sitemap.file_name", "a/sitemap.txt"},
		{"assets traversal", "site.assets_dir", "../assets"},
		{"unknown log level", "log.level", "verbose"},
		{"unknown log format", "log.format", "xml"},
		{"rate limit without burst", "server.rate_limit.burst", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)
			if strings.HasPrefix(tt.key, "server.rate_limit") {
				v.Set("server.rate_limit.enabled", true)
			}
			_, err := LoadFrom(v)
			require.Error(t, err)

			var fe *errors.FacetError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, errors.ErrCodeConfigInvalid, fe.Code)
		})
	}
}

func TestValidatePath(t *testing.T) {
	assert.NoError(t, validatePath("assets"))
	assert.NoError(t, validatePath("/srv/site/bundle.yml"))

	for path, reason := range map[string]string{
		"../secret.yml": "traversal",
		"a/../../b":     "traversal",
		"assets;rm -rf": "dangerous character ;",
		"$(whoami).yml": "dangerous character $",
	} {
		err := validatePath(path)
		var fe *errors.FacetError
		require.ErrorAs(t, err, &fe, path)
		assert.Equal(t, errors.ErrCodeInvalidPath, fe.Code, path)
		assert.Equal(t, reason, fe.Context["reason"], path)
		assert.Contains(t, err.Error(), path)
	}
}

func TestCacheBytes(t *testing.T) {
	available := func() uint64 { return 1000 }

	assert.Equal(t, int64(500), CacheConfig{MaxBytes: 500, MemoryFraction: 0.5}.CacheBytes(available))
	assert.Equal(t, int64(250), CacheConfig{MemoryFraction: 0.25}.CacheBytes(available))
	assert.Equal(t, int64(0), CacheConfig{}.CacheBytes(available))
	assert.Positive(t, CacheConfig{MemoryFraction: 0.1}.CacheBytes(nil))
}

func TestParseCgroupLimit(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"536870912\n", 536870912, true},
		{"max\n", 0, false},
		{"9223372036854771712", 0, false},
		{"", 0, false},
		{"garbage", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseCgroupLimit(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseMemInfo(t *testing.T) {
	info := "MemTotal:       16316412 kB\nMemFree:         1234567 kB\nMemAvailable:    8000000 kB\n"
	got, ok := parseMemInfo(bufio.NewScanner(strings.NewReader(info)))
	require.True(t, ok)
	assert.Equal(t, uint64(8000000*1024), got)

	_, ok = parseMemInfo(bufio.NewScanner(strings.NewReader("MemTotal: 1 kB\n")))
	assert.False(t, ok)
}

func TestAvailableMemoryFallback(t *testing.T) {
	oldFiles, oldInfo := cgroupLimitFiles, memInfoFile
	t.Cleanup(func() { cgroupLimitFiles, memInfoFile = oldFiles, oldInfo })

	dir := t.TempDir()
	cgroupLimitFiles = []string{filepath.Join(dir, "missing")}
	memInfoFile = filepath.Join(dir, "missing-meminfo")
	assert.Equal(t, FallbackMemory, AvailableMemory())

	limit := filepath.Join(dir, "memory.max")
	require.NoError(t, os.WriteFile(limit, []byte("4096\n"), 0o644))
	cgroupLimitFiles = []string{limit}
	assert.Equal(t, uint64(4096), AvailableMemory())

	meminfo := filepath.Join(dir, "meminfo")
	require.NoError(t, os.WriteFile(meminfo, []byte("MemAvailable: 2 kB\n"), 0o644))
	memInfoFile = meminfo
	assert.Equal(t, uint64(2048), AvailableMemory(), "the smaller of limit and available")
}
