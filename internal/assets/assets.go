// Package assets serves the files of the asset directory: the icon set,
// stylesheets and scripts referenced from rendered pages.
package assets

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/h2non/filetype"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"

	"github.com/conneroisu/facet/internal/errors"
	"github.com/conneroisu/facet/internal/logging"
	"github.com/conneroisu/facet/internal/view"
)

// File is one loaded asset.
type File struct {
	// Name is the slash separated path relative to the asset directory.
	Name        string
	Body        []byte
	ContentType string
	ETag        string
	ModTime     time.Time
}

// Options configures a Store.
type Options struct {
	// Minify compacts stylesheets, scripts and SVG icons on load.
	Minify bool
	Logger logging.Logger
}

// Store holds the asset directory in memory. Reload swaps the whole set.
type Store struct {
	dir      string
	minifier *minify.M
	logger   logging.Logger

	mu    sync.RWMutex
	files map[string]*File
}

// NewStore loads dir. An empty dir yields an empty store.
func NewStore(dir string, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Store{
		dir:    dir,
		logger: logger.WithComponent("assets"),
		files:  make(map[string]*File),
	}
	if opts.Minify {
		s.minifier = minify.New()
		s.minifier.AddFunc("text/css", css.Minify)
		s.minifier.AddFunc("application/javascript", js.Minify)
		s.minifier.AddFunc("image/svg+xml", svg.Minify)
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir is the directory the store loads from.
func (s *Store) Dir() string { return s.dir }

// Reload reads the directory again.
func (s *Store) Reload() error {
	if s.dir == "" {
		return nil
	}

	files := make(map[string]*File)
	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != s.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		f, err := s.load(p, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		files[f.Name] = f
		return nil
	})
	if err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotFound, "loading assets from "+s.dir, err).
			WithComponent("assets")
	}

	s.mu.Lock()
	s.files = files
	s.mu.Unlock()
	s.logger.Info(context.Background(), "Assets loaded", "dir", s.dir, "files", len(files))
	return nil
}

func (s *Store) load(p, name string) (*File, error) {
	body, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}

	contentType := DetectContentType(name, body)
	if s.minifier != nil {
		mediatype, _, _ := strings.Cut(contentType, ";")
		if compact, merr := s.minifier.Bytes(mediatype, body); merr == nil {
			body = compact
		} else if merr != minify.ErrNotExist {
			s.logger.Warn(context.Background(), merr, "Asset minification failed, serving as is", "name", name)
		}
	}

	sum := sha256.Sum256(body)
	return &File{
		Name:        name,
		Body:        body,
		ContentType: contentType,
		ETag:        hex.EncodeToString(sum[:]),
		ModTime:     info.ModTime(),
	}, nil
}

// DetectContentType sniffs binary formats from the content and falls back
// to the file extension.
func DetectContentType(name string, body []byte) string {
	if kind, err := filetype.Match(body); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".css":
		return "text/css; charset=utf-8"
	case ".js", ".mjs":
		return "application/javascript"
	case ".svg":
		return "image/svg+xml"
	}
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("<svg")) {
		return "image/svg+xml"
	}
	return "application/octet-stream"
}

// Get returns the asset stored under name.
func (s *Store) Get(name string) (*File, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[name]
	return f, ok
}

// Names lists the stored assets in lexical order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.files))
	for n := range s.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// IsIcon reports whether name belongs to the icon set: an image whose base
// name starts with "favicon" or "icon".
func IsIcon(name, contentType string) bool {
	base := strings.ToLower(path.Base(name))
	return strings.HasPrefix(contentType, "image/") &&
		(strings.HasPrefix(base, "favicon") || strings.HasPrefix(base, "icon"))
}

// Register adds stylesheets, scripts and icons to reg, in lexical order.
func (s *Store) Register(reg *view.AssetRegistry) {
	for _, name := range s.Names() {
		f, _ := s.Get(name)
		switch {
		case strings.HasPrefix(f.ContentType, "text/css"):
			reg.Require(view.Asset{Kind: view.AssetStylesheet, Href: view.AssetHref(name)})
		case f.ContentType == "application/javascript":
			reg.Require(view.Asset{Kind: view.AssetScript, Href: view.AssetHref(name)})
		case IsIcon(name, f.ContentType):
			reg.Require(view.Asset{Kind: view.AssetIcon, Href: view.AssetHref(name), Type: f.ContentType})
		}
	}
}
