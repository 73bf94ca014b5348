package site

import (
	"bytes"
	"context"

	"github.com/conneroisu/facet/internal/request"
)

// Destinations walks the static tree depth first and returns the path of
// every destination that renders a view. Dynamic children are skipped.
func (s *Site) Destinations() [][]string {
	var out [][]string
	var walk func(d *Destination, path []string)
	walk = func(d *Destination, path []string) {
		if d.View != nil {
			out = append(out, append([]string(nil), path...))
		}
		for _, c := range d.Children {
			if c == nil || c.Segment == "" {
				continue
			}
			walk(c, append(path, c.Segment))
		}
	}
	walk(s.root, nil)
	return out
}

// Sitemap lists one URL per static destination, one per line. Lines that
// would exceed the byte budget are dropped with everything after them.
func (s *Site) Sitemap() []byte {
	var buf bytes.Buffer
	for _, path := range s.Destinations() {
		u := s.URL(request.ProcessedRequest{Path: path}, "")
		if u == "" {
			continue
		}
		if s.sitemapMaxBytes > 0 && buf.Len()+len(u)+1 > s.sitemapMaxBytes {
			s.logger.Warn(context.Background(), nil, "Sitemap truncated",
				"max_bytes", s.sitemapMaxBytes, "written", buf.Len())
			break
		}
		buf.WriteString(u)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
