package site

import (
	"context"
	"fmt"
	"net/url"

	"github.com/conneroisu/facet/internal/errors"
	"github.com/conneroisu/facet/internal/request"
)

// Alternate is the URL of one language rendition of a page.
type Alternate struct {
	Tag string
	URL string
}

// URL composes the URL of req rendered in tag. An empty tag omits the
// language item. The URL is absolute when the site has a base URL.
//
// Composition can only fail on internal inconsistencies. Debug builds
// panic; release builds log and return "".
func (s *Site) URL(req request.ProcessedRequest, tag string) string {
	var extra []request.QueryItem
	if tag != "" {
		extra = append(extra, request.QueryItem{Name: s.langParam, Value: tag, HasValue: true})
	}

	raw := s.Href(req.Path)
	if q := req.EncodedQuery(extra...); q != "" {
		raw += "?" + q
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return s.compositionFailed(raw, err)
	}
	if s.base == nil {
		return ref.String()
	}
	abs := s.base.ResolveReference(ref)
	if abs.Host != s.base.Host {
		return s.compositionFailed(raw, fmt.Errorf("composed URL left host %s", s.base.Host))
	}
	return abs.String()
}

func (s *Site) compositionFailed(raw string, cause error) string {
	err := errors.NewInternalError(errors.ErrCodeURLComposition, "composing URL "+raw, cause).
		WithComponent("site")
	if debugAssertions {
		panic(err)
	}
	s.logger.Error(context.Background(), err, "URL composition failed")
	return ""
}

// Alternates lists the URL of req in every supported language, in bundle
// order. It is empty for unlocalized sites.
func (s *Site) Alternates(req request.ProcessedRequest) []Alternate {
	if s.loc == nil {
		return nil
	}
	tags := s.loc.Tags()
	out := make([]Alternate, 0, len(tags))
	for _, tag := range tags {
		if u := s.URL(req, tag); u != "" {
			out = append(out, Alternate{Tag: tag, URL: u})
		}
	}
	return out
}

// LinkHeader formats alternates as an HTTP Link header value.
func LinkHeader(alternates []Alternate) string {
	var out string
	for i, a := range alternates {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf(`<%s>; rel="alternate"; hreflang="%s"`, a.URL, a.Tag)
	}
	return out
}
