// Package request canonicalizes inbound requests into the identity the
// response cache is keyed by.
package request

import (
	"bytes"
	"net/url"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/conneroisu/facet/internal/errors"
)

// DefaultLanguageParameter is the query item carrying an explicit language.
const DefaultLanguageParameter = "lang"

// DefaultIgnoredQuery lists tracking parameters that never change a page.
var DefaultIgnoredQuery = []string{"utm_*", "fbclid", "gclid"}

// Representation selects the rendition of a destination.
type Representation struct {
	// Tag is the negotiated language tag; empty when the site is not
	// localized.
	Tag string
}

// QueryItem is one name/value pair of a query string. HasValue
// distinguishes "?a" from "?a=".
type QueryItem struct {
	Name     string
	Value    string
	HasValue bool
}

func (q QueryItem) encode() string {
	if !q.HasValue {
		return url.QueryEscape(q.Name)
	}
	return url.QueryEscape(q.Name) + "=" + url.QueryEscape(q.Value)
}

// ProcessedRequest is the canonical form of a request. Two requests with
// the same ProcessedRequest receive the same response.
type ProcessedRequest struct {
	// Path holds the decoded, non-empty path components.
	Path []string
	// Query is unique by name and sorted by name.
	Query          []QueryItem
	Representation Representation
}

type queryForm struct {
	_msgpack struct{} `msgpack:",as_array"`
	Name     string
	Value    string
	HasValue bool
}

type keyForm struct {
	_msgpack struct{} `msgpack:",as_array"`
	Path     []string
	Query    []queryForm
	Tag      string
}

// Key is the cache identity of r: a msgpack encoding of the path, the
// structural query and the representation.
func (r ProcessedRequest) Key() string {
	form := keyForm{Path: r.Path, Tag: r.Representation.Tag}
	if form.Path == nil {
		form.Path = []string{}
	}
	form.Query = make([]queryForm, len(r.Query))
	for i, q := range r.Query {
		form.Query[i] = queryForm{Name: q.Name, Value: q.Value, HasValue: q.HasValue}
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	if err := enc.Encode(&form); err != nil {
		errors.Invariant(errors.ErrCodeInternalError, "encoding request key: %v", err)
	}
	return buf.String()
}

// Equal reports whether r and other share a cache identity.
func (r ProcessedRequest) Equal(other ProcessedRequest) bool {
	return r.Key() == other.Key()
}

// WithRepresentation returns a copy of r rendered as rep.
func (r ProcessedRequest) WithRepresentation(rep Representation) ProcessedRequest {
	r.Representation = rep
	return r
}

// EncodedPath is the escaped absolute path, "/" for the root.
func (r ProcessedRequest) EncodedPath() string {
	if len(r.Path) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, c := range r.Path {
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(c))
	}
	return sb.String()
}

// EncodedQuery is the canonical query string without the leading '?'.
// extra items are appended after the structural query.
func (r ProcessedRequest) EncodedQuery(extra ...QueryItem) string {
	parts := make([]string, 0, len(r.Query)+len(extra))
	for _, q := range r.Query {
		parts = append(parts, q.encode())
	}
	for _, q := range extra {
		parts = append(parts, q.encode())
	}
	return strings.Join(parts, "&")
}

func (r ProcessedRequest) String() string {
	s := r.EncodedPath()
	if q := r.EncodedQuery(); q != "" {
		s += "?" + q
	}
	if r.Representation.Tag != "" {
		s += "#" + r.Representation.Tag
	}
	return s
}

// SplitPath splits a raw URL path on '/' and percent-decodes every component
// once. Empty components are dropped. A component with an invalid escape is
// kept verbatim.
func SplitPath(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, "/") {
		if part == "" {
			continue
		}
		if decoded, err := url.PathUnescape(part); err == nil {
			part = decoded
		}
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// ParseQuery splits a raw query string into items in written order.
func ParseQuery(raw string) []QueryItem {
	var out []QueryItem
	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		name, value, hasValue := strings.Cut(part, "=")
		if decoded, err := url.QueryUnescape(name); err == nil {
			name = decoded
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		if name == "" {
			continue
		}
		out = append(out, QueryItem{Name: name, Value: value, HasValue: hasValue})
	}
	return out
}

// Canonicalizer turns raw requests into ProcessedRequests.
type Canonicalizer struct {
	languageParameter string
	ignored           []string
}

// NewCanonicalizer returns a Canonicalizer that folds languageParameter into
// the representation and drops ignored items. A pattern ending in '*'
// matches by prefix.
func NewCanonicalizer(languageParameter string, ignored []string) *Canonicalizer {
	if languageParameter == "" {
		languageParameter = DefaultLanguageParameter
	}
	return &Canonicalizer{
		languageParameter: languageParameter,
		ignored:           append([]string(nil), ignored...),
	}
}

// LanguageParameter is the name of the explicit language query item.
func (c *Canonicalizer) LanguageParameter() string { return c.languageParameter }

func (c *Canonicalizer) isIgnored(name string) bool {
	for _, pattern := range c.ignored {
		if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
			if strings.HasPrefix(name, prefix) {
				return true
			}
			continue
		}
		if name == pattern {
			return true
		}
	}
	return false
}

// Canonicalize builds the structural part of a request and returns the
// explicit language value, "" when absent. The representation is left
// empty; the caller fills it in after negotiation.
func (c *Canonicalizer) Canonicalize(rawPath string, items []QueryItem) (ProcessedRequest, string) {
	var (
		explicit  string
		seen      = make(map[string]bool, len(items))
		structure = make([]QueryItem, 0, len(items))
	)
	for _, item := range items {
		if seen[item.Name] {
			continue
		}
		seen[item.Name] = true

		switch {
		case item.Name == c.languageParameter:
			explicit = item.Value
		case c.isIgnored(item.Name):
		default:
			structure = append(structure, item)
		}
	}
	sort.SliceStable(structure, func(i, j int) bool { return structure[i].Name < structure[j].Name })

	if len(structure) == 0 {
		structure = nil
	}
	return ProcessedRequest{Path: SplitPath(rawPath), Query: structure}, explicit
}

// FromURL canonicalizes u. The path is taken from its escaped form so that
// percent-decoding happens exactly once.
func (c *Canonicalizer) FromURL(u *url.URL) (ProcessedRequest, string) {
	return c.Canonicalize(u.EscapedPath(), ParseQuery(u.RawQuery))
}
