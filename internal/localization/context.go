package localization

import (
	"cmp"
	"fmt"
	"os"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/facet/internal/errors"
)

// Bundle is the resource bundle one site serves: the languages it supports,
// in preference order, and the string tables per language.
type Bundle struct {
	Name       string                       `yaml:"name"`
	DefaultTag string                       `yaml:"default"`
	Tags       []string                     `yaml:"languages"`
	Strings    map[string]map[string]string `yaml:"strings"`
}

// LoadBundle reads a YAML bundle file.
func LoadBundle(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, errors.NewIOError(errors.ErrCodeFileNotFound, "reading bundle "+path, err)
	}
	return ParseBundle(data, path)
}

// ParseBundle decodes a YAML bundle. source names it in errors.
func ParseBundle(data []byte, source string) (Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Bundle{}, errors.NewConfigError(errors.ErrCodeBundleInvalid, "parsing bundle "+source+": "+err.Error())
	}
	return b, nil
}

// Context is the immutable, process-wide localization state bound to one
// bundle. It is safe for concurrent use.
type Context struct {
	name       string
	tags       []string
	defaultTag string
	strings    map[string]map[string]string
}

// NewContext validates b and binds a Context to it. Every tag must be
// well-formed BCP 47 and appear once; the default must be one of the tags.
// An empty default selects the first tag.
func NewContext(b Bundle) (*Context, error) {
	if len(b.Tags) == 0 {
		return nil, errors.NewConfigError(errors.ErrCodeBundleInvalid, "bundle declares no languages")
	}

	seen := make(map[string]bool, len(b.Tags))
	tags := make([]string, 0, len(b.Tags))
	for _, t := range b.Tags {
		if _, err := language.Parse(t); err != nil {
			return nil, errors.NewConfigError(errors.ErrCodeBundleInvalid, fmt.Sprintf("invalid language tag %q: %v", t, err))
		}
		key := strings.ToLower(t)
		if seen[key] {
			return nil, errors.NewConfigError(errors.ErrCodeBundleInvalid, fmt.Sprintf("duplicate language tag %q", t))
		}
		seen[key] = true
		tags = append(tags, t)
	}

	def := b.DefaultTag
	if def == "" {
		def = tags[0]
	}
	if !seen[strings.ToLower(def)] {
		return nil, errors.NewConfigError(errors.ErrCodeBundleInvalid, fmt.Sprintf("default tag %q is not a supported language", def))
	}
	for _, t := range tags {
		if strings.EqualFold(t, def) {
			def = t
		}
	}

	table := make(map[string]map[string]string, len(b.Strings))
	for tag, entries := range b.Strings {
		table[strings.ToLower(tag)] = entries
	}

	return &Context{name: b.Name, tags: tags, defaultTag: def, strings: table}, nil
}

// Name is the bundle name.
func (c *Context) Name() string { return c.name }

// Tags returns the supported tags in declaration order.
func (c *Context) Tags() []string { return append([]string(nil), c.tags...) }

// DefaultTag is the fallback tag.
func (c *Context) DefaultTag() string { return c.defaultTag }

// Best returns the supported tag matching pref best. Exact beats partial,
// fewer missing subtags beat more, and ties go to declaration order.
func (c *Context) Best(pref string) (string, MatchRate, bool) {
	var (
		best     string
		bestRate MatchRate
		found    bool
	)
	for _, t := range c.tags {
		rate, ok := OfLanguageTags(pref, t)
		if !ok {
			continue
		}
		if !found || rate.Better(bestRate) {
			best, bestRate, found = t, rate, true
		}
	}
	return best, bestRate, found
}

// SelectLanguageTag picks a tag for an ordered preference list, highest
// priority first. The first preference with any match decides; without one
// the default tag is returned.
func (c *Context) SelectLanguageTag(preferences []string) string {
	for _, p := range preferences {
		if tag, _, ok := c.Best(p); ok {
			return tag
		}
	}
	return c.defaultTag
}

// Resolution is the outcome of negotiating one request.
type Resolution struct {
	// Tag is the language the response is rendered in.
	Tag string
	// Explicit is set when an explicit override chose Tag.
	Explicit bool
	// Redundant is set when an explicit override was present but did not
	// change the outcome: either it selected the same tag the header does
	// or it matched nothing. The response layer may redirect to drop it.
	Redundant bool
}

// Negotiate resolves the language for a request. explicit is the value of
// the override query parameter ("" when absent); acceptLanguage is the raw
// header value.
func (c *Context) Negotiate(explicit, acceptLanguage string) Resolution {
	inferred := c.SelectLanguageTag(ParsePreferences(acceptLanguage))
	if explicit == "" {
		return Resolution{Tag: inferred}
	}
	tag, _, ok := c.Best(explicit)
	if !ok {
		return Resolution{Tag: inferred, Redundant: true}
	}
	return Resolution{Tag: tag, Explicit: true, Redundant: tag == inferred}
}

// Localize looks key up in the table for tag, then in the default table.
// The key itself is the last fallback.
func (c *Context) Localize(tag, key string) string {
	if v, ok := c.strings[strings.ToLower(tag)][key]; ok {
		return v
	}
	if v, ok := c.strings[strings.ToLower(c.defaultTag)][key]; ok {
		return v
	}
	return key
}

// ParsePreferences turns an Accept-Language value into the tags it lists,
// ordered by quality with ties in written order. Tags are returned as the
// client wrote them. The wildcard and entries with q=0 are dropped; an entry
// whose weight cannot be read counts as q=1.
func ParsePreferences(header string) []string {
	type preference struct {
		tag string
		q   float32
	}
	var prefs []preference
	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(part, ";")
		tag = strings.TrimSpace(tag)
		if tag == "" || tag == "*" {
			continue
		}
		q := float32(1)
		if _, weights, err := language.ParseAcceptLanguage(part); err == nil {
			if len(weights) == 0 {
				continue
			}
			q = weights[0]
		}
		prefs = append(prefs, preference{tag: tag, q: q})
	}
	if len(prefs) == 0 {
		return nil
	}

	slices.SortStableFunc(prefs, func(a, b preference) int { return cmp.Compare(b.q, a.q) })
	out := make([]string, len(prefs))
	for i, p := range prefs {
		out[i] = p.tag
	}
	return out
}
