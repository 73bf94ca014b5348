// Package localization negotiates the language a response is rendered in.
//
// Tags are compared subtag by subtag. Two tags match when one is a
// case-insensitive prefix of the other; the fewer extra subtags the longer
// one carries, the better the match.
package localization

import (
	"fmt"
	"strings"
)

// MatchRate quantifies how close two language tags are. The zero value is an
// exact match. Lower is better.
type MatchRate struct {
	missing int
}

// Exact is the rate of two identical tags.
var Exact = MatchRate{}

// Partial is the rate of a prefix match where the longer tag carries n more
// subtags.
func Partial(n int) MatchRate {
	if n < 1 {
		panic(fmt.Sprintf("localization: partial match needs at least one missing subtag, got %d", n))
	}
	return MatchRate{missing: n}
}

// IsExact reports whether r is Exact.
func (r MatchRate) IsExact() bool { return r.missing == 0 }

// Missing is the number of unmatched subtags; zero for Exact.
func (r MatchRate) Missing() int { return r.missing }

// Better reports whether r ranks strictly before other.
func (r MatchRate) Better(other MatchRate) bool { return r.missing < other.missing }

func (r MatchRate) String() string {
	if r.IsExact() {
		return "exact"
	}
	return fmt.Sprintf("partial(%d)", r.missing)
}

// Subtags splits a tag into its subtags. Both '-' and '_' separate.
func Subtags(tag string) []string {
	return strings.FieldsFunc(tag, func(r rune) bool { return r == '-' || r == '_' })
}

// OfLanguageTags rates the compatibility of a and b. The boolean is false
// when neither tag is a prefix of the other. The result does not depend on
// argument order.
func OfLanguageTags(a, b string) (MatchRate, bool) {
	sa, sb := Subtags(a), Subtags(b)
	if len(sa) == 0 || len(sb) == 0 {
		return MatchRate{}, false
	}
	if len(sa) > len(sb) {
		sa, sb = sb, sa
	}
	for i := range sa {
		if !strings.EqualFold(sa[i], sb[i]) {
			return MatchRate{}, false
		}
	}
	return MatchRate{missing: len(sb) - len(sa)}, true
}
