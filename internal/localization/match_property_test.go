//go:build property

package localization

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestMatchRateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234)
	parameters.MinSuccessfulTests = 500

	properties := gopter.NewProperties(parameters)
	subtag := gen.OneConstOf("en", "EN", "zh", "Hans", "hant", "US", "cn", "x")
	tag := gen.SliceOfN(3, subtag).Map(func(parts []string) string {
		return strings.Join(parts, "-")
	})
	short := gen.SliceOfN(1, subtag).Map(func(parts []string) string { return parts[0] })

	properties.Property("match rate is symmetric", prop.ForAll(
		func(a, b string) bool {
			ra, oka := OfLanguageTags(a, b)
			rb, okb := OfLanguageTags(b, a)
			return oka == okb && ra == rb
		},
		gen.OneGenOf(tag, short), gen.OneGenOf(tag, short),
	))

	properties.Property("a tag matches itself exactly in any case", prop.ForAll(
		func(a string) bool {
			r, ok := OfLanguageTags(a, strings.ToUpper(a))
			return ok && r.IsExact()
		},
		tag,
	))

	properties.Property("a prefix is a partial match counting the extra subtags", prop.ForAll(
		func(a string) bool {
			first := Subtags(a)[0]
			r, ok := OfLanguageTags(first, a)
			return ok && r.Missing() == 2
		},
		tag,
	))

	properties.TestingRun(t)
}
