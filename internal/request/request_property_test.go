//go:build property

package request

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestCanonicalizationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(777)
	parameters.MinSuccessfulTests = 300

	properties := gopter.NewProperties(parameters)
	c := NewCanonicalizer("lang", DefaultIgnoredQuery)

	queryGen := gen.SliceOfN(6, gen.OneConstOf("a=1", "b=2", "c", "page=3", "utm_medium=x", "lang=en"))

	properties.Property("query permutation does not change the key", prop.ForAll(
		func(parts []string, seed int64) bool {
			shuffled := append([]string(nil), parts...)
			rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})

			// Permutation may change which duplicate comes first; compare
			// after dropping later duplicates from both.
			a, _ := c.Canonicalize("/p", ParseQuery(strings.Join(dedupe(parts), "&")))
			b, _ := c.Canonicalize("/p", ParseQuery(strings.Join(dedupe(shuffled), "&")))
			return a.Key() == b.Key()
		},
		queryGen, gen.Int64(),
	))

	properties.Property("repeating an item does not change the key", prop.ForAll(
		func(parts []string) bool {
			a, _ := c.Canonicalize("/p", ParseQuery(strings.Join(parts, "&")))
			b, _ := c.Canonicalize("/p", ParseQuery(strings.Join(append(parts, parts...), "&")))
			return a.Key() == b.Key()
		},
		queryGen,
	))

	properties.Property("canonical query is sorted and unique", prop.ForAll(
		func(parts []string) bool {
			req, _ := c.Canonicalize("/", ParseQuery(strings.Join(parts, "&")))
			for i := 1; i < len(req.Query); i++ {
				if req.Query[i-1].Name >= req.Query[i].Name {
					return false
				}
			}
			return true
		},
		queryGen,
	))

	properties.TestingRun(t)
}

func dedupe(parts []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range parts {
		name, _, _ := strings.Cut(p, "=")
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, p)
	}
	return out
}
