//go:build property

package environment

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestEnvironmentProperties checks the cascade against a naive model: a slice
// of optional values per depth, resolved by scanning from the leaf upwards.
func TestEnvironmentProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	key := NewKey("level", -1)

	properties.Property("lookup returns nearest explicit value or default", prop.ForAll(
		func(chain []int) bool {
			var n *Node
			want := key.Default()
			for _, v := range chain {
				// Negative entries model nodes that set some other key.
				if v < 0 {
					n = Descend(n, NewKey("other", 0).Set(v))
					continue
				}
				n = Descend(n, key.Set(v))
				want = v
			}
			return Get(n, key) == want
		},
		gen.SliceOf(gen.IntRange(-5, 50)),
	))

	properties.Property("descending never changes the parent's view", prop.ForAll(
		func(parentValue, childValue int) bool {
			parent := Descend(nil, key.Set(parentValue))
			_ = Descend(parent, key.Set(childValue))
			sibling := Descend(parent)
			return Get(parent, key) == parentValue && Get(sibling, key) == parentValue
		},
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}
