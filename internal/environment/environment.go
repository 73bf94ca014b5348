// Package environment implements the cascading environment that view nodes
// use to pass inheritable values (style defaults, locale, layout hints) down
// to their descendants.
//
// An environment is a chain of immutable nodes. Each node holds only the
// overrides set where it was created plus a shared handle to its parent, so
// many descendants can share one ancestor and descending never copies or
// mutates anything above the new node. A nil *Node is the root environment:
// every lookup on it yields the key's declared default.
package environment

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Key identifies one environment value. Keys are compared by identity, so two
// packages may each declare a key named "color" without colliding.
type Key[T any] struct {
	name string
	def  T
}

// NewKey declares a key with a display name and a static default.
func NewKey[T any](name string, def T) *Key[T] {
	return &Key[T]{name: name, def: def}
}

// Name returns the display name. It is only used for debugging.
func (k *Key[T]) Name() string { return k.name }

// Default returns the value seen when no ancestor sets the key.
func (k *Key[T]) Default() T { return k.def }

// Set returns an override assigning v to the key.
func (k *Key[T]) Set(v T) Override {
	return Override{key: k, name: k.name, value: v}
}

// Override is one key/value assignment applied by Descend.
type Override struct {
	key   any
	name  string
	value any
}

// Node is one link of the environment chain.
type Node struct {
	parent    *Node
	overrides []Override
	depth     int
}

// Get returns the value of key as seen from n: the nearest override walking
// towards the root, or the key's default. It never fails.
func Get[T any](n *Node, key *Key[T]) T {
	for ; n != nil; n = n.parent {
		// Later overrides on the same node win.
		for i := len(n.overrides) - 1; i >= 0; i-- {
			if n.overrides[i].key == any(key) {
				return n.overrides[i].value.(T)
			}
		}
	}
	return key.def
}

// Lookup is Get that also reports whether some node set the key explicitly.
func Lookup[T any](n *Node, key *Key[T]) (T, bool) {
	for ; n != nil; n = n.parent {
		for i := len(n.overrides) - 1; i >= 0; i-- {
			if n.overrides[i].key == any(key) {
				return n.overrides[i].value.(T), true
			}
		}
	}
	return key.def, false
}

// Descend returns a child of n carrying overrides. n itself is never touched.
// With no overrides n is returned unchanged, since a node that sets nothing
// would only lengthen the chain.
func Descend(n *Node, overrides ...Override) *Node {
	if len(overrides) == 0 {
		return n
	}
	local := make([]Override, len(overrides))
	copy(local, overrides)

	depth := 0
	if n != nil {
		depth = n.depth + 1
	}
	return &Node{parent: n, overrides: local, depth: depth}
}

// Parent returns the enclosing node, or nil at the root.
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// Depth is the number of ancestors of n.
func (n *Node) Depth() int {
	if n == nil {
		return -1
	}
	return n.depth
}

// Dump renders the chain from the root down to n. Values are printed with
// %v; it is meant for test failure messages and debug logging.
func Dump(n *Node) string {
	var chain []*Node
	for c := n; c != nil; c = c.parent {
		chain = append(chain, c)
	}

	tree := treeprint.NewWithRoot("environment")
	branch := tree
	for i := len(chain) - 1; i >= 0; i-- {
		branch = branch.AddBranch(fmt.Sprintf("node %d", chain[i].depth))
		for _, o := range chain[i].overrides {
			branch.AddNode(fmt.Sprintf("%s = %v", o.name, o.value))
		}
	}
	return tree.String()
}
