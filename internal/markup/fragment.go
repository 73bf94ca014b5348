package markup

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/a-h/templ"
	"github.com/xlab/treeprint"
)

// Fragment is the result of rendering one view: a finite sequence of nodes.
// Serialization is lazy and restartable. Iterating Chunks twice yields the
// same bytes, since a Fragment is never mutated after it is built.
type Fragment []Node

var _ templ.Component = Fragment(nil)

// Of builds a fragment from nodes, dropping nils.
func Of(nodes ...Node) Fragment {
	f := make(Fragment, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			f = append(f, n)
		}
	}
	return f
}

// Concat joins fragments in order.
func Concat(parts ...Fragment) Fragment {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make(Fragment, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Single returns the only top-level element of f.
func (f Fragment) Single() (*Element, bool) {
	if len(f) != 1 {
		return nil, false
	}
	el, ok := f[0].(*Element)
	return el, ok
}

// Chunks yields the serialized output one top-level node at a time.
func (f Fragment) Chunks() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		var sb strings.Builder
		for _, n := range f {
			sb.Reset()
			n.write(&sb)
			if !yield([]byte(sb.String())) {
				return
			}
		}
	}
}

// WriteTo implements io.WriterTo.
func (f Fragment) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for chunk := range f.Chunks() {
		n, err := w.Write(chunk)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Render implements templ.Component so a fragment can be embedded in templ
// templates or served with templ.Handler.
func (f Fragment) Render(ctx context.Context, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}

// String serializes the whole fragment.
func (f Fragment) String() string {
	var sb strings.Builder
	for _, n := range f {
		n.write(&sb)
	}
	return sb.String()
}

// Tree renders the element structure for debugging.
func (f Fragment) Tree() string {
	tree := treeprint.NewWithRoot("fragment")
	addTree(tree, f)
	return tree.String()
}

func addTree(t treeprint.Tree, f Fragment) {
	for _, n := range f {
		switch v := n.(type) {
		case *Element:
			label := "<" + v.Tag.String() + ">"
			if s := v.Attrs.StyleString(); s != "" {
				label += " " + s
			}
			addTree(t.AddBranch(label), v.Children)
		case Text:
			t.AddNode(fmt.Sprintf("%q", string(v)))
		case Raw:
			t.AddNode("raw " + fmt.Sprintf("%d bytes", len(v)))
		}
	}
}
