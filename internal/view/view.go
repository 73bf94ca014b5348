// Package view is the declarative view layer. A page is a tree of View
// values built once; rendering walks the tree with a Context and produces a
// markup.Fragment. Modifiers wrap views and either descend the environment
// or contribute attributes through the assembly engine.
package view

import (
	"bytes"

	"github.com/a-h/templ"

	"github.com/conneroisu/facet/internal/errors"
	"github.com/conneroisu/facet/internal/markup"
)

// View renders itself for a context. Rendering is synchronous, has no side
// effects besides registering assets, and returns the same fragment for
// equal contexts.
type View interface {
	Render(ctx Context) markup.Fragment
}

// Func is a view computed from the context at render time.
type Func func(ctx Context) View

func (f Func) Render(ctx Context) markup.Fragment {
	v := f(ctx)
	if v == nil {
		return nil
	}
	return v.Render(ctx)
}

type empty struct{}

func (empty) Render(Context) markup.Fragment { return nil }

// Empty renders nothing.
func Empty() View { return empty{} }

// GroupView renders its children in sequence with no element of its own.
type GroupView struct {
	children []View
}

// Group concatenates views. Inside a List every child becomes its own item.
func Group(children ...View) GroupView { return GroupView{children: children} }

// Children returns the grouped views.
func (g GroupView) Children() []View { return g.children }

func (g GroupView) Render(ctx Context) markup.Fragment {
	return renderAll(ctx, g.children)
}

func renderAll(ctx Context, views []View) markup.Fragment {
	var out markup.Fragment
	for _, v := range views {
		if v == nil {
			continue
		}
		out = append(out, v.Render(ctx)...)
	}
	return out
}

type raw string

func (r raw) Render(Context) markup.Fragment { return markup.Fragment{markup.Raw(r)} }

// Raw emits trusted markup verbatim.
func Raw(html string) View { return raw(html) }

type templView struct {
	component templ.Component
}

// Templ embeds a templ component. A component that fails to render fails
// the whole page.
func Templ(c templ.Component) View { return templView{component: c} }

func (t templView) Render(ctx Context) markup.Fragment {
	var buf bytes.Buffer
	if err := t.component.Render(ctx.Context(), &buf); err != nil {
		panic(errors.NewRenderError(errors.ErrCodeRenderFailed, "embedded templ component failed", err).
			WithComponent("view"))
	}
	return markup.Fragment{markup.Raw(buf.String())}
}

// Component exposes v rendered in ctx as a templ component.
func Component(v View, ctx Context) templ.Component {
	return v.Render(ctx)
}

// Modify applies modifiers to v in order; the first modifier is innermost.
func Modify(v View, modifiers ...Modifier) View {
	for _, m := range modifiers {
		v = m(v)
	}
	return v
}
