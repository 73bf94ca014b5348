package view

import (
	"strings"

	"github.com/aymerick/douceur/parser"

	"github.com/conneroisu/facet/internal/environment"
	"github.com/conneroisu/facet/internal/errors"
	"github.com/conneroisu/facet/internal/markup"
)

// Modifier transforms a view. Modifiers are applied innermost first.
type Modifier func(View) View

type contributing struct {
	content      View
	contribution markup.Contribution
}

func (c contributing) Render(ctx Context) markup.Fragment {
	return markup.Apply(c.content.Render(ctx), c.contribution)
}

func contribute(c markup.Contribution) Modifier {
	return func(v View) View { return contributing{content: v, contribution: c} }
}

type environmental struct {
	content   View
	overrides []environment.Override
}

func (e environmental) Render(ctx Context) markup.Fragment {
	return e.content.Render(ctx.WithEnvironment(e.overrides...))
}

// Environment overrides environment values for the modified subtree.
func Environment(overrides ...environment.Override) Modifier {
	return func(v View) View { return environmental{content: v, overrides: overrides} }
}

// Font sets the text style of the subtree.
func Font(f TextStyle) Modifier { return Environment(FontKey.Set(f)) }

// ListStyleOf sets the list marker style of the subtree.
func ListStyleOf(s ListStyle) Modifier { return Environment(ListStyleKey.Set(s)) }

// Spacing sets the default gap of stacks in the subtree.
func Spacing(gap string) Modifier { return Environment(SpacingKey.Set(gap)) }

// Padding adds space inside the box, using CSS shorthand order.
func Padding(values ...string) Modifier {
	return contribute(markup.WithStyle(markup.PhasePadding, "padding", markup.Shorthand(values...)))
}

// Margin adds space outside the box.
func Margin(values ...string) Modifier {
	return contribute(markup.WithStyle(markup.PhaseMargin, "margin", markup.Shorthand(values...)))
}

// Background paints the box.
func Background(c Color) Modifier {
	return contribute(markup.WithStyle(markup.PhaseBackground, "background-color", c.String()))
}

// Border strokes the box.
func Border(c Color, width string) Modifier {
	return contribute(markup.WithStyle(markup.PhaseBackground, "border", width+" solid "+c.String()))
}

// CornerRadius clips the box to rounded corners.
func CornerRadius(radius string) Modifier {
	return contribute(markup.WithStyle(markup.PhaseClip,
		"border-radius", radius,
		"overflow", "hidden",
	))
}

type foreground struct {
	content View
	color   Color
}

func (f foreground) Render(ctx Context) markup.Fragment {
	inner := f.content.Render(ctx.WithEnvironment(ForegroundKey.Set(f.color)))
	return markup.Apply(inner, markup.WithStyle(markup.PhaseBackground, "color", f.color.String()))
}

// Foreground colors text and sets the fill of shapes in the subtree.
func Foreground(c Color) Modifier {
	return func(v View) View { return foreground{content: v, color: c} }
}

// FrameOptions constrains the size of a box. Empty fields are unset.
type FrameOptions struct {
	Width, Height        string
	MinWidth, MaxWidth   string
	MinHeight, MaxHeight string
	Alignment            Alignment
}

// Frame constrains the size of the box.
func Frame(o FrameOptions) Modifier {
	var a markup.Attributes
	set := func(property, value string) {
		if value != "" {
			a.SetStyle(property, value)
		}
	}
	set("width", o.Width)
	set("height", o.Height)
	set("min-width", o.MinWidth)
	set("max-width", o.MaxWidth)
	set("min-height", o.MinHeight)
	set("max-height", o.MaxHeight)
	if o.Alignment != AlignDefault {
		set("display", "flex")
		set("align-items", string(o.Alignment))
		set("justify-content", string(o.Alignment))
	}
	return contribute(markup.Contribution{Phase: markup.PhaseFrame, Attrs: a})
}

// Class adds CSS classes.
func Class(names ...string) Modifier {
	var a markup.Attributes
	a.AddClass(names...)
	return contribute(markup.Contribution{Phase: markup.PhaseContent, Attrs: a})
}

// Attr sets an HTML attribute such as id or aria-label.
func Attr(name, value string) Modifier {
	var a markup.Attributes
	a.SetAttr(name, value)
	return contribute(markup.Contribution{Phase: markup.PhaseContent, Attrs: a})
}

// Hidden hides the box while keeping its space in the layout.
func Hidden() Modifier {
	return contribute(markup.WithStyle(markup.PhaseMargin, "visibility", "hidden"))
}

// Style adds raw CSS declarations such as "color: red; padding: 1px". The
// contribution takes the outermost phase of the properties it sets, so
// "Style" behaves like the dedicated modifier for each property. Malformed
// declarations are a programming error and panic.
func Style(declarations string) Modifier {
	// The parser drops the value of an unterminated last declaration.
	terminated := strings.TrimSuffix(strings.TrimSpace(declarations), ";") + ";"
	decls, err := parser.ParseDeclarations(terminated)
	if err != nil {
		panic(errors.NewValidationError(errors.ErrCodeValidationFailed,
			"invalid style declarations: "+err.Error()).WithComponent("view"))
	}

	var (
		a     markup.Attributes
		phase = markup.PhaseContent
	)
	for _, d := range decls {
		value := strings.TrimSpace(d.Value)
		if value == "" {
			panic(errors.NewValidationError(errors.ErrCodeValidationFailed,
				"style declaration without a value: "+d.Property).WithComponent("view"))
		}
		if d.Important {
			value += " !important"
		}
		a.SetStyle(d.Property, value)
		phase = max(phase, PhaseOf(d.Property))
	}
	return contribute(markup.Contribution{Phase: phase, Attrs: a})
}

// PhaseOf returns the box phase a CSS property belongs to.
func PhaseOf(property string) markup.Phase {
	p := strings.ToLower(strings.TrimSpace(property))
	switch {
	case strings.HasPrefix(p, "margin"), p == "inset", p == "position",
		p == "top", p == "right", p == "bottom", p == "left",
		p == "grid-area", p == "grid-column", p == "grid-row", p == "visibility":
		return markup.PhaseMargin
	case p == "width", p == "height", strings.HasPrefix(p, "min-"), strings.HasPrefix(p, "max-"),
		strings.HasPrefix(p, "flex"), p == "aspect-ratio":
		return markup.PhaseFrame
	case strings.HasSuffix(p, "-radius"), p == "overflow", strings.HasPrefix(p, "clip"):
		return markup.PhaseClip
	case strings.HasPrefix(p, "background"), strings.HasPrefix(p, "border"),
		strings.HasPrefix(p, "outline"), p == "box-shadow", p == "color":
		return markup.PhaseBackground
	case strings.HasPrefix(p, "padding"):
		return markup.PhasePadding
	default:
		return markup.PhaseContent
	}
}
