package view

import (
	"strconv"

	"golang.org/x/net/html/atom"

	"github.com/conneroisu/facet/internal/environment"
	"github.com/conneroisu/facet/internal/markup"
)

// StackView lays its children out along one axis, or layers them.
type StackView struct {
	kind      ContainerKind
	alignment Alignment
	spacing   string
	children  []View
}

// HStack lays children out left to right.
func HStack(children ...View) StackView { return StackView{kind: ContainerRow, children: children} }

// VStack lays children out top to bottom.
func VStack(children ...View) StackView { return StackView{kind: ContainerColumn, children: children} }

// ZStack layers children on top of each other, the last one on top.
func ZStack(children ...View) StackView { return StackView{kind: ContainerLayer, children: children} }

// Aligned sets the cross-axis alignment.
func (s StackView) Aligned(a Alignment) StackView {
	s.alignment = a
	return s
}

// Spaced sets the gap between children, overriding the environment.
func (s StackView) Spaced(gap string) StackView {
	s.spacing = gap
	return s
}

func (s StackView) Render(ctx Context) markup.Fragment {
	inner := ctx.within(s.kind, s.alignment)

	var children markup.Fragment
	for _, child := range s.children {
		if child == nil {
			continue
		}
		f := child.Render(inner)
		if s.kind == ContainerLayer && len(f) > 0 {
			// Every layer occupies the single grid cell.
			f = markup.Apply(f, markup.WithStyle(markup.PhaseMargin, "grid-area", "1 / 1"))
		}
		children = append(children, f...)
	}

	var attrs markup.Attributes
	switch s.kind {
	case ContainerLayer:
		attrs.SetStyle("display", "grid")
		if s.alignment != AlignDefault {
			attrs.SetStyle("place-items", string(s.alignment))
		}
	default:
		direction := "row"
		if s.kind == ContainerColumn {
			direction = "column"
		}
		gap := s.spacing
		if gap == "" {
			gap = environment.Get(ctx.Environment(), SpacingKey)
		}
		attrs.SetStyle("display", "flex").SetStyle("flex-direction", direction)
		if gap != "" && gap != "0" {
			attrs.SetStyle("gap", gap)
		}
		if s.alignment != AlignDefault {
			attrs.SetStyle("align-items", string(s.alignment))
		}
	}
	return markup.Fragment{markup.NewContainer(atom.Div, attrs, children)}
}

// SectionView groups content under an optional header.
type SectionView struct {
	header  View
	content []View
}

// Section renders content as a column inside a <section>. A non-nil header
// is rendered first, inside a <header>.
func Section(header View, content ...View) SectionView {
	return SectionView{header: header, content: content}
}

func (s SectionView) Render(ctx Context) markup.Fragment {
	inner := ctx.within(ContainerColumn, AlignDefault)

	var children markup.Fragment
	if s.header != nil {
		if f := s.header.Render(inner); len(f) > 0 {
			children = append(children, markup.NewElement(atom.Header, markup.Attributes{}, f...))
		}
	}
	for _, child := range s.content {
		if child == nil {
			continue
		}
		children = append(children, child.Render(inner)...)
	}

	var attrs markup.Attributes
	attrs.SetStyle("display", "flex").SetStyle("flex-direction", "column")
	if gap := environment.Get(ctx.Environment(), SpacingKey); gap != "" && gap != "0" {
		attrs.SetStyle("gap", gap)
	}
	return markup.Fragment{markup.NewContainer(atom.Section, attrs, children)}
}

// GridRowView is one row of a Grid.
type GridRowView struct {
	cells []View
}

// GridRow groups the cells of one grid row. Outside a Grid it behaves like
// an HStack.
func GridRow(cells ...View) GridRowView { return GridRowView{cells: cells} }

func (r GridRowView) Render(ctx Context) markup.Fragment {
	metrics := ctx.Grid()
	if ctx.Container() != ContainerGrid || metrics == nil {
		return HStack(r.cells...).Render(ctx)
	}

	inner := ctx.within(ContainerGridRow, ctx.Alignment())
	var (
		cells markup.Fragment
		count int
	)
	for _, cell := range r.cells {
		if cell == nil {
			continue
		}
		f := cell.Render(inner)
		if len(f) == 0 {
			continue
		}
		if count == 0 {
			// A row always starts a new grid line, however many cells the
			// previous row had.
			f = markup.Apply(f, markup.WithStyle(markup.PhaseMargin, "grid-column-start", "1"))
		}
		count++
		cells = append(cells, f...)
	}
	metrics.Report(count)

	var attrs markup.Attributes
	attrs.SetStyle("display", "contents")
	return markup.Fragment{markup.NewContainer(atom.Div, attrs, cells)}
}

// GridView is a two dimensional layout whose column count is the widest
// row.
type GridView struct {
	alignment Alignment
	spacing   string
	children  []View
}

// Grid lays out GridRows as rows; any other child spans the full width.
func Grid(children ...View) GridView { return GridView{children: children} }

// Aligned sets the alignment of cells within their grid area.
func (g GridView) Aligned(a Alignment) GridView {
	g.alignment = a
	return g
}

// Spaced sets the gap between cells.
func (g GridView) Spaced(gap string) GridView {
	g.spacing = gap
	return g
}

// Render renders every row first and only then composes the grid element,
// since the column count is known once all rows reported their cells.
func (g GridView) Render(ctx Context) markup.Fragment {
	metrics := &GridMetrics{}
	inner := ctx.within(ContainerGrid, g.alignment)
	inner.container.grid = metrics

	var rows markup.Fragment
	for _, child := range g.children {
		if child == nil {
			continue
		}
		// Anything that reported no row, however it was composed, spans the grid.
		before := metrics.Rows()
		f := child.Render(inner)
		if metrics.Rows() == before && len(f) > 0 {
			f = markup.Apply(f, markup.WithStyle(markup.PhaseMargin, "grid-column", "1 / -1"))
		}
		rows = append(rows, f...)
	}

	columns := max(metrics.Columns(), 1)
	gap := g.spacing
	if gap == "" {
		gap = environment.Get(ctx.Environment(), SpacingKey)
	}

	var attrs markup.Attributes
	attrs.SetStyle("display", "grid").
		SetStyle("grid-template-columns", "repeat("+strconv.Itoa(columns)+", auto)")
	if gap != "" && gap != "0" {
		attrs.SetStyle("gap", gap)
	}
	if g.alignment != AlignDefault {
		attrs.SetStyle("align-items", string(g.alignment))
	}
	return markup.Fragment{markup.NewContainer(atom.Div, attrs, rows)}
}

// ListView renders its children as list items.
type ListView struct {
	children []View
}

// List renders children as items of a <ul>, or an <ol> for the decimal
// style. Groups are flattened so that each grouped view is one item.
func List(children ...View) ListView { return ListView{children: children} }

func flatten(views []View) []View {
	var out []View
	for _, v := range views {
		switch g := v.(type) {
		case nil:
		case GroupView:
			out = append(out, flatten(g.children)...)
		default:
			out = append(out, v)
		}
	}
	return out
}

var bullets = []string{"disc", "circle", "square"}

func (l ListView) Render(ctx Context) markup.Fragment {
	depth := ctx.ListDepth()
	inner := ctx.within(ContainerList, AlignDefault)
	inner.container.listDepth = depth + 1

	var items markup.Fragment
	for _, child := range flatten(l.children) {
		f := child.Render(inner)
		items = append(items, markup.NewElement(atom.Li, markup.Attributes{}, f...))
	}

	tag := atom.Ul
	var attrs markup.Attributes
	switch environment.Get(ctx.Environment(), ListStyleKey) {
	case ListStyleDecimal:
		tag = atom.Ol
	case ListStyleNone:
		attrs.SetStyle("list-style", "none").SetStyle("padding-left", "0")
	default:
		attrs.SetStyle("list-style-type", bullets[depth%len(bullets)])
	}
	return markup.Fragment{markup.NewContainer(tag, attrs, items)}
}
