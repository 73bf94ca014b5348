package view

import (
	"context"

	"github.com/conneroisu/facet/internal/environment"
	"github.com/conneroisu/facet/internal/localization"
	"github.com/conneroisu/facet/internal/request"
)

// ContainerKind tells a child how its parent lays it out.
type ContainerKind uint8

const (
	ContainerNone ContainerKind = iota
	ContainerRow
	ContainerColumn
	ContainerLayer
	ContainerGrid
	ContainerGridRow
	ContainerList
)

func (k ContainerKind) String() string {
	switch k {
	case ContainerRow:
		return "row"
	case ContainerColumn:
		return "column"
	case ContainerLayer:
		return "layer"
	case ContainerGrid:
		return "grid"
	case ContainerGridRow:
		return "grid-row"
	case ContainerList:
		return "list"
	default:
		return "none"
	}
}

// Alignment is the cross-axis placement of a container's children.
type Alignment string

const (
	AlignDefault Alignment = ""
	AlignStart   Alignment = "start"
	AlignCenter  Alignment = "center"
	AlignEnd     Alignment = "end"
	AlignStretch Alignment = "stretch"
)

// GridMetrics collects the column count of a grid while its rows render.
type GridMetrics struct {
	columns int
	rows    int
}

// Report records a row with cells cells.
func (m *GridMetrics) Report(cells int) {
	m.rows++
	if cells > m.columns {
		m.columns = cells
	}
}

// Columns is the widest row reported so far.
func (m *GridMetrics) Columns() int { return m.columns }

// Rows is the number of rows reported so far.
func (m *GridMetrics) Rows() int { return m.rows }

type container struct {
	kind      ContainerKind
	alignment Alignment
	grid      *GridMetrics
	listDepth int
}

// PathComponent is one step of the navigation path leading to the page
// being rendered.
type PathComponent struct {
	Segment string
	Title   string
	Data    any
}

// Linker composes the href of a site path.
type Linker interface {
	Href(path []string) string
}

// Options seeds a Context.
type Options struct {
	Environment    *environment.Node
	Assets         *AssetRegistry
	Path           []PathComponent
	Localization   *localization.Context
	Representation request.Representation
	Linker         Linker
}

// Context is the per-subtree rendering state. It is passed by value;
// descending into a container or environment returns a modified copy and
// leaves the caller's copy untouched. Only the asset registry is shared.
type Context struct {
	ctx          context.Context
	env          *environment.Node
	container    container
	assets       *AssetRegistry
	path         []PathComponent
	localization *localization.Context
	rep          request.Representation
	linker       Linker
}

// NewContext creates the root rendering context of one request.
func NewContext(ctx context.Context, opts Options) Context {
	assets := opts.Assets
	if assets == nil {
		assets = NewAssetRegistry()
	}
	return Context{
		ctx:          ctx,
		env:          opts.Environment,
		assets:       assets,
		path:         append([]PathComponent(nil), opts.Path...),
		localization: opts.Localization,
		rep:          opts.Representation,
		linker:       opts.Linker,
	}
}

// Context is the request context the render runs under.
func (c Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Environment is the current environment node.
func (c Context) Environment() *environment.Node { return c.env }

// WithEnvironment descends the environment with overrides.
func (c Context) WithEnvironment(overrides ...environment.Override) Context {
	c.env = environment.Descend(c.env, overrides...)
	return c
}

// Container is the kind of the enclosing container.
func (c Context) Container() ContainerKind { return c.container.kind }

// Alignment is the alignment the enclosing container declared.
func (c Context) Alignment() Alignment { return c.container.alignment }

// ListDepth counts the lists enclosing the current view.
func (c Context) ListDepth() int { return c.container.listDepth }

// Grid returns the metrics of the enclosing grid, nil outside grids.
func (c Context) Grid() *GridMetrics { return c.container.grid }

func (c Context) within(kind ContainerKind, alignment Alignment) Context {
	c.container.kind = kind
	c.container.alignment = alignment
	if kind != ContainerGrid && kind != ContainerGridRow {
		c.container.grid = nil
	}
	return c
}

// Assets is the registry shared by the whole render.
func (c Context) Assets() *AssetRegistry { return c.assets }

// Path returns a copy of the navigation path.
func (c Context) Path() []PathComponent { return append([]PathComponent(nil), c.path...) }

// WithPath appends components to the navigation path.
func (c Context) WithPath(components ...PathComponent) Context {
	path := make([]PathComponent, 0, len(c.path)+len(components))
	c.path = append(append(path, c.path...), components...)
	return c
}

// Title is the title of the deepest titled path component.
func (c Context) Title() string {
	for i := len(c.path) - 1; i >= 0; i-- {
		if c.path[i].Title != "" {
			return c.path[i].Title
		}
	}
	return ""
}

// Localization is the bound localization context; nil for unlocalized
// sites.
func (c Context) Localization() *localization.Context { return c.localization }

// Representation is the negotiated representation.
func (c Context) Representation() request.Representation { return c.rep }

// Localize looks key up for the negotiated language.
func (c Context) Localize(key string) string {
	if c.localization == nil {
		return key
	}
	return c.localization.Localize(c.rep.Tag, key)
}

// Href composes the href for a site path.
func (c Context) Href(path []string) string {
	if c.linker != nil {
		return c.linker.Href(path)
	}
	return request.ProcessedRequest{Path: path}.EncodedPath()
}
