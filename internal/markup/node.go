// Package markup is the HTML/CSS assembly engine. Views render into
// Fragments of Nodes; modifiers contribute Attributes that the engine either
// merges into an existing element or attaches to a new wrapping element,
// depending on the box phase each element has reached.
package markup

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/conneroisu/facet/internal/errors"
)

// Node is one item of a Fragment. The set of implementations is closed:
// *Element, Text and Raw.
type Node interface {
	write(sb *strings.Builder)
}

// Text is character data. It is escaped on output.
type Text string

func (t Text) write(sb *strings.Builder) { sb.WriteString(html.EscapeString(string(t))) }

// Raw is trusted markup written verbatim.
type Raw string

func (r Raw) write(sb *strings.Builder) { sb.WriteString(string(r)) }

// Kind tells the engine whether an element may absorb contributions.
type Kind uint8

const (
	// KindLeaf elements emit exactly one tag for one piece of content.
	KindLeaf Kind = iota
	// KindContainer elements lay out arbitrary children and are always
	// wrapped by structural modifiers.
	KindContainer
)

// Element is one tag with attributes and children.
type Element struct {
	Tag      atom.Atom
	Attrs    Attributes
	Children Fragment

	kind  Kind
	phase Phase
}

// NewElement creates a leaf element.
func NewElement(tag atom.Atom, attrs Attributes, children ...Node) *Element {
	if tag == 0 {
		errors.Invariant(errors.ErrCodeInvariant, "element created without a tag")
	}
	return &Element{Tag: tag, Attrs: attrs, Children: Fragment(children)}
}

// NewContainer creates an element that lays out children.
func NewContainer(tag atom.Atom, attrs Attributes, children Fragment) *Element {
	el := NewElement(tag, attrs)
	el.Children = children
	el.kind = KindContainer
	return el
}

// Kind reports whether el is a leaf or a container.
func (el *Element) Kind() Kind { return el.kind }

// Phase reports the outermost box phase applied to el.
func (el *Element) Phase() Phase { return el.phase }

func (el *Element) clone() *Element {
	c := *el
	c.Attrs = el.Attrs.Clone()
	return &c
}

// void elements never have children or an end tag.
var void = map[atom.Atom]bool{
	atom.Area:   true,
	atom.Br:     true,
	atom.Col:    true,
	atom.Embed:  true,
	atom.Hr:     true,
	atom.Img:    true,
	atom.Input:  true,
	atom.Link:   true,
	atom.Meta:   true,
	atom.Source: true,
	atom.Wbr:    true,
}

func (el *Element) write(sb *strings.Builder) {
	name := el.Tag.String()
	sb.WriteByte('<')
	sb.WriteString(name)
	el.Attrs.writeTo(sb)
	sb.WriteByte('>')
	if void[el.Tag] {
		if len(el.Children) > 0 {
			errors.Invariant(errors.ErrCodeInvariant, "void element <%s> has %d children", name, len(el.Children))
		}
		return
	}
	for _, c := range el.Children {
		c.write(sb)
	}
	sb.WriteString("</")
	sb.WriteString(name)
	sb.WriteByte('>')
}
