package markup

import "golang.org/x/net/html/atom"

// Phase orders box contributions from the content outwards. A contribution
// can only join an element that has not yet reached a later phase: padding
// after a background would resize the painted box, so it needs a new box.
type Phase uint8

const (
	PhaseContent Phase = iota
	PhasePadding
	PhaseBackground
	PhaseClip
	PhaseFrame
	PhaseMargin
)

func (p Phase) String() string {
	switch p {
	case PhaseContent:
		return "content"
	case PhasePadding:
		return "padding"
	case PhaseBackground:
		return "background"
	case PhaseClip:
		return "clip"
	case PhaseFrame:
		return "frame"
	case PhaseMargin:
		return "margin"
	default:
		return "unknown"
	}
}

// Contribution is what one modifier adds to the box around its content.
type Contribution struct {
	Phase Phase
	Attrs Attributes
}

// Apply adds c to f. When f is a single leaf element that has not passed
// c's phase and does not already declare any of c's properties, the
// attributes are merged into that element. Otherwise f is wrapped in a new
// <div> carrying c. f itself is never modified.
func Apply(f Fragment, c Contribution) Fragment {
	if c.Attrs.IsEmpty() {
		return f
	}
	if el, ok := f.Single(); ok && canMerge(el, c) {
		merged := el.clone()
		merged.Attrs = Merge(el.Attrs, c.Attrs)
		merged.phase = c.Phase
		return Fragment{merged}
	}
	return Wrap(f, atom.Div, c)
}

func canMerge(el *Element, c Contribution) bool {
	return el.kind == KindLeaf &&
		el.phase <= c.Phase &&
		!el.Attrs.conflicts(c.Attrs)
}

// Wrap always introduces a new element around f. The wrapper is a leaf box,
// so later contributions may merge into it.
func Wrap(f Fragment, tag atom.Atom, c Contribution) Fragment {
	el := NewElement(tag, c.Attrs.Clone())
	el.Children = f
	el.phase = c.Phase
	return Fragment{el}
}

// WithStyle is a shorthand for a contribution holding declarations given as
// property/value pairs.
func WithStyle(phase Phase, pairs ...string) Contribution {
	var a Attributes
	for i := 0; i+1 < len(pairs); i += 2 {
		a.SetStyle(pairs[i], pairs[i+1])
	}
	return Contribution{Phase: phase, Attrs: a}
}
