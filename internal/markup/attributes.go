package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// ordered is a small insertion-ordered map. Setting an existing key replaces
// its value in place, so the position of the first insertion is kept.
type ordered struct {
	keys   []string
	values []string
	index  map[string]int
}

func (o *ordered) set(key, value string) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if i, ok := o.index[key]; ok {
		o.values[i] = value
		return
	}
	o.index[key] = len(o.keys)
	o.keys = append(o.keys, key)
	o.values = append(o.values, value)
}

func (o *ordered) get(key string) (string, bool) {
	i, ok := o.index[key]
	if !ok {
		return "", false
	}
	return o.values[i], true
}

func (o *ordered) len() int { return len(o.keys) }

func (o ordered) clone() ordered {
	c := ordered{
		keys:   append([]string(nil), o.keys...),
		values: append([]string(nil), o.values...),
	}
	if o.index != nil {
		c.index = make(map[string]int, len(o.index))
		for k, v := range o.index {
			c.index[k] = v
		}
	}
	return c
}

// Attributes accumulates the CSS classes, inline style declarations and HTML
// attributes contributed to one element.
//
// Classes form a set ordered by first insertion. Styles and attributes are
// ordered maps where the last write to a name wins but the name keeps the
// position of its first insertion. The zero value is ready to use.
type Attributes struct {
	classes ordered
	styles  ordered
	attrs   ordered
}

// AddClass adds class names, ignoring ones already present.
func (a *Attributes) AddClass(names ...string) *Attributes {
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := a.classes.get(n); !ok {
			a.classes.set(n, "")
		}
	}
	return a
}

// SetStyle sets one declaration. Values of multi-component shorthand
// properties are compacted.
func (a *Attributes) SetStyle(property, value string) *Attributes {
	property = strings.ToLower(strings.TrimSpace(property))
	value = strings.TrimSpace(value)
	if isCompactable(property) {
		value = CompactShorthand(value)
	}
	a.styles.set(property, value)
	return a
}

// SetAttr sets an HTML attribute. "class" and "style" are routed to the
// class set and the declaration map.
func (a *Attributes) SetAttr(name, value string) *Attributes {
	switch strings.ToLower(name) {
	case "class":
		a.AddClass(strings.Fields(value)...)
	case "style":
		for _, decl := range strings.Split(value, ";") {
			prop, val, ok := strings.Cut(decl, ":")
			if ok {
				a.SetStyle(prop, val)
			}
		}
	default:
		a.attrs.set(name, value)
	}
	return a
}

// Style returns the value of a declaration.
func (a Attributes) Style(property string) (string, bool) {
	return a.styles.get(property)
}

// Attr returns the value of an HTML attribute.
func (a Attributes) Attr(name string) (string, bool) {
	return a.attrs.get(name)
}

// HasClass reports whether the class set contains name.
func (a Attributes) HasClass(name string) bool {
	_, ok := a.classes.get(name)
	return ok
}

// Classes returns the class names in insertion order.
func (a Attributes) Classes() []string {
	return append([]string(nil), a.classes.keys...)
}

// StyleProperties returns the declared properties in insertion order.
func (a Attributes) StyleProperties() []string {
	return append([]string(nil), a.styles.keys...)
}

// IsEmpty reports whether nothing was contributed.
func (a Attributes) IsEmpty() bool {
	return a.classes.len() == 0 && a.styles.len() == 0 && a.attrs.len() == 0
}

// Clone returns a deep copy.
func (a Attributes) Clone() Attributes {
	return Attributes{
		classes: a.classes.clone(),
		styles:  a.styles.clone(),
		attrs:   a.attrs.clone(),
	}
}

// Merge returns a followed by b. Neither input is modified.
func Merge(a, b Attributes) Attributes {
	out := a.Clone()
	for _, c := range b.classes.keys {
		out.AddClass(c)
	}
	for i, p := range b.styles.keys {
		out.styles.set(p, b.styles.values[i])
	}
	for i, n := range b.attrs.keys {
		out.attrs.set(n, b.attrs.values[i])
	}
	return out
}

// conflicts reports whether b writes a declaration or attribute a already has.
func (a Attributes) conflicts(b Attributes) bool {
	for _, p := range b.styles.keys {
		if _, ok := a.styles.get(p); ok {
			return true
		}
	}
	for _, n := range b.attrs.keys {
		if _, ok := a.attrs.get(n); ok {
			return true
		}
	}
	return false
}

// StyleString renders the declarations as the value of a style attribute.
func (a Attributes) StyleString() string {
	var sb strings.Builder
	for i, p := range a.styles.keys {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(p)
		sb.WriteByte(':')
		sb.WriteString(a.styles.values[i])
	}
	return sb.String()
}

// writeTo appends the attribute list, HTML attributes first, then class and
// style.
func (a Attributes) writeTo(sb *strings.Builder) {
	for i, n := range a.attrs.keys {
		sb.WriteByte(' ')
		sb.WriteString(n)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(a.attrs.values[i]))
		sb.WriteByte('"')
	}
	if a.classes.len() > 0 {
		sb.WriteString(` class="`)
		sb.WriteString(html.EscapeString(strings.Join(a.classes.keys, " ")))
		sb.WriteByte('"')
	}
	if a.styles.len() > 0 {
		sb.WriteString(` style="`)
		sb.WriteString(html.EscapeString(a.StyleString()))
		sb.WriteByte('"')
	}
}
