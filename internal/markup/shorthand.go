package markup

import "strings"

// compactable lists the box shorthands whose 2 and 4 component forms follow
// the top/right/bottom/left expansion rules.
var compactable = map[string]bool{
	"margin":         true,
	"padding":        true,
	"inset":          true,
	"border-width":   true,
	"border-style":   true,
	"border-color":   true,
	"border-radius":  true,
	"scroll-margin":  true,
	"scroll-padding": true,
}

func isCompactable(property string) bool { return compactable[property] }

// CompactShorthand returns the shortest equivalent spelling of a box
// shorthand value:
//
//	"a a"     -> "a"
//	"a a a a" -> "a"
//	"a b a b" -> "a b"
//
// Any other quadruple stays as written, as do values with a component count
// other than 2 or 4 and border-radius values using the slash syntax.
func CompactShorthand(value string) string {
	if strings.Contains(value, "/") {
		return value
	}
	parts := strings.Fields(value)
	switch len(parts) {
	case 2:
		if parts[0] == parts[1] {
			return parts[0]
		}
	case 4:
		if parts[0] == parts[2] && parts[1] == parts[3] {
			if parts[0] == parts[1] {
				return parts[0]
			}
			return parts[0] + " " + parts[1]
		}
	default:
		if len(parts) == 0 {
			return ""
		}
	}
	return strings.Join(parts, " ")
}

// Shorthand joins components and compacts the result.
func Shorthand(components ...string) string {
	return CompactShorthand(strings.Join(components, " "))
}
