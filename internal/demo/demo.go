// Package demo is the sample site served by the CLI when no other site is
// wired in.
package demo

import (
	_ "embed"
	"sort"

	"github.com/conneroisu/facet/internal/localization"
	"github.com/conneroisu/facet/internal/site"
	"github.com/conneroisu/facet/internal/view"
)

//go:embed bundle.yml
var bundleYAML []byte

// Bundle is the demo resource bundle.
func Bundle() (localization.Bundle, error) {
	return localization.ParseBundle(bundleYAML, "demo bundle")
}

// Person is the data bound to a profile page.
type Person struct {
	Handle string
	Name   string
	Role   string
}

var people = map[string]Person{
	"ada":   {Handle: "ada", Name: "Ada Lovelace", Role: "Analyst"},
	"grace": {Handle: "grace", Name: "Grace Hopper", Role: "Compiler"},
	"alan":  {Handle: "alan", Name: "Alan Turing", Role: "Theory"},
}

func handles() []string {
	out := make([]string, 0, len(people))
	for h := range people {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// page lays content out under the breadcrumb trail.
func page(content ...view.View) view.View {
	return view.Modify(
		view.VStack(append([]view.View{view.Breadcrumbs(), view.Divider()}, content...)...).Spaced("1em"),
		view.Padding("1em", "2em"),
		view.Frame(view.FrameOptions{MaxWidth: "48em"}),
	)
}

func heading(key string) view.View {
	return view.Modify(view.LocalizedText(key), view.Font(view.FontLargeTitle))
}

func feature(color view.Color, key string) view.View {
	return view.GridRow(
		view.Modify(view.Rectangle(), view.Foreground(color), view.Frame(view.FrameOptions{Width: "1em"})),
		view.LocalizedText(key),
	)
}

// Root is the destination tree of the demo site.
func Root() *site.Destination {
	return &site.Destination{
		Title: "Home",
		View: page(
			heading("Home"),
			view.LocalizedText("welcome"),
			view.Modify(
				view.Grid(
					feature(view.Blue, "feature.cache"),
					feature(view.Green, "feature.layout"),
					feature(view.Red, "feature.locale"),
				).Spaced("0.5em"),
				view.Padding("1em"),
				view.Background(view.Hex("#F2F2F7")),
				view.CornerRadius("8px"),
			),
			view.HStack(
				view.Link("/docs", view.LocalizedText("Docs")),
				view.Spacer(),
				view.Link("/people", view.LocalizedText("People")),
			),
		),
		Children: []*site.Destination{
			{
				Segment: "docs",
				Title:   "Docs",
				View: page(
					heading("Docs"),
					view.Section(
						view.LocalizedText("docs.intro"),
						view.List(
							view.Link("/docs/getting-started", view.LocalizedText("Getting Started")),
						),
					),
				),
				Children: []*site.Destination{
					{
						Segment: "getting-started",
						Title:   "Getting Started",
						View: page(
							heading("Getting Started"),
							view.Modify(
								view.List(
									view.Text("facet serve"),
									view.Text("facet sitemap"),
									view.Text("facet version"),
								),
								view.ListStyleOf(view.ListStyleDecimal),
								view.Font(view.FontMonospaced),
							),
						),
					},
				},
			},
			{
				Segment: "people",
				Title:   "People",
				View: page(
					heading("People"),
					view.LocalizedText("people.intro"),
					view.Func(func(view.Context) view.View {
						links := make([]view.View, 0, len(people))
						for _, h := range handles() {
							links = append(links, view.Link("/people/"+h, view.Text(people[h].Name)))
						}
						return view.List(links...)
					}),
				),
				Resolve: resolvePerson,
			},
		},
	}
}

func resolvePerson(segment string) (*site.Destination, bool) {
	p, ok := people[segment]
	if !ok {
		return nil, false
	}
	return &site.Destination{
		Title: p.Name,
		Data:  p,
		View: page(view.Func(func(ctx view.Context) view.View {
			path := ctx.Path()
			person := path[len(path)-1].Data.(Person)
			return view.VStack(
				view.Modify(view.Text(person.Name), view.Font(view.FontTitle)),
				view.Modify(view.Text(person.Role), view.Font(view.FontCaption), view.Foreground(view.Gray)),
			)
		})),
	}, true
}
