package query

import "github.com/labcitrus/avagen-runner/pkg/uitree"

// node builds an element for tests.
func node(class, id, text string, children ...*uitree.Element) *uitree.Element {
	return uitree.NewElement(uitree.Attributes{
		ClassName:  class,
		ResourceID: id,
		Text:       text,
	}).Append(children...)
}

func nodes(es ...*uitree.Element) []uitree.Node {
	out := make([]uitree.Node, 0, len(es))
	for _, e := range es {
		out = append(out, e)
	}
	return out
}

func labels(qs []NodeQuery) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.String())
	}
	return out
}
