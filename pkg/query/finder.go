package query

import "github.com/labcitrus/avagen-runner/pkg/uitree"

// SearchResult is the outcome of one tree search.
type SearchResult struct {
	Matches  []uitree.Node
	Checked  int  // nodes evaluated against the conjunction
	Expanded bool // candidates were expanded to their full subtrees
}

// FindNodes returns the candidates satisfying every query, in candidate order.
func FindNodes(candidates []uitree.Node, queries ...NodeQuery) []uitree.Node {
	return Find(candidates, queries...).Matches
}

// Find runs a tree search. When any query is a descendant query each
// candidate is expanded to itself plus all descendants before filtering;
// otherwise candidates are filtered as given. Nil candidates and null
// queries are skipped, and an empty conjunction matches every node.
func Find(candidates []uitree.Node, queries ...NodeQuery) SearchResult {
	active := make([]NodeQuery, 0, len(queries))
	expand := false
	for _, q := range queries {
		if q.IsZero() {
			continue
		}
		active = append(active, q)
		if q.IsDescendantQuery() {
			expand = true
		}
	}

	res := SearchResult{Expanded: expand}
	visit := func(n uitree.Node) {
		res.Checked++
		if matchAll(active, n) {
			res.Matches = append(res.Matches, n)
		}
	}

	for _, c := range candidates {
		if c == nil {
			continue
		}
		if !expand {
			visit(c)
			continue
		}
		for _, n := range AllNodes(c) {
			visit(n)
		}
	}
	return res
}

// AllNodes returns node and all of its descendants in pre-order, self first.
// Nil children are skipped. A nil node yields nil.
func AllNodes(node uitree.Node) []uitree.Node {
	if node == nil {
		return nil
	}
	var out []uitree.Node
	collect(node, &out)
	return out
}

func collect(node uitree.Node, out *[]uitree.Node) {
	*out = append(*out, node)
	for _, child := range node.Children() {
		if child != nil {
			collect(child, out)
		}
	}
}
