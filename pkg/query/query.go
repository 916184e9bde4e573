// Package query matches accessibility nodes against structural queries.
//
// A NodeQuery is an immutable AST value. Queries are built with the
// constructors in this file or parsed from the textual DSL (see Parse), and
// evaluated against a uitree.Node by Matches.
package query

import (
	"strconv"
	"strings"

	"github.com/labcitrus/avagen-runner/pkg/uitree"
)

// Kind identifies the shape of a NodeQuery.
type Kind int

const (
	KindLeaf Kind = iota + 1
	KindState
	KindParent
	KindChild
	KindDescendant
	KindIndexAt
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindState:
		return "state"
	case KindParent:
		return "parent"
	case KindChild:
		return "child"
	case KindDescendant:
		return "descendant"
	case KindIndexAt:
		return "indexAt"
	default:
		return "none"
	}
}

// Field is the node attribute a leaf query inspects.
type Field int

const (
	FieldID Field = iota + 1
	FieldText
	FieldClassName
	FieldContentDescription
)

func (f Field) String() string {
	switch f {
	case FieldID:
		return "id"
	case FieldText:
		return "text"
	case FieldClassName:
		return "className"
	case FieldContentDescription:
		return "contentDescription"
	default:
		return "unknown"
	}
}

// dslName is the constructor name used in the DSL and debug labels.
func (f Field) dslName() string {
	switch f {
	case FieldID:
		return "withId"
	case FieldText:
		return "withText"
	case FieldClassName:
		return "withClassName"
	case FieldContentDescription:
		return "withContentDescription"
	default:
		return "withUnknown"
	}
}

// ParseField maps a plan field type name to a Field.
func ParseField(s string) (Field, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "id", "resource_id", "resourceid", "resource-id":
		return FieldID, true
	case "text":
		return FieldText, true
	case "classname", "class_name", "class":
		return FieldClassName, true
	case "contentdescription", "content_description", "content-desc", "contentdesc", "desc":
		return FieldContentDescription, true
	default:
		return 0, false
	}
}

// NodeQuery is an immutable predicate over a single node. The zero value is
// a null query: it never matches and is skipped inside conjunctions.
type NodeQuery struct {
	kind    Kind
	field   Field
	matcher StringMatcher
	checked bool
	index   int
	nested  []NodeQuery
}

// Field leaves.

func WithID(m StringMatcher) NodeQuery        { return leaf(FieldID, m) }
func WithText(m StringMatcher) NodeQuery      { return leaf(FieldText, m) }
func WithClassName(m StringMatcher) NodeQuery { return leaf(FieldClassName, m) }
func WithContentDescription(m StringMatcher) NodeQuery {
	return leaf(FieldContentDescription, m)
}

// WithField builds a leaf for an arbitrary field.
func WithField(f Field, m StringMatcher) NodeQuery { return leaf(f, m) }

// String convenience constructors use containsIgnoreCase.

func WithIDString(s string) NodeQuery        { return WithID(ContainsIgnoreCase(s)) }
func WithTextString(s string) NodeQuery      { return WithText(ContainsIgnoreCase(s)) }
func WithClassNameString(s string) NodeQuery { return WithClassName(ContainsIgnoreCase(s)) }
func WithContentDescriptionString(s string) NodeQuery {
	return WithContentDescription(ContainsIgnoreCase(s))
}

// IsTextIgnoreCase matches nodes whose whole text equals s ignoring case.
func IsTextIgnoreCase(s string) NodeQuery { return WithText(EqualsIgnoreCase(s)) }

func leaf(f Field, m StringMatcher) NodeQuery {
	return NodeQuery{kind: KindLeaf, field: f, matcher: m}
}

// State leaves.

func IsChecked() NodeQuery    { return NodeQuery{kind: KindState, checked: true} }
func IsNotChecked() NodeQuery { return NodeQuery{kind: KindState, checked: false} }

// Structural queries.

// WithParent matches nodes that have a parent satisfying every query in qs.
func WithParent(qs ...NodeQuery) NodeQuery { return structural(KindParent, qs) }

// WithChild matches nodes with at least one direct child satisfying every query in qs.
func WithChild(qs ...NodeQuery) NodeQuery { return structural(KindChild, qs) }

// HasDescendant matches nodes whose subtree (self included) holds a node
// satisfying every query in qs. It is the only descendant query.
func HasDescendant(qs ...NodeQuery) NodeQuery { return structural(KindDescendant, qs) }

// WithParentIndex matches nodes at 0-based position i among their parent's children.
func WithParentIndex(i int) NodeQuery { return NodeQuery{kind: KindIndexAt, index: i} }

func structural(k Kind, qs []NodeQuery) NodeQuery {
	nested := make([]NodeQuery, len(qs))
	copy(nested, qs)
	return NodeQuery{kind: k, nested: nested}
}

// Kind returns the query shape.
func (q NodeQuery) Kind() Kind { return q.kind }

// Field returns the inspected field of a leaf query.
func (q NodeQuery) Field() Field { return q.field }

// Matcher returns the string matcher of a leaf query.
func (q NodeQuery) Matcher() StringMatcher { return q.matcher }

// Nested returns a copy of the sub-queries of a structural query.
func (q NodeQuery) Nested() []NodeQuery {
	out := make([]NodeQuery, len(q.nested))
	copy(out, q.nested)
	return out
}

// IsZero reports whether q is a null query.
func (q NodeQuery) IsZero() bool { return q.kind == 0 }

// IsDescendantQuery reports whether evaluating q needs the full subtree.
// It depends only on q's own shape, never on nested queries.
func (q NodeQuery) IsDescendantQuery() bool { return q.kind == KindDescendant }

// Matches evaluates q against node. A nil node or null query never matches.
func (q NodeQuery) Matches(node uitree.Node) bool {
	if node == nil || q.IsZero() {
		return false
	}
	return eval(q, node)
}

func eval(q NodeQuery, node uitree.Node) bool {
	switch q.kind {
	case KindLeaf:
		return matchField(q.field, q.matcher, node)
	case KindState:
		return node.IsChecked() == q.checked
	case KindParent:
		parent := node.Parent()
		return parent != nil && matchAll(q.nested, parent)
	case KindChild:
		for _, child := range node.Children() {
			if child != nil && matchAll(q.nested, child) {
				return true
			}
		}
		return false
	case KindDescendant:
		for _, n := range AllNodes(node) {
			if matchAll(q.nested, n) {
				return true
			}
		}
		return false
	case KindIndexAt:
		return IndexInParent(node) == q.index
	}
	return false
}

// matchAll is the AND of all non-null queries; an empty set matches.
func matchAll(qs []NodeQuery, node uitree.Node) bool {
	for _, q := range qs {
		if q.IsZero() {
			continue
		}
		if !eval(q, node) {
			return false
		}
	}
	return true
}

func matchField(f Field, m StringMatcher, node uitree.Node) bool {
	switch f {
	case FieldID:
		id := node.ResourceID()
		if m.Match(id) {
			return true
		}
		return strings.Contains(id, "/") && m.Match(SimpleID(id))
	case FieldText:
		return m.Match(node.Text())
	case FieldClassName:
		return m.Match(node.ClassName())
	case FieldContentDescription:
		return m.Match(node.ContentDescription())
	}
	return false
}

// SimpleID returns the part of a resource id after the last '/'.
func SimpleID(id string) string {
	if i := strings.LastIndexByte(id, '/'); i >= 0 {
		return id[i+1:]
	}
	return id
}

// IndexInParent returns node's 0-based position among its parent's children,
// or -1 when it has no parent or is not listed among them.
func IndexInParent(node uitree.Node) int {
	if node == nil {
		return -1
	}
	parent := node.Parent()
	if parent == nil {
		return -1
	}
	for i, child := range parent.Children() {
		if child != nil && child == node {
			return i
		}
	}
	return -1
}

// String renders q in DSL form for logs.
func (q NodeQuery) String() string {
	switch q.kind {
	case KindLeaf:
		return q.field.dslName() + "(" + q.matcher.String() + ")"
	case KindState:
		if q.checked {
			return "isChecked()"
		}
		return "isNotChecked()"
	case KindParent:
		return "withParent(" + joinQueries(q.nested) + ")"
	case KindChild:
		return "withChild(" + joinQueries(q.nested) + ")"
	case KindDescendant:
		return "hasDescendant(" + joinQueries(q.nested) + ")"
	case KindIndexAt:
		return "withParentIndex(" + strconv.Itoa(q.index) + ")"
	}
	return "null"
}

func joinQueries(qs []NodeQuery) string {
	parts := make([]string, 0, len(qs))
	for _, q := range qs {
		parts = append(parts, q.String())
	}
	return strings.Join(parts, ", ")
}
