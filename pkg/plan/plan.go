// Package plan defines action plans: ordered UI steps generated for one
// method of a target app, and how they are loaded from disk.
package plan

import (
	"fmt"
	"strings"

	"github.com/labcitrus/avagen-runner/pkg/query"
)

// Plan is one method's ordered sequence of steps.
type Plan struct {
	MethodName string `json:"method_name"`
	Steps      []Step `json:"steps"`
}

// IsEmpty reports whether the plan has no steps.
func (p *Plan) IsEmpty() bool {
	return p == nil || len(p.Steps) == 0
}

func (p *Plan) String() string {
	if p == nil {
		return "Plan{<nil>}"
	}
	return fmt.Sprintf("Plan{method=%s steps=%d}", p.MethodName, len(p.Steps))
}

// Step is a single UI action.
type Step struct {
	ActionRaw string         `json:"action"`
	Matchers  []FieldMatcher `json:"matchers,omitempty"`
	Text      *string        `json:"text,omitempty"`
	Millis    *int64         `json:"millis,omitempty"`
	NodeQuery string         `json:"node_query,omitempty"`
}

// Kind returns the normalized action kind.
func (s Step) Kind() ActionKind {
	return ParseActionKind(s.ActionRaw)
}

// HasNodeQuery reports whether the step carries a non-blank DSL expression.
func (s Step) HasNodeQuery() bool {
	return strings.TrimSpace(s.NodeQuery) != ""
}

func (s Step) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Step{action=%q", s.ActionRaw)
	if s.NodeQuery != "" {
		fmt.Fprintf(&b, " query=%q", s.NodeQuery)
	}
	if len(s.Matchers) > 0 {
		parts := make([]string, 0, len(s.Matchers))
		for _, m := range s.Matchers {
			parts = append(parts, m.String())
		}
		fmt.Fprintf(&b, " matchers=[%s]", strings.Join(parts, ", "))
	}
	if s.Text != nil {
		fmt.Fprintf(&b, " text=%q", *s.Text)
	}
	if s.Millis != nil {
		fmt.Fprintf(&b, " millis=%d", *s.Millis)
	}
	b.WriteString("}")
	return b.String()
}

// FieldMatcher is the flat matcher form: compare one node field with a value.
type FieldMatcher struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Mode  string `json:"mode,omitempty"`
}

func (m FieldMatcher) String() string {
	mode := m.Mode
	if mode == "" {
		mode = "default"
	}
	return fmt.Sprintf("%s %s %q", m.Type, mode, m.Value)
}

// Field returns the node field the matcher inspects.
func (m FieldMatcher) Field() (query.Field, bool) {
	return query.ParseField(m.Type)
}

// StringMatcher builds the matcher for m. An absent or unrecognized mode
// falls back to equalsIgnoreCase (reported by defaulted); an invalid regex
// is an error.
func (m FieldMatcher) StringMatcher() (sm query.StringMatcher, defaulted bool, err error) {
	mode, ok := query.ParseWireMode(m.Mode)
	if !ok {
		return query.EqualsIgnoreCase(m.Value), true, nil
	}
	sm, err = query.NewMatcher(mode, m.Value)
	return sm, false, err
}

// Query converts m into a node query.
func (m FieldMatcher) Query() (query.NodeQuery, error) {
	field, ok := m.Field()
	if !ok {
		return query.NodeQuery{}, fmt.Errorf("unsupported matcher type %q", m.Type)
	}
	sm, _, err := m.StringMatcher()
	if err != nil {
		return query.NodeQuery{}, err
	}
	return query.WithField(field, sm), nil
}

// Ptr helpers for building steps in code.

func String(s string) *string { return &s }
func Millis(ms int64) *int64  { return &ms }
