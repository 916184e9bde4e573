package executor

import (
	"strings"

	"github.com/labcitrus/avagen-runner/pkg/core"
	"github.com/labcitrus/avagen-runner/pkg/plan"
	"github.com/labcitrus/avagen-runner/pkg/query"
	"github.com/labcitrus/avagen-runner/pkg/uitree"
)

// Query sources reported in step results.
const (
	SourceNodeQuery = "node_query"
	SourceMatchers  = "matchers"
)

// resolution is the outcome of resolving a step's target node.
type resolution struct {
	node    uitree.Node
	queries []query.NodeQuery
	source  string
	checked int
	err     error
}

// ResolveNode finds the target node for step against a fresh snapshot of
// the live tree. The DSL expression is preferred; when it is blank or
// yields no queries the flat matchers are used. The first match in
// pre-order wins.
func (e *Executor) ResolveNode(step plan.Step) (uitree.Node, error) {
	r := e.resolve(step)
	return r.node, r.err
}

func (e *Executor) resolve(step plan.Step) resolution {
	queries, source := e.StepQueries(step)
	r := resolution{queries: queries, source: source}
	if len(queries) == 0 {
		r.err = core.ErrNoQueries
		return r
	}

	root := e.platform.Root()
	if root == nil {
		r.err = core.ErrNoRoot
		return r
	}

	res := query.Find(query.AllNodes(root), queries...)
	r.checked = res.Checked
	if len(res.Matches) == 0 {
		r.err = core.ErrNodeNotFound.WithMessage("no node matched " + joinQueries(queries))
		return r
	}
	r.node = res.Matches[0]
	return r
}

// StepQueries builds the node queries for step and reports which part of
// the step they came from.
func (e *Executor) StepQueries(step plan.Step) ([]query.NodeQuery, string) {
	if step.HasNodeQuery() {
		parsed := query.Parse(step.NodeQuery)
		for _, tok := range parsed.Dropped {
			e.log.Warn().Str("token", tok).Str("expr", step.NodeQuery).Msg("dropped query token")
		}
		if len(parsed.Queries) > 0 {
			return parsed.Queries, SourceNodeQuery
		}
		e.log.Warn().Str("expr", step.NodeQuery).Msg("node query produced no queries, falling back to matchers")
	}

	return e.matcherQueries(step.Matchers), SourceMatchers
}

func (e *Executor) matcherQueries(matchers []plan.FieldMatcher) []query.NodeQuery {
	var out []query.NodeQuery
	for _, m := range matchers {
		field, ok := m.Field()
		if !ok {
			e.log.Warn().Str("type", m.Type).Msg("unsupported matcher type")
			continue
		}
		sm, defaulted, err := m.StringMatcher()
		if err != nil {
			e.log.Warn().Err(err).Str("type", m.Type).Msg("invalid matcher")
			continue
		}
		if defaulted && m.Mode != "" {
			e.log.Warn().Str("mode", m.Mode).Msg("unknown matcher mode, using equalsIgnoreCase")
		}
		out = append(out, query.WithField(field, sm))
	}
	return out
}

func joinQueries(qs []query.NodeQuery) string {
	parts := make([]string, 0, len(qs))
	for _, q := range qs {
		parts = append(parts, q.String())
	}
	return strings.Join(parts, ", ")
}
