package query

import (
	"strconv"
	"strings"
)

// ParseResult holds the queries parsed from a DSL expression and the
// top-level tokens that were not understood.
type ParseResult struct {
	Queries []NodeQuery
	Dropped []string
}

// ParseList parses a comma-separated DSL expression such as
//
//	withText("YES"), withParent(withId("panel"), hasDescendant(withId("icon")))
//
// into queries. Parsing never fails: unrecognized tokens are dropped.
func ParseList(expr string) []NodeQuery {
	return Parse(expr).Queries
}

// Parse is ParseList with diagnostics.
func Parse(expr string) ParseResult {
	var res ParseResult
	for _, tok := range splitTopLevel(expr) {
		q, ok := parseToken(tok, &res)
		if !ok {
			res.Dropped = append(res.Dropped, tok)
			continue
		}
		res.Queries = append(res.Queries, q)
	}
	return res
}

// splitTopLevel splits on commas outside parentheses and double quotes.
func splitTopLevel(expr string) []string {
	var (
		tokens  []string
		depth   int
		inQuote bool
		escaped bool
		start   int
	)
	flush := func(end int) {
		if tok := strings.TrimSpace(expr[start:end]); tok != "" {
			tokens = append(tokens, tok)
		}
	}

	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if inQuote {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inQuote = false
			}
			continue
		}
		switch c {
		case '"':
			inQuote = true
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(expr))
	return tokens
}

// splitCall splits `name(args)` into its parts. A missing closing
// parenthesis is tolerated.
func splitCall(tok string) (name, args string, ok bool) {
	open := strings.IndexByte(tok, '(')
	if open <= 0 {
		return "", "", false
	}
	name = strings.TrimSpace(tok[:open])
	rest := tok[open+1:]
	if end := strings.LastIndexByte(rest, ')'); end >= 0 {
		rest = rest[:end]
	}
	return name, rest, true
}

func parseToken(tok string, res *ParseResult) (NodeQuery, bool) {
	name, args, ok := splitCall(tok)
	if !ok {
		return NodeQuery{}, false
	}

	switch strings.ToLower(name) {
	case "withid":
		return parseLeaf(FieldID, args)
	case "withtext":
		return parseLeaf(FieldText, args)
	case "withclassname":
		return parseLeaf(FieldClassName, args)
	case "withcontentdescription":
		return parseLeaf(FieldContentDescription, args)
	case "withparent":
		return WithParent(parseNested(args, res)...), true
	case "withchild":
		return WithChild(parseNested(args, res)...), true
	case "hasdescendant":
		return HasDescendant(parseNested(args, res)...), true
	case "ischecked":
		return IsChecked(), true
	case "isnotchecked":
		return IsNotChecked(), true
	case "withparentindex":
		i, err := strconv.Atoi(strings.TrimSpace(args))
		if err != nil {
			return NodeQuery{}, false
		}
		return WithParentIndex(i), true
	}
	return NodeQuery{}, false
}

func parseNested(args string, res *ParseResult) []NodeQuery {
	inner := Parse(args)
	res.Dropped = append(res.Dropped, inner.Dropped...)
	return inner.Queries
}

func parseLeaf(f Field, arg string) (NodeQuery, bool) {
	m, ok := parseMatcherArg(arg)
	if !ok {
		return NodeQuery{}, false
	}
	return WithField(f, m), true
}

// parseMatcherArg turns a leaf argument into a matcher:
//
//	"x"                  -> containsIgnoreCase("x")
//	equals("x")          -> equalsIgnoreCase("x"), see ParseWireMode
//	anything else        -> containsIgnoreCase of the raw text
//
// An empty argument or an invalid regex yields no matcher.
func parseMatcherArg(arg string) (StringMatcher, bool) {
	s := strings.TrimSpace(arg)
	if s == "" {
		return StringMatcher{}, false
	}

	if lit, ok := unquote(s); ok {
		if lit == "" {
			return StringMatcher{}, false
		}
		return ContainsIgnoreCase(lit), true
	}

	if name, inner, ok := splitCall(s); ok {
		if mode, known := ParseWireMode(name); known {
			needle := strings.TrimSpace(inner)
			if lit, quoted := unquote(needle); quoted {
				needle = lit
			}
			if needle == "" {
				return StringMatcher{}, false
			}
			m, err := NewMatcher(mode, needle)
			if err != nil {
				return StringMatcher{}, false
			}
			return m, true
		}
	}

	return ContainsIgnoreCase(s), true
}

// unquote strips one pair of surrounding double quotes, decoding escapes
// when they are well formed.
func unquote(s string) (string, bool) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", false
	}
	if v, err := strconv.Unquote(s); err == nil {
		return v, true
	}
	return s[1 : len(s)-1], true
}
