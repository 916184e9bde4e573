package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MatchMode selects how a StringMatcher compares its needle with a value.
type MatchMode int

const (
	ModeEquals MatchMode = iota + 1
	ModeEqualsIgnoreCase
	ModeContains
	ModeContainsIgnoreCase
	ModeStartsWith
	ModeStartsWithIgnoreCase
	ModeEndsWith
	ModeEndsWithIgnoreCase
	ModeRegex
)

// String returns the mode name as it appears in plans and the query DSL.
func (m MatchMode) String() string {
	switch m {
	case ModeEquals:
		return "equals"
	case ModeEqualsIgnoreCase:
		return "equalsIgnoreCase"
	case ModeContains:
		return "contains"
	case ModeContainsIgnoreCase:
		return "containsIgnoreCase"
	case ModeStartsWith:
		return "startsWith"
	case ModeStartsWithIgnoreCase:
		return "startsWithIgnoreCase"
	case ModeEndsWith:
		return "endsWith"
	case ModeEndsWithIgnoreCase:
		return "endsWithIgnoreCase"
	case ModeRegex:
		return "regex"
	default:
		return "unknown"
	}
}

var modeNames = map[string]MatchMode{
	"equals":                     ModeEquals,
	"equalsignorecase":           ModeEqualsIgnoreCase,
	"contains":                   ModeContains,
	"containsstring":             ModeContains,
	"containsignorecase":         ModeContainsIgnoreCase,
	"containsstringignoringcase": ModeContainsIgnoreCase,
	"startswith":                 ModeStartsWith,
	"startswithignorecase":       ModeStartsWithIgnoreCase,
	"endswith":                   ModeEndsWith,
	"endswithignorecase":         ModeEndsWithIgnoreCase,
	"regex":                      ModeRegex,
}

// wireModes is how plan matchers and query helpers name modes: the plain
// names compare case-insensitively.
var wireModes = map[string]MatchMode{
	"equals":                     ModeEqualsIgnoreCase,
	"equalsignorecase":           ModeEqualsIgnoreCase,
	"contains":                   ModeContainsIgnoreCase,
	"containsignorecase":         ModeContainsIgnoreCase,
	"containsstringignoringcase": ModeContainsIgnoreCase,
	"startswith":                 ModeStartsWithIgnoreCase,
	"startswithignorecase":       ModeStartsWithIgnoreCase,
	"endswith":                   ModeEndsWithIgnoreCase,
	"endswithignorecase":         ModeEndsWithIgnoreCase,
	"regex":                      ModeRegex,
}

// ParseMatchMode maps a mode name to a MatchMode. Names are compared
// case-insensitively and surrounding whitespace is ignored.
func ParseMatchMode(s string) (MatchMode, bool) {
	m, ok := modeNames[strings.ToLower(strings.TrimSpace(s))]
	return m, ok
}

// ParseWireMode maps a mode name as written in action plans and query
// strings. There "equals", "contains", "startsWith" and "endsWith" ignore
// case, so every wire mode except regex is case-insensitive.
func ParseWireMode(s string) (MatchMode, bool) {
	m, ok := wireModes[strings.ToLower(strings.TrimSpace(s))]
	return m, ok
}

// StringMatcher is an immutable string predicate. The zero value matches nothing.
type StringMatcher struct {
	mode   MatchMode
	needle string
	folded string
	re     *regexp.Regexp
	label  string
}

func newMatcher(mode MatchMode, needle string) StringMatcher {
	return StringMatcher{
		mode:   mode,
		needle: needle,
		folded: strings.ToLower(needle),
		label:  mode.String() + "(" + strconv.Quote(needle) + ")",
	}
}

// NewMatcher builds a matcher for the given mode. Only ModeRegex can fail.
func NewMatcher(mode MatchMode, needle string) (StringMatcher, error) {
	switch mode {
	case ModeRegex:
		return Regex(needle)
	case ModeEquals, ModeEqualsIgnoreCase, ModeContains, ModeContainsIgnoreCase,
		ModeStartsWith, ModeStartsWithIgnoreCase, ModeEndsWith, ModeEndsWithIgnoreCase:
		return newMatcher(mode, needle), nil
	default:
		return StringMatcher{}, fmt.Errorf("unknown match mode %d", mode)
	}
}

// Equals matches values identical to s.
func Equals(s string) StringMatcher { return newMatcher(ModeEquals, s) }

// EqualsIgnoreCase matches values equal to s under case folding.
func EqualsIgnoreCase(s string) StringMatcher { return newMatcher(ModeEqualsIgnoreCase, s) }

// Contains matches values containing s, case-sensitively.
func Contains(s string) StringMatcher { return newMatcher(ModeContains, s) }

// ContainsIgnoreCase is the default mode for bare DSL literals.
func ContainsIgnoreCase(s string) StringMatcher { return newMatcher(ModeContainsIgnoreCase, s) }

// ContainsStringIgnoringCase is an alias of ContainsIgnoreCase.
func ContainsStringIgnoringCase(s string) StringMatcher { return ContainsIgnoreCase(s) }

// StartsWith matches values with prefix s, case-sensitively.
func StartsWith(s string) StringMatcher { return newMatcher(ModeStartsWith, s) }

// StartsWithIgnoreCase matches values with prefix s under case folding.
func StartsWithIgnoreCase(s string) StringMatcher { return newMatcher(ModeStartsWithIgnoreCase, s) }

// EndsWith matches values with suffix s, case-sensitively.
func EndsWith(s string) StringMatcher { return newMatcher(ModeEndsWith, s) }

// EndsWithIgnoreCase matches values with suffix s under case folding.
func EndsWithIgnoreCase(s string) StringMatcher { return newMatcher(ModeEndsWithIgnoreCase, s) }

// Regex compiles pattern once. The pattern is searched for anywhere in the
// value and "." also matches newlines.
func Regex(pattern string) (StringMatcher, error) {
	re, err := regexp.Compile("(?s)" + pattern)
	if err != nil {
		return StringMatcher{}, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	m := newMatcher(ModeRegex, pattern)
	m.re = re
	return m, nil
}

// MustRegex is like Regex but panics on an invalid pattern.
func MustRegex(pattern string) StringMatcher {
	m, err := Regex(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// Match reports whether value satisfies the matcher. An empty value is
// treated as an absent field and never matches.
func (m StringMatcher) Match(value string) bool {
	if value == "" || m.mode == 0 {
		return false
	}
	switch m.mode {
	case ModeEquals:
		return value == m.needle
	case ModeEqualsIgnoreCase:
		return strings.EqualFold(value, m.needle)
	case ModeContains:
		return strings.Contains(value, m.needle)
	case ModeContainsIgnoreCase:
		return strings.Contains(strings.ToLower(value), m.folded)
	case ModeStartsWith:
		return strings.HasPrefix(value, m.needle)
	case ModeStartsWithIgnoreCase:
		return strings.HasPrefix(strings.ToLower(value), m.folded)
	case ModeEndsWith:
		return strings.HasSuffix(value, m.needle)
	case ModeEndsWithIgnoreCase:
		return strings.HasSuffix(strings.ToLower(value), m.folded)
	case ModeRegex:
		return m.re != nil && m.re.MatchString(value)
	}
	return false
}

// Mode returns the matcher's mode.
func (m StringMatcher) Mode() MatchMode { return m.mode }

// Needle returns the raw needle.
func (m StringMatcher) Needle() string { return m.needle }

// IsZero reports whether m was never constructed.
func (m StringMatcher) IsZero() bool { return m.mode == 0 }

// String returns the debug label, e.g. containsIgnoreCase("Pay").
func (m StringMatcher) String() string {
	if m.mode == 0 {
		return "none()"
	}
	return m.label
}
