package cascade

import (
	"fmt"
	"regexp"
	"strings"
)

// MatcherKind selects how a pattern matcher compares against a description.
type MatcherKind string

const (
	// MatchSubstring matches when the description contains the value.
	MatchSubstring MatcherKind = "substring"
	// MatchRegex matches when the compiled expression matches the description.
	MatchRegex MatcherKind = "regex"
)

// Matcher is one way a pattern group can hit a transaction description.
type Matcher struct {
	Kind  MatcherKind
	Value string
}

// PatternGroup maps a set of matchers to a category. Groups are evaluated
// in list order and the first group with any matching matcher wins; the
// ordering encodes deliberate priority (specific merchants before generic
// fee rules) and must not be replaced by a best-score search.
type PatternGroup struct {
	Name        string
	Category    string
	Subcategory string
	Matchers    []Matcher
	Confidence  float64
}

// compiledGroup holds a pattern group with its regex matchers compiled.
type compiledGroup struct {
	PatternGroup
	regexes []*regexp.Regexp // nil entry for substring matchers
}

// compilePatterns validates and compiles a pattern table, preserving order.
func compilePatterns(groups []PatternGroup) ([]compiledGroup, error) {
	compiled := make([]compiledGroup, 0, len(groups))
	for _, g := range groups {
		if g.Category == "" {
			return nil, fmt.Errorf("pattern group %q has no category", g.Name)
		}
		if g.Confidence < 0 || g.Confidence > 1 {
			return nil, fmt.Errorf("pattern group %q confidence %.4f outside [0,1]", g.Name, g.Confidence)
		}
		cg := compiledGroup{PatternGroup: g, regexes: make([]*regexp.Regexp, len(g.Matchers))}
		for i, m := range g.Matchers {
			switch m.Kind {
			case MatchSubstring:
				// Compared lowercase at match time
			case MatchRegex:
				expr := m.Value
				if !strings.HasPrefix(expr, "(?i)") {
					expr = "(?i)" + expr
				}
				re, err := regexp.Compile(expr)
				if err != nil {
					return nil, fmt.Errorf("failed to compile pattern %q matcher %d: %w", g.Name, i, err)
				}
				cg.regexes[i] = re
			default:
				return nil, fmt.Errorf("pattern group %q has unknown matcher kind %q", g.Name, m.Kind)
			}
		}
		compiled = append(compiled, cg)
	}
	return compiled, nil
}

// match reports whether any matcher in the group hits the description.
// Substring matchers compare case-insensitively.
func (g *compiledGroup) match(description string) bool {
	lowered := strings.ToLower(description)
	for i, m := range g.Matchers {
		switch m.Kind {
		case MatchSubstring:
			if strings.Contains(lowered, strings.ToLower(m.Value)) {
				return true
			}
		case MatchRegex:
			if g.regexes[i].MatchString(description) {
				return true
			}
		}
	}
	return false
}
