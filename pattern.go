package switchyard

import (
	"regexp"
	"strings"
)

// DefaultPatterns are the placeholder fragments every Collection starts with.
var DefaultPatterns = map[string]string{
	"any":      ".*",
	"num":      "[0-9]+",
	"alphanum": "[a-zA-Z0-9]+",
	"alpha":    "[a-zA-Z]+",
}

// placeholderRe matches {name} and {name:pattern}.
var placeholderRe = regexp.MustCompile(`\{([^{}:]+)(?::([^{}]+))?\}`)

// compiledPattern is the result of substituting a route template.
type compiledPattern struct {
	// expr is the substituted, unanchored expression.  It is also the key of
	// the route in its method table.
	expr string
	re   *regexp.Regexp
	err  error
	// groups maps a placeholder name to its 1-based capture index.
	groups map[string]int
	// unresolved lists placeholders left literally in expr.
	unresolved []string
}

// compilePattern turns template into an anchored, case-insensitive regular
// expression.  Each {name} or {name:pattern} placeholder is replaced by the
// fragment registered under pattern (or name), looked up in local first and
// global second.  Fragments are wrapped in a capturing group unless they are
// already parenthesized.  Placeholders without a fragment stay in the
// expression literally.
func compilePattern(template string, local, global map[string]string) compiledPattern {
	cp := compiledPattern{groups: map[string]int{}}

	var b strings.Builder
	captures, last := 0, 0
	for _, m := range placeholderRe.FindAllStringSubmatchIndex(template, -1) {
		literal := template[last:m[0]]
		b.WriteString(literal)
		captures += countGroups(literal)
		last = m[1]

		name := template[m[2]:m[3]]
		lookup := name
		if m[4] >= 0 {
			lookup = template[m[4]:m[5]]
		}
		fragment, ok := local[lookup]
		if !ok {
			fragment, ok = global[lookup]
		}
		if !ok {
			b.WriteString(template[m[0]:m[1]])
			cp.unresolved = append(cp.unresolved, template[m[0]:m[1]])
			continue
		}

		fragment = groupFragment(fragment)
		if _, seen := cp.groups[name]; !seen {
			cp.groups[name] = captures + 1
		}
		b.WriteString(fragment)
		captures += countGroups(fragment)
	}
	b.WriteString(template[last:])

	cp.expr = b.String()
	cp.re, cp.err = regexp.Compile("(?i)^" + cp.expr + "$")
	return cp
}

var parenthesizedRe = regexp.MustCompile(`^\(.*?\)$`)

func groupFragment(fragment string) string {
	if parenthesizedRe.MatchString(fragment) {
		return fragment
	}
	return "(" + fragment + ")"
}

// countGroups counts the capturing groups opened in a regular expression
// fragment.  Escaped parens, parens inside character classes and
// non-capturing groups are not counted; named groups are.
func countGroups(s string) int {
	n := 0
	inClass := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '(':
			if inClass {
				continue
			}
			if strings.HasPrefix(s[i:], "(?") {
				if strings.HasPrefix(s[i:], "(?P<") || strings.HasPrefix(s[i:], "(?<") {
					n++
				}
				continue
			}
			n++
		}
	}
	return n
}
