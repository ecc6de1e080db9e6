package workspace

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sidkik/p4workspace/pkg/errors"
)

// RuleType describes how a view line affects the mapping.
type RuleType int

const (
	// Include maps the left side onto the right side.
	Include RuleType = iota
	// Exclude removes the left side from the mapping (a `-` line).
	Exclude
	// Overlay maps the left side on top of earlier mappings (a `+` or `&`
	// line).
	Overlay
)

type token struct {
	literal  string
	wildcard string
}

// A pattern is one side of a view line, such as `//depot/main/...`.
type pattern struct {
	text   string
	tokens []token
	re     *regexp.Regexp
	keys   []string
}

type rule struct {
	kind     RuleType
	lhs, rhs pattern
}

// View is an ordered set of mapping rules between server paths and client
// paths. Later rules take precedence over earlier ones.
type View struct {
	rules []rule
}

// ParseView parses the lines of a client view. Each line has the form
// `[-+&]lhs rhs`, where either side may be double-quoted.
func ParseView(lines []string) (View, error) {
	var view View
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields, err := splitViewLine(line)
		if err != nil {
			return View{}, errors.NewConfigurationError(
				"view line %d (%q): %s", i+1, line, err)
		}
		if len(fields) != 2 {
			return View{}, errors.NewConfigurationError(
				"view line %d (%q): expected two paths, got %d", i+1, line, len(fields))
		}

		kind := Include
		lhsText := fields[0]
		switch {
		case strings.HasPrefix(lhsText, "-"):
			kind = Exclude
		case strings.HasPrefix(lhsText, "+"), strings.HasPrefix(lhsText, "&"):
			kind = Overlay
		}
		if kind != Include {
			lhsText = lhsText[1:]
		}

		lhs, err := compilePattern(lhsText)
		if err != nil {
			return View{}, errors.NewConfigurationError("view line %d: %s", i+1, err)
		}
		rhs, err := compilePattern(fields[1])
		if err != nil {
			return View{}, errors.NewConfigurationError("view line %d: %s", i+1, err)
		}

		if !sameWildcards(lhs, rhs) {
			return View{}, errors.NewConfigurationError(
				"view line %d (%q): wildcards on both sides must match", i+1, line)
		}
		view.rules = append(view.rules, rule{kind: kind, lhs: lhs, rhs: rhs})
	}
	return view, nil
}

// Translate maps `path` from the left side of the view to the right side.
// Matching is case-insensitive. The returned path takes its literal parts
// from the matching rule and its wildcard parts from `path`.
func (v View) Translate(path string) (string, bool) {
	for i := len(v.rules) - 1; i >= 0; i-- {
		r := v.rules[i]
		captures, ok := r.lhs.match(path)
		if !ok {
			continue
		}

		if r.kind == Exclude {
			return "", false
		}
		return r.rhs.expand(captures), true
	}
	return "", false
}

// Reverse returns the view that maps from the right side to the left side.
func (v View) Reverse() View {
	reversed := View{rules: make([]rule, len(v.rules))}
	for i, r := range v.rules {
		reversed.rules[i] = rule{kind: r.kind, lhs: r.rhs, rhs: r.lhs}
	}
	return reversed
}

// rightSides returns the text of the right side of every rule.
func (v View) rightSides() (sides []string) {
	for _, r := range v.rules {
		sides = append(sides, r.rhs.text)
	}
	return sides
}

func splitViewLine(line string) ([]string, error) {
	var fields []string
	var curr strings.Builder
	inQuotes := false
	inField := false
	for _, c := range line {
		switch {
		case c == '"':
			inQuotes = !inQuotes
			inField = true
		case (c == ' ' || c == '\t') && !inQuotes:
			if inField {
				fields = append(fields, curr.String())
				curr.Reset()
				inField = false
			}
		default:
			curr.WriteRune(c)
			inField = true
		}
	}

	if inQuotes {
		return nil, errors.New("unbalanced quotes")
	}
	if inField {
		fields = append(fields, curr.String())
	}
	return fields, nil
}

func compilePattern(text string) (pattern, error) {
	if !strings.HasPrefix(text, "//") {
		return pattern{}, errors.New("%q must start with //", text)
	}

	p := pattern{text: text}
	var literal strings.Builder
	var expr strings.Builder
	expr.WriteString("(?is)^")

	flushLiteral := func() {
		if literal.Len() == 0 {
			return
		}
		p.tokens = append(p.tokens, token{literal: literal.String()})
		expr.WriteString(regexp.QuoteMeta(literal.String()))
		literal.Reset()
	}
	addWildcard := func(key, re string) {
		flushLiteral()
		p.tokens = append(p.tokens, token{wildcard: key})
		p.keys = append(p.keys, key)
		expr.WriteString(re)
	}

	var ellipses, stars int
	for i := 0; i < len(text); {
		rest := text[i:]
		switch {
		case strings.HasPrefix(rest, "..."):
			ellipses++
			addWildcard("..."+strconv.Itoa(ellipses), "(.*)")
			i += 3
		case rest[0] == '*':
			stars++
			addWildcard("*"+strconv.Itoa(stars), "([^/]*)")
			i++
		case len(rest) > 2 && strings.HasPrefix(rest, "%%") && isDigit(rest[2]):
			addWildcard("%"+rest[2:3], "([^/]*)")
			i += 3
		default:
			literal.WriteByte(rest[0])
			i++
		}
	}
	flushLiteral()
	expr.WriteString("$")

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return pattern{}, errors.WithContext(err, "compile "+text)
	}
	p.re = re
	return p, nil
}

func (p pattern) match(path string) (map[string]string, bool) {
	submatches := p.re.FindStringSubmatch(path)
	if submatches == nil {
		return nil, false
	}

	captures := map[string]string{}
	for i, key := range p.keys {
		captures[key] = submatches[i+1]
	}
	return captures, true
}

func (p pattern) expand(captures map[string]string) string {
	var b strings.Builder
	for _, t := range p.tokens {
		if t.wildcard != "" {
			b.WriteString(captures[t.wildcard])
		} else {
			b.WriteString(t.literal)
		}
	}
	return b.String()
}

func sameWildcards(a, b pattern) bool {
	keys := map[string]int{}
	for _, key := range a.keys {
		keys[key]++
	}
	for _, key := range b.keys {
		keys[key]--
	}
	for _, count := range keys {
		if count != 0 {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
