package css

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// SelectorKind tells how a selector is matched against an element.
type SelectorKind int

const (
	TypeMatch  SelectorKind = iota // element type (optionally with a trait)
	TraitMatch                     // any element carrying the trait
	ScopeMatch                     // element inside the named scope
)

func (k SelectorKind) String() string {
	switch k {
	case TypeMatch:
		return "type"
	case TraitMatch:
		return "trait"
	case ScopeMatch:
		return "scope"
	default:
		return fmt.Sprintf("SelectorKind(%d)", int(k))
	}
}

// Kind weights dominate the +1 bonuses, so a trait selector always outranks
// a type selector and a scoped selector outranks both.
const (
	weightType  = 10
	weightTrait = 20
	weightScope = 30
)

// Selector is a parsed match target. Forms:
//
//	Type                      exact type
//	Type*                     type and its subclasses
//	Type:trait                type carrying trait
//	.trait                    anything carrying trait
//	@scope                    anything inside scope
//	scope Type:trait          Type:trait inside scope (also produced by nesting)
//
// Any form may carry a "[condition]" right before the optional "*".
type Selector struct {
	Raw                 string
	Kind                SelectorKind
	Type                string
	Trait               string
	Scope               string
	AppliesToSubclasses bool
	Condition           *Condition
}

// Priority is the specificity rank of the selector.
func (s Selector) Priority() int {
	var p int
	switch s.Kind {
	case TraitMatch:
		p = weightTrait
	case ScopeMatch:
		p = weightScope
	default:
		p = weightType
	}
	if s.Trait != "" {
		p++
	}
	if s.Condition != nil {
		p++
	}
	if !s.AppliesToSubclasses {
		p++
	}
	return p
}

// ComparePriority orders selectors by priority only.
func ComparePriority(a, b Selector) int {
	return cmp.Compare(a.Priority(), b.Priority())
}

// CompareRules is the total cascade order: priority first, then source
// order, so of two equal selectors the later declared one sorts last and wins.
func CompareRules(a, b *Rule) int {
	if c := ComparePriority(a.Selector, b.Selector); c != 0 {
		return c
	}
	return cmp.Compare(a.Order, b.Order)
}

// scopeKey is the scope name rules nested inside this selector are bound to.
func (s Selector) scopeKey() string {
	switch {
	case s.Type != "":
		return s.Type
	case s.Trait != "":
		return s.Trait
	default:
		return s.Scope
	}
}

// String serializes structural fields of the selector. Parsing the result
// yields a selector with the same fields.
func (s Selector) String() string {
	var sb strings.Builder
	switch {
	case s.Kind == ScopeMatch && s.Type == "" && s.Trait == "":
		sb.WriteString("@" + s.Scope)
	case s.Kind == ScopeMatch:
		sb.WriteString(s.Scope + " ")
	}
	switch {
	case s.Type != "":
		sb.WriteString(s.Type)
		if s.Trait != "" {
			sb.WriteString(":" + s.Trait)
		}
	case s.Trait != "":
		sb.WriteString("." + s.Trait)
	}
	if s.Condition != nil {
		sb.WriteString("[" + s.Condition.String() + "]")
	}
	if s.AppliesToSubclasses {
		sb.WriteString("*")
	}
	return sb.String()
}

// ParseSelector parses a single selector.
func ParseSelector(s string) (Selector, error) {
	tokens, err := tokenize(s)
	if err != nil {
		return Selector{}, fmt.Errorf("%w: %w", ErrMalformedSelector, err)
	}
	return parseSelector(tokens)
}

func parseSelector(tokens []token) (Selector, error) {
	tokens = compact(trimSpace(tokens))
	raw := text(tokens)
	if len(tokens) == 0 {
		return Selector{}, fmt.Errorf("%w: empty selector", ErrMalformedSelector)
	}

	sel := Selector{Raw: raw}

	// optional "scope " prefix of the descendant form
	if i := indexSpace(tokens); i >= 0 {
		scope, n, ok := parseName(tokens[:i])
		if !ok || n != i {
			return Selector{}, fmt.Errorf("%w: bad scope in %q", ErrMalformedSelector, raw)
		}
		sel.Kind = ScopeMatch
		sel.Scope = scope
		tokens = trimSpace(tokens[i:])
		if indexSpace(tokens) >= 0 {
			return Selector{}, fmt.Errorf("%w: only one scope level is allowed in %q", ErrMalformedSelector, raw)
		}
	}

	pos := 0
	switch t := tokens[0]; {
	case t.tt == css.IdentToken:
		sel.Type = t.data
		pos = 1
		if pos+1 < len(tokens) && tokens[pos].tt == css.ColonToken && tokens[pos+1].tt == css.IdentToken {
			sel.Trait = tokens[pos+1].data
			pos += 2
		}
	case t.isDelim('.'):
		if len(tokens) < 2 || tokens[1].tt != css.IdentToken {
			return Selector{}, fmt.Errorf("%w: trait name expected in %q", ErrMalformedSelector, raw)
		}
		sel.Trait = tokens[1].data
		pos = 2
		if sel.Kind != ScopeMatch {
			sel.Kind = TraitMatch
		}
	case t.tt == css.AtKeywordToken:
		if sel.Kind == ScopeMatch {
			return Selector{}, fmt.Errorf("%w: nested scope in %q", ErrMalformedSelector, raw)
		}
		sel.Kind = ScopeMatch
		sel.Scope = strings.TrimPrefix(t.data, "@")
		pos = 1
	default:
		return Selector{}, fmt.Errorf("%w: unexpected %q", ErrMalformedSelector, t.data)
	}

	if pos < len(tokens) && tokens[pos].tt == css.ColonToken {
		return Selector{}, fmt.Errorf("%w: only type selectors may carry a trait: %q", ErrMalformedSelector, raw)
	}

	if pos < len(tokens) && tokens[pos].tt == css.LeftBracketToken {
		end := closingBracket(tokens, pos)
		if end < 0 {
			return Selector{}, fmt.Errorf("%w: unterminated condition in %q", ErrMalformedSelector, raw)
		}
		cond, err := parseCondition(tokens[pos+1 : end])
		if err != nil {
			return Selector{}, err
		}
		sel.Condition = cond
		pos = end + 1
	}

	if pos < len(tokens) && tokens[pos].isDelim('*') {
		if sel.Type == "" {
			return Selector{}, fmt.Errorf("%w: only type selectors may apply to subclasses: %q", ErrMalformedSelector, raw)
		}
		sel.AppliesToSubclasses = true
		pos++
	}

	if pos != len(tokens) {
		return Selector{}, fmt.Errorf("%w: unexpected %q in %q", ErrMalformedSelector, tokens[pos].data, raw)
	}
	return sel, nil
}

// compact drops whitespace which does not separate a scope from the
// selector it applies to, e.g. around ':' and before '[' or '*'.
func compact(tokens []token) []token {
	out := make([]token, 0, len(tokens))
	depth := 0
	for i, t := range tokens {
		if t.isSpace() && (depth > 0 || (i > 0 && tokens[i-1].tt == css.ColonToken) ||
			(i+1 < len(tokens) && (tokens[i+1].tt == css.ColonToken || tokens[i+1].tt == css.LeftBracketToken || tokens[i+1].isDelim('*')))) {
			if depth > 0 {
				out = append(out, t)
			}
			continue
		}
		depth = nesting(t, depth)
		out = append(out, t)
	}
	return out
}

// parseName reads scope head: ident, .trait or @scope.
func parseName(tokens []token) (string, int, bool) {
	switch {
	case len(tokens) >= 1 && tokens[0].tt == css.IdentToken:
		return tokens[0].data, 1, true
	case len(tokens) >= 1 && tokens[0].tt == css.AtKeywordToken:
		return strings.TrimPrefix(tokens[0].data, "@"), 1, true
	case len(tokens) >= 2 && tokens[0].isDelim('.') && tokens[1].tt == css.IdentToken:
		return tokens[1].data, 2, true
	}
	return "", 0, false
}

// indexSpace returns index of the first whitespace token outside of brackets.
func indexSpace(tokens []token) int {
	depth := 0
	for i, t := range tokens {
		if depth == 0 && t.isSpace() {
			return i
		}
		depth = nesting(t, depth)
	}
	return -1
}

func closingBracket(tokens []token, open int) int {
	depth := 0
	for i := open; i < len(tokens); i++ {
		switch tokens[i].tt {
		case css.LeftBracketToken:
			depth++
		case css.RightBracketToken:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
