package css

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrMalformedSelector  = errors.New("malformed selector")
	ErrMalformedCondition = errors.New("malformed condition")
	ErrMalformedValue     = errors.New("malformed value")
	ErrUnresolvedVariable = errors.New("unresolved variable")
)

// DiagnosticKind classifies problems found while parsing.
type DiagnosticKind int

const (
	KindParse    DiagnosticKind = iota // malformed rule, selector, condition or declaration
	KindVariable                       // unresolved or cyclic variable reference
	KindInclude                        // bad include directive
	KindLexical                        // input could not be tokenized, fatal for reload
)

func (k DiagnosticKind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindVariable:
		return "variable"
	case KindInclude:
		return "include"
	case KindLexical:
		return "lexical"
	default:
		return fmt.Sprintf("DiagnosticKind(%d)", int(k))
	}
}

// Diagnostic describes a single skipped construct.
type Diagnostic struct {
	Line    int
	Kind    DiagnosticKind
	Message string
	Text    string // offending source fragment
}

func (d *Diagnostic) Error() string {
	if d.Text == "" {
		return fmt.Sprintf("line %d: %s: %s", d.Line, d.Kind, d.Message)
	}
	return fmt.Sprintf("line %d: %s: %s (%s)", d.Line, d.Kind, d.Message, d.Text)
}

// Declaration is a single "property: value" pair of a rule.
type Declaration struct {
	Property string // normalized property key, see PropertyKey
	Value    PropertyValue
	Line     int
}

// Rule is one selector with its declarations. Rules are never changed after
// the stylesheet holding them was parsed.
type Rule struct {
	Selector     Selector
	Declarations []Declaration // insertion order, one entry per property
	Order        int           // position in the stylesheet, later rules win ties
	Line         int

	includes []string
}

// Get returns the value declared for property.
func (r *Rule) Get(property string) (PropertyValue, bool) {
	for _, d := range r.Declarations {
		if d.Property == property {
			return d.Value, true
		}
	}
	return PropertyValue{}, false
}

// set adds or replaces declaration keeping the position of the first one.
func (r *Rule) set(d Declaration) {
	for i := range r.Declarations {
		if r.Declarations[i].Property == d.Property {
			r.Declarations[i] = d
			return
		}
	}
	r.Declarations = append(r.Declarations, d)
}

// Stylesheet is an immutable parsed snapshot.
type Stylesheet struct {
	Source      string
	Rules       []Rule
	Variables   map[string]string // variable name (without $) -> value text
	Diagnostics []Diagnostic
}

// Fatal returns first diagnostic which prevents the stylesheet from being used.
func (s *Stylesheet) Fatal() *Diagnostic {
	for i := range s.Diagnostics {
		if s.Diagnostics[i].Kind == KindLexical {
			return &s.Diagnostics[i]
		}
	}
	return nil
}

// RulesBySelector returns all rules with the given selector text.
func (s *Stylesheet) RulesBySelector(selector string) []Rule {
	var matches []Rule
	for _, r := range s.Rules {
		if r.Selector.Raw == selector || r.Selector.String() == selector {
			matches = append(matches, r)
		}
	}
	return matches
}

// Variable returns text of the variable with the given name (with or without "$").
func (s *Stylesheet) Variable(name string) (string, bool) {
	v, ok := s.Variables[strings.TrimPrefix(name, "$")]
	return v, ok
}

// WriteTo writes the stylesheet to w in rule order, implementing io.WriterTo.
// Nested rules are written in their flattened descendant form.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i := range s.Rules {
		n, err := writeRule(w, &s.Rules[i])
		total += int64(n)
		if err != nil {
			return total, err
		}
		if i < len(s.Rules)-1 {
			n, err = fmt.Fprint(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// String returns the text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

func writeRule(w io.Writer, rule *Rule) (int, error) {
	var total int
	n, err := fmt.Fprintf(w, "%s {\n", rule.Selector.String())
	total += n
	if err != nil {
		return total, err
	}
	for _, d := range rule.Declarations {
		n, err = fmt.Fprintf(w, "  %s: %s;\n", d.Property, d.Value.String())
		total += n
		if err != nil {
			return total, err
		}
	}
	n, err = fmt.Fprint(w, "}\n")
	total += n
	return total, err
}
