package css

import (
	"fmt"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/image/colornames"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Value is a parsed, not yet resolved, right-hand side of a declaration.
type Value interface {
	String() string
	value()
}

// Unit of a dimension.
type Unit int

const (
	UnitNone Unit = iota // bare number
	UnitPx
	UnitPt
	UnitEm
)

func (u Unit) String() string {
	switch u {
	case UnitPx:
		return "px"
	case UnitPt:
		return "pt"
	case UnitEm:
		return "em"
	default:
		return ""
	}
}

func parseUnit(s string) (Unit, bool) {
	switch strings.ToLower(s) {
	case "":
		return UnitNone, true
	case "px":
		return UnitPx, true
	case "pt":
		return UnitPt, true
	case "em":
		return UnitEm, true
	}
	return UnitNone, false
}

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// Hex returns "#rrggbb" ignoring alpha.
func (c Color) Hex() string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
}

func (c Color) String() string {
	if c.A >= 1 {
		return c.Hex()
	}
	r, g, b := colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().RGB255()
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, strconv.FormatFloat(c.A, 'g', 3, 64))
}

// Dimension is a number with an optional unit.
type Dimension struct {
	Value float64
	Unit  Unit
}

func (d Dimension) String() string {
	return strconv.FormatFloat(d.Value, 'f', -1, 64) + d.Unit.String()
}

// Percentage keeps the literal number, 50% is stored as 50.
type Percentage struct {
	Value float64
}

func (p Percentage) String() string {
	return strconv.FormatFloat(p.Value, 'f', -1, 64) + "%"
}

// Fraction returns the percentage as a multiplier.
func (p Percentage) Fraction() float64 {
	return p.Value / 100
}

// KeywordSet is a comma separated list of identifiers as written. Whether the
// names are known is only checked when the value is resolved.
type KeywordSet struct {
	Names []string
}

func (k KeywordSet) String() string {
	return strings.Join(k.Names, ", ")
}

// Function is a call form such as rgba(...), font(...) or linear-gradient(...).
type Function struct {
	Name string
	Args []Value
}

func (f Function) String() string {
	args := make([]string, 0, len(f.Args))
	for _, a := range f.Args {
		args = append(args, a.String())
	}
	return f.Name + "(" + strings.Join(args, ", ") + ")"
}

// Text is a quoted string.
type Text struct {
	Value string
}

func (t Text) String() string {
	return strconv.Quote(t.Value)
}

// Bool is a literal true or false.
type Bool struct {
	Value bool
}

func (b Bool) String() string {
	return strconv.FormatBool(b.Value)
}

// ConditionValue is "condition(expr)", resolved by evaluating the condition.
type ConditionValue struct {
	Condition *Condition
}

func (c ConditionValue) String() string {
	return "condition(" + c.Condition.String() + ")"
}

// Opaque is any other token sequence, kept as text.
type Opaque struct {
	Raw string
}

func (o Opaque) String() string {
	return o.Raw
}

func (Color) value()          {}
func (Dimension) value()      {}
func (Percentage) value()     {}
func (KeywordSet) value()     {}
func (Function) value()       {}
func (Text) value()           {}
func (Bool) value()           {}
func (ConditionValue) value() {}
func (Opaque) value()         {}

// PropertyValue is a declared value. LayoutTime values (declared with
// !important) are not resolved until a layout basis is known.
type PropertyValue struct {
	Raw        string
	Value      Value
	LayoutTime bool
}

func (p PropertyValue) String() string {
	if p.LayoutTime {
		return p.Value.String() + " !important"
	}
	return p.Value.String()
}

// ParseValue parses a declaration value, "!important" suffix included.
func ParseValue(s string) (PropertyValue, error) {
	tokens, err := tokenize(s)
	if err != nil {
		return PropertyValue{}, fmt.Errorf("%w: %w", ErrMalformedValue, err)
	}
	return parsePropertyValue(tokens)
}

func parsePropertyValue(tokens []token) (PropertyValue, error) {
	tokens = trimSpace(tokens)
	pv := PropertyValue{Raw: text(tokens)}

	// strip trailing "!important", "! important" is the same thing
	if n := len(tokens); n >= 2 && tokens[n-1].isIdent("important") {
		if head := trimSpace(tokens[:n-1]); len(head) > 0 && head[len(head)-1].isDelim('!') {
			pv.LayoutTime = true
			tokens = trimSpace(head[:len(head)-1])
		}
	}

	v, err := parseValue(tokens)
	if err != nil {
		return PropertyValue{}, err
	}
	pv.Value = v
	return pv, nil
}

func parseValue(tokens []token) (Value, error) {
	tokens = trimSpace(tokens)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty value", ErrMalformedValue)
	}

	items := splitTopLevel(tokens, isComma)
	if len(items) > 1 {
		names := make([]string, 0, len(items))
		for _, item := range items {
			item = trimSpace(item)
			if len(item) != 1 || item[0].tt != css.IdentToken {
				return nil, fmt.Errorf("%w: only keywords may be listed, got %q", ErrMalformedValue, text(tokens))
			}
			names = append(names, item[0].data)
		}
		return KeywordSet{Names: names}, nil
	}

	if len(tokens) == 1 {
		return parseSingle(tokens[0])
	}

	if tokens[0].tt == css.FunctionToken && closingParen(tokens, 0) == len(tokens)-1 {
		return parseFunction(tokens)
	}
	return Opaque{Raw: text(tokens)}, nil
}

func parseSingle(t token) (Value, error) {
	switch t.tt {
	case css.HashToken:
		c, err := ParseHexColor(t.data)
		if err != nil {
			return nil, err
		}
		return c, nil
	case css.NumberToken:
		n, err := strconv.ParseFloat(t.data, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q", ErrMalformedValue, t.data)
		}
		return Dimension{Value: n}, nil
	case css.DimensionToken:
		num, unit := splitNumber(t.data)
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q", ErrMalformedValue, t.data)
		}
		u, ok := parseUnit(unit)
		if !ok {
			return nil, fmt.Errorf("%w: unknown unit %q", ErrMalformedValue, unit)
		}
		return Dimension{Value: n, Unit: u}, nil
	case css.PercentageToken:
		n, err := strconv.ParseFloat(strings.TrimSuffix(t.data, "%"), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad percentage %q", ErrMalformedValue, t.data)
		}
		return Percentage{Value: n}, nil
	case css.StringToken:
		return Text{Value: unquote(t.data)}, nil
	case css.IdentToken:
		name := strings.ToLower(t.data)
		switch name {
		case "true":
			return Bool{Value: true}, nil
		case "false":
			return Bool{Value: false}, nil
		}
		if c, ok := NamedColor(name); ok {
			return c, nil
		}
		return KeywordSet{Names: []string{t.data}}, nil
	}
	return Opaque{Raw: t.data}, nil
}

func parseFunction(tokens []token) (Value, error) {
	name := strings.ToLower(strings.TrimSuffix(tokens[0].data, "("))
	inner := trimSpace(tokens[1 : len(tokens)-1])

	if name == "condition" {
		cond, err := parseCondition(stripQuotes(inner))
		if err != nil {
			return nil, err
		}
		return ConditionValue{Condition: cond}, nil
	}

	fn := Function{Name: name}
	if len(inner) == 0 {
		return fn, nil
	}
	for _, arg := range splitTopLevel(inner, isComma) {
		v, err := parseValue(arg)
		if err != nil {
			return nil, fmt.Errorf("argument of %s(): %w", name, err)
		}
		fn.Args = append(fn.Args, v)
	}
	return fn, nil
}

// stripQuotes allows condition("width > 10") as well as condition(width > 10).
func stripQuotes(tokens []token) []token {
	if len(tokens) == 1 && tokens[0].tt == css.StringToken {
		if inner, err := tokenizeCondition(unquote(tokens[0].data)); err == nil {
			return inner
		}
	}
	return tokens
}

func closingParen(tokens []token, open int) int {
	depth := 0
	for i := open; i < len(tokens); i++ {
		switch tokens[i].tt {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// ParseHexColor parses #rgb, #rgba, #rrggbb and #rrggbbaa.
func ParseHexColor(s string) (Color, error) {
	h := strings.TrimPrefix(s, "#")
	alpha := 1.0
	switch len(h) {
	case 4, 8:
		n := len(h) / 4
		a, err := strconv.ParseUint(h[len(h)-n:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: bad color %q", ErrMalformedValue, s)
		}
		if n == 1 {
			alpha = float64(a) / 15
		} else {
			alpha = float64(a) / 255
		}
		h = h[:len(h)-n]
	case 3, 6:
	default:
		return Color{}, fmt.Errorf("%w: bad color %q", ErrMalformedValue, s)
	}
	c, err := colorful.Hex("#" + h)
	if err != nil {
		return Color{}, fmt.Errorf("%w: bad color %q: %w", ErrMalformedValue, s, err)
	}
	return Color{R: c.R, G: c.G, B: c.B, A: alpha}, nil
}

// NamedColor looks up CSS color keywords.
func NamedColor(name string) (Color, bool) {
	if strings.EqualFold(name, "transparent") {
		return Color{}, true
	}
	rgba, ok := colornames.Map[strings.ToLower(name)]
	if !ok {
		return Color{}, false
	}
	return Color{R: float64(rgba.R) / 255, G: float64(rgba.G) / 255, B: float64(rgba.B) / 255, A: float64(rgba.A) / 255}, true
}

// splitNumber splits a dimension token into number and unit. The number may
// carry an exponent, "2.5e1px" is 25 pixels while "1em" is one em.
func splitNumber(s string) (string, string) {
	isDigit := func(i int) bool { return i < len(s) && s[i] >= '0' && s[i] <= '9' }

	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	for isDigit(i) || (i < len(s) && s[i] == '.') {
		i++
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if isDigit(j) {
			for isDigit(j) {
				j++
			}
			i = j
		}
	}
	return s[:i], s[i:]
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// PropertyKey normalizes a declared property name: dashed names are
// camel-cased, so "background-color" and "backgroundColor" are one key.
func PropertyKey(name string) string {
	parts := strings.Split(strings.TrimSpace(name), "-")
	if len(parts) == 1 {
		return parts[0]
	}
	caser := cases.Title(language.Und, cases.NoLower)
	var sb strings.Builder
	sb.WriteString(strings.ToLower(parts[0]))
	for _, p := range parts[1:] {
		sb.WriteString(caser.String(p))
	}
	return sb.String()
}
