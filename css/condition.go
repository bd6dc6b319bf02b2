package css

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2/css"

	"stylekit/common"
)

// Lhs names the environment fact an expression tests.
type Lhs int

const (
	LhsHorizontal Lhs = iota + 1 // horizontal size class
	LhsVertical                  // vertical size class
	LhsWidth
	LhsHeight
	LhsIdiom
)

var lhsNames = map[string]Lhs{
	"horizontal": LhsHorizontal,
	"vertical":   LhsVertical,
	"width":      LhsWidth,
	"height":     LhsHeight,
	"idiom":      LhsIdiom,
}

func (l Lhs) String() string {
	for n, v := range lhsNames {
		if v == l {
			return n
		}
	}
	return fmt.Sprintf("Lhs(%d)", int(l))
}

// numeric reports whether lhs is compared against numeric constants.
func (l Lhs) numeric() bool {
	return l == LhsWidth || l == LhsHeight
}

// Operator is a comparison operator.
type Operator int

const (
	OpEq Operator = iota + 1
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (o Operator) String() string {
	switch o {
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return fmt.Sprintf("Operator(%d)", int(o))
	}
}

// ordering reports operators which are meaningless for symbolic values.
func (o Operator) ordering() bool {
	return o != OpEq && o != OpNe
}

func (o Operator) compare(a, b float64) bool {
	switch o {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	}
	return false
}

// ExternalFunc is a caller supplied predicate referenced as "?name".
type ExternalFunc func(env common.Environment) bool

// Externals maps lower-cased external condition names to predicates.
type Externals map[string]ExternalFunc

// Expression is a single comparison of an environment fact with a constant.
type Expression struct {
	Tautology bool   // literal "default"
	External  string // "?name" expressions, lower-cased
	Lhs       Lhs
	Op        Operator
	SizeClass common.SizeClass // rhs for horizontal/vertical
	Idiom     common.Idiom     // rhs for idiom
	Number    float64          // rhs for width/height
}

// Evaluate checks the expression against env. It never fails: expressions
// are validated when parsed.
func (e Expression) Evaluate(env common.Environment, ext Externals) bool {
	switch {
	case e.Tautology:
		return true
	case e.External != "":
		fn, ok := ext[e.External]
		if !ok {
			// unregistered external conditions do not restrict anything
			return true
		}
		return fn(env)
	}

	switch e.Lhs {
	case LhsWidth:
		return e.Op.compare(env.Bounds.Width, e.Number)
	case LhsHeight:
		return e.Op.compare(env.Bounds.Height, e.Number)
	case LhsHorizontal:
		return e.Op.compare(float64(env.Horizontal), float64(e.SizeClass))
	case LhsVertical:
		return e.Op.compare(float64(env.Vertical), float64(e.SizeClass))
	case LhsIdiom:
		return e.Op.compare(float64(env.Idiom), float64(e.Idiom))
	}
	return false
}

func (e Expression) String() string {
	switch {
	case e.Tautology:
		return "default"
	case e.External != "":
		return "?" + e.External
	}
	var rhs string
	switch e.Lhs {
	case LhsWidth, LhsHeight:
		// no exponent, "1e+21" would not read back as a single token
		rhs = strconv.FormatFloat(e.Number, 'f', -1, 64)
	case LhsIdiom:
		rhs = e.Idiom.String()
	default:
		rhs = e.SizeClass.String()
	}
	return e.Lhs.String() + " " + e.Op.String() + " " + rhs
}

// Condition is a conjunction of expressions. An empty condition is true.
type Condition struct {
	Expressions []Expression
}

// Evaluate returns true when all expressions hold, stopping at the first
// one which does not.
func (c *Condition) Evaluate(env common.Environment, ext Externals) bool {
	if c == nil {
		return true
	}
	for _, e := range c.Expressions {
		if !e.Evaluate(env, ext) {
			return false
		}
	}
	return true
}

func (c *Condition) String() string {
	if c == nil {
		return ""
	}
	parts := make([]string, 0, len(c.Expressions))
	for _, e := range c.Expressions {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, " and ")
}

// and returns conjunction of both conditions, either may be nil.
func (c *Condition) and(other *Condition) *Condition {
	switch {
	case c == nil:
		return other
	case other == nil:
		return c
	}
	exprs := make([]Expression, 0, len(c.Expressions)+len(other.Expressions))
	exprs = append(exprs, c.Expressions...)
	exprs = append(exprs, other.Expressions...)
	return &Condition{Expressions: exprs}
}

// ParseCondition parses condition text such as "width > 300 and idiom == phone".
func ParseCondition(s string) (*Condition, error) {
	tokens, err := tokenizeCondition(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCondition, err)
	}
	return parseCondition(tokens)
}

func parseCondition(tokens []token) (*Condition, error) {
	tokens = trimSpace(tokens)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty condition", ErrMalformedCondition)
	}
	cond := &Condition{}
	for _, part := range splitTopLevel(tokens, func(t token) bool { return t.isIdent("and") }) {
		expr, err := parseExpression(withoutSpace(part))
		if err != nil {
			return nil, err
		}
		cond.Expressions = append(cond.Expressions, expr)
	}
	return cond, nil
}

func parseExpression(tokens []token) (Expression, error) {
	if len(tokens) == 0 {
		return Expression{}, fmt.Errorf("%w: empty expression", ErrMalformedCondition)
	}
	if len(tokens) == 1 && tokens[0].isIdent("default") {
		return Expression{Tautology: true}, nil
	}
	if tokens[0].isDelim('?') {
		if len(tokens) != 2 || tokens[1].tt != css.IdentToken {
			return Expression{}, fmt.Errorf("%w: bad external condition %q", ErrMalformedCondition, text(tokens))
		}
		return Expression{External: strings.ToLower(tokens[1].data)}, nil
	}

	if tokens[0].tt != css.IdentToken {
		return Expression{}, fmt.Errorf("%w: expected condition subject in %q", ErrMalformedCondition, text(tokens))
	}
	lhs, ok := lhsNames[strings.ToLower(tokens[0].data)]
	if !ok {
		return Expression{}, fmt.Errorf("%w: unknown condition subject %q", ErrMalformedCondition, tokens[0].data)
	}
	op, n, err := parseOperator(tokens[1:])
	if err != nil {
		return Expression{}, fmt.Errorf("%w in %q", err, text(tokens))
	}
	rest := tokens[1+n:]
	if len(rest) != 1 {
		return Expression{}, fmt.Errorf("%w: expected single value after operator in %q", ErrMalformedCondition, text(tokens))
	}

	expr := Expression{Lhs: lhs, Op: op}
	rhs := rest[0]
	if lhs.numeric() {
		num := rhs.data
		switch rhs.tt {
		case css.DimensionToken:
			var unit string
			if num, unit = splitNumber(rhs.data); unit != "" {
				if _, ok := parseUnit(unit); !ok {
					return Expression{}, fmt.Errorf("%w: unknown unit in %q", ErrMalformedCondition, rhs.data)
				}
			}
			fallthrough
		case css.NumberToken:
			if expr.Number, err = strconv.ParseFloat(num, 64); err != nil {
				return Expression{}, fmt.Errorf("%w: bad number %q", ErrMalformedCondition, rhs.data)
			}
			return expr, nil
		default:
			return Expression{}, fmt.Errorf("%w: %s must be compared with a number, got %q", ErrMalformedCondition, lhs, rhs.data)
		}
	}

	if op.ordering() {
		return Expression{}, fmt.Errorf("%w: operator %s cannot be used with %s", ErrMalformedCondition, op, lhs)
	}
	if rhs.tt != css.IdentToken {
		return Expression{}, fmt.Errorf("%w: %s must be compared with a name, got %q", ErrMalformedCondition, lhs, rhs.data)
	}
	if lhs == LhsIdiom {
		if expr.Idiom, err = common.ParseIdiom(rhs.data); err != nil {
			return Expression{}, fmt.Errorf("%w: %w", ErrMalformedCondition, err)
		}
		return expr, nil
	}
	if expr.SizeClass, err = common.ParseSizeClass(rhs.data); err != nil {
		return Expression{}, fmt.Errorf("%w: %w", ErrMalformedCondition, err)
	}
	return expr, nil
}

// parseOperator recognizes "=", "==", "!=", "<", "<=", ">", ">=" spelled as
// delimiter tokens and returns number of tokens consumed.
func parseOperator(tokens []token) (Operator, int, error) {
	if len(tokens) == 0 || tokens[0].tt != css.DelimToken {
		return 0, 0, fmt.Errorf("%w: missing operator", ErrMalformedCondition)
	}
	next := func(c byte) bool { return len(tokens) > 1 && tokens[1].isDelim(c) }

	switch tokens[0].data {
	case "=":
		if next('=') {
			return OpEq, 2, nil
		}
		return OpEq, 1, nil
	case "!":
		if next('=') {
			return OpNe, 2, nil
		}
	case "<":
		if next('=') {
			return OpLe, 2, nil
		}
		return OpLt, 1, nil
	case ">":
		if next('=') {
			return OpGe, 2, nil
		}
		return OpGt, 1, nil
	}
	return 0, 0, fmt.Errorf("%w: unknown operator %q", ErrMalformedCondition, tokens[0].data)
}
