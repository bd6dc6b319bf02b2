package css

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// maxVariableDepth limits nested variable substitution, deeper nesting is
// treated as a reference cycle.
const maxVariableDepth = 16

// Parser parses stylesheets into structured rules.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new stylesheet parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("parser")}
}

// parseState holds everything needed while a single text is parsed.
type parseState struct {
	log    *zap.Logger
	sheet  *Stylesheet
	tokens []token
	vars   map[string][]token
}

// Parse parses stylesheet text. It never fails as a whole: malformed rules
// and declarations are skipped and recorded in Stylesheet.Diagnostics.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{
		Rules:       make([]Rule, 0),
		Variables:   make(map[string]string),
		Diagnostics: make([]Diagnostic, 0),
	}
	if len(source) > 0 && source[0] != "" {
		sheet.Source = source[0]
		p.log.Debug("Parsing stylesheet", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	tokens, err := tokenize(string(data))
	st := &parseState{log: p.log, sheet: sheet, tokens: tokens, vars: make(map[string][]token)}
	if err != nil {
		var d *Diagnostic
		if !errors.As(err, &d) {
			d = &Diagnostic{Line: 1, Kind: KindLexical, Message: err.Error()}
		}
		st.report(*d)
		return sheet
	}

	st.collectVariables()
	st.parseTopLevel()
	st.resolveIncludes()

	for i := range sheet.Rules {
		sheet.Rules[i].Order = i
	}
	p.log.Debug("Parsed stylesheet",
		zap.Int("rules", len(sheet.Rules)),
		zap.Int("variables", len(sheet.Variables)),
		zap.Int("diagnostics", len(sheet.Diagnostics)))
	return sheet
}

func (st *parseState) report(d Diagnostic) {
	st.sheet.Diagnostics = append(st.sheet.Diagnostics, d)
	st.log.Debug("Skipping malformed construct",
		zap.Int("line", d.Line),
		zap.Stringer("kind", d.Kind),
		zap.String("reason", d.Message),
		zap.String("text", d.Text))
}

func (st *parseState) fail(kind DiagnosticKind, tokens []token, err error) {
	line := 0
	if t := trimSpace(tokens); len(t) > 0 {
		line = t[0].line
	} else if len(tokens) > 0 {
		line = tokens[0].line
	}
	st.report(Diagnostic{Line: line, Kind: kind, Message: err.Error(), Text: text(tokens)})
}

// scan looks for the end of the statement starting at from: the first ';',
// '{' or '}'. Unbalanced brackets do not hide terminators, so a broken
// selector or value never swallows following rules. It returns position and
// type of the terminator, ErrorToken when limit was reached first.
func (st *parseState) scan(from, limit int) (int, css.TokenType) {
	for i := from; i < limit; i++ {
		switch tt := st.tokens[i].tt; tt {
		case css.SemicolonToken, css.LeftBraceToken, css.RightBraceToken:
			return i, tt
		}
	}
	return limit, css.ErrorToken
}

// closingBrace returns position of the brace matching the one at open.
func (st *parseState) closingBrace(open int) int {
	depth := 0
	for i := open; i < len(st.tokens); i++ {
		switch st.tokens[i].tt {
		case css.LeftBraceToken:
			depth++
		case css.RightBraceToken:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func (st *parseState) skipSpace(pos, limit int) int {
	for pos < limit && st.tokens[pos].isSpace() {
		pos++
	}
	return pos
}

func (st *parseState) isVariableDef(pos int) bool {
	return pos+1 < len(st.tokens) && st.tokens[pos].isDelim('$') && st.tokens[pos+1].tt == css.IdentToken
}

// collectVariables is the pre-pass which records all top-level "$name: value;"
// definitions so rules may reference variables defined after them.
func (st *parseState) collectVariables() {
	depth := 0
	for pos := 0; pos < len(st.tokens); pos++ {
		switch t := st.tokens[pos]; {
		case t.tt == css.LeftBraceToken:
			depth++
		case t.tt == css.RightBraceToken:
			if depth > 0 {
				depth--
			}
		case depth == 0 && st.isVariableDef(pos):
			end, term := st.scan(pos, len(st.tokens))
			stmt := st.tokens[pos:end]
			if term == css.LeftBraceToken {
				// rule with a "$" selector, reported by the main pass
				continue
			}
			name, value, ok := splitDeclaration(stmt[1:])
			if !ok {
				st.fail(KindVariable, stmt, fmt.Errorf("malformed variable definition"))
			} else {
				st.vars[name] = value
				st.sheet.Variables[name] = text(value)
			}
			pos = end
		}
	}
}

func (st *parseState) parseTopLevel() {
	limit := len(st.tokens)
	for pos := st.skipSpace(0, limit); pos < limit; pos = st.skipSpace(pos, limit) {
		end, term := st.scan(pos, limit)
		switch {
		case term == css.LeftBraceToken:
			rules, next := st.parseRule(pos, end, nil)
			st.sheet.Rules = append(st.sheet.Rules, rules...)
			pos = next
		case st.isVariableDef(pos):
			// already collected
			pos = end + 1
		case term == css.RightBraceToken && end == pos:
			st.fail(KindParse, st.tokens[pos:pos+1], errors.New("unexpected '}'"))
			pos++
		default:
			if brace := st.lostBlockEnd(end, term, limit); brace >= 0 {
				st.fail(KindParse, st.tokens[pos:brace+1], errors.New("rule without '{'"))
				pos = brace + 1
				continue
			}
			st.fail(KindParse, st.tokens[pos:end], errors.New("declaration outside of a rule"))
			pos = end + 1
		}
	}
}

// lostBlockEnd checks whether statements following the one ending at end run
// into a '}' before any '{'. That is a rule body whose opening brace is
// missing and the position of its closing brace is returned, -1 otherwise.
func (st *parseState) lostBlockEnd(end int, term css.TokenType, limit int) int {
	for term == css.SemicolonToken {
		end, term = st.scan(end+1, limit)
	}
	if term != css.RightBraceToken {
		return -1
	}
	return end
}

// parseRule parses the rule whose header spans [start, brace) and returns
// produced rules, outer ones before nested ones, and the position after the
// closing brace. Nested rules are produced once per enclosing selector.
func (st *parseState) parseRule(start, brace int, parents []Selector) ([]Rule, int) {
	header := st.tokens[start:brace]
	closing := st.closingBrace(brace)
	if closing < 0 {
		// nothing after the brace can be trusted
		st.fail(KindParse, header, errors.New("unterminated block"))
		return nil, len(st.tokens)
	}
	next := closing + 1

	selectors, err := parseSelectorList(header)
	if err != nil {
		st.fail(KindParse, header, err)
		return nil, next
	}
	if len(parents) > 0 {
		selectors = nest(parents, selectors)
	}

	line := trimSpace(header)[0].line
	rules := make([]Rule, len(selectors))
	for i, sel := range selectors {
		rules[i] = Rule{Selector: sel, Line: line}
	}

	var nested []Rule
	for pos := st.skipSpace(brace+1, closing); pos < closing; pos = st.skipSpace(pos, closing) {
		end, term := st.scan(pos, closing)
		switch term {
		case css.LeftBraceToken:
			inner, after := st.parseRule(pos, end, selectors)
			nested = append(nested, inner...)
			pos = after
			continue
		case css.RightBraceToken:
			// stray brace inside of the block
			st.fail(KindParse, st.tokens[end:end+1], errors.New("unexpected '}'"))
			pos = end + 1
			continue
		}

		stmt := st.tokens[pos:end]
		pos = end + 1
		decl, includes, err := st.parseDeclaration(stmt)
		switch {
		case errors.Is(err, ErrUnresolvedVariable):
			st.fail(KindVariable, stmt, err)
		case err != nil:
			st.fail(KindParse, stmt, err)
		case includes != nil:
			for i := range rules {
				rules[i].includes = append(rules[i].includes, includes...)
			}
		default:
			for i := range rules {
				rules[i].set(decl)
			}
		}
	}

	out := make([]Rule, 0, len(rules)+len(nested))
	for _, r := range rules {
		if len(r.Declarations) > 0 || len(r.includes) > 0 {
			out = append(out, r)
		}
	}
	return append(out, nested...), next
}

func parseSelectorList(header []token) ([]Selector, error) {
	var selectors []Selector
	for _, part := range splitTopLevel(trimSpace(header), isComma) {
		sel, err := parseSelector(part)
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, sel)
	}
	return selectors, nil
}

// nest binds inner selectors to the scope of every enclosing selector.
// Enclosing conditions are combined with the inner condition.
func nest(parents, inner []Selector) []Selector {
	out := make([]Selector, 0, len(parents)*len(inner))
	for _, parent := range parents {
		for _, sel := range inner {
			if sel.Kind != ScopeMatch {
				sel.Kind = ScopeMatch
				sel.Scope = parent.scopeKey()
			}
			sel.Condition = parent.Condition.and(sel.Condition)
			sel.Raw = sel.String()
			out = append(out, sel)
		}
	}
	return out
}

// splitDeclaration splits "name: value" tokens.
func splitDeclaration(tokens []token) (string, []token, bool) {
	tokens = trimSpace(tokens)
	if len(tokens) == 0 || tokens[0].tt != css.IdentToken {
		return "", nil, false
	}
	name := tokens[0].data
	rest := trimSpace(tokens[1:])
	if len(rest) == 0 || rest[0].tt != css.ColonToken {
		return "", nil, false
	}
	return name, trimSpace(rest[1:]), true
}

// parseDeclaration parses "property: value" or the "include: A, B" directive,
// in which case names of included selectors are returned.
func (st *parseState) parseDeclaration(tokens []token) (Declaration, []string, error) {
	if t := trimSpace(tokens); len(t) > 0 && t[0].isDelim('$') {
		return Declaration{}, nil, errors.New("variables may only be defined at top level")
	}
	name, valueTokens, ok := splitDeclaration(tokens)
	if !ok {
		return Declaration{}, nil, fmt.Errorf("%w: expected 'property: value'", ErrMalformedValue)
	}
	if len(valueTokens) == 0 {
		return Declaration{}, nil, fmt.Errorf("%w: missing value for %q", ErrMalformedValue, name)
	}

	if strings.EqualFold(name, "include") {
		var includes []string
		for _, part := range splitTopLevel(valueTokens, isComma) {
			if s := unquote(text(part)); s != "" {
				includes = append(includes, s)
			}
		}
		return Declaration{}, includes, nil
	}

	substituted, err := st.substitute(valueTokens, 0)
	if err != nil {
		return Declaration{}, nil, err
	}
	pv, err := parsePropertyValue(substituted)
	if err != nil {
		return Declaration{}, nil, fmt.Errorf("property %q: %w", name, err)
	}
	pv.Raw = text(valueTokens)
	return Declaration{Property: PropertyKey(name), Value: pv, Line: valueTokens[0].line}, nil, nil
}

// substitute replaces "$name" references with variable tokens.
func (st *parseState) substitute(tokens []token, depth int) ([]token, error) {
	if depth > maxVariableDepth {
		return nil, fmt.Errorf("%w: reference cycle", ErrUnresolvedVariable)
	}
	out := make([]token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		if tokens[i].isDelim('$') && i+1 < len(tokens) && tokens[i+1].tt == css.IdentToken {
			name := tokens[i+1].data
			value, ok := st.vars[name]
			if !ok {
				return nil, fmt.Errorf("%w: $%s", ErrUnresolvedVariable, name)
			}
			sub, err := st.substitute(value, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			i++
			continue
		}
		out = append(out, tokens[i])
	}
	return out, nil
}

// resolveIncludes copies declarations of included rules into including ones
// unless already declared there. Includes are resolved transitively.
func (st *parseState) resolveIncludes() {
	rules := st.sheet.Rules
	bySelector := make(map[string][]int)
	for i := range rules {
		bySelector[rules[i].Selector.Raw] = append(bySelector[rules[i].Selector.Raw], i)
		if s := rules[i].Selector.String(); s != rules[i].Selector.Raw {
			bySelector[s] = append(bySelector[s], i)
		}
	}

	const (
		pending = iota
		visiting
		done
	)
	marks := make([]int, len(rules))

	var resolve func(i int)
	resolve = func(i int) {
		if marks[i] != pending {
			return
		}
		marks[i] = visiting
		for _, name := range rules[i].includes {
			targets, ok := bySelector[name]
			if !ok {
				st.report(Diagnostic{Line: rules[i].Line, Kind: KindInclude, Message: "included selector not found", Text: name})
				continue
			}
			for _, j := range targets {
				if marks[j] == visiting {
					st.report(Diagnostic{Line: rules[i].Line, Kind: KindInclude, Message: "include cycle", Text: name})
					continue
				}
				resolve(j)
				for _, d := range rules[j].Declarations {
					if _, exists := rules[i].Get(d.Property); !exists {
						rules[i].Declarations = append(rules[i].Declarations, d)
					}
				}
			}
		}
		rules[i].includes = nil
		marks[i] = done
	}
	for i := range rules {
		resolve(i)
	}
}
