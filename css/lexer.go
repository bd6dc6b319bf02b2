package css

import (
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// token is a single lexical token with the line it starts on.
type token struct {
	tt   css.TokenType
	data string
	line int
}

func (t token) isDelim(c byte) bool {
	return t.tt == css.DelimToken && len(t.data) == 1 && t.data[0] == c
}

func (t token) isIdent(name string) bool {
	return t.tt == css.IdentToken && strings.EqualFold(t.data, name)
}

func (t token) isSpace() bool {
	return t.tt == css.WhitespaceToken
}

// operatorReplacer maps unicode comparison operators onto their ASCII form so
// that the CSS tokenizer does not glue them to the surrounding identifiers.
var operatorReplacer = strings.NewReplacer("≠", "!=", "≤", "<=", "≥", ">=")

// normalizeOperators applies operatorReplacer to condition text only, that is
// inside [...] and condition(...). Quoted strings are left as written.
func normalizeOperators(text string) string {
	if !strings.ContainsAny(text, "≠≤≥") {
		return text
	}

	var (
		sb       strings.Builder
		quote    rune
		escaped  bool
		brackets int
		parens   int // depth within condition(...)
	)
	sb.Grow(len(text))
	for i, r := range text {
		switch {
		case quote != 0:
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == quote:
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '[':
			brackets++
		case r == ']' && brackets > 0:
			brackets--
		case r == '(' && parens > 0:
			parens++
		case r == '(' && hasFunctionName(text[:i], "condition"):
			parens = 1
		case r == ')' && parens > 0:
			parens--
		case brackets > 0 || parens > 0:
			if op := operatorReplacer.Replace(string(r)); op != string(r) {
				sb.WriteString(op)
				continue
			}
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// hasFunctionName reports whether prefix ends with the given identifier not
// preceded by another name character.
func hasFunctionName(prefix, name string) bool {
	n := len(prefix) - len(name)
	if n < 0 || !strings.EqualFold(prefix[n:], name) {
		return false
	}
	if n == 0 {
		return true
	}
	c := prefix[n-1]
	return !(c == '-' || c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80)
}

// tokenize splits stylesheet text into tokens. Comments (both /* */ and
// line comments starting with //) are dropped, whitespace is kept since the
// grammar needs it to separate descendant selector parts. A non-nil error
// means the input could not be tokenized at all and is reported as fatal.
func tokenize(text string) ([]token, error) {
	return lex(normalizeOperators(text))
}

// tokenizeCondition is tokenize for text known to be a bare condition.
func tokenizeCondition(text string) ([]token, error) {
	return lex(operatorReplacer.Replace(text))
}

func lex(text string) ([]token, error) {
	lexer := css.NewLexer(parse.NewInputString(text))

	var (
		tokens []token
		line   = 1
		err    error
	)
	for {
		tt, data := lexer.Next()
		if tt == css.ErrorToken {
			if e := lexer.Err(); e != nil && !errors.Is(e, io.EOF) {
				err = e
			}
			break
		}
		t := token{tt: tt, data: string(data), line: line}
		line += strings.Count(t.data, "\n")

		switch tt {
		case css.CommentToken:
			continue
		case css.BadStringToken, css.BadURLToken:
			if err == nil {
				err = &Diagnostic{Line: t.line, Kind: KindLexical, Message: "unterminated string or url", Text: strings.TrimSpace(t.data)}
			}
			continue
		}
		tokens = append(tokens, t)
	}
	return stripLineComments(tokens), err
}

// stripLineComments removes "// ..." sequences up to the end of line.
func stripLineComments(tokens []token) []token {
	out := tokens[:0]
	for i := 0; i < len(tokens); i++ {
		if tokens[i].isDelim('/') && i+1 < len(tokens) && tokens[i+1].isDelim('/') {
			for i < len(tokens) && !(tokens[i].isSpace() && strings.Contains(tokens[i].data, "\n")) {
				i++
			}
			if i < len(tokens) {
				out = append(out, tokens[i])
			}
			continue
		}
		out = append(out, tokens[i])
	}
	return out
}

// trimSpace removes leading and trailing whitespace tokens.
func trimSpace(tokens []token) []token {
	for len(tokens) > 0 && tokens[0].isSpace() {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1].isSpace() {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// withoutSpace returns tokens with all whitespace removed.
func withoutSpace(tokens []token) []token {
	out := make([]token, 0, len(tokens))
	for _, t := range tokens {
		if !t.isSpace() {
			out = append(out, t)
		}
	}
	return out
}

// text rebuilds source text from tokens collapsing whitespace runs.
func text(tokens []token) string {
	var sb strings.Builder
	for _, t := range trimSpace(tokens) {
		if t.isSpace() {
			sb.WriteByte(' ')
			continue
		}
		sb.WriteString(t.data)
	}
	return sb.String()
}

// nesting tracks parenthesis and bracket depth while scanning tokens.
func nesting(t token, depth int) int {
	switch t.tt {
	case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
		return depth + 1
	case css.RightParenthesisToken, css.RightBracketToken:
		if depth > 0 {
			return depth - 1
		}
	}
	return depth
}

// splitTopLevel splits tokens on delimiter tokens found outside of any
// parenthesis or bracket.
func splitTopLevel(tokens []token, isSep func(token) bool) [][]token {
	var (
		parts [][]token
		start int
		depth int
	)
	for i, t := range tokens {
		if depth == 0 && isSep(t) {
			parts = append(parts, tokens[start:i])
			start = i + 1
			continue
		}
		depth = nesting(t, depth)
	}
	return append(parts, tokens[start:])
}

func isComma(t token) bool {
	return t.tt == css.CommaToken
}
