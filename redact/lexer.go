package redact

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind classifies a lexical token.
type Kind int

// Token kinds. Whitespace and comments never produce tokens.
const (
	EOF Kind = iota
	Ident
	Keyword
	QuotedIdent
	String
	Number
	Param
	Operator
	Punct
)

var kindNames = [...]string{
	EOF:         "EOF",
	Ident:       "IDENT",
	Keyword:     "KEYWORD",
	QuotedIdent: "QUOTED_IDENT",
	String:      "STRING",
	Number:      "NUMBER",
	Param:       "PARAM",
	Operator:    "OPERATOR",
	Punct:       "PUNCT",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Quote is the quoting style of a String token.
type Quote int

const (
	QuoteNone     Quote = iota
	QuoteStandard       // '...'
	QuoteEscape         // E'...'
	QuoteBit            // B'...'
	QuoteHex            // X'...'
	QuoteNational       // N'...'
	QuoteDollar         // $tag$...$tag$
)

// Token is one lexical token of a statement.
//
// Pos and End delimit the raw token text. Start and Stop delimit its
// content: the text between the quotes for strings and quoted
// identifiers, and the raw text for every other kind. Value is the
// decoded content; unquoted identifiers and keywords are folded to lower
// case.
type Token struct {
	Kind  Kind
	Quote Quote
	Pos   int
	End   int
	Start int
	Stop  int
	Value string
}

func (t Token) is(text string) bool {
	return (t.Kind == Punct || t.Kind == Operator) && t.Value == text
}

// word is the lookback form of a token: the folded value for identifiers
// and keywords, and the raw text for punctuation and operators.
func (t Token) word() string {
	switch t.Kind {
	case Ident, Keyword, Punct, Operator:
		return t.Value
	}
	return ""
}

// LexError reports text the lexer cannot read.
type LexError struct {
	Pos int
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("redact: %s at offset %d", e.Msg, e.Pos)
}

const (
	punctChars    = "(),;[].:"
	operatorChars = "+-*/<>=~!@#%^&|`?"
)

// Lexer splits SQL text into tokens using the lexical rules of the
// statement parser. It is pull based: each call to Next returns the
// following token.
type Lexer struct {
	src string
	pos int
}

// NewLexer returns a Lexer positioned at the start of src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

// Next returns the next token. At the end of the input it returns a
// token of kind EOF and keeps doing so.
func (l *Lexer) Next() (Token, error) {
	if err := l.skip(); err != nil {
		return Token{}, err
	}
	start := l.pos
	if start >= len(l.src) {
		return Token{Kind: EOF, Pos: start, End: start, Start: start, Stop: start}, nil
	}

	c := l.src[start]
	switch {
	case c == '\'':
		return l.quoted(start, start, QuoteStandard)
	case c == '"':
		return l.quotedIdent(start)
	case c == '$':
		if start+1 < len(l.src) && isDigit(l.src[start+1]) {
			return l.param(start), nil
		}
		if tok, ok, err := l.dollar(start); ok || err != nil {
			return tok, err
		}
		l.pos++
		return l.plain(Operator, start), nil
	case isDigit(c) || (c == '.' && start+1 < len(l.src) && isDigit(l.src[start+1])):
		return l.number(start), nil
	case isIdentStart(c):
		if start+1 < len(l.src) && l.src[start+1] == '\'' {
			if style := prefixQuote(c); style != QuoteNone {
				return l.quoted(start, start+1, style)
			}
		}
		return l.ident(start), nil
	case strings.IndexByte(punctChars, c) >= 0:
		l.pos++
		return l.plain(Punct, start), nil
	case strings.IndexByte(operatorChars, c) >= 0:
		return l.operator(start), nil
	}

	_, size := utf8.DecodeRuneInString(l.src[start:])
	l.pos += size
	return l.plain(Operator, start), nil
}

func (l *Lexer) plain(kind Kind, start int) Token {
	return Token{
		Kind:  kind,
		Pos:   start,
		End:   l.pos,
		Start: start,
		Stop:  l.pos,
		Value: l.src[start:l.pos],
	}
}

func (l *Lexer) skip() error {
	for l.pos < len(l.src) {
		rest := l.src[l.pos:]
		switch {
		case isSpace(rest[0]):
			l.pos++
		case strings.HasPrefix(rest, "--"):
			if i := strings.IndexByte(rest, '\n'); i >= 0 {
				l.pos += i + 1
			} else {
				l.pos = len(l.src)
			}
		case strings.HasPrefix(rest, "/*"):
			if err := l.blockComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

// Block comments nest.
func (l *Lexer) blockComment() error {
	start := l.pos
	depth := 0
	for l.pos < len(l.src) {
		rest := l.src[l.pos:]
		switch {
		case strings.HasPrefix(rest, "/*"):
			depth++
			l.pos += 2
		case strings.HasPrefix(rest, "*/"):
			depth--
			l.pos += 2
			if depth == 0 {
				return nil
			}
		default:
			l.pos++
		}
	}
	return &LexError{Pos: start, Msg: "unterminated /* comment"}
}

// quoted reads a single-quoted string literal whose opening quote is at
// open; pos is where the token starts, before any prefix letter.
func (l *Lexer) quoted(pos, open int, style Quote) (Token, error) {
	var b strings.Builder
	i := open + 1
	for i < len(l.src) {
		c := l.src[i]
		switch {
		case c == '\'':
			if i+1 < len(l.src) && l.src[i+1] == '\'' {
				b.WriteByte('\'')
				i += 2
				continue
			}
			l.pos = i + 1
			return Token{
				Kind:  String,
				Quote: style,
				Pos:   pos,
				End:   l.pos,
				Start: open + 1,
				Stop:  i,
				Value: b.String(),
			}, nil
		case c == '\\' && style == QuoteEscape:
			n := decodeEscape(l.src[i+1:], &b)
			if n == 0 {
				i = len(l.src)
				continue
			}
			i += 1 + n
		default:
			b.WriteByte(c)
			i++
		}
	}
	return Token{}, &LexError{Pos: pos, Msg: "unterminated quoted string"}
}

// decodeEscape decodes the backslash escape at the start of rest into b
// and reports how many bytes of rest it consumed.
func decodeEscape(rest string, b *strings.Builder) int {
	if rest == "" {
		return 0
	}
	switch rest[0] {
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case '0', '1', '2', '3', '4', '5', '6', '7':
		n := 1
		for n < 3 && n < len(rest) && rest[n] >= '0' && rest[n] <= '7' {
			n++
		}
		v, _ := strconv.ParseUint(rest[:n], 8, 8)
		b.WriteByte(byte(v))
		return n
	case 'x':
		n := 1
		for n < 3 && n < len(rest) && isHex(rest[n]) {
			n++
		}
		if n == 1 {
			b.WriteByte('x')
			return 1
		}
		v, _ := strconv.ParseUint(rest[1:n], 16, 8)
		b.WriteByte(byte(v))
		return n
	case 'u', 'U':
		digits := 4
		if rest[0] == 'U' {
			digits = 8
		}
		if len(rest) > digits {
			if v, err := strconv.ParseUint(rest[1:1+digits], 16, 32); err == nil {
				b.WriteRune(rune(v))
				return 1 + digits
			}
		}
		b.WriteByte(rest[0])
	default:
		_, size := utf8.DecodeRuneInString(rest)
		b.WriteString(rest[:size])
		return size
	}
	return 1
}

func (l *Lexer) quotedIdent(pos int) (Token, error) {
	var b strings.Builder
	for i := pos + 1; i < len(l.src); i++ {
		c := l.src[i]
		if c != '"' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(l.src) && l.src[i+1] == '"' {
			b.WriteByte('"')
			i++
			continue
		}
		l.pos = i + 1
		return Token{
			Kind:  QuotedIdent,
			Pos:   pos,
			End:   l.pos,
			Start: pos + 1,
			Stop:  i,
			Value: b.String(),
		}, nil
	}
	return Token{}, &LexError{Pos: pos, Msg: "unterminated quoted identifier"}
}

// dollar reads a $tag$...$tag$ string. It reports false when the text at
// pos does not open one.
func (l *Lexer) dollar(pos int) (Token, bool, error) {
	j := pos + 1
	for j < len(l.src) && l.src[j] != '$' && isIdentCont(l.src[j]) {
		j++
	}
	if j >= len(l.src) || l.src[j] != '$' {
		return Token{}, false, nil
	}
	tag := l.src[pos : j+1]
	body := j + 1
	end := strings.Index(l.src[body:], tag)
	if end < 0 {
		return Token{}, true, &LexError{Pos: pos, Msg: "unterminated dollar-quoted string"}
	}
	stop := body + end
	l.pos = stop + len(tag)
	return Token{
		Kind:  String,
		Quote: QuoteDollar,
		Pos:   pos,
		End:   l.pos,
		Start: body,
		Stop:  stop,
		Value: l.src[body:stop],
	}, true, nil
}

func (l *Lexer) param(pos int) Token {
	l.pos = pos + 1
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	return l.plain(Param, pos)
}

func (l *Lexer) number(pos int) Token {
	l.pos = pos
	l.digits()
	if l.pos < len(l.src) && l.src[l.pos] == '.' && !strings.HasPrefix(l.src[l.pos:], "..") {
		l.pos++
		l.digits()
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		i := l.pos + 1
		if i < len(l.src) && (l.src[i] == '+' || l.src[i] == '-') {
			i++
		}
		if i < len(l.src) && isDigit(l.src[i]) {
			l.pos = i
			l.digits()
		}
	}
	return l.plain(Number, pos)
}

func (l *Lexer) digits() {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
}

func (l *Lexer) ident(pos int) Token {
	l.pos = pos + 1
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	tok := l.plain(Ident, pos)
	tok.Value = strings.ToLower(tok.Value)
	if keywords[tok.Value] {
		tok.Kind = Keyword
	}
	return tok
}

// An operator ends where a comment begins.
func (l *Lexer) operator(pos int) Token {
	l.pos = pos + 1
	for l.pos < len(l.src) && strings.IndexByte(operatorChars, l.src[l.pos]) >= 0 {
		rest := l.src[l.pos:]
		if strings.HasPrefix(rest, "--") || strings.HasPrefix(rest, "/*") {
			break
		}
		l.pos++
	}
	return l.plain(Operator, pos)
}

func prefixQuote(c byte) Quote {
	switch c {
	case 'e', 'E':
		return QuoteEscape
	case 'b', 'B':
		return QuoteBit
	case 'x', 'X':
		return QuoteHex
	case 'n', 'N':
		return QuoteNational
	}
	return QuoteNone
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '$'
}

var keywords = map[string]bool{
	"add": true, "all": true, "alter": true, "and": true, "as": true,
	"authorization": true, "begin": true, "by": true, "call": true,
	"connect": true, "create": true, "data": true, "database": true,
	"declare": true, "delete": true, "disable": true, "do": true,
	"drop": true, "else": true, "encrypted": true, "end": true,
	"execute": true, "foreign": true, "from": true, "function": true,
	"grant": true, "group": true, "identified": true, "if": true,
	"immediate": true, "in": true, "insert": true, "into": true,
	"is": true, "language": true, "link": true, "local": true,
	"login": true, "mapping": true, "not": true, "null": true,
	"options": true, "or": true, "password": true, "procedure": true,
	"replace": true, "returns": true, "revoke": true, "role": true,
	"select": true, "server": true, "session": true, "set": true,
	"source": true, "sysid": true, "table": true, "then": true,
	"to": true, "unencrypted": true, "until": true, "update": true,
	"user": true, "using": true, "valid": true, "values": true,
	"where": true, "with": true,
}
