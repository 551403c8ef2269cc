package redact

import (
	"fmt"
	"strings"
)

// DefaultMinLength is the mask width used when a Masker has none.
const DefaultMinLength = 8

const (
	// maxDepth bounds how deeply statements embedded in string literals
	// are scanned.
	maxDepth = 8

	maxPending = 16
	lookback   = 4
)

// Masker replaces passwords, keys and similar secrets found in SQL text
// with asterisks.
type Masker struct {
	// MinLength is the number of asterisks written over a password,
	// whatever its real length.
	MinLength int
}

// Mask is shorthand for Masker{MinLength: minLen}.Mask(query).
func Mask(query string, minLen int) (string, bool) {
	return Masker{MinLength: minLen}.Mask(query)
}

// Mask returns the masked form of query and whether it differs from
// query. Text the scanner cannot read yields ("", false).
func (m Masker) Mask(query string) (string, bool) {
	masked, changed, err := m.Scan(query)
	if err != nil {
		return "", false
	}
	return masked, changed
}

// Scan is Mask with the failure reported. query itself is returned when
// nothing needs masking.
func (m Masker) Scan(query string) (masked string, changed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			masked, changed, err = "", false, fmt.Errorf("redact: scanner failed: %v", r)
		}
	}()
	return m.scan(query, 0)
}

func (m Masker) width() int {
	if m.MinLength <= 0 {
		return DefaultMinLength
	}
	return m.MinLength
}

func (m Masker) scan(query string, depth int) (string, bool, error) {
	s := &scanner{
		m:     m,
		src:   query,
		lex:   NewLexer(query),
		width: m.width(),
		depth: depth,
	}
	if err := s.run(); err != nil {
		return "", false, err
	}
	if s.out == nil {
		return query, false, nil
	}
	out := string(s.out)
	return out, out != query, nil
}

// shape is the kind of statement or call being scanned.
type shape int

const (
	shapeNone shape = iota
	shapeCreateRole
	shapeCreateUser
	shapeAlterRole
	shapeAlterUser
	shapeGroup
	shapeSetSession
	shapeDatabaseLink
	shapeCreateFunction
	shapeServerOptions
	shapeDataSourceOptions
	shapeFunctionCall
	shapeCryptCall
	shapeChildCall
)

func (s shape) carriesPassword() bool {
	switch s {
	case shapeCreateRole, shapeCreateUser, shapeAlterRole, shapeAlterUser,
		shapeGroup, shapeSetSession, shapeDatabaseLink:
		return true
	}
	return false
}

func (s shape) isCall() bool {
	return s == shapeFunctionCall || s == shapeCryptCall || s == shapeChildCall
}

func callShape(name string) shape {
	switch name {
	case "dblink_connect":
		return shapeFunctionCall
	case "gs_encrypt_aes128", "gs_decrypt_aes128":
		return shapeCryptCall
	case "exec_on_extension", "exec_hadoop_sql":
		return shapeChildCall
	}
	return shapeNone
}

type optionsScope int

const (
	optionsNone optionsScope = iota
	optionsPending
	optionsOpen
)

type secretKind int

const (
	secretNone secretKind = iota
	secretFixed
	secretSameLength
)

type childTrigger int

const (
	childNone childTrigger = iota
	// childNext takes the next token if it is a string literal.
	childNext
	// childAny takes the next string literal of the statement.
	childAny
)

// span is a region of the original text to overwrite with width
// asterisks.
type span struct {
	pos   int
	n     int
	width int
}

type scanner struct {
	m     Masker
	src   string
	lex   *Lexer
	width int
	depth int

	prev    [lookback]Token
	shape   shape
	outer   shape
	options optionsScope
	parens  int
	args    int
	open    int
	secret  secretKind
	child   childTrigger
	skip    int

	pending [maxPending]span
	n       int
	mark    int
	delta   int
	out     []byte
}

func (s *scanner) run() error {
	for {
		tok, err := s.lex.Next()
		if err != nil {
			return err
		}
		if tok.Kind == EOF {
			s.flush()
			return nil
		}
		if tok.Pos < s.skip {
			continue
		}
		s.step(tok)
		copy(s.prev[1:], s.prev[:lookback-1])
		s.prev[0] = tok
	}
}

func (s *scanner) step(t Token) {
	if s.child != childNone {
		if t.Kind == String {
			s.child = childNone
			s.splice(t)
			return
		}
		if s.child == childNext || t.is(";") {
			s.child = childNone
		}
	}
	if s.secret != secretNone && s.takeSecret(t) {
		return
	}

	switch {
	case t.is(";"):
		s.flush()
		s.reset()
		return
	case t.is("("):
		s.openParen(t)
		return
	case t.is(")"):
		s.closeParen(t)
		return
	case t.is(","):
		if s.shape == shapeChildCall && s.parens == 1 {
			s.args++
		}
		return
	}

	switch s.shape {
	case shapeFunctionCall:
		if t.Kind == String {
			s.queue(span{pos: t.Start, n: t.Stop - t.Start, width: t.Stop - t.Start})
		}
		return
	case shapeCryptCall:
		return
	case shapeChildCall:
		if t.Kind == String && s.parens == 1 && s.args == 1 {
			s.splice(t)
		}
		return
	}

	if t.Kind == Keyword || t.Kind == Ident {
		s.keyword(t)
	}
}

func (s *scanner) keyword(t Token) {
	p0, p1, p2 := s.prev[0].word(), s.prev[1].word(), s.prev[2].word()
	createOrAlter := p0 == "create" || p0 == "alter"

	switch t.Value {
	case "role", "session":
		if s.shape != shapeNone {
			return
		}
		switch {
		case p0 == "set" || (p1 == "set" && (p0 == "local" || p0 == "session")):
			s.shape = shapeSetSession
		case t.Value == "role" && p0 == "create":
			s.shape = shapeCreateRole
		case t.Value == "role" && p0 == "alter":
			s.shape = shapeAlterRole
		}
	case "user":
		if s.shape != shapeNone {
			return
		}
		switch p0 {
		case "create":
			s.shape = shapeCreateUser
		case "alter":
			s.shape = shapeAlterUser
		}
	case "group":
		if s.shape == shapeNone && createOrAlter {
			s.shape = shapeGroup
		}
	case "link":
		if s.shape == shapeNone && p0 == "database" && p1 == "create" {
			s.shape = shapeDatabaseLink
		}
	case "server":
		if s.shape == shapeNone && createOrAlter {
			s.shape = shapeServerOptions
		}
	case "table":
		if s.shape == shapeNone && p0 == "foreign" && (p1 == "create" || p1 == "alter") {
			s.shape = shapeServerOptions
		}
	case "source":
		if s.shape == shapeNone && p0 == "data" && (p1 == "create" || p1 == "alter") {
			s.shape = shapeDataSourceOptions
		}
	case "function", "procedure":
		if s.shape == shapeNone && (p0 == "create" || (p0 == "replace" && p1 == "or" && p2 == "create")) {
			s.shape = shapeCreateFunction
		}
	case "as", "is":
		if s.shape == shapeCreateFunction {
			s.child = childNext
		}
	case "do":
		if s.prev[0].Kind == EOF || s.prev[0].is(";") {
			s.child = childAny
		}
	case "immediate":
		if p0 == "execute" {
			s.child = childNext
		}
	case "options":
		if s.shape != shapeNone && s.shape != shapeCreateFunction && s.options == optionsNone {
			s.options = optionsPending
		}
	case "password":
		if s.shape.carriesPassword() || s.options == optionsOpen {
			s.secret = secretFixed
		}
	case "by":
		if p0 == "identified" && s.shape != shapeNone {
			s.secret = secretFixed
		}
	case "replace":
		if s.shape == shapeAlterRole || s.shape == shapeAlterUser {
			s.secret = secretFixed
		}
	case "secret_access_key":
		if s.options == optionsOpen && s.shape == shapeServerOptions {
			s.secret = secretSameLength
		}
	case "username":
		if s.options == optionsOpen && s.shape == shapeDataSourceOptions {
			s.secret = secretSameLength
		}
	}
}

// takeSecret consumes t as the secret following a trigger word.
// Punctuation between the two is passed over; ';' and ')' cancel.
func (s *scanner) takeSecret(t Token) bool {
	switch {
	case t.is(";"), t.is(")"):
		s.secret = secretNone
		return false
	case t.Kind == Punct, t.is("="):
		return true
	}

	kind := s.secret
	s.secret = secretNone

	sp := span{pos: t.Start, n: t.Stop - t.Start}
	if t.Kind != String && t.Kind != QuotedIdent {
		start, end := s.widen(t)
		sp = span{pos: start, n: end - start}
		s.skip = end
	}
	sp.width = s.width
	if kind == secretSameLength {
		sp.width = sp.n
	}
	s.queue(sp)
	return true
}

// widen stretches an unquoted secret back to the start of its word and
// forward to the end of it, so that a secret the lexer split into several
// tokens is masked whole.
func (s *scanner) widen(t Token) (start, end int) {
	start, end = t.Pos, t.End
	for start > 0 && !stopsBackward(s.src[start-1]) {
		start--
	}
	for end < len(s.src) && !stopsForward(s.src[end]) {
		end++
	}
	return start, end
}

func stopsBackward(c byte) bool {
	return isSpace(c) || c == '\'' || c == '"' || c == '(' || c == ','
}

func stopsForward(c byte) bool {
	return isSpace(c) || c == ';' || c == ',' || c == ')'
}

func (s *scanner) openParen(t Token) {
	switch {
	case s.shape.isCall(), s.options == optionsOpen:
		s.parens++
		return
	case s.options == optionsPending:
		s.options = optionsOpen
		s.parens = 1
		return
	}
	prev := s.prev[0]
	if prev.Kind != Ident && prev.Kind != Keyword {
		return
	}
	call := callShape(prev.Value)
	if call == shapeNone {
		return
	}
	s.outer, s.shape = s.shape, call
	s.parens, s.args = 1, 0
	s.open = t.End
}

func (s *scanner) closeParen(t Token) {
	switch {
	case s.shape.isCall():
		s.parens--
		if s.parens > 0 {
			return
		}
		if s.shape == shapeCryptCall && t.Pos > s.open {
			n := t.Pos - s.open
			s.queue(span{pos: s.open, n: n, width: n})
		}
		s.flush()
		s.shape, s.outer = s.outer, shapeNone
	case s.options == optionsOpen:
		s.parens--
		if s.parens == 0 {
			s.flush()
			s.options = optionsNone
		}
	}
}

func (s *scanner) reset() {
	s.shape, s.outer = shapeNone, shapeNone
	s.options = optionsNone
	s.parens, s.args = 0, 0
	s.secret = secretNone
	s.child = childNone
}

// queue records a span to mask. Spans arrive in text order; one that
// overlaps the previous span is trimmed.
func (s *scanner) queue(sp span) {
	if sp.pos < s.mark {
		sp.n -= s.mark - sp.pos
		sp.pos = s.mark
	}
	if sp.n < 0 {
		return
	}
	s.pending[s.n] = sp
	s.n++
	s.mark = sp.pos + sp.n
	if s.n == maxPending {
		s.flush()
	}
}

func (s *scanner) flush() {
	for _, sp := range s.pending[:s.n] {
		s.replace(sp.pos, sp.n, strings.Repeat("*", sp.width))
	}
	s.n = 0
}

// splice masks the statement held in string literal t and writes it
// back over the literal's content.
func (s *scanner) splice(t Token) {
	if s.depth >= maxDepth || t.Value == "" {
		return
	}
	masked, changed, err := s.m.scan(t.Value, s.depth+1)
	if err != nil || !changed {
		return
	}
	s.flush()
	if t.Start < s.mark {
		return
	}
	s.replace(t.Start, t.Stop-t.Start, encode(masked, t.Quote))
	s.mark = t.Stop
}

// replace overwrites n bytes of the original text at pos. Positions are
// always in terms of the original text; delta carries the growth or
// shrinkage of the output so far.
func (s *scanner) replace(pos, n int, with string) {
	if s.out == nil {
		s.out = []byte(s.src)
	}
	at := pos + s.delta
	tail := append([]byte(with), s.out[at+n:]...)
	s.out = append(s.out[:at], tail...)
	s.delta += len(with) - n
}

// encode quotes v for a literal of the given style.
func encode(v string, style Quote) string {
	switch style {
	case QuoteDollar:
		return v
	case QuoteEscape:
		v = strings.ReplaceAll(v, `\`, `\\`)
	}
	return strings.ReplaceAll(v, "'", "''")
}
