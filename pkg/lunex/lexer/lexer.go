package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
)

// Options configures a tokenize run.
type Options struct {
	// SkipErrors turns lexical errors into Invalid tokens instead of failing.
	SkipErrors bool

	// Offset, Line and Column place src inside a larger text. They are used
	// when re-lexing template string interpolations. Zero means the start of
	// a file.
	Offset int
	Line   int
	Column int
}

// Lexer scans one source text. It is not safe for concurrent use.
type Lexer struct {
	src  string
	opts Options
	pos  int
	line int
	col  int
	toks []Token
}

type mark struct {
	pos  int
	line int
	col  int
}

// New creates a lexer over src.
func New(src string, opts Options) *Lexer {
	lx := &Lexer{src: src, opts: opts, line: 1, col: 1}
	if opts.Line > 0 {
		lx.line = opts.Line
	}

	if opts.Column > 0 {
		lx.col = opts.Column
	}

	return lx
}

// Tokenize scans src into tokens terminated by an EOF token.
func Tokenize(src string, opts Options) ([]Token, error) {
	return New(src, opts).Run()
}

// Run scans the whole input.
func (lx *Lexer) Run() ([]Token, error) {
	lx.toks = make([]Token, 0, len(lx.src)/4+1)

	for {
		err := lx.skipTrivia()
		if err != nil {
			if !lx.opts.SkipErrors {
				return nil, err
			}

			continue
		}

		if lx.eof() {
			start := lx.mark()
			lx.emit(EOF, "", start)

			return lx.toks, nil
		}

		start := lx.mark()

		err = lx.scanToken()
		if err != nil {
			if !lx.opts.SkipErrors {
				return nil, err
			}

			if lx.pos == start.pos {
				lx.advance()
			}

			lx.emit(Invalid, lx.src[start.pos:lx.pos], start)
		}
	}
}

func (lx *Lexer) scanToken() error {
	ch := lx.src[lx.pos]

	switch {
	case isLetter(ch):
		lx.scanName()

		return nil
	case isDigit(ch) || (ch == '.' && isDigit(lx.peek(1))):
		return lx.scanNumber()
	case ch == '"' || ch == '\'':
		return lx.scanShortString(ch)
	case ch == '`':
		return lx.scanTemplate()
	case ch == '[' && lx.longBracketLevel() >= 0:
		return lx.scanLongString()
	default:
		return lx.scanPunct()
	}
}

func (lx *Lexer) eof() bool { return lx.pos >= len(lx.src) }

func (lx *Lexer) peek(n int) byte {
	if lx.pos+n < len(lx.src) {
		return lx.src[lx.pos+n]
	}

	return 0
}

func (lx *Lexer) advance() {
	if lx.src[lx.pos] == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}

	lx.pos++
}

func (lx *Lexer) mark() mark { return mark{pos: lx.pos, line: lx.line, col: lx.col} }

func (lx *Lexer) emit(kind Kind, value string, start mark) {
	lx.toks = append(lx.toks, Token{
		Kind:  kind,
		Value: value,
		Raw:   lx.src[start.pos:lx.pos],
		Start: lx.opts.Offset + start.pos,
		End:   lx.opts.Offset + lx.pos,
		Loc: Location{
			StartLine: start.line,
			StartCol:  start.col,
			EndLine:   lx.line,
			EndCol:    lx.col,
		},
	})
}

func (lx *Lexer) errorAt(at mark, format string, args ...any) error {
	return diag.Newf(diag.Lex, at.line, at.col, lx.opts.Offset+at.pos, format, args...)
}

// skipTrivia consumes whitespace and comments.
func (lx *Lexer) skipTrivia() error {
	for !lx.eof() {
		ch := lx.src[lx.pos]

		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v':
			lx.advance()
		case ch == '-' && lx.peek(1) == '-':
			err := lx.skipComment()
			if err != nil {
				return err
			}
		default:
			return nil
		}
	}

	return nil
}

func (lx *Lexer) skipComment() error {
	start := lx.mark()
	lx.advance()
	lx.advance()

	if !lx.eof() && lx.src[lx.pos] == '[' {
		if level := lx.longBracketLevel(); level >= 0 {
			_, err := lx.readLongBracket(start, level)

			return err
		}
	}

	for !lx.eof() && lx.src[lx.pos] != '\n' {
		lx.advance()
	}

	return nil
}

// longBracketLevel returns the number of '=' in an opening long bracket at
// the cursor, or -1 when the cursor is not on one.
func (lx *Lexer) longBracketLevel() int {
	if lx.peek(0) != '[' {
		return -1
	}

	level := 0
	for lx.peek(level+1) == '=' {
		level++
	}

	if lx.peek(level+1) != '[' {
		return -1
	}

	return level
}

// readLongBracket consumes an opening bracket of the given level, the body
// and the matching closing bracket. It returns the body.
func (lx *Lexer) readLongBracket(start mark, level int) (string, error) {
	for range level + 2 {
		lx.advance()
	}

	// A newline right after the opening bracket is not part of the body.
	if lx.peek(0) == '\r' {
		lx.advance()
	}

	if lx.peek(0) == '\n' {
		lx.advance()
	}

	bodyStart := lx.pos
	closing := "]" + strings.Repeat("=", level) + "]"

	for !lx.eof() {
		if lx.src[lx.pos] == ']' && strings.HasPrefix(lx.src[lx.pos:], closing) {
			body := lx.src[bodyStart:lx.pos]
			for range len(closing) {
				lx.advance()
			}

			return body, nil
		}

		lx.advance()
	}

	return "", lx.errorAt(start, "unfinished long string or comment")
}

func (lx *Lexer) scanName() {
	start := lx.mark()
	for !lx.eof() && (isLetter(lx.src[lx.pos]) || isDigit(lx.src[lx.pos])) {
		lx.advance()
	}

	word := lx.src[start.pos:lx.pos]

	switch {
	case word == "true" || word == "false":
		lx.emit(Boolean, word, start)
	case word == "nil":
		lx.emit(Nil, word, start)
	case IsKeyword(word):
		lx.emit(Keyword, word, start)
	default:
		lx.emit(Name, word, start)
	}
}

func (lx *Lexer) scanNumber() error {
	start := lx.mark()

	if lx.peek(0) == '0' && (lx.peek(1) == 'x' || lx.peek(1) == 'X') {
		lx.advance()
		lx.advance()

		digits := lx.scanDigits(isHexDigit)
		if lx.peek(0) == '.' {
			lx.advance()
			digits += lx.scanDigits(isHexDigit)
		}

		if digits == 0 {
			return lx.malformedNumber(start)
		}

		if lx.peek(0) == 'p' || lx.peek(0) == 'P' {
			if !lx.scanExponent() {
				return lx.malformedNumber(start)
			}
		}
	} else {
		digits := lx.scanDigits(isDigit)
		if lx.peek(0) == '.' && lx.peek(1) != '.' {
			lx.advance()
			digits += lx.scanDigits(isDigit)
		}

		if digits == 0 {
			return lx.malformedNumber(start)
		}

		if lx.peek(0) == 'e' || lx.peek(0) == 'E' {
			if !lx.scanExponent() {
				return lx.malformedNumber(start)
			}
		}
	}

	if next := lx.peek(0); isLetter(next) || isDigit(next) || (next == '.' && lx.peek(1) != '.') {
		return lx.malformedNumber(start)
	}

	lx.emit(Number, lx.src[start.pos:lx.pos], start)

	return nil
}

func (lx *Lexer) scanDigits(accept func(byte) bool) int {
	count := 0
	for !lx.eof() && accept(lx.src[lx.pos]) {
		lx.advance()
		count++
	}

	return count
}

func (lx *Lexer) scanExponent() bool {
	lx.advance()

	if lx.peek(0) == '+' || lx.peek(0) == '-' {
		lx.advance()
	}

	return lx.scanDigits(isDigit) > 0
}

func (lx *Lexer) malformedNumber(start mark) error {
	for !lx.eof() && (isLetter(lx.src[lx.pos]) || isDigit(lx.src[lx.pos]) || lx.src[lx.pos] == '.') {
		lx.advance()
	}

	return lx.errorAt(start, "malformed number near '%s'", lx.src[start.pos:lx.pos])
}

func (lx *Lexer) scanShortString(quote byte) error {
	start := lx.mark()
	lx.advance()

	var sb strings.Builder

	for {
		if lx.eof() || lx.src[lx.pos] == '\n' {
			return lx.errorAt(start, "unfinished string")
		}

		ch := lx.src[lx.pos]
		if ch == quote {
			lx.advance()

			break
		}

		if ch == '\\' {
			err := lx.scanEscape(&sb)
			if err != nil {
				return err
			}

			continue
		}

		sb.WriteByte(ch)
		lx.advance()
	}

	lx.emit(String, sb.String(), start)

	return nil
}

// scanEscape decodes one backslash escape at the cursor into sb.
func (lx *Lexer) scanEscape(sb *strings.Builder) error {
	at := lx.mark()
	lx.advance()

	if lx.eof() {
		return lx.errorAt(at, "unfinished string")
	}

	ch := lx.src[lx.pos]

	switch ch {
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'v':
		sb.WriteByte('\v')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'a':
		sb.WriteByte('\a')
	case '\\', '"', '\'', '`', '$':
		sb.WriteByte(ch)
	case '\n':
		sb.WriteByte('\n')
	case 'z':
		lx.advance()
		for !lx.eof() && isSpace(lx.src[lx.pos]) {
			lx.advance()
		}

		return nil
	case 'x':
		lx.advance()
		if !isHexDigit(lx.peek(0)) || !isHexDigit(lx.peek(1)) {
			return lx.errorAt(at, "hexadecimal digit expected")
		}

		value, _ := strconv.ParseUint(lx.src[lx.pos:lx.pos+2], 16, 8)
		sb.WriteByte(byte(value))
		lx.advance()
		lx.advance()

		return nil
	case 'u':
		return lx.scanUnicodeEscape(sb, at)
	default:
		if !isDigit(ch) {
			return lx.errorAt(at, "invalid escape sequence '\\%c'", ch)
		}

		end := lx.pos
		for end < len(lx.src) && end-lx.pos < 3 && isDigit(lx.src[end]) {
			end++
		}

		value, _ := strconv.Atoi(lx.src[lx.pos:end])
		if value > 255 {
			return lx.errorAt(at, "decimal escape too large")
		}

		sb.WriteByte(byte(value))

		for lx.pos < end {
			lx.advance()
		}

		return nil
	}

	lx.advance()

	return nil
}

func (lx *Lexer) scanUnicodeEscape(sb *strings.Builder, at mark) error {
	lx.advance()

	if lx.peek(0) != '{' {
		return lx.errorAt(at, "missing '{' in \\u{xxxx}")
	}

	lx.advance()

	begin := lx.pos
	for !lx.eof() && isHexDigit(lx.src[lx.pos]) {
		lx.advance()
	}

	if lx.pos == begin || lx.peek(0) != '}' {
		return lx.errorAt(at, "hexadecimal digit expected")
	}

	code, err := strconv.ParseUint(lx.src[begin:lx.pos], 16, 32)
	if err != nil || code > utf8.MaxRune {
		return lx.errorAt(at, "UTF-8 value too large")
	}

	lx.advance()
	sb.WriteRune(rune(code))

	return nil
}

// scanTemplate reads a backquoted string. Interpolations are kept verbatim
// and split later by the parser; a backquote, brace or string inside ${...}
// does not end the template.
func (lx *Lexer) scanTemplate() error {
	start := lx.mark()
	lx.advance()

	bodyStart := lx.pos

	end := templateEnd(lx.src, bodyStart)
	if end < 0 {
		return lx.errorAt(start, "unfinished template string")
	}

	for lx.pos <= end {
		lx.advance()
	}

	lx.emit(String, lx.src[bodyStart:end], start)
	lx.toks[len(lx.toks)-1].Template = true

	return nil
}

func (lx *Lexer) scanLongString() error {
	start := lx.mark()

	body, err := lx.readLongBracket(start, lx.longBracketLevel())
	if err != nil {
		return err
	}

	lx.emit(String, body, start)
	lx.toks[len(lx.toks)-1].Long = true

	return nil
}

func (lx *Lexer) scanPunct() error {
	start := lx.mark()
	rest := lx.src[lx.pos:]

	for _, punct := range punctuators {
		if strings.HasPrefix(rest, punct) {
			for range len(punct) {
				lx.advance()
			}

			lx.emit(Punct, punct, start)

			return nil
		}
	}

	r, _ := utf8.DecodeRuneInString(rest)

	return lx.errorAt(start, "unexpected symbol near '%c'", r)
}

func isLetter(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isHexDigit(ch byte) bool {
	return isDigit(ch) || ch >= 'a' && ch <= 'f' || ch >= 'A' && ch <= 'F'
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}

// DecodeEscapes decodes backslash escapes in a template literal segment.
func DecodeEscapes(raw string) (string, error) {
	if !strings.ContainsRune(raw, '\\') {
		return raw, nil
	}

	lx := New(raw, Options{})

	var sb strings.Builder

	for !lx.eof() {
		if lx.src[lx.pos] == '\\' {
			err := lx.scanEscape(&sb)
			if err != nil {
				return "", err
			}

			continue
		}

		sb.WriteByte(lx.src[lx.pos])
		lx.advance()
	}

	return sb.String(), nil
}
