package searchdata

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Script holds the top-level variables assigned by a search data file.
// Values are string, int64, float64, bool, nil, []any or map[string]any.
type Script struct {
	Vars  map[string]any
	Order []string // Variable names in assignment order
}

// ParseScript parses the JavaScript literal subset Doxygen writes into its
// search directory: var statements whose values are arrays, object literals,
// quoted strings and numbers.
func ParseScript(name string, src []byte) (*Script, error) {
	p := &parser{file: name, src: src, line: 1, col: 1}
	script := &Script{Vars: make(map[string]any)}

	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.eof() {
			break
		}
		if p.peek() == ';' {
			p.next()
			continue
		}

		ident := p.ident()
		if ident == "var" || ident == "let" || ident == "const" {
			if err := p.skipSpace(); err != nil {
				return nil, err
			}
			ident = p.ident()
		}
		if ident == "" {
			return nil, p.errorf("unexpected %q, want variable assignment", p.peek())
		}

		if err := p.expect('='); err != nil {
			return nil, err
		}
		value, err := p.value()
		if err != nil {
			return nil, err
		}

		if _, seen := script.Vars[ident]; !seen {
			script.Order = append(script.Order, ident)
		}
		script.Vars[ident] = value
	}

	return script, nil
}

type parser struct {
	file string
	src  []byte
	pos  int
	line int
	col  int
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{File: p.file, Line: p.line, Col: p.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) peekAt(offset int) byte {
	if p.pos+offset >= len(p.src) {
		return 0
	}
	return p.src[p.pos+offset]
}

func (p *parser) next() byte {
	c := p.src[p.pos]
	p.pos++
	if c == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return c
}

// skipSpace skips whitespace and comments
func (p *parser) skipSpace() error {
	for !p.eof() {
		c := p.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			p.next()
		case c == '/' && p.peekAt(1) == '/':
			for !p.eof() && p.peek() != '\n' {
				p.next()
			}
		case c == '/' && p.peekAt(1) == '*':
			p.next()
			p.next()
			for {
				if p.eof() {
					return p.errorf("unterminated comment")
				}
				if p.peek() == '*' && p.peekAt(1) == '/' {
					p.next()
					p.next()
					break
				}
				p.next()
			}
		default:
			return nil
		}
	}
	return nil
}

func (p *parser) expect(c byte) error {
	if err := p.skipSpace(); err != nil {
		return err
	}
	if p.eof() {
		return p.errorf("unexpected end of input, want %q", c)
	}
	if p.peek() != c {
		return p.errorf("unexpected %q, want %q", p.peek(), c)
	}
	p.next()
	return nil
}

func isIdentByte(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '$':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}

func (p *parser) ident() string {
	start := p.pos
	for !p.eof() && isIdentByte(p.peek(), p.pos == start) {
		p.next()
	}
	return string(p.src[start:p.pos])
}

func (p *parser) value() (any, error) {
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.eof() {
		return nil, p.errorf("unexpected end of input, want value")
	}

	c := p.peek()
	switch {
	case c == '[':
		return p.array()
	case c == '{':
		return p.object()
	case c == '\'' || c == '"':
		return p.str()
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return p.number()
	case isIdentByte(c, true):
		line, col := p.line, p.col
		switch word := p.ident(); word {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null", "undefined":
			return nil, nil
		default:
			return nil, &ParseError{File: p.file, Line: line, Col: col, Msg: fmt.Sprintf("unsupported identifier %q", word)}
		}
	}
	return nil, p.errorf("unexpected %q, want value", c)
}

func (p *parser) array() ([]any, error) {
	p.next() // [
	items := make([]any, 0, 4)

	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.eof() {
			return nil, p.errorf("unterminated array")
		}
		if p.peek() == ']' {
			p.next()
			return items, nil
		}

		item, err := p.value()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		switch p.peek() {
		case ',':
			p.next()
		case ']':
		default:
			if p.eof() {
				return nil, p.errorf("unterminated array")
			}
			return nil, p.errorf("unexpected %q in array, want ',' or ']'", p.peek())
		}
	}
}

func (p *parser) object() (map[string]any, error) {
	p.next() // {
	obj := make(map[string]any)

	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.eof() {
			return nil, p.errorf("unterminated object")
		}
		if p.peek() == '}' {
			p.next()
			return obj, nil
		}

		var key string
		switch c := p.peek(); {
		case c == '\'' || c == '"':
			s, err := p.str()
			if err != nil {
				return nil, err
			}
			key = s
		case c >= '0' && c <= '9':
			start := p.pos
			for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
				p.next()
			}
			key = string(p.src[start:p.pos])
		default:
			key = p.ident()
			if key == "" {
				return nil, p.errorf("unexpected %q, want object key", c)
			}
		}

		if err := p.expect(':'); err != nil {
			return nil, err
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		obj[key] = v

		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		switch p.peek() {
		case ',':
			p.next()
		case '}':
		default:
			if p.eof() {
				return nil, p.errorf("unterminated object")
			}
			return nil, p.errorf("unexpected %q in object, want ',' or '}'", p.peek())
		}
	}
}

func (p *parser) str() (string, error) {
	quote := p.next()
	var b strings.Builder

	for {
		if p.eof() {
			return "", p.errorf("unterminated string")
		}
		c := p.next()
		switch c {
		case quote:
			return b.String(), nil
		case '\n':
			return "", p.errorf("newline in string")
		case '\\':
			if p.eof() {
				return "", p.errorf("unterminated string")
			}
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
		}
	}
}

func (p *parser) escape(b *strings.Builder) error {
	c := p.next()
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0':
		b.WriteByte(0)
	case 'x':
		r, err := p.hexRune(2)
		if err != nil {
			return err
		}
		b.WriteRune(r)
	case 'u':
		r, err := p.hexRune(4)
		if err != nil {
			return err
		}
		// Surrogate pair; a high half not followed by a low half is invalid
		for r >= 0xD800 && r < 0xDC00 && p.peek() == '\\' && p.peekAt(1) == 'u' {
			p.next()
			p.next()
			lo, err := p.hexRune(4)
			if err != nil {
				return err
			}
			if lo >= 0xDC00 && lo <= 0xDFFF {
				r = (r-0xD800)<<10 + (lo - 0xDC00) + 0x10000
				break
			}
			b.WriteRune(utf8.RuneError)
			r = lo
		}
		if !utf8.ValidRune(r) {
			r = utf8.RuneError
		}
		b.WriteRune(r)
	case '\n':
		// Line continuation
	default:
		b.WriteByte(c)
	}
	return nil
}

func (p *parser) hexRune(n int) (rune, error) {
	if p.pos+n > len(p.src) {
		return 0, p.errorf("truncated escape sequence")
	}
	v, err := strconv.ParseUint(string(p.src[p.pos:p.pos+n]), 16, 32)
	if err != nil {
		return 0, p.errorf("invalid escape sequence %q", p.src[p.pos:p.pos+n])
	}
	for i := 0; i < n; i++ {
		p.next()
	}
	return rune(v), nil
}

func (p *parser) number() (any, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.next()
	}
	isFloat := false
	for !p.eof() {
		c := p.peek()
		if c >= '0' && c <= '9' {
			p.next()
			continue
		}
		if c == '.' || c == 'e' || c == 'E' || ((c == '-' || c == '+') && isFloat) {
			isFloat = true
			p.next()
			continue
		}
		break
	}

	text := string(p.src[start:p.pos])
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.errorf("invalid number %q", text)
		}
		return f, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, p.errorf("invalid number %q", text)
	}
	return n, nil
}
