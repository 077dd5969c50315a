// Package returndata parses the returnData blob Tilopay echoes back on the
// redirect. The blob is a literal in Python/JSON style:
//
//	value    = string | number | mapping | sequence | tuple | constant
//	mapping  = "{" [ value ":" value { "," value ":" value } [","] ] "}"
//	sequence = "[" [ value { "," value } [","] ] "]"
//	tuple    = "(" [ value { "," value } [","] ] ")"
//	string   = single or double quoted, backslash escapes, adjacent literals concatenate
//	number   = ["+"|"-"] digits ["." digits] [("e"|"E") ["+"|"-"] digits]
//	constant = True | False | None | true | false | null
//
// Mapping keys must be scalars and are stored by their text. Nothing is
// evaluated.
package returndata

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const maxDepth = 32

// ParseError reports malformed input and the byte offset it was found at.
type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("returndata: %s at offset %d", e.Msg, e.Offset)
}

// Parse parses a complete blob. Trailing non-space input is an error.
func Parse(input string) (Value, error) {
	p := &parser{src: input}
	p.skipSpace()
	v, err := p.value(0)
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return Value{}, p.errorf("unexpected %q after value", p.src[p.pos])
	}
	return v, nil
}

// ParseMapping parses a blob whose top level must be a mapping. An empty or
// blank input is an empty mapping.
func ParseMapping(input string) (Value, error) {
	if strings.TrimSpace(input) == "" {
		return Value{Kind: KindMapping, Map: map[string]Value{}}, nil
	}
	v, err := Parse(input)
	if err != nil {
		return Value{}, err
	}
	if v.Kind != KindMapping {
		return Value{}, &ParseError{Offset: 0, Msg: fmt.Sprintf("expected mapping, got %s", v.Kind)}
	}
	return v, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) value(depth int) (Value, error) {
	if depth > maxDepth {
		return Value{}, p.errorf("nesting deeper than %d", maxDepth)
	}
	if p.pos >= len(p.src) {
		return Value{}, p.errorf("unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.mapping(depth)
	case c == '[':
		items, err := p.items(depth, ']')
		return Value{Kind: KindSequence, Items: items}, err
	case c == '(':
		return p.tuple(depth)
	case c == '\'' || c == '"':
		s, err := p.stringLit()
		return Value{Kind: KindString, Text: s}, err
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		n, err := p.number()
		return Value{Kind: KindNumber, Text: n}, err
	case isLetter(c):
		return p.constant()
	default:
		return Value{}, p.errorf("unexpected %q", c)
	}
}

func (p *parser) mapping(depth int) (Value, error) {
	p.pos++ // {
	m := map[string]Value{}
	for {
		p.skipSpace()
		if p.peek('}') {
			p.pos++
			return Value{Kind: KindMapping, Map: m}, nil
		}
		keyAt := p.pos
		key, err := p.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
		k, ok := mapKey(key)
		if !ok {
			return Value{}, &ParseError{Offset: keyAt, Msg: fmt.Sprintf("%s cannot be a mapping key", key.Kind)}
		}
		p.skipSpace()
		if !p.peek(':') {
			return Value{}, p.errorf("expected ':' after mapping key")
		}
		p.pos++
		p.skipSpace()
		val, err := p.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
		m[k] = val
		p.skipSpace()
		switch {
		case p.peek(','):
			p.pos++
		case p.peek('}'):
		default:
			return Value{}, p.errorf("expected ',' or '}' in mapping")
		}
	}
}

func mapKey(v Value) (string, bool) {
	switch v.Kind {
	case KindString, KindNumber:
		return v.Text, true
	case KindBool:
		if v.Bool {
			return "True", true
		}
		return "False", true
	case KindNone:
		return "None", true
	}
	return "", false
}

func (p *parser) items(depth int, closer byte) ([]Value, error) {
	p.pos++ // opener
	items := []Value{}
	for {
		p.skipSpace()
		if p.peek(closer) {
			p.pos++
			return items, nil
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipSpace()
		switch {
		case p.peek(','):
			p.pos++
		case p.peek(closer):
		default:
			return nil, p.errorf("expected ',' or %q", closer)
		}
	}
}

// tuple handles "(x)" as a parenthesised value and "()", "(x,)" as sequences.
func (p *parser) tuple(depth int) (Value, error) {
	start := p.pos
	p.pos++
	p.skipSpace()
	if p.peek(')') {
		p.pos++
		return Value{Kind: KindSequence, Items: []Value{}}, nil
	}
	first, err := p.value(depth + 1)
	if err != nil {
		return Value{}, err
	}
	p.skipSpace()
	if p.peek(')') {
		p.pos++
		return first, nil
	}
	p.pos = start
	items, err := p.items(depth, ')')
	return Value{Kind: KindSequence, Items: items}, err
}

func (p *parser) constant() (Value, error) {
	start := p.pos
	for p.pos < len(p.src) && (isLetter(p.src[p.pos]) || isDigit(p.src[p.pos])) {
		p.pos++
	}
	switch word := p.src[start:p.pos]; word {
	case "True", "true":
		return Value{Kind: KindBool, Bool: true}, nil
	case "False", "false":
		return Value{Kind: KindBool, Bool: false}, nil
	case "None", "null":
		return Value{Kind: KindNone}, nil
	default:
		return Value{}, &ParseError{Offset: start, Msg: fmt.Sprintf("unknown name %q", word)}
	}
}

func (p *parser) number() (string, error) {
	start := p.pos
	if p.peek('+') || p.peek('-') {
		p.pos++
		p.skipSpace()
	}
	sign := strings.TrimSpace(p.src[start:p.pos])
	digitsAt := p.pos
	intDigits := p.digits()
	fracDigits := 0
	if p.peek('.') {
		p.pos++
		fracDigits = p.digits()
	}
	if intDigits == 0 && fracDigits == 0 {
		return "", &ParseError{Offset: start, Msg: "malformed number"}
	}
	if p.peek('e') || p.peek('E') {
		p.pos++
		if p.peek('+') || p.peek('-') {
			p.pos++
		}
		if p.digits() == 0 {
			return "", &ParseError{Offset: start, Msg: "malformed exponent"}
		}
	}
	if p.pos < len(p.src) && (isLetter(p.src[p.pos]) || p.src[p.pos] == '.') {
		return "", p.errorf("unexpected %q in number", p.src[p.pos])
	}
	text := p.src[digitsAt:p.pos]
	if strings.HasPrefix(text, ".") {
		text = "0" + text
	}
	if strings.HasSuffix(text, ".") {
		text += "0"
	}
	text = strings.Replace(text, ".e", ".0e", 1)
	text = strings.Replace(text, ".E", ".0E", 1)
	if sign == "-" {
		text = "-" + text
	}
	return text, nil
}

func (p *parser) digits() int {
	n := 0
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
		n++
	}
	return n
}

// stringLit reads one quoted literal plus any adjacent ones.
func (p *parser) stringLit() (string, error) {
	var b strings.Builder
	for {
		s, err := p.quoted()
		if err != nil {
			return "", err
		}
		b.WriteString(s)
		save := p.pos
		p.skipSpace()
		if !p.peek('\'') && !p.peek('"') {
			p.pos = save
			return b.String(), nil
		}
	}
}

func (p *parser) quoted() (string, error) {
	start := p.pos
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\n':
			return "", p.errorf("newline in string literal")
		case c == '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			if r == utf8.RuneError && size == 1 {
				return "", p.errorf("invalid UTF-8 in string literal")
			}
			b.WriteRune(r)
			p.pos += size
		}
	}
	return "", &ParseError{Offset: start, Msg: "unterminated string literal"}
}

func (p *parser) escape(b *strings.Builder) error {
	p.pos++ // backslash
	if p.pos >= len(p.src) {
		return p.errorf("unterminated escape")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case '\\', '\'', '"', '/':
		b.WriteByte(c)
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
	case '0':
		b.WriteByte(0)
	case '\n':
		// line continuation
	case 'x':
		return p.hexRune(b, 2)
	case 'u':
		return p.hexRune(b, 4)
	case 'U':
		return p.hexRune(b, 8)
	default:
		// unknown escapes are kept verbatim
		b.WriteByte('\\')
		b.WriteByte(c)
	}
	return nil
}

func (p *parser) hexRune(b *strings.Builder, n int) error {
	if p.pos+n > len(p.src) {
		return p.errorf("truncated \\x/\\u escape")
	}
	code, err := strconv.ParseUint(p.src[p.pos:p.pos+n], 16, 32)
	if err != nil || !utf8.ValidRune(rune(code)) {
		return p.errorf("invalid escape %q", p.src[p.pos:p.pos+n])
	}
	b.WriteRune(rune(code))
	p.pos += n
	return nil
}

func (p *parser) peek(c byte) bool {
	return p.pos < len(p.src) && p.src[p.pos] == c
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
