package signature

import (
	"fmt"
	"strings"
)

// SyntaxError reports a malformed descriptor or signature
type SyntaxError struct {
	Input   string
	Pos     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("signature %q: %s at position %d", e.Input, e.Message, e.Pos)
}

type parser struct {
	input string
	pos   int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Input: p.input, Pos: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) peek() byte {
	if p.pos < len(p.input) {
		return p.input[p.pos]
	}
	return 0
}

func (p *parser) expect(c byte) error {
	if p.peek() != c {
		if p.pos >= len(p.input) {
			return p.errorf("expected %q, found end of input", c)
		}
		return p.errorf("expected %q, found %q", c, p.peek())
	}
	p.pos++
	return nil
}

func (p *parser) done() error {
	if p.pos != len(p.input) {
		return p.errorf("unexpected trailing input %q", p.input[p.pos:])
	}
	return nil
}

// ParseType parses a field descriptor or field/variable generic signature
func ParseType(input string) (*Type, error) {
	p := &parser{input: input}
	t, err := p.javaType()
	if err != nil {
		return nil, err
	}
	if err := p.done(); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseMethod parses a method descriptor or method generic signature
func ParseMethod(input string) (*MethodType, error) {
	p := &parser{input: input}
	m := &MethodType{Params: []*Type{}}

	if p.peek() == '<' {
		params, err := p.typeParameters()
		if err != nil {
			return nil, err
		}
		m.TypeParams = params
	}

	if err := p.expect('('); err != nil {
		return nil, err
	}
	for p.peek() != ')' {
		if p.pos >= len(p.input) {
			return nil, p.errorf("unterminated parameter list")
		}
		t, err := p.javaType()
		if err != nil {
			return nil, err
		}
		m.Params = append(m.Params, t)
	}
	p.pos++

	if p.peek() == 'V' {
		p.pos++
		m.Return = &Type{Kind: KindPrimitive, Name: "void"}
	} else {
		t, err := p.javaType()
		if err != nil {
			return nil, err
		}
		m.Return = t
	}

	// Throws clauses do not contribute to routes
	for p.peek() == '^' {
		p.pos++
		if _, err := p.referenceType(); err != nil {
			return nil, err
		}
	}
	if err := p.done(); err != nil {
		return nil, err
	}
	return m, nil
}

// typeParameters parses <T:Ljava/lang/Object;U::Ljava/lang/Comparable<TU;>;>
func (p *parser) typeParameters() ([]string, error) {
	p.pos++ // '<'
	var names []string
	for p.peek() != '>' {
		start := p.pos
		for p.pos < len(p.input) && p.input[p.pos] != ':' {
			p.pos++
		}
		if p.pos >= len(p.input) || p.pos == start {
			return nil, p.errorf("malformed type parameter")
		}
		names = append(names, p.input[start:p.pos])

		// Class bound (may be empty), then interface bounds
		p.pos++
		if c := p.peek(); c == 'L' || c == 'T' || c == '[' {
			if _, err := p.referenceType(); err != nil {
				return nil, err
			}
		}
		for p.peek() == ':' {
			p.pos++
			if _, err := p.referenceType(); err != nil {
				return nil, err
			}
		}
	}
	p.pos++
	return names, nil
}

func (p *parser) javaType() (*Type, error) {
	c := p.peek()
	if name, ok := primitives[c]; ok && c != 'V' {
		p.pos++
		return &Type{Kind: KindPrimitive, Name: name}, nil
	}
	return p.referenceType()
}

func (p *parser) referenceType() (*Type, error) {
	switch p.peek() {
	case 'L':
		return p.classType()
	case 'T':
		p.pos++
		end := strings.IndexByte(p.input[p.pos:], ';')
		if end <= 0 {
			return nil, p.errorf("malformed type variable")
		}
		name := p.input[p.pos : p.pos+end]
		p.pos += end + 1
		return &Type{Kind: KindTypeVariable, Name: name}, nil
	case '[':
		p.pos++
		elem, err := p.javaType()
		if err != nil {
			return nil, err
		}
		return &Type{Kind: KindArray, Elem: elem}, nil
	case 0:
		return nil, p.errorf("unexpected end of input")
	}
	return nil, p.errorf("unexpected character %q", p.peek())
}

// classType parses Lpkg/Outer<args>.Inner<args>; into a class node named
// pkg.Outer$Inner carrying the innermost type arguments
func (p *parser) classType() (*Type, error) {
	p.pos++ // 'L'
	t := &Type{Kind: KindClass}
	var name strings.Builder

	for {
		start := p.pos
		for p.pos < len(p.input) {
			c := p.input[p.pos]
			if c == '<' || c == ';' || c == '.' {
				break
			}
			p.pos++
		}
		if p.pos >= len(p.input) {
			return nil, p.errorf("unterminated class type")
		}
		if p.pos == start {
			return nil, p.errorf("empty class name")
		}
		name.WriteString(strings.ReplaceAll(p.input[start:p.pos], "/", "."))

		t.Args = nil
		if p.peek() == '<' {
			args, err := p.typeArguments()
			if err != nil {
				return nil, err
			}
			t.Args = args
		}

		if p.peek() == '.' {
			p.pos++
			name.WriteByte('$')
			continue
		}
		if err := p.expect(';'); err != nil {
			return nil, err
		}
		break
	}

	t.Name = name.String()
	return t, nil
}

func (p *parser) typeArguments() ([]*Type, error) {
	p.pos++ // '<'
	var args []*Type
	for p.peek() != '>' {
		switch p.peek() {
		case BoundAny:
			p.pos++
			args = append(args, &Type{Kind: KindWildcard, Bound: BoundAny})
		case BoundUpper, BoundLower:
			bound := p.peek()
			p.pos++
			elem, err := p.referenceType()
			if err != nil {
				return nil, err
			}
			args = append(args, &Type{Kind: KindWildcard, Bound: bound, Elem: elem})
		case 0:
			return nil, p.errorf("unterminated type arguments")
		default:
			arg, err := p.referenceType()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
	}
	if len(args) == 0 {
		return nil, p.errorf("empty type arguments")
	}
	p.pos++
	return args, nil
}
