package facts

import (
	"fmt"
	"github.com/funvibe/givens/internal/typesystem"
)

// Type expressions:
//
//	type  := tag* base '?'?
//	tag   := '@' name ('<' arg (',' arg)* '>')?
//	base  := name ('<' arg (',' arg)* '>')? | '(' (type (',' type)*)? ')' '->' type
//	arg   := '*' | ('in' | 'out')? type
//
// Tag arguments exclude the wrapped type, which is the type that follows.

type lookupFunc func(name string) (*typesystem.Classifier, error)

type typeParser struct {
	src    string
	pos    int
	lookup lookupFunc
}

// parseType parses src, resolving names with lookup.
func parseType(src string, lookup lookupFunc) (*typesystem.Type, error) {
	p := &typeParser{src: src, lookup: lookup}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("type %q at %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *typeParser) skipSpaces() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	p.skipSpaces()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) accept(s string) bool {
	p.skipSpaces()
	if len(p.src)-p.pos >= len(s) && p.src[p.pos:p.pos+len(s)] == s {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *typeParser) expect(s string) error {
	if !p.accept(s) {
		return p.errorf("expected %q", s)
	}
	return nil
}

func isNameByte(b byte) bool {
	return b == '_' || b == '.' || b == '$' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func (p *typeParser) name() (string, error) {
	p.skipSpaces()
	start := p.pos
	for p.pos < len(p.src) && isNameByte(p.src[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		return "", p.errorf("expected a name")
	}
	return p.src[start:p.pos], nil
}

func (p *typeParser) parseType() (*typesystem.Type, error) {
	var tags []*typesystem.Type
	for p.accept("@") {
		tag, err := p.parseTag()
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	var base *typesystem.Type
	var err error
	if p.peek() == '(' {
		base, err = p.parseFunction()
	} else {
		base, err = p.parseNamed()
	}
	if err != nil {
		return nil, err
	}

	result := typesystem.WrapTags(tags, base)
	if p.accept("?") {
		result = result.WithNullability(true)
	}
	return result, nil
}

func (p *typeParser) parseTag() (*typesystem.Type, error) {
	name, err := p.name()
	if err != nil {
		return nil, err
	}
	c, err := p.lookup(name)
	if err != nil {
		return nil, err
	}
	if !c.IsTag {
		return nil, p.errorf("%s is not a tag", name)
	}
	args, err := p.parseArguments()
	if err != nil {
		return nil, err
	}
	if want := len(c.TypeParameters) - 1; len(args) != want {
		return nil, p.errorf("tag %s takes %d arguments, got %d", name, want, len(args))
	}
	return typesystem.Tag(c, args...), nil
}

func (p *typeParser) parseNamed() (*typesystem.Type, error) {
	name, err := p.name()
	if err != nil {
		return nil, err
	}
	c, err := p.lookup(name)
	if err != nil {
		return nil, err
	}
	if c.IsTag {
		return nil, p.errorf("tag %s must be written as @%s", name, name)
	}
	args, err := p.parseArguments()
	if err != nil {
		return nil, err
	}
	if len(args) != len(c.TypeParameters) {
		return nil, p.errorf("%s takes %d type arguments, got %d", name, len(c.TypeParameters), len(args))
	}
	if c.IsTypeParameter {
		return &typesystem.Type{Classifier: c}, nil
	}
	return typesystem.NewType(c, args...), nil
}

func (p *typeParser) parseArguments() ([]*typesystem.Type, error) {
	if !p.accept("<") {
		return nil, nil
	}
	var args []*typesystem.Type
	for {
		arg, err := p.parseArgument()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.accept(">") {
			return args, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}

func (p *typeParser) parseArgument() (*typesystem.Type, error) {
	if p.accept("*") {
		return typesystem.StarProjection, nil
	}
	variance := typesystem.Inv
	for _, v := range []struct {
		keyword  string
		variance typesystem.Variance
	}{{"in ", typesystem.In}, {"out ", typesystem.Out}} {
		if p.accept(v.keyword) {
			variance = v.variance
			break
		}
	}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return t.WithVariance(variance), nil
}

func (p *typeParser) parseFunction() (*typesystem.Type, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var params []*typesystem.Type
	if !p.accept(")") {
		for {
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			params = append(params, t)
			if p.accept(")") {
				break
			}
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expect("->"); err != nil {
		return nil, err
	}
	result, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return typesystem.NewFunctionType(result, params...), nil
}
