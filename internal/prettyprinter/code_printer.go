package prettyprinter

import (
	"bytes"
	"github.com/funvibe/givens/internal/resolution"
	"github.com/funvibe/givens/internal/symbols"
	"github.com/funvibe/givens/internal/typesystem"
	"strings"
)

// --- Code Printer (Output looks like a call expression) ---

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
)

// DefaultLineWidth is the width used by NewCodePrinter.
const DefaultLineWidth = 100

type CodePrinter struct {
	buf       bytes.Buffer
	indent    int
	lineWidth int // max line width (0 = unlimited)
	column    int // current column position
	color     bool
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{indent: 0, lineWidth: DefaultLineWidth, column: 0}
}

func NewCodePrinterWithWidth(width int) *CodePrinter {
	return &CodePrinter{indent: 0, lineWidth: width, column: 0}
}

func (p *CodePrinter) SetLineWidth(width int) {
	p.lineWidth = width
}

// SetColor enables ANSI highlighting of failure markers.
func (p *CodePrinter) SetColor(color bool) {
	p.color = color
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
	p.column = p.indent * 4
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
	// Track column position
	if idx := strings.LastIndex(s, "\n"); idx != -1 {
		p.column = len(s) - idx - 1
	} else {
		p.column += len(s)
	}
}

func (p *CodePrinter) writeln() {
	p.buf.WriteString("\n")
	p.column = 0
}

func (p *CodePrinter) styled(style, s string) {
	if !p.color {
		p.write(s)
		return
	}
	p.buf.WriteString(style)
	p.write(s)
	p.buf.WriteString(ansiReset)
}

// sub renders f into a fresh printer that shares this printer's settings
// and starts at the current indentation.
func (p *CodePrinter) sub(f func(*CodePrinter)) string {
	q := &CodePrinter{indent: p.indent + 1, lineWidth: p.lineWidth, color: p.color}
	f(q)
	return q.String()
}

// argument is one rendered "name = expr" pair of a call.
type argument struct {
	name string
	expr string
}

// printCall writes name(args...). Arguments go on separate lines when there
// are many of them, when one spans lines or when the call would not fit.
func (p *CodePrinter) printCall(name string, args []argument) {
	p.write(name)
	p.write("(")
	if len(args) == 0 {
		p.write(")")
		return
	}

	width := p.column
	multiline := len(args) > 3
	for i, a := range args {
		if strings.Contains(a.expr, "\n") {
			multiline = true
		}
		width += len(a.name) + len(" = ") + len(a.expr)
		if i > 0 {
			width += len(", ")
		}
	}
	if p.lineWidth > 0 && width+1 > p.lineWidth {
		multiline = true
	}

	if !multiline {
		for i, a := range args {
			if i > 0 {
				p.write(", ")
			}
			p.writeArgument(a)
		}
		p.write(")")
		return
	}

	p.indent++
	for i, a := range args {
		if i > 0 {
			p.write(",")
		}
		p.writeln()
		p.writeIndent()
		p.writeArgument(a)
	}
	p.indent--
	p.writeln()
	p.writeIndent()
	p.write(")")
}

func (p *CodePrinter) writeArgument(a argument) {
	if a.name != "" {
		p.write(a.name)
		p.write(" = ")
	}
	p.buf.WriteString(a.expr)
	if idx := strings.LastIndex(a.expr, "\n"); idx != -1 {
		p.column = visibleLen(a.expr[idx+1:])
	} else {
		p.column += visibleLen(a.expr)
	}
}

// visibleLen ignores ANSI escape sequences.
func visibleLen(s string) int {
	n := 0
	escape := false
	for _, r := range s {
		switch {
		case escape:
			if r == 'm' {
				escape = false
			}
		case r == '\033':
			escape = true
		default:
			n++
		}
	}
	return n
}

// PrintInjection writes the call of callee with every injected argument
// expanded into its provider call. Failed injections print nothing.
func (p *CodePrinter) PrintInjection(r resolution.InjectionResult) {
	success, ok := r.(*resolution.InjectionSuccess)
	if !ok {
		return
	}
	p.printCall(success.Callee.Name, p.arguments(success.Results))
}

// PrintValue writes the provider call for v.
func (p *CodePrinter) PrintValue(v *resolution.Value) {
	switch c := v.Candidate.(type) {
	case *symbols.CallableCandidate:
		p.printCallable(c, v.Dependencies)
	case *symbols.ListCandidate:
		p.printList(c, v.Dependencies)
	case *symbols.LambdaCandidate:
		p.printLambda(c, v.Dependencies)
	case *symbols.TypeKeyCandidate:
		p.printCall(c.ChainName(), p.arguments(v.Dependencies))
	}
}

// arguments renders resolved dependencies; defaults and receivers are left
// out since they are not call arguments.
func (p *CodePrinter) arguments(deps []resolution.Dependency) []argument {
	var args []argument
	for _, d := range deps {
		value, ok := d.Result.(*resolution.Value)
		if !ok || d.Request.Position < 0 {
			continue
		}
		args = append(args, argument{name: d.Request.Name, expr: p.sub(func(q *CodePrinter) { q.PrintValue(value) })})
	}
	return args
}

func (p *CodePrinter) printCallable(c *symbols.CallableCandidate, deps []resolution.Dependency) {
	// lambda parameters are plain references
	if c.Owner != nil && c.Owner.Kind == symbols.ScopeLambda && len(deps) == 0 {
		p.write(c.Callable.Name)
		return
	}
	for _, d := range deps {
		if d.Request.Position != symbols.DispatchReceiverIndex && d.Request.Position != symbols.ExtensionReceiverIndex {
			continue
		}
		if receiver, ok := d.Result.(*resolution.Value); ok {
			p.PrintValue(receiver)
			p.write(".")
		}
	}
	p.printCall(c.Callable.Name+typeArguments(c.Callable), p.arguments(deps))
}

func typeArguments(c *symbols.Callable) string {
	if len(c.TypeParameters) == 0 {
		return ""
	}
	parts := make([]string, 0, len(c.TypeParameters))
	for _, tp := range c.TypeParameters {
		if arg, ok := c.TypeArguments[tp.Key]; ok {
			parts = append(parts, arg.String())
		} else {
			parts = append(parts, tp.String())
		}
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// printList writes listOf(a(), *b()); collection elements are spread.
func (p *CodePrinter) printList(l *symbols.ListCandidate, deps []resolution.Dependency) {
	var args []argument
	for _, d := range deps {
		value, ok := d.Result.(*resolution.Value)
		if !ok {
			continue
		}
		expr := p.sub(func(q *CodePrinter) { q.PrintValue(value) })
		elementType := value.Candidate.Type().WithUniqueID("")
		if !typesystem.IsSubTypeOf(typesystem.Checker, elementType, l.SingleElementType) {
			expr = "*" + expr
		}
		args = append(args, argument{expr: expr})
	}
	p.printCall("listOf", args)
}

func (p *CodePrinter) printLambda(l *symbols.LambdaCandidate, deps []resolution.Dependency) {
	p.write("{ ")
	for i, param := range l.Parameters {
		if i > 0 {
			p.write(", ")
		}
		p.write(param.Name + ": " + param.Type.String())
	}
	if len(l.Parameters) > 0 {
		p.write(" -> ")
	}
	for _, d := range deps {
		if value, ok := d.Result.(*resolution.Value); ok {
			p.PrintValue(value)
		}
	}
	p.write(" }")
}
