package typesystem

import (
	"github.com/funvibe/givens/internal/config"
	"strings"
)

func (t *Type) String() string {
	var sb strings.Builder
	t.render(&sb, 0)
	return sb.String()
}

// render writes t in source-like notation. Tags are written as prefixes
// ("@Named<x> Foo"); nesting beyond config.MaxRenderDepth is elided.
func (t *Type) render(sb *strings.Builder, depth int) {
	if depth > config.MaxRenderDepth {
		sb.WriteString("...")
		return
	}
	if t.Star {
		sb.WriteByte('*')
		return
	}
	if t.Variance != Inv {
		sb.WriteString(t.Variance.String())
		sb.WriteByte(' ')
	}
	if t.Classifier.IsTag && len(t.Arguments) == len(t.Classifier.TypeParameters) && len(t.Arguments) > 0 {
		sb.WriteByte('@')
		sb.WriteString(t.Classifier.String())
		renderArgs(sb, t.Arguments[:len(t.Arguments)-1], depth)
		sb.WriteByte(' ')
		inner := t.Arguments[len(t.Arguments)-1]
		if t.Nullable && !inner.Nullable {
			inner = inner.WithNullability(true)
		}
		inner.WithVariance(Inv).render(sb, depth+1)
		return
	}
	sb.WriteString(t.Classifier.String())
	renderArgs(sb, t.Arguments, depth)
	if t.Nullable {
		sb.WriteByte('?')
	}
}

func renderArgs(sb *strings.Builder, args []*Type, depth int) {
	if len(args) == 0 {
		return
	}
	sb.WriteByte('<')
	for i, a := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		a.render(sb, depth+1)
	}
	sb.WriteByte('>')
}
