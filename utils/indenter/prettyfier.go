package indenter

import (
	"fmt"
	"strings"
)

// indentation of nested blocks, carried across nested String() calls.
var _level = 0

// Builder accumulates a possibly multi-line rendering of a nested structure.
// Nested elements are rendered on their own lines, one level deeper, unless
// there is exactly one of them.
type Builder struct {
	buf strings.Builder
}

func Indenter() *Builder {
	return &Builder{}
}

func indent() string {
	return strings.Repeat("  ", _level)
}

func (b *Builder) Start(str string) *Builder {
	b.buf.Reset()
	b.buf.WriteString(str)
	return b
}

type stringableString string

func (s stringableString) String() string {
	return string(s)
}

func (b *Builder) NestStringsSep(sep string, strs ...string) *Builder {
	stringers := make([]fmt.Stringer, len(strs))
	for i, v := range strs {
		stringers[i] = stringableString(v)
	}
	return b.NestSep(sep, stringers...)
}

func (b *Builder) Nest(strs ...fmt.Stringer) *Builder {
	return b.NestSep("", strs...)
}

func (b *Builder) NestSep(sep string, strs ...fmt.Stringer) *Builder {
	thunks := make([]func() string, len(strs))
	for i, s := range strs {
		thunks[i] = s.String
	}
	return b.NestThunkedSep(sep, thunks...)
}

func (b *Builder) NestThunkedSep(sep string, strs ...func() string) *Builder {
	switch len(strs) {
	case 0:
		return b
	case 1:
		b.buf.WriteString(strs[0]())
		return b
	}

	_level++
	for i, str := range strs {
		b.buf.WriteString("\n" + indent() + str())
		if i < len(strs)-1 {
			b.buf.WriteString(sep)
		}
	}
	_level--
	b.buf.WriteString("\n")
	return b
}

func (b *Builder) End(str string) string {
	res := b.buf.String()
	if strings.HasSuffix(res, "\n") {
		return res + indent() + str
	}
	return res + str
}
