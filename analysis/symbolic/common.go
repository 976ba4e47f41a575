package symbolic

import (
	"errors"
	"fmt"

	"github.com/cs-au-dk/p4absint/ir"
	"github.com/cs-au-dk/p4absint/utils"

	"github.com/fatih/color"
)

var colorize = struct {
	State   func(...interface{}) string
	Const   func(...interface{}) string
	Field   func(...interface{}) string
	Kind    func(...interface{}) string
	Error   func(...interface{}) string
	Cursor  func(...interface{}) string
	Element func(...interface{}) string
}{
	State: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgMagenta).SprintFunc())(is...)
	},
	Const: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiWhite).SprintFunc())(is...)
	},
	Field: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgGreen).SprintFunc())(is...)
	},
	Kind: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiBlue).SprintFunc())(is...)
	},
	Error: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiRed).SprintFunc())(is...)
	},
	Cursor: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgYellow).SprintFunc())(is...)
	},
	Element: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgCyan).SprintFunc())(is...)
	},
}

// ErrInvariant is wrapped by every panic raised for a violated internal
// invariant: merging errors, writing read-only values, merging environments
// over different declarations, or a missing declaration. These indicate a
// bug in the driver or an inconsistent type map, never a property of the
// analysed program.
var ErrInvariant = errors.New("symbolic: invariant violation")

func invariant(format string, args ...interface{}) {
	panic(fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...)))
}

// AsInvariantViolation converts the result of recover() back to the invariant
// violation error. It returns nil for any other panic value.
func AsInvariantViolation(recovered interface{}) error {
	if err, ok := recovered.(error); ok && errors.Is(err, ErrInvariant) {
		return err
	}
	return nil
}

// IDSource hands out value identifiers. Identifiers are used for
// diagnostics and ordering only.
type IDSource struct {
	next uint
}

func (s *IDSource) Next() uint {
	s.next++
	return s.next
}

type base struct {
	id  uint
	typ ir.Type
	ids *IDSource
}

func newBase(ids *IDSource, typ ir.Type) base {
	return base{ids.Next(), typ, ids}
}

// derive creates the base of a copy of the value, with a fresh identifier.
func (b base) derive() base {
	return newBase(b.ids, b.typ)
}

func (b base) ID() uint {
	return b.id
}

func (b base) Type() ir.Type {
	return b.typ
}
