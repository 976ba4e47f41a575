package symbolic

import (
	"github.com/cockroachdb/apd/v3"
)

type (
	Bool struct {
		scalar
		value bool
	}

	// Integer is a bit<W>, int<W> or arbitrary-precision int value.
	Integer struct {
		scalar
		value *apd.BigInt
	}

	String struct {
		scalar
		value string
	}

	// Varbit never carries a constant payload.
	Varbit struct {
		scalar
	}

	// Enum represents enum, error and match_kind values; the payload is the
	// member name.
	Enum struct {
		scalar
		member string
	}
)

func mismatch(v, other Value) {
	if IsError(other) {
		invariant("%s: cannot merge errors", other)
	}
	invariant("cannot merge %T with %T", v, other)
}

// Value is only meaningful when the boolean is known.
func (b *Bool) Value() bool {
	return b.value
}

func (b *Bool) Clone() Value {
	return &Bool{scalar{b.derive(), b.state}, b.value}
}

func (b *Bool) Assign(other Value) {
	switch o := other.(type) {
	case Error:
	case *Bool:
		b.state, b.value = o.state, o.value
	default:
		invariant("assigning %T to bool", other)
	}
}

func (b *Bool) Merge(other Value) bool {
	o, ok := other.(*Bool)
	if !ok {
		mismatch(b, other)
	}
	return b.mergeWith(o.state, b.value == o.value)
}

func (b *Bool) Equals(other Value) bool {
	o, ok := other.(*Bool)
	return ok && b.state == o.state && (b.state != Constant || b.value == o.value)
}

func (b *Bool) String() string {
	if !b.IsKnown() {
		return b.stateString()
	}
	if b.value {
		return colorize.Const("true")
	}
	return colorize.Const("false")
}

// Value is only meaningful when the integer is known. It must not be mutated.
func (i *Integer) Value() *apd.BigInt {
	return i.value
}

func (i *Integer) Clone() Value {
	// Constant payloads are never mutated and may be shared.
	return &Integer{scalar{i.derive(), i.state}, i.value}
}

func (i *Integer) Assign(other Value) {
	switch o := other.(type) {
	case Error:
	case *Integer:
		i.state, i.value = o.state, o.value
	default:
		invariant("assigning %T to %s", other, i.typ)
	}
}

func (i *Integer) samePayload(o *Integer) bool {
	if i.value == nil || o.value == nil {
		return i.value == o.value
	}
	return i.value.Cmp(o.value) == 0
}

func (i *Integer) Merge(other Value) bool {
	o, ok := other.(*Integer)
	if !ok {
		mismatch(i, other)
	}
	return i.mergeWith(o.state, i.samePayload(o))
}

func (i *Integer) Equals(other Value) bool {
	o, ok := other.(*Integer)
	return ok && i.state == o.state && (i.state != Constant || i.samePayload(o))
}

func (i *Integer) String() string {
	if !i.IsKnown() {
		return i.stateString()
	}
	return colorize.Const(i.value.String())
}

func (s *String) Value() string {
	return s.value
}

func (s *String) Clone() Value {
	return &String{scalar{s.derive(), s.state}, s.value}
}

func (s *String) Assign(other Value) {
	switch o := other.(type) {
	case Error:
	case *String:
		s.state, s.value = o.state, o.value
	default:
		invariant("assigning %T to string", other)
	}
}

func (s *String) Merge(other Value) bool {
	o, ok := other.(*String)
	if !ok {
		mismatch(s, other)
	}
	return s.mergeWith(o.state, s.value == o.value)
}

func (s *String) Equals(other Value) bool {
	o, ok := other.(*String)
	return ok && s.state == o.state && (s.state != Constant || s.value == o.value)
}

func (s *String) String() string {
	if !s.IsKnown() {
		return s.stateString()
	}
	return colorize.Const(`"` + s.value + `"`)
}

func (v *Varbit) Clone() Value {
	return &Varbit{scalar{v.derive(), v.state}}
}

func (v *Varbit) Assign(other Value) {
	switch o := other.(type) {
	case Error:
	case *Varbit:
		v.state = o.state
	default:
		invariant("assigning %T to %s", other, v.typ)
	}
}

func (v *Varbit) Merge(other Value) bool {
	o, ok := other.(*Varbit)
	if !ok {
		mismatch(v, other)
	}
	return v.mergeWith(o.state, true)
}

func (v *Varbit) Equals(other Value) bool {
	o, ok := other.(*Varbit)
	return ok && v.state == o.state
}

func (v *Varbit) String() string {
	return v.stateString()
}

// Member is only meaningful when the enum is known.
func (e *Enum) Member() string {
	return e.member
}

func (e *Enum) Clone() Value {
	return &Enum{scalar{e.derive(), e.state}, e.member}
}

func (e *Enum) Assign(other Value) {
	switch o := other.(type) {
	case Error:
	case *Enum:
		e.state, e.member = o.state, o.member
	default:
		invariant("assigning %T to %s", other, e.typ)
	}
}

func (e *Enum) Merge(other Value) bool {
	o, ok := other.(*Enum)
	if !ok {
		mismatch(e, other)
	}
	return e.mergeWith(o.state, e.member == o.member)
}

func (e *Enum) Equals(other Value) bool {
	o, ok := other.(*Enum)
	return ok && e.state == o.state && (e.state != Constant || e.member == o.member)
}

func (e *Enum) String() string {
	if !e.IsKnown() {
		return e.stateString()
	}
	return colorize.Const(e.typ.String() + "." + e.member)
}

var (
	_ Scalar = (*Bool)(nil)
	_ Scalar = (*Integer)(nil)
	_ Scalar = (*String)(nil)
	_ Scalar = (*Varbit)(nil)
	_ Scalar = (*Enum)(nil)
)
