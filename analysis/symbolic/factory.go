package symbolic

import (
	"github.com/cs-au-dk/p4absint/ir"

	"github.com/cockroachdb/apd/v3"
)

// Factory builds symbolic values of a given type. All values built by one
// factory, and their clones, draw identifiers from the same source.
type Factory struct {
	ids *IDSource
}

func NewFactory() *Factory {
	return &Factory{&IDSource{}}
}

// Create builds a value of shape typ. Scalars start Uninitialized if
// uninitialized is set, and NotConstant otherwise. Header validity bits
// start Uninitialized, or known false.
func (f *Factory) Create(typ ir.Type, uninitialized bool) Value {
	state := InitState(uninitialized)
	switch t := typ.(type) {
	case *ir.TypeBool:
		return f.Bool(state)
	case *ir.TypeBits, *ir.TypeInfInt:
		return f.Integer(t, state)
	case *ir.TypeString:
		return &String{scalar: scalar{newBase(f.ids, t), state}}
	case *ir.TypeVarbits:
		return &Varbit{scalar{newBase(f.ids, t), state}}
	case *ir.TypeEnum, *ir.TypeError:
		return &Enum{scalar: scalar{newBase(f.ids, t), state}}
	case *ir.TypeStruct:
		s := &Struct{newBase(f.ids, t), newFields(len(t.Fields))}
		for _, fd := range t.Fields {
			s.set(fd.Name, f.Create(fd.Type, uninitialized))
		}
		return s
	case *ir.TypeHeader:
		h := &Header{newBase(f.ids, t), newFields(len(t.Fields)), f.Bool(Uninitialized)}
		if !uninitialized {
			h.SetValid(false)
		}
		for _, fd := range t.Fields {
			h.set(fd.Name, f.Create(fd.Type, uninitialized))
		}
		return h
	case *ir.TypeHeaderUnion:
		u := &HeaderUnion{newBase(f.ids, t), newFields(len(t.Fields))}
		for _, fd := range t.Fields {
			u.Set(fd.Name, f.Create(fd.Type, uninitialized))
		}
		return u
	case *ir.TypeStack:
		if t.Size <= 0 {
			invariant("stack %s must have a positive size", t)
		}
		a := &Array{newBase(f.ids, t), make([]*Header, t.Size), t.Elem, f}
		for j := range a.values {
			a.values[j] = f.Create(t.Elem, uninitialized).(*Header)
		}
		return a
	case *ir.TypeTuple:
		tu := &Tuple{newBase(f.ids, t), make([]Value, 0, len(t.Components))}
		for _, c := range t.Components {
			tu.add(f.Create(c, uninitialized))
		}
		return tu
	case *ir.TypeExtern:
		if t.Name == ir.PacketInName {
			return &PacketIn{base: newBase(f.ids, t)}
		}
		return &Extern{newBase(f.ids, t)}
	case *ir.TypeVoid:
		return VoidValue()
	}
	invariant("cannot create value of type %s (%T)", typ, typ)
	return nil
}

func (f *Factory) Bool(state ValueState) *Bool {
	return &Bool{scalar: scalar{newBase(f.ids, ir.Bool), state}}
}

func (f *Factory) BoolConst(v bool) *Bool {
	return &Bool{scalar{newBase(f.ids, ir.Bool), Constant}, v}
}

func (f *Factory) Integer(typ ir.Type, state ValueState) *Integer {
	return &Integer{scalar: scalar{newBase(f.ids, typ), state}}
}

func (f *Factory) IntegerConst(typ ir.Type, v int64) *Integer {
	return f.IntegerValue(typ, apd.NewBigInt(v))
}

// IntegerValue creates a constant integer. The factory takes ownership of v.
func (f *Factory) IntegerValue(typ ir.Type, v *apd.BigInt) *Integer {
	return &Integer{scalar{newBase(f.ids, typ), Constant}, v}
}

func (f *Factory) StringConst(v string) *String {
	return &String{scalar{newBase(f.ids, ir.String), Constant}, v}
}

func (f *Factory) EnumConst(typ ir.Type, member string) *Enum {
	return &Enum{scalar{newBase(f.ids, typ), Constant}, member}
}

func (f *Factory) Exception(node ir.Node, kind StandardException) *Exception {
	return &Exception{errorBase{newBase(f.ids, nil), node}, kind}
}

func (f *Factory) StaticError(node ir.Node, msg string) *StaticError {
	return &StaticError{errorBase{newBase(f.ids, nil), node}, msg}
}

// Tuple wraps the given values; the tuple owns them afterwards.
func (f *Factory) Tuple(typ *ir.TypeTuple, values ...Value) *Tuple {
	if len(values) != len(typ.Components) {
		invariant("tuple %s built from %d values", typ, len(values))
	}
	return &Tuple{newBase(f.ids, typ), values}
}

// IsFixedWidth is false iff typ transitively contains a varbit.
func IsFixedWidth(typ ir.Type) bool {
	switch t := typ.(type) {
	case *ir.TypeVarbits:
		return false
	case ir.StructLike:
		for _, fd := range t.FieldList() {
			if !IsFixedWidth(fd.Type) {
				return false
			}
		}
	case *ir.TypeStack:
		return IsFixedWidth(t.Elem)
	}
	return true
}

// Width is the number of bits of a serializable type. Varbit fields count
// as zero bits.
func Width(typ ir.Type) uint {
	switch t := typ.(type) {
	case *ir.TypeBool:
		return 1
	case *ir.TypeBits:
		return uint(t.Width)
	case *ir.TypeVarbits:
		return 0
	case *ir.TypeEnum:
		if t.Underlying != nil {
			return uint(t.Underlying.Width)
		}
	case *ir.TypeStruct:
		return sumWidth(t.Fields)
	case *ir.TypeHeader:
		return sumWidth(t.Fields)
	case *ir.TypeHeaderUnion:
		var max uint
		for _, fd := range t.Fields {
			if w := Width(fd.Type); w > max {
				max = w
			}
		}
		return max
	case *ir.TypeStack:
		return uint(t.Size) * Width(t.Elem)
	}
	invariant("type %s has no width", typ)
	return 0
}

func sumWidth(fs []ir.Field) (w uint) {
	for _, fd := range fs {
		w += Width(fd.Type)
	}
	return
}
