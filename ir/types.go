package ir

import (
	"fmt"
	"strings"
)

// Type is the canonical structural type of an expression or declaration, as
// produced by the type checker.
type Type interface {
	Node
	isType()
}

type typeBase struct{}

func (typeBase) isType() {}

type (
	TypeVoid struct{ typeBase }

	TypeBool struct{ typeBase }

	// TypeBits is bit<Width> (unsigned) or int<Width> (signed).
	TypeBits struct {
		typeBase
		Width  int
		Signed bool
	}

	// TypeInfInt is the type of arbitrary-precision integer literals.
	TypeInfInt struct{ typeBase }

	TypeString struct{ typeBase }

	TypeVarbits struct {
		typeBase
		MaxWidth int
	}

	// TypeEnum covers enum and match_kind declarations. Serializable enums
	// carry their underlying bit type.
	TypeEnum struct {
		typeBase
		Name       string
		Members    []string
		Underlying *TypeBits
	}

	// TypeError is the type of the error namespace.
	TypeError struct {
		typeBase
		Members []string
	}

	Field struct {
		Name string
		Type Type
	}

	TypeStruct struct {
		typeBase
		Name   string
		Fields []Field
	}

	TypeHeader struct {
		typeBase
		Name   string
		Fields []Field
	}

	TypeHeaderUnion struct {
		typeBase
		Name   string
		Fields []Field
	}

	// TypeStack is a header stack of compile-time constant size.
	TypeStack struct {
		typeBase
		Elem *TypeHeader
		Size int
	}

	TypeTuple struct {
		typeBase
		Components []Type
	}

	TypeExtern struct {
		typeBase
		Name string
	}
)

// StructLike is implemented by struct, header and header union types.
type StructLike interface {
	Type
	TypeName() string
	FieldList() []Field
}

// PacketInName is the name of the core library packet cursor extern.
const PacketInName = "packet_in"

var (
	Void   = &TypeVoid{}
	Bool   = &TypeBool{}
	InfInt = &TypeInfInt{}
	String = &TypeString{}
)

func Bits(width int) *TypeBits { return &TypeBits{Width: width} }
func Int(width int) *TypeBits  { return &TypeBits{Width: width, Signed: true} }

func (t *TypeStruct) TypeName() string      { return t.Name }
func (t *TypeHeader) TypeName() string      { return t.Name }
func (t *TypeHeaderUnion) TypeName() string { return t.Name }

func (t *TypeStruct) FieldList() []Field      { return t.Fields }
func (t *TypeHeader) FieldList() []Field      { return t.Fields }
func (t *TypeHeaderUnion) FieldList() []Field { return t.Fields }

// FieldType returns the type of the named field or nil.
func FieldType(t StructLike, name string) Type {
	for _, f := range t.FieldList() {
		if f.Name == name {
			return f.Type
		}
	}
	return nil
}

func (t *TypeEnum) Has(member string) bool {
	for _, m := range t.Members {
		if m == member {
			return true
		}
	}
	return false
}

func (*TypeVoid) String() string   { return "void" }
func (*TypeBool) String() string   { return "bool" }
func (*TypeInfInt) String() string { return "int" }
func (*TypeString) String() string { return "string" }
func (*TypeError) String() string  { return "error" }

func (t *TypeBits) String() string {
	if t.Signed {
		return fmt.Sprintf("int<%d>", t.Width)
	}
	return fmt.Sprintf("bit<%d>", t.Width)
}

func (t *TypeVarbits) String() string     { return fmt.Sprintf("varbit<%d>", t.MaxWidth) }
func (t *TypeEnum) String() string        { return t.Name }
func (t *TypeStruct) String() string      { return t.Name }
func (t *TypeHeader) String() string      { return t.Name }
func (t *TypeHeaderUnion) String() string { return t.Name }
func (t *TypeStack) String() string       { return fmt.Sprintf("%s[%d]", t.Elem, t.Size) }
func (t *TypeExtern) String() string      { return t.Name }

func (t *TypeTuple) String() string {
	strs := make([]string, len(t.Components))
	for i, c := range t.Components {
		strs[i] = c.String()
	}
	return "tuple<" + strings.Join(strs, ", ") + ">"
}
