package symbolic

import (
	"fmt"

	"github.com/cs-au-dk/p4absint/ir"
)

// StandardException enumerates the run-time exceptions of the core library
// that can be detected statically.
type StandardException int

const (
	NoError StandardException = iota
	PacketTooShort
	NoMatch
	StackOutOfBounds
	HeaderTooShort
	ParserTimeout
	ParserInvalidArgument
)

var exceptionNames = [...]string{
	NoError:               "NoError",
	PacketTooShort:        "PacketTooShort",
	NoMatch:               "NoMatch",
	StackOutOfBounds:      "StackOutOfBounds",
	HeaderTooShort:        "HeaderTooShort",
	ParserTimeout:         "ParserTimeout",
	ParserInvalidArgument: "ParserInvalidArgument",
}

func (e StandardException) String() string {
	if int(e) < len(exceptionNames) {
		return exceptionNames[e]
	}
	return fmt.Sprintf("StandardException(%d)", int(e))
}

type errorBase struct {
	base
	position ir.Node
}

func (e *errorBase) Position() ir.Node {
	return e.position
}

func (*errorBase) IsScalar() bool {
	return true
}

func (*errorBase) SetAllUnknown() {}

// Assigning to an error is ignored: the fault has been reported already.
func (*errorBase) Assign(Value) {}

func (*errorBase) HasUninitializedParts() bool {
	return false
}

func (e *errorBase) merge() bool {
	invariant("%s: cannot merge errors", e.position)
	return false
}

type (
	// Exception is a run-time exception that will definitely be raised.
	Exception struct {
		errorBase
		Kind StandardException
	}

	// StaticError is any other statically detected fault.
	StaticError struct {
		errorBase
		Msg string
	}
)

func (e *Exception) Clone() Value {
	return &Exception{errorBase{e.derive(), e.position}, e.Kind}
}

func (e *Exception) Merge(Value) bool {
	return e.merge()
}

func (e *Exception) Equals(other Value) bool {
	o, ok := other.(*Exception)
	return ok && e.Kind == o.Kind
}

func (e *Exception) Message() string {
	return e.Kind.String()
}

func (e *Exception) String() string {
	return colorize.Error("Exception: " + e.Kind.String())
}

func (e *StaticError) Clone() Value {
	return &StaticError{errorBase{e.derive(), e.position}, e.Msg}
}

func (e *StaticError) Merge(Value) bool {
	return e.merge()
}

func (e *StaticError) Equals(other Value) bool {
	o, ok := other.(*StaticError)
	return ok && e.Msg == o.Msg
}

func (e *StaticError) Message() string {
	return e.Msg
}

func (e *StaticError) String() string {
	return colorize.Error("Error: " + e.Msg)
}

// Void is the result of a call returning nothing. There is a single,
// immutable instance.
type Void struct {
	base
}

var void = &Void{base{typ: ir.Void}}

// VoidValue returns the void instance.
func VoidValue() *Void {
	return void
}

func (*Void) IsScalar() bool {
	return false
}

func (v *Void) Clone() Value {
	return v
}

func (*Void) SetAllUnknown() {}

func (*Void) Assign(Value) {
	invariant("assign to void")
}

func (*Void) Merge(other Value) bool {
	if _, ok := other.(*Void); !ok {
		invariant("%s: expected void", other)
	}
	return false
}

func (v *Void) Equals(other Value) bool {
	return other == Value(v)
}

func (*Void) HasUninitializedParts() bool {
	return false
}

func (*Void) String() string {
	return "void"
}

var (
	_ Error = (*Exception)(nil)
	_ Error = (*StaticError)(nil)
	_ Value = (*Void)(nil)
)
