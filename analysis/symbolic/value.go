package symbolic

import (
	"github.com/cs-au-dk/p4absint/ir"
)

// Value is a symbolic value: an over-approximation of the run-time values a
// program location may hold.
//
// Values are mutable. Merge, Assign and SetAllUnknown update the receiver in
// place; Clone produces an independent copy. Every variant is one of
// *Bool, *Integer, *String, *Varbit, *Enum, *Struct, *Header, *HeaderUnion,
// *Array, *AnyElement, *Tuple, *Extern, *PacketIn, *Exception, *StaticError
// or *Void.
type Value interface {
	ID() uint
	Type() ir.Type
	IsScalar() bool
	Clone() Value
	// SetAllUnknown widens every reachable scalar to NotConstant.
	SetAllUnknown()
	// Assign overwrites the receiver with the state of a value of the same shape.
	Assign(other Value)
	// Merge joins other into the receiver. It reports whether the receiver changed.
	Merge(other Value) bool
	Equals(other Value) bool
	// HasUninitializedParts holds if some reachable scalar is definitely uninitialized.
	HasUninitializedParts() bool
	String() string
}

// ValueState is the three point lattice tracked for every scalar:
// Uninitialized ⊑ Constant ⊑ NotConstant.
type ValueState uint8

const (
	Uninitialized ValueState = iota
	// Constant is a compile-time constant.
	Constant
	// NotConstant means initialized, but the value cannot be told statically.
	NotConstant
)

func (s ValueState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Constant:
		return "constant"
	default:
		return "unknown"
	}
}

// InitState is the state of a fresh scalar.
func InitState(uninitialized bool) ValueState {
	if uninitialized {
		return Uninitialized
	}
	return NotConstant
}

// join of two states; equal constants are not checked here.
func (s ValueState) join(o ValueState) ValueState {
	switch {
	case s == Uninitialized && o == Uninitialized:
		return Uninitialized
	case s == Constant && o == Constant:
		return Constant
	}
	return NotConstant
}

// Scalar is implemented by the flat values: *Bool, *Integer, *String,
// *Varbit and *Enum.
type Scalar interface {
	Value
	State() ValueState
	IsUninitialized() bool
	IsUnknown() bool
	IsKnown() bool
}

type scalar struct {
	base
	state ValueState
}

func (s *scalar) State() ValueState {
	return s.state
}

func (s *scalar) IsUninitialized() bool {
	return s.state == Uninitialized
}

func (s *scalar) IsUnknown() bool {
	return s.state == NotConstant
}

func (s *scalar) IsKnown() bool {
	return s.state == Constant
}

func (*scalar) IsScalar() bool {
	return true
}

func (s *scalar) SetAllUnknown() {
	s.state = NotConstant
}

func (s *scalar) HasUninitializedParts() bool {
	return s.state == Uninitialized
}

// mergeWith computes the joined state given whether the constant payloads
// agree, updates the receiver and reports the change.
func (s *scalar) mergeWith(o ValueState, samePayload bool) bool {
	st := s.state.join(o)
	if st == Constant && !samePayload {
		st = NotConstant
	}
	changed := st != s.state
	s.state = st
	return changed
}

func (s *scalar) stateString() string {
	return colorize.State(s.state.String())
}

// Error is a value that is itself a static fault: *Exception or *StaticError.
// Errors are propagated by substitution and must never be merged.
type Error interface {
	Value
	Message() string
	Position() ir.Node
}

// IsError checks whether v is an error value.
func IsError(v Value) bool {
	_, ok := v.(Error)
	return ok
}
