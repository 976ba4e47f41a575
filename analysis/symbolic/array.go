package symbolic

import (
	"fmt"

	"github.com/cs-au-dk/p4absint/ir"
	i "github.com/cs-au-dk/p4absint/utils/indenter"
)

// Array is a header stack. It owns one header per slot.
type Array struct {
	base
	values  []*Header
	elem    *ir.TypeHeader
	factory *Factory
}

func (a *Array) Size() int {
	return len(a.values)
}

func (a *Array) ElemType() *ir.TypeHeader {
	return a.elem
}

// Get returns the header at index, or a StackOutOfBounds exception.
func (a *Array) Get(node ir.Node, index int) Value {
	if index < 0 || index >= len(a.values) {
		return a.factory.Exception(node, StackOutOfBounds)
	}
	return a.values[index]
}

func (a *Array) Set(index int, h *Header) {
	if h == nil {
		invariant("nil header stored in stack %s", a.typ)
	}
	a.values[index] = h
}

// Shift moves the elements of the stack by amount slots: a positive amount
// pushes towards the end, a negative amount pops towards index 0. Slots
// exposed by the shift hold fresh, uninitialized and invalid headers.
func (a *Array) Shift(amount int) {
	if amount == 0 {
		return
	}
	size := len(a.values)
	shifted := make([]*Header, size)
	for j := range shifted {
		if src := j - amount; src >= 0 && src < size {
			shifted[j] = a.values[src]
		} else {
			h := a.factory.Create(a.elem, true).(*Header)
			h.SetValid(false)
			shifted[j] = h
		}
	}
	a.values = shifted
}

// knownValid reports whether the header is definitely valid. Headers that
// were never made valid count as invalid.
func knownValid(h *Header) bool {
	return h.valid.IsKnown() && h.valid.value
}

// Next resolves hs.next: the first slot not known to be valid.
func (a *Array) Next(node ir.Node) Value {
	for _, h := range a.values {
		if h.valid.IsUnknown() {
			return a.AnyElement()
		}
		if !knownValid(h) {
			return h
		}
	}
	return a.factory.Exception(node, StackOutOfBounds)
}

// Last resolves hs.last: the last slot known to be valid.
func (a *Array) Last(node ir.Node) Value {
	for j := len(a.values) - 1; j >= 0; j-- {
		h := a.values[j]
		if h.valid.IsUnknown() {
			return a.AnyElement()
		}
		if knownValid(h) {
			return h
		}
	}
	return a.factory.Exception(node, StackOutOfBounds)
}

// LastIndex resolves hs.lastIndex as a bit<32> value.
func (a *Array) LastIndex(node ir.Node) Value {
	for j := len(a.values) - 1; j >= 0; j-- {
		h := a.values[j]
		if h.valid.IsUnknown() {
			return a.factory.Integer(ir.Bits(32), NotConstant)
		}
		if knownValid(h) {
			return a.factory.IntegerConst(ir.Bits(32), int64(j))
		}
	}
	return a.factory.Exception(node, StackOutOfBounds)
}

// AnyElement creates a proxy for an element at an unknown index.
func (a *Array) AnyElement() *AnyElement {
	return &AnyElement{newBase(a.ids, a.elem), a}
}

func (*Array) IsScalar() bool {
	return false
}

func (a *Array) Clone() Value {
	res := &Array{a.derive(), make([]*Header, len(a.values)), a.elem, a.factory}
	for j, h := range a.values {
		res.values[j] = h.Clone().(*Header)
	}
	return res
}

func (a *Array) SetAllUnknown() {
	for _, h := range a.values {
		h.SetAllUnknown()
	}
}

func (a *Array) Assign(other Value) {
	switch o := other.(type) {
	case Error:
	case *Array:
		if len(o.values) != len(a.values) {
			invariant("assigning stack of size %d to stack of size %d", len(o.values), len(a.values))
		}
		for j, h := range a.values {
			h.Assign(o.values[j])
		}
	default:
		invariant("assigning %T to stack %s", other, a.typ)
	}
}

func (a *Array) Merge(other Value) bool {
	o, ok := other.(*Array)
	if !ok || len(o.values) != len(a.values) {
		mismatch(a, other)
	}
	changed := false
	for j, h := range a.values {
		if h.Merge(o.values[j]) {
			changed = true
		}
	}
	return changed
}

func (a *Array) Equals(other Value) bool {
	o, ok := other.(*Array)
	if !ok || len(o.values) != len(a.values) {
		return false
	}
	for j, h := range a.values {
		if !h.Equals(o.values[j]) {
			return false
		}
	}
	return true
}

func (a *Array) HasUninitializedParts() bool {
	for _, h := range a.values {
		if h.HasUninitializedParts() {
			return true
		}
	}
	return false
}

func (a *Array) String() string {
	strs := make([]func() string, len(a.values))
	for j, h := range a.values {
		j, h := j, h
		strs[j] = func() string {
			return fmt.Sprintf("%s %s", colorize.Element(fmt.Sprintf("[%d]", j)), h)
		}
	}
	return i.Indenter().Start(colorize.Kind("stack") + " [").NestThunkedSep(",", strs...).End("]")
}

// AnyElement stands for the element of a stack at an index that could not be
// resolved statically. It holds no state of its own: reads see the join of
// all elements, and writes destroy the precision of the whole stack.
type AnyElement struct {
	base
	parent *Array
}

func (ae *AnyElement) Parent() *Array {
	return ae.parent
}

// Collapse joins all elements of the parent stack into a fresh header.
func (ae *AnyElement) Collapse() *Header {
	res := ae.parent.values[0].Clone().(*Header)
	for _, h := range ae.parent.values[1:] {
		res.Merge(h)
	}
	return res
}

// Get reads a field of the unknown element.
func (ae *AnyElement) Get(node ir.Node, field string) Value {
	return ae.Collapse().Get(node, field)
}

// Valid is the joined validity of all elements.
func (ae *AnyElement) Valid() *Bool {
	return ae.Collapse().valid
}

// Write records a write through the proxy to an unknown slot.
func (ae *AnyElement) Write() {
	ae.parent.SetAllUnknown()
}

func (ae *AnyElement) SetValid(bool) {
	ae.Write()
}

func (*AnyElement) IsScalar() bool {
	return false
}

// Clone creates a new proxy for the same parent.
func (ae *AnyElement) Clone() Value {
	return ae.parent.AnyElement()
}

func (ae *AnyElement) SetAllUnknown() {
	ae.Write()
}

func (ae *AnyElement) Assign(Value) {
	ae.Write()
}

// Merge of two proxies has no state to join.
func (ae *AnyElement) Merge(other Value) bool {
	if _, ok := other.(*AnyElement); !ok {
		mismatch(ae, other)
	}
	return false
}

func (ae *AnyElement) Equals(other Value) bool {
	o, ok := other.(*AnyElement)
	return ok && ae.parent.Equals(o.parent)
}

// HasUninitializedParts holds if the element at some index may be uninitialized.
func (ae *AnyElement) HasUninitializedParts() bool {
	return ae.parent.HasUninitializedParts()
}

func (ae *AnyElement) String() string {
	return "Any element of " + ae.parent.String()
}
