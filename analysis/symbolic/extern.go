package symbolic

import (
	"fmt"
)

// Extern is an instance of an extern type with no modelled state.
type Extern struct {
	base
}

func (*Extern) IsScalar() bool {
	return false
}

func (e *Extern) Clone() Value {
	return &Extern{e.derive()}
}

// SetAllUnknown has no effect: there is no interior state to widen.
func (*Extern) SetAllUnknown() {}

func (e *Extern) Assign(Value) {
	invariant("%s: extern is read-only", e)
}

func (e *Extern) Merge(other Value) bool {
	if _, ok := other.(*Extern); !ok {
		mismatch(e, other)
	}
	return false
}

func (e *Extern) Equals(other Value) bool {
	o, ok := other.(*Extern)
	return ok && e.typ == o.typ
}

func (*Extern) HasUninitializedParts() bool {
	return false
}

func (e *Extern) String() string {
	return "instance of " + colorize.Kind(e.typ)
}

// PacketIn models a packet_in extern: a read cursor into the packet.
type PacketIn struct {
	base
	// Lower bound on the number of bits consumed so far. Variable-width
	// extractions count as 0.
	minimumOffset uint
	// If set the offset is a strict approximation.
	conservative bool
}

func (p *PacketIn) MinimumOffset() uint {
	return p.minimumOffset
}

func (p *PacketIn) IsConservative() bool {
	return p.conservative
}

func (p *PacketIn) SetConservative() {
	p.conservative = true
}

// Advance moves the cursor forward by width bits.
func (p *PacketIn) Advance(width uint) {
	p.minimumOffset += width
}

func (*PacketIn) IsScalar() bool {
	return false
}

func (p *PacketIn) Clone() Value {
	return &PacketIn{p.derive(), p.minimumOffset, p.conservative}
}

// SetAllUnknown models an opaque use of the packet: the cursor may have
// moved by an unknown amount.
func (p *PacketIn) SetAllUnknown() {
	p.conservative = true
}

func (p *PacketIn) Assign(Value) {
	invariant("%s: extern is read-only", p)
}

// Merge keeps the smallest offset; differing offsets make the result
// conservative.
func (p *PacketIn) Merge(other Value) bool {
	o, ok := other.(*PacketIn)
	if !ok {
		mismatch(p, other)
	}
	offset := p.minimumOffset
	if o.minimumOffset < offset {
		offset = o.minimumOffset
	}
	conservative := p.conservative || o.conservative || p.minimumOffset != o.minimumOffset
	changed := offset != p.minimumOffset || conservative != p.conservative
	p.minimumOffset, p.conservative = offset, conservative
	return changed
}

func (p *PacketIn) Equals(other Value) bool {
	o, ok := other.(*PacketIn)
	return ok && p.minimumOffset == o.minimumOffset && p.conservative == o.conservative
}

func (*PacketIn) HasUninitializedParts() bool {
	return false
}

func (p *PacketIn) String() string {
	str := fmt.Sprintf("packet_in; offset = %d", p.minimumOffset)
	if p.conservative {
		str += " (conservative)"
	}
	return colorize.Cursor(str)
}
