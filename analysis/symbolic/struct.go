package symbolic

import (
	"fmt"

	"github.com/cs-au-dk/p4absint/ir"
	i "github.com/cs-au-dk/p4absint/utils/indenter"
)

// fields is the ordered field-name to value mapping owned by struct-like values.
type fields struct {
	names  []string
	values map[string]Value
}

func newFields(n int) fields {
	return fields{make([]string, 0, n), make(map[string]Value, n)}
}

func (fs *fields) set(name string, v Value) {
	if v == nil {
		invariant("nil value for field %s", name)
	}
	if _, found := fs.values[name]; !found {
		fs.names = append(fs.names, name)
	}
	fs.values[name] = v
}

func (fs fields) get(name string) Value {
	v, found := fs.values[name]
	if !found {
		invariant("no field %s", name)
	}
	return v
}

func (fs fields) clone() fields {
	res := newFields(len(fs.names))
	for _, n := range fs.names {
		res.set(n, fs.values[n].Clone())
	}
	return res
}

func (fs fields) setAllUnknown() {
	for _, n := range fs.names {
		fs.values[n].SetAllUnknown()
	}
}

func (fs fields) assign(o fields) {
	for _, n := range fs.names {
		fs.values[n].Assign(o.get(n))
	}
}

func (fs fields) merge(o fields) (changed bool) {
	for _, n := range fs.names {
		if fs.values[n].Merge(o.get(n)) {
			changed = true
		}
	}
	return
}

func (fs fields) equals(o fields) bool {
	if len(fs.names) != len(o.names) {
		return false
	}
	for _, n := range fs.names {
		ov, found := o.values[n]
		if !found || !fs.values[n].Equals(ov) {
			return false
		}
	}
	return true
}

func (fs fields) hasUninitializedParts() bool {
	for _, n := range fs.names {
		if fs.values[n].HasUninitializedParts() {
			return true
		}
	}
	return false
}

func (fs fields) String() string {
	strs := make([]func() string, len(fs.names))
	for j, n := range fs.names {
		n, v := n, fs.values[n]
		strs[j] = func() string {
			return colorize.Field(n) + " => " + v.String()
		}
	}
	return i.Indenter().Start("{").NestThunkedSep(",", strs...).End("}")
}

// StructLike is implemented by *Struct, *Header and *HeaderUnion.
type StructLike interface {
	Value
	// Get reads a field. Reading from a known-invalid header yields a
	// StaticError.
	Get(node ir.Node, field string) Value
	// Field returns the storage of a field, for writing.
	Field(field string) Value
	Set(field string, v Value)
	FieldNames() []string
}

type Struct struct {
	base
	fields
}

func (s *Struct) Get(_ ir.Node, field string) Value {
	return s.get(field)
}

func (s *Struct) Field(field string) Value {
	return s.get(field)
}

func (s *Struct) Set(field string, v Value) {
	s.set(field, v)
}

func (s *Struct) FieldNames() []string {
	return s.names
}

func (*Struct) IsScalar() bool {
	return false
}

func (s *Struct) Clone() Value {
	return &Struct{s.derive(), s.clone()}
}

func (s *Struct) SetAllUnknown() {
	s.setAllUnknown()
}

func (s *Struct) Assign(other Value) {
	switch o := Resolve(other).(type) {
	case Error:
	case *Struct:
		s.assign(o.fields)
	default:
		invariant("assigning %T to struct %s", other, s.typ)
	}
}

func (s *Struct) Merge(other Value) bool {
	o, ok := other.(*Struct)
	if !ok {
		mismatch(s, other)
	}
	return s.merge(o.fields)
}

func (s *Struct) Equals(other Value) bool {
	o, ok := other.(*Struct)
	return ok && s.equals(o.fields)
}

func (s *Struct) HasUninitializedParts() bool {
	return s.hasUninitializedParts()
}

func (s *Struct) String() string {
	return s.fields.String()
}

// Resolve replaces a stack element proxy read as a source of data
// by the join of the stack elements.
func Resolve(v Value) Value {
	if ae, ok := v.(*AnyElement); ok {
		return ae.Collapse()
	}
	return v
}

// Header is a struct with a validity bit.
type Header struct {
	base
	fields
	valid *Bool
}

// Valid returns the validity bit.
func (h *Header) Valid() *Bool {
	return h.valid
}

// SetValid makes the validity of the header known.
func (h *Header) SetValid(v bool) {
	h.valid.state, h.valid.value = Constant, v
}

func (h *Header) Get(node ir.Node, field string) Value {
	if h.valid.IsKnown() && !h.valid.value {
		return &StaticError{
			errorBase{newBase(h.ids, nil), node},
			"Reading field from invalid header",
		}
	}
	return h.get(field)
}

func (h *Header) Field(field string) Value {
	return h.get(field)
}

func (h *Header) Set(field string, v Value) {
	h.set(field, v)
}

func (h *Header) FieldNames() []string {
	return h.names
}

func (*Header) IsScalar() bool {
	return false
}

func (h *Header) Clone() Value {
	return &Header{h.derive(), h.clone(), h.valid.Clone().(*Bool)}
}

func (h *Header) SetAllUnknown() {
	h.setAllUnknown()
	h.valid.SetAllUnknown()
}

func (h *Header) Assign(other Value) {
	switch o := Resolve(other).(type) {
	case Error:
	case *Header:
		h.assign(o.fields)
		h.valid.Assign(o.valid)
	default:
		invariant("assigning %T to header %s", other, h.typ)
	}
}

func (h *Header) Merge(other Value) bool {
	o, ok := other.(*Header)
	if !ok {
		mismatch(h, other)
	}
	changed := h.merge(o.fields)
	if h.valid.Merge(o.valid) {
		changed = true
	}
	return changed
}

func (h *Header) Equals(other Value) bool {
	o, ok := other.(*Header)
	return ok && h.valid.Equals(o.valid) && h.equals(o.fields)
}

func (h *Header) HasUninitializedParts() bool {
	return h.valid.HasUninitializedParts() || h.hasUninitializedParts()
}

func (h *Header) String() string {
	return colorize.Kind("header") + "(valid=" + h.valid.String() + ") " + h.fields.String()
}

// HeaderUnion is a set of headers of which at most one is valid.
type HeaderUnion struct {
	base
	fields
}

// IsValid computes the validity of the union from the validity of its
// members.
func (u *HeaderUnion) IsValid() *Bool {
	allInvalid := true
	for _, n := range u.names {
		h := u.values[n].(*Header)
		if !h.valid.IsKnown() {
			allInvalid = false
			continue
		}
		if h.valid.value {
			return &Bool{scalar{newBase(u.ids, ir.Bool), Constant}, true}
		}
	}
	if allInvalid {
		return &Bool{scalar{newBase(u.ids, ir.Bool), Constant}, false}
	}
	return &Bool{scalar{newBase(u.ids, ir.Bool), NotConstant}, false}
}

// SetValidMember makes the named member valid and all others invalid.
func (u *HeaderUnion) SetValidMember(member string) {
	for _, n := range u.names {
		u.values[n].(*Header).SetValid(n == member)
	}
}

// AssignMember assigns v to the named member. The other members stay
// valid only if the assigned member cannot be valid.
func (u *HeaderUnion) AssignMember(member string, v Value) {
	h, ok := u.get(member).(*Header)
	if !ok {
		invariant("%s is not a member of header union %s", member, u.typ)
	}
	h.Assign(v)
	switch {
	case h.valid.IsKnown() && h.valid.value:
		u.SetValidMember(member)
	case h.valid.IsUnknown():
		for _, n := range u.names {
			if o := u.values[n].(*Header); o != h && o.valid.IsKnown() && o.valid.value {
				o.valid.state = NotConstant
			}
		}
	}
}

// Get reads a member header; union members can always be read.
func (u *HeaderUnion) Get(_ ir.Node, field string) Value {
	return u.get(field)
}

func (u *HeaderUnion) Field(field string) Value {
	return u.get(field)
}

func (u *HeaderUnion) Set(field string, v Value) {
	if _, ok := v.(*Header); !ok {
		invariant("header union member %s set to %T", field, v)
	}
	u.set(field, v)
}

func (u *HeaderUnion) FieldNames() []string {
	return u.names
}

func (*HeaderUnion) IsScalar() bool {
	return false
}

func (u *HeaderUnion) Clone() Value {
	return &HeaderUnion{u.derive(), u.clone()}
}

func (u *HeaderUnion) SetAllUnknown() {
	u.setAllUnknown()
}

func (u *HeaderUnion) Assign(other Value) {
	switch o := other.(type) {
	case Error:
	case *HeaderUnion:
		u.assign(o.fields)
	default:
		invariant("assigning %T to header union %s", other, u.typ)
	}
}

func (u *HeaderUnion) Merge(other Value) bool {
	o, ok := other.(*HeaderUnion)
	if !ok {
		mismatch(u, other)
	}
	return u.merge(o.fields)
}

func (u *HeaderUnion) Equals(other Value) bool {
	o, ok := other.(*HeaderUnion)
	return ok && u.equals(o.fields)
}

func (u *HeaderUnion) HasUninitializedParts() bool {
	return u.hasUninitializedParts()
}

func (u *HeaderUnion) String() string {
	return colorize.Kind("union") + " " + u.fields.String()
}

var (
	_ StructLike   = (*Struct)(nil)
	_ StructLike   = (*Header)(nil)
	_ StructLike   = (*HeaderUnion)(nil)
	_ fmt.Stringer = fields{}
)
