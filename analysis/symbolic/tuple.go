package symbolic

import (
	"strings"
)

// Tuple is a fixed, read-only sequence of values.
type Tuple struct {
	base
	values []Value
}

func (t *Tuple) Size() int {
	return len(t.values)
}

func (t *Tuple) Get(index int) Value {
	return t.values[index]
}

func (t *Tuple) add(v Value) {
	t.values = append(t.values, v)
}

func (*Tuple) IsScalar() bool {
	return false
}

func (t *Tuple) Clone() Value {
	res := &Tuple{t.derive(), make([]Value, len(t.values))}
	for j, v := range t.values {
		res.values[j] = v.Clone()
	}
	return res
}

func (t *Tuple) SetAllUnknown() {
	for _, v := range t.values {
		v.SetAllUnknown()
	}
}

func (t *Tuple) Assign(Value) {
	invariant("%s: tuples are read-only", t)
}

func (t *Tuple) Merge(other Value) bool {
	o, ok := other.(*Tuple)
	if !ok || len(o.values) != len(t.values) {
		mismatch(t, other)
	}
	changed := false
	for j, v := range t.values {
		if v.Merge(o.values[j]) {
			changed = true
		}
	}
	return changed
}

func (t *Tuple) Equals(other Value) bool {
	o, ok := other.(*Tuple)
	if !ok || len(o.values) != len(t.values) {
		return false
	}
	for j, v := range t.values {
		if !v.Equals(o.values[j]) {
			return false
		}
	}
	return true
}

func (t *Tuple) HasUninitializedParts() bool {
	for _, v := range t.values {
		if v.HasUninitializedParts() {
			return true
		}
	}
	return false
}

func (t *Tuple) String() string {
	strs := make([]string, len(t.values))
	for j, v := range t.values {
		strs[j] = v.String()
	}
	return "(" + strings.Join(strs, ", ") + ")"
}
