package symbolic

import (
	"sort"

	"github.com/cs-au-dk/p4absint/ir"
	"github.com/cs-au-dk/p4absint/utils"
	i "github.com/cs-au-dk/p4absint/utils/indenter"

	"github.com/benbjohnson/immutable"
)

// ValueMap is an environment binding declarations to their current value.
// The bindings are persistent, but the bound values are mutable and owned
// by the map.
type ValueMap struct {
	mp *immutable.Map[ir.Declaration, Value]
}

func NewValueMap() *ValueMap {
	return &ValueMap{utils.NewPointerMap[ir.Declaration, Value]()}
}

func checkDecl(decl ir.Declaration) {
	if decl == nil {
		invariant("nil declaration")
	}
}

func (m *ValueMap) Set(decl ir.Declaration, v Value) {
	checkDecl(decl)
	if v == nil {
		invariant("nil value bound to %s", decl)
	}
	m.mp = m.mp.Set(decl, v)
}

// Get returns the value bound to decl, or nil.
func (m *ValueMap) Get(decl ir.Declaration) Value {
	checkDecl(decl)
	v, _ := m.mp.Get(decl)
	return v
}

func (m *ValueMap) Len() int {
	return m.mp.Len()
}

// ForEach calls do on every binding in unspecified order.
func (m *ValueMap) ForEach(do func(ir.Declaration, Value)) {
	for it := m.mp.Iterator(); !it.Done(); {
		k, v, _ := it.Next()
		do(k, v)
	}
}

// Declarations lists the bound declarations sorted by name.
func (m *ValueMap) Declarations() []ir.Declaration {
	decls := make([]ir.Declaration, 0, m.mp.Len())
	m.ForEach(func(d ir.Declaration, _ Value) {
		decls = append(decls, d)
	})
	sort.SliceStable(decls, func(i, j int) bool {
		return decls[i].DeclName() < decls[j].DeclName()
	})
	return decls
}

// Clone creates an independent copy of the map and every bound value.
func (m *ValueMap) Clone() *ValueMap {
	res := NewValueMap()
	m.ForEach(func(d ir.Declaration, v Value) {
		res.mp = res.mp.Set(d, v.Clone())
	})
	return res
}

// Filter projects the map onto the declarations satisfying keep. Values
// are shared with the receiver.
func (m *ValueMap) Filter(keep func(ir.Declaration) bool) *ValueMap {
	res := NewValueMap()
	m.ForEach(func(d ir.Declaration, v Value) {
		if keep(d) {
			res.mp = res.mp.Set(d, v)
		}
	})
	return res
}

// Merge joins other into the receiver entry by entry. Both maps must bind
// the same declarations. It reports whether any entry changed.
func (m *ValueMap) Merge(other *ValueMap) bool {
	if m.Len() != other.Len() {
		invariant("merging environments of size %d and %d", m.Len(), other.Len())
	}
	changed := false
	m.ForEach(func(d ir.Declaration, v Value) {
		ov, found := other.mp.Get(d)
		if !found {
			invariant("%s not bound in merged environment", d)
		}
		if v.Merge(ov) {
			changed = true
		}
	})
	return changed
}

func (m *ValueMap) Equals(other *ValueMap) bool {
	if m.Len() != other.Len() {
		return false
	}
	for it := m.mp.Iterator(); !it.Done(); {
		d, v, _ := it.Next()
		ov, found := other.mp.Get(d)
		if !found || !v.Equals(ov) {
			return false
		}
	}
	return true
}

func (m *ValueMap) String() string {
	decls := m.Declarations()
	strs := make([]func() string, len(decls))
	for j, d := range decls {
		d := d
		strs[j] = func() string {
			return d.DeclName() + " => " + m.Get(d).String()
		}
	}
	return i.Indenter().Start("[").NestThunkedSep(",", strs...).End("]")
}
