package interp

import (
	"testing"

	"github.com/cs-au-dk/p4absint/analysis/symbolic"
	"github.com/cs-au-dk/p4absint/ir"
	ex "github.com/cs-au-dk/p4absint/examples"

	"github.com/go-quicktest/qt"
)

func TestPacketMethods(t *testing.T) {
	e := newEnv()
	pkt := e.create("pkt", ex.PacketIn, false)
	h := e.create("h", pairType, true)
	opts := e.create("opts", ex.IPv4Options, true)
	u := e.create("u", ir.Bits(32), false)
	p := e.Get(pkt.Decl).(*symbolic.PacketIn)

	t.Run("extract", func(t *testing.T) {
		res := e.eval(ex.Call(pkt, "extract", nil, ir.Out(h)))
		qt.Check(t, qt.Equals(res, symbolic.Value(symbolic.VoidValue())))

		hdr := e.Get(h.Decl).(*symbolic.Header)
		qt.Check(t, qt.IsTrue(hdr.Valid().Value()))
		qt.Check(t, qt.IsTrue(hdr.Field("a").(*symbolic.Integer).IsUnknown()))
		qt.Check(t, qt.IsFalse(hdr.HasUninitializedParts()))
		qt.Check(t, qt.Equals(p.MinimumOffset(), uint(16)))
		qt.Check(t, qt.IsFalse(p.IsConservative()))
	})

	t.Run("lookahead", func(t *testing.T) {
		res := e.eval(ex.Call(pkt, "lookahead", ir.Bits(8)))
		qt.Check(t, qt.IsTrue(res.(*symbolic.Integer).IsUnknown()))
		qt.Check(t, qt.Equals(p.MinimumOffset(), uint(16)))
	})

	t.Run("advance", func(t *testing.T) {
		e.eval(ex.Call(pkt, "advance", nil, ir.In(ex.Bits(32, 8))))
		qt.Check(t, qt.Equals(p.MinimumOffset(), uint(24)))
		qt.Check(t, qt.IsFalse(p.IsConservative()))
	})

	t.Run("variable extract", func(t *testing.T) {
		e.eval(ex.Call(pkt, "extract", nil, ir.Out(opts), ir.In(ex.Bits(32, 160))))
		qt.Check(t, qt.Equals(p.MinimumOffset(), uint(24)))
		qt.Check(t, qt.IsTrue(p.IsConservative()))
		qt.Check(t, qt.IsTrue(e.Get(opts.Decl).(*symbolic.Header).Valid().Value()))
	})

	t.Run("unknown advance", func(t *testing.T) {
		q := p.Clone().(*symbolic.PacketIn)
		pkt2 := e.bind("pkt2", ex.PacketIn, q)
		e.eval(ex.Call(pkt2, "advance", nil, ir.In(u)))
		qt.Check(t, qt.Equals(q.MinimumOffset(), p.MinimumOffset()))
		qt.Check(t, qt.IsTrue(q.IsConservative()))
	})

	t.Run("malformed extract", func(t *testing.T) {
		res := e.eval(ex.Call(pkt, "extract", nil))
		qt.Check(t, qt.Equals(res.String(), "Error: Expected one or two arguments"))
	})
}

func TestValidity(t *testing.T) {
	e := newEnv()
	h := e.create("h", pairType, false)
	hdr := e.Get(h.Decl).(*symbolic.Header)

	valid := e.eval(ex.Call(h, "isValid", ir.Bool)).(*symbolic.Bool)
	qt.Check(t, qt.IsFalse(valid.Value()))
	qt.Check(t, qt.Not(qt.Equals(valid, hdr.Valid())))

	e.eval(ex.Call(h, "setValid", nil))
	qt.Check(t, qt.IsTrue(hdr.Valid().Value()))
	// The result of isValid is a snapshot.
	qt.Check(t, qt.IsFalse(valid.Value()))

	e.eval(ex.Call(h, "setInvalid", nil))
	qt.Check(t, qt.IsTrue(hdr.Valid().IsKnown()))
	qt.Check(t, qt.IsFalse(hdr.Valid().Value()))
}

func TestHeaderUnionSetValid(t *testing.T) {
	e := newEnv()
	u := e.create("u", ex.Union("u_t", "x", pairType, "y", pairType), false)
	union := e.Get(u.Decl).(*symbolic.HeaderUnion)

	qt.Check(t, qt.Equals(e.eval(ex.Call(u, "isValid", ir.Bool)).String(), "false"))

	e.eval(ex.Call(ex.Field(u, "x"), "setValid", nil))
	e.eval(ex.Call(ex.Field(u, "y"), "setValid", nil))
	qt.Check(t, qt.IsFalse(union.Field("x").(*symbolic.Header).Valid().Value()))
	qt.Check(t, qt.IsTrue(union.Field("y").(*symbolic.Header).Valid().Value()))
	qt.Check(t, qt.Equals(e.eval(ex.Call(u, "isValid", ir.Bool)).String(), "true"))
}

func TestExtractIntoUnionMember(t *testing.T) {
	e := newEnv()
	pkt := e.create("pkt", ex.PacketIn, false)
	u := e.create("u", ex.Union("u_t", "x", pairType, "y", pairType), false)
	union := e.Get(u.Decl).(*symbolic.HeaderUnion)

	e.eval(ex.Call(ex.Field(u, "x"), "setValid", nil))
	e.eval(ex.Call(pkt, "extract", nil, ir.Out(ex.Field(u, "y"))))

	x, y := union.Field("x").(*symbolic.Header), union.Field("y").(*symbolic.Header)
	qt.Check(t, qt.IsFalse(x.Valid().Value()))
	qt.Check(t, qt.IsTrue(x.Valid().IsKnown()))
	qt.Check(t, qt.IsTrue(y.Valid().Value()))
	qt.Check(t, qt.IsTrue(y.Field("a").(*symbolic.Integer).IsUnknown()))
	qt.Check(t, qt.Equals(e.Get(pkt.Decl).(*symbolic.PacketIn).MinimumOffset(), uint(16)))
}

func TestStackMethods(t *testing.T) {
	e := newEnv()
	s := e.create("s", ex.Stack(pairType, 3), false)
	n := e.create("n", ir.Bits(32), false)
	stack := e.Get(s.Decl).(*symbolic.Array)
	first := stack.Get(nil, 0).(*symbolic.Header)
	first.SetValid(true)

	e.eval(ex.Call(s, "push_front", nil, ir.In(ex.Bits(32, 2))))
	qt.Check(t, qt.Equals(stack.Get(nil, 2), symbolic.Value(first)))
	qt.Check(t, qt.IsFalse(stack.Get(nil, 0).(*symbolic.Header).Valid().Value()))
	qt.Check(t, qt.Equals(e.eval(ex.Field(s, "lastIndex")).String(), "2"))

	e.eval(ex.Call(s, "pop_front", nil, ir.In(ex.Bits(32, 2))))
	qt.Check(t, qt.Equals(stack.Get(nil, 0), symbolic.Value(first)))

	e.eval(ex.Call(s, "pop_front", nil, ir.In(ex.Bits(32, 7))))
	qt.Check(t, qt.Equals(e.eval(ex.Field(s, "last")).String(), "Exception: StackOutOfBounds"))

	res := e.eval(ex.Call(s, "push_front", nil, ir.In(ir.NewConstant(ir.Int(32), -1))))
	qt.Check(t, qt.Equals(res.String(), "Error: Negative shift amount"))

	e.eval(ex.Call(s, "push_front", nil, ir.In(n)))
	for j := 0; j < stack.Size(); j++ {
		qt.Check(t, qt.IsTrue(stack.Get(nil, j).(*symbolic.Header).Valid().IsUnknown()))
	}
	_, ok := e.eval(ex.Field(s, "next")).(*symbolic.AnyElement)
	qt.Check(t, qt.IsTrue(ok))
}

func TestAnyElementMethods(t *testing.T) {
	e := newEnv()
	s := e.create("s", ex.Stack(pairType, 2), false)
	i := e.create("i", ir.Bits(32), false)
	stack := e.Get(s.Decl).(*symbolic.Array)
	for j := 0; j < stack.Size(); j++ {
		stack.Get(nil, j).(*symbolic.Header).SetValid(true)
	}

	qt.Check(t, qt.Equals(e.eval(ex.Call(ex.Index(s, i), "isValid", ir.Bool)).String(), "true"))

	e.eval(ex.Call(ex.Index(s, i), "setInvalid", nil))
	for j := 0; j < stack.Size(); j++ {
		qt.Check(t, qt.IsTrue(stack.Get(nil, j).(*symbolic.Header).Valid().IsUnknown()))
	}
}

func TestOpaqueCalls(t *testing.T) {
	e := newEnv()
	x := e.bind("x", ir.Bits(8), e.f.IntegerConst(ir.Bits(8), 1))
	y := e.bind("y", ir.Bits(8), e.f.IntegerConst(ir.Bits(8), 2))
	h := e.create("h", pairType, true)

	res := e.eval(ex.Func("f", ir.Bits(8), ir.Out(x), ir.In(y), ir.InOut(h)))
	qt.Check(t, qt.IsTrue(res.(*symbolic.Integer).IsUnknown()))
	qt.Check(t, qt.IsTrue(e.Get(x.Decl).(*symbolic.Integer).IsUnknown()))
	qt.Check(t, qt.IsTrue(e.Get(y.Decl).(*symbolic.Integer).IsKnown()))
	qt.Check(t, qt.IsFalse(e.Get(h.Decl).HasUninitializedParts()))

	qt.Check(t, qt.Equals(e.eval(ex.Func("g", nil)), symbolic.Value(symbolic.VoidValue())))

	div0 := bin(ir.Bits(8), ir.OpDiv, y, ex.Bits(8, 0))
	qt.Check(t, qt.Equals(e.eval(ex.Func("f", nil, ir.In(div0))).String(), "Error: Division by zero"))

	// Inout arguments are recorded as passed.
	h2 := e.create("h2", pairType, true)
	ev := e.evaluator()
	ev.Evaluate(ex.Func("f", nil, ir.InOut(h2)), false)
	passed, ok := ev.Argument(h2)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Check(t, qt.IsTrue(passed.HasUninitializedParts()))
	qt.Check(t, qt.IsFalse(e.Get(h2.Decl).HasUninitializedParts()))
	_, ok = ev.Argument(x)
	qt.Check(t, qt.IsFalse(ok))

	// Unknown methods of known objects are opaque as well.
	e.eval(ex.Call(h, "frobnicate", nil, ir.Out(y)))
	qt.Check(t, qt.IsTrue(e.Get(y.Decl).(*symbolic.Integer).IsUnknown()))
}
