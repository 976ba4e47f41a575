package interp

import (
	"os"
	"testing"

	"github.com/cs-au-dk/p4absint/analysis/symbolic"
	"github.com/cs-au-dk/p4absint/ir"
	ex "github.com/cs-au-dk/p4absint/examples"
	"github.com/cs-au-dk/p4absint/utils"

	"github.com/go-quicktest/qt"
)

func TestMain(m *testing.M) {
	utils.Opts().SetNoColorize(true)
	os.Exit(m.Run())
}

var pairType = ex.Header("pair_t", "a", ir.Bits(8), "b", ir.Bits(8))

// env is a value map together with the factory its values are built with.
type env struct {
	*symbolic.ValueMap
	f *symbolic.Factory
}

func newEnv() *env {
	return &env{symbolic.NewValueMap(), symbolic.NewFactory()}
}

func (e *env) bind(name string, typ ir.Type, v symbolic.Value) *ir.PathExpression {
	d := ex.Var(name, typ)
	e.Set(d, v)
	return ex.Path(d)
}

// create binds a fresh value of typ.
func (e *env) create(name string, typ ir.Type, uninitialized bool) *ir.PathExpression {
	return e.bind(name, typ, e.f.Create(typ, uninitialized))
}

func (e *env) evaluator() *Evaluator {
	annotations := ir.Annotations()
	return NewEvaluator(annotations, annotations, e.ValueMap, e.f)
}

func (e *env) eval(expr ir.Expression) symbolic.Value {
	return e.evaluator().Evaluate(expr, false)
}

func invariantViolation(do func()) (err error) {
	defer func() {
		err = symbolic.AsInvariantViolation(recover())
	}()
	do()
	return nil
}

func bin(typ ir.Type, op ir.Op, l, r ir.Expression) *ir.Binary {
	return ir.NewBinary(typ, op, l, r)
}

func TestEvaluateExpressions(t *testing.T) {
	e := newEnv()
	x := e.bind("x", ir.Bits(8), e.f.IntegerConst(ir.Bits(8), 5))
	u := e.create("u", ir.Bits(8), false)
	b := e.create("b", ir.Bool, false)
	s := e.bind("s", ir.String, e.f.StringConst("p4"))

	enum := &ir.TypeEnum{Name: "color_t", Members: []string{"Red", "Blue"}}
	red := func() ir.Expression { return ir.NewMember(enum, ir.NewTypeName(enum), "Red") }
	errType := &ir.TypeError{Members: []string{"NoError", "NoMatch"}}
	div0 := bin(ir.Bits(8), ir.OpDiv, x, ex.Bits(8, 0))
	faulty := bin(ir.Bool, ir.OpEq, div0, ex.Bits(8, 1))

	tests := []struct {
		name string
		expr ir.Expression
		want string
	}{
		{"constant is normalized", ex.Bits(8, 300), "44"},
		{"bool literal", ir.NewBool(true), "true"},
		{"string literal", ir.NewString("x"), `"x"`},
		{"path", x, "5"},
		{"path outside environment", ex.Path(ex.Var("c", ir.Bits(8))), "unknown"},
		{"add", bin(ir.Bits(8), ir.OpAdd, x, ex.Bits(8, 3)), "8"},
		{"add wraps", bin(ir.Bits(8), ir.OpAdd, x, ex.Bits(8, 255)), "4"},
		{"add unknown", bin(ir.Bits(8), ir.OpAdd, x, u), "unknown"},
		{"shift", bin(ir.Bits(8), ir.OpShl, x, ex.Bits(8, 1)), "10"},
		{"relation", bin(ir.Bool, ir.OpEq, x, ex.Bits(8, 5)), "true"},
		{"relation unknown", bin(ir.Bool, ir.OpLt, x, u), "unknown"},
		{"division by zero", div0, "Error: Division by zero"},
		{"modulo of unknown by zero", bin(ir.Bits(8), ir.OpMod, u, ex.Bits(8, 0)), "Error: Division by zero"},
		{"error propagates", faulty, "Error: Division by zero"},
		{"concat", bin(ir.Bits(12), ir.OpConcat, x, ir.NewConstant(ir.Bits(4), 1)), "81"},
		{"negate", ir.NewUnary(ir.Bits(8), ir.OpNeg, x), "251"},
		{"complement", ir.NewUnary(ir.Bits(8), ir.OpCmpl, x), "250"},
		{"not", ir.NewUnary(ir.Bool, ir.OpLNot, ir.NewBool(true)), "false"},
		{"not unknown", ir.NewUnary(ir.Bool, ir.OpLNot, b), "unknown"},
		{"and short-circuits", bin(ir.Bool, ir.OpLAnd, ir.NewBool(false), faulty), "false"},
		{"or short-circuits", bin(ir.Bool, ir.OpLOr, ir.NewBool(true), faulty), "true"},
		{"and decided by right operand", bin(ir.Bool, ir.OpLAnd, b, ir.NewBool(false)), "false"},
		{"and unknown", bin(ir.Bool, ir.OpLAnd, b, ir.NewBool(true)), "unknown"},
		{"or known", bin(ir.Bool, ir.OpLOr, ir.NewBool(false), ir.NewBool(false)), "false"},
		{"mux known", ir.NewMux(ir.Bits(8), ir.NewBool(false), ex.Bits(8, 1), ex.Bits(8, 2)), "2"},
		{"mux unknown", ir.NewMux(ir.Bits(8), b, ex.Bits(8, 1), ex.Bits(8, 2)), "unknown"},
		{"mux same branches", ir.NewMux(ir.Bits(8), b, ex.Bits(8, 3), ex.Bits(8, 3)), "3"},
		{"slice", ir.NewSlice(ex.Bits(16, 0xABCD), 11, 4), "188"},
		{"slice unknown", ir.NewSlice(u, 3, 0), "unknown"},
		{"cast truncates", ir.NewCast(ir.Bits(4), ex.Bits(8, 0x1F)), "15"},
		{"cast to signed", ir.NewCast(ir.Int(8), ex.Bits(8, 255)), "-1"},
		{"cast bool to bits", ir.NewCast(ir.Bits(1), ir.NewBool(true)), "1"},
		{"cast bits to bool", ir.NewCast(ir.Bool, ex.Bits(1, 1)), "true"},
		{"string equality", bin(ir.Bool, ir.OpEq, s, ir.NewString("p4")), "true"},
		{"string inequality", bin(ir.Bool, ir.OpNeq, s, ir.NewString("p4")), "false"},
		{"enum member", red(), "color_t.Red"},
		{"enum equality", bin(ir.Bool, ir.OpEq, red(), red()), "true"},
		{"error member", ir.NewMember(errType, ir.NewTypeName(errType), "NoMatch"), "error.NoMatch"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			qt.Check(t, qt.Equals(e.eval(test.expr).String(), test.want))
		})
	}
}

func TestEvaluatorCache(t *testing.T) {
	e := newEnv()
	x := e.bind("x", ir.Bits(8), e.f.IntegerConst(ir.Bits(8), 5))
	three := ex.Bits(8, 3)
	sum := bin(ir.Bits(8), ir.OpAdd, x, three)

	ev := e.evaluator()
	res := ev.Evaluate(sum, false)
	qt.Check(t, qt.Equals(ev.Get(sum), res))
	qt.Check(t, qt.Equals(ev.Get(x), e.Get(x.Decl)))
	qt.Check(t, qt.Equals(ev.Get(three).String(), "3"))

	// Operands that are not needed are never evaluated.
	faulty := bin(ir.Bits(8), ir.OpDiv, x, ex.Bits(8, 0))
	and := bin(ir.Bool, ir.OpLAnd, ir.NewBool(false), bin(ir.Bool, ir.OpEq, faulty, three))
	ev.Evaluate(and, false)
	err := invariantViolation(func() { ev.Get(faulty) })
	qt.Check(t, qt.ErrorIs(err, symbolic.ErrInvariant))

	// The cache is reset by every evaluation.
	err = invariantViolation(func() { ev.Get(sum) })
	qt.Check(t, qt.ErrorIs(err, symbolic.ErrInvariant))
}

func TestNewEvaluatorRejectsMissingMaps(t *testing.T) {
	annotations := ir.Annotations()
	err := invariantViolation(func() {
		NewEvaluator(nil, annotations, symbolic.NewValueMap(), nil)
	})
	qt.Check(t, qt.ErrorIs(err, symbolic.ErrInvariant))

	err = invariantViolation(func() {
		NewEvaluator(annotations, annotations, nil, nil)
	})
	qt.Check(t, qt.ErrorIs(err, symbolic.ErrInvariant))

	ev := NewEvaluator(annotations, annotations, symbolic.NewValueMap(), nil)
	qt.Check(t, qt.IsNotNil(ev.Factory()))
}

func TestUnresolvedPath(t *testing.T) {
	e := newEnv()
	err := invariantViolation(func() {
		e.eval(&ir.PathExpression{Name: "nowhere"})
	})
	qt.Check(t, qt.ErrorIs(err, symbolic.ErrInvariant))
}

func TestHeaderFields(t *testing.T) {
	e := newEnv()
	h := e.create("h", pairType, false)

	v := e.eval(ex.Field(h, "a"))
	qt.Check(t, qt.Equals(v.String(), "Error: Reading field from invalid header"))

	// Fields of invalid headers can be written.
	l := e.evaluator().Evaluate(ex.Field(h, "a"), true)
	qt.Check(t, qt.Equals(l, e.Get(h.Decl).(*symbolic.Header).Field("a")))
}

func TestStackIndexing(t *testing.T) {
	e := newEnv()
	s := e.create("s", ex.Stack(pairType, 2), false)
	i := e.create("i", ir.Bits(32), false)

	tests := []struct {
		name string
		expr ir.Expression
		want string
	}{
		{"size", ex.Field(s, "size"), "2"},
		{"negative index", ex.Index(s, ir.NewConstant(ir.Int(32), -1)), "Error: Negative array index"},
		{"out of bounds", ex.Index(s, ex.Bits(32, 5)), "Exception: StackOutOfBounds"},
		{"field of invalid element", ex.Field(ex.Index(s, ex.Bits(32, 0)), "a"), "Error: Reading field from invalid header"},
		{"last of empty stack", ex.Field(s, "last"), "Exception: StackOutOfBounds"},
		{"error propagates through member", ex.Field(ex.Field(s, "last"), "a"), "Exception: StackOutOfBounds"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			qt.Check(t, qt.Equals(e.eval(test.expr).String(), test.want))
		})
	}

	stack := e.Get(s.Decl).(*symbolic.Array)
	ae, ok := e.eval(ex.Index(s, i)).(*symbolic.AnyElement)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Check(t, qt.Equals(ae.Parent(), stack))
	qt.Check(t, qt.Equals(e.eval(ex.Field(s, "next")), stack.Get(nil, 0)))

	// Writing to an unknown index makes every element unknown.
	w := e.evaluator().Evaluate(ex.Field(ex.Index(s, i), "a"), true)
	qt.Check(t, qt.IsTrue(w.(*symbolic.Integer).IsUnknown()))
	for j := 0; j < stack.Size(); j++ {
		h := stack.Get(nil, j).(*symbolic.Header)
		qt.Check(t, qt.IsTrue(h.Valid().IsUnknown()))
		qt.Check(t, qt.IsTrue(h.Field("a").(*symbolic.Integer).IsUnknown()))
	}
}

func TestAggregateExpressions(t *testing.T) {
	e := newEnv()

	hdr := ir.NewStructExpression(pairType,
		ir.NamedExpression{Name: "a", Expr: ex.Bits(8, 1)},
		ir.NamedExpression{Name: "b", Expr: ex.Bits(8, 2)})
	h, ok := e.eval(hdr).(*symbolic.Header)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Check(t, qt.IsTrue(h.Valid().Value()))
	qt.Check(t, qt.Equals(h.Get(nil, "b").String(), "2"))

	tuple := &ir.TypeTuple{Components: []ir.Type{ir.Bits(8), ir.Bool}}
	list := ir.NewList(tuple, ex.Bits(8, 7), ir.NewBool(true))
	qt.Check(t, qt.Equals(e.eval(ex.Index(list, ex.Bits(32, 1))).String(), "true"))
	tup, ok := e.eval(list).(*symbolic.Tuple)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Check(t, qt.Equals(tup.Size(), 2))

	// A list initializing a struct.
	st := ex.Struct("s_t", "a", ir.Bits(8), "b", ir.Bool)
	annotations := ir.Annotations()
	ev := NewEvaluator(annotations, ir.TypeOverrides{list: st}, e.ValueMap, e.f)
	s, ok := ev.Evaluate(list, false).(*symbolic.Struct)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Check(t, qt.Equals(s.Get(nil, "a").String(), "7"))
	qt.Check(t, qt.Equals(s.Get(nil, "b").String(), "true"))
}
