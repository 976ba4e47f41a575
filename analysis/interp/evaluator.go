package interp

import (
	"fmt"

	"github.com/cs-au-dk/p4absint/analysis/symbolic"
	"github.com/cs-au-dk/p4absint/analysis/symbolic/ops"
	"github.com/cs-au-dk/p4absint/ir"
	"github.com/cs-au-dk/p4absint/utils"

	"github.com/cockroachdb/apd/v3"
)

// Evaluator computes the symbolic value of expressions in an environment.
// Evaluating calls with side effects updates the environment in place.
type Evaluator struct {
	refMap   ir.RefMap
	typeMap  ir.TypeMap
	valueMap *symbolic.ValueMap
	factory  *symbolic.Factory

	evaluatingLeftValue bool
	value               map[ir.Expression]symbolic.Value
	// Values of inout arguments before the call overwrote them.
	passed map[ir.Expression]symbolic.Value
}

func NewEvaluator(
	refMap ir.RefMap,
	typeMap ir.TypeMap,
	valueMap *symbolic.ValueMap,
	factory *symbolic.Factory,
) *Evaluator {
	switch {
	case refMap == nil:
		panic(fmt.Errorf("%w: nil reference map", symbolic.ErrInvariant))
	case typeMap == nil:
		panic(fmt.Errorf("%w: nil type map", symbolic.ErrInvariant))
	case valueMap == nil:
		panic(fmt.Errorf("%w: nil value map", symbolic.ErrInvariant))
	}
	if factory == nil {
		factory = symbolic.NewFactory()
	}
	return &Evaluator{
		refMap:   refMap,
		typeMap:  typeMap,
		valueMap: valueMap,
		factory:  factory,
		value:    make(map[ir.Expression]symbolic.Value),
		passed:   make(map[ir.Expression]symbolic.Value),
	}
}

// Evaluate computes the value of expr. If leftValue is set the result is
// the storage that an assignment to expr writes to.
//
// The results for sub-expressions are available through Get until the next
// call to Evaluate.
func (ev *Evaluator) Evaluate(expr ir.Expression, leftValue bool) symbolic.Value {
	ev.value = make(map[ir.Expression]symbolic.Value)
	ev.passed = make(map[ir.Expression]symbolic.Value)
	ev.evaluatingLeftValue = leftValue
	return ev.eval(expr)
}

// Get returns the value computed for expr by the last evaluation.
func (ev *Evaluator) Get(expr ir.Expression) symbolic.Value {
	v, found := ev.value[expr]
	if !found {
		panic(fmt.Errorf("%w: no evaluation for %s", symbolic.ErrInvariant, expr))
	}
	return v
}

// Argument returns the value that expr had when the last evaluation passed
// it to a call. It reports false if expr was not evaluated.
func (ev *Evaluator) Argument(expr ir.Expression) (symbolic.Value, bool) {
	if v, found := ev.passed[expr]; found {
		return v, true
	}
	v, found := ev.value[expr]
	return v, found
}

func (ev *Evaluator) Factory() *symbolic.Factory {
	return ev.factory
}

func (ev *Evaluator) set(expr ir.Expression, v symbolic.Value) symbolic.Value {
	utils.EvalLog(func() string {
		return fmt.Sprintf("Symbolic evaluation of %s is %s", expr, v)
	})
	ev.value[expr] = v
	return v
}

func (ev *Evaluator) typeOf(expr ir.Expression) ir.Type {
	return ev.typeMap.TypeOf(expr)
}

// unknown creates an initialized value of the type of expr about which
// nothing is known.
func (ev *Evaluator) unknown(expr ir.Expression) symbolic.Value {
	typ := ev.typeOf(expr)
	if typ == nil {
		return symbolic.VoidValue()
	}
	return ev.factory.Create(typ, false)
}

// rvalue evaluates expr for reading, regardless of the current mode.
func (ev *Evaluator) rvalue(expr ir.Expression) symbolic.Value {
	saved := ev.evaluatingLeftValue
	ev.evaluatingLeftValue = false
	defer func() { ev.evaluatingLeftValue = saved }()
	return ev.eval(expr)
}

// lvalue evaluates expr for writing, regardless of the current mode.
func (ev *Evaluator) lvalue(expr ir.Expression) symbolic.Value {
	saved := ev.evaluatingLeftValue
	ev.evaluatingLeftValue = true
	defer func() { ev.evaluatingLeftValue = saved }()
	return ev.eval(expr)
}

func (ev *Evaluator) eval(expr ir.Expression) symbolic.Value {
	if v, found := ev.value[expr]; found {
		return v
	}

	var v symbolic.Value
	switch e := expr.(type) {
	case *ir.Constant:
		v = ev.factory.IntegerValue(ev.typeOf(e), ops.Cast(ev.typeOf(e), e.Value))
	case *ir.BoolLiteral:
		v = ev.factory.BoolConst(e.Value)
	case *ir.StringLiteral:
		v = ev.factory.StringConst(e.Value)
	case *ir.PathExpression:
		v = ev.evalPath(e)
	case *ir.Member:
		v = ev.evalMember(e)
	case *ir.ArrayIndex:
		v = ev.evalArrayIndex(e)
	case *ir.Binary:
		v = ev.evalBinary(e)
	case *ir.Unary:
		v = ev.evalUnary(e)
	case *ir.Mux:
		v = ev.evalMux(e)
	case *ir.Slice:
		v = ev.evalSlice(e)
	case *ir.Cast:
		v = ev.evalCast(e)
	case *ir.ListExpression:
		v = ev.evalList(e)
	case *ir.StructExpression:
		v = ev.evalStruct(e)
	case *ir.MethodCall:
		v = ev.evalMethodCall(e)
	default:
		panic(fmt.Errorf("%w: cannot evaluate %s (%T)", symbolic.ErrInvariant, expr, expr))
	}

	return ev.set(expr, v)
}

func (ev *Evaluator) evalPath(e *ir.PathExpression) symbolic.Value {
	decl := ev.refMap.DeclarationOf(e)
	if decl == nil {
		panic(fmt.Errorf("%w: unresolved reference %s", symbolic.ErrInvariant, e))
	}
	if v := ev.valueMap.Get(decl); v != nil {
		return v
	}
	// Declarations outside the environment, e.g. constants of other scopes.
	return ev.unknown(e)
}

func (ev *Evaluator) evalMember(e *ir.Member) symbolic.Value {
	if tn, ok := e.Expr.(*ir.TypeNameExpression); ok {
		switch tn.Type().(type) {
		case *ir.TypeEnum, *ir.TypeError:
			return ev.factory.EnumConst(ev.typeOf(e), e.Member)
		}
		return ev.unknown(e)
	}

	l := ev.eval(e.Expr)
	if symbolic.IsError(l) {
		return l
	}

	switch l := l.(type) {
	case *symbolic.Array:
		switch e.Member {
		case "size":
			return ev.factory.IntegerConst(ev.typeOf(e), int64(l.Size()))
		case "next":
			return l.Next(e)
		case "last":
			return l.Last(e)
		case "lastIndex":
			return l.LastIndex(e)
		}
	case *symbolic.AnyElement:
		if ev.evaluatingLeftValue {
			// The written slot is unknown. Writes to the returned field are
			// not observable.
			l.Write()
			return ev.unknown(e)
		}
		return l.Get(e, e.Member)
	case symbolic.StructLike:
		if ev.evaluatingLeftValue {
			return l.Field(e.Member)
		}
		return l.Get(e, e.Member)
	}
	return ev.unknown(e)
}

func knownInt(v symbolic.Value) (*apd.BigInt, bool) {
	if i, ok := v.(*symbolic.Integer); ok && i.IsKnown() {
		return i.Value(), true
	}
	return nil, false
}

func knownBool(v symbolic.Value) (value, known bool) {
	if b, ok := v.(*symbolic.Bool); ok && b.IsKnown() {
		return b.Value(), true
	}
	return false, false
}

func (ev *Evaluator) evalArrayIndex(e *ir.ArrayIndex) symbolic.Value {
	l := ev.eval(e.Left)
	if symbolic.IsError(l) {
		return l
	}
	r := ev.rvalue(e.Right)
	if symbolic.IsError(r) {
		return r
	}

	index, known := knownInt(r)
	if known && index.Sign() < 0 {
		return ev.factory.StaticError(e, "Negative array index")
	}

	switch l := l.(type) {
	case *symbolic.Array:
		switch {
		case !known:
			return l.AnyElement()
		case !index.IsInt64():
			return ev.factory.Exception(e, symbolic.StackOutOfBounds)
		}
		return l.Get(e, int(index.Int64()))
	case *symbolic.Tuple:
		if known && index.IsInt64() && index.Int64() < int64(l.Size()) {
			return l.Get(int(index.Int64()))
		}
	}
	return ev.unknown(e)
}

func (ev *Evaluator) evalBinary(e *ir.Binary) symbolic.Value {
	if e.Op == ir.OpLAnd || e.Op == ir.OpLOr {
		return ev.evalShortCircuit(e)
	}

	l := ev.eval(e.Left)
	if symbolic.IsError(l) {
		return l
	}
	r := ev.eval(e.Right)
	if symbolic.IsError(r) {
		return r
	}
	l, r = symbolic.Resolve(l), symbolic.Resolve(r)

	typ := ev.typeOf(e)
	if e.Op == ir.OpDiv || e.Op == ir.OpMod {
		if rv, ok := knownInt(r); ok && rv.Sign() == 0 {
			return ev.factory.StaticError(e, ops.ErrDivisionByZero.Error())
		}
	}

	switch l := l.(type) {
	case *symbolic.Integer:
		lv, lok := knownInt(l)
		rv, rok := knownInt(r)
		if !lok || !rok {
			break
		}
		switch {
		case e.Op.IsRelation():
			res, err := ops.Compare(e.Op, lv, rv)
			if err != nil {
				return ev.factory.StaticError(e, err.Error())
			}
			return ev.factory.BoolConst(res)
		case e.Op == ir.OpConcat:
			rt, ok := ev.typeOf(e.Right).(*ir.TypeBits)
			if !ok {
				break
			}
			return ev.factory.IntegerValue(typ, ops.Concat(typ, lv, rv, rt.Width))
		default:
			res, err := ops.Arith(e.Op, typ, lv, rv)
			if err != nil {
				return ev.factory.StaticError(e, err.Error())
			}
			return ev.factory.IntegerValue(typ, res)
		}
	case *symbolic.Bool:
		lv, lok := knownBool(l)
		rv, rok := knownBool(r)
		if lok && rok {
			if res, err := ops.Logical(e.Op, lv, rv); err == nil {
				return ev.factory.BoolConst(res)
			}
		}
	case *symbolic.String:
		if o, ok := r.(*symbolic.String); ok && l.IsKnown() && o.IsKnown() {
			if res, err := ops.Equality(e.Op, l.Value() == o.Value()); err == nil {
				return ev.factory.BoolConst(res)
			}
		}
	case *symbolic.Enum:
		if o, ok := r.(*symbolic.Enum); ok && l.IsKnown() && o.IsKnown() {
			if res, err := ops.Equality(e.Op, l.Member() == o.Member()); err == nil {
				return ev.factory.BoolConst(res)
			}
		}
	}

	return ev.factory.Create(typ, false)
}

// evalShortCircuit evaluates && and ||. The right operand is not evaluated
// when the left operand decides the result.
func (ev *Evaluator) evalShortCircuit(e *ir.Binary) symbolic.Value {
	l := ev.eval(e.Left)
	if symbolic.IsError(l) {
		return l
	}
	decisive := e.Op == ir.OpLOr
	lv, lok := knownBool(l)
	if lok && lv == decisive {
		return ev.factory.BoolConst(decisive)
	}

	r := ev.eval(e.Right)
	if symbolic.IsError(r) {
		return r
	}
	rv, rok := knownBool(r)
	switch {
	case rok && rv == decisive:
		return ev.factory.BoolConst(decisive)
	case lok && rok:
		return ev.factory.BoolConst(!decisive)
	}
	return ev.factory.Bool(symbolic.NotConstant)
}

func (ev *Evaluator) evalUnary(e *ir.Unary) symbolic.Value {
	v := ev.eval(e.Expr)
	if symbolic.IsError(v) {
		return v
	}
	typ := ev.typeOf(e)
	switch e.Op {
	case ir.OpLNot:
		if b, ok := knownBool(v); ok {
			return ev.factory.BoolConst(!b)
		}
	case ir.OpNeg, ir.OpCmpl:
		if i, ok := knownInt(v); ok {
			res, err := ops.Unary(e.Op, typ, i)
			if err != nil {
				return ev.factory.StaticError(e, err.Error())
			}
			return ev.factory.IntegerValue(typ, res)
		}
	}
	return ev.factory.Create(typ, false)
}

func (ev *Evaluator) evalMux(e *ir.Mux) symbolic.Value {
	c := ev.eval(e.Cond)
	if symbolic.IsError(c) {
		return c
	}
	if b, ok := knownBool(c); ok {
		if b {
			return ev.eval(e.IfTrue)
		}
		return ev.eval(e.IfFalse)
	}

	t := ev.eval(e.IfTrue)
	if symbolic.IsError(t) {
		return t
	}
	f := ev.eval(e.IfFalse)
	if symbolic.IsError(f) {
		return f
	}
	res := symbolic.Resolve(t).Clone()
	res.Merge(symbolic.Resolve(f))
	return res
}

func (ev *Evaluator) evalSlice(e *ir.Slice) symbolic.Value {
	v := ev.eval(e.Expr)
	if symbolic.IsError(v) {
		return v
	}
	if i, ok := knownInt(v); ok {
		return ev.factory.IntegerValue(ev.typeOf(e), ops.Slice(i, e.Hi, e.Lo))
	}
	return ev.factory.Create(ev.typeOf(e), false)
}

func (ev *Evaluator) evalCast(e *ir.Cast) symbolic.Value {
	v := ev.eval(e.Expr)
	if symbolic.IsError(v) {
		return v
	}
	to := ev.typeOf(e)
	switch to := to.(type) {
	case *ir.TypeBits, *ir.TypeInfInt:
		if i, ok := knownInt(v); ok {
			return ev.factory.IntegerValue(to, ops.Cast(to, i))
		}
		if b, ok := knownBool(v); ok {
			if b {
				return ev.factory.IntegerConst(to, 1)
			}
			return ev.factory.IntegerConst(to, 0)
		}
	case *ir.TypeBool:
		if i, ok := knownInt(v); ok {
			return ev.factory.BoolConst(i.Sign() != 0)
		}
		if _, ok := v.(*symbolic.Bool); ok {
			return v
		}
	}
	if !v.IsScalar() {
		return v
	}
	return ev.factory.Create(to, false)
}

func (ev *Evaluator) evalList(e *ir.ListExpression) symbolic.Value {
	values := make([]symbolic.Value, len(e.Components))
	for j, c := range e.Components {
		v := ev.eval(c)
		if symbolic.IsError(v) {
			return v
		}
		values[j] = symbolic.Resolve(v).Clone()
	}

	switch typ := ev.typeOf(e).(type) {
	case *ir.TypeTuple:
		return ev.factory.Tuple(typ, values...)
	case ir.StructLike:
		// List initializer of a struct or header.
		s := ev.factory.Create(typ, false).(symbolic.StructLike)
		for j, fd := range typ.FieldList() {
			if j < len(values) {
				s.Set(fd.Name, values[j])
			}
		}
		if h, ok := s.(*symbolic.Header); ok {
			h.SetValid(true)
		}
		return s
	}
	return ev.unknown(e)
}

func (ev *Evaluator) evalStruct(e *ir.StructExpression) symbolic.Value {
	typ, ok := ev.typeOf(e).(ir.StructLike)
	if !ok {
		return ev.unknown(e)
	}
	s := ev.factory.Create(typ, false).(symbolic.StructLike)
	for _, f := range e.Fields {
		v := ev.eval(f.Expr)
		if symbolic.IsError(v) {
			return v
		}
		s.Set(f.Name, symbolic.Resolve(v).Clone())
	}
	if h, ok := s.(*symbolic.Header); ok {
		h.SetValid(true)
	}
	return s
}
