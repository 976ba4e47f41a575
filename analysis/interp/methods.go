package interp

import (
	"github.com/cs-au-dk/p4absint/analysis/symbolic"
	"github.com/cs-au-dk/p4absint/ir"
)

// Built-in methods with precise semantics.
const (
	mIsValid    = "isValid"
	mSetValid   = "setValid"
	mSetInvalid = "setInvalid"
	mPushFront  = "push_front"
	mPopFront   = "pop_front"
	mExtract    = "extract"
	mAdvance    = "advance"
	mLookahead  = "lookahead"
	mLength     = "length"
)

func (ev *Evaluator) evalMethodCall(e *ir.MethodCall) symbolic.Value {
	if m, ok := e.Method.(*ir.Member); ok {
		if _, ok := m.Expr.(*ir.TypeNameExpression); !ok {
			obj := ev.lvalue(m.Expr)
			if symbolic.IsError(obj) {
				return obj
			}
			if v, handled := ev.evalBuiltin(e, m, obj); handled {
				return v
			}
		}
	}
	return ev.evalOpaqueCall(e)
}

// evalOpaqueCall models a call without known semantics: every argument
// that may be written becomes unknown.
func (ev *Evaluator) evalOpaqueCall(e *ir.MethodCall) symbolic.Value {
	for _, arg := range e.Args {
		if !arg.Direction.Writes() {
			if v := ev.rvalue(arg.Expr); symbolic.IsError(v) {
				return v
			}
			continue
		}
		v := ev.lvalue(arg.Expr)
		if symbolic.IsError(v) {
			return v
		}
		if arg.Direction == ir.DirInOut {
			ev.passed[arg.Expr] = v.Clone()
		}
		v.SetAllUnknown()
	}
	return ev.unknown(e)
}

func (ev *Evaluator) evalBuiltin(e *ir.MethodCall, m *ir.Member, obj symbolic.Value) (symbolic.Value, bool) {
	switch obj := obj.(type) {
	case *symbolic.Header:
		switch m.Member {
		case mIsValid:
			return obj.Valid().Clone(), true
		case mSetValid:
			if u, member, ok := ev.EnclosingUnion(m.Expr); ok {
				u.SetValidMember(member)
			} else {
				obj.SetValid(true)
			}
			return symbolic.VoidValue(), true
		case mSetInvalid:
			obj.SetValid(false)
			return symbolic.VoidValue(), true
		}
	case *symbolic.AnyElement:
		switch m.Member {
		case mIsValid:
			return obj.Valid().Clone(), true
		case mSetValid, mSetInvalid:
			obj.Write()
			return symbolic.VoidValue(), true
		}
	case *symbolic.HeaderUnion:
		if m.Member == mIsValid {
			return obj.IsValid(), true
		}
	case *symbolic.Array:
		switch m.Member {
		case mPushFront, mPopFront:
			return ev.evalShift(e, obj, m.Member == mPushFront), true
		}
	case *symbolic.PacketIn:
		switch m.Member {
		case mExtract:
			return ev.evalExtract(e, obj), true
		case mAdvance:
			return ev.evalAdvance(e, obj), true
		case mLookahead:
			typ := ev.typeOf(e)
			if len(e.TypeArgs) > 0 {
				typ = e.TypeArgs[0]
			}
			return ev.factory.Create(typ, false), true
		case mLength:
			return ev.unknown(e), true
		}
	}
	return nil, false
}

// EnclosingUnion checks whether target, as evaluated by the last
// evaluation, is a member of a header union. It returns the union and the
// member name.
func (ev *Evaluator) EnclosingUnion(target ir.Expression) (*symbolic.HeaderUnion, string, bool) {
	m, ok := target.(*ir.Member)
	if !ok {
		return nil, "", false
	}
	u, ok := ev.value[m.Expr].(*symbolic.HeaderUnion)
	return u, m.Member, ok
}

func (ev *Evaluator) evalShift(e *ir.MethodCall, a *symbolic.Array, push bool) symbolic.Value {
	if len(e.Args) != 1 {
		return ev.factory.StaticError(e, "Expected one argument")
	}
	n := ev.rvalue(e.Args[0].Expr)
	if symbolic.IsError(n) {
		return n
	}
	count, ok := knownInt(n)
	switch {
	case !ok:
		a.SetAllUnknown()
	case count.Sign() < 0:
		return ev.factory.StaticError(e, "Negative shift amount")
	case !count.IsInt64() || count.Int64() > int64(a.Size()):
		// Everything is shifted out.
		if push {
			a.Shift(a.Size())
		} else {
			a.Shift(-a.Size())
		}
	default:
		amount := int(count.Int64())
		if !push {
			amount = -amount
		}
		a.Shift(amount)
	}
	return symbolic.VoidValue()
}

func (ev *Evaluator) evalExtract(e *ir.MethodCall, p *symbolic.PacketIn) symbolic.Value {
	if len(e.Args) == 0 || len(e.Args) > 2 {
		return ev.factory.StaticError(e, "Expected one or two arguments")
	}
	if len(e.Args) == 2 {
		if size := ev.rvalue(e.Args[1].Expr); symbolic.IsError(size) {
			return size
		}
	}

	target := ev.lvalue(e.Args[0].Expr)
	if symbolic.IsError(target) {
		return target
	}

	typ := target.Type()
	p.Advance(symbolic.Width(typ))
	if len(e.Args) == 2 || !symbolic.IsFixedWidth(typ) {
		p.SetConservative()
	}

	switch target := target.(type) {
	case *symbolic.Header:
		target.SetAllUnknown()
		if u, member, ok := ev.EnclosingUnion(e.Args[0].Expr); ok {
			u.SetValidMember(member)
		} else {
			target.SetValid(true)
		}
	default:
		target.SetAllUnknown()
	}
	return symbolic.VoidValue()
}

func (ev *Evaluator) evalAdvance(e *ir.MethodCall, p *symbolic.PacketIn) symbolic.Value {
	if len(e.Args) != 1 {
		return ev.factory.StaticError(e, "Expected one argument")
	}
	n := ev.rvalue(e.Args[0].Expr)
	if symbolic.IsError(n) {
		return n
	}
	if bits, ok := knownInt(n); ok && bits.Sign() >= 0 && bits.IsInt64() {
		p.Advance(uint(bits.Int64()))
	} else {
		p.SetConservative()
	}
	return symbolic.VoidValue()
}
