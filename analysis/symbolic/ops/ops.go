// Package ops folds operators over constant operands. Integer operands of
// fixed width types are kept normalized: bit<W> values lie in [0, 2^W) and
// int<W> values in [-2^(W-1), 2^(W-1)).
package ops

import (
	"errors"
	"fmt"

	"github.com/cs-au-dk/p4absint/ir"

	"github.com/cockroachdb/apd/v3"
)

var (
	ErrDivisionByZero = errors.New("Division by zero")
	ErrNegativeShift  = errors.New("Shift by negative amount")
	ErrShiftTooLarge  = errors.New("Shift amount too large")
	ErrNegativeDivide = errors.New("Division of negative value")
)

// Shifts of arbitrary-precision integers by more than this are not folded.
const maxInfIntShift = 1 << 16

func pow2(n uint) *apd.BigInt {
	return new(apd.BigInt).Lsh(apd.NewBigInt(1), n)
}

func mask(width int) *apd.BigInt {
	m := pow2(uint(width))
	return m.Sub(m, apd.NewBigInt(1))
}

// Normalize wraps v into the range of typ. Values of any other type than
// bit<W> or int<W> are returned as is.
func Normalize(typ ir.Type, v *apd.BigInt) *apd.BigInt {
	t, ok := typ.(*ir.TypeBits)
	if !ok {
		return v
	}
	res := new(apd.BigInt).And(v, mask(t.Width))
	if t.Signed && t.Width > 0 && res.Cmp(pow2(uint(t.Width-1))) >= 0 {
		res.Sub(res, pow2(uint(t.Width)))
	}
	return res
}

// bounds returns the smallest and largest values of a fixed width type.
func bounds(t *ir.TypeBits) (min, max *apd.BigInt) {
	if !t.Signed {
		return apd.NewBigInt(0), mask(t.Width)
	}
	max = mask(t.Width - 1)
	min = new(apd.BigInt).Neg(pow2(uint(t.Width - 1)))
	return
}

func saturate(typ ir.Type, v *apd.BigInt) *apd.BigInt {
	t, ok := typ.(*ir.TypeBits)
	if !ok {
		return v
	}
	min, max := bounds(t)
	switch {
	case v.Cmp(min) < 0:
		return min
	case v.Cmp(max) > 0:
		return max
	}
	return v
}

func shiftAmount(typ ir.Type, r *apd.BigInt) (uint, error) {
	if r.Sign() < 0 {
		return 0, ErrNegativeShift
	}
	if t, ok := typ.(*ir.TypeBits); ok {
		// Everything is shifted out beyond the width.
		if r.Cmp(apd.NewBigInt(int64(t.Width))) >= 0 {
			return uint(t.Width), nil
		}
	} else if r.Cmp(apd.NewBigInt(maxInfIntShift)) > 0 {
		return 0, ErrShiftTooLarge
	}
	return uint(r.Int64()), nil
}

// Arith folds an arithmetic, bitwise or shift operator producing a value of
// type typ.
func Arith(op ir.Op, typ ir.Type, l, r *apd.BigInt) (*apd.BigInt, error) {
	res := new(apd.BigInt)
	switch op {
	case ir.OpAdd:
		res.Add(l, r)
	case ir.OpSub:
		res.Sub(l, r)
	case ir.OpMul:
		res.Mul(l, r)
	case ir.OpDiv, ir.OpMod:
		if r.Sign() == 0 {
			return nil, ErrDivisionByZero
		}
		if l.Sign() < 0 || r.Sign() < 0 {
			return nil, ErrNegativeDivide
		}
		if op == ir.OpDiv {
			res.Quo(l, r)
		} else {
			res.Rem(l, r)
		}
	case ir.OpAddSat:
		return saturate(typ, res.Add(l, r)), nil
	case ir.OpSubSat:
		return saturate(typ, res.Sub(l, r)), nil
	case ir.OpShl:
		n, err := shiftAmount(typ, r)
		if err != nil {
			return nil, err
		}
		res.Lsh(l, n)
	case ir.OpShr:
		n, err := shiftAmount(typ, r)
		if err != nil {
			return nil, err
		}
		res.Rsh(l, n)
	case ir.OpBAnd:
		res.And(l, r)
	case ir.OpBOr:
		res.Or(l, r)
	case ir.OpBXor:
		res.Xor(l, r)
	default:
		return nil, fmt.Errorf("%s is not an arithmetic operator", op)
	}
	return Normalize(typ, res), nil
}

// Compare folds a relational operator.
func Compare(op ir.Op, l, r *apd.BigInt) (bool, error) {
	c := l.Cmp(r)
	switch op {
	case ir.OpEq:
		return c == 0, nil
	case ir.OpNeq:
		return c != 0, nil
	case ir.OpLt:
		return c < 0, nil
	case ir.OpLeq:
		return c <= 0, nil
	case ir.OpGt:
		return c > 0, nil
	case ir.OpGeq:
		return c >= 0, nil
	}
	return false, fmt.Errorf("%s is not a relation", op)
}

// Equality folds == and != given whether the operands are equal.
func Equality(op ir.Op, equal bool) (bool, error) {
	switch op {
	case ir.OpEq:
		return equal, nil
	case ir.OpNeq:
		return !equal, nil
	}
	return false, fmt.Errorf("%s is not an equality", op)
}

// Logical folds the boolean binary operators.
func Logical(op ir.Op, l, r bool) (bool, error) {
	switch op {
	case ir.OpLAnd:
		return l && r, nil
	case ir.OpLOr:
		return l || r, nil
	}
	return Equality(op, l == r)
}

// Unary folds - and ~ on integers.
func Unary(op ir.Op, typ ir.Type, v *apd.BigInt) (*apd.BigInt, error) {
	switch op {
	case ir.OpNeg:
		return Normalize(typ, new(apd.BigInt).Neg(v)), nil
	case ir.OpCmpl:
		return Normalize(typ, new(apd.BigInt).Not(v)), nil
	}
	return nil, fmt.Errorf("%s is not an integer operator", op)
}

// Concat folds l ++ r, where r has rightWidth bits.
func Concat(typ ir.Type, l, r *apd.BigInt, rightWidth int) *apd.BigInt {
	res := new(apd.BigInt).Lsh(l, uint(rightWidth))
	res.Or(res, new(apd.BigInt).And(r, mask(rightWidth)))
	return Normalize(typ, res)
}

// Slice extracts bits hi..lo of v as an unsigned value.
func Slice(v *apd.BigInt, hi, lo int) *apd.BigInt {
	res := new(apd.BigInt).Rsh(v, uint(lo))
	return res.And(res, mask(hi-lo+1))
}

// Cast converts an integer to another integer type.
func Cast(to ir.Type, v *apd.BigInt) *apd.BigInt {
	return Normalize(to, new(apd.BigInt).Set(v))
}
