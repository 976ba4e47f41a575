package absint

import (
	"fmt"

	"github.com/cs-au-dk/p4absint/analysis/interp"
	"github.com/cs-au-dk/p4absint/analysis/symbolic"
	"github.com/cs-au-dk/p4absint/ir"
)

// Interpreter executes statements on symbolic environments and records
// the faults it finds.
type Interpreter struct {
	refMap  ir.RefMap
	typeMap ir.TypeMap
	factory *symbolic.Factory
	diags   diagnostics
}

func NewInterpreter(refMap ir.RefMap, typeMap ir.TypeMap, factory *symbolic.Factory) *Interpreter {
	if factory == nil {
		factory = symbolic.NewFactory()
	}
	return &Interpreter{refMap: refMap, typeMap: typeMap, factory: factory}
}

func (in *Interpreter) Factory() *symbolic.Factory {
	return in.factory
}

// Diagnostics returns the diagnostics reported so far.
func (in *Interpreter) Diagnostics() []Diagnostic {
	return in.diags.sorted()
}

// Exec executes stmt on env and returns the resulting environment. env may
// be updated in place. Invariant violations are returned as errors.
func (in *Interpreter) Exec(stmt ir.Statement, env *symbolic.ValueMap) (res *symbolic.ValueMap, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ierr := symbolic.AsInvariantViolation(r); ierr != nil {
				res, err = nil, fmt.Errorf("executing %s: %w", stmt, ierr)
				return
			}
			panic(r)
		}
	}()
	return in.exec(stmt, env), nil
}

func (in *Interpreter) evaluator(env *symbolic.ValueMap) *interp.Evaluator {
	return interp.NewEvaluator(in.refMap, in.typeMap, env, in.factory)
}

// read evaluates expr as an rvalue and reports faults. It returns nil if
// the evaluation yields an error.
func (in *Interpreter) read(expr ir.Expression, env *symbolic.ValueMap) symbolic.Value {
	v := in.evaluator(env).Evaluate(expr, false)
	if in.checkError(expr, v) {
		return nil
	}
	if v.HasUninitializedParts() {
		in.diags.report(UninitializedRead, expr, "%s may be uninitialized", expr)
	}
	return v
}

func (in *Interpreter) checkError(node ir.Node, v symbolic.Value) bool {
	if e, ok := v.(symbolic.Error); ok {
		in.diags.report(StaticFault, node, "%s", e.Message())
		return true
	}
	return false
}

func (in *Interpreter) exec(stmt ir.Statement, env *symbolic.ValueMap) *symbolic.ValueMap {
	switch s := stmt.(type) {
	case *ir.EmptyStatement:
	case *ir.AssignmentStatement:
		r := in.read(s.Right, env)
		if r == nil {
			return env
		}
		// The source may alias storage reachable from the target.
		r = symbolic.Resolve(r).Clone()
		ev := in.evaluator(env)
		l := ev.Evaluate(s.Left, true)
		if in.checkError(s.Left, l) {
			return env
		}
		if u, member, ok := ev.EnclosingUnion(s.Left); ok {
			u.AssignMember(member, r)
		} else {
			l.Assign(r)
		}
	case *ir.MethodCallStatement:
		ev := in.evaluator(env)
		res := ev.Evaluate(s.Call, false)
		for _, arg := range s.Call.Args {
			if arg.Direction == ir.DirOut {
				continue
			}
			if v, ok := ev.Argument(arg.Expr); ok && !symbolic.IsError(v) && v.HasUninitializedParts() {
				in.diags.report(UninitializedRead, arg.Expr, "%s may be uninitialized", arg.Expr)
			}
		}
		in.checkError(s, res)
	case *ir.Variable:
		v := in.factory.Create(s.Typ, true)
		if s.Init != nil {
			if r := in.read(s.Init, env); r != nil {
				v = initialize(v, symbolic.Resolve(r))
			}
		}
		env.Set(s, v)
	case *ir.BlockStatement:
		scope := declarations(env)
		for _, c := range s.Components {
			env = in.exec(c, env)
		}
		return env.Filter(scope)
	case *ir.IfStatement:
		return in.execIf(s, env)
	default:
		panic(fmt.Errorf("%w: cannot execute %s (%T)", symbolic.ErrInvariant, stmt, stmt))
	}
	return env
}

// initialize gives the fresh value v of a declaration the value of its
// initializer. Tuples are read-only, so they are bound to a copy.
func initialize(v, init symbolic.Value) symbolic.Value {
	if _, ok := v.(*symbolic.Tuple); ok {
		if _, ok := init.(*symbolic.Tuple); !ok {
			panic(fmt.Errorf("%w: initializing tuple with %T", symbolic.ErrInvariant, init))
		}
		return init.Clone()
	}
	v.Assign(init)
	return v
}

// declarations returns a predicate recognizing the declarations bound in
// env.
func declarations(env *symbolic.ValueMap) func(ir.Declaration) bool {
	scope := make(map[ir.Declaration]bool, env.Len())
	env.ForEach(func(d ir.Declaration, _ symbolic.Value) {
		scope[d] = true
	})
	return func(d ir.Declaration) bool { return scope[d] }
}

func (in *Interpreter) execIf(s *ir.IfStatement, env *symbolic.ValueMap) *symbolic.ValueMap {
	c := in.read(s.Cond, env)
	if c == nil {
		return env
	}
	if b, ok := c.(*symbolic.Bool); ok && b.IsKnown() {
		switch {
		case b.Value():
			return in.exec(s.Then, env)
		case s.Else != nil:
			return in.exec(s.Else, env)
		}
		return env
	}

	scope := declarations(env)
	thenEnv := in.exec(s.Then, env.Clone()).Filter(scope)
	elseEnv := env
	if s.Else != nil {
		elseEnv = in.exec(s.Else, env)
	}
	thenEnv.Merge(elseEnv.Filter(scope))
	return thenEnv
}
