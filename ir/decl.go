package ir

// Declaration is anything a PathExpression may resolve to and an
// environment may bind a value to.
type Declaration interface {
	Node
	DeclName() string
	DeclType() Type
}

type (
	// Variable is a local variable declaration. It doubles as a statement.
	Variable struct {
		Name string
		Typ  Type
		Init Expression
	}

	Parameter struct {
		Name      string
		Typ       Type
		Direction Direction
	}
)

func (v *Variable) DeclName() string { return v.Name }
func (v *Variable) DeclType() Type   { return v.Typ }
func (v *Variable) String() string   { return v.Name }
func (*Variable) isStatement()       {}

func (p *Parameter) DeclName() string { return p.Name }
func (p *Parameter) DeclType() Type   { return p.Typ }
func (p *Parameter) String() string   { return p.Name }

// TypeMap resolves the canonical type of expressions.
type TypeMap interface {
	TypeOf(e Expression) Type
}

// RefMap resolves path expressions to declarations.
type RefMap interface {
	DeclarationOf(p *PathExpression) Declaration
}

type annotations struct{}

// Annotations returns the TypeMap and RefMap that read the type and
// declaration annotations left on nodes by the front end.
func Annotations() interface {
	TypeMap
	RefMap
} {
	return annotations{}
}

func (annotations) TypeOf(e Expression) Type { return e.Type() }

func (annotations) DeclarationOf(p *PathExpression) Declaration { return p.Decl }

// TypeOverrides is a TypeMap consulting an explicit table before falling
// back to node annotations.
type TypeOverrides map[Expression]Type

func (m TypeOverrides) TypeOf(e Expression) Type {
	if t, ok := m[e]; ok {
		return t
	}
	return e.Type()
}
