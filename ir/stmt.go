package ir

import "strings"

// Statement is a statement executed by an analysis driver.
type Statement interface {
	Node
	isStatement()
}

type (
	AssignmentStatement struct {
		Left  Expression
		Right Expression
	}

	MethodCallStatement struct {
		Call *MethodCall
	}

	IfStatement struct {
		Cond Expression
		Then Statement
		// Else may be nil.
		Else Statement
	}

	BlockStatement struct {
		Components []Statement
	}

	EmptyStatement struct{}
)

func (*AssignmentStatement) isStatement() {}
func (*MethodCallStatement) isStatement() {}
func (*IfStatement) isStatement()         {}
func (*BlockStatement) isStatement()      {}
func (*EmptyStatement) isStatement()      {}

func (s *AssignmentStatement) String() string {
	return s.Left.String() + " = " + s.Right.String() + ";"
}
func (s *MethodCallStatement) String() string { return s.Call.String() + ";" }
func (s *IfStatement) String() string         { return "if (" + s.Cond.String() + ") ..." }
func (*EmptyStatement) String() string        { return ";" }

func (s *BlockStatement) String() string {
	strs := make([]string, len(s.Components))
	for i, c := range s.Components {
		strs[i] = c.String()
	}
	return "{ " + strings.Join(strs, " ") + " }"
}

const (
	StateStart  = "start"
	StateAccept = "accept"
	StateReject = "reject"
)

type (
	// Parser is a parser state machine.
	Parser struct {
		Name   string
		Params []*Parameter
		Locals []*Variable
		States []*ParserState
	}

	// ParserState transitions either through Select, or unconditionally to
	// Next when Select is nil.
	ParserState struct {
		Name       string
		Components []Statement
		Select     *SelectExpression
		Next       string
	}

	SelectExpression struct {
		Keys  []Expression
		Cases []SelectCase
	}

	// SelectCase matches when every keyset matches its key. A keyset that
	// is a *DefaultExpression matches anything.
	SelectCase struct {
		Keysets []Expression
		Next    string
	}
)

func (p *Parser) String() string      { return p.Name }
func (s *ParserState) String() string { return s.Name }

func (s *SelectExpression) String() string {
	return "select(" + joinExprs(s.Keys) + ")"
}

// State returns the named state or nil.
func (p *Parser) State(name string) *ParserState {
	for _, s := range p.States {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Successors lists the distinct targets of the state's transition.
func (s *ParserState) Successors() []string {
	if s.Select == nil {
		if s.Next == "" {
			return nil
		}
		return []string{s.Next}
	}
	seen := map[string]bool{}
	var res []string
	for _, c := range s.Select.Cases {
		if !seen[c.Next] {
			seen[c.Next] = true
			res = append(res, c.Next)
		}
	}
	return res
}
