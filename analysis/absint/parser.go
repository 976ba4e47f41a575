package absint

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cs-au-dk/p4absint/analysis/interp"
	"github.com/cs-au-dk/p4absint/analysis/symbolic"
	"github.com/cs-au-dk/p4absint/ir"
	"github.com/cs-au-dk/p4absint/utils"
	"github.com/cs-au-dk/p4absint/utils/graph"
	W "github.com/cs-au-dk/p4absint/utils/worklist"
)

// ErrIterationLimit is returned when the parser fixpoint is not reached
// within the configured number of state visits.
var ErrIterationLimit = errors.New("iteration limit exceeded")

var opts = utils.Opts()

// ParserResult is the fixpoint of a parser analysis.
type ParserResult struct {
	Parser *ir.Parser
	// Entry environment of every reachable state.
	Entry map[string]*symbolic.ValueMap
	// Exit environment of every reachable state, before the transition.
	Exit        map[string]*symbolic.ValueMap
	Diagnostics []Diagnostic
	// Iterations is the number of state visits until the fixpoint.
	Iterations int

	edges map[string][]string
	depth graph.Mapper[string]
	// States of loops that do not consume input.
	stuck map[string]bool
}

// Reachable checks whether the state may be entered.
func (r *ParserResult) Reachable(state string) bool {
	_, found := r.Entry[state]
	return found
}

// Successors lists the states that may follow state.
func (r *ParserResult) Successors(state string) []string {
	return r.edges[state]
}

// States lists the reachable states in declaration order, followed by the
// reachable terminal states.
func (r *ParserResult) States() (res []string) {
	for _, s := range r.Parser.States {
		if r.Reachable(s.Name) {
			res = append(res, s.Name)
		}
	}
	for _, s := range []string{ir.StateAccept, ir.StateReject} {
		if r.Reachable(s) && r.Parser.State(s) == nil {
			res = append(res, s)
		}
	}
	return
}

// Depth is the least number of transitions from the start state to state.
func (r *ParserResult) Depth(state string) (int, bool) {
	d, found := r.depth.Get(state)
	if !found {
		return 0, false
	}
	return d.(int), true
}

func (r *ParserResult) Graph() graph.Graph[string] {
	return graph.OfHashable(func(s string) []string {
		return r.edges[s]
	})
}

func isTerminal(state string) bool {
	return state == ir.StateAccept || state == ir.StateReject
}

// InitialEnvironment binds the parameters and locals of the parser. Output
// parameters and locals start uninitialized.
func InitialEnvironment(in *Interpreter, parser *ir.Parser) (*symbolic.ValueMap, error) {
	env := symbolic.NewValueMap()
	for _, p := range parser.Params {
		env.Set(p, in.factory.Create(p.Typ, p.Direction == ir.DirOut))
	}
	for _, l := range parser.Locals {
		var err error
		if env, err = in.Exec(l, env); err != nil {
			return nil, err
		}
	}
	return env, nil
}

// AnalyzeParser computes the environments on entry to every state of the
// parser, and reports faults and loops that do not consume input.
func AnalyzeParser(
	parser *ir.Parser,
	refMap ir.RefMap,
	typeMap ir.TypeMap,
	factory *symbolic.Factory,
) (res *ParserResult, err error) {
	in := NewInterpreter(refMap, typeMap, factory)
	defer func() {
		if r := recover(); r != nil {
			if ierr := symbolic.AsInvariantViolation(r); ierr != nil {
				res, err = nil, fmt.Errorf("analyzing parser %s: %w", parser.Name, ierr)
				return
			}
			panic(r)
		}
	}()

	if parser.State(ir.StateStart) == nil {
		return nil, fmt.Errorf("parser %s has no %s state", parser.Name, ir.StateStart)
	}

	env, err := InitialEnvironment(in, parser)
	if err != nil {
		return nil, err
	}

	res = &ParserResult{
		Parser: parser,
		Entry:  map[string]*symbolic.ValueMap{ir.StateStart: env},
		Exit:   make(map[string]*symbolic.ValueMap),
		edges:  make(map[string][]string),
	}
	advances := make(map[string]bool)
	queued := map[string]bool{ir.StateStart: true}

	W.Start(ir.StateStart, func(name string, add func(string)) {
		queued[name] = false
		if err != nil || isTerminal(name) {
			return
		}
		if res.Iterations++; res.Iterations > opts.MaxIterations() {
			err = fmt.Errorf("parser %s: %w (%d)", parser.Name, ErrIterationLimit, opts.MaxIterations())
			return
		}

		state := parser.State(name)
		if state == nil {
			err = fmt.Errorf("parser %s: transition to undeclared state %s", parser.Name, name)
			return
		}
		utils.VerbosePrint("Visiting parser state %s\n", colorize.State(name))

		entry := res.Entry[name]
		exit := in.execState(state, entry.Clone())
		res.Exit[name] = exit
		advances[name] = consumesInput(entry, exit)

		succs := in.transition(state, exit)
		res.edges[name] = succs
		// Locals of the state go out of scope.
		out := exit.Filter(declarations(entry))
		for _, succ := range succs {
			prev, found := res.Entry[succ]
			switch {
			case !found:
				res.Entry[succ] = out.Clone()
			case !prev.Merge(out):
				continue
			}
			if !queued[succ] {
				queued[succ] = true
				add(succ)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	res.depth = res.Graph().Distances(ir.StateStart)
	res.stuck = res.findStuckLoops(advances, &in.diags)
	res.Diagnostics = in.Diagnostics()
	return res, nil
}

func (in *Interpreter) execState(state *ir.ParserState, env *symbolic.ValueMap) *symbolic.ValueMap {
	for _, c := range state.Components {
		env = in.exec(c, env)
	}
	return env
}

// consumesInput checks whether some packet cursor advanced between entry
// and exit.
func consumesInput(entry, exit *symbolic.ValueMap) bool {
	advanced := false
	entry.ForEach(func(d ir.Declaration, v symbolic.Value) {
		if p, ok := v.(*symbolic.PacketIn); ok {
			if q, ok := exit.Get(d).(*symbolic.PacketIn); ok && q.MinimumOffset() > p.MinimumOffset() {
				advanced = true
			}
		}
	})
	return advanced
}

// transition computes the possible successors of a state.
func (in *Interpreter) transition(state *ir.ParserState, env *symbolic.ValueMap) []string {
	if state.Select == nil {
		if state.Next == "" {
			return nil
		}
		return []string{state.Next}
	}

	keys := make([]symbolic.Value, len(state.Select.Keys))
	for j, k := range state.Select.Keys {
		if keys[j] = in.read(k, env); keys[j] == nil {
			// Faulting select expressions reject the packet.
			return []string{ir.StateReject}
		}
	}

	var succs []string
	seen := map[string]bool{}
	addSucc := func(s string) {
		if !seen[s] {
			seen[s] = true
			succs = append(succs, s)
		}
	}

	ev := in.evaluator(env)
	for _, c := range state.Select.Cases {
		match := matches(ev, c, keys)
		if match != noMatch {
			addSucc(c.Next)
		}
		if match == definiteMatch {
			return succs
		}
	}
	// No case matched: error.NoMatch rejects the packet.
	addSucc(ir.StateReject)
	return succs
}

type matchResult int

const (
	noMatch matchResult = iota
	mayMatch
	definiteMatch
)

func matches(ev *interp.Evaluator, c ir.SelectCase, keys []symbolic.Value) matchResult {
	if len(c.Keysets) != len(keys) {
		// A single default keyset matches any number of keys.
		if len(c.Keysets) == 1 {
			if _, ok := c.Keysets[0].(*ir.DefaultExpression); ok {
				return definiteMatch
			}
		}
		return noMatch
	}

	res := definiteMatch
	for j, ks := range c.Keysets {
		if _, ok := ks.(*ir.DefaultExpression); ok {
			continue
		}
		eq, known := knownEqual(keys[j], ev.Evaluate(ks, false))
		switch {
		case !known:
			res = mayMatch
		case !eq:
			return noMatch
		}
	}
	return res
}

// knownEqual compares two scalars, if both are known.
func knownEqual(a, b symbolic.Value) (eq, known bool) {
	sa, ok := a.(symbolic.Scalar)
	if !ok || !sa.IsKnown() {
		return false, false
	}
	sb, ok := b.(symbolic.Scalar)
	if !ok || !sb.IsKnown() {
		return false, false
	}
	switch a := a.(type) {
	case *symbolic.Integer:
		if b, ok := b.(*symbolic.Integer); ok {
			return a.Value().Cmp(b.Value()) == 0, true
		}
		return false, false
	}
	return a.Equals(b), true
}

// findStuckLoops reports cycles of parser states none of which consumes
// input. Such loops never terminate once entered.
func (r *ParserResult) findStuckLoops(advances map[string]bool, diags *diagnostics) map[string]bool {
	stuck := make(map[string]bool)
	scc := r.Graph().SCC([]string{ir.StateStart})
	for comp, states := range scc.Components {
		if !scc.IsCyclic(comp) {
			continue
		}
		progress := false
		for _, s := range states {
			if advances[s] {
				progress = true
				break
			}
		}
		if progress {
			continue
		}

		names := append([]string(nil), states...)
		sort.Strings(names)
		// Report at the state where the loop is entered first.
		head := names[0]
		headDepth, _ := r.Depth(head)
		for _, s := range names {
			stuck[s] = true
			if d, _ := r.Depth(s); d < headDepth {
				head, headDepth = s, d
			}
		}
		diags.report(NonTerminatingLoop, r.Parser.State(head),
			"states %s may loop without consuming input", strings.Join(names, ", "))
	}
	return stuck
}
