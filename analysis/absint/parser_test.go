package absint

import (
	"bytes"
	"testing"

	"github.com/cs-au-dk/p4absint/analysis/symbolic"
	"github.com/cs-au-dk/p4absint/ir"
	ex "github.com/cs-au-dk/p4absint/examples"
	"github.com/cs-au-dk/p4absint/utils"

	"github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
)

func analyze(t *testing.T, fx *ex.ParserFixture) *ParserResult {
	t.Helper()
	annotations := ir.Annotations()
	res, err := AnalyzeParser(fx.Parser, annotations, annotations, symbolic.NewFactory())
	qt.Assert(t, qt.IsNil(err))
	return res
}

func packet(t *testing.T, env *symbolic.ValueMap, fx *ex.ParserFixture) *symbolic.PacketIn {
	t.Helper()
	p, ok := env.Get(fx.Decls["pkt"]).(*symbolic.PacketIn)
	qt.Assert(t, qt.IsTrue(ok))
	return p
}

func TestEthernetParser(t *testing.T) {
	fx := ex.EthernetParser()
	res := analyze(t, fx)

	qt.Check(t, qt.HasLen(res.Diagnostics, 0))
	if diff := cmp.Diff(
		[]string{"start", "parse_vlan", "parse_ipv4", "parse_options", "accept"},
		res.States(),
	); diff != "" {
		t.Errorf("reachable states differ (-want +got):\n%s", diff)
	}
	qt.Check(t, qt.IsFalse(res.Reachable(ir.StateReject)))
	qt.Check(t, qt.DeepEquals(res.Successors("start"), []string{"parse_vlan", "parse_ipv4", "accept"}))
	qt.Check(t, qt.DeepEquals(res.Successors("parse_ipv4"), []string{"accept", "parse_options"}))

	for state, want := range map[string]int{"start": 0, "parse_vlan": 1, "accept": 1, "parse_options": 2} {
		depth, ok := res.Depth(state)
		qt.Check(t, qt.IsTrue(ok))
		qt.Check(t, qt.Equals(depth, want), qt.Commentf("%s", state))
	}
	_, ok := res.Depth(ir.StateReject)
	qt.Check(t, qt.IsFalse(ok))

	exit := packet(t, res.Exit["start"], fx)
	qt.Check(t, qt.Equals(exit.MinimumOffset(), uint(112)))
	qt.Check(t, qt.IsFalse(exit.IsConservative()))

	// The vlan loop may run any number of times.
	entry := packet(t, res.Entry["parse_vlan"], fx)
	qt.Check(t, qt.Equals(entry.MinimumOffset(), uint(112)))
	qt.Check(t, qt.IsTrue(entry.IsConservative()))

	// Variable-width extraction only makes the offset conservative.
	opts := packet(t, res.Exit["parse_options"], fx)
	qt.Check(t, qt.Equals(opts.MinimumOffset(), uint(112+160)))
	qt.Check(t, qt.IsTrue(opts.IsConservative()))
}

func TestCountingParser(t *testing.T) {
	fx := ex.CountingParser()
	res := analyze(t, fx)

	qt.Assert(t, qt.HasLen(res.Diagnostics, 1))
	d := res.Diagnostics[0]
	qt.Check(t, qt.Equals(d.Kind, NonTerminatingLoop))
	qt.Check(t, qt.Equals(d.Node, ir.Node(fx.Parser.State("loop"))))
	qt.Check(t, qt.Equals(d.Message, "states loop may loop without consuming input"))

	qt.Check(t, qt.IsTrue(res.Reachable(ir.StateAccept)))
	qt.Check(t, qt.IsFalse(res.Reachable(ir.StateReject)))
	qt.Check(t, qt.Equals(res.Entry["loop"].Get(fx.Decls["cnt"]).String(), "unknown"))
	qt.Check(t, qt.Equals(res.Entry["start"].Get(fx.Decls["cnt"]).String(), "0"))
}

func TestUninitializedParser(t *testing.T) {
	fx := ex.UninitializedParser()
	res := analyze(t, fx)

	var msgs []string
	for _, d := range res.Diagnostics {
		qt.Check(t, qt.Equals(d.Kind, UninitializedRead))
		msgs = append(msgs, d.Message)
	}
	if diff := cmp.Diff([]string{
		"hdr.vlan[0].vid may be uninitialized",
		"proto may be uninitialized",
	}, msgs); diff != "" {
		t.Errorf("diagnostics differ (-want +got):\n%s", diff)
	}
	qt.Check(t, qt.DeepEquals(res.Successors("start"), []string{"accept", "reject"}))

	// ipv4 is extracted on one path only.
	ttl := res.Exit["start"].Get(fx.Decls["ttl"]).(symbolic.Scalar)
	qt.Check(t, qt.IsTrue(ttl.IsUnknown()))
}

func TestStackOverflowParser(t *testing.T) {
	fx := ex.StackOverflowParser()
	res := analyze(t, fx)

	qt.Assert(t, qt.HasLen(res.Diagnostics, 1))
	d := res.Diagnostics[0]
	qt.Check(t, qt.Equals(d.Kind, StaticFault))
	qt.Check(t, qt.Equals(d.Message, symbolic.StackOutOfBounds.String()))
	qt.Check(t, qt.Equals(d.Node, ir.Node(fx.Parser.State(ir.StateStart).Components[1])))
	qt.Check(t, qt.IsTrue(res.Reachable(ir.StateAccept)))
}

func TestIterationLimit(t *testing.T) {
	utils.Opts().SetMaxIterations(1)
	defer utils.Opts().SetMaxIterations(1000)

	annotations := ir.Annotations()
	_, err := AnalyzeParser(ex.CountingParser().Parser, annotations, annotations, nil)
	qt.Check(t, qt.ErrorIs(err, ErrIterationLimit))
}

func TestMalformedParsers(t *testing.T) {
	annotations := ir.Annotations()

	_, err := AnalyzeParser(&ir.Parser{Name: "empty"}, annotations, annotations, nil)
	qt.Check(t, qt.ErrorMatches(err, "parser empty has no start state"))

	dangling := &ir.Parser{Name: "dangling", States: []*ir.ParserState{
		{Name: ir.StateStart, Next: "nowhere"},
	}}
	_, err = AnalyzeParser(dangling, annotations, annotations, nil)
	qt.Check(t, qt.ErrorMatches(err, ".*undeclared state nowhere"))

	mistyped := &ir.Parser{Name: "mistyped", Locals: []*ir.Variable{
		ex.VarInit("x", ir.Bits(8), ir.NewBool(true)),
	}, States: []*ir.ParserState{
		{Name: ir.StateStart, Next: ir.StateAccept},
	}}
	_, err = AnalyzeParser(mistyped, annotations, annotations, nil)
	qt.Check(t, qt.ErrorIs(err, symbolic.ErrInvariant))
}

func TestParserGraph(t *testing.T) {
	for _, name := range []string{"counting", "ethernet"} {
		t.Run(name, func(t *testing.T) {
			res := analyze(t, ex.Fixtures[name]())
			var buf bytes.Buffer
			qt.Assert(t, qt.IsNil(res.ToDot().WriteDot(&buf)))
			goldie.New(t).Assert(t, name+"_states", buf.Bytes())
		})
	}
}
