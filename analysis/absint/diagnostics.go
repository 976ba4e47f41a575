package absint

import (
	"fmt"
	"sort"

	"github.com/cs-au-dk/p4absint/ir"
	"github.com/cs-au-dk/p4absint/utils"

	"github.com/fatih/color"
)

var colorize = struct {
	Kind  func(...interface{}) string
	Node  func(...interface{}) string
	State func(...interface{}) string
}{
	Kind: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiRed).SprintFunc())(is...)
	},
	Node: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiWhite).SprintFunc())(is...)
	},
	State: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgYellow).SprintFunc())(is...)
	},
}

type DiagnosticKind int

const (
	// A read of a value that may not have been written.
	UninitializedRead DiagnosticKind = iota
	// An evaluation that definitely raises an exception or is erroneous.
	StaticFault
	// A parser loop that does not consume any input.
	NonTerminatingLoop
)

func (k DiagnosticKind) String() string {
	switch k {
	case UninitializedRead:
		return "uninitialized read"
	case StaticFault:
		return "static fault"
	case NonTerminatingLoop:
		return "non-terminating loop"
	}
	return fmt.Sprintf("DiagnosticKind(%d)", int(k))
}

type Diagnostic struct {
	Kind    DiagnosticKind
	Node    ir.Node
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", colorize.Kind(d.Kind), colorize.Node(d.Node), d.Message)
}

// diagnostics collects diagnostics, dropping duplicates reported when the
// same statement is analysed again.
type diagnostics struct {
	list []Diagnostic
	seen map[Diagnostic]bool
}

func (ds *diagnostics) report(kind DiagnosticKind, node ir.Node, format string, args ...interface{}) {
	d := Diagnostic{kind, node, fmt.Sprintf(format, args...)}
	if ds.seen == nil {
		ds.seen = make(map[Diagnostic]bool)
	}
	if ds.seen[d] {
		return
	}
	ds.seen[d] = true
	ds.list = append(ds.list, d)
	utils.VerbosePrint("%s\n", d)
}

// sorted returns the diagnostics ordered by kind, stable within a kind.
func (ds *diagnostics) sorted() []Diagnostic {
	res := append([]Diagnostic(nil), ds.list...)
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Kind < res[j].Kind
	})
	return res
}
