package main

import (
	"fmt"
	"log"
	"os"

	ai "github.com/cs-au-dk/p4absint/analysis/absint"
	"github.com/cs-au-dk/p4absint/analysis/symbolic"
	"github.com/cs-au-dk/p4absint/ir"
	ex "github.com/cs-au-dk/p4absint/examples"
	"github.com/cs-au-dk/p4absint/utils"

	"github.com/fatih/color"
)

var opts = utils.Opts()

func main() {
	names, err := utils.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatalln(err)
	}
	if len(names) == 0 {
		names = ex.FixtureNames()
	}

	failed := false
	for _, name := range names {
		mk, found := ex.Fixtures[name]
		if !found {
			log.Printf("Unknown parser %q, expected one of %v", name, ex.FixtureNames())
			failed = true
			continue
		}

		if !analyze(name, mk()) {
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}

func analyze(name string, fx *ex.ParserFixture) bool {
	annotations := ir.Annotations()
	res, err := ai.AnalyzeParser(fx.Parser, annotations, annotations, symbolic.NewFactory())
	if err != nil {
		log.Println("Analysis of", name, "failed:", err)
		return false
	}

	fmt.Println(color.BlueString("================ %s ================", fx.Parser.Name))
	fmt.Printf("Fixpoint reached after %d state visits\n", res.Iterations)

	opts.OnVerbose(func() {
		for _, state := range res.States() {
			depth, _ := res.Depth(state)
			fmt.Printf("Entry of %s (depth %d):\n%s\n\n", color.YellowString(state), depth, res.Entry[state])
		}
	})

	if len(res.Diagnostics) == 0 {
		fmt.Println(color.GreenString("No diagnostics"))
	}
	for _, d := range res.Diagnostics {
		fmt.Println(d)
	}

	if opts.Visualize() {
		img, err := res.Visualize(name)
		if err != nil {
			log.Println(err)
			return false
		}
		log.Println("Rendered state graph to", img)
	}
	fmt.Println()
	return true
}
