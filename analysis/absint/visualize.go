package absint

import (
	"fmt"
	"strings"

	"github.com/cs-au-dk/p4absint/ir"
	"github.com/cs-au-dk/p4absint/utils/dot"
	"github.com/cs-au-dk/p4absint/utils/graph"
)

// ToDot renders the reachable parser states and transitions. States of
// loops that do not consume input are highlighted.
func (r *ParserResult) ToDot() *dot.DotGraph {
	return r.Graph().ToDotGraph(r.Parser.Name, r.States(), &graph.VisualizationConfig[string]{
		NodeAttrs: func(state string) (string, dot.DotAttrs) {
			attrs := dot.DotAttrs{"label": state}
			switch {
			case r.stuck[state]:
				attrs["fillcolor"] = "lightcoral"
			case state == ir.StateAccept:
				attrs["fillcolor"] = "palegreen"
				attrs["shape"] = "doublecircle"
			case state == ir.StateReject:
				attrs["fillcolor"] = "lightgray"
				attrs["shape"] = "doublecircle"
			}
			return state, attrs
		},
		EdgeAttrs: func(from, to string) dot.DotAttrs {
			if labels := r.caseLabels(from, to); labels != "" {
				return dot.DotAttrs{"label": labels}
			}
			return nil
		},
	})
}

// caseLabels describes the select cases leading from one state to another.
func (r *ParserResult) caseLabels(from, to string) string {
	state := r.Parser.State(from)
	if state == nil || state.Select == nil {
		return ""
	}
	var labels []string
	for _, c := range state.Select.Cases {
		if c.Next != to {
			continue
		}
		strs := make([]string, len(c.Keysets))
		for j, ks := range c.Keysets {
			strs[j] = ks.String()
		}
		labels = append(labels, strings.Join(strs, ", "))
	}
	return strings.Join(labels, " | ")
}

// Visualize renders the parser graph to an image in the configured format.
func (r *ParserResult) Visualize(outfname string) (string, error) {
	img, err := r.ToDot().Render(outfname, opts.DotFormat())
	if err != nil {
		return "", fmt.Errorf("rendering parser %s: %w", r.Parser.Name, err)
	}
	return img, nil
}
