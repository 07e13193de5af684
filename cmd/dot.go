package cmd

import (
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CraigKelly/modelgibbs/model"
	"github.com/CraigKelly/modelgibbs/sampler"
)

var dotMinProb float64

// dotQuote escapes a model name for use inside a quoted DOT ID
var dotQuote = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

var dotCmd = &cobra.Command{
	Use:   "dot",
	Short: "Write the model transition matrix as a graphviz digraph",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := sp.buildSet()
		if err != nil {
			return err
		}
		return DotOutput(sp, set, dotMinProb)
	},
}

func init() {
	dotCmd.Flags().Float64Var(&dotMinProb, "min-prob", 0.001, "Leave out transitions less likely than this")
}

// DotOutput writes the model-to-model transition matrix as a graphviz
// digraph. Nodes are models labelled with their stationary probability
// (when it can be solved for) and edges are transitions at or above minProb.
func DotOutput(sp *startupParams, set *model.ModelSet, minProb float64) error {
	t, err := sampler.TransitionMatrix(set)
	if err != nil {
		return err
	}

	pi, err := sampler.Stationary(t)
	if err != nil {
		sp.log.Warn().Err(err).Msg("No stationary distribution: nodes will not be labelled with it")
		pi = nil
	}

	var target *log.Logger
	if len(sp.traceFile) > 0 {
		sp.out.Printf("Writing graph to trace file %v\n", sp.traceFile)
		target = sp.trace
	} else {
		target = sp.out
	}

	// Start graph
	target.Printf("digraph G {\n")

	for k, name := range set.Names() {
		name = dotQuote.Replace(name)
		if pi != nil {
			target.Printf("    M%d [label=\"%s\\n%.4f\"];\n", k, name, pi[k])
		} else {
			target.Printf("    M%d [label=\"%s\"];\n", k, name)
		}
	}

	k := set.Len()
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			p := t.At(i, j)
			if p < minProb {
				continue
			}
			target.Printf("    M%d -> M%d [label=\"%.4f\", penwidth=%.2f];\n", i, j, p, 1.0+4.0*p)
		}
	}

	// End graph
	target.Printf("}\n")

	return nil
}
