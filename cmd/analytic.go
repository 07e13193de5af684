package cmd

import (
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/CraigKelly/modelgibbs/model"
	"github.com/CraigKelly/modelgibbs/sampler"
)

var analyticCmd = &cobra.Command{
	Use:   "analytic",
	Short: "Solve for the stationary model distribution of the Gibbs chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := sp.buildSet()
		if err != nil {
			return err
		}
		_, _, err = runAnalytic(sp, set)
		return err
	},
}

// runAnalytic computes and reports the transition matrix and its stationary
// distribution. The matrix is reported even when the solve fails.
func runAnalytic(sp *startupParams, set *model.ModelSet) ([]float64, *mat.Dense, error) {
	pi, t, err := sampler.GibbsAnalytical(set)
	if t != nil {
		sp.out.Printf("Transition matrix:\n%v\n", mat.Formatted(t, mat.Prefix("  "), mat.Squeeze()))
		r, _ := t.Dims()
		for i := 0; i < r; i++ {
			sp.trace.Printf("TRANSITION %d %s\n", i, fmtFloats(mat.Row(nil, i, t)))
		}
	}
	if err != nil {
		return nil, t, err
	}

	sp.out.Printf("Analytical stationary distribution:\n")
	for k, name := range set.Names() {
		sp.out.Printf("  %-20s posterior=%.6f\n", name, pi[k])
	}
	sp.trace.Printf("ANALYTICAL POSTERIOR %s\n", fmtFloats(pi))

	return pi, t, nil
}
