package cmd

import (
	"log"
	"math"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/CraigKelly/modelgibbs/model"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run the Gibbs chains and the analytical solution and score the difference",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := sp.buildSet()
		if err != nil {
			return err
		}

		mon, err := sp.startMonitor()
		if err != nil {
			return err
		}
		defer mon.Stop()

		if err = reportDeviance(sp, set); err != nil {
			return err
		}

		run, err := runGibbs(cmd.Context(), sp, set, mon)
		if err != nil {
			return err
		}
		reportGibbs(sp, set, run)

		pi, _, err := runAnalytic(sp, set)
		if err != nil {
			return err
		}

		_, err = compareRuns(sp, run, pi)
		return err
	},
}

// compareRuns scores the Gibbs estimates against the analytical
// distribution: once for the merged chains and once across the chains
func compareRuns(sp *startupParams, run *gibbsRun, pi []float64) (*model.ErrorSuite, error) {
	merged, err := model.NewErrorSuite([][]float64{run.Merged.Posterior()}, [][]float64{pi})
	if err != nil {
		return nil, errors.Wrapf(err, "Could not score merged chains")
	}
	errorReport(sp, "MERGED CHAINS VS ANALYTICAL", merged, true, sp.out)

	est := make([][]float64, len(run.PerChain))
	exact := make([][]float64, len(run.PerChain))
	for i, ch := range run.PerChain {
		est[i] = ch.Posterior()
		exact[i] = pi
	}
	perChain, err := model.NewErrorSuite(est, exact)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not score chains")
	}
	errorReport(sp, "EACH CHAIN VS ANALYTICAL", perChain, false, sp.out)
	errorReport(sp, "EACH CHAIN VS ANALYTICAL", perChain, false, sp.trace)

	return merged, nil
}

// errorReport writes an error suite. Scores are also given as -log2 so that
// small errors are easy to compare (larger is better).
func errorReport(sp *startupParams, title string, es *model.ErrorSuite, meanOnly bool, target *log.Logger) {
	nlog := func(v float64) float64 {
		if v <= 0 {
			return math.Inf(1)
		}
		return -math.Log2(v)
	}

	target.Printf("%s\n", title)
	target.Printf(
		"  Mean | MeanAE:%9.6f MaxAE:%9.6f Hel:%9.6f JSD:%9.6f\n",
		es.MeanMeanAbsError, es.MeanMaxAbsError, es.MeanHellinger, es.MeanJSDiverge,
	)
	target.Printf(
		"  NLog | MeanAE:%9.3f MaxAE:%9.3f Hel:%9.3f JSD:%9.3f\n",
		nlog(es.MeanMeanAbsError), nlog(es.MeanMaxAbsError), nlog(es.MeanHellinger), nlog(es.MeanJSDiverge),
	)
	if meanOnly {
		return
	}
	target.Printf(
		"  Max  | MeanAE:%9.6f MaxAE:%9.6f Hel:%9.6f JSD:%9.6f\n",
		es.MaxMeanAbsError, es.MaxMaxAbsError, es.MaxHellinger, es.MaxJSDiverge,
	)
}

// reportDeviance summarizes the deviance of every fit in the set
func reportDeviance(sp *startupParams, set *model.ModelSet) error {
	sp.out.Printf("Deviance summaries:\n")
	for k, m := range set.Models() {
		for _, r := range m.Results() {
			s, err := model.SummarizeDeviance(r)
			if err != nil {
				return errors.Wrapf(err, "Model %d (%s)", k, m.Name)
			}
			sp.out.Printf(
				"  [%d] %-20s mean=%10.3f median=%10.3f 95%%=[%.3f, %.3f] pD=%8.3f DIC=%10.3f\n",
				k, s.Name, s.Mean, s.Median, s.Lower, s.Upper, s.PD, s.DIC,
			)
			sp.trace.Printf("DEVIANCE %d %s %g %g %g %g %g %g\n", k, s.Name, s.Mean, s.Median, s.Lower, s.Upper, s.PD, s.DIC)
		}
	}
	return nil
}
