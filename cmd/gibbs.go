package cmd

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/CraigKelly/modelgibbs/model"
	"github.com/CraigKelly/modelgibbs/rand"
	"github.com/CraigKelly/modelgibbs/sampler"
)

// batchSize is the number of steps a chain takes between progress updates
const batchSize = 256

var gibbsCmd = &cobra.Command{
	Use:   "gibbs",
	Short: "Estimate model posteriors with Gibbs chains over (model, parameters)",
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

		run, err := runGibbs(cmd.Context(), sp, set, mon)
		if err != nil {
			return err
		}
		reportGibbs(sp, set, run)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{gibbsCmd, compareCmd} {
		c.Flags().StringVarP(&sp.monitorAddr, "monitor", "m", "", "Serve prometheus metrics on this address (e.g. :8000)")
	}
}

// startMonitor returns a running monitor, or nil when none was requested
func (sp *startupParams) startMonitor() (*monitor, error) {
	if len(sp.monitorAddr) < 1 {
		return nil, nil
	}
	mon := newMonitor(sp.log)
	if err := mon.Start(sp.monitorAddr); err != nil {
		return nil, err
	}
	return mon, nil
}

// gibbsRun is the result of running every configured chain
type gibbsRun struct {
	Chains      []*sampler.Chain
	PerChain    []*sampler.GibbsChain // Each chain after burn-in
	Merged      *sampler.GibbsChain   // All chains after burn-in
	Convergence float64               // NaN when the windows never filled
	Elapsed     time.Duration
}

// runGibbs runs cfg.Chains independent chains concurrently. Chain i is
// seeded with cfg.Seed+i so a run is reproducible for any chain count.
func runGibbs(ctx context.Context, sp *startupParams, set *model.ModelSet, mon *monitor) (*gibbsRun, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := sp.cfg

	chains := make([]*sampler.Chain, cfg.Chains)
	for i := range chains {
		gen, err := rand.NewGenerator(cfg.Seed + int64(i))
		if err != nil {
			return nil, err
		}
		chains[i], err = sampler.NewChain(set, gen, cfg.Initial, cfg.Window)
		if err != nil {
			return nil, err
		}
	}

	if mon != nil {
		mon.BurnIn.Set(float64(cfg.BurnIn))
		mon.ConvergeWindow.Set(float64(chains[0].ConvergenceWindow))
		mon.TotalChains.Set(float64(len(chains)))
		mon.TargetSamples.Set(float64(cfg.Samples))
	}

	start := time.Now()
	names := set.Names()

	g, gctx := errgroup.WithContext(ctx)
	for i, ch := range chains {
		g.Go(func() error {
			return advanceChain(gctx, sp, i, ch, cfg.Samples, names, mon, start)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	run := &gibbsRun{
		Chains:      chains,
		PerChain:    make([]*sampler.GibbsChain, len(chains)),
		Convergence: math.NaN(),
		Elapsed:     time.Since(start),
	}

	for i, ch := range chains {
		kept, err := ch.Result().Discard(cfg.BurnIn)
		if err != nil {
			return nil, errors.Wrapf(err, "Chain %d burn-in", i)
		}
		run.PerChain[i] = kept
	}

	var err error
	if run.Merged, err = sampler.MergeChains(run.PerChain...); err != nil {
		return nil, err
	}

	if chains[0].History.Full() {
		if run.Convergence, err = sampler.ChainConvergence(chains, nil); err != nil {
			return nil, err
		}
		if mon != nil {
			mon.LastConvergence.Set(run.Convergence)
		}
	}

	if mon != nil {
		mon.RunTime.Set(run.Elapsed.Seconds())
	}

	return run, nil
}

// advanceChain runs one chain to total samples in batches, reporting
// progress to the trace, the log and the monitor after each batch.
func advanceChain(ctx context.Context, sp *startupParams, id int, ch *sampler.Chain, total int, names []string, mon *monitor, start time.Time) error {
	last := make([]int, len(names))

	for done := 0; done < total; {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := min(batchSize, total-done)
		if err := ch.Advance(n); err != nil {
			return errors.Wrapf(err, "Chain %d", id)
		}
		done += n

		counts := ch.Counts()
		sp.trace.Printf("CHAIN %d SAMPLES %d COUNTS %s\n", id, ch.TotalSampleCount, fmtInts(counts))

		ev := sp.log.Debug().Int("chain", id).Int64("samples", ch.TotalSampleCount)
		if ch.History.Full() {
			if conv, err := ch.Convergence(nil); err == nil {
				ev = ev.Float64("hellinger", conv)
			}
		}
		ev.Msg("Batch")

		if mon != nil {
			mon.TotalSamples.Add(float64(n))
			for m, c := range counts {
				mon.ModelVisits.WithLabelValues(names[m]).Add(float64(c - last[m]))
			}
			mon.RunTime.Set(time.Since(start).Seconds())
		}
		copy(last, counts)
	}

	return nil
}

// reportGibbs writes the chain results to the report and the trace
func reportGibbs(sp *startupParams, set *model.ModelSet, run *gibbsRun) {
	post := run.Merged.Posterior()

	sp.out.Printf("Gibbs: %d chain(s), %d kept samples, %v\n", len(run.PerChain), len(run.Merged.Chain), run.Elapsed)
	for k, name := range set.Names() {
		sp.out.Printf("  %-20s count=%8d posterior=%.6f\n", name, run.Merged.Counts[k], post[k])
	}
	if len(run.PerChain) > 1 {
		for i, ch := range run.PerChain {
			sp.out.Printf("  chain %d posterior: %s\n", i, fmtFloats(ch.Posterior()))
		}
	}
	if !math.IsNaN(run.Convergence) {
		sp.out.Printf("  worst chain convergence (Hellinger): %.6f\n", run.Convergence)
	}

	sp.trace.Printf("GIBBS POSTERIOR %s\n", fmtFloats(post))
}

func fmtFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%.6f", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func fmtInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
