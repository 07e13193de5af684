package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/CraigKelly/modelgibbs/config"
	"github.com/CraigKelly/modelgibbs/model"
)

// startupParams is everything a command needs: the parsed flags, the loaded
// run config, and the output loggers. out is the human-readable report,
// trace is the (optional) machine-readable trace file and log is for
// diagnostics.
type startupParams struct {
	verbose     bool
	configFile  string
	randomSeed  int64
	traceFile   string
	monitorAddr string
	chains      int
	samples     int
	burnIn      int

	cfg *config.Config

	out         *log.Logger
	trace       *log.Logger
	log         zerolog.Logger
	traceCloser io.Closer
}

var sp = &startupParams{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "modelgibbs",
	Short: "Bayesian model comparison by Gibbs sampling over models",
	Long: `modelgibbs compares competing Bayesian models that have already been
fitted (posterior samples are supplied) by sampling the joint space of
model index and parameters. Among other features:

  - A Gibbs sampler over (model, parameters), with independent chains
  - The analytical stationary distribution of the same Markov chain
  - A comparison of the two, plus deviance summaries for every fit
  - Graphviz output of the model-to-model transition matrix
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return sp.setup(cmd, os.Stdout, os.Stderr)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return sp.close()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&sp.configFile, "config", "c", "", "Run config file (.yaml, .yml, .json or .toml)")
	pf.BoolVarP(&sp.verbose, "verbose", "v", false, "Verbose logging (default is much more parsimonious)")
	pf.Int64VarP(&sp.randomSeed, "seed", "r", 0, "Random seed to use (overrides the config)")
	pf.StringVarP(&sp.traceFile, "trace", "t", "", "Trace file to write; a .zst suffix means zstd compressed")
	pf.IntVar(&sp.chains, "chains", 0, "Number of independent chains (overrides the config)")
	pf.IntVarP(&sp.samples, "samples", "n", 0, "Samples per chain (overrides the config)")
	pf.IntVarP(&sp.burnIn, "burnin", "b", 0, "Samples discarded from the start of each chain (overrides the config)")

	rootCmd.MarkPersistentFlagRequired("config")

	rootCmd.AddCommand(gibbsCmd, analyticCmd, compareCmd, dotCmd)
}

// setup loads the config, applies flag overrides and opens the outputs
func (sp *startupParams) setup(cmd *cobra.Command, stdout io.Writer, stderr io.Writer) error {
	level := zerolog.InfoLevel
	if sp.verbose {
		level = zerolog.DebugLevel
	}
	sp.log = zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()
	sp.out = log.New(stdout, "", 0)

	cfg, err := config.Load(sp.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = sp.randomSeed
	}
	if flags.Changed("chains") {
		cfg.Chains = sp.chains
	}
	if flags.Changed("samples") {
		cfg.Samples = sp.samples
	}
	if flags.Changed("burnin") {
		cfg.BurnIn = sp.burnIn
	}
	cfg.ApplyDefaults()
	sp.cfg = cfg

	sp.trace = log.New(io.Discard, "", 0)
	if len(sp.traceFile) > 0 {
		w, err := newTraceWriter(sp.traceFile)
		if err != nil {
			return err
		}
		sp.trace = log.New(w, "", 0)
		sp.traceCloser = w
		sp.log.Debug().Str("file", sp.traceFile).Msg("Writing trace")
	}

	sp.log.Debug().
		Str("config", sp.configFile).
		Int64("seed", cfg.Seed).
		Int("chains", cfg.Chains).
		Int("samples", cfg.Samples).
		Int("burnin", cfg.BurnIn).
		Msg("Startup")

	return nil
}

// buildSet creates the model set described by the loaded config
func (sp *startupParams) buildSet() (*model.ModelSet, error) {
	set, err := sp.cfg.Build()
	if err != nil {
		return nil, errors.Wrapf(err, "Could not build models from %s", sp.configFile)
	}
	sp.out.Printf("Comparing %d models (up to %d sub-models each)\n", set.Len(), set.Arity())
	for k, name := range set.Names() {
		sp.out.Printf("  [%d] %s: %d samples\n", k, name, set.Model(k).SampleCount())
	}
	return set, nil
}

func (sp *startupParams) close() error {
	if sp.traceCloser == nil {
		return nil
	}
	err := sp.traceCloser.Close()
	sp.traceCloser = nil
	return errors.Wrapf(err, "Could not finish trace file %s", sp.traceFile)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
