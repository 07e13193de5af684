package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/CraigKelly/modelgibbs/config"
	"github.com/CraigKelly/modelgibbs/model"
)

// poissonSamples are deterministic "posterior samples" around center
func poissonSamples(n int, center float64) [][]float64 {
	samples := make([][]float64, n)
	for i := range samples {
		samples[i] = []float64{center + 0.4*math.Sin(float64(i))}
	}
	return samples
}

func testConfig() *config.Config {
	cfg := &config.Config{
		Seed:    42,
		Samples: 600,
		BurnIn:  50,
		Chains:  2,
		Window:  64,
		Datasets: []model.Dataset{
			{Name: "counts", Y: []float64{2, 3, 1, 2, 4, 2}},
		},
		Models: []config.Model{
			{Name: "low", Results: []config.Result{{Family: "poisson", Dataset: "counts", Samples: poissonSamples(200, 1.5)}}},
			{Name: "mid", Results: []config.Result{{Family: "poisson", Dataset: "counts", Samples: poissonSamples(200, 2.3)}}},
			{Name: "high", Results: []config.Result{{Family: "poisson", Dataset: "counts", Priors: []string{"Gamma(2,1)"}, Samples: poissonSamples(200, 3.5)}}},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

type testOutput struct {
	out   bytes.Buffer
	trace bytes.Buffer
}

func testParams(t *testing.T, cfg *config.Config) (*startupParams, *model.ModelSet, *testOutput) {
	o := &testOutput{}
	p := &startupParams{
		cfg:   cfg,
		out:   log.New(&o.out, "", 0),
		trace: log.New(&o.trace, "", 0),
		log:   zerolog.New(io.Discard),
	}
	set, err := p.buildSet()
	if err != nil {
		t.Fatalf("Could not build test models: %v", err)
	}
	return p, set, o
}

func TestRunGibbs(t *testing.T) {
	assert := assert.New(t)

	p, set, o := testParams(t, testConfig())
	run, err := runGibbs(context.Background(), p, set, nil)
	assert.NoError(err)
	assert.Len(run.PerChain, 2)
	assert.Len(run.Merged.Chain, 2*(600-50))
	assert.False(math.IsNaN(run.Convergence))

	total := 0
	for _, c := range run.Merged.Counts {
		total += c
	}
	assert.Equal(len(run.Merged.Chain), total)

	// Chains have different seeds
	assert.NotEqual(run.PerChain[0].Chain, run.PerChain[1].Chain)

	reportGibbs(p, set, run)
	assert.Contains(o.out.String(), "low")
	assert.Contains(o.out.String(), "chain 1 posterior")
	assert.Contains(o.trace.String(), "CHAIN 0 SAMPLES 600")
	assert.Contains(o.trace.String(), "GIBBS POSTERIOR")

	// Same seed, same answer
	p2, set2, _ := testParams(t, testConfig())
	run2, err := runGibbs(context.Background(), p2, set2, nil)
	assert.NoError(err)
	assert.Equal(run.Merged.Counts, run2.Merged.Counts)
	assert.Equal(run.Merged.Chain, run2.Merged.Chain)
}

func TestRunGibbsCancelled(t *testing.T) {
	assert := assert.New(t)

	p, set, _ := testParams(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := runGibbs(ctx, p, set, nil)
	assert.Nil(run)
	assert.ErrorIs(err, context.Canceled)
}

func TestAnalyticAndCompare(t *testing.T) {
	assert := assert.New(t)

	cfg := testConfig()
	cfg.Samples = 3000
	cfg.BurnIn = 100
	p, set, o := testParams(t, cfg)

	pi, tm, err := runAnalytic(p, set)
	assert.NoError(err)
	assert.NotNil(tm)
	sum := 0.0
	for _, v := range pi {
		sum += v
	}
	assert.InDelta(1.0, sum, 1e-9)
	assert.Contains(o.trace.String(), "TRANSITION 2")
	assert.Contains(o.trace.String(), "ANALYTICAL POSTERIOR")

	run, err := runGibbs(context.Background(), p, set, nil)
	assert.NoError(err)

	suite, err := compareRuns(p, run, pi)
	assert.NoError(err)
	assert.Less(suite.MaxHellinger, 0.1)
	assert.Contains(o.out.String(), "MERGED CHAINS VS ANALYTICAL")
	assert.Contains(o.trace.String(), "EACH CHAIN VS ANALYTICAL")

	assert.NoError(reportDeviance(p, set))
	assert.Contains(o.out.String(), "DIC=")
	assert.Contains(o.trace.String(), "DEVIANCE 2 poisson/counts")
}

func TestDotOutput(t *testing.T) {
	assert := assert.New(t)

	p, set, o := testParams(t, testConfig())
	assert.NoError(DotOutput(p, set, 0.0))

	text := o.out.String()
	assert.Contains(text, "digraph G {")
	assert.Contains(text, "M0 [label=\"low\\n")
	assert.Contains(text, "M2 -> M2")
	assert.True(strings.HasSuffix(strings.TrimSpace(text), "}"))

	// Nothing is likely enough, so no edges
	o.out.Reset()
	assert.NoError(DotOutput(p, set, 2.0))
	assert.NotContains(o.out.String(), "->")
}

func TestDotOutputQuoting(t *testing.T) {
	assert := assert.New(t)

	cfg := testConfig()
	cfg.Models[0].Name = `say "hi"`
	cfg.Models[1].Name = `back\slash`
	p, set, o := testParams(t, cfg)
	assert.NoError(DotOutput(p, set, 0.5))

	text := o.out.String()
	assert.Contains(text, `M0 [label="say \"hi\"\n`)
	assert.Contains(text, `M1 [label="back\\slash\n`)
	assert.NotContains(text, `"say "hi"`)
}

func TestSmallSampleFile(t *testing.T) {
	assert := assert.New(t)

	// Only four draws per result
	cfg, err := config.Load("../config/testdata/compare.yaml")
	assert.NoError(err)
	p, set, o := testParams(t, cfg)

	assert.NoError(reportDeviance(p, set))
	text := o.out.String()
	assert.Contains(text, "[0] normal/heights")
	assert.Contains(text, "[1] normal/heights")
	assert.Contains(text, "DIC=")
	assert.NotContains(text, "NaN")
	assert.Contains(o.trace.String(), "DEVIANCE 1 normal/heights")

	pi, _, err := runAnalytic(p, set)
	assert.NoError(err)
	assert.Len(pi, 2)

	run, err := runGibbs(context.Background(), p, set, nil)
	assert.NoError(err)
	assert.Len(run.PerChain, 2)
	assert.Equal(2*(cfg.Samples-cfg.BurnIn), len(run.Merged.Chain))
}

func TestTraceWriter(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	for _, name := range []string{"trace.txt", "trace.txt.zst"} {
		path := filepath.Join(dir, name)

		tw, err := newTraceWriter(path)
		assert.NoError(err, name)
		lg := log.New(tw, "", 0)
		lg.Printf("GIBBS POSTERIOR %s\n", fmtFloats([]float64{0.25, 0.75}))
		assert.NoError(tw.Close(), name)

		raw, err := os.ReadFile(path)
		assert.NoError(err, name)

		if strings.HasSuffix(name, ".zst") {
			dec, err := zstd.NewReader(nil)
			assert.NoError(err)
			raw, err = dec.DecodeAll(raw, nil)
			assert.NoError(err)
			dec.Close()
		}
		assert.Equal("GIBBS POSTERIOR [0.250000 0.750000]\n", string(raw), name)
	}

	_, err := newTraceWriter(filepath.Join(dir, "no-such-dir", "trace.txt"))
	assert.Error(err)
}

func TestMonitor(t *testing.T) {
	assert := assert.New(t)

	var nilMon *monitor
	nilMon.Stop()

	mon := newMonitor(zerolog.New(io.Discard))
	mon.Stop()
	assert.Equal("", mon.Addr())

	mon.TotalSamples.Add(5)
	mon.ModelVisits.WithLabelValues("low").Add(3)
	mon.TotalChains.Set(2)

	rec := httptest.NewRecorder()
	mon.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(body, "modelgibbs_samples_total 5")
	assert.Contains(body, `modelgibbs_model_visits_total{model="low"} 3`)
	assert.Contains(body, "modelgibbs_chains 2")

	rec = httptest.NewRecorder()
	mon.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(http.StatusTemporaryRedirect, rec.Code)

	assert.NoError(mon.Start("127.0.0.1:0"))
	assert.Error(mon.Start("127.0.0.1:0"))

	resp, err := http.Get("http://" + mon.Addr() + "/metrics")
	if assert.NoError(err) {
		assert.Equal(http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}
	mon.Stop()
}

func TestMonitoredRun(t *testing.T) {
	assert := assert.New(t)

	p, set, _ := testParams(t, testConfig())
	mon := newMonitor(p.log)

	run, err := runGibbs(context.Background(), p, set, mon)
	assert.NoError(err)
	assert.NotNil(run)

	rec := httptest.NewRecorder()
	mon.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(body, "modelgibbs_samples_total 1200")
	assert.Contains(body, "modelgibbs_target_samples 600")
	assert.Contains(body, `modelgibbs_model_visits_total{model="mid"}`)
}

func TestExecuteGibbs(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "run.json")
	raw, err := json.Marshal(testConfig())
	assert.NoError(err)
	assert.NoError(os.WriteFile(cfgPath, raw, 0644))

	tracePath := filepath.Join(dir, "run.trace.zst")
	rootCmd.SetArgs([]string{"gibbs", "-c", cfgPath, "-t", tracePath, "-n", "300", "-b", "10", "--seed", "0"})
	assert.NoError(rootCmd.Execute())

	assert.Equal(int64(0), sp.cfg.Seed)
	assert.Equal(300, sp.cfg.Samples)
	assert.Equal(10, sp.cfg.BurnIn)

	f, err := os.Open(tracePath)
	assert.NoError(err)
	defer f.Close()
	dec, err := zstd.NewReader(f)
	assert.NoError(err)
	defer dec.Close()
	text, err := io.ReadAll(dec)
	assert.NoError(err)
	assert.Contains(string(text), "CHAIN 1 SAMPLES 300")
	assert.Contains(string(text), "GIBBS POSTERIOR")
}
