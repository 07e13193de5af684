package cmd

import (
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const metricsNamespace = "modelgibbs"

// monitor exposes sampling progress as prometheus metrics over HTTP. All
// metrics live in a private registry so more than one monitor can exist.
type monitor struct {
	registry *prometheus.Registry
	mux      *http.ServeMux
	log      zerolog.Logger

	stopped  chan struct{}
	server   *http.Server
	listener net.Listener

	BurnIn         prometheus.Gauge
	ConvergeWindow prometheus.Gauge
	TotalChains    prometheus.Gauge
	TargetSamples  prometheus.Gauge
	RunTime        prometheus.Gauge
	TotalSamples   prometheus.Counter
	ModelVisits    *prometheus.CounterVec

	LastConvergence prometheus.Gauge
}

func newMonitor(logger zerolog.Logger) *monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	gauge := func(name string, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		})
	}

	m := &monitor{
		registry: reg,
		log:      logger,

		BurnIn:          gauge("burnin_samples", "Samples discarded from the start of each chain"),
		ConvergeWindow:  gauge("convergence_window", "Size of the per-chain convergence window"),
		TotalChains:     gauge("chains", "Number of independent chains"),
		TargetSamples:   gauge("target_samples", "Samples each chain will take"),
		RunTime:         gauge("run_time_seconds", "Seconds since sampling started"),
		LastConvergence: gauge("last_convergence", "Most recent worst-chain convergence distance"),

		TotalSamples: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "samples_total",
			Help:      "Gibbs steps taken across all chains",
		}),
		ModelVisits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "model_visits_total",
			Help:      "Gibbs steps that landed in each model",
		}, []string{"model"}),
	}

	m.mux = http.NewServeMux()
	m.mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	m.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/metrics", http.StatusTemporaryRedirect)
	})

	return m
}

// Start begins serving metrics on addr
func (m *monitor) Start(addr string) error {
	if m.server != nil {
		return errors.Errorf("BUG: You may only start the process monitor once")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "Could not listen on %s", addr)
	}

	m.listener = ln
	m.stopped = make(chan struct{})
	m.server = &http.Server{
		Handler:           m.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Actual server that will close the stopped channel on exit
	go func() {
		defer close(m.stopped)
		m.server.Serve(ln)
	}()

	m.log.Info().Str("addr", ln.Addr().String()).Msg("Metrics now available at /metrics")
	return nil
}

// Addr is the address the monitor is listening on, or "" if not started
func (m *monitor) Addr() string {
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// Stop shuts the HTTP server down. It is safe to call on a nil monitor or
// one that was never started.
func (m *monitor) Stop() {
	if m == nil || m.server == nil {
		return
	}

	m.server.Close()

	select {
	case <-m.stopped:
		m.log.Debug().Msg("Metrics server stopped")
	case <-time.After(2 * time.Second):
		m.log.Warn().Msg("Metrics server would NOT stop: just continuing on")
	}
}
