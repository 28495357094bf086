// Package metrics exports monitor activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Iron-Ham/conductor/internal/classify"
	"github.com/Iron-Ham/conductor/internal/logging"
)

const namespace = "conductor"

// Recorder counts drains, events, forwards and faults. It implements
// monitor.Observer. Each Recorder owns its registry so several can coexist.
type Recorder struct {
	registry *prometheus.Registry

	drains        *prometheus.CounterVec
	drainBytes    prometheus.Histogram
	published     *prometheus.CounterVec
	forwardBytes  prometheus.Counter
	faults        prometheus.Counter
	phraseReloads *prometheus.CounterVec
	phrases       prometheus.Gauge
}

// NewRecorder creates a recorder with a fresh registry that also carries the
// Go runtime and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		drains: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drains_total",
			Help:      "Non-empty drains of captured output by classified category",
		}, []string{"category"}),
		drainBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "drain_bytes",
			Help:      "Size of each drained batch in bytes",
			Buckets:   prometheus.ExponentialBuckets(8, 4, 8),
		}),
		published: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Events delivered to every subscriber by category",
		}, []string{"category"}),
		forwardBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forwarded_bytes_total",
			Help:      "Bytes forwarded to the original output",
		}),
		faults: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriber_faults_total",
			Help:      "Subscriber errors that ended a monitor loop",
		}),
		phraseReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phrase_reloads_total",
			Help:      "Phrase file reload attempts by result",
		}, []string{"result"}),
		phrases: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phrases",
			Help:      "Phrases in the active table",
		}),
	}
}

// ObserveDrain records a non-empty drain.
func (r *Recorder) ObserveDrain(category classify.Category, bytes int) {
	r.drains.WithLabelValues(category.String()).Inc()
	r.drainBytes.Observe(float64(bytes))
}

// ObservePublish records a fully delivered event.
func (r *Recorder) ObservePublish(category classify.Category) {
	r.published.WithLabelValues(category.String()).Inc()
}

// ObserveForward records forwarded bytes.
func (r *Recorder) ObserveForward(bytes int) {
	r.forwardBytes.Add(float64(bytes))
}

// ObserveFault records a subscriber fault.
func (r *Recorder) ObserveFault(error) {
	r.faults.Inc()
}

// ObserveReload records a phrase table reload attempt. It matches the
// classify.Watcher reload callback signature.
func (r *Recorder) ObserveReload(table *classify.Table, err error) {
	if err != nil {
		r.phraseReloads.WithLabelValues("error").Inc()
		return
	}
	r.phraseReloads.WithLabelValues("ok").Inc()
	r.phrases.Set(float64(table.Len()))
}

// SetPhrases sets the active phrase count.
func (r *Recorder) SetPhrases(n int) {
	r.phrases.Set(float64(n))
}

// Registry returns the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns an HTTP handler that serves the recorder's metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ServerConfig configures the metrics HTTP server.
type ServerConfig struct {
	Addr string
	Path string
}

// Serve exposes the metrics on cfg.Addr until ctx is cancelled, then shuts
// the server down. It returns nil after a clean shutdown.
func (r *Recorder) Serve(ctx context.Context, cfg ServerConfig, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.NopLogger()
	}
	logger = logger.WithComponent("metrics")

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	return r.serveListener(ctx, ln, cfg.Path, logger)
}

func (r *Recorder) serveListener(ctx context.Context, ln net.Listener, path string, logger *logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(path, r.Handler())

	server := &http.Server{
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting metrics server", "addr", ln.Addr().String(), "path", path)
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown failed", "error", err)
		return err
	}
	logger.Info("metrics server stopped")
	return nil
}
