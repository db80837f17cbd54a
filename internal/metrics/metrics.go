// Package metrics exposes monitor health as Prometheus series.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const namespace = "unitwatch"

const (
	ChangeAdded   = "added"
	ChangeRemoved = "removed"

	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds every series the monitor reports. A nil *Metrics records nothing.
type Metrics struct {
	checks        prometheus.Counter
	fetchErrors   prometheus.Counter
	checkDuration prometheus.Histogram
	units         prometheus.Gauge
	filteredUnits prometheus.Gauge
	changes       *prometheus.CounterVec
	notifications *prometheus.CounterVec
	sendDuration  *prometheus.HistogramVec
}

// New creates the series and registers them on registerer.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		checks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Completed availability checks.",
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Checks whose fetch failed and were treated as an empty inventory.",
		}),
		checkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Duration of one check, fetch through notification.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		units: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "units_available",
			Help:      "Units available at the last check.",
		}),
		filteredUnits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "units_matching_filter",
			Help:      "Available units matching the notification filter at the last check.",
		}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unit_changes_total",
			Help:      "Units added to or removed from availability.",
		}, []string{"kind"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification attempts per channel and result.",
		}, []string{"channel", "result"}),
		sendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notification_send_duration_seconds",
			Help:      "Duration of one channel send.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
	}

	registerer.MustRegister(
		m.checks,
		m.fetchErrors,
		m.checkDuration,
		m.units,
		m.filteredUnits,
		m.changes,
		m.notifications,
		m.sendDuration,
	)
	return m
}

// ObserveCheck records one completed check.
func (m *Metrics) ObserveCheck(units, filtered, added, removed int, fetchFailed bool, d time.Duration) {
	if m == nil {
		return
	}
	m.checks.Inc()
	if fetchFailed {
		m.fetchErrors.Inc()
	}
	m.checkDuration.Observe(d.Seconds())
	m.units.Set(float64(units))
	m.filteredUnits.Set(float64(filtered))
	m.changes.WithLabelValues(ChangeAdded).Add(float64(added))
	m.changes.WithLabelValues(ChangeRemoved).Add(float64(removed))
}

// ObserveNotification records one channel send.
func (m *Metrics) ObserveNotification(channel string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	result := ResultFailure
	if success {
		result = ResultSuccess
	}
	m.notifications.WithLabelValues(channel, result).Inc()
	m.sendDuration.WithLabelValues(channel).Observe(d.Seconds())
}

// Serve exposes gatherer on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info().Str("addr", addr).Msg("Metrics endpoint listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
