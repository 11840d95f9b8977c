package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

const telemetryNamespace = "aion"

// Telemetry holds the Prometheus collectors for one pipeline instance. The
// collectors live on a private registry so several pipelines (and tests) can
// coexist in one process. A nil *Telemetry is valid and records nothing.
type Telemetry struct {
	registry *prometheus.Registry

	eventsEmitted    *prometheus.CounterVec
	emissionsDropped prometheus.Counter
	deliveryFailures *prometheus.CounterVec
	trailLength      prometheus.Gauge
	capitalValue     prometheus.Gauge
	riskFactor       prometheus.Gauge
	tasksProcessed   prometheus.Counter
}

// NewTelemetry creates the collectors and registers them on a fresh registry.
func NewTelemetry() *Telemetry {
	t := &Telemetry{
		registry: prometheus.NewRegistry(),
		eventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: telemetryNamespace,
			Subsystem: "bus",
			Name:      "events_emitted_total",
			Help:      "Number of events delivered by the bus grouped by type and source.",
		}, []string{"type", "source"}),
		emissionsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: telemetryNamespace,
			Subsystem: "bus",
			Name:      "emissions_rejected_total",
			Help:      "Number of malformed emissions rejected before delivery.",
		}),
		deliveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: telemetryNamespace,
			Subsystem: "bus",
			Name:      "delivery_failures_total",
			Help:      "Number of listener failures grouped by delivery stage.",
		}, []string{"stage"}),
		trailLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: telemetryNamespace,
			Subsystem: "ledger",
			Name:      "trail_events",
			Help:      "Number of events recorded in the audit trail.",
		}),
		capitalValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: telemetryNamespace,
			Subsystem: "capital",
			Name:      "total_value",
			Help:      "Current total capital value.",
		}),
		riskFactor: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: telemetryNamespace,
			Subsystem: "risk",
			Name:      "factor_integral",
			Help:      "Risk factor integral of the latest vision report.",
		}),
		tasksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: telemetryNamespace,
			Subsystem: "work",
			Name:      "tasks_processed_total",
			Help:      "Number of task completions accepted by the work subject.",
		}),
	}
	t.registry.MustRegister(
		t.eventsEmitted,
		t.emissionsDropped,
		t.deliveryFailures,
		t.trailLength,
		t.capitalValue,
		t.riskFactor,
		t.tasksProcessed,
	)
	return t
}

// Registry exposes the private registry, e.g. for promhttp or tests.
func (t *Telemetry) Registry() *prometheus.Registry {
	if t == nil {
		return nil
	}
	return t.registry
}

func (t *Telemetry) recordEmitted(ev models.Event) {
	if t == nil {
		return
	}
	t.eventsEmitted.WithLabelValues(string(ev.Type), ev.Source).Inc()
}

func (t *Telemetry) recordRejected() {
	if t == nil {
		return
	}
	t.emissionsDropped.Inc()
}

func (t *Telemetry) recordFailures(stage string, n int) {
	if t == nil || n == 0 {
		return
	}
	t.deliveryFailures.WithLabelValues(stage).Add(float64(n))
}

func (t *Telemetry) recordTrailLength(n int) {
	if t == nil {
		return
	}
	t.trailLength.Set(float64(n))
}

// ObserveCapital records the current total capital.
func (t *Telemetry) ObserveCapital(total float64) {
	if t == nil {
		return
	}
	t.capitalValue.Set(total)
}

// ObserveRisk records the latest risk factor integral.
func (t *Telemetry) ObserveRisk(rfi float64) {
	if t == nil {
		return
	}
	t.riskFactor.Set(rfi)
}

// ObserveTaskProcessed counts one accepted task completion.
func (t *Telemetry) ObserveTaskProcessed() {
	if t == nil {
		return
	}
	t.tasksProcessed.Inc()
}

// Push sends the current state of every collector to a Prometheus
// Pushgateway. Batch runs are short-lived, so scraping is not an option.
func (t *Telemetry) Push(ctx context.Context, gatewayURL, job string) error {
	if t == nil {
		return nil
	}
	if gatewayURL == "" {
		return fmt.Errorf("pushgateway url must not be empty")
	}
	if job == "" {
		job = "aion"
	}
	if err := push.New(gatewayURL, job).Gatherer(t.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
