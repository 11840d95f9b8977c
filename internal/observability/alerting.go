package observability

import (
	"fmt"
	"time"

	"github.com/valter-silva-au/aion-audit/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when threshold alerts fire. A zero
// MaxAverageLatencyMs or MaxRiskFactor disables that check.
type AlertThresholds struct {
	MaxAverageLatencyMs float64 `yaml:"max_average_latency_ms" json:"max_average_latency_ms"`
	MinProfitMargin     float64 `yaml:"min_profit_margin" json:"min_profit_margin"`
	MaxRiskFactor       float64 `yaml:"max_risk_factor" json:"max_risk_factor"`
}

// DefaultAlertThresholds returns sensible defaults for alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		MaxAverageLatencyMs: 5000,
		MinProfitMargin:     0,
		MaxRiskFactor:       0.5,
	}
}

// RiskHistory exposes the historical capital/risk records.
type RiskHistory interface {
	Records() []models.HistoricalRecord
}

// AlertEngine evaluates alert conditions against the trail, the derived
// metrics and the risk history.
type AlertEngine interface {
	Evaluate() []Alert
}

type alertEngine struct {
	reader     EventReader
	metrics    MetricsCalculator
	history    RiskHistory
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates a new AlertEngine. history may be nil.
func NewAlertEngine(reader EventReader, metrics MetricsCalculator, history RiskHistory, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		reader:     reader,
		metrics:    metrics,
		history:    history,
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate checks all alert conditions, returning any triggered alerts in
// a stable order: trail-derived alerts first, then threshold alerts.
func (ae *alertEngine) Evaluate() []Alert {
	now := ae.now()
	var alerts []Alert
	alerts = append(alerts, ae.checkTrail()...)
	alerts = append(alerts, ae.checkLatency(now)...)
	alerts = append(alerts, ae.checkMargin(now)...)
	alerts = append(alerts, ae.checkRisk(now)...)
	return alerts
}

// checkTrail turns availability, coherence and operational-error audit
// events into alerts.
func (ae *alertEngine) checkTrail() []Alert {
	var alerts []Alert
	for _, ev := range ae.reader.Read(EventFilter{Type: models.EventAudit}) {
		at, err := ev.Time()
		if err != nil {
			at = ae.now()
		}
		switch {
		case ev.Source == LedgerSource:
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("error-%s", ev.ID),
				Condition:   "operational_error",
				Severity:    SeverityMedium,
				Message:     fmt.Sprintf("%s: %s", ev.String("eventName"), ev.String("message")),
				TriggeredAt: at,
			})
		case ev.String("mpc") == "availability":
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("availability-%s", ev.ID),
				Condition:   "capital_unavailable",
				Severity:    SeverityHigh,
				Message:     fmt.Sprintf("capital reported %s (%s)", ev.String("status"), ev.String("alert")),
				TriggeredAt: at,
			})
		case ev.String("mpc") == "coherence":
			expected, _ := ev.Number("expected_length")
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("coherence-%s", ev.ID),
				Condition:   "seal_incoherent",
				Severity:    SeverityHigh,
				Message:     fmt.Sprintf("inputs hash %q does not have the expected length %d", ev.String("received_hash"), int(expected)),
				TriggeredAt: at,
			})
		}
	}
	return alerts
}

func (ae *alertEngine) checkLatency(now time.Time) []Alert {
	if ae.metrics == nil || ae.thresholds.MaxAverageLatencyMs <= 0 {
		return nil
	}
	m := ae.metrics.Calculate()
	if m.AverageRegistrationLatencyMs <= ae.thresholds.MaxAverageLatencyMs {
		return nil
	}
	return []Alert{{
		ID:          "registration-latency",
		Condition:   "registration_latency_high",
		Severity:    SeverityLow,
		Message:     fmt.Sprintf("average registration latency %.0f ms exceeds %.0f ms", m.AverageRegistrationLatencyMs, ae.thresholds.MaxAverageLatencyMs),
		TriggeredAt: now,
	}}
}

func (ae *alertEngine) checkMargin(now time.Time) []Alert {
	if ae.metrics == nil {
		return nil
	}
	m := ae.metrics.Calculate()
	if m.AuditedCycles == 0 || m.ProfitMarginPercentage >= ae.thresholds.MinProfitMargin {
		return nil
	}
	return []Alert{{
		ID:          "profit-margin",
		Condition:   "profit_margin_low",
		Severity:    SeverityMedium,
		Message:     fmt.Sprintf("profit margin %.2f%% is below %.2f%%", m.ProfitMarginPercentage, ae.thresholds.MinProfitMargin),
		TriggeredAt: now,
	}}
}

func (ae *alertEngine) checkRisk(now time.Time) []Alert {
	if ae.history == nil || ae.thresholds.MaxRiskFactor <= 0 {
		return nil
	}
	records := ae.history.Records()
	if len(records) == 0 {
		return nil
	}
	latest := records[len(records)-1]
	if latest.RiskFactorIntegral <= ae.thresholds.MaxRiskFactor {
		return nil
	}
	return []Alert{{
		ID:          "risk-factor",
		Condition:   "risk_factor_high",
		Severity:    SeverityHigh,
		Message:     fmt.Sprintf("risk factor integral %.2f exceeds %.2f", latest.RiskFactorIntegral, ae.thresholds.MaxRiskFactor),
		TriggeredAt: now,
	}}
}
